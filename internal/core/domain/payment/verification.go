// internal/core/domain/payment/verification.go
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"stars-subscription-bot/internal/infrastructure/persistence/postgres/models"
)

// DefaultVerificationFreshness окно, в котором запись активации считается свежей
const DefaultVerificationFreshness = 24 * time.Hour

// Причины непроверенного платежа
const (
	VerifyReasonNotFound   = "not_found"
	VerifyReasonInactive   = "inactive"
	VerifyReasonStale      = "stale"
	VerifyReasonSuperseded = "superseded"
)

// VerificationResult ответ проверки платежа
type VerificationResult struct {
	Verified     bool                 `json:"verified"`
	PaymentID    string               `json:"paymentId"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
	Message      string               `json:"message"`
	Reason       string               `json:"reason,omitempty"`
	SecurityHash string               `json:"securityHash"`
	Timestamp    int64                `json:"timestamp"`
}

// Err ошибка, соответствующая причине отказа
func (r *VerificationResult) Err() error {
	if r.Reason == VerifyReasonStale {
		return ErrStaleVerification
	}
	return nil
}

// VerificationService сообщает, была ли оплата подтверждена этим сервисом
type VerificationService struct {
	lookup     SubscriptionLookup
	secret     []byte
	production bool
	freshness  time.Duration
	now        func() time.Time
}

// NewVerificationService создает сервис проверки
func NewVerificationService(lookup SubscriptionLookup, secret string, production bool, freshness time.Duration) *VerificationService {
	if freshness <= 0 {
		freshness = DefaultVerificationFreshness
	}
	return &VerificationService{
		lookup:     lookup,
		secret:     []byte(secret),
		production: production,
		freshness:  freshness,
		now:        time.Now,
	}
}

// SetClock подменяет источник времени
func (s *VerificationService) SetClock(now func() time.Time) {
	s.now = now
}

// Verify проверяет платеж по transaction_id подписки
func (s *VerificationService) Verify(ctx context.Context, paymentID string) (*VerificationResult, error) {
	if paymentID == "" {
		return nil, &ValidationError{Field: "paymentId", Reason: "не указан id платежа"}
	}

	sub, err := s.lookup.GetByTransactionID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска подписки по платежу %s: %w", paymentID, err)
	}

	now := s.now()
	ts := now.UnixMilli()
	result := &VerificationResult{
		PaymentID:    paymentID,
		SecurityHash: s.SecurityHash(paymentID, ts),
		Timestamp:    ts,
	}

	if sub == nil {
		// подписку уже переписал более поздний платеж, но журнал помнит этот
		tx, err := s.lookup.GetTransaction(ctx, paymentID)
		if err != nil {
			return nil, fmt.Errorf("ошибка поиска платежа %s в журнале: %w", paymentID, err)
		}
		if tx != nil {
			result.Verified = !s.production
			result.Reason = VerifyReasonSuperseded
			result.Message = "Платеж учтен, подписка обновлена более поздним платежом"
			return result, nil
		}
		if s.production {
			result.Reason = VerifyReasonNotFound
			result.Message = "Платеж не найден"
		} else {
			result.Verified = true
			result.Message = "Платеж не найден, подтвержден в режиме разработки"
		}
		return result, nil
	}

	result.Subscription = sub
	switch {
	case !sub.IsActive:
		result.Reason = VerifyReasonInactive
		result.Message = "Подписка по платежу не активна"
	case now.Sub(sub.UpdatedAt) > s.freshness:
		result.Reason = VerifyReasonStale
		result.Message = "Запись об активации устарела"
	default:
		result.Verified = true
		result.Message = "Платеж подтвержден"
	}
	return result, nil
}

// SecurityHash подпись факта проверки: HMAC-SHA256("payment:" + id + ":time:" + ts)
func (s *VerificationService) SecurityHash(paymentID string, ts int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte("payment:" + paymentID + ":time:" + strconv.FormatInt(ts, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

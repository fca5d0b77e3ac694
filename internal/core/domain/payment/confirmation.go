// internal/core/domain/payment/confirmation.go
package payment

import (
	"context"
	"fmt"
	"time"

	"stars-subscription-bot/internal/core/domain/plan"
	"stars-subscription-bot/internal/core/domain/subscription"
	"stars-subscription-bot/internal/infrastructure/metrics"
	"stars-subscription-bot/internal/infrastructure/persistence/postgres/models"
	"stars-subscription-bot/pkg/logger"
)

// Outcome итог обработки подтверждения оплаты
type Outcome string

const (
	OutcomeActivated Outcome = "activated"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeUnmatched Outcome = "unmatched"
	OutcomeFailed    Outcome = "failed"
	OutcomeRejected  Outcome = "rejected"
)

// SuccessfulPayment событие успешной оплаты от платформы
type SuccessfulPayment struct {
	PaymentID               string // invoice payload
	TelegramUserID          int64
	ChatID                  int64
	Username                string
	Currency                string
	TotalAmount             int
	TelegramPaymentChargeID string
}

// ConfirmationResult результат обработки
type ConfirmationResult struct {
	Outcome      Outcome
	PaymentID    string
	Subscription *models.Subscription
}

// ConfirmationHandler единственный писатель, переводящий платеж в processed
type ConfirmationHandler struct {
	registry       Registry
	locker         Locker
	activator      Activator
	reconciliation ReconciliationStore
	messenger      Messenger
	now            func() time.Time
}

// NewConfirmationHandler создает обработчик подтверждений
func NewConfirmationHandler(
	registry Registry,
	locker Locker,
	activator Activator,
	reconciliation ReconciliationStore,
	messenger Messenger,
) *ConfirmationHandler {
	return &ConfirmationHandler{
		registry:       registry,
		locker:         locker,
		activator:      activator,
		reconciliation: reconciliation,
		messenger:      messenger,
		now:            time.Now,
	}
}

// SetClock подменяет источник времени
func (h *ConfirmationHandler) SetClock(now func() time.Time) {
	h.now = now
}

// OnSuccessfulPayment обрабатывает событие успешной оплаты.
// Повторная доставка того же id не приводит к повторной активации.
func (h *ConfirmationHandler) OnSuccessfulPayment(ctx context.Context, ev SuccessfulPayment) (*ConfirmationResult, error) {
	if ev.PaymentID == "" {
		return nil, &ValidationError{Field: "invoice_payload", Reason: "пустой payload"}
	}

	unlock, err := h.locker.Lock(ctx, ev.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("ошибка блокировки платежа %s: %w", ev.PaymentID, err)
	}
	defer unlock()

	pending, err := h.registry.Get(ctx, ev.PaymentID)
	if err != nil {
		logger.Error("❌ Ошибка чтения реестра для платежа %s: %v", ev.PaymentID, err)
		failure := &ActivationFailure{PaymentID: ev.PaymentID, Err: err}
		h.recordFailure(ctx, fromEvent(ev, ""), ev.TelegramPaymentChargeID, failure)
		h.notify(ctx, chatFor(ev, nil), activationDelayedText(ev.PaymentID))
		metrics.Get().Confirmations.WithLabelValues(string(OutcomeFailed)).Inc()
		return &ConfirmationResult{Outcome: OutcomeFailed, PaymentID: ev.PaymentID}, failure
	}

	if pending == nil {
		return h.handleUnmatched(ctx, ev)
	}

	if pending.Processed {
		logger.Debug("🔁 Повторная доставка платежа %s, пропускаем", ev.PaymentID)
		metrics.Get().Confirmations.WithLabelValues(string(OutcomeDuplicate)).Inc()
		return &ConfirmationResult{Outcome: OutcomeDuplicate, PaymentID: ev.PaymentID}, nil
	}

	if ev.TotalAmount > 0 && ev.TotalAmount != pending.StarsAmount {
		logger.Warn("⚠️ Сумма платежа %s (%d %s) не совпадает с выставленной (%d), план %s",
			ev.PaymentID, ev.TotalAmount, ev.Currency, pending.StarsAmount, pending.Plan)
	}
	if ev.TelegramUserID > 0 && pending.UserID > 0 && ev.TelegramUserID != pending.UserID {
		logger.Warn("⚠️ Платеж %s оплачен пользователем %d, счет выставлен пользователю %d",
			ev.PaymentID, ev.TelegramUserID, pending.UserID)
	}

	return h.activatePending(ctx, pending, ev.TelegramPaymentChargeID, chatFor(ev, pending))
}

// activatePending активирует подписку по записи реестра. Вызывается под блокировкой id.
func (h *ConfirmationHandler) activatePending(ctx context.Context, pending *PendingPayment, chargeID string, chatID int64) (*ConfirmationResult, error) {
	p, err := plan.Get(pending.Plan)
	if err != nil {
		return nil, &ValidationError{Field: "plan", Reason: err.Error()}
	}

	res, err := h.activator.Activate(ctx, subscription.ActivationRequest{
		TelegramUserID: pending.UserID,
		AccountID:      pending.AccountID,
		Username:       pending.Username,
		Plan:           p.Code,
		Amount:         pending.StarsAmount,
		TransactionID:  pending.ID,
	})
	if err != nil {
		failure := &ActivationFailure{PaymentID: pending.ID, Plan: p.Code, Err: err}
		logger.Error("❌ Активация по платежу %s не выполнена (user %d, plan %s): %v",
			pending.ID, pending.UserID, p.Code, err)
		h.recordFailure(ctx, reconciliationFromPending(pending), chargeID, failure)
		h.notify(ctx, chatID, activationDelayedText(pending.ID))
		metrics.Get().Confirmations.WithLabelValues(string(OutcomeFailed)).Inc()
		return &ConfirmationResult{Outcome: OutcomeFailed, PaymentID: pending.ID}, failure
	}

	if _, err := h.registry.MarkProcessed(ctx, pending.ID, h.now()); err != nil {
		// активация уже записана, повтор будет отсечен журналом транзакций
		logger.Error("❌ Не удалось отметить платеж %s обработанным: %v", pending.ID, err)
	}
	h.resolveOpen(ctx, pending.ID, "активация выполнена")

	if res.AlreadyApplied {
		metrics.Get().Confirmations.WithLabelValues(string(OutcomeDuplicate)).Inc()
		return &ConfirmationResult{Outcome: OutcomeDuplicate, PaymentID: pending.ID, Subscription: res.Subscription}, nil
	}

	h.notify(ctx, chatID, activationSuccessText(p, pending.StarsAmount, res.Subscription.EndDate))
	metrics.Get().Confirmations.WithLabelValues(string(OutcomeActivated)).Inc()
	logger.Payment("оплата подтверждена", pending.ID, pending.UserID, p.Code)

	return &ConfirmationResult{Outcome: OutcomeActivated, PaymentID: pending.ID, Subscription: res.Subscription}, nil
}

func (h *ConfirmationHandler) handleUnmatched(ctx context.Context, ev SuccessfulPayment) (*ConfirmationResult, error) {
	logger.Warn("⚠️ Неизвестный платеж %s от пользователя %d (%d %s), передан на ручную сверку",
		ev.PaymentID, ev.TelegramUserID, ev.TotalAmount, ev.Currency)

	existing, err := h.reconciliation.GetOpen(ctx, ev.PaymentID)
	if err != nil {
		logger.Error("❌ Ошибка чтения журнала сверки для %s: %v", ev.PaymentID, err)
	}

	if existing == nil {
		planCode := ""
		if p, ok := plan.ByStars(ev.TotalAmount); ok {
			planCode = p.Code
		}
		rec := fromEvent(ev, planCode)
		rec.Status = models.ReconciliationUnmatched
		rec.Reason = ErrUnmatchedPayment.Error()
		if err := h.reconciliation.Record(ctx, rec); err != nil {
			logger.Error("❌ Не удалось записать платеж %s на сверку: %v", ev.PaymentID, err)
		}
		h.notify(ctx, chatFor(ev, nil), pendingVerificationText(ev.PaymentID, ev.TotalAmount, ev.Currency))
	}

	metrics.Get().Confirmations.WithLabelValues(string(OutcomeUnmatched)).Inc()
	return &ConfirmationResult{Outcome: OutcomeUnmatched, PaymentID: ev.PaymentID},
		&UnmatchedPaymentError{PaymentID: ev.PaymentID, TelegramUserID: ev.TelegramUserID}
}

func (h *ConfirmationHandler) recordFailure(ctx context.Context, rec *models.PaymentReconciliation, chargeID string, failure *ActivationFailure) {
	rec.Status = models.ReconciliationFailed
	rec.Reason = failure.Error()
	if chargeID != "" {
		rec.TelegramPaymentChargeID = chargeID
	}
	if err := h.reconciliation.Record(ctx, rec); err != nil {
		logger.Error("❌ Не удалось записать сбой активации %s: %v", rec.PaymentID, err)
	}
}

func (h *ConfirmationHandler) resolveOpen(ctx context.Context, paymentID, reason string) {
	open, err := h.reconciliation.GetOpen(ctx, paymentID)
	if err != nil || open == nil {
		return
	}
	if err := h.reconciliation.Resolve(ctx, paymentID, models.ReconciliationResolved, reason); err != nil {
		logger.Warn("⚠️ Не удалось закрыть запись сверки %s: %v", paymentID, err)
	}
}

func (h *ConfirmationHandler) notify(ctx context.Context, chatID int64, text string) {
	if chatID == 0 {
		return
	}
	if err := h.messenger.SendMessage(ctx, chatID, text); err != nil {
		logger.Warn("⚠️ Не удалось отправить сообщение в чат %d: %v", chatID, err)
	}
}

func chatFor(ev SuccessfulPayment, pending *PendingPayment) int64 {
	switch {
	case ev.ChatID != 0:
		return ev.ChatID
	case pending != nil && pending.ChatID != 0:
		return pending.ChatID
	case pending != nil:
		return pending.UserID
	default:
		return ev.TelegramUserID
	}
}

func fromEvent(ev SuccessfulPayment, planCode string) *models.PaymentReconciliation {
	return &models.PaymentReconciliation{
		PaymentID:               ev.PaymentID,
		TelegramUserID:          ev.TelegramUserID,
		ChatID:                  ev.ChatID,
		Plan:                    planCode,
		StarsAmount:             ev.TotalAmount,
		Currency:                ev.Currency,
		TelegramPaymentChargeID: ev.TelegramPaymentChargeID,
	}
}

func reconciliationFromPending(p *PendingPayment) *models.PaymentReconciliation {
	return &models.PaymentReconciliation{
		PaymentID:      p.ID,
		TelegramUserID: p.UserID,
		ChatID:         p.ChatID,
		Plan:           p.Plan,
		StarsAmount:    p.StarsAmount,
		Currency:       CurrencyXTR,
	}
}

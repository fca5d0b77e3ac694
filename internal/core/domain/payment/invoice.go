// internal/core/domain/payment/invoice.go
package payment

import (
	"context"
	"fmt"
	"time"

	"stars-subscription-bot/internal/core/domain/plan"
	"stars-subscription-bot/internal/infrastructure/metrics"
	"stars-subscription-bot/pkg/logger"
)

// IssueRequest запрос на выставление счета
type IssueRequest struct {
	ChatID    int64
	UserID    int64 // Telegram id
	AccountID int64
	Username  string
	Plan      string
}

// InvoiceIssuer выставляет счета в Telegram Stars
type InvoiceIssuer struct {
	registry  Registry
	messenger Messenger
	accounts  AccountResolver
	now       func() time.Time
}

// NewInvoiceIssuer создает выставление счетов
func NewInvoiceIssuer(registry Registry, messenger Messenger) *InvoiceIssuer {
	return &InvoiceIssuer{
		registry:  registry,
		messenger: messenger,
		now:       time.Now,
	}
}

// SetClock подменяет источник времени
func (i *InvoiceIssuer) SetClock(now func() time.Time) {
	i.now = now
}

// SetAccountResolver подключает поиск внутреннего id пользователя
func (i *InvoiceIssuer) SetAccountResolver(r AccountResolver) {
	i.accounts = r
}

// IssueInvoice регистрирует платеж и отправляет счет с payload = paymentID.
// Если счет не доставлен, один раз отправляет инструкции ручной оплаты с тем же id.
func (i *InvoiceIssuer) IssueInvoice(ctx context.Context, req IssueRequest) (string, error) {
	p, err := validateIssue(req)
	if err != nil {
		return "", err
	}

	id, err := i.register(ctx, req, p, p.Stars, SourceInvoice)
	if err != nil {
		return "", err
	}

	inv := Invoice{
		ChatID:      req.ChatID,
		Title:       p.Title,
		Description: p.Description,
		Payload:     id,
		Label:       p.Title,
		Amount:      p.Stars,
	}
	if err := i.messenger.SendInvoice(ctx, inv); err != nil {
		metrics.Get().InvoiceFallbacks.Inc()
		logger.Warn("⚠️ Счет %s не доставлен (user %d, plan %s): %v, отправляем инструкции ручной оплаты",
			id, req.UserID, p.Code, err)

		if ferr := i.messenger.SendMessage(ctx, req.ChatID, manualTransferText(p, p.Stars, id)); ferr != nil {
			logger.Error("❌ Не удалось отправить инструкции оплаты %s: %v", id, ferr)
			return id, fmt.Errorf("ошибка доставки счета %s: %w", id, ferr)
		}
		return id, nil
	}

	metrics.Get().Invoices.WithLabelValues(p.Code).Inc()
	logger.Payment("счет выставлен", id, req.UserID, p.Code)

	if err := i.messenger.SendMessage(ctx, req.ChatID, invoiceFollowUpText()); err != nil {
		logger.Warn("⚠️ Не удалось отправить подсказку к счету %s: %v", id, err)
	}
	return id, nil
}

// IssueDirect регистрирует прямой платеж (ручной перевод звезд) и отправляет инструкции
func (i *InvoiceIssuer) IssueDirect(ctx context.Context, req IssueRequest, stars int) (string, error) {
	p, err := validateIssue(req)
	if err != nil {
		return "", err
	}
	if stars <= 0 {
		return "", &ValidationError{Field: "stars", Reason: "сумма должна быть положительной"}
	}

	id, err := i.register(ctx, req, p, stars, SourceDirect)
	if err != nil {
		return "", err
	}

	if err := i.messenger.SendMessage(ctx, req.ChatID, manualTransferText(p, stars, id)); err != nil {
		logger.Error("❌ Не удалось отправить инструкции оплаты %s: %v", id, err)
		return id, fmt.Errorf("ошибка отправки инструкций %s: %w", id, err)
	}
	logger.Payment("прямой платеж зарегистрирован", id, req.UserID, p.Code)
	return id, nil
}

func (i *InvoiceIssuer) register(ctx context.Context, req IssueRequest, p plan.Plan, stars int, source string) (string, error) {
	now := i.now()
	id := NewPaymentID(source, now)

	accountID := req.AccountID
	if accountID == 0 && i.accounts != nil {
		accountID = i.accounts.ResolveAccountID(ctx, req.UserID)
	}

	pending := &PendingPayment{
		ID:          id,
		UserID:      req.UserID,
		AccountID:   accountID,
		ChatID:      req.ChatID,
		Username:    req.Username,
		Plan:        p.Code,
		StarsAmount: stars,
		Direct:      source == SourceDirect,
		CreatedAt:   now,
	}
	if err := i.registry.Put(ctx, pending); err != nil {
		return "", fmt.Errorf("ошибка регистрации платежа %s: %w", id, err)
	}
	return id, nil
}

func validateIssue(req IssueRequest) (plan.Plan, error) {
	p, err := plan.Get(req.Plan)
	if err != nil {
		return plan.Plan{}, &ValidationError{Field: "plan", Reason: err.Error()}
	}
	if req.ChatID == 0 {
		return plan.Plan{}, &ValidationError{Field: "chat_id", Reason: "не указан чат"}
	}
	if req.UserID <= 0 {
		return plan.Plan{}, &ValidationError{Field: "user_id", Reason: "не указан пользователь"}
	}
	return p, nil
}

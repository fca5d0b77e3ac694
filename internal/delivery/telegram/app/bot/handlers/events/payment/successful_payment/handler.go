// internal/delivery/telegram/app/bot/handlers/events/payment/successful_payment/handler.go
package successful_payment

import (
	"context"
	"errors"
	"fmt"

	"stars-subscription-bot/internal/core/domain/payment"
	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers"
	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers/base"
	"stars-subscription-bot/pkg/logger"

	"github.com/go-telegram/bot/models"
)

// Confirmer обработка подтвержденной оплаты
type Confirmer interface {
	OnSuccessfulPayment(ctx context.Context, ev payment.SuccessfulPayment) (*payment.ConfirmationResult, error)
}

// Handler обработчик successful_payment
type Handler struct {
	*base.BaseHandler
	confirmer Confirmer
}

// NewHandler создает обработчик successful_payment
func NewHandler(confirmer Confirmer) *Handler {
	return &Handler{
		BaseHandler: &base.BaseHandler{
			Name:    "successful_payment_handler",
			Command: "successful_payment",
			Type:    handlers.TypeEvent,
		},
		confirmer: confirmer,
	}
}

// Handle переводит сообщение об оплате в событие подтверждения.
// Неопознанный платеж уже записан на сверку, поэтому он не считается ошибкой доставки.
func (h *Handler) Handle(ctx context.Context, msg *models.Message) (*payment.ConfirmationResult, error) {
	if msg == nil || msg.SuccessfulPayment == nil {
		return nil, fmt.Errorf("сообщение не содержит successful_payment")
	}

	sp := msg.SuccessfulPayment
	ev := payment.SuccessfulPayment{
		PaymentID:               sp.InvoicePayload,
		ChatID:                  msg.Chat.ID,
		Currency:                sp.Currency,
		TotalAmount:             sp.TotalAmount,
		TelegramPaymentChargeID: sp.TelegramPaymentChargeID,
	}
	if msg.From != nil {
		ev.TelegramUserID = msg.From.ID
		ev.Username = msg.From.Username
	}

	result, err := h.confirmer.OnSuccessfulPayment(ctx, ev)
	if err != nil {
		if errors.Is(err, payment.ErrUnmatchedPayment) {
			logger.Warn("⚠️ Платеж %s от %d передан на ручную сверку", ev.PaymentID, ev.TelegramUserID)
			return result, nil
		}
		return result, fmt.Errorf("ошибка подтверждения платежа %s: %w", ev.PaymentID, err)
	}

	logger.Info("💰 Платеж %s обработан: %s", ev.PaymentID, result.Outcome)
	return result, nil
}

// internal/delivery/telegram/app/bot/handlers/events/payment/pre_checkout/handler.go
package pre_checkout

import (
	"context"
	"fmt"

	"stars-subscription-bot/internal/core/domain/payment"
	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers"
	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers/base"

	"github.com/go-telegram/bot/models"
)

// Authorizer ответ на pre_checkout_query
type Authorizer interface {
	OnPreCheckout(ctx context.Context, q payment.PreCheckoutQuery) (bool, error)
}

// Handler обработчик pre_checkout_query
type Handler struct {
	*base.BaseHandler
	authorizer Authorizer
}

// NewHandler создает новый обработчик pre_checkout_query
func NewHandler(authorizer Authorizer) *Handler {
	return &Handler{
		BaseHandler: &base.BaseHandler{
			Name:    "pre_checkout_handler",
			Command: "pre_checkout_query",
			Type:    handlers.TypeEvent,
		},
		authorizer: authorizer,
	}
}

// Handle передает запрос в CheckoutAuthorizer
func (h *Handler) Handle(ctx context.Context, query *models.PreCheckoutQuery) error {
	if query == nil || query.ID == "" {
		return fmt.Errorf("пустой pre_checkout_query")
	}

	q := payment.PreCheckoutQuery{
		ID:          query.ID,
		Payload:     query.InvoicePayload,
		Currency:    query.Currency,
		TotalAmount: query.TotalAmount,
	}
	if query.From != nil {
		q.UserID = query.From.ID
	}

	if _, err := h.authorizer.OnPreCheckout(ctx, q); err != nil {
		return fmt.Errorf("ошибка обработки pre-checkout %s: %w", query.ID, err)
	}
	return nil
}

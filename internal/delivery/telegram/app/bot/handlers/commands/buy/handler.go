// internal/delivery/telegram/app/bot/handlers/commands/buy/handler.go
package buy

import (
	"context"

	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers"
	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers/base"
	"stars-subscription-bot/pkg/logger"
)

// buyCommandHandler выставляет счет за один план (/weekly, /monthly, ...)
type buyCommandHandler struct {
	*base.BaseHandler
	planCode string
	issuer   handlers.InvoiceIssuer
}

// NewHandler создает хэндлер покупки плана
func NewHandler(planCode string, issuer handlers.InvoiceIssuer) handlers.Handler {
	return &buyCommandHandler{
		BaseHandler: &base.BaseHandler{
			Name:    "buy_" + planCode + "_handler",
			Command: planCode,
			Type:    handlers.TypeCommand,
		},
		planCode: planCode,
		issuer:   issuer,
	}
}

// Execute выставляет счет. Сообщения (счет или инструкции) отправляет InvoiceIssuer
func (h *buyCommandHandler) Execute(ctx context.Context, params handlers.HandlerParams) (handlers.HandlerResult, error) {
	id, err := h.issuer.IssueInvoice(ctx, h.IssueRequest(params, h.planCode))
	if err != nil && id == "" {
		logger.Warn("⚠️ Счет %s не выставлен для %d: %v", h.planCode, params.UserID, err)
		return handlers.HandlerResult{Message: h.IssueFailureMessage(err)}, nil
	}

	return handlers.HandlerResult{
		Metadata: map[string]interface{}{
			"payment_id": id,
			"plan":       h.planCode,
		},
	}, nil
}

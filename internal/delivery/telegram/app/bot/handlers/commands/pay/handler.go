// internal/delivery/telegram/app/bot/handlers/commands/pay/handler.go
package pay

import (
	"context"
	"strconv"

	"stars-subscription-bot/internal/core/domain/plan"
	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers"
	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers/base"
	"stars-subscription-bot/pkg/logger"
)

const usageMessage = "⚠️ Неверный формат команды.\n" +
	"Формат: /pay <план> <звезды>\n\n" +
	"Пример: /pay weekly 750"

// payCommandHandler прямой платеж переводом звезд
type payCommandHandler struct {
	*base.BaseHandler
	issuer handlers.InvoiceIssuer
}

// NewHandler создает хэндлер команды /pay
func NewHandler(issuer handlers.InvoiceIssuer) handlers.Handler {
	return &payCommandHandler{
		BaseHandler: &base.BaseHandler{
			Name:    "pay_command_handler",
			Command: "pay",
			Type:    handlers.TypeCommand,
		},
		issuer: issuer,
	}
}

// Execute регистрирует прямой платеж и отправляет инструкции
func (h *payCommandHandler) Execute(ctx context.Context, params handlers.HandlerParams) (handlers.HandlerResult, error) {
	if len(params.Args) < 2 {
		return handlers.HandlerResult{Message: usageMessage}, nil
	}

	planCode := params.Args[0]
	stars, err := strconv.Atoi(params.Args[1])
	if !plan.IsValid(planCode) || err != nil || stars <= 0 {
		return handlers.HandlerResult{
			Message: "⚠️ Неверный план или количество звезд.\n\n" +
				"Доступные планы: " + base.PlanCodes() + "\n" +
				"Количество звезд должно быть положительным числом.",
		}, nil
	}

	id, err := h.issuer.IssueDirect(ctx, h.IssueRequest(params, planCode), stars)
	if err != nil && id == "" {
		logger.Warn("⚠️ Прямой платеж %s не зарегистрирован для %d: %v", planCode, params.UserID, err)
		return handlers.HandlerResult{Message: h.IssueFailureMessage(err)}, nil
	}

	return handlers.HandlerResult{
		Metadata: map[string]interface{}{
			"payment_id": id,
			"plan":       planCode,
			"stars":      stars,
		},
	}, nil
}

// internal/delivery/telegram/app/bot/handlers/commands/unknown/handler.go
package unknown

import (
	"context"

	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers"
	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers/base"
)

type unknownCommandHandler struct {
	*base.BaseHandler
}

// NewHandler создает хэндлер неизвестных команд
func NewHandler() handlers.Handler {
	return &unknownCommandHandler{
		BaseHandler: &base.BaseHandler{
			Name: "unknown_command_handler",
			Type: handlers.TypeCommand,
		},
	}
}

// Execute отвечает подсказкой
func (h *unknownCommandHandler) Execute(_ context.Context, _ handlers.HandlerParams) (handlers.HandlerResult, error) {
	return handlers.HandlerResult{
		Message: "⚠️ Неизвестная команда.\nИспользуйте /help для списка команд.",
	}, nil
}

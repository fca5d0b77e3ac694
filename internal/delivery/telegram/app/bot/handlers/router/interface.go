// internal/delivery/telegram/app/bot/handlers/router/interface.go
package router

import (
	"context"

	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers"
)

// Router интерфейс маршрутизатора команд
type Router interface {
	RegisterHandler(handler handlers.Handler)                 // регистрация по GetCommand()
	RegisterCommand(command string, handler handlers.Handler) // явная регистрация команды
	SetFallback(handler handlers.Handler)                     // хэндлер неизвестных команд
	Handle(ctx context.Context, command string, params handlers.HandlerParams) (handlers.HandlerResult, error)
	GetHandler(command string) (handlers.Handler, bool)
	GetCommands() []string
}

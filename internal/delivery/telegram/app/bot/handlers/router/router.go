// internal/delivery/telegram/app/bot/handlers/router/router.go
package router

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers"
	"stars-subscription-bot/pkg/logger"
)

// routerImpl реализация Router
type routerImpl struct {
	handlers map[string]handlers.Handler // ключ: команда с /
	fallback handlers.Handler
}

// NewRouter создает новый роутер
func NewRouter() Router {
	return &routerImpl{
		handlers: make(map[string]handlers.Handler),
	}
}

// RegisterHandler регистрирует хэндлер (использует GetCommand())
func (r *routerImpl) RegisterHandler(handler handlers.Handler) {
	r.RegisterCommand(handler.GetCommand(), handler)
}

// RegisterCommand регистрирует команду
func (r *routerImpl) RegisterCommand(command string, handler handlers.Handler) {
	command = normalizeCommand(command)
	r.handlers[command] = handler
	logger.Debug("Зарегистрирована команда: %s → %s", command, handler.GetName())
}

// SetFallback задает хэндлер неизвестных команд
func (r *routerImpl) SetFallback(handler handlers.Handler) {
	r.fallback = handler
}

// Handle обрабатывает команду
func (r *routerImpl) Handle(ctx context.Context, command string, params handlers.HandlerParams) (handlers.HandlerResult, error) {
	command = normalizeCommand(command)

	if handler, exists := r.handlers[command]; exists {
		return r.executeHandler(ctx, handler, command, params)
	}

	if r.fallback != nil {
		logger.Debug("Неизвестная команда '%s', используем %s", command, r.fallback.GetName())
		return r.executeHandler(ctx, r.fallback, command, params)
	}

	return handlers.HandlerResult{}, fmt.Errorf("хэндлер для '%s' не найден", command)
}

// executeHandler выполняет обработчик
func (r *routerImpl) executeHandler(ctx context.Context, handler handlers.Handler, command string, params handlers.HandlerParams) (handlers.HandlerResult, error) {
	logger.Debug("Вызов хэндлера: %s для: %s", handler.GetName(), command)

	result, err := handler.Execute(ctx, params)
	if err != nil {
		logger.Error("Ошибка в хэндлере %s для %s: %v", handler.GetName(), command, err)
		return handlers.HandlerResult{}, err
	}
	return result, nil
}

// GetHandler возвращает хэндлер по команде
func (r *routerImpl) GetHandler(command string) (handlers.Handler, bool) {
	handler, exists := r.handlers[normalizeCommand(command)]
	return handler, exists
}

// GetCommands возвращает отсортированный список команд (с /)
func (r *routerImpl) GetCommands() []string {
	commands := make([]string, 0, len(r.handlers))
	for cmd := range r.handlers {
		commands = append(commands, cmd)
	}
	sort.Strings(commands)
	return commands
}

// normalizeCommand приводит "/Start@MyBot" и "start" к "/start"
func normalizeCommand(command string) string {
	command = strings.ToLower(strings.TrimSpace(command))
	if i := strings.Index(command, "@"); i >= 0 {
		command = command[:i]
	}
	if !strings.HasPrefix(command, "/") {
		command = "/" + command
	}
	return command
}

var _ Router = (*routerImpl)(nil)

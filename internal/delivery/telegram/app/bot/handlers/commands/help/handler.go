// internal/delivery/telegram/app/bot/handlers/commands/help/handler.go
package help

import (
	"context"
	"fmt"
	"strings"

	"stars-subscription-bot/internal/core/domain/plan"
	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers"
	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers/base"
)

// helpCommandHandler обработчик команды /help
type helpCommandHandler struct {
	*base.BaseHandler
}

// NewHandler создает хэндлер команды /help
func NewHandler() handlers.Handler {
	return &helpCommandHandler{
		BaseHandler: &base.BaseHandler{
			Name:    "help_command_handler",
			Command: "help",
			Type:    handlers.TypeCommand,
		},
	}
}

// Execute выполняет обработку команды /help
func (h *helpCommandHandler) Execute(_ context.Context, _ handlers.HandlerParams) (handlers.HandlerResult, error) {
	return handlers.HandlerResult{Message: HelpMessage()}, nil
}

// HelpMessage текст справки
func HelpMessage() string {
	var sb strings.Builder
	sb.WriteString("📖 Помощь\n\n")
	sb.WriteString("/start - начать работу с ботом\n")
	sb.WriteString("/weekly, /monthly, /annual, /premium - купить подписку\n")
	sb.WriteString("/pay <план> <звезды> - оплата переводом звезд\n")
	sb.WriteString("/status - проверить статус подписки\n\n")
	sb.WriteString("💰 Тарифы:\n")
	for _, p := range plan.All() {
		sb.WriteString(fmt.Sprintf("• %s - %d ⭐, %d дн., до %d сигналов в день\n",
			p.Title, p.Stars, p.DurationDays, p.DailySignalLimit))
	}
	sb.WriteString("\nПримеры:\n")
	for _, p := range plan.All() {
		sb.WriteString(fmt.Sprintf("/pay %s %d\n", p.Code, p.Stars))
	}
	sb.WriteString("\nПосле оплаты подписка активируется автоматически.")
	return sb.String()
}

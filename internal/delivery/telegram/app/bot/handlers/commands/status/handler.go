// internal/delivery/telegram/app/bot/handlers/commands/status/handler.go
package status

import (
	"context"
	"fmt"
	"time"

	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers"
	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers/base"
	"stars-subscription-bot/pkg/logger"
	"stars-subscription-bot/pkg/utils"
)

// statusCommandHandler обработчик команды /status
type statusCommandHandler struct {
	*base.BaseHandler
	reader handlers.SubscriptionReader
	now    func() time.Time
}

// NewHandler создает хэндлер команды /status
func NewHandler(reader handlers.SubscriptionReader) handlers.Handler {
	return &statusCommandHandler{
		BaseHandler: &base.BaseHandler{
			Name:    "status_command_handler",
			Command: "status",
			Type:    handlers.TypeCommand,
		},
		reader: reader,
		now:    time.Now,
	}
}

// Execute показывает текущую подписку пользователя
func (h *statusCommandHandler) Execute(ctx context.Context, params handlers.HandlerParams) (handlers.HandlerResult, error) {
	sub, err := h.reader.GetByTelegramID(ctx, params.UserID)
	if err != nil {
		logger.Error("❌ Ошибка чтения подписки пользователя %d: %v", params.UserID, err)
		return handlers.HandlerResult{
			Message: "❌ Не удалось получить статус подписки. Попробуйте позже.",
		}, nil
	}

	if sub == nil || !sub.IsValidAt(h.now()) {
		return handlers.HandlerResult{
			Message: "ℹ️ У вас нет активной подписки.\n\nОформить: /weekly, /monthly, /annual или /premium",
		}, nil
	}

	message := fmt.Sprintf("📊 Ваша подписка\n\n"+
		"🏷 Уровень: %s\n"+
		"📅 Активна до: %s (дней осталось: %d)\n"+
		"📈 Лимит: %d сигналов в день",
		h.GetSubscriptionTierDisplayName(sub.Type),
		h.FormatDate(sub.EndDate),
		utils.DaysLeft(h.now(), sub.EndDate),
		sub.DailySignalLimit)

	return handlers.HandlerResult{
		Message: message,
		Metadata: map[string]interface{}{
			"type":     sub.Type,
			"end_date": sub.EndDate,
		},
	}, nil
}

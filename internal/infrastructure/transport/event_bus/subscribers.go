// internal/infrastructure/transport/event_bus/subscribers.go
package events

import (
	"context"
	"fmt"

	"stars-subscription-bot/internal/core/domain/subscription"
	"stars-subscription-bot/pkg/logger"
	"stars-subscription-bot/pkg/utils"
)

// BaseSubscriber - подписчик на основе функции
type BaseSubscriber struct {
	name    string
	handler func(context.Context, subscription.ActivationEvent) error
}

// NewBaseSubscriber создает подписчика
func NewBaseSubscriber(name string, handler func(context.Context, subscription.ActivationEvent) error) *BaseSubscriber {
	return &BaseSubscriber{name: name, handler: handler}
}

// HandleActivation обрабатывает событие
func (s *BaseSubscriber) HandleActivation(ctx context.Context, event subscription.ActivationEvent) error {
	return s.handler(ctx, event)
}

// GetName возвращает имя подписчика
func (s *BaseSubscriber) GetName() string {
	return s.name
}

// NewLoggingSubscriber пишет каждую активацию в журнал
func NewLoggingSubscriber() *BaseSubscriber {
	return NewBaseSubscriber("activation_logger", func(_ context.Context, ev subscription.ActivationEvent) error {
		logger.Info("📣 Подписка %s активирована: пользователь %d, до %s, лимит %d сигналов/день",
			ev.Plan, ev.TelegramUserID, utils.FormatDate(ev.EndDate), ev.DailySignalLimit)
		return nil
	})
}

// NewPublisherSubscriber пересылает события во внешний публикатор (например, Kafka)
func NewPublisherSubscriber(name string, publisher subscription.EventPublisher) *BaseSubscriber {
	return NewBaseSubscriber(name, func(ctx context.Context, ev subscription.ActivationEvent) error {
		if err := publisher.PublishActivation(ctx, ev); err != nil {
			return fmt.Errorf("ошибка публикации в %s: %w", name, err)
		}
		return nil
	})
}

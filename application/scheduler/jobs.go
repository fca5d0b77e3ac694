// application/scheduler/jobs.go
package scheduler

import (
	"context"
	"fmt"

	"stars-subscription-bot/internal/infrastructure/metrics"
	"stars-subscription-bot/internal/infrastructure/persistence/postgres/models"
	"stars-subscription-bot/pkg/logger"
)

const (
	// JobReconciliationDigest имя задачи сводки по ручной сверке
	JobReconciliationDigest = "reconciliation_digest"
	// JobSubscriptionStats имя задачи обновления счетчиков подписок
	JobSubscriptionStats = "subscription_stats"
)

// digestLimit сколько открытых записей выводить в сводку
const digestLimit = 50

// ActiveCounter считает действующие подписки
type ActiveCounter interface {
	CountActive(ctx context.Context) (int, error)
}

// UserCounter считает пользователей
type UserCounter interface {
	GetTotalCount(ctx context.Context) (int, error)
}

// ReconciliationLister источник открытых записей сверки
type ReconciliationLister interface {
	ListOpen(ctx context.Context, limit int) ([]*models.PaymentReconciliation, error)
}

// ReconciliationDigest ежедневно выводит в журнал платежи, ждущие ручной сверки
func ReconciliationDigest(store ReconciliationLister, spec string) *Job {
	if spec == "" {
		spec = "0 9 * * *"
	}
	return &Job{
		Name:        JobReconciliationDigest,
		Description: "Сводка платежей, ожидающих ручной сверки",
		Spec:        spec,
		Handler: func(ctx context.Context) error {
			open, err := store.ListOpen(ctx, digestLimit)
			if err != nil {
				return fmt.Errorf("ошибка чтения журнала сверки: %w", err)
			}

			metrics.Get().OpenReconciliations.Set(float64(len(open)))
			if len(open) == 0 {
				logger.Info("✅ Платежей на ручной сверке нет")
				return nil
			}

			logger.Warn("⚠️ Платежей на ручной сверке: %d", len(open))
			for _, rec := range open {
				logger.Warn("   • %s: пользователь %d, %d %s, план %q, статус %s (%s)",
					rec.PaymentID, rec.TelegramUserID, rec.StarsAmount, rec.Currency,
					rec.Plan, rec.Status, rec.Reason)
			}
			return nil
		},
	}
}

// SubscriptionStats обновляет счетчики действующих подписок и пользователей.
// users может быть nil.
func SubscriptionStats(subs ActiveCounter, users UserCounter, spec string) *Job {
	if spec == "" {
		spec = "@every 15m"
	}
	return &Job{
		Name:        JobSubscriptionStats,
		Description: "Счетчики действующих подписок и пользователей",
		Spec:        spec,
		Handler: func(ctx context.Context) error {
			active, err := subs.CountActive(ctx)
			if err != nil {
				return fmt.Errorf("ошибка подсчета подписок: %w", err)
			}
			metrics.Get().ActiveSubscriptions.Set(float64(active))

			if users == nil {
				logger.Debug("📊 Действующих подписок: %d", active)
				return nil
			}
			total, err := users.GetTotalCount(ctx)
			if err != nil {
				return fmt.Errorf("ошибка подсчета пользователей: %w", err)
			}
			metrics.Get().RegisteredUsers.Set(float64(total))
			logger.Debug("📊 Действующих подписок: %d, пользователей: %d", active, total)
			return nil
		},
	}
}

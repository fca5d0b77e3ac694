// internal/core/domain/subscription/service.go
package subscription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stars-subscription-bot/internal/core/domain/plan"
	"stars-subscription-bot/internal/infrastructure/metrics"
	"stars-subscription-bot/internal/infrastructure/persistence/postgres/models"
	"stars-subscription-bot/pkg/logger"
	"stars-subscription-bot/pkg/utils"
)

// Service движок активации подписок
type Service struct {
	store     Store
	publisher EventPublisher
	now       func() time.Time
}

// NewService создает сервис подписок
func NewService(store Store, publisher EventPublisher) *Service {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	logger.Info("✅ Сервис подписок инициализирован")
	return &Service{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// SetClock подменяет источник времени
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Activate активирует подписку по оплаченному плану.
// Ошибка хранилища откатывает всю активацию, частичных записей не бывает.
func (s *Service) Activate(ctx context.Context, req ActivationRequest) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	p, err := plan.Get(req.Plan)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, req.Plan)
	}

	start := s.now().UTC()
	end := start.Add(p.Duration())

	rec := ActivationRecord{
		TelegramUserID:      req.TelegramUserID,
		AccountID:           req.AccountID,
		Username:            req.Username,
		Plan:                p.Code,
		Type:                p.Tier,
		StartDate:           start,
		EndDate:             end,
		Amount:              req.Amount,
		Currency:            models.CurrencyStars,
		PaymentMethod:       models.PaymentMethodTelegramStars,
		TransactionID:       req.TransactionID,
		DailySignalLimit:    p.DailySignalLimit,
		NotificationTitle:   "Подписка активирована",
		NotificationMessage: fmt.Sprintf("%s активирована до %s. Лимит: %d сигналов в день.", p.Title, utils.FormatDate(end), p.DailySignalLimit),
	}

	sub, applied, err := s.store.Activate(ctx, rec)
	if err != nil {
		metrics.Get().ActivationFailures.Inc()
		logger.Error("❌ Ошибка активации подписки %s (user %d, plan %s): %v",
			req.TransactionID, req.TelegramUserID, p.Code, err)
		return nil, fmt.Errorf("ошибка записи активации: %w", err)
	}

	if !applied {
		logger.Warn("⚠️ Транзакция %s уже активирована ранее, повтор пропущен", req.TransactionID)
		return &Result{Subscription: sub, AlreadyApplied: true}, nil
	}

	metrics.Get().Activations.WithLabelValues(p.Code).Inc()
	logger.Payment("подписка активирована", req.TransactionID, req.TelegramUserID, p.Code)
	logger.Info("✅ Создана подписка: пользователь %d, уровень %s, до %s",
		sub.UserID, sub.Type, sub.EndDate.Format(time.RFC3339))

	event := ActivationEvent{
		UserID:           sub.UserID,
		TelegramUserID:   req.TelegramUserID,
		Plan:             p.Code,
		Type:             sub.Type,
		TransactionID:    sub.TransactionID,
		EndDate:          sub.EndDate,
		DailySignalLimit: sub.DailySignalLimit,
		Timestamp:        start,
	}
	if err := s.publisher.PublishActivation(ctx, event); err != nil {
		logger.Warn("⚠️ Не удалось опубликовать событие активации %s: %v", req.TransactionID, err)
	}

	return &Result{Subscription: sub}, nil
}

// GetByTransactionID возвращает подписку, активированную данным платежом
func (s *Service) GetByTransactionID(ctx context.Context, transactionID string) (*models.Subscription, error) {
	return s.store.GetByTransactionID(ctx, transactionID)
}

// GetTransaction возвращает запись журнала активаций по платежу
func (s *Service) GetTransaction(ctx context.Context, transactionID string) (*models.SubscriptionTransaction, error) {
	return s.store.GetTransaction(ctx, transactionID)
}

// GetByTelegramID возвращает подписку пользователя Telegram
func (s *Service) GetByTelegramID(ctx context.Context, telegramID int64) (*models.Subscription, error) {
	return s.store.GetByTelegramID(ctx, telegramID)
}

func validateRequest(req ActivationRequest) error {
	var problems []string
	if req.TelegramUserID <= 0 && req.AccountID <= 0 {
		problems = append(problems, "не указан пользователь")
	}
	if strings.TrimSpace(req.TransactionID) == "" {
		problems = append(problems, "не указан transaction_id")
	}
	if req.Amount <= 0 {
		problems = append(problems, "сумма должна быть положительной")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, "; "))
	}
	return nil
}

// internal/core/domain/users/service.go
package users

import (
	"context"
	"sync"

	"stars-subscription-bot/internal/core/domain/subscription"
	"stars-subscription-bot/internal/infrastructure/persistence/postgres/models"
	"stars-subscription-bot/pkg/logger"
)

// Repository источник проекции пользователей
type Repository interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	InvalidateCache(ctx context.Context, telegramID int64)
}

// Service связывает Telegram id с внутренним пользователем.
// Сервис только читает проекцию, ее запись делает активация подписки.
type Service struct {
	repo Repository
	mu   sync.RWMutex
	ids  map[int64]int64
}

// NewService создает сервис пользователей
func NewService(repo Repository) *Service {
	logger.Info("✅ User service initialized")
	return &Service{
		repo: repo,
		ids:  make(map[int64]int64),
	}
}

// ResolveAccountID возвращает внутренний id или 0, если пользователь еще не создан
func (s *Service) ResolveAccountID(ctx context.Context, telegramID int64) int64 {
	if telegramID <= 0 {
		return 0
	}

	s.mu.RLock()
	id, ok := s.ids[telegramID]
	s.mu.RUnlock()
	if ok {
		return id
	}

	user, err := s.repo.FindByTelegramID(ctx, telegramID)
	if err != nil {
		logger.Warn("⚠️ Не удалось найти пользователя %d: %v", telegramID, err)
		return 0
	}
	if user == nil {
		return 0
	}

	s.mu.Lock()
	s.ids[telegramID] = user.ID
	s.mu.Unlock()
	return user.ID
}

// GetName имя подписчика шины событий
func (s *Service) GetName() string {
	return "user_projection"
}

// HandleActivation сбрасывает кэш проекции после активации
func (s *Service) HandleActivation(ctx context.Context, ev subscription.ActivationEvent) error {
	if ev.TelegramUserID <= 0 {
		return nil
	}
	s.repo.InvalidateCache(ctx, ev.TelegramUserID)
	if ev.UserID > 0 {
		s.mu.Lock()
		s.ids[ev.TelegramUserID] = ev.UserID
		s.mu.Unlock()
	}
	logger.Debug("🔄 Кэш пользователя %d сброшен после активации %s", ev.TelegramUserID, ev.TransactionID)
	return nil
}

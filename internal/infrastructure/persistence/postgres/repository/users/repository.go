// internal/infrastructure/persistence/postgres/repository/users/repository.go
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stars-subscription-bot/internal/infrastructure/cache/redis"
	"stars-subscription-bot/internal/infrastructure/persistence/postgres/models"
	"stars-subscription-bot/pkg/logger"

	"github.com/jmoiron/sqlx"
)

const userCacheTTL = 10 * time.Minute

// UserRepository интерфейс для работы с проекцией пользователей
type UserRepository interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	GetTotalCount(ctx context.Context) (int, error)
	InvalidateCache(ctx context.Context, telegramID int64)
}

// UserRepositoryImpl реализация репозитория пользователей
type UserRepositoryImpl struct {
	db    *sqlx.DB
	cache *redis.Cache
}

// NewUserRepository создает репозиторий; cache может быть nil
func NewUserRepository(db *sqlx.DB, cache *redis.Cache) *UserRepositoryImpl {
	return &UserRepositoryImpl{db: db, cache: cache}
}

// FindByTelegramID находит пользователя по Telegram ID, nil если не найден
func (r *UserRepositoryImpl) FindByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	if r.cache != nil {
		var cached models.User
		err := r.cache.GetUserByTelegramID(ctx, telegramID, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			logger.Warn("⚠️ Ошибка чтения кэша пользователя %d: %v", telegramID, err)
		}
	}

	user := &models.User{}
	err := r.db.GetContext(ctx, user, `
	SELECT id, telegram_id, username, subscription_level, subscription_expiry, created_at, updated_at
	FROM users
	WHERE telegram_id = $1
	`, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.SetUserByTelegramID(ctx, user, telegramID, userCacheTTL); err != nil {
			logger.Warn("⚠️ Не удалось закэшировать пользователя %d: %v", telegramID, err)
		}
	}
	return user, nil
}

// GetTotalCount количество пользователей
func (r *UserRepositoryImpl) GetTotalCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("ошибка подсчета пользователей: %w", err)
	}
	return count, nil
}

// InvalidateCache сбрасывает кэш пользователя после активации
func (r *UserRepositoryImpl) InvalidateCache(ctx context.Context, telegramID int64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.DeleteUserByTelegramID(ctx, telegramID); err != nil {
		logger.Warn("⚠️ Не удалось сбросить кэш пользователя %d: %v", telegramID, err)
	}
}

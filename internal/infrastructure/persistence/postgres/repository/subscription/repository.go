// internal/infrastructure/persistence/postgres/repository/subscription/repository.go
package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "stars-subscription-bot/internal/core/domain/subscription"
	"stars-subscription-bot/internal/infrastructure/persistence/postgres/models"

	"github.com/jmoiron/sqlx"
)

// SubscriptionRepository интерфейс репозитория подписок
type SubscriptionRepository interface {
	domain.Store
	CountActive(ctx context.Context) (int, error)
}

// subscriptionRepositoryImpl реализация SubscriptionRepository
type subscriptionRepositoryImpl struct {
	db *sqlx.DB
}

// NewSubscriptionRepository создает новый репозиторий подписок
func NewSubscriptionRepository(db *sqlx.DB) SubscriptionRepository {
	return &subscriptionRepositoryImpl{db: db}
}

const subscriptionColumns = `
	id, user_id, type, start_date, end_date, is_active,
	payment_method, amount, currency, transaction_id,
	daily_signal_limit, created_at, updated_at`

// Activate записывает активацию одной транзакцией:
// пользователь, журнал транзакций, подписка, проекция пользователя, уведомление.
func (r *subscriptionRepositoryImpl) Activate(ctx context.Context, rec domain.ActivationRecord) (*models.Subscription, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	userID, err := r.resolveUser(ctx, tx, rec)
	if err != nil {
		return nil, false, err
	}

	var recorded string
	err = tx.QueryRowxContext(ctx, `
	INSERT INTO subscription_transactions (
		transaction_id, user_id, telegram_user_id, plan, amount, currency
	) VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (transaction_id) DO NOTHING
	RETURNING transaction_id
	`, rec.TransactionID, userID, rec.TelegramUserID, rec.Plan, rec.Amount, rec.Currency).Scan(&recorded)
	if errors.Is(err, sql.ErrNoRows) {
		tx.Rollback()
		sub, err := r.getByLedger(ctx, rec.TransactionID)
		return sub, false, err
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка записи журнала транзакций: %w", err)
	}

	sub := &models.Subscription{}
	err = tx.QueryRowxContext(ctx, `
	INSERT INTO subscriptions (
		user_id, type, start_date, end_date, is_active,
		payment_method, amount, currency, transaction_id, daily_signal_limit
	) VALUES ($1, $2, $3, $4, TRUE, $5, $6, $7, $8, $9)
	ON CONFLICT (user_id) DO UPDATE SET
		type = EXCLUDED.type,
		start_date = EXCLUDED.start_date,
		end_date = EXCLUDED.end_date,
		is_active = TRUE,
		payment_method = EXCLUDED.payment_method,
		amount = EXCLUDED.amount,
		currency = EXCLUDED.currency,
		transaction_id = EXCLUDED.transaction_id,
		daily_signal_limit = EXCLUDED.daily_signal_limit,
		updated_at = NOW()
	RETURNING`+subscriptionColumns,
		userID, rec.Type, rec.StartDate, rec.EndDate,
		rec.PaymentMethod, rec.Amount, rec.Currency, rec.TransactionID, rec.DailySignalLimit,
	).StructScan(sub)
	if err != nil {
		return nil, false, fmt.Errorf("ошибка сохранения подписки: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
	UPDATE users
	SET subscription_level = $2, subscription_expiry = $3, updated_at = NOW()
	WHERE id = $1
	`, userID, rec.Type, rec.EndDate); err != nil {
		return nil, false, fmt.Errorf("ошибка обновления пользователя: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
	INSERT INTO notifications (user_id, type, title, message, is_read)
	VALUES ($1, $2, $3, $4, FALSE)
	`, userID, models.NotificationTypeAccount, rec.NotificationTitle, rec.NotificationMessage); err != nil {
		return nil, false, fmt.Errorf("ошибка создания уведомления: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return sub, true, nil
}

// resolveUser находит или создает пользователя в рамках транзакции
func (r *subscriptionRepositoryImpl) resolveUser(ctx context.Context, tx *sqlx.Tx, rec domain.ActivationRecord) (int64, error) {
	var userID int64

	if rec.TelegramUserID <= 0 {
		err := tx.GetContext(ctx, &userID, `SELECT id FROM users WHERE id = $1`, rec.AccountID)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("пользователь %d не найден", rec.AccountID)
		}
		if err != nil {
			return 0, fmt.Errorf("ошибка поиска пользователя: %w", err)
		}
		return userID, nil
	}

	err := tx.GetContext(ctx, &userID, `
	INSERT INTO users (telegram_id, username)
	VALUES ($1, $2)
	ON CONFLICT (telegram_id) DO UPDATE SET
		username = COALESCE(NULLIF(EXCLUDED.username, ''), users.username),
		updated_at = NOW()
	RETURNING id
	`, rec.TelegramUserID, rec.Username)
	if err != nil {
		return 0, fmt.Errorf("ошибка сохранения пользователя: %w", err)
	}
	return userID, nil
}

func (r *subscriptionRepositoryImpl) getByLedger(ctx context.Context, transactionID string) (*models.Subscription, error) {
	sub := &models.Subscription{}
	err := r.db.GetContext(ctx, sub, `
	SELECT`+subscriptionColumns+`
	FROM subscriptions
	WHERE user_id = (SELECT user_id FROM subscription_transactions WHERE transaction_id = $1)
	`, transactionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения подписки по журналу: %w", err)
	}
	return sub, nil
}

// GetByTransactionID возвращает подписку с данным transaction_id
func (r *subscriptionRepositoryImpl) GetByTransactionID(ctx context.Context, transactionID string) (*models.Subscription, error) {
	return r.getOne(ctx, `SELECT`+subscriptionColumns+` FROM subscriptions WHERE transaction_id = $1`, transactionID)
}

// GetTransaction возвращает запись журнала активаций
func (r *subscriptionRepositoryImpl) GetTransaction(ctx context.Context, transactionID string) (*models.SubscriptionTransaction, error) {
	tx := &models.SubscriptionTransaction{}
	err := r.db.GetContext(ctx, tx, `
	SELECT transaction_id, user_id, telegram_user_id, plan, amount, currency, created_at
	FROM subscription_transactions
	WHERE transaction_id = $1
	`, transactionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала активаций: %w", err)
	}
	return tx, nil
}

// GetByTelegramID возвращает подписку пользователя Telegram
func (r *subscriptionRepositoryImpl) GetByTelegramID(ctx context.Context, telegramID int64) (*models.Subscription, error) {
	return r.getOne(ctx, `
	SELECT s.id, s.user_id, s.type, s.start_date, s.end_date, s.is_active,
		s.payment_method, s.amount, s.currency, s.transaction_id,
		s.daily_signal_limit, s.created_at, s.updated_at
	FROM subscriptions s
	JOIN users u ON u.id = s.user_id
	WHERE u.telegram_id = $1
	`, telegramID)
}

// CountActive количество действующих подписок
func (r *subscriptionRepositoryImpl) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
	SELECT COUNT(*) FROM subscriptions WHERE is_active = TRUE AND end_date > NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета подписок: %w", err)
	}
	return count, nil
}

func (r *subscriptionRepositoryImpl) getOne(ctx context.Context, query string, arg interface{}) (*models.Subscription, error) {
	sub := &models.Subscription{}
	err := r.db.GetContext(ctx, sub, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения подписки: %w", err)
	}
	return sub, nil
}

package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "stars-subscription-bot/internal/core/domain/subscription"
	"stars-subscription-bot/internal/infrastructure/persistence/postgres/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{
	"id", "user_id", "type", "start_date", "end_date", "is_active",
	"payment_method", "amount", "currency", "transaction_id",
	"daily_signal_limit", "created_at", "updated_at",
}

func newMock(t *testing.T) (SubscriptionRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSubscriptionRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func weeklyRecord(start time.Time) domain.ActivationRecord {
	return domain.ActivationRecord{
		TelegramUserID:      42,
		Username:            "alice",
		Plan:                "weekly",
		Type:                "basic",
		StartDate:           start,
		EndDate:             start.Add(7 * 24 * time.Hour),
		Amount:              750,
		Currency:            models.CurrencyStars,
		PaymentMethod:       models.PaymentMethodTelegramStars,
		TransactionID:       "p1",
		DailySignalLimit:    10,
		NotificationTitle:   "Подписка активирована",
		NotificationMessage: "Недельная подписка активирована",
	}
}

func subscriptionRow(rec domain.ActivationRecord, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(columns).AddRow(
		int64(3), int64(7), rec.Type, rec.StartDate, rec.EndDate, true,
		rec.PaymentMethod, rec.Amount, rec.Currency, rec.TransactionID,
		rec.DailySignalLimit, now, now,
	)
}

func TestActivate_WritesEverythingInOneTransaction(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()
	rec := weeklyRecord(now)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(int64(42), "alice").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("INSERT INTO subscription_transactions").
		WithArgs("p1", int64(7), int64(42), "weekly", 750, "STARS").
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id"}).AddRow("p1"))
	mock.ExpectQuery("INSERT INTO subscriptions").
		WithArgs(int64(7), "basic", rec.StartDate, rec.EndDate, "telegram_stars", 750, "STARS", "p1", 10).
		WillReturnRows(subscriptionRow(rec, now))
	mock.ExpectExec("UPDATE users").
		WithArgs(int64(7), "basic", rec.EndDate).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(int64(7), "account", rec.NotificationTitle, rec.NotificationMessage).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	sub, applied, err := repo.Activate(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, int64(7), sub.UserID)
	assert.Equal(t, "basic", sub.Type)
	assert.Equal(t, "p1", sub.TransactionID)
	assert.True(t, sub.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivate_DuplicateTransactionIsNotApplied(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()
	rec := weeklyRecord(now)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("INSERT INTO subscription_transactions").
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id"}))
	mock.ExpectRollback()
	mock.ExpectQuery("FROM subscriptions").
		WithArgs("p1").
		WillReturnRows(subscriptionRow(rec, now))

	sub, applied, err := repo.Activate(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, "p1", sub.TransactionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivate_StorageFailureRollsBack(t *testing.T) {
	repo, mock := newMock(t)
	rec := weeklyRecord(time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("INSERT INTO subscription_transactions").
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id"}).AddRow("p1"))
	mock.ExpectQuery("INSERT INTO subscriptions").
		WillReturnError(errors.New("could not serialize access"))
	mock.ExpectRollback()

	_, applied, err := repo.Activate(context.Background(), rec)
	require.Error(t, err)
	assert.False(t, applied)
	assert.Contains(t, err.Error(), "ошибка сохранения подписки")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByTransactionID_NotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("FROM subscriptions WHERE transaction_id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(columns))

	sub, err := repo.GetByTransactionID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, sub)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTransaction(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Now().UTC()

	mock.ExpectQuery("FROM subscription_transactions").
		WithArgs("pay_1_a").
		WillReturnRows(sqlmock.NewRows([]string{
			"transaction_id", "user_id", "telegram_user_id", "plan", "amount", "currency", "created_at",
		}).AddRow("pay_1_a", int64(7), int64(42), "weekly", 750, "STARS", created))
	mock.ExpectQuery("FROM subscription_transactions").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id"}))

	tx, err := repo.GetTransaction(context.Background(), "pay_1_a")
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, int64(7), tx.UserID)
	assert.Equal(t, "weekly", tx.Plan)

	tx, err = repo.GetTransaction(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, tx)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountActive(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := repo.CountActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

package payment

import (
	"context"
	"testing"
	"time"

	"stars-subscription-bot/internal/infrastructure/persistence/postgres/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{
	"id", "payment_id", "telegram_user_id", "chat_id", "plan", "stars_amount", "currency",
	"telegram_payment_charge_id", "status", "reason", "created_at", "updated_at",
}

func newMock(t *testing.T) (ReconciliationRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewReconciliationRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestRecord_UpsertsByPaymentID(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO payment_reconciliations").
		WithArgs(sqlmock.AnyArg(), "ghost", int64(9), int64(9), "monthly", 2300, "XTR", "ch-1", models.ReconciliationUnmatched, "not found").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"3f0c1f5e-0000-4000-8000-000000000001", "ghost", int64(9), int64(9), "monthly", 2300, "XTR",
			"ch-1", "unmatched", "not found", now, now,
		))

	rec := &models.PaymentReconciliation{
		PaymentID:               "ghost",
		TelegramUserID:          9,
		ChatID:                  9,
		Plan:                    "monthly",
		StarsAmount:             2300,
		Currency:                "XTR",
		TelegramPaymentChargeID: "ch-1",
		Status:                  models.ReconciliationUnmatched,
		Reason:                  "not found",
	}
	require.NoError(t, repo.Record(context.Background(), rec))
	assert.Equal(t, "3f0c1f5e-0000-4000-8000-000000000001", rec.ID)
	assert.Equal(t, now, rec.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOpen_NoRows(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("FROM payment_reconciliations").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(columns))

	rec, err := repo.GetOpen(context.Background(), "p1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestResolve(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("UPDATE payment_reconciliations").
		WithArgs("p1", models.ReconciliationResolved, "manual").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE payment_reconciliations").
		WithArgs("p2", models.ReconciliationRejected, "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Resolve(context.Background(), "p1", models.ReconciliationResolved, "manual"))
	assert.Error(t, repo.Resolve(context.Background(), "p2", models.ReconciliationRejected, ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOpen_DefaultLimit(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("ORDER BY created_at ASC").
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("id-1", "p1", int64(1), int64(1), "weekly", 750, "XTR", "", "failed", "db", now, now))

	recs, err := repo.ListOpen(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, models.ReconciliationFailed, recs[0].Status)
}

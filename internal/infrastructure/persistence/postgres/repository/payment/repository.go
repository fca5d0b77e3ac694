// internal/infrastructure/persistence/postgres/repository/payment/repository.go
package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stars-subscription-bot/internal/infrastructure/persistence/postgres/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ReconciliationRepository журнал платежей, требующих ручной сверки
type ReconciliationRepository interface {
	Record(ctx context.Context, rec *models.PaymentReconciliation) error
	GetOpen(ctx context.Context, paymentID string) (*models.PaymentReconciliation, error)
	Resolve(ctx context.Context, paymentID string, status models.ReconciliationStatus, reason string) error
	ListOpen(ctx context.Context, limit int) ([]*models.PaymentReconciliation, error)
}

// reconciliationRepositoryImpl реализация ReconciliationRepository
type reconciliationRepositoryImpl struct {
	db *sqlx.DB
}

// NewReconciliationRepository создает новый репозиторий сверки
func NewReconciliationRepository(db *sqlx.DB) ReconciliationRepository {
	return &reconciliationRepositoryImpl{db: db}
}

const reconciliationColumns = `
	id, payment_id, telegram_user_id, chat_id, plan, stars_amount, currency,
	telegram_payment_charge_id, status, reason, created_at, updated_at`

// Record создает запись; для существующего платежа обновляет статус и причину
func (r *reconciliationRepositoryImpl) Record(ctx context.Context, rec *models.PaymentReconciliation) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	err := r.db.QueryRowxContext(ctx, `
	INSERT INTO payment_reconciliations (
		id, payment_id, telegram_user_id, chat_id, plan, stars_amount, currency,
		telegram_payment_charge_id, status, reason
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (payment_id) DO UPDATE SET
		status = EXCLUDED.status,
		reason = EXCLUDED.reason,
		telegram_payment_charge_id = COALESCE(
			NULLIF(EXCLUDED.telegram_payment_charge_id, ''),
			payment_reconciliations.telegram_payment_charge_id
		),
		updated_at = NOW()
	RETURNING`+reconciliationColumns,
		rec.ID, rec.PaymentID, rec.TelegramUserID, rec.ChatID, rec.Plan, rec.StarsAmount, rec.Currency,
		rec.TelegramPaymentChargeID, rec.Status, rec.Reason,
	).StructScan(rec)
	if err != nil {
		return fmt.Errorf("ошибка записи сверки платежа %s: %w", rec.PaymentID, err)
	}
	return nil
}

// GetOpen возвращает открытую запись платежа или nil
func (r *reconciliationRepositoryImpl) GetOpen(ctx context.Context, paymentID string) (*models.PaymentReconciliation, error) {
	rec := &models.PaymentReconciliation{}
	err := r.db.GetContext(ctx, rec, `
	SELECT`+reconciliationColumns+`
	FROM payment_reconciliations
	WHERE payment_id = $1 AND status IN ('unmatched', 'failed')
	`, paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения записи сверки: %w", err)
	}
	return rec, nil
}

// Resolve закрывает запись
func (r *reconciliationRepositoryImpl) Resolve(ctx context.Context, paymentID string, status models.ReconciliationStatus, reason string) error {
	result, err := r.db.ExecContext(ctx, `
	UPDATE payment_reconciliations
	SET status = $2, reason = $3, updated_at = NOW()
	WHERE payment_id = $1
	`, paymentID, status, reason)
	if err != nil {
		return fmt.Errorf("ошибка обновления записи сверки: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества строк: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("запись сверки для платежа %s не найдена", paymentID)
	}
	return nil
}

// ListOpen открытые записи, старые первыми
func (r *reconciliationRepositoryImpl) ListOpen(ctx context.Context, limit int) ([]*models.PaymentReconciliation, error) {
	if limit <= 0 {
		limit = 100
	}

	var recs []*models.PaymentReconciliation
	err := r.db.SelectContext(ctx, &recs, `
	SELECT`+reconciliationColumns+`
	FROM payment_reconciliations
	WHERE status IN ('unmatched', 'failed')
	ORDER BY created_at ASC
	LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения записей сверки: %w", err)
	}
	return recs, nil
}

// internal/infrastructure/persistence/postgres/models/payment.go
package models

import (
	"time"
)

// ReconciliationStatus статус записи ручной сверки
type ReconciliationStatus string

const (
	// подтверждение оплаты без записи в реестре
	ReconciliationUnmatched ReconciliationStatus = "unmatched"
	// активация упала, платеж ждет повтора
	ReconciliationFailed ReconciliationStatus = "failed"
	// разрешено вручную или повтором
	ReconciliationResolved ReconciliationStatus = "resolved"
	// отклонено администратором
	ReconciliationRejected ReconciliationStatus = "rejected"
)

// PaymentReconciliation платеж, требующий ручной сверки
type PaymentReconciliation struct {
	ID                      string               `db:"id" json:"id"`
	PaymentID               string               `db:"payment_id" json:"payment_id"`
	TelegramUserID          int64                `db:"telegram_user_id" json:"telegram_user_id"`
	ChatID                  int64                `db:"chat_id" json:"chat_id"`
	Plan                    string               `db:"plan" json:"plan"`
	StarsAmount             int                  `db:"stars_amount" json:"stars_amount"`
	Currency                string               `db:"currency" json:"currency"`
	TelegramPaymentChargeID string               `db:"telegram_payment_charge_id" json:"telegram_payment_charge_id"`
	Status                  ReconciliationStatus `db:"status" json:"status"`
	Reason                  string               `db:"reason" json:"reason"`
	CreatedAt               time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time            `db:"updated_at" json:"updated_at"`
}

// IsOpen ожидает ли запись разрешения
func (r *PaymentReconciliation) IsOpen() bool {
	return r.Status == ReconciliationUnmatched || r.Status == ReconciliationFailed
}

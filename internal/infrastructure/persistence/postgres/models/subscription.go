// internal/infrastructure/persistence/postgres/models/subscription.go
package models

import (
	"time"
)

// Способ оплаты и валюта канала Telegram Stars
const (
	PaymentMethodTelegramStars = "telegram_stars"
	CurrencyStars              = "STARS"
)

// Subscription подписка пользователя (одна строка на пользователя, обновляется при продлении)
type Subscription struct {
	ID               int64     `db:"id" json:"id"`
	UserID           int64     `db:"user_id" json:"user_id"`
	Type             string    `db:"type" json:"type"` // free, basic, pro, vip
	StartDate        time.Time `db:"start_date" json:"start_date"`
	EndDate          time.Time `db:"end_date" json:"end_date"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	PaymentMethod    string    `db:"payment_method" json:"payment_method"`
	Amount           int       `db:"amount" json:"amount"`
	Currency         string    `db:"currency" json:"currency"`
	TransactionID    string    `db:"transaction_id" json:"transaction_id"`
	DailySignalLimit int       `db:"daily_signal_limit" json:"daily_signal_limit"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// DurationDays длительность текущего периода в днях
func (s *Subscription) DurationDays() int {
	return int(s.EndDate.Sub(s.StartDate).Hours() / 24)
}

// IsValidAt активна ли подписка в момент t
func (s *Subscription) IsValidAt(t time.Time) bool {
	return s.IsActive && t.Before(s.EndDate)
}

// SubscriptionTransaction запись журнала активаций (transaction_id уникален навсегда)
type SubscriptionTransaction struct {
	TransactionID  string    `db:"transaction_id" json:"transaction_id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	TelegramUserID int64     `db:"telegram_user_id" json:"telegram_user_id"`
	Plan           string    `db:"plan" json:"plan"`
	Amount         int       `db:"amount" json:"amount"`
	Currency       string    `db:"currency" json:"currency"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

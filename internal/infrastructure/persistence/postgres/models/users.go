// internal/infrastructure/persistence/postgres/models/users.go
package models

import (
	"database/sql"
	"time"
)

// SubscriptionLevelFree уровень по умолчанию
const SubscriptionLevelFree = "free"

// User проекция пользователя, которую использует платежный контур
type User struct {
	ID                 int64        `db:"id" json:"id"`
	TelegramID         int64        `db:"telegram_id" json:"telegram_id"`
	Username           string       `db:"username" json:"username"`
	SubscriptionLevel  string       `db:"subscription_level" json:"subscription_level"`
	SubscriptionExpiry sql.NullTime `db:"subscription_expiry" json:"subscription_expiry"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at" json:"updated_at"`
}

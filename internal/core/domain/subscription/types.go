// internal/core/domain/subscription/types.go
package subscription

import (
	"context"
	"errors"
	"time"

	"stars-subscription-bot/internal/infrastructure/persistence/postgres/models"
)

var (
	// ErrUnknownPlan план отсутствует в таблице планов
	ErrUnknownPlan = errors.New("неизвестный план подписки")
	// ErrInvalidRequest запрос активации не прошел проверку
	ErrInvalidRequest = errors.New("некорректный запрос активации")
)

// ActivationRequest запрос на активацию подписки после оплаты
type ActivationRequest struct {
	TelegramUserID int64
	AccountID      int64 // внутренний id пользователя, 0 если не известен
	Username       string
	Plan           string
	Amount         int
	TransactionID  string
}

// ActivationRecord все, что хранилище должно записать одной транзакцией
type ActivationRecord struct {
	TelegramUserID   int64
	AccountID        int64
	Username         string
	Plan             string
	Type             string
	StartDate        time.Time
	EndDate          time.Time
	Amount           int
	Currency         string
	PaymentMethod    string
	TransactionID    string
	DailySignalLimit int

	NotificationTitle   string
	NotificationMessage string
}

// Result результат активации
type Result struct {
	Subscription *models.Subscription
	// AlreadyApplied - transaction_id уже был записан ранее, повторных записей не сделано
	AlreadyApplied bool
}

// Store атомарное хранилище подписок
type Store interface {
	// Activate записывает журнал, проекцию пользователя, подписку и уведомление одной транзакцией.
	// Если transaction_id уже есть в журнале, возвращает текущую подписку и applied=false.
	Activate(ctx context.Context, rec ActivationRecord) (sub *models.Subscription, applied bool, err error)
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Subscription, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.Subscription, error)
	// GetTransaction запись журнала активаций или nil
	GetTransaction(ctx context.Context, transactionID string) (*models.SubscriptionTransaction, error)
}

// ActivationEvent событие активации для остальной части приложения
type ActivationEvent struct {
	UserID           int64     `json:"user_id"`
	TelegramUserID   int64     `json:"telegram_user_id"`
	Plan             string    `json:"plan"`
	Type             string    `json:"type"`
	TransactionID    string    `json:"transaction_id"`
	EndDate          time.Time `json:"end_date"`
	DailySignalLimit int       `json:"daily_signal_limit"`
	Timestamp        time.Time `json:"timestamp"`
}

// EventPublisher публикует события активации
type EventPublisher interface {
	PublishActivation(ctx context.Context, event ActivationEvent) error
}

// NoopPublisher публикатор-заглушка
type NoopPublisher struct{}

// PublishActivation ничего не делает
func (NoopPublisher) PublishActivation(context.Context, ActivationEvent) error { return nil }

// internal/core/domain/payment/types.go
package payment

import (
	"context"
	"time"

	"stars-subscription-bot/internal/core/domain/subscription"
	"stars-subscription-bot/internal/infrastructure/persistence/postgres/models"
)

// CurrencyXTR валюта Telegram Stars в Bot API
const CurrencyXTR = "XTR"

// State состояние ожидающего платежа
type State string

const (
	StateUnprocessed State = "unprocessed"
	StateProcessed   State = "processed"
)

// PendingPayment выставленный счет, ожидающий подтверждения.
// Жизненный цикл: unprocessed -> processed -> evicted (unprocessed -> evicted для устаревших).
type PendingPayment struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id"` // Telegram id плательщика
	AccountID   int64     `json:"account_id,omitempty"`
	ChatID      int64     `json:"chat_id"`
	Username    string    `json:"username,omitempty"`
	Plan        string    `json:"plan"`
	StarsAmount int       `json:"stars_amount"`
	Direct      bool      `json:"direct,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Processed   bool      `json:"processed"`
	ProcessedAt time.Time `json:"processed_at,omitempty"`
}

// State текущее состояние записи
func (p *PendingPayment) State() State {
	if p.Processed {
		return StateProcessed
	}
	return StateUnprocessed
}

// Expired подлежит ли запись удалению на момент now
func (p *PendingPayment) Expired(now time.Time, processedTTL, unprocessedTTL time.Duration) bool {
	age := now.Sub(p.CreatedAt)
	if p.Processed {
		return age > processedTTL
	}
	return age > unprocessedTTL
}

// Registry реестр ожидающих платежей
type Registry interface {
	// Put регистрирует платеж; существующий id не перезаписывается (ErrDuplicatePaymentID)
	Put(ctx context.Context, p *PendingPayment) error
	// Get возвращает запись или nil, если ее нет
	Get(ctx context.Context, id string) (*PendingPayment, error)
	// MarkProcessed переводит запись в processed; false если записи нет или она уже обработана
	MarkProcessed(ctx context.Context, id string, at time.Time) (bool, error)
	// Sweep удаляет устаревшие записи и возвращает их количество
	Sweep(ctx context.Context, now time.Time, processedTTL, unprocessedTTL time.Duration) (int, error)
	// Count количество записей
	Count(ctx context.Context) (int, error)
}

// Locker взаимное исключение по id платежа
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Invoice исходящий счет в Telegram Stars
type Invoice struct {
	ChatID      int64
	Title       string
	Description string
	Payload     string
	Label       string
	Amount      int
}

// Messenger исходящие вызовы Bot API
type Messenger interface {
	SendInvoice(ctx context.Context, inv Invoice) error
	SendMessage(ctx context.Context, chatID int64, text string) error
	AnswerPreCheckout(ctx context.Context, queryID string, ok bool, errorMessage string) error
}

// AccountResolver внутренний id пользователя по Telegram id, 0 если не известен
type AccountResolver interface {
	ResolveAccountID(ctx context.Context, telegramID int64) int64
}

// Activator движок активации подписок
type Activator interface {
	Activate(ctx context.Context, req subscription.ActivationRequest) (*subscription.Result, error)
}

// SubscriptionLookup поиск подписки для проверки платежа
type SubscriptionLookup interface {
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Subscription, error)
	GetTransaction(ctx context.Context, transactionID string) (*models.SubscriptionTransaction, error)
}

// ReconciliationStore журнал платежей для ручной сверки
type ReconciliationStore interface {
	// Record создает запись или обновляет статус открытой записи того же платежа
	Record(ctx context.Context, rec *models.PaymentReconciliation) error
	// GetOpen возвращает открытую запись или nil
	GetOpen(ctx context.Context, paymentID string) (*models.PaymentReconciliation, error)
	// Resolve закрывает запись
	Resolve(ctx context.Context, paymentID string, status models.ReconciliationStatus, reason string) error
	// ListOpen открытые записи
	ListOpen(ctx context.Context, limit int) ([]*models.PaymentReconciliation, error)
}

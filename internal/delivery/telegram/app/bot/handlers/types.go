// internal/delivery/telegram/app/bot/handlers/types.go
package handlers

import (
	"context"

	"stars-subscription-bot/internal/core/domain/payment"
	"stars-subscription-bot/internal/infrastructure/persistence/postgres/models"
)

// HandlerType тип хэндлера
type HandlerType string

const (
	TypeCommand HandlerType = "command"
	TypeEvent   HandlerType = "event"
)

// Handler интерфейс хэндлеров команд
type Handler interface {
	Execute(ctx context.Context, params HandlerParams) (HandlerResult, error)
	GetName() string
	GetCommand() string
	GetType() HandlerType
}

// HandlerParams параметры вызова хэндлера
type HandlerParams struct {
	UserID   int64 // Telegram id отправителя
	Username string
	ChatID   int64
	Text     string   // полный текст сообщения
	Args     []string // аргументы команды
	UpdateID int64
}

// HandlerResult ответ хэндлера. Пустое Message - ответ уже отправлен самим хэндлером
type HandlerResult struct {
	Message  string                 `json:"message"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// InvoiceIssuer выставление счетов из команд бота
type InvoiceIssuer interface {
	IssueInvoice(ctx context.Context, req payment.IssueRequest) (string, error)
	IssueDirect(ctx context.Context, req payment.IssueRequest, stars int) (string, error)
}

// SubscriptionReader чтение текущей подписки пользователя
type SubscriptionReader interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.Subscription, error)
}

// internal/delivery/telegram/app/http_client/logging_messenger.go
package http_client

import (
	"context"

	"stars-subscription-bot/internal/core/domain/payment"
	"stars-subscription-bot/pkg/logger"
)

// LoggingMessenger заглушка Bot API для разработки без токена
type LoggingMessenger struct{}

// NewLoggingMessenger создает заглушку
func NewLoggingMessenger() *LoggingMessenger {
	return &LoggingMessenger{}
}

// SendInvoice пишет инвойс в лог
func (LoggingMessenger) SendInvoice(_ context.Context, inv payment.Invoice) error {
	logger.Info("🧾 [dev] Инвойс %s: чат %d, %s, %d XTR", inv.Payload, inv.ChatID, inv.Title, inv.Amount)
	return nil
}

// SendMessage пишет сообщение в лог
func (LoggingMessenger) SendMessage(_ context.Context, chatID int64, text string) error {
	logger.Info("💬 [dev] Сообщение в чат %d: %s", chatID, text)
	return nil
}

// AnswerPreCheckout пишет ответ в лог
func (LoggingMessenger) AnswerPreCheckout(_ context.Context, queryID string, ok bool, errorMessage string) error {
	logger.Info("✅ [dev] pre-checkout %s: ok=%v %s", queryID, ok, errorMessage)
	return nil
}

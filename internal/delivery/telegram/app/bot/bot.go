// internal/delivery/telegram/app/bot/bot.go
package bot

import (
	"context"
	"fmt"
	"strings"

	"stars-subscription-bot/internal/core/domain/payment"
	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers"
	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers/events/payment/pre_checkout"
	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers/events/payment/successful_payment"
	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers/router"
	"stars-subscription-bot/pkg/logger"

	"github.com/go-telegram/bot/models"
)

// TelegramBot разбирает обновления Telegram и передает их хэндлерам
type TelegramBot struct {
	messenger         payment.Messenger
	router            router.Router
	preCheckout       *pre_checkout.Handler
	successfulPayment *successful_payment.Handler
}

// Dependencies зависимости для TelegramBot
type Dependencies struct {
	Messenger     payment.Messenger
	Issuer        handlers.InvoiceIssuer
	Subscriptions handlers.SubscriptionReader
	Checkout      pre_checkout.Authorizer
	Confirmation  successful_payment.Confirmer
}

// NewTelegramBot создает новый экземпляр TelegramBot
func NewTelegramBot(deps Dependencies) (*TelegramBot, error) {
	if deps.Messenger == nil || deps.Issuer == nil || deps.Checkout == nil || deps.Confirmation == nil {
		return nil, fmt.Errorf("не все зависимости бота заданы")
	}

	return &TelegramBot{
		messenger:         deps.Messenger,
		router:            RegisterAllHandlers(deps),
		preCheckout:       pre_checkout.NewHandler(deps.Checkout),
		successfulPayment: successful_payment.NewHandler(deps.Confirmation),
	}, nil
}

// HandleUpdate обрабатывает одно обновление
func (b *TelegramBot) HandleUpdate(ctx context.Context, update *models.Update) error {
	if update == nil {
		return nil
	}

	switch {
	case update.PreCheckoutQuery != nil:
		return b.preCheckout.Handle(ctx, update.PreCheckoutQuery)

	case update.Message != nil && update.Message.SuccessfulPayment != nil:
		_, err := b.successfulPayment.Handle(ctx, update.Message)
		return err

	case update.Message != nil && strings.HasPrefix(strings.TrimSpace(update.Message.Text), "/"):
		return b.handleCommand(ctx, update)
	}

	// Остальные типы обновлений игнорируются
	return nil
}

func (b *TelegramBot) handleCommand(ctx context.Context, update *models.Update) error {
	msg := update.Message
	fields := strings.Fields(msg.Text)

	params := handlers.HandlerParams{
		ChatID:   msg.Chat.ID,
		Text:     msg.Text,
		Args:     fields[1:],
		UpdateID: update.ID,
	}
	if msg.From != nil {
		params.UserID = msg.From.ID
		params.Username = msg.From.Username
	}

	result, err := b.router.Handle(ctx, fields[0], params)
	if err != nil {
		return b.messenger.SendMessage(ctx, params.ChatID, "❌ Произошла ошибка. Попробуйте позже.")
	}

	if result.Message == "" {
		return nil
	}
	if err := b.messenger.SendMessage(ctx, params.ChatID, result.Message); err != nil {
		logger.Warn("⚠️ Не удалось отправить ответ на %s в чат %d: %v", fields[0], params.ChatID, err)
		return err
	}
	return nil
}

// Commands список зарегистрированных команд
func (b *TelegramBot) Commands() []string {
	return b.router.GetCommands()
}

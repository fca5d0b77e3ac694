// internal/delivery/telegram/app/http_client/bot_api.go
package http_client

import (
	"context"
	"fmt"
	"time"

	"stars-subscription-bot/internal/core/domain/payment"
	"stars-subscription-bot/pkg/logger"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// BotAPI исходящие вызовы Telegram Bot API для платежного контура
type BotAPI struct {
	client  *bot.Bot
	timeout time.Duration
}

// NewBotAPI создает клиент Bot API. serverURL пустой для api.telegram.org
func NewBotAPI(token string, timeout time.Duration, serverURL string) (*BotAPI, error) {
	if token == "" {
		return nil, fmt.Errorf("токен бота не указан")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts := []bot.Option{
		bot.WithSkipGetMe(),
	}
	if serverURL != "" {
		opts = append(opts, bot.WithServerURL(serverURL))
	}

	client, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента Bot API: %w", err)
	}

	return &BotAPI{client: client, timeout: timeout}, nil
}

// SendInvoice отправляет счет в звездах. provider_token для XTR пустой
func (c *BotAPI) SendInvoice(ctx context.Context, inv payment.Invoice) error {
	if inv.Title == "" || inv.Description == "" || inv.Payload == "" {
		return fmt.Errorf("обязательные поля инвойса не заполнены: title, description, payload")
	}
	if inv.Amount <= 0 {
		return fmt.Errorf("сумма инвойса должна быть положительной")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.client.SendInvoice(ctx, &bot.SendInvoiceParams{
		ChatID:        inv.ChatID,
		Title:         inv.Title,
		Description:   inv.Description,
		Payload:       inv.Payload,
		ProviderToken: "",
		Currency:      payment.CurrencyXTR,
		Prices:        []models.LabeledPrice{{Label: inv.Label, Amount: inv.Amount}},
	})
	if err != nil {
		return fmt.Errorf("ошибка отправки инвойса %s: %w", inv.Payload, err)
	}

	logger.Debug("🧾 Инвойс %s отправлен в чат %d", inv.Payload, inv.ChatID)
	return nil
}

// SendMessage отправляет текст с разметкой Markdown
func (c *BotAPI) SendMessage(ctx context.Context, chatID int64, text string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.client.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdownV1,
	})
	if err != nil {
		return fmt.Errorf("ошибка отправки сообщения в чат %d: %w", chatID, err)
	}
	return nil
}

// AnswerPreCheckout отвечает на pre_checkout_query
func (c *BotAPI) AnswerPreCheckout(ctx context.Context, queryID string, ok bool, errorMessage string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &bot.AnswerPreCheckoutQueryParams{
		PreCheckoutQueryID: queryID,
		OK:                 ok,
	}
	if !ok {
		params.ErrorMessage = errorMessage
	}

	if _, err := c.client.AnswerPreCheckoutQuery(ctx, params); err != nil {
		return fmt.Errorf("ошибка ответа на pre-checkout %s: %w", queryID, err)
	}

	logger.Debug("Ответ на pre-checkout отправлен: %s (ok=%v)", queryID, ok)
	return nil
}

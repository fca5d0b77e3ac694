// internal/core/domain/payment/checkout.go
package payment

import (
	"context"
	"errors"
	"time"

	"stars-subscription-bot/pkg/logger"
)

// DefaultCheckoutTimeout время на ответ pre-checkout запросу
const DefaultCheckoutTimeout = 5 * time.Second

// PreCheckoutQuery запрос подтверждения перед списанием
type PreCheckoutQuery struct {
	ID          string
	Payload     string
	UserID      int64
	Currency    string
	TotalAmount int
}

// CheckoutAuthorizer отвечает на pre-checkout запросы.
// По умолчанию одобряет всегда: план и цена проверены при выставлении счета.
// В строгом режиме сверяет payload с реестром.
type CheckoutAuthorizer struct {
	registry  Registry
	messenger Messenger
	strict    bool
	timeout   time.Duration
}

// NewCheckoutAuthorizer создает обработчик pre-checkout
func NewCheckoutAuthorizer(registry Registry, messenger Messenger, strict bool, timeout time.Duration) *CheckoutAuthorizer {
	if timeout <= 0 {
		timeout = DefaultCheckoutTimeout
	}
	return &CheckoutAuthorizer{
		registry:  registry,
		messenger: messenger,
		strict:    strict,
		timeout:   timeout,
	}
}

// OnPreCheckout отвечает платформе и возвращает принятое решение
func (a *CheckoutAuthorizer) OnPreCheckout(ctx context.Context, q PreCheckoutQuery) (bool, error) {
	ok, reason := true, ""
	if a.strict {
		ok, reason = a.validate(ctx, q)
	}

	answerCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	if err := a.messenger.AnswerPreCheckout(answerCtx, q.ID, ok, reason); err != nil {
		logger.Error("❌ Не удалось ответить на pre-checkout %s (payment %s): %v", q.ID, q.Payload, err)
		return ok, err
	}

	if ok {
		logger.Debug("✅ Pre-checkout %s одобрен (payment %s, user %d)", q.ID, q.Payload, q.UserID)
	} else {
		logger.Warn("⚠️ Pre-checkout %s отклонен (payment %s, user %d): %s", q.ID, q.Payload, q.UserID, reason)
	}
	return ok, nil
}

// validate ищет платеж в реестре за половину окна ответа.
// Если поиск не укладывается, одобряет и досматривает платеж в фоне.
func (a *CheckoutAuthorizer) validate(ctx context.Context, q PreCheckoutQuery) (bool, string) {
	lookupCtx, cancel := context.WithTimeout(ctx, a.timeout/2)
	defer cancel()

	pending, err := a.registry.Get(lookupCtx, q.Payload)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("⚠️ Реестр не ответил вовремя для pre-checkout %s, одобряем и проверяем асинхронно", q.ID)
			go a.validateAsync(q)
		} else {
			logger.Warn("⚠️ Ошибка реестра для pre-checkout %s: %v, одобряем", q.ID, err)
		}
		return true, ""
	}
	if pending == nil {
		return false, "Счет не найден или устарел. Запросите новый счет."
	}
	if pending.Processed {
		return false, "Этот счет уже оплачен."
	}
	return true, ""
}

func (a *CheckoutAuthorizer) validateAsync(q PreCheckoutQuery) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pending, err := a.registry.Get(ctx, q.Payload)
	switch {
	case err != nil:
		logger.Error("❌ Асинхронная проверка pre-checkout %s не выполнена: %v", q.ID, err)
	case pending == nil:
		logger.Warn("⚠️ Одобренный pre-checkout %s ссылается на неизвестный платеж %s", q.ID, q.Payload)
	case pending.Processed:
		logger.Warn("⚠️ Одобренный pre-checkout %s ссылается на уже обработанный платеж %s", q.ID, q.Payload)
	}
}

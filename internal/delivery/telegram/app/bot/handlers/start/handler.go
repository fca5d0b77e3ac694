// internal/delivery/telegram/app/bot/handlers/start/handler.go
package start

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"stars-subscription-bot/internal/core/domain/plan"
	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers"
	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers/base"
	"stars-subscription-bot/pkg/logger"
)

// startHandlerImpl обработчик /start
type startHandlerImpl struct {
	*base.BaseHandler
	issuer handlers.InvoiceIssuer
}

// NewHandler создает новый хэндлер команды /start
func NewHandler(issuer handlers.InvoiceIssuer) handlers.Handler {
	return &startHandlerImpl{
		BaseHandler: &base.BaseHandler{
			Name:    "start_handler",
			Command: "start",
			Type:    handlers.TypeCommand,
		},
		issuer: issuer,
	}
}

// Execute выполняет обработку команды /start.
// Поддерживаются параметры "<plan>" (ссылки /subscription-links) и "pay_<plan>_<stars>[_<user>]".
func (h *startHandlerImpl) Execute(ctx context.Context, params handlers.HandlerParams) (handlers.HandlerResult, error) {
	if len(params.Args) == 0 {
		return handlers.HandlerResult{Message: WelcomeMessage()}, nil
	}

	payload := strings.TrimSpace(params.Args[0])
	logger.Info("Обработка /start с параметром %s для пользователя %d", payload, params.UserID)

	planCode, ok := parseStartPayload(payload)
	if !ok {
		message := WelcomeMessage() + "\n\n⚠️ Неизвестный параметр: `" + payload + "`"
		return handlers.HandlerResult{Message: message}, nil
	}

	id, err := h.issuer.IssueInvoice(ctx, h.IssueRequest(params, planCode))
	if err != nil && id == "" {
		logger.Warn("⚠️ /start %s: счет не выставлен для %d: %v", payload, params.UserID, err)
		return handlers.HandlerResult{Message: h.IssueFailureMessage(err)}, nil
	}

	return handlers.HandlerResult{
		Metadata: map[string]interface{}{
			"payment_id": id,
			"plan":       planCode,
		},
	}, nil
}

// parseStartPayload извлекает код плана из параметра /start
func parseStartPayload(payload string) (string, bool) {
	payload = strings.ToLower(payload)
	if plan.IsValid(payload) {
		return payload, true
	}

	if !strings.HasPrefix(payload, "pay_") {
		return "", false
	}
	parts := strings.Split(strings.TrimPrefix(payload, "pay_"), "_")
	if len(parts) < 2 || !plan.IsValid(parts[0]) {
		return "", false
	}
	if stars, err := strconv.Atoi(parts[1]); err != nil || stars <= 0 {
		return "", false
	}
	return parts[0], true
}

// WelcomeMessage приветствие со списком планов и команд
func WelcomeMessage() string {
	var sb strings.Builder
	sb.WriteString("👋 Добро пожаловать в платежный бот!\n\n")
	sb.WriteString("🌟 Здесь можно оформить подписку за звезды Telegram.\n\n")
	sb.WriteString("📋 Доступные команды:\n")
	for _, p := range plan.All() {
		sb.WriteString(fmt.Sprintf("/%s - %s (%d ⭐)\n", p.Code, p.Title, p.Stars))
	}
	sb.WriteString("/status - статус вашей подписки\n")
	sb.WriteString("/help - помощь и инструкции")
	return sb.String()
}

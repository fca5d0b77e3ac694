// internal/delivery/telegram/app/bot/handlers/base/base.go
package base

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"stars-subscription-bot/internal/core/domain/payment"
	"stars-subscription-bot/internal/core/domain/plan"
	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers"
	"stars-subscription-bot/pkg/utils"
)

// BaseHandler базовая структура для всех хэндлеров
type BaseHandler struct {
	Name    string
	Command string
	Type    handlers.HandlerType
}

// GetName возвращает имя хэндлера
func (h *BaseHandler) GetName() string {
	return h.Name
}

// GetCommand возвращает команду
func (h *BaseHandler) GetCommand() string {
	return h.Command
}

// GetType возвращает тип хэндлера
func (h *BaseHandler) GetType() handlers.HandlerType {
	return h.Type
}

// GetSubscriptionTierDisplayName возвращает отображаемое имя уровня подписки
func (h *BaseHandler) GetSubscriptionTierDisplayName(tier string) string {
	switch tier {
	case plan.TierVIP:
		return "👑 VIP"
	case plan.TierPro:
		return "🚀 Pro"
	case plan.TierBasic:
		return "📱 Basic"
	case plan.TierFree:
		return "🆓 Free"
	default:
		return tier
	}
}

// FormatDate форматирует дату для сообщений
func (h *BaseHandler) FormatDate(t time.Time) string {
	return utils.FormatDate(t)
}

// IssueRequest собирает запрос на счет из параметров команды
func (h *BaseHandler) IssueRequest(params handlers.HandlerParams, planCode string) payment.IssueRequest {
	return payment.IssueRequest{
		ChatID:   params.ChatID,
		UserID:   params.UserID,
		Username: params.Username,
		Plan:     strings.ToLower(planCode),
	}
}

// IssueFailureMessage текст для пользователя, когда счет не удалось выставить
func (h *BaseHandler) IssueFailureMessage(err error) string {
	var verr *payment.ValidationError
	if errors.As(err, &verr) {
		return fmt.Sprintf("⚠️ Некорректный запрос: %s.\n\nДоступные планы: %s", verr.Reason, PlanCodes())
	}
	return payment.InvoiceErrorText()
}

// PlanCodes коды планов через запятую
func PlanCodes() string {
	codes := make([]string, 0, 4)
	for _, p := range plan.All() {
		codes = append(codes, p.Code)
	}
	return strings.Join(codes, ", ")
}

// internal/core/domain/payment/messages.go
package payment

import (
	"fmt"
	"time"

	"stars-subscription-bot/internal/core/domain/plan"
	"stars-subscription-bot/pkg/utils"
)

func invoiceFollowUpText() string {
	return "📝 Как оплатить:\n\n" +
		"1. Нажмите кнопку «Оплатить» в счете выше\n" +
		"2. Подтвердите оплату звездами\n" +
		"3. Подписка активируется автоматически после оплаты\n\n" +
		"🤔 Нужна помощь? Команда /help"
}

func manualTransferText(p plan.Plan, stars int, paymentID string) string {
	return fmt.Sprintf("🌟 *Оплата звездами Telegram* 🌟\n\n"+
		"📦 План: *%s*\n"+
		"⭐ Сумма: *%s*\n\n"+
		"Чтобы оплатить вручную:\n"+
		"1. Откройте меню ⋮ в правом верхнем углу\n"+
		"2. Выберите «Отправить подарок»\n"+
		"3. Укажите %d звезд\n"+
		"4. Нажмите «Отправить»\n\n"+
		"ID платежа: `%s`\n"+
		"Сохраните его для сверки. Подписка будет активирована в течение 24 часов после проверки.",
		p.Title, utils.FormatStars(stars), stars, paymentID)
}

func activationSuccessText(p plan.Plan, stars int, end time.Time) string {
	return fmt.Sprintf("✅ Оплата получена!\n\n"+
		"📦 План: %s\n"+
		"⭐ Оплачено: %s\n"+
		"📅 Подписка активна до: %s\n"+
		"📈 Лимит: %d сигналов в день\n\n"+
		"🎉 Спасибо за покупку!",
		p.Title, utils.FormatStars(stars), utils.FormatDate(end), p.DailySignalLimit)
}

func pendingVerificationText(paymentID string, amount int, currency string) string {
	return fmt.Sprintf("✅ Оплата получена, информация будет проверена.\n\n"+
		"📝 ID платежа: %s\n"+
		"💰 Сумма: %d %s\n\n"+
		"⏱️ Подписка будет активирована в течение 24 часов после проверки.",
		paymentID, amount, currency)
}

func activationDelayedText(paymentID string) string {
	return fmt.Sprintf("⏳ Оплата получена, но активация подписки задерживается.\n\n"+
		"📝 ID платежа: %s\n\n"+
		"Платеж сохранен и передан на ручную проверку. Подписка будет активирована в течение 24 часов. "+
			"Сохраните ID платежа для обращения в поддержку.",
		paymentID)
}

func paymentFailedText(paymentID string) string {
	return fmt.Sprintf("❌ Платеж %s не подтвержден.\n\n"+
		"Попробуйте оплатить еще раз или обратитесь в поддержку. Команда /help", paymentID)
}

// InvoiceErrorText текст для пользователя, когда счет не удалось выставить
func InvoiceErrorText() string {
	return "❌ Не удалось создать запрос на оплату. Попробуйте позже или обратитесь в поддержку."
}

// pkg/utils/format.go
package utils

import (
	"fmt"
	"time"
)

// DateLayout формат дат в сообщениях пользователю
const DateLayout = "02.01.2006"

// FormatDate форматирует дату окончания подписки
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format(DateLayout)
}

// FormatDuration форматирует продолжительность в читаемый вид
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dч %dм", hours, minutes)
	default:
		return fmt.Sprintf("%dм", minutes)
	}
}

// FormatStars сумма в звездах со склонением
func FormatStars(amount int) string {
	return fmt.Sprintf("%d %s", amount, pluralRu(amount, "звезда", "звезды", "звезд"))
}

// DaysLeft сколько полных дней осталось до end (0, если срок прошел)
func DaysLeft(now, end time.Time) int {
	if !end.After(now) {
		return 0
	}
	return int(end.Sub(now).Hours() / 24)
}

func pluralRu(n int, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	switch {
	case n%100 >= 11 && n%100 <= 14:
		return many
	case n%10 == 1:
		return one
	case n%10 >= 2 && n%10 <= 4:
		return few
	default:
		return many
	}
}

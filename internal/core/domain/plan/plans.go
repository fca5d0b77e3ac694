// internal/core/domain/plan/plans.go
package plan

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Коды планов
const (
	Weekly  = "weekly"
	Monthly = "monthly"
	Annual  = "annual"
	Premium = "premium"
)

// Уровни подписки
const (
	TierFree  = "free"
	TierBasic = "basic"
	TierPro   = "pro"
	TierVIP   = "vip"
)

// Plan тарифный план, оплачиваемый в Telegram Stars
type Plan struct {
	Code             string `json:"code"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Stars            int    `json:"stars"`
	Tier             string `json:"tier"`
	DurationDays     int    `json:"duration_days"`
	DailySignalLimit int    `json:"daily_signal_limit"`
}

// Duration длительность подписки
func (p Plan) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}

// единственная таблица планов
var table = map[string]Plan{
	Weekly: {
		Code:             Weekly,
		Title:            "Недельная подписка",
		Description:      "Доступ к сигналам на 7 дней, до 10 сигналов в день",
		Stars:            750,
		Tier:             TierBasic,
		DurationDays:     7,
		DailySignalLimit: DailyLimitForTier(TierBasic),
	},
	Monthly: {
		Code:             Monthly,
		Title:            "Месячная подписка",
		Description:      "Доступ к сигналам на 30 дней, до 25 сигналов в день",
		Stars:            2300,
		Tier:             TierPro,
		DurationDays:     30,
		DailySignalLimit: DailyLimitForTier(TierPro),
	},
	Annual: {
		Code:             Annual,
		Title:            "Годовая подписка",
		Description:      "Доступ к сигналам на 365 дней, до 50 сигналов в день",
		Stars:            10000,
		Tier:             TierVIP,
		DurationDays:     365,
		DailySignalLimit: DailyLimitForTier(TierVIP),
	},
	Premium: {
		Code:             Premium,
		Title:            "Премиум подписка",
		Description:      "VIP доступ на 365 дней с приоритетной поддержкой, до 50 сигналов в день",
		Stars:            18500,
		Tier:             TierVIP,
		DurationDays:     365,
		DailySignalLimit: DailyLimitForTier(TierVIP),
	},
}

// Get возвращает план по коду
func Get(code string) (Plan, error) {
	p, ok := table[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return Plan{}, fmt.Errorf("неизвестный план: %q", code)
	}
	return p, nil
}

// IsValid проверяет код плана
func IsValid(code string) bool {
	_, err := Get(code)
	return err == nil
}

// All возвращает планы в порядке возрастания цены
func All() []Plan {
	plans := make([]Plan, 0, len(table))
	for _, p := range table {
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Stars < plans[j].Stars })
	return plans
}

// ByStars подбирает план по сумме в Stars (для ручной сверки платежей без реестра)
func ByStars(stars int) (Plan, bool) {
	for _, p := range All() {
		if p.Stars == stars {
			return p, true
		}
	}
	return Plan{}, false
}

// DailyLimitForTier лимит сигналов для уровня подписки
func DailyLimitForTier(tier string) int {
	switch tier {
	case TierBasic:
		return 10
	case TierPro:
		return 25
	case TierVIP:
		return 50
	default:
		return 0
	}
}

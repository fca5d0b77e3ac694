// internal/core/domain/payment/janitor.go
package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stars-subscription-bot/internal/infrastructure/metrics"
	"stars-subscription-bot/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Значения по умолчанию для очистки реестра
const (
	DefaultSweepInterval  = time.Hour
	DefaultProcessedTTL   = 24 * time.Hour
	DefaultUnprocessedTTL = 72 * time.Hour
)

// Janitor периодически очищает реестр ожидающих платежей
type Janitor struct {
	registry       Registry
	interval       time.Duration
	processedTTL   time.Duration
	unprocessedTTL time.Duration
	now            func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewJanitor создает очистку реестра
func NewJanitor(registry Registry, interval, processedTTL, unprocessedTTL time.Duration) *Janitor {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if processedTTL <= 0 {
		processedTTL = DefaultProcessedTTL
	}
	if unprocessedTTL <= 0 {
		unprocessedTTL = DefaultUnprocessedTTL
	}
	return &Janitor{
		registry:       registry,
		interval:       interval,
		processedTTL:   processedTTL,
		unprocessedTTL: unprocessedTTL,
		now:            time.Now,
	}
}

// SetClock подменяет источник времени
func (j *Janitor) SetClock(now func() time.Time) {
	j.now = now
}

// Start запускает расписание очистки
func (j *Janitor) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return fmt.Errorf("очистка реестра уже запущена")
	}

	c := cron.New()
	spec := fmt.Sprintf("@every %s", j.interval)
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := j.RunOnce(ctx); err != nil {
			logger.Error("❌ Ошибка очистки реестра платежей: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("ошибка регистрации задачи очистки: %w", err)
	}

	c.Start()
	j.cron = c
	j.running = true
	logger.Info("🧹 Очистка реестра платежей запущена (%s)", spec)
	return nil
}

// Stop останавливает расписание и дожидается текущего прохода
func (j *Janitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}
	<-j.cron.Stop().Done()
	j.running = false
	logger.Info("🛑 Очистка реестра платежей остановлена")
}

// RunOnce выполняет один проход очистки
func (j *Janitor) RunOnce(ctx context.Context) (int, error) {
	removed, err := j.registry.Sweep(ctx, j.now(), j.processedTTL, j.unprocessedTTL)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки реестра: %w", err)
	}

	m := metrics.Get()
	m.JanitorEvicted.Add(float64(removed))
	if count, err := j.registry.Count(ctx); err == nil {
		m.PendingPayments.Set(float64(count))
	}

	if removed > 0 {
		logger.Info("🧹 Удалено устаревших платежей: %d", removed)
	}
	return removed, nil
}

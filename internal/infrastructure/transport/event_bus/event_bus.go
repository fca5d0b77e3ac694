// internal/infrastructure/transport/event_bus/event_bus.go
package events

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"stars-subscription-bot/internal/core/domain/subscription"
	"stars-subscription-bot/internal/infrastructure/metrics"
	"stars-subscription-bot/pkg/logger"

	"github.com/google/uuid"
)

// EventBus - асинхронная шина событий активации.
// Публикация не блокирует активацию: событие кладется в буфер,
// воркеры доставляют его всем подписчикам с повторами.
type EventBus struct {
	mu          sync.RWMutex
	subscribers []Subscriber
	buffer      chan Envelope
	config      EventBusConfig
	running     bool
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	metricsMu sync.Mutex
	metrics   Metrics
}

// EventBusConfig - конфигурация шины
type EventBusConfig struct {
	BufferSize     int           `json:"buffer_size"`
	WorkerCount    int           `json:"worker_count"`
	MaxRetries     int           `json:"max_retries"`
	RetryDelay     time.Duration `json:"retry_delay"`
	HandlerTimeout time.Duration `json:"handler_timeout"`
	EnableLogging  bool          `json:"enable_logging"`
}

// DefaultConfig - конфигурация по умолчанию
var DefaultConfig = EventBusConfig{
	BufferSize:     256,
	WorkerCount:    2,
	MaxRetries:     3,
	RetryDelay:     200 * time.Millisecond,
	HandlerTimeout: 10 * time.Second,
	EnableLogging:  true,
}

// NewEventBus создает шину событий
func NewEventBus(config ...EventBusConfig) *EventBus {
	cfg := DefaultConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig.BufferSize
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultConfig.WorkerCount
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = DefaultConfig.HandlerTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &EventBus{
		buffer:   make(chan Envelope, cfg.BufferSize),
		config:   cfg,
		stopChan: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Subscribe добавляет подписчика
func (b *EventBus) Subscribe(subscriber Subscriber) {
	if subscriber == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers = append(b.subscribers, subscriber)
	if b.config.EnableLogging {
		logger.Info("✅ %s подписался на события активации", subscriber.GetName())
	}
}

// Start запускает воркеров
func (b *EventBus) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return
	}
	select {
	case <-b.stopChan:
		return
	default:
	}

	b.running = true
	for i := 0; i < b.config.WorkerCount; i++ {
		b.wg.Add(1)
		go b.worker(i)
	}
	if b.config.EnableLogging {
		logger.Info("🚀 EventBus запущен с %d обработчиками", b.config.WorkerCount)
	}
}

// PublishActivation кладет событие в буфер и сразу возвращается
func (b *EventBus) PublishActivation(_ context.Context, event subscription.ActivationEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.running {
		return ErrBusNotRunning
	}

	env := Envelope{
		ID:          uuid.New().String(),
		Event:       event,
		PublishedAt: time.Now(),
	}

	select {
	case b.buffer <- env:
		b.addMetrics(func(m *Metrics) { m.EventsPublished++ })
		logger.Debug("📤 Событие активации %s (платеж %s) в очереди", env.ID, event.TransactionID)
		return nil
	default:
		b.addMetrics(func(m *Metrics) { m.EventsDropped++ })
		metrics.Get().EventsDropped.Inc()
		logger.Warn("⚠️ Буфер событий полон, событие активации по платежу %s отброшено", event.TransactionID)
		return ErrBufferFull
	}
}

// Stop прекращает прием событий, дожидается доставки буфера.
// По истечении ctx прерывает повторы и обработчиков.
func (b *EventBus) Stop(ctx context.Context) error {
	b.stopOnce.Do(func() {
		b.mu.Lock()
		b.running = false
		close(b.stopChan)
		b.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.cancel()
		if b.config.EnableLogging {
			logger.Info("🛑 EventBus остановлен")
		}
		return nil
	case <-ctx.Done():
		b.cancel()
		<-done
		logger.Warn("⚠️ EventBus остановлен по таймауту, в буфере осталось %d событий", len(b.buffer))
		return fmt.Errorf("остановка шины событий: %w", ctx.Err())
	}
}

func (b *EventBus) worker(id int) {
	defer b.wg.Done()
	logger.Debug("🔍 [EventWorker %d] Запущен", id)

	for {
		select {
		case env := <-b.buffer:
			b.processEvent(env)
		case <-b.stopChan:
			// дочитываем то, что уже принято
			for {
				select {
				case env := <-b.buffer:
					if b.ctx.Err() != nil {
						return
					}
					b.processEvent(env)
				default:
					logger.Debug("🔍 [EventWorker %d] Остановлен", id)
					return
				}
			}
		}
	}
}

func (b *EventBus) processEvent(env Envelope) {
	start := time.Now()

	b.mu.RLock()
	subscribers := make([]Subscriber, len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.RUnlock()

	failed := false
	for _, sub := range subscribers {
		if err := b.handleEventWithRetry(env, sub); err != nil {
			failed = true
			logger.Error("❌ Событие %s (платеж %s) не доставлено подписчику %s: %v",
				env.ID, env.Event.TransactionID, sub.GetName(), err)
		}
	}

	b.addMetrics(func(m *Metrics) {
		m.EventsProcessed++
		m.ProcessingTime += time.Since(start)
		if failed {
			m.EventsFailed++
		}
	})
}

func (b *EventBus) handleEventWithRetry(env Envelope, sub Subscriber) error {
	var lastErr error
	for attempt := 0; attempt <= b.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(b.config.RetryDelay * time.Duration(attempt)):
			case <-b.ctx.Done():
				metrics.Get().EventDeliveries.WithLabelValues(sub.GetName(), "aborted").Inc()
				return fmt.Errorf("доставка прервана после %d попыток: %w", attempt, lastErr)
			}
		}

		lastErr = b.safeExecute(env, sub)
		if lastErr == nil {
			metrics.Get().EventDeliveries.WithLabelValues(sub.GetName(), "delivered").Inc()
			return nil
		}
		logger.Debug("🔁 [%s] попытка %d для события %s: %v", sub.GetName(), attempt+1, env.ID, lastErr)
	}

	metrics.Get().EventDeliveries.WithLabelValues(sub.GetName(), "failed").Inc()
	return lastErr
}

// safeExecute вызывает подписчика, превращая панику в ошибку
func (b *EventBus) safeExecute(env Envelope, sub Subscriber) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("⚠️ Паника в подписчике %s: %v\n%s", sub.GetName(), r, debug.Stack())
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(b.ctx, b.config.HandlerTimeout)
	defer cancel()
	return sub.HandleActivation(ctx, env.Event)
}

func (b *EventBus) addMetrics(fn func(m *Metrics)) {
	b.metricsMu.Lock()
	fn(&b.metrics)
	b.metricsMu.Unlock()
}

// GetMetrics возвращает снимок счетчиков
func (b *EventBus) GetMetrics() Metrics {
	b.metricsMu.Lock()
	m := b.metrics
	b.metricsMu.Unlock()

	b.mu.RLock()
	m.Subscribers = len(b.subscribers)
	b.mu.RUnlock()
	return m
}

// IsRunning возвращает true если шина принимает события
func (b *EventBus) IsRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.running
}

// Name возвращает имя сервиса
func (b *EventBus) Name() string {
	return "EventBus"
}

// HealthCheck шина запущена и буфер не переполнен
func (b *EventBus) HealthCheck() bool {
	return b.IsRunning() && len(b.buffer) < cap(b.buffer)
}

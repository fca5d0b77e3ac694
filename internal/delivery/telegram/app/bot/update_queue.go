// internal/delivery/telegram/app/bot/update_queue.go
package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"stars-subscription-bot/internal/infrastructure/metrics"
	"stars-subscription-bot/pkg/logger"

	"github.com/go-telegram/bot/models"
)

// UpdateProcessor обработчик одного обновления
type UpdateProcessor interface {
	HandleUpdate(ctx context.Context, update *models.Update) error
}

// UpdateQueueConfig настройки очереди обновлений
type UpdateQueueConfig struct {
	Size          int
	Workers       int
	UpdateTimeout time.Duration // лимит на обработку одного обновления
}

// UpdateQueue ограниченная очередь обновлений вебхука с пулом обработчиков.
// Вебхук отвечает 200 сразу после постановки в очередь.
type UpdateQueue struct {
	processor UpdateProcessor
	config    UpdateQueueConfig
	updates   chan *models.Update

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	running bool
	closed  bool
}

// NewUpdateQueue создает очередь обновлений
func NewUpdateQueue(processor UpdateProcessor, cfg UpdateQueueConfig) *UpdateQueue {
	if cfg.Size <= 0 {
		cfg.Size = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.UpdateTimeout <= 0 {
		cfg.UpdateTimeout = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &UpdateQueue{
		processor: processor,
		config:    cfg,
		updates:   make(chan *models.Update, cfg.Size),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start запускает обработчиков
func (q *UpdateQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running || q.closed {
		return
	}
	q.running = true

	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	logger.Info("🚀 Очередь обновлений запущена (%d обработчиков, буфер %d)", q.config.Workers, q.config.Size)
}

// Enqueue ставит обновление в очередь без ожидания. false - очередь заполнена или остановлена
func (q *UpdateQueue) Enqueue(update *models.Update) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.updates <- update:
		return true
	default:
		metrics.Get().QueueDropped.Inc()
		logger.Warn("⚠️ Очередь обновлений заполнена, обновление %d отклонено", update.ID)
		return false
	}
}

// Len количество ожидающих обновлений
func (q *UpdateQueue) Len() int {
	return len(q.updates)
}

// Stop прекращает прием и дожидается обработки очереди.
// Если ctx истекает раньше, обработка прерывается.
func (q *UpdateQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.updates)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		logger.Info("🛑 Очередь обновлений остановлена")
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return fmt.Errorf("очередь обновлений остановлена до завершения обработки: %w", ctx.Err())
	}
}

func (q *UpdateQueue) worker(id int) {
	defer q.wg.Done()

	for update := range q.updates {
		q.process(id, update)
	}
}

func (q *UpdateQueue) process(workerID int, update *models.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("❌ Паника при обработке обновления %d (worker %d): %v\n%s",
				update.ID, workerID, r, debug.Stack())
		}
	}()

	ctx, cancel := context.WithTimeout(q.ctx, q.config.UpdateTimeout)
	defer cancel()

	if err := q.processor.HandleUpdate(ctx, update); err != nil {
		logger.Error("❌ Ошибка обработки обновления %d: %v", update.ID, err)
	}
}

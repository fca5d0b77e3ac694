// internal/core/domain/payment/registry_memory.go
package payment

import (
	"context"
	"sync"
	"time"

	"stars-subscription-bot/pkg/logger"
)

// MemoryRegistry реестр ожидающих платежей в памяти одного процесса
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries map[string]*PendingPayment
}

// NewMemoryRegistry создает реестр
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{entries: make(map[string]*PendingPayment)}
}

// Put регистрирует платеж
func (r *MemoryRegistry) Put(ctx context.Context, p *PendingPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[p.ID]; exists {
		logger.Warn("⚠️ Платеж %s уже зарегистрирован, запись не изменена", p.ID)
		return ErrDuplicatePaymentID
	}
	c := *p
	r.entries[p.ID] = &c
	return nil
}

// Get возвращает копию записи
func (r *MemoryRegistry) Get(ctx context.Context, id string) (*PendingPayment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.entries[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

// MarkProcessed атомарно переводит запись в processed
func (r *MemoryRegistry) MarkProcessed(ctx context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.entries[id]
	if !ok || p.Processed {
		return false, nil
	}
	p.Processed = true
	p.ProcessedAt = at
	return true, nil
}

// Sweep удаляет устаревшие записи
func (r *MemoryRegistry) Sweep(ctx context.Context, now time.Time, processedTTL, unprocessedTTL time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, p := range r.entries {
		if p.Expired(now, processedTTL, unprocessedTTL) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed, nil
}

// Count количество записей
func (r *MemoryRegistry) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries), nil
}

// KeyedMutex блокировки по ключу внутри процесса
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex создает набор блокировок
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock захватывает блокировку ключа, ожидание прерывается контекстом
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, l)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.ch
			k.release(key, l)
		})
	}, nil
}

func (k *KeyedMutex) release(key string, l *keyedLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

// internal/infrastructure/persistence/in_memory_storage/factory/factory.go
package storage_factory

import (
	"sync"

	"stars-subscription-bot/internal/core/domain/payment"
	storage "stars-subscription-bot/internal/infrastructure/persistence/in_memory_storage"
	"stars-subscription-bot/pkg/logger"
)

// StorageFactory фабрика in-memory хранилищ.
// Используется, когда PostgreSQL или Redis отключены в конфигурации.
type StorageFactory struct {
	subscriptionStore   *storage.SubscriptionStore
	reconciliationStore *storage.ReconciliationStore
	registry            *payment.MemoryRegistry
	locker              *payment.KeyedMutex
	mu                  sync.Mutex
}

// NewStorageFactory создает фабрику хранилищ
func NewStorageFactory() *StorageFactory {
	logger.Info("🏗️  Создание фабрики in-memory хранилищ...")
	return &StorageFactory{}
}

// CreateSubscriptionStore создает или возвращает хранилище подписок
func (f *StorageFactory) CreateSubscriptionStore() *storage.SubscriptionStore {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subscriptionStore == nil {
		f.subscriptionStore = storage.NewSubscriptionStore()
		logger.Warn("⚠️ Подписки хранятся в памяти процесса и не переживут перезапуск")
	}
	return f.subscriptionStore
}

// CreateReconciliationStore создает или возвращает журнал сверки
func (f *StorageFactory) CreateReconciliationStore() *storage.ReconciliationStore {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.reconciliationStore == nil {
		f.reconciliationStore = storage.NewReconciliationStore()
	}
	return f.reconciliationStore
}

// CreatePendingRegistry создает или возвращает реестр ожидающих платежей
func (f *StorageFactory) CreatePendingRegistry() *payment.MemoryRegistry {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.registry == nil {
		f.registry = payment.NewMemoryRegistry()
		logger.Info("✅ Реестр ожидающих платежей в памяти процесса")
	}
	return f.registry
}

// CreateLocker создает или возвращает блокировку по id платежа
func (f *StorageFactory) CreateLocker() *payment.KeyedMutex {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.locker == nil {
		f.locker = payment.NewKeyedMutex()
	}
	return f.locker
}

// internal/infrastructure/persistence/postgres/factory/factory.go
package postgres_factory

import (
	"fmt"
	"sync"

	"stars-subscription-bot/internal/infrastructure/cache/redis"
	"stars-subscription-bot/internal/infrastructure/persistence/postgres/database"
	"stars-subscription-bot/internal/infrastructure/persistence/postgres/repository/payment"
	"stars-subscription-bot/internal/infrastructure/persistence/postgres/repository/subscription"
	"stars-subscription-bot/internal/infrastructure/persistence/postgres/repository/users"
	"stars-subscription-bot/pkg/logger"
)

// RepositoryFactory фабрика для создания репозиториев PostgreSQL
type RepositoryFactory struct {
	db                       *database.DatabaseService
	cache                    *redis.Cache
	userRepository           users.UserRepository
	subscriptionRepository   subscription.SubscriptionRepository
	reconciliationRepository payment.ReconciliationRepository
	mu                       sync.Mutex
}

// RepositoryDependencies зависимости для фабрики репозиториев
type RepositoryDependencies struct {
	DatabaseService *database.DatabaseService
	Cache           *redis.Cache // опционально
}

// NewRepositoryFactory создает новую фабрику репозиториев
func NewRepositoryFactory(deps RepositoryDependencies) (*RepositoryFactory, error) {
	logger.Info("🏗️  Создание фабрики репозиториев PostgreSQL...")

	if deps.DatabaseService == nil {
		return nil, fmt.Errorf("DatabaseService не может быть nil")
	}

	return &RepositoryFactory{
		db:    deps.DatabaseService,
		cache: deps.Cache,
	}, nil
}

// CreateUserRepository создает или возвращает репозиторий пользователей
func (rf *RepositoryFactory) CreateUserRepository() (users.UserRepository, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.userRepository == nil {
		db := rf.db.GetDB()
		if db == nil {
			return nil, fmt.Errorf("соединение с базой данных не установлено")
		}
		rf.userRepository = users.NewUserRepository(db, rf.cache)
		logger.Info("✅ UserRepository создан")
	}
	return rf.userRepository, nil
}

// CreateSubscriptionRepository создает или возвращает репозиторий подписок
func (rf *RepositoryFactory) CreateSubscriptionRepository() (subscription.SubscriptionRepository, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.subscriptionRepository == nil {
		db := rf.db.GetDB()
		if db == nil {
			return nil, fmt.Errorf("соединение с базой данных не установлено")
		}
		rf.subscriptionRepository = subscription.NewSubscriptionRepository(db)
		logger.Info("✅ SubscriptionRepository создан")
	}
	return rf.subscriptionRepository, nil
}

// CreateReconciliationRepository создает или возвращает журнал сверки платежей
func (rf *RepositoryFactory) CreateReconciliationRepository() (payment.ReconciliationRepository, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.reconciliationRepository == nil {
		db := rf.db.GetDB()
		if db == nil {
			return nil, fmt.Errorf("соединение с базой данных не установлено")
		}
		rf.reconciliationRepository = payment.NewReconciliationRepository(db)
		logger.Info("✅ ReconciliationRepository создан")
	}
	return rf.reconciliationRepository, nil
}

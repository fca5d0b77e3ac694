// internal/infrastructure/persistence/postgres/database/database_service.go
package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stars-subscription-bot/internal/infrastructure/config"
	"stars-subscription-bot/internal/infrastructure/persistence/postgres/migrations"
	"stars-subscription-bot/pkg/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

// DatabaseService сервис для работы с базой данных
type DatabaseService struct {
	config *config.Config
	db     *sqlx.DB
	mu     sync.RWMutex
	state  ServiceState
}

// ServiceState состояние сервиса
type ServiceState string

const (
	StateStopped  ServiceState = "stopped"
	StateStarting ServiceState = "starting"
	StateRunning  ServiceState = "running"
	StateStopping ServiceState = "stopping"
	StateError    ServiceState = "error"
)

// NewDatabaseService создает новый сервис базы данных
func NewDatabaseService(cfg *config.Config) *DatabaseService {
	return &DatabaseService{
		config: cfg,
		state:  StateStopped,
	}
}

// Start подключается к PostgreSQL и применяет миграции
func (ds *DatabaseService) Start() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.state == StateRunning {
		return fmt.Errorf("сервис базы данных уже запущен")
	}

	logger.Info("🔄 Запуск сервиса базы данных...")
	ds.state = StateStarting

	dbConfig := ds.config.Database
	logger.Info("📡 Подключение к PostgreSQL: %s:%d/%s", dbConfig.Host, dbConfig.Port, dbConfig.Name)

	db, err := sqlx.Open("postgres", ds.config.GetPostgresDSN())
	if err != nil {
		ds.state = StateError
		return fmt.Errorf("ошибка открытия соединения с БД: %w", err)
	}

	db.SetMaxOpenConns(dbConfig.MaxOpenConns)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dbConfig.MaxConnLifetime)
	db.SetConnMaxIdleTime(dbConfig.MaxConnIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		ds.state = StateError
		return fmt.Errorf("ошибка ping БД: %w", err)
	}

	if dbConfig.EnableAutoMigrate {
		if err := RunMigrations(ctx, db); err != nil {
			db.Close()
			ds.state = StateError
			return err
		}
	}

	ds.db = db
	ds.state = StateRunning

	logger.Info("✅ Подключение к PostgreSQL установлено")
	logger.Info("   • Host: %s:%d", dbConfig.Host, dbConfig.Port)
	logger.Info("   • Database: %s", dbConfig.Name)
	logger.Info("   • Pool: %d/%d connections", dbConfig.MaxIdleConns, dbConfig.MaxOpenConns)
	return nil
}

// RunMigrations применяет встроенные миграции goose
func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	logger.Info("🔄 Применение миграций базы данных...")

	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("ошибка настройки диалекта миграций: %w", err)
	}
	if err := goose.UpContext(ctx, db.DB, "."); err != nil {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db.DB)
	if err == nil {
		logger.Info("✅ Миграции применены, версия схемы: %d", version)
	}
	return nil
}

// Stop закрывает соединения
func (ds *DatabaseService) Stop() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.state != StateRunning {
		return fmt.Errorf("сервис базы данных не запущен")
	}

	logger.Info("🛑 Остановка сервиса базы данных...")
	ds.state = StateStopping

	if ds.db != nil {
		if err := ds.db.Close(); err != nil {
			ds.state = StateError
			return fmt.Errorf("ошибка закрытия соединения с БД: %w", err)
		}
	}

	ds.db = nil
	ds.state = StateStopped
	logger.Info("✅ Сервис базы данных остановлен")
	return nil
}

// GetDB возвращает соединение с базой данных
func (ds *DatabaseService) GetDB() *sqlx.DB {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.db
}

// State возвращает состояние сервиса
func (ds *DatabaseService) State() ServiceState {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.state
}

// HealthCheck проверяет здоровье базы данных
func (ds *DatabaseService) HealthCheck() bool {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if ds.state != StateRunning || ds.db == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := ds.db.PingContext(ctx); err != nil {
		logger.Warn("⚠️ Проверка здоровья БД не пройдена: %v", err)
		return false
	}
	return true
}

// GetStats возвращает статистику пула
func (ds *DatabaseService) GetStats() map[string]interface{} {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	stats := map[string]interface{}{
		"state":     ds.state,
		"connected": ds.db != nil,
	}

	if ds.db != nil {
		s := ds.db.Stats()
		stats["open_connections"] = s.OpenConnections
		stats["in_use"] = s.InUse
		stats["idle"] = s.Idle
		stats["wait_count"] = s.WaitCount
		stats["wait_duration"] = s.WaitDuration.String()
	}
	return stats
}

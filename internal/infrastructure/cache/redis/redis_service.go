// internal/infrastructure/cache/redis/redis_service.go
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stars-subscription-bot/internal/infrastructure/config"
	"stars-subscription-bot/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// RedisService сервис для работы с Redis
type RedisService struct {
	config *config.Config
	client *redis.Client
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

// NewRedisService создает новый Redis сервис
func NewRedisService(cfg *config.Config) *RedisService {
	return &RedisService{
		config: cfg,
		state:  StateStopped,
	}
}

// Start подключается к Redis
func (rs *RedisService) Start() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.state == StateRunning {
		return fmt.Errorf("Redis сервис уже запущен")
	}

	logger.Info("🔄 Запуск Redis сервиса...")
	rs.state = StateStarting

	redisConfig := rs.config.Redis
	options := &redis.Options{
		Addr:     rs.config.GetRedisAddress(),
		Password: redisConfig.Password,
		DB:       redisConfig.DB,

		PoolSize:     redisConfig.PoolSize,
		MinIdleConns: redisConfig.MinIdleConns,

		DialTimeout:  redisConfig.DialTimeout,
		ReadTimeout:  redisConfig.ReadTimeout,
		WriteTimeout: redisConfig.WriteTimeout,
		PoolTimeout:  redisConfig.PoolTimeout,

		MaxRetries:      redisConfig.MaxRetries,
		MinRetryBackoff: redisConfig.MinRetryBackoff,
		MaxRetryBackoff: redisConfig.MaxRetryBackoff,
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("📡 Подключение к Redis: %s (DB: %d)", options.Addr, redisConfig.DB)

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		rs.state = StateError
		logger.Error("❌ Не удалось подключиться к Redis: %v (address: %s)", err, options.Addr)
		return fmt.Errorf("ошибка подключения к Redis: %w", err)
	}

	rs.client = client
	rs.state = StateRunning

	logger.Info("✅ Подключение к Redis установлено")
	logger.Info("   • Pool size: %d", redisConfig.PoolSize)
	logger.Info("   • Key prefix: %s", redisConfig.KeyPrefix)
	return nil
}

// Stop закрывает клиент
func (rs *RedisService) Stop() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.state != StateRunning {
		return fmt.Errorf("Redis сервис не запущен")
	}

	logger.Info("🛑 Остановка Redis сервиса...")
	rs.state = StateStopping

	if rs.client != nil {
		if err := rs.client.Close(); err != nil {
			rs.state = StateError
			return fmt.Errorf("ошибка закрытия клиента Redis: %w", err)
		}
	}

	rs.client = nil
	rs.state = StateStopped
	logger.Info("✅ Redis сервис остановлен")
	return nil
}

// GetClient возвращает клиент Redis
func (rs *RedisService) GetClient() *redis.Client {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.client
}

// State возвращает состояние сервиса
func (rs *RedisService) State() ServiceState {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.state
}

// HealthCheck проверяет доступность Redis
func (rs *RedisService) HealthCheck() bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	if rs.state != StateRunning || rs.client == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rs.client.Ping(ctx).Err(); err != nil {
		logger.Warn("⚠️ Проверка здоровья Redis не пройдена: %v", err)
		return false
	}
	return true
}

// GetStats возвращает статистику пула
func (rs *RedisService) GetStats() map[string]interface{} {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	stats := map[string]interface{}{
		"state":     rs.state,
		"connected": rs.client != nil,
	}
	if rs.client != nil {
		ps := rs.client.PoolStats()
		stats["hits"] = ps.Hits
		stats["misses"] = ps.Misses
		stats["timeouts"] = ps.Timeouts
		stats["total_conns"] = ps.TotalConns
		stats["idle_conns"] = ps.IdleConns
	}
	return stats
}

// GetCache возвращает JSON-кэш поверх клиента
func (rs *RedisService) GetCache() *Cache {
	return NewCacheWithClient(rs.GetClient(), rs.config.Redis.KeyPrefix)
}

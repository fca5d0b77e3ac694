// application/bootstrap/builder.go
package bootstrap

import (
	"fmt"

	"stars-subscription-bot/internal/infrastructure/config"
	"stars-subscription-bot/pkg/logger"
)

// AppBuilder строитель приложения
type AppBuilder struct {
	config  *config.Config
	options []AppOption
}

// AppOption опция для настройки конфигурации перед сборкой
type AppOption func(*config.Config) error

// NewAppBuilder создает новый строитель приложений
func NewAppBuilder() *AppBuilder {
	return &AppBuilder{}
}

// WithConfig устанавливает конфигурацию
func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	b.config = cfg
	return b
}

// WithOption добавляет опцию настройки
func (b *AppBuilder) WithOption(option AppOption) *AppBuilder {
	b.options = append(b.options, option)
	return b
}

// Build применяет опции, проверяет конфигурацию и собирает приложение
func (b *AppBuilder) Build() (*Application, error) {
	if b.config == nil {
		return nil, fmt.Errorf("конфигурация не задана")
	}

	for _, option := range b.options {
		if err := option(b.config); err != nil {
			return nil, fmt.Errorf("применение опции: %w", err)
		}
	}
	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	app, err := NewApplication(b.config)
	if err != nil {
		return nil, fmt.Errorf("создание приложения: %w", err)
	}
	return app, nil
}

// ==================== Опции приложения ====================

// WithLogLevel переопределяет уровень логирования
func WithLogLevel(level string) AppOption {
	return func(cfg *config.Config) error {
		if level != "" {
			cfg.Logging.Level = level
		}
		return nil
	}
}

// WithWebhookPort переопределяет порт вебхука
func WithWebhookPort(port int) AppOption {
	return func(cfg *config.Config) error {
		if port > 0 {
			cfg.Webhook.Port = port
			logger.Info("Порт вебхука: %d", port)
		}
		return nil
	}
}

// WithInMemoryStorage отключает PostgreSQL, Redis и Kafka
func WithInMemoryStorage() AppOption {
	return func(cfg *config.Config) error {
		if cfg.IsProduction() {
			return fmt.Errorf("хранилище в памяти недопустимо в production")
		}
		cfg.Database.Enabled = false
		cfg.Redis.Enabled = false
		cfg.Kafka.Enabled = false
		return nil
	}
}

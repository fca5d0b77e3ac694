// /internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Окружения
const (
	EnvProduction  = "production"
	EnvDevelopment = "dev"
	EnvTest        = "test"
)

// ============================================
// КОНФИГУРАЦИЯ БАЗЫ ДАННЫХ
// ============================================

// DatabaseConfig - конфигурация базы данных
type DatabaseConfig struct {
	// Основные параметры подключения
	Host     string `mapstructure:"DB_HOST"`
	Port     int    `mapstructure:"DB_PORT"`
	User     string `mapstructure:"DB_USER"`
	Password string `mapstructure:"DB_PASSWORD"`
	Name     string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`

	// false - подписки хранятся в памяти процесса (только для разработки)
	Enabled bool `mapstructure:"DB_ENABLED"`

	// Настройки пула соединений
	MaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	MaxConnLifetime time.Duration `mapstructure:"DB_MAX_CONN_LIFETIME"`
	MaxConnIdleTime time.Duration `mapstructure:"DB_MAX_CONN_IDLE_TIME"`

	// Миграции goose
	EnableAutoMigrate bool `mapstructure:"DB_ENABLE_AUTO_MIGRATE"`
}

// RedisConfig конфигурация Redis
type RedisConfig struct {
	// Основные настройки подключения
	Host     string `mapstructure:"REDIS_HOST"`     // localhost
	Port     int    `mapstructure:"REDIS_PORT"`     // 6379
	Password string `mapstructure:"REDIS_PASSWORD"` // пустой или пароль
	DB       int    `mapstructure:"REDIS_DB"`       // 0

	// false - реестр ожидающих платежей и блокировки в памяти процесса
	Enabled bool `mapstructure:"REDIS_ENABLED"`

	// Настройки пула соединений
	PoolSize        int           `mapstructure:"REDIS_POOL_SIZE"`         // 10
	MinIdleConns    int           `mapstructure:"REDIS_MIN_IDLE_CONNS"`    // 5
	MaxRetries      int           `mapstructure:"REDIS_MAX_RETRIES"`       // 3
	MinRetryBackoff time.Duration `mapstructure:"REDIS_MIN_RETRY_BACKOFF"` // 8ms
	MaxRetryBackoff time.Duration `mapstructure:"REDIS_MAX_RETRY_BACKOFF"` // 512ms
	DialTimeout     time.Duration `mapstructure:"REDIS_DIAL_TIMEOUT"`      // 5s
	ReadTimeout     time.Duration `mapstructure:"REDIS_READ_TIMEOUT"`      // 3s
	WriteTimeout    time.Duration `mapstructure:"REDIS_WRITE_TIMEOUT"`     // 3s
	PoolTimeout     time.Duration `mapstructure:"REDIS_POOL_TIMEOUT"`      // 4s

	// Префикс ключей
	KeyPrefix string `mapstructure:"REDIS_KEY_PREFIX"` // starsbot:
	// TTL блокировки обработки одного платежа
	LockTTL time.Duration `mapstructure:"REDIS_LOCK_TTL"` // 90s, больше WEBHOOK_UPDATE_TIMEOUT
}

// TelegramConfig настройки Bot API
type TelegramConfig struct {
	BotToken    string        `mapstructure:"TG_API_KEY"`
	BotUsername string        `mapstructure:"TG_BOT_USERNAME"`
	APITimeout  time.Duration `mapstructure:"TG_API_TIMEOUT"`
}

// WebhookConfig настройки входящего вебхука
type WebhookConfig struct {
	Port        int    `mapstructure:"WEBHOOK_PORT"`
	Path        string `mapstructure:"WEBHOOK_PATH"`
	UseTLS      bool   `mapstructure:"WEBHOOK_USE_TLS"`
	TLSCertPath string `mapstructure:"WEBHOOK_TLS_CERT_PATH"`
	TLSKeyPath  string `mapstructure:"WEBHOOK_TLS_KEY_PATH"`
	MaxBodySize int64  `mapstructure:"WEBHOOK_MAX_BODY_SIZE"`

	// Подпись запросов
	SigningSecret   string        `mapstructure:"WEBHOOK_SIGNING_SECRET"`
	SignatureBypass bool          `mapstructure:"WEBHOOK_SIGNATURE_BYPASS"`
	ReplayWindow    time.Duration `mapstructure:"WEBHOOK_REPLAY_WINDOW"`

	// Очередь обновлений
	QueueSize     int           `mapstructure:"WEBHOOK_QUEUE_SIZE"`
	Workers       int           `mapstructure:"WEBHOOK_WORKERS"`
	UpdateTimeout time.Duration `mapstructure:"WEBHOOK_UPDATE_TIMEOUT"` // лимит на одно обновление
}

// PaymentsConfig настройки платежного конвейера
type PaymentsConfig struct {
	SweepInterval         time.Duration `mapstructure:"PAYMENT_SWEEP_INTERVAL"`         // 1h
	ProcessedTTL          time.Duration `mapstructure:"PAYMENT_PROCESSED_TTL"`          // 24h
	UnprocessedTTL        time.Duration `mapstructure:"PAYMENT_UNPROCESSED_TTL"`        // 72h
	VerificationFreshness time.Duration `mapstructure:"PAYMENT_VERIFICATION_FRESHNESS"` // 24h
	CheckoutStrict        bool          `mapstructure:"CHECKOUT_STRICT"`
	CheckoutAnswerTimeout time.Duration `mapstructure:"CHECKOUT_ANSWER_TIMEOUT"` // 5s
	AdminToken            string        `mapstructure:"PAYMENT_ADMIN_TOKEN"`
	ReconciliationDigest  string        `mapstructure:"PAYMENT_RECONCILIATION_DIGEST"` // cron, "0 9 * * *"
}

// KafkaConfig публикация событий активации
type KafkaConfig struct {
	Enabled         bool     `mapstructure:"KAFKA_ENABLED"`
	Brokers         []string `mapstructure:"KAFKA_BROKERS"`
	ActivationTopic string   `mapstructure:"KAFKA_ACTIVATION_TOPIC"`
	ClientID        string   `mapstructure:"KAFKA_CLIENT_ID"`
}

// LoggingConfig настройки логирования
type LoggingConfig struct {
	Level     string `mapstructure:"LOG_LEVEL"`
	File      string `mapstructure:"LOG_FILE"`
	DebugMode bool   `mapstructure:"DEBUG_MODE"`
}

// Config конфигурация сервиса
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	Version     string `mapstructure:"VERSION"`

	Database DatabaseConfig `mapstructure:",squash"`
	Redis    RedisConfig    `mapstructure:",squash"`
	Telegram TelegramConfig `mapstructure:",squash"`
	Webhook  WebhookConfig  `mapstructure:",squash"`
	Payments PaymentsConfig `mapstructure:",squash"`
	Kafka    KafkaConfig    `mapstructure:",squash"`
	Logging  LoggingConfig  `mapstructure:",squash"`

	MetricsEnabled bool `mapstructure:"METRICS_ENABLED"`
}

// ============================================
// ЗАГРУЗКА КОНФИГУРАЦИИ
// ============================================

// LoadConfig загружает конфигурацию из .env файла и переменных окружения
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			fmt.Printf("⚠️  Config file not found, using environment variables\n")
		}
	}

	cfg := &Config{}

	// ======================
	// ОСНОВНЫЕ НАСТРОЙКИ
	// ======================
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", EnvProduction))
	cfg.Version = getEnv("VERSION", "1.0.0")

	// ======================
	// БАЗА ДАННЫХ
	// ======================
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "")
	cfg.Database.Password = getEnv("DB_PASSWORD", "")
	cfg.Database.Name = getEnv("DB_NAME", "")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 25)
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 10)
	cfg.Database.MaxConnLifetime = getEnvDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute)
	cfg.Database.MaxConnIdleTime = getEnvDuration("DB_MAX_CONN_IDLE_TIME", 10*time.Minute)
	cfg.Database.EnableAutoMigrate = getEnvBool("DB_ENABLE_AUTO_MIGRATE", true)
	cfg.Database.Enabled = getEnvBool("DB_ENABLED", true)

	// ======================
	// REDIS
	// ======================
	cfg.Redis.Host = getEnv("REDIS_HOST", "localhost")
	cfg.Redis.Port = getEnvInt("REDIS_PORT", 6379)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.Redis.PoolSize = getEnvInt("REDIS_POOL_SIZE", 10)
	cfg.Redis.MinIdleConns = getEnvInt("REDIS_MIN_IDLE_CONNS", 5)
	cfg.Redis.MaxRetries = getEnvInt("REDIS_MAX_RETRIES", 3)
	cfg.Redis.MinRetryBackoff = getEnvDuration("REDIS_MIN_RETRY_BACKOFF", 8*time.Millisecond)
	cfg.Redis.MaxRetryBackoff = getEnvDuration("REDIS_MAX_RETRY_BACKOFF", 512*time.Millisecond)
	cfg.Redis.DialTimeout = getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.Redis.ReadTimeout = getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.Redis.WriteTimeout = getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.Redis.PoolTimeout = getEnvDuration("REDIS_POOL_TIMEOUT", 4*time.Second)
	cfg.Redis.KeyPrefix = getEnv("REDIS_KEY_PREFIX", "starsbot:")
	cfg.Redis.LockTTL = getEnvDuration("REDIS_LOCK_TTL", 90*time.Second)
	cfg.Redis.Enabled = getEnvBool("REDIS_ENABLED", true)

	// ======================
	// TELEGRAM
	// ======================
	cfg.Telegram.BotToken = getEnv("TG_API_KEY", "")
	cfg.Telegram.BotUsername = getEnv("TG_BOT_USERNAME", "Payment_gateway_Binar_bot")
	cfg.Telegram.APITimeout = getEnvDuration("TG_API_TIMEOUT", 30*time.Second)

	// ======================
	// ВЕБХУК
	// ======================
	cfg.Webhook.Port = getEnvInt("WEBHOOK_PORT", 8443)
	cfg.Webhook.Path = getEnv("WEBHOOK_PATH", "/webhook")
	cfg.Webhook.UseTLS = getEnvBool("WEBHOOK_USE_TLS", false)
	cfg.Webhook.TLSCertPath = getEnv("WEBHOOK_TLS_CERT_PATH", "")
	cfg.Webhook.TLSKeyPath = getEnv("WEBHOOK_TLS_KEY_PATH", "")
	cfg.Webhook.MaxBodySize = getEnvInt64("WEBHOOK_MAX_BODY_SIZE", 1<<20)
	cfg.Webhook.SigningSecret = getEnv("WEBHOOK_SIGNING_SECRET", "")
	cfg.Webhook.SignatureBypass = getEnvBool("WEBHOOK_SIGNATURE_BYPASS", false)
	cfg.Webhook.ReplayWindow = getEnvDuration("WEBHOOK_REPLAY_WINDOW", 300*time.Second)
	cfg.Webhook.QueueSize = getEnvInt("WEBHOOK_QUEUE_SIZE", 256)
	cfg.Webhook.Workers = getEnvInt("WEBHOOK_WORKERS", 4)
	cfg.Webhook.UpdateTimeout = getEnvDuration("WEBHOOK_UPDATE_TIMEOUT", 30*time.Second)

	// Если отдельный ключ подписи не задан, используется токен бота
	if cfg.Webhook.SigningSecret == "" {
		cfg.Webhook.SigningSecret = cfg.Telegram.BotToken
	}

	// ======================
	// ПЛАТЕЖИ
	// ======================
	cfg.Payments.SweepInterval = getEnvDuration("PAYMENT_SWEEP_INTERVAL", time.Hour)
	cfg.Payments.ProcessedTTL = getEnvDuration("PAYMENT_PROCESSED_TTL", 24*time.Hour)
	cfg.Payments.UnprocessedTTL = getEnvDuration("PAYMENT_UNPROCESSED_TTL", 72*time.Hour)
	cfg.Payments.VerificationFreshness = getEnvDuration("PAYMENT_VERIFICATION_FRESHNESS", 24*time.Hour)
	cfg.Payments.CheckoutStrict = getEnvBool("CHECKOUT_STRICT", false)
	cfg.Payments.CheckoutAnswerTimeout = getEnvDuration("CHECKOUT_ANSWER_TIMEOUT", 5*time.Second)
	cfg.Payments.AdminToken = getEnv("PAYMENT_ADMIN_TOKEN", "")
	cfg.Payments.ReconciliationDigest = getEnv("PAYMENT_RECONCILIATION_DIGEST", "0 9 * * *")

	// ======================
	// KAFKA
	// ======================
	cfg.Kafka.Enabled = getEnvBool("KAFKA_ENABLED", false)
	cfg.Kafka.Brokers = getEnvList("KAFKA_BROKERS", []string{"localhost:9092"})
	cfg.Kafka.ActivationTopic = getEnv("KAFKA_ACTIVATION_TOPIC", "subscriptions.activated")
	cfg.Kafka.ClientID = getEnv("KAFKA_CLIENT_ID", "stars-subscription-bot")

	// ======================
	// ЛОГИРОВАНИЕ И МЕТРИКИ
	// ======================
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")
	cfg.Logging.File = getEnv("LOG_FILE", "logs/stars_bot.log")
	cfg.Logging.DebugMode = getEnvBool("DEBUG_MODE", false)
	cfg.MetricsEnabled = getEnvBool("METRICS_ENABLED", true)

	// ======================
	// ВАЛИДАЦИЯ КОНФИГУРАЦИИ
	// ======================
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ============================================
// ВАЛИДАЦИЯ
// ============================================

// validate проверяет обязательные параметры конфигурации
func (c *Config) validate() error {
	var validationErrors []string

	switch c.Environment {
	case EnvProduction, EnvDevelopment, EnvTest:
	default:
		validationErrors = append(validationErrors, "ENVIRONMENT должен быть production, dev или test")
	}

	// Проверка настроек базы данных
	if c.Database.Enabled {
		if c.Database.Host == "" {
			validationErrors = append(validationErrors, "DB_HOST is required")
		}
		if c.Database.Port <= 0 {
			validationErrors = append(validationErrors, "DB_PORT must be positive")
		}
		if c.Database.User == "" {
			validationErrors = append(validationErrors, "DB_USER is required")
		}
		if c.Database.Name == "" {
			validationErrors = append(validationErrors, "DB_NAME is required")
		}
	} else if c.IsProduction() {
		validationErrors = append(validationErrors, "DB_ENABLED=false недопустим в production")
	}

	// Вебхук
	if c.Webhook.Port <= 0 || c.Webhook.Port > 65535 {
		validationErrors = append(validationErrors, "WEBHOOK_PORT должен быть в диапазоне 1-65535")
	}
	if !strings.HasPrefix(c.Webhook.Path, "/") {
		validationErrors = append(validationErrors, "WEBHOOK_PATH должен начинаться с /")
	}
	if c.Webhook.UseTLS {
		if c.Webhook.TLSCertPath == "" {
			validationErrors = append(validationErrors, "WEBHOOK_TLS_CERT_PATH обязателен при использовании TLS")
		}
		if c.Webhook.TLSKeyPath == "" {
			validationErrors = append(validationErrors, "WEBHOOK_TLS_KEY_PATH обязателен при использовании TLS")
		}
	}
	if c.Webhook.ReplayWindow <= 0 {
		validationErrors = append(validationErrors, "WEBHOOK_REPLAY_WINDOW должен быть положительным")
	}
	if c.Webhook.UpdateTimeout <= 0 {
		validationErrors = append(validationErrors, "WEBHOOK_UPDATE_TIMEOUT должен быть положительным")
	}
	// блокировка платежа должна пережить обработку обновления
	if c.Redis.Enabled && c.Redis.LockTTL <= c.Webhook.UpdateTimeout {
		validationErrors = append(validationErrors, "REDIS_LOCK_TTL должен быть больше WEBHOOK_UPDATE_TIMEOUT")
	}
	if c.Webhook.QueueSize <= 0 || c.Webhook.Workers <= 0 {
		validationErrors = append(validationErrors, "WEBHOOK_QUEUE_SIZE и WEBHOOK_WORKERS должны быть положительными")
	}

	// Подпись вебхука: обход только явный и никогда в production
	if c.Webhook.SignatureBypass && c.IsProduction() {
		validationErrors = append(validationErrors, "WEBHOOK_SIGNATURE_BYPASS запрещен в production")
	}
	if !c.Webhook.SignatureBypass && c.Webhook.SigningSecret == "" {
		validationErrors = append(validationErrors, "WEBHOOK_SIGNING_SECRET или TG_API_KEY обязателен")
	}

	// Платежи
	if c.Payments.SweepInterval <= 0 {
		validationErrors = append(validationErrors, "PAYMENT_SWEEP_INTERVAL должен быть положительным")
	}
	if c.Payments.ProcessedTTL <= 0 || c.Payments.UnprocessedTTL < c.Payments.ProcessedTTL {
		validationErrors = append(validationErrors, "PAYMENT_UNPROCESSED_TTL должен быть не меньше PAYMENT_PROCESSED_TTL")
	}
	if c.IsProduction() && c.Payments.AdminToken == "" {
		validationErrors = append(validationErrors, "PAYMENT_ADMIN_TOKEN обязателен в production")
	}

	// Kafka
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			validationErrors = append(validationErrors, "KAFKA_BROKERS обязателен при KAFKA_ENABLED=true")
		}
		if c.Kafka.ActivationTopic == "" {
			validationErrors = append(validationErrors, "KAFKA_ACTIVATION_TOPIC обязателен при KAFKA_ENABLED=true")
		}
	}

	if c.IsProduction() && c.Telegram.BotToken == "" {
		validationErrors = append(validationErrors, "TG_API_KEY is required in production")
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("%s", strings.Join(validationErrors, "; "))
	}

	return nil
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	return c.validate()
}

// ============================================
// ВСПОМОГАТЕЛЬНЫЕ МЕТОДЫ
// ============================================

// IsProduction возвращает true для production окружения
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// IsDev возвращает true для окружения разработки
func (c *Config) IsDev() bool {
	return c.Environment == EnvDevelopment
}

// GetPostgresDSN возвращает DSN для подключения к PostgreSQL
func (c *Config) GetPostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddress возвращает адрес Redis
func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// PrintSummary выводит основные параметры без секретов
func (c *Config) PrintSummary() {
	log.Printf("📋 Конфигурация сервиса:")
	log.Printf("   • Окружение: %s", c.Environment)
	log.Printf("   • Уровень логирования: %s", c.Logging.Level)
	log.Printf("   • Бот: @%s", c.Telegram.BotUsername)
	log.Printf("   • Вебхук: :%d%s (TLS: %v)", c.Webhook.Port, c.Webhook.Path, c.Webhook.UseTLS)
	log.Printf("   • Окно защиты от повтора: %s", c.Webhook.ReplayWindow)
	if c.Webhook.SignatureBypass {
		log.Printf("   • ⚠️ Проверка подписи вебхука ОТКЛЮЧЕНА")
	}
	if c.Database.Enabled {
		log.Printf("   • PostgreSQL: %s:%d/%s", c.Database.Host, c.Database.Port, c.Database.Name)
	} else {
		log.Printf("   • PostgreSQL: отключен (хранилище в памяти)")
	}
	if c.Redis.Enabled {
		log.Printf("   • Redis: %s (DB: %d, Pool: %d)", c.GetRedisAddress(), c.Redis.DB, c.Redis.PoolSize)
	} else {
		log.Printf("   • Redis: отключен (реестр в памяти)")
	}
	log.Printf("   • Очистка реестра: каждые %s (обработанные %s, необработанные %s)",
		c.Payments.SweepInterval, c.Payments.ProcessedTTL, c.Payments.UnprocessedTTL)
	log.Printf("   • Kafka: %v %v", c.Kafka.Enabled, c.Kafka.Brokers)
}

// ============================================
// ВСПОМОГАТЕЛЬНЫЕ ФУНКЦИИ
// ============================================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

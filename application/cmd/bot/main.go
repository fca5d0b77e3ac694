// application/cmd/bot/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"stars-subscription-bot/application/bootstrap"
	"stars-subscription-bot/internal/infrastructure/config"
	"stars-subscription-bot/pkg/logger"
)

var (
	version   = "1.0.0"
	buildTime = "неизвестно"
)

func main() {
	var (
		env         string
		cfgPath     string
		logLevel    string
		port        int
		inMemory    bool
		showHelp    bool
		showVersion bool
	)

	flag.StringVar(&env, "env", "", "Окружение (production/dev/test), переопределяет ENVIRONMENT")
	flag.StringVar(&cfgPath, "config", "", "Путь к файлу конфигурации")
	flag.StringVar(&logLevel, "log-level", "", "Уровень логирования: debug, info, warn, error (переопределяет .env)")
	flag.IntVar(&port, "port", 0, "Порт вебхука (переопределяет WEBHOOK_PORT)")
	flag.BoolVar(&inMemory, "in-memory", false, "Без PostgreSQL, Redis и Kafka (только dev/test)")
	flag.BoolVar(&showHelp, "help", false, "Показать справку")
	flag.BoolVar(&showVersion, "version", false, "Показать версию")
	flag.Parse()

	if showVersion {
		printVersion()
		return
	}
	if showHelp {
		printHelp()
		return
	}

	// Окружение нужно до загрузки: от него зависит валидация
	if env != "" {
		os.Setenv("ENVIRONMENT", env)
	}
	if inMemory {
		os.Setenv("DB_ENABLED", "false")
		os.Setenv("REDIS_ENABLED", "false")
		os.Setenv("KAFKA_ENABLED", "false")
	}

	configFile := resolveConfigFile(cfgPath, env)
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Не удалось загрузить конфигурацию: %v\n", err)
		os.Exit(1)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if err := logger.InitGlobal(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.DebugMode); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Не удалось инициализировать логгер: %v\n", err)
		os.Exit(1)
	}
	defer logger.GetLogger().Close()

	logger.Info("🚀 Запуск Stars Subscription Bot v%s (сборка: %s)", version, buildTime)
	logger.Info("📁 Конфигурация: %s", configFile)
	cfg.PrintSummary()

	builder := bootstrap.NewAppBuilder().
		WithConfig(cfg).
		WithOption(bootstrap.WithWebhookPort(port))
	if inMemory {
		builder = builder.WithOption(bootstrap.WithInMemoryStorage())
	}

	app, err := builder.Build()
	if err != nil {
		logger.Error("❌ Ошибка сборки приложения: %v", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		logger.Error("❌ Приложение завершилось с ошибкой: %v", err)
		os.Exit(1)
	}
	logger.Info("👋 Завершение работы")
}

// resolveConfigFile явный путь, затем configs/<env>/.env, затем .env
func resolveConfigFile(explicit, env string) string {
	if explicit != "" {
		return explicit
	}
	candidates := []string{".env"}
	if env != "" {
		candidates = append([]string{filepath.Join("configs", env, ".env")}, candidates...)
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	// только переменные окружения
	return ""
}

func printVersion() {
	fmt.Printf("Stars Subscription Bot v%s\n", version)
	fmt.Printf("Сборка: %s\n", buildTime)
}

func printHelp() {
	fmt.Println("⭐ Stars Subscription Bot")
	fmt.Println("Прием оплаты в Telegram Stars и активация подписок")
	fmt.Println()
	fmt.Println("Использование: bot [опции]")
	fmt.Println()
	fmt.Println("Опции:")
	fmt.Println("  --env string       Окружение (production/dev/test)")
	fmt.Println("  --config string    Путь к файлу конфигурации")
	fmt.Println("  --log-level string Уровень логирования: debug, info, warn, error")
	fmt.Println("  --port int         Порт вебхука")
	fmt.Println("  --in-memory        Без PostgreSQL, Redis и Kafka (только dev/test)")
	fmt.Println("  --version          Показать информацию о версии")
	fmt.Println("  --help             Показать это справочное сообщение")
	fmt.Println()
	fmt.Println("Основные переменные окружения:")
	fmt.Println("  TG_API_KEY               Токен Telegram бота")
	fmt.Println("  TG_BOT_USERNAME          Имя бота для ссылок оплаты")
	fmt.Println("  WEBHOOK_SIGNING_SECRET   Ключ HMAC подписи вебхука")
	fmt.Println("  WEBHOOK_REPLAY_WINDOW    Окно защиты от повтора (300s)")
	fmt.Println("  PAYMENT_ADMIN_TOKEN      Токен ручного завершения платежей")
	fmt.Println("  DB_HOST, DB_NAME, ...    PostgreSQL")
	fmt.Println("  REDIS_HOST, REDIS_PORT   Redis")
	fmt.Println("  KAFKA_ENABLED, KAFKA_BROKERS")
	fmt.Println()
	fmt.Println("Примеры:")
	fmt.Println("  go run application/cmd/bot/main.go --env=dev --in-memory --log-level=debug")
	fmt.Println("  go run application/cmd/bot/main.go --config=configs/prod/.env")
}

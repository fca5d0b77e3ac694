// application/bootstrap/app.go
package bootstrap

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"stars-subscription-bot/application/scheduler"
	"stars-subscription-bot/internal/core/domain/payment"
	"stars-subscription-bot/internal/core/domain/subscription"
	"stars-subscription-bot/internal/core/domain/users"
	"stars-subscription-bot/internal/delivery/api"
	"stars-subscription-bot/internal/delivery/telegram/app/bot"
	"stars-subscription-bot/internal/delivery/telegram/app/http_client"
	"stars-subscription-bot/internal/infrastructure/cache/redis"
	"stars-subscription-bot/internal/infrastructure/config"
	storage_factory "stars-subscription-bot/internal/infrastructure/persistence/in_memory_storage/factory"
	"stars-subscription-bot/internal/infrastructure/persistence/postgres/database"
	postgres_factory "stars-subscription-bot/internal/infrastructure/persistence/postgres/factory"
	events "stars-subscription-bot/internal/infrastructure/transport/event_bus"
	"stars-subscription-bot/internal/infrastructure/transport/kafka"
	"stars-subscription-bot/pkg/logger"

	"github.com/rs/zerolog"
)

// Application - платежный бот со всеми зависимостями
type Application struct {
	config    *config.Config
	mu        sync.RWMutex
	running   bool
	startTime time.Time
	stopChan  chan os.Signal

	// Инфраструктура
	database *database.DatabaseService
	redis    *redis.RedisService
	kafka    *kafka.ActivationPublisher
	eventBus *events.EventBus

	// Домен
	registry      payment.Registry
	subscriptions *subscription.Service
	janitor       *payment.Janitor
	scheduler     *scheduler.Scheduler

	// Доставка
	telegramBot *bot.TelegramBot
	queue       *bot.UpdateQueue
	webhook     *bot.WebhookServer
}

// NewApplication подключает инфраструктуру и собирает компоненты.
// Отключенные в конфигурации PostgreSQL, Redis и Kafka заменяются реализациями в памяти.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("конфигурация не может быть nil")
	}

	app := &Application{
		config:   cfg,
		stopChan: make(chan os.Signal, 1),
	}

	if err := app.initialize(); err != nil {
		app.closeInfrastructure()
		return nil, err
	}
	return app, nil
}

func (app *Application) initialize() error {
	memory := storage_factory.NewStorageFactory()

	// 1. Redis: реестр ожидающих платежей, блокировки, кэш пользователей
	var (
		registry payment.Registry
		locker   payment.Locker
		cache    *redis.Cache
	)
	if app.config.Redis.Enabled {
		app.redis = redis.NewRedisService(app.config)
		if err := app.redis.Start(); err != nil {
			return fmt.Errorf("запуск Redis: %w", err)
		}
		client := app.redis.GetClient()
		registry = redis.NewPendingRegistry(client, app.config.Redis.KeyPrefix, app.config.Payments.UnprocessedTTL)
		locker = redis.NewLocker(client, app.config.Redis.KeyPrefix, app.config.Redis.LockTTL)
		cache = app.redis.GetCache()
	} else {
		registry = memory.CreatePendingRegistry()
		locker = memory.CreateLocker()
	}
	app.registry = registry

	// 2. PostgreSQL: подписки, журнал сверки, проекция пользователей
	var (
		store          subscription.Store
		reconciliation payment.ReconciliationStore
		userService    *users.Service
		activeCounter  scheduler.ActiveCounter
		userCounter    scheduler.UserCounter
	)
	if app.config.Database.Enabled {
		app.database = database.NewDatabaseService(app.config)
		if err := app.database.Start(); err != nil {
			return fmt.Errorf("запуск базы данных: %w", err)
		}
		repos, err := postgres_factory.NewRepositoryFactory(postgres_factory.RepositoryDependencies{
			DatabaseService: app.database,
			Cache:           cache,
		})
		if err != nil {
			return err
		}
		subRepo, err := repos.CreateSubscriptionRepository()
		if err != nil {
			return err
		}
		reconRepo, err := repos.CreateReconciliationRepository()
		if err != nil {
			return err
		}
		userRepo, err := repos.CreateUserRepository()
		if err != nil {
			return err
		}
		store, reconciliation = subRepo, reconRepo
		activeCounter, userCounter = subRepo, userRepo
		userService = users.NewService(userRepo)
	} else {
		memStore := memory.CreateSubscriptionStore()
		store, activeCounter, userCounter = memStore, memStore, memStore
		reconciliation = memory.CreateReconciliationStore()
	}

	// 3. Шина событий активации и Kafka
	app.eventBus = events.NewEventBus(events.DefaultConfig)
	app.eventBus.Subscribe(events.NewLoggingSubscriber())
	if userService != nil {
		app.eventBus.Subscribe(userService)
	}
	if app.config.Kafka.Enabled {
		publisher, err := kafka.NewActivationPublisher(kafka.ProducerConfig{
			Brokers:  app.config.Kafka.Brokers,
			Topic:    app.config.Kafka.ActivationTopic,
			ClientID: app.config.Kafka.ClientID,
			Logger:   structuredLogger(),
		})
		if err != nil {
			return fmt.Errorf("создание продюсера Kafka: %w", err)
		}
		app.kafka = publisher
		app.eventBus.Subscribe(events.NewPublisherSubscriber("kafka", publisher))
	}

	// 4. Bot API
	messenger, err := app.createMessenger()
	if err != nil {
		return err
	}

	// 5. Платежный контур
	app.subscriptions = subscription.NewService(store, app.eventBus)
	verifier := payment.NewVerifier(app.config.Webhook.SigningSecret, app.config.Webhook.ReplayWindow, app.config.Webhook.SignatureBypass)
	issuer := payment.NewInvoiceIssuer(registry, messenger)
	if userService != nil {
		issuer.SetAccountResolver(userService)
	}
	checkout := payment.NewCheckoutAuthorizer(registry, messenger, app.config.Payments.CheckoutStrict, app.config.Payments.CheckoutAnswerTimeout)
	confirmation := payment.NewConfirmationHandler(registry, locker, app.subscriptions, reconciliation, messenger)
	verification := payment.NewVerificationService(app.subscriptions, app.config.Webhook.SigningSecret,
		app.config.IsProduction(), app.config.Payments.VerificationFreshness)
	app.janitor = payment.NewJanitor(registry, app.config.Payments.SweepInterval,
		app.config.Payments.ProcessedTTL, app.config.Payments.UnprocessedTTL)

	app.scheduler = scheduler.New()
	if err := app.scheduler.Register(scheduler.ReconciliationDigest(reconciliation, app.config.Payments.ReconciliationDigest)); err != nil {
		return err
	}
	if err := app.scheduler.Register(scheduler.SubscriptionStats(activeCounter, userCounter, "")); err != nil {
		return err
	}

	// 6. Telegram бот, очередь обновлений, HTTP
	app.telegramBot, err = bot.NewTelegramBot(bot.Dependencies{
		Messenger:     messenger,
		Issuer:        issuer,
		Subscriptions: app.subscriptions,
		Checkout:      checkout,
		Confirmation:  confirmation,
	})
	if err != nil {
		return fmt.Errorf("создание Telegram бота: %w", err)
	}

	app.queue = bot.NewUpdateQueue(app.telegramBot, bot.UpdateQueueConfig{
		Size:          app.config.Webhook.QueueSize,
		Workers:       app.config.Webhook.Workers,
		UpdateTimeout: app.config.Webhook.UpdateTimeout,
	})

	health := map[string]api.HealthChecker{"event_bus": app.eventBus}
	if app.database != nil {
		health["database"] = app.database
	}
	if app.redis != nil {
		health["redis"] = app.redis
	}
	apiHandler := api.NewHandler(api.Config{
		BotUsername:    app.config.Telegram.BotUsername,
		Environment:    app.config.Environment,
		AdminToken:     app.config.Payments.AdminToken,
		MetricsEnabled: app.config.MetricsEnabled,
	}, api.Dependencies{
		Verifier:  verification,
		Completer: confirmation,
		Pending:   registry,
		Health:    health,
	})

	app.webhook = bot.NewWebhookServer(app.config, verifier, app.queue, apiHandler)

	logger.Info("✅ Приложение собрано: команды бота %v", app.telegramBot.Commands())
	return nil
}

func (app *Application) createMessenger() (payment.Messenger, error) {
	if app.config.Telegram.BotToken == "" {
		logger.Warn("⚠️ TG_API_KEY не задан, исходящие сообщения только пишутся в лог")
		return http_client.NewLoggingMessenger(), nil
	}
	client, err := http_client.NewBotAPI(app.config.Telegram.BotToken, app.config.Telegram.APITimeout, "")
	if err != nil {
		return nil, fmt.Errorf("создание клиента Bot API: %w", err)
	}
	return client, nil
}

// Handler HTTP обработчик вебхука и REST API
func (app *Application) Handler() http.Handler {
	return app.webhook.Handler()
}

// closeInfrastructure закрывает подключения в обратном порядке
func (app *Application) closeInfrastructure() {
	if app.kafka != nil {
		if err := app.kafka.Close(); err != nil {
			logger.Warn("⚠️ Ошибка закрытия продюсера Kafka: %v", err)
		}
	}
	if app.redis != nil {
		if err := app.redis.Stop(); err != nil {
			logger.Warn("⚠️ Ошибка остановки Redis: %v", err)
		}
	}
	if app.database != nil {
		if err := app.database.Stop(); err != nil {
			logger.Warn("⚠️ Ошибка остановки базы данных: %v", err)
		}
	}
}

func structuredLogger() zerolog.Logger {
	if l := logger.GetLogger(); l != nil {
		return l.Zerolog()
	}
	return zerolog.Nop()
}

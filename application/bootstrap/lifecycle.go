// application/bootstrap/lifecycle.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"stars-subscription-bot/pkg/logger"
	"stars-subscription-bot/pkg/utils"
)

// DefaultShutdownTimeout время на graceful shutdown
const DefaultShutdownTimeout = 30 * time.Second

// startBackground запускает фоновые компоненты без HTTP сервера
func (app *Application) startBackground() error {
	app.eventBus.Start()
	app.queue.Start()
	if err := app.janitor.Start(); err != nil {
		return fmt.Errorf("запуск очистки реестра: %w", err)
	}
	app.scheduler.Start()
	return nil
}

// Start запускает шину событий, очередь обновлений, очистку реестра и HTTP сервер
func (app *Application) Start() error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.running {
		return errors.New("приложение уже запущено")
	}

	logger.Info("🚀 Запуск приложения...")
	if err := app.startBackground(); err != nil {
		return err
	}
	if err := app.webhook.Start(); err != nil {
		return fmt.Errorf("запуск сервера вебхука: %w", err)
	}

	app.running = true
	app.startTime = time.Now()
	logger.Info("✅ Приложение запущено и работает")
	return nil
}

// Run запускает приложение и блокируется до SIGINT/SIGTERM
func (app *Application) Run() error {
	if err := app.Start(); err != nil {
		return err
	}

	signal.Notify(app.stopChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(app.stopChan)

	sig := <-app.stopChan
	logger.Info("🛑 Получен сигнал завершения: %v", sig)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	return app.Shutdown(ctx)
}

// Stop посылает сигнал завершения работающему Run
func (app *Application) Stop() {
	select {
	case app.stopChan <- syscall.SIGTERM:
	default:
	}
}

// Shutdown останавливает компоненты в порядке, обратном запуску:
// HTTP сервер, очередь обновлений, фоновые задачи, шина событий, подключения.
func (app *Application) Shutdown(ctx context.Context) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	logger.Info("⏳ Начинаем graceful shutdown...")
	var errs []error

	if err := app.webhook.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := app.queue.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("очередь обновлений: %w", err))
	}
	app.janitor.Stop()
	if err := app.scheduler.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := app.eventBus.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	app.closeInfrastructure()

	if app.running {
		logger.Info("✅ Приложение остановлено. Время работы: %v", time.Since(app.startTime).Round(time.Second))
	}
	app.running = false
	return errors.Join(errs...)
}

// Status состояние приложения
func (app *Application) Status() map[string]interface{} {
	app.mu.RLock()
	defer app.mu.RUnlock()

	status := map[string]interface{}{
		"running":     app.running,
		"environment": app.config.Environment,
		"commands":    app.telegramBot.Commands(),
		"queue":       app.queue.Len(),
		"event_bus":   app.eventBus.GetMetrics(),
		"jobs":        app.scheduler.Jobs(),
	}
	if app.running {
		status["uptime"] = utils.FormatDuration(time.Since(app.startTime))
		status["startTime"] = app.startTime.Format(time.RFC3339)
	}
	if app.database != nil {
		status["database"] = app.database.GetStats()
	}
	if app.redis != nil {
		status["redis"] = app.redis.GetStats()
	}
	return status
}

// internal/delivery/telegram/app/bot/webhook.go
package bot

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"stars-subscription-bot/internal/delivery/telegram/app/bot/middlewares"
	"stars-subscription-bot/internal/infrastructure/config"
	"stars-subscription-bot/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot/models"
)

// RouteRegistrar дополнительные маршруты на том же сервере (REST API платежей)
type RouteRegistrar interface {
	RegisterRoutes(r gin.IRouter)
}

// UpdateSink принимает проверенные обновления
type UpdateSink interface {
	Enqueue(update *models.Update) bool
}

// WebhookServer сервер для обработки webhook запросов от Telegram
type WebhookServer struct {
	config   *config.Config
	verifier middlewares.SignatureVerifier
	sink     UpdateSink
	engine   *gin.Engine
	server   *http.Server
}

// NewWebhookServer создает сервер вебхука и регистрирует маршруты
func NewWebhookServer(cfg *config.Config, verifier middlewares.SignatureVerifier, sink UpdateSink, registrars ...RouteRegistrar) *WebhookServer {
	if !cfg.Logging.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ws := &WebhookServer{
		config:   cfg,
		verifier: verifier,
		sink:     sink,
		engine:   gin.New(),
	}
	ws.engine.Use(gin.Recovery())

	ws.engine.POST(cfg.Webhook.Path,
		middlewares.BodyLimit(cfg.Webhook.MaxBodySize),
		middlewares.Signature(verifier),
		ws.handleWebhook,
	)

	for _, r := range registrars {
		r.RegisterRoutes(ws.engine)
	}
	return ws
}

// Handler http.Handler сервера (для тестов)
func (ws *WebhookServer) Handler() http.Handler {
	return ws.engine
}

// Start запускает сервер webhook с поддержкой TLS
func (ws *WebhookServer) Start() error {
	if ws.config.Webhook.UseTLS {
		if ws.config.Webhook.TLSCertPath == "" || ws.config.Webhook.TLSKeyPath == "" {
			return fmt.Errorf("TLS включен но пути к сертификатам не указаны")
		}
	}

	addr := fmt.Sprintf(":%d", ws.config.Webhook.Port)
	ws.server = &http.Server{
		Addr:              addr,
		Handler:           ws.engine,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	if ws.config.Webhook.UseTLS {
		ws.server.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	logger.Info("🚀 Запуск сервера вебхука на %s%s (TLS: %v)", addr, ws.config.Webhook.Path, ws.config.Webhook.UseTLS)

	go func() {
		var err error
		if ws.config.Webhook.UseTLS {
			err = ws.server.ListenAndServeTLS(ws.config.Webhook.TLSCertPath, ws.config.Webhook.TLSKeyPath)
		} else {
			err = ws.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("❌ Ошибка сервера вебхука: %v", err)
		}
	}()

	return nil
}

// Stop останавливает сервер, дожидаясь текущих запросов
func (ws *WebhookServer) Stop(ctx context.Context) error {
	if ws.server == nil {
		return nil
	}
	if err := ws.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка остановки сервера вебхука: %w", err)
	}
	logger.Info("🛑 Сервер вебхука остановлен")
	return nil
}

// handleWebhook разбирает обновление и ставит его в очередь
func (ws *WebhookServer) handleWebhook(c *gin.Context) {
	body, _ := c.Get(middlewares.RawBodyKey)
	raw, _ := body.([]byte)

	var update models.Update
	if err := json.Unmarshal(raw, &update); err != nil {
		logger.Warn("⚠️ Некорректное обновление от %s: %v", c.ClientIP(), err)
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "malformed update"})
		return
	}
	// null, {} и объекты без update_id разбираются без ошибки
	if update.ID <= 0 {
		logger.Warn("⚠️ Обновление без update_id от %s", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "malformed update"})
		return
	}

	if !ws.sink.Enqueue(&update) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "queue is full"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// internal/delivery/api/handler.go
package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"stars-subscription-bot/internal/core/domain/payment"
	"stars-subscription-bot/internal/core/domain/plan"
	"stars-subscription-bot/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HeaderAdminToken заголовок токена для ручного завершения платежей
const HeaderAdminToken = "X-Admin-Token"

const envProduction = "production"

// PaymentVerifier проверка статуса платежа
type PaymentVerifier interface {
	Verify(ctx context.Context, paymentID string) (*payment.VerificationResult, error)
}

// PaymentCompleter ручное завершение платежа
type PaymentCompleter interface {
	Complete(ctx context.Context, req payment.CompletionRequest) (*payment.ConfirmationResult, error)
}

// PendingCounter размер реестра ожидающих платежей
type PendingCounter interface {
	Count(ctx context.Context) (int, error)
}

// HealthChecker проверка зависимости
type HealthChecker interface {
	HealthCheck() bool
}

// Config настройки REST API
type Config struct {
	BotUsername    string
	Environment    string
	AdminToken     string
	MetricsEnabled bool
}

// Dependencies зависимости REST API
type Dependencies struct {
	Verifier  PaymentVerifier
	Completer PaymentCompleter
	Pending   PendingCounter
	Health    map[string]HealthChecker // опционально: "database", "redis"
}

// Handler REST API платежей
type Handler struct {
	config    Config
	verifier  PaymentVerifier
	completer PaymentCompleter
	pending   PendingCounter
	health    map[string]HealthChecker
	validator *requestValidator
	now       func() time.Time
}

// NewHandler создает обработчики REST API
func NewHandler(cfg Config, deps Dependencies) *Handler {
	return &Handler{
		config:    cfg,
		verifier:  deps.Verifier,
		completer: deps.Completer,
		pending:   deps.Pending,
		health:    deps.Health,
		validator: newRequestValidator(),
		now:       time.Now,
	}
}

// RegisterRoutes регистрирует маршруты
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/payment-status/:paymentId", h.PaymentStatus)
	r.POST("/payment/complete", h.CompletePayment)
	r.GET("/subscription-links", h.SubscriptionLinks)
	r.GET("/status", h.Status)
	r.GET("/health", h.Health)
	if h.config.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

type paymentStatusURI struct {
	PaymentID string `uri:"paymentId" json:"paymentId" validate:"required,max=128,printascii"`
}

// PaymentStatus GET /payment-status/:paymentId
func (h *Handler) PaymentStatus(c *gin.Context) {
	req := paymentStatusURI{PaymentID: c.Param("paymentId")}
	if fields := h.validator.Validate(req); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}

	result, err := h.verifier.Verify(c.Request.Context(), req.PaymentID)
	if err != nil {
		logger.Error("❌ Ошибка проверки платежа %s: %v", req.PaymentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification unavailable"})
		return
	}

	c.JSON(http.StatusOK, result)
}

type completeRequest struct {
	PaymentID      string `json:"paymentId" validate:"required,max=128,printascii"`
	TelegramUserID int64  `json:"telegramUserId" validate:"required,gt=0"`
	Success        *bool  `json:"success" validate:"required"`
}

// CompletePayment POST /payment/complete
func (h *Handler) CompletePayment(c *gin.Context) {
	if !h.authorizedAdmin(c) {
		logger.Warn("🚫 /payment/complete без верного токена с %s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if fields := h.validator.Validate(req); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}

	result, err := h.completer.Complete(c.Request.Context(), payment.CompletionRequest{
		PaymentID:      req.PaymentID,
		TelegramUserID: req.TelegramUserID,
		Success:        *req.Success,
	})
	if err != nil {
		h.writeCompletionError(c, req.PaymentID, err)
		return
	}

	resp := gin.H{
		"ok":        true,
		"paymentId": result.PaymentID,
		"outcome":   result.Outcome,
	}
	if result.Subscription != nil {
		resp["subscription"] = result.Subscription
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) writeCompletionError(c *gin.Context, paymentID string, err error) {
	var verr *payment.ValidationError
	switch {
	case errors.Is(err, payment.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found", "paymentId": paymentID})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "paymentId": paymentID})
	case payment.IsRetryable(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "activation failed", "paymentId": paymentID, "retryable": true})
	default:
		logger.Error("❌ Ошибка ручного завершения платежа %s: %v", paymentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "paymentId": paymentID})
	}
}

// authorizedAdmin без токена эндпоинт открыт только вне production
func (h *Handler) authorizedAdmin(c *gin.Context) bool {
	if h.config.AdminToken == "" {
		return h.config.Environment != envProduction
	}
	provided := c.GetHeader(HeaderAdminToken)
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.config.AdminToken)) == 1
}

type subscriptionLinksQuery struct {
	UserID   string `form:"userId" validate:"omitempty,numeric,max=20"`
	Username string `form:"username" validate:"omitempty,max=64"`
}

// SubscriptionLinks GET /subscription-links?userId=&username=
func (h *Handler) SubscriptionLinks(c *gin.Context) {
	var q subscriptionLinksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed query"})
		return
	}
	if fields := h.validator.Validate(q); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}

	links := make(map[string]string)
	plans := make([]gin.H, 0, 4)
	for _, p := range plan.All() {
		links[p.Code] = h.deepLink(p.Code, q)
		plans = append(plans, gin.H{
			"code":  p.Code,
			"title": p.Title,
			"stars": p.Stars,
			"days":  p.DurationDays,
			"link":  links[p.Code],
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"botUsername": h.config.BotUsername,
		"links":       links,
		"plans":       plans,
	})
}

func (h *Handler) deepLink(planCode string, q subscriptionLinksQuery) string {
	params := url.Values{}
	params.Set("start", planCode)
	if q.UserID != "" {
		params.Set("userId", q.UserID)
	}
	if q.Username != "" {
		params.Set("username", q.Username)
	}
	return fmt.Sprintf("https://t.me/%s?%s", h.config.BotUsername, params.Encode())
}

// Status GET /status
func (h *Handler) Status(c *gin.Context) {
	pending := -1
	if h.pending != nil {
		if n, err := h.pending.Count(c.Request.Context()); err != nil {
			logger.Warn("⚠️ Не удалось получить размер реестра: %v", err)
		} else {
			pending = n
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"online":          true,
		"botUsername":     h.config.BotUsername,
		"pendingPayments": pending,
		"environment":     h.config.Environment,
		"time":            h.now().UTC().Format(time.RFC3339),
	})
}

// Health GET /health
func (h *Handler) Health(c *gin.Context) {
	status := http.StatusOK
	checks := make(map[string]string, len(h.health))
	for name, checker := range h.health {
		if checker == nil {
			continue
		}
		if checker.HealthCheck() {
			checks[name] = "ok"
		} else {
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status": overall,
		"checks": checks,
		"time":   h.now().UTC().Format(time.RFC3339),
	})
}

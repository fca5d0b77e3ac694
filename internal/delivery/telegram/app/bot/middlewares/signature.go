// internal/delivery/telegram/app/bot/middlewares/signature.go
package middlewares

import (
	"errors"
	"io"
	"net/http"

	"stars-subscription-bot/internal/core/domain/payment"
	"stars-subscription-bot/internal/infrastructure/metrics"
	"stars-subscription-bot/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RawBodyKey ключ контекста gin с проверенным телом запроса
const RawBodyKey = "webhook_raw_body"

// SignatureVerifier проверка подписи тела запроса
type SignatureVerifier interface {
	Verify(body []byte, signature, timestamp string) error
}

// BodyLimit ограничивает размер тела запроса
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// Signature пропускает только подписанные свежие запросы. Тело сохраняется в контексте по RawBodyKey.
func Signature(verifier SignatureVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				metrics.Get().WebhookRejected.WithLabelValues("body_too_large").Inc()
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"ok": false, "error": "request body too large"})
				return
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": "bad request"})
			return
		}

		err = verifier.Verify(body, c.GetHeader(payment.HeaderSignature), c.GetHeader(payment.HeaderTimestamp))
		if err != nil {
			reason := "unknown"
			var authErr *payment.AuthenticationError
			if errors.As(err, &authErr) {
				reason = authErr.Reason
			}
			metrics.Get().WebhookRejected.WithLabelValues(reason).Inc()
			logger.Warn("🚫 Вебхук отклонен: ip=%s, причина=%s", c.ClientIP(), reason)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "forbidden"})
			return
		}

		metrics.Get().WebhookAdmitted.Inc()
		c.Set(RawBodyKey, body)
		c.Next()
	}
}

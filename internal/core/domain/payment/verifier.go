// internal/core/domain/payment/verifier.go
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Заголовки подписи вебхука
const (
	HeaderSignature = "X-Signature"
	HeaderTimestamp = "X-Timestamp"
)

// DefaultReplayWindow окно допустимого возраста запроса
const DefaultReplayWindow = 300 * time.Second

// Verifier проверяет подпись и свежесть входящего вебхука.
// Подпись: hex(HMAC-SHA256(secret, body + "." + timestamp)), timestamp в unix-секундах.
type Verifier struct {
	secret []byte
	window time.Duration
	bypass bool
	now    func() time.Time
}

// NewVerifier создает проверку подписи
func NewVerifier(secret string, window time.Duration, bypass bool) *Verifier {
	if window <= 0 {
		window = DefaultReplayWindow
	}
	return &Verifier{
		secret: []byte(secret),
		window: window,
		bypass: bypass,
		now:    time.Now,
	}
}

// SetClock подменяет источник времени
func (v *Verifier) SetClock(now func() time.Time) {
	v.now = now
}

// Bypassed отключена ли проверка
func (v *Verifier) Bypassed() bool {
	return v.bypass
}

// Sign вычисляет подпись тела для заданной метки времени
func (v *Verifier) Sign(body []byte, timestamp string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	mac.Write([]byte("."))
	mac.Write([]byte(timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify пропускает запрос или возвращает *AuthenticationError
func (v *Verifier) Verify(body []byte, signature, timestamp string) error {
	if v.bypass {
		return nil
	}

	timestamp = strings.TrimSpace(timestamp)
	if timestamp == "" {
		return &AuthenticationError{Reason: ReasonMissingTimestamp}
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return &AuthenticationError{Reason: ReasonInvalidTimestamp}
	}

	age := v.now().Sub(time.Unix(ts, 0))
	if age > v.window {
		return &AuthenticationError{Reason: ReasonExpired}
	}
	if -age > v.window {
		return &AuthenticationError{Reason: ReasonFutureTimestamp}
	}

	signature = strings.TrimSpace(signature)
	if signature == "" {
		return &AuthenticationError{Reason: ReasonMissingSignature}
	}
	provided, err := hex.DecodeString(strings.ToLower(signature))
	if err != nil {
		return &AuthenticationError{Reason: ReasonMismatch}
	}
	expected, _ := hex.DecodeString(v.Sign(body, timestamp))
	if !hmac.Equal(provided, expected) {
		return &AuthenticationError{Reason: ReasonMismatch}
	}
	return nil
}

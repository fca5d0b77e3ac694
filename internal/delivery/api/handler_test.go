package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"stars-subscription-bot/internal/core/domain/payment"
	"stars-subscription-bot/internal/core/domain/subscription"
	storage "stars-subscription-bot/internal/infrastructure/persistence/in_memory_storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopMessenger struct{}

func (nopMessenger) SendInvoice(context.Context, payment.Invoice) error          { return nil }
func (nopMessenger) SendMessage(context.Context, int64, string) error             { return nil }
func (nopMessenger) AnswerPreCheckout(context.Context, string, bool, string) error { return nil }

type stubChecker bool

func (s stubChecker) HealthCheck() bool { return bool(s) }

type failingCompleter struct{ err error }

func (f failingCompleter) Complete(context.Context, payment.CompletionRequest) (*payment.ConfirmationResult, error) {
	return nil, f.err
}

type apiFixture struct {
	engine   *gin.Engine
	registry *payment.MemoryRegistry
	store    *storage.SubscriptionStore
	issuer   *payment.InvoiceIssuer
	handler  *payment.ConfirmationHandler
}

func newAPIFixture(t *testing.T, cfg Config, production bool) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &apiFixture{
		registry: payment.NewMemoryRegistry(),
		store:    storage.NewSubscriptionStore(),
	}
	service := subscription.NewService(f.store, nil)
	f.issuer = payment.NewInvoiceIssuer(f.registry, nopMessenger{})
	f.handler = payment.NewConfirmationHandler(f.registry, payment.NewKeyedMutex(), service,
		storage.NewReconciliationStore(), nopMessenger{})

	h := NewHandler(cfg, Dependencies{
		Verifier:  payment.NewVerificationService(f.store, "secret", production, 24*time.Hour),
		Completer: f.handler,
		Pending:   f.registry,
		Health:    map[string]HealthChecker{"database": stubChecker(true)},
	})
	f.engine = gin.New()
	h.RegisterRoutes(f.engine)
	return f
}

func (f *apiFixture) do(t *testing.T, method, target string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestPaymentStatus_BeforePaymentInProduction(t *testing.T) {
	f := newAPIFixture(t, Config{Environment: "production"}, true)

	rec := f.do(t, http.MethodGet, "/payment-status/pay_1_abcdef12", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, false, body["verified"])
	assert.Equal(t, "pay_1_abcdef12", body["paymentId"])
	assert.NotEmpty(t, body["securityHash"])
	assert.NotZero(t, body["timestamp"])
}

func TestPaymentStatus_NotFoundOutsideProduction(t *testing.T) {
	f := newAPIFixture(t, Config{Environment: "dev"}, false)

	rec := f.do(t, http.MethodGet, "/payment-status/pay_1_abcdef12", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["verified"])
}

func TestCompletePayment_ActivatesAndVerifies(t *testing.T) {
	f := newAPIFixture(t, Config{Environment: "production", AdminToken: "admin"}, true)

	id, err := f.issuer.IssueInvoice(context.Background(), payment.IssueRequest{ChatID: 42, UserID: 42, Plan: "monthly"})
	require.NoError(t, err)

	body := map[string]interface{}{"paymentId": id, "telegramUserId": 42, "success": true}

	rec := f.do(t, http.MethodPost, "/payment/complete", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/payment/complete", body, map[string]string{HeaderAdminToken: "admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "activated", resp["outcome"])
	assert.NotNil(t, resp["subscription"])

	// повторное подтверждение не создает вторую активацию
	rec = f.do(t, http.MethodPost, "/payment/complete", body, map[string]string{HeaderAdminToken: "admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "duplicate", decode(t, rec)["outcome"])
	assert.Equal(t, 1, f.store.SubscriptionCount())

	rec = f.do(t, http.MethodGet, "/payment-status/"+id, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["verified"])
}

func TestCompletePayment_ProductionWithoutTokenRefused(t *testing.T) {
	f := newAPIFixture(t, Config{Environment: "production"}, true)

	id, err := f.issuer.IssueDirect(context.Background(), payment.IssueRequest{ChatID: 42, UserID: 42, Plan: "premium"}, 1)
	require.NoError(t, err)

	body := map[string]interface{}{"paymentId": id, "telegramUserId": 42, "success": true}
	rec := f.do(t, http.MethodPost, "/payment/complete", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/payment/complete", body, map[string]string{HeaderAdminToken: ""})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, f.store.SubscriptionCount())

	pending, err := f.registry.Get(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, pending.Processed)
}

func TestCompletePayment_UnknownID(t *testing.T) {
	f := newAPIFixture(t, Config{}, false)

	rec := f.do(t, http.MethodPost, "/payment/complete",
		map[string]interface{}{"paymentId": "pay_0_missing0", "telegramUserId": 42, "success": true}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompletePayment_Validation(t *testing.T) {
	f := newAPIFixture(t, Config{}, false)

	rec := f.do(t, http.MethodPost, "/payment/complete",
		map[string]interface{}{"telegramUserId": 42}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode(t, rec)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "paymentId")
	assert.Contains(t, fields, "success")

	req := httptest.NewRequest(http.MethodPost, "/payment/complete", bytes.NewBufferString("{not json"))
	out := httptest.NewRecorder()
	f.engine.ServeHTTP(out, req)
	assert.Equal(t, http.StatusBadRequest, out.Code)
}

func TestCompletePayment_RetryableFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(Config{}, Dependencies{
		Completer: failingCompleter{err: &payment.ActivationFailure{PaymentID: "p1", Err: errors.New("db down")}},
	})
	engine := gin.New()
	h.RegisterRoutes(engine)

	raw, _ := json.Marshal(map[string]interface{}{"paymentId": "p1", "telegramUserId": 42, "success": true})
	req := httptest.NewRequest(http.MethodPost, "/payment/complete", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"retryable":true`)
}

func TestSubscriptionLinks(t *testing.T) {
	f := newAPIFixture(t, Config{BotUsername: "Stars_bot"}, false)

	rec := f.do(t, http.MethodGet, "/subscription-links?userId=42&username=alice", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	links := decode(t, rec)["links"].(map[string]interface{})
	require.Len(t, links, 4)

	u, err := url.Parse(links["weekly"].(string))
	require.NoError(t, err)
	assert.Equal(t, "t.me", u.Host)
	assert.Equal(t, "/Stars_bot", u.Path)
	assert.Equal(t, "weekly", u.Query().Get("start"))
	assert.Equal(t, "42", u.Query().Get("userId"))
	assert.Equal(t, "alice", u.Query().Get("username"))

	rec = f.do(t, http.MethodGet, "/subscription-links?userId=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusAndHealth(t *testing.T) {
	f := newAPIFixture(t, Config{BotUsername: "Stars_bot", Environment: "dev"}, false)

	_, err := f.issuer.IssueInvoice(context.Background(), payment.IssueRequest{ChatID: 1, UserID: 1, Plan: "weekly"})
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/status", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["online"])
	assert.Equal(t, float64(1), body["pendingPayments"])
	assert.Equal(t, "dev", body["environment"])

	rec = f.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	gin.SetMode(gin.TestMode)
	h := NewHandler(Config{}, Dependencies{Health: map[string]HealthChecker{"redis": stubChecker(false)}})
	engine := gin.New()
	h.RegisterRoutes(engine)
	out := httptest.NewRecorder()
	engine.ServeHTTP(out, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, out.Code)
}

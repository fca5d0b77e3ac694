package http_client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"stars-subscription-bot/internal/core/domain/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiCall struct {
	method string
	form   map[string]string
}

type fakeTelegram struct {
	mu    sync.Mutex
	calls []apiCall
	fail  bool
}

func (f *fakeTelegram) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form := map[string]string{}
		for k, v := range r.MultipartForm.Value {
			form[k] = v[0]
		}
		method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

		f.mu.Lock()
		f.calls = append(f.calls, apiCall{method: method, form: form})
		fail := f.fail
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if fail {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
			return
		}
		if method == "answerPreCheckoutQuery" {
			_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
	}
}

func (f *fakeTelegram) last() apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newTestAPI(t *testing.T) (*BotAPI, *fakeTelegram) {
	fake := &fakeTelegram{}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	api, err := NewBotAPI("123:abc", 5*time.Second, srv.URL)
	require.NoError(t, err)
	return api, fake
}

func TestNewBotAPI_RequiresToken(t *testing.T) {
	_, err := NewBotAPI("", time.Second, "")
	require.Error(t, err)
}

func TestBotAPI_SendInvoice(t *testing.T) {
	api, fake := newTestAPI(t)

	err := api.SendInvoice(context.Background(), payment.Invoice{
		ChatID:      42,
		Title:       "Недельная подписка",
		Description: "Доступ на 7 дней",
		Payload:     "pay_1_deadbeef",
		Label:       "Недельная подписка",
		Amount:      750,
	})
	require.NoError(t, err)

	call := fake.last()
	assert.Equal(t, "sendInvoice", call.method)
	assert.Equal(t, "XTR", call.form["currency"])
	assert.Equal(t, "pay_1_deadbeef", call.form["payload"])
	assert.Equal(t, "42", call.form["chat_id"])
	assert.Contains(t, call.form["prices"], "750")
}

func TestBotAPI_SendInvoiceRejectsIncomplete(t *testing.T) {
	api, fake := newTestAPI(t)

	err := api.SendInvoice(context.Background(), payment.Invoice{ChatID: 42, Amount: 750})
	require.Error(t, err)
	assert.Empty(t, fake.calls)
}

func TestBotAPI_SendMessageError(t *testing.T) {
	api, fake := newTestAPI(t)
	fake.fail = true

	err := api.SendMessage(context.Background(), 42, "привет")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "42")
}

func TestBotAPI_AnswerPreCheckout(t *testing.T) {
	api, fake := newTestAPI(t)

	require.NoError(t, api.AnswerPreCheckout(context.Background(), "q1", false, "Платеж не найден"))

	call := fake.last()
	assert.Equal(t, "answerPreCheckoutQuery", call.method)
	assert.Equal(t, "q1", call.form["pre_checkout_query_id"])
	assert.Equal(t, "Платеж не найден", call.form["error_message"])
}

func TestLoggingMessenger(t *testing.T) {
	var m payment.Messenger = NewLoggingMessenger()
	assert.NoError(t, m.SendMessage(context.Background(), 1, "x"))
	assert.NoError(t, m.SendInvoice(context.Background(), payment.Invoice{}))
	assert.NoError(t, m.AnswerPreCheckout(context.Background(), "q", true, ""))
}

package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"stars-subscription-bot/internal/core/domain/payment"
	"stars-subscription-bot/internal/core/domain/subscription"
	storage "stars-subscription-bot/internal/infrastructure/persistence/in_memory_storage"

	"github.com/stretchr/testify/require"
)

type recordingMessenger struct {
	mu       sync.Mutex
	invoices []payment.Invoice
	messages map[int64][]string
	answers  map[string]bool
}

func newRecordingMessenger() *recordingMessenger {
	return &recordingMessenger{
		messages: make(map[int64][]string),
		answers:  make(map[string]bool),
	}
}

func (m *recordingMessenger) SendInvoice(_ context.Context, inv payment.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices = append(m.invoices, inv)
	return nil
}

func (m *recordingMessenger) SendMessage(_ context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[chatID] = append(m.messages[chatID], text)
	return nil
}

func (m *recordingMessenger) AnswerPreCheckout(_ context.Context, queryID string, ok bool, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers[queryID] = ok
	return nil
}

func (m *recordingMessenger) lastInvoice(t *testing.T) payment.Invoice {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.invoices)
	return m.invoices[len(m.invoices)-1]
}

func (m *recordingMessenger) textsTo(chatID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages[chatID]...)
}

func (m *recordingMessenger) anyTextContains(chatID int64, substr string) bool {
	for _, text := range m.textsTo(chatID) {
		if strings.Contains(text, substr) {
			return true
		}
	}
	return false
}

type botFixture struct {
	bot       *TelegramBot
	messenger *recordingMessenger
	registry  *payment.MemoryRegistry
	store     *storage.SubscriptionStore
	recon     *storage.ReconciliationStore
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()

	f := &botFixture{
		messenger: newRecordingMessenger(),
		registry:  payment.NewMemoryRegistry(),
		store:     storage.NewSubscriptionStore(),
		recon:     storage.NewReconciliationStore(),
	}
	service := subscription.NewService(f.store, nil)

	b, err := NewTelegramBot(Dependencies{
		Messenger:     f.messenger,
		Issuer:        payment.NewInvoiceIssuer(f.registry, f.messenger),
		Subscriptions: service,
		Checkout:      payment.NewCheckoutAuthorizer(f.registry, f.messenger, false, time.Second),
		Confirmation: payment.NewConfirmationHandler(
			f.registry, payment.NewKeyedMutex(), service, f.recon, f.messenger),
	})
	require.NoError(t, err)
	f.bot = b
	return f
}

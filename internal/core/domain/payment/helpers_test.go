package payment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"stars-subscription-bot/internal/core/domain/subscription"
	storage "stars-subscription-bot/internal/infrastructure/persistence/in_memory_storage"
)

type sentMessage struct {
	ChatID int64
	Text   string
}

type checkoutAnswer struct {
	QueryID string
	OK      bool
	Message string
}

type fakeMessenger struct {
	mu         sync.Mutex
	invoices   []Invoice
	messages   []sentMessage
	answers    []checkoutAnswer
	invoiceErr error
	messageErr error
}

func (m *fakeMessenger) SendInvoice(_ context.Context, inv Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.invoiceErr != nil {
		return m.invoiceErr
	}
	m.invoices = append(m.invoices, inv)
	return nil
}

func (m *fakeMessenger) SendMessage(_ context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.messageErr != nil {
		return m.messageErr
	}
	m.messages = append(m.messages, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (m *fakeMessenger) AnswerPreCheckout(_ context.Context, queryID string, ok bool, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, checkoutAnswer{QueryID: queryID, OK: ok, Message: msg})
	return nil
}

func (m *fakeMessenger) sent() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.messages...)
}

type fixture struct {
	registry  *MemoryRegistry
	store     *storage.SubscriptionStore
	recon     *storage.ReconciliationStore
	messenger *fakeMessenger
	service   *subscription.Service
	issuer    *InvoiceIssuer
	handler   *ConfirmationHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		registry:  NewMemoryRegistry(),
		store:     storage.NewSubscriptionStore(),
		recon:     storage.NewReconciliationStore(),
		messenger: &fakeMessenger{},
	}
	f.service = subscription.NewService(f.store, nil)
	f.issuer = NewInvoiceIssuer(f.registry, f.messenger)
	f.handler = NewConfirmationHandler(f.registry, NewKeyedMutex(), f.service, f.recon, f.messenger)
	return f
}

var errTransport = errors.New("telegram: Bad Request: currency XTR is not supported")

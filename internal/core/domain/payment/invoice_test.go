package payment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceIssuer_IssueInvoice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	f.issuer.SetClock(func() time.Time { return now })

	id, err := f.issuer.IssueInvoice(ctx, IssueRequest{ChatID: 42, UserID: 42, Plan: "weekly"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "pay_1715342400000_"), id)

	pending, err := f.registry.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.False(t, pending.Processed)
	assert.Equal(t, 750, pending.StarsAmount)
	assert.Equal(t, "weekly", pending.Plan)
	assert.Equal(t, now, pending.CreatedAt)

	require.Len(t, f.messenger.invoices, 1)
	inv := f.messenger.invoices[0]
	assert.Equal(t, id, inv.Payload)
	assert.Equal(t, 750, inv.Amount)
	assert.Equal(t, int64(42), inv.ChatID)

	// подсказка после счета
	require.Len(t, f.messenger.sent(), 1)
}

func TestInvoiceIssuer_PlanPrices(t *testing.T) {
	ctx := context.Background()
	for code, stars := range map[string]int{"weekly": 750, "monthly": 2300, "annual": 10000, "premium": 18500} {
		f := newFixture(t)
		_, err := f.issuer.IssueInvoice(ctx, IssueRequest{ChatID: 1, UserID: 1, Plan: code})
		require.NoError(t, err)
		require.Len(t, f.messenger.invoices, 1)
		assert.Equal(t, stars, f.messenger.invoices[0].Amount, code)
	}
}

func TestInvoiceIssuer_FallbackCarriesSameID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.messenger.invoiceErr = errTransport

	id, err := f.issuer.IssueInvoice(ctx, IssueRequest{ChatID: 7, UserID: 7, Plan: "monthly"})
	require.NoError(t, err)

	msgs := f.messenger.sent()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, id)
	assert.Contains(t, msgs[0].Text, "2300")

	pending, _ := f.registry.Get(ctx, id)
	require.NotNil(t, pending)
	assert.False(t, pending.Direct)
}

func TestInvoiceIssuer_FallbackNotRetried(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.messenger.invoiceErr = errTransport
	f.messenger.messageErr = errors.New("network down")

	id, err := f.issuer.IssueInvoice(ctx, IssueRequest{ChatID: 7, UserID: 7, Plan: "annual"})
	require.Error(t, err)
	assert.NotEmpty(t, id)
	assert.Empty(t, f.messenger.sent())

	count, _ := f.registry.Count(ctx)
	assert.Equal(t, 1, count)
}

func TestInvoiceIssuer_UnknownPlan(t *testing.T) {
	f := newFixture(t)

	_, err := f.issuer.IssueInvoice(context.Background(), IssueRequest{ChatID: 1, UserID: 1, Plan: "lifetime"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "plan", vErr.Field)

	count, _ := f.registry.Count(context.Background())
	assert.Zero(t, count)
	assert.Empty(t, f.messenger.invoices)
}

func TestInvoiceIssuer_IssueDirect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.issuer.IssueDirect(ctx, IssueRequest{ChatID: 5, UserID: 5, Plan: "premium"}, 18500)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "direct_"), id)

	pending, _ := f.registry.Get(ctx, id)
	require.NotNil(t, pending)
	assert.True(t, pending.Direct)
	assert.Empty(t, f.messenger.invoices)
	require.Len(t, f.messenger.sent(), 1)

	_, err = f.issuer.IssueDirect(ctx, IssueRequest{ChatID: 5, UserID: 5, Plan: "premium"}, 0)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

type staticAccounts map[int64]int64

func (s staticAccounts) ResolveAccountID(_ context.Context, telegramID int64) int64 {
	return s[telegramID]
}

func TestInvoiceIssuer_ResolvesAccountID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.issuer.SetAccountResolver(staticAccounts{42: 7})

	id, err := f.issuer.IssueInvoice(ctx, IssueRequest{ChatID: 42, UserID: 42, Plan: "monthly"})
	require.NoError(t, err)
	pending, err := f.registry.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pending.AccountID)

	// явно переданный id не перезаписывается
	id, err = f.issuer.IssueInvoice(ctx, IssueRequest{ChatID: 42, UserID: 42, AccountID: 9, Plan: "monthly"})
	require.NoError(t, err)
	pending, err = f.registry.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(9), pending.AccountID)

	// неизвестный пользователь остается с 0
	id, err = f.issuer.IssueInvoice(ctx, IssueRequest{ChatID: 43, UserID: 43, Plan: "monthly"})
	require.NoError(t, err)
	pending, err = f.registry.Get(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, pending.AccountID)
}

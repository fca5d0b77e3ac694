package storage_factory

import (
	"context"
	"testing"
	"time"

	"stars-subscription-bot/internal/core/domain/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageFactory_ReturnsSameInstances(t *testing.T) {
	f := NewStorageFactory()

	assert.Same(t, f.CreateSubscriptionStore(), f.CreateSubscriptionStore())
	assert.Same(t, f.CreateReconciliationStore(), f.CreateReconciliationStore())
	assert.Same(t, f.CreatePendingRegistry(), f.CreatePendingRegistry())
	assert.Same(t, f.CreateLocker(), f.CreateLocker())
}

func TestStorageFactory_RegistryIsShared(t *testing.T) {
	ctx := context.Background()
	f := NewStorageFactory()

	require.NoError(t, f.CreatePendingRegistry().Put(ctx, &payment.PendingPayment{
		ID:          "pay_1_abc",
		UserID:      42,
		Plan:        "weekly",
		StarsAmount: 750,
		CreatedAt:   time.Now(),
	}))

	got, err := f.CreatePendingRegistry().Get(ctx, "pay_1_abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 750, got.StarsAmount)
}

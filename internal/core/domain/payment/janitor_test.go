package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJanitor_RunOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	r := NewMemoryRegistry()
	require.NoError(t, r.Put(ctx, &PendingPayment{ID: "old", CreatedAt: now.Add(-25 * time.Hour), Processed: true}))
	require.NoError(t, r.Put(ctx, &PendingPayment{ID: "new", CreatedAt: now.Add(-time.Hour)}))

	j := NewJanitor(r, 0, 0, 0)
	j.SetClock(func() time.Time { return now })

	removed, err := j.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	count, _ := r.Count(ctx)
	assert.Equal(t, 1, count)
}

func TestJanitor_StartStop(t *testing.T) {
	j := NewJanitor(NewMemoryRegistry(), time.Hour, 24*time.Hour, 72*time.Hour)

	require.NoError(t, j.Start())
	assert.Error(t, j.Start())
	j.Stop()
	j.Stop()
	require.NoError(t, j.Start())
	j.Stop()
}

package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stars-subscription-bot/internal/core/domain/payment"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestPendingRegistry_PutGet(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	r := NewPendingRegistry(client, "test:", 73*time.Hour)

	created := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	p := &payment.PendingPayment{ID: "p1", UserID: 42, ChatID: 42, Plan: "weekly", StarsAmount: 750, CreatedAt: created}
	require.NoError(t, r.Put(ctx, p))

	assert.True(t, mr.Exists("test:payment:pending:p1"))
	assert.Equal(t, 73*time.Hour, mr.TTL("test:payment:pending:p1"))

	got, err := r.Get(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, 750, got.StarsAmount)
	assert.True(t, created.Equal(got.CreatedAt))

	err = r.Put(ctx, &payment.PendingPayment{ID: "p1", UserID: 1, CreatedAt: created})
	assert.ErrorIs(t, err, payment.ErrDuplicatePaymentID)
	got, _ = r.Get(ctx, "p1")
	assert.Equal(t, int64(42), got.UserID)

	missing, err := r.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	count, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPendingRegistry_MarkProcessed(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	r := NewPendingRegistry(client, "test:", time.Hour)
	require.NoError(t, r.Put(ctx, &payment.PendingPayment{ID: "p1", CreatedAt: time.Now()}))

	ok, err := r.MarkProcessed(ctx, "p1", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.MarkProcessed(ctx, "p1", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.MarkProcessed(ctx, "missing", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	got, _ := r.Get(ctx, "p1")
	assert.True(t, got.Processed)
	assert.True(t, mr.TTL("test:payment:pending:p1") > 0)
}

func TestPendingRegistry_Sweep(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)
	r := NewPendingRegistry(client, "test:", 100*time.Hour)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	for _, p := range []*payment.PendingPayment{
		{ID: "processed-old", CreatedAt: now.Add(-25 * time.Hour), Processed: true},
		{ID: "processed-fresh", CreatedAt: now.Add(-2 * time.Hour), Processed: true},
		{ID: "unprocessed-fresh", CreatedAt: now.Add(-71 * time.Hour)},
		{ID: "unprocessed-old", CreatedAt: now.Add(-73 * time.Hour)},
	} {
		require.NoError(t, r.Put(ctx, p))
	}

	removed, err := r.Sweep(ctx, now, 24*time.Hour, 72*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	for id, present := range map[string]bool{
		"processed-old":     false,
		"processed-fresh":   true,
		"unprocessed-fresh": true,
		"unprocessed-old":   false,
	} {
		got, err := r.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, present, got != nil, id)
	}

	count, _ := r.Count(ctx)
	assert.Equal(t, 2, count)
}

func TestLocker_MutualExclusion(t *testing.T) {
	client, _ := newTestClient(t)
	l := NewLocker(client, "test:", 5*time.Second)
	ctx := context.Background()

	var inside, violations int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "p1")
			if !assert.NoError(t, err) {
				return
			}
			if atomic.AddInt32(&inside, 1) > 1 {
				atomic.AddInt32(&violations, 1)
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Zero(t, violations)
}

func TestLocker_TimeoutAndRelease(t *testing.T) {
	client, mr := newTestClient(t)
	l := NewLocker(client, "test:", 5*time.Second)

	unlock, err := l.Lock(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:payment:p1"))

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "p1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.False(t, mr.Exists("test:lock:payment:p1"))
}

func TestCache_UserRoundTripAndMiss(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)
	c := NewCacheWithClient(client, "test:")

	type user struct {
		ID    int64  `json:"id"`
		Level string `json:"level"`
	}
	require.NoError(t, c.SetUserByTelegramID(ctx, user{ID: 7, Level: "pro"}, 42, time.Minute))

	var got user
	require.NoError(t, c.GetUserByTelegramID(ctx, 42, &got))
	assert.Equal(t, "pro", got.Level)

	require.NoError(t, c.DeleteUserByTelegramID(ctx, 42))
	assert.ErrorIs(t, c.GetUserByTelegramID(ctx, 42, &got), ErrCacheMiss)
}

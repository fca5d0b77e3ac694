package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"stars-subscription-bot/internal/infrastructure/metrics"
	"stars-subscription-bot/internal/infrastructure/persistence/postgres/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	records []*models.PaymentReconciliation
	err     error
	limit   int
}

func (f *fakeLister) ListOpen(_ context.Context, limit int) ([]*models.PaymentReconciliation, error) {
	f.limit = limit
	return f.records, f.err
}

type fakeCounter struct {
	n   int
	err error
}

func (f fakeCounter) CountActive(context.Context) (int, error)   { return f.n, f.err }
func (f fakeCounter) GetTotalCount(context.Context) (int, error) { return f.n, f.err }

func TestScheduler_RegisterRejectsBadSpec(t *testing.T) {
	s := New()
	err := s.Register(&Job{Name: "bad", Spec: "not a spec", Handler: func(context.Context) error { return nil }})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")

	require.Error(t, s.Register(&Job{Name: "no-handler", Spec: "@every 1h"}))
	assert.Empty(t, s.Jobs())
}

func TestScheduler_RunNowTracksStatus(t *testing.T) {
	s := New()
	calls := 0
	require.NoError(t, s.Register(&Job{
		Name: "counter",
		Spec: "@every 1h",
		Handler: func(context.Context) error {
			calls++
			if calls == 2 {
				return errors.New("second run fails")
			}
			return nil
		},
	}))

	require.NoError(t, s.RunNow("counter"))
	require.Error(t, s.RunNow("counter"))
	require.Error(t, s.RunNow("missing"))

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, 2, jobs[0].Runs)
	assert.Error(t, jobs[0].LastErr)
	assert.False(t, jobs[0].LastRun.IsZero())
}

func TestScheduler_StartStop(t *testing.T) {
	s := New()
	require.NoError(t, s.Register(&Job{Name: "noop", Spec: "@every 1h", Handler: func(context.Context) error { return nil }}))
	s.Start()

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.True(t, jobs[0].NextRun.After(time.Now()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))
}

func TestReconciliationDigest(t *testing.T) {
	lister := &fakeLister{records: []*models.PaymentReconciliation{
		{PaymentID: "pay_1_a", TelegramUserID: 42, StarsAmount: 750, Currency: "XTR", Status: models.ReconciliationUnmatched},
	}}
	job := ReconciliationDigest(lister, "")
	assert.Equal(t, JobReconciliationDigest, job.Name)
	assert.Equal(t, "0 9 * * *", job.Spec)

	require.NoError(t, job.Handler(context.Background()))
	assert.Equal(t, digestLimit, lister.limit)

	lister.records = nil
	require.NoError(t, job.Handler(context.Background()))

	lister.err = errors.New("db down")
	require.Error(t, job.Handler(context.Background()))
}

func TestSubscriptionStats(t *testing.T) {
	job := SubscriptionStats(fakeCounter{n: 3}, fakeCounter{n: 10}, "")
	assert.Equal(t, JobSubscriptionStats, job.Name)
	assert.Equal(t, "@every 15m", job.Spec)

	require.NoError(t, job.Handler(context.Background()))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Get().ActiveSubscriptions))
	assert.Equal(t, 10.0, testutil.ToFloat64(metrics.Get().RegisteredUsers))

	require.NoError(t, SubscriptionStats(fakeCounter{n: 4}, nil, "@every 1h").Handler(context.Background()))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.Get().ActiveSubscriptions))

	err := SubscriptionStats(fakeCounter{n: 1}, fakeCounter{err: errors.New("db down")}, "").Handler(context.Background())
	require.Error(t, err)

	err = SubscriptionStats(fakeCounter{err: errors.New("db down")}, nil, "").Handler(context.Background())
	require.Error(t, err)
}

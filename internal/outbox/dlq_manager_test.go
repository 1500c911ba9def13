package outbox

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDLQReplayAfterBackoff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.award(t, "first_steps", 10)

	failing := &stubProducer{err: errors.New("upstream kafka unavailable")}
	dispatcher := NewDispatcher(f.queue, failing, time.Second, 10, WithLogger(log.New(testWriter{t}, "", 0)))
	require.NoError(t, dispatcher.processBatch(ctx))

	manager := NewDLQManager(f.queue, 3, time.Minute)

	// The first pass only schedules the retry.
	processed, err := manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, processed)
	dlq, err := f.queue.DLQ(ctx)
	require.NoError(t, err)
	require.Equal(t, f.now.Add(time.Minute), dlq[0].NextRetryAt)
	require.InDelta(t, 1, testutil.ToFloat64(dlqBacklogGauge), 0.0001)

	f.now = f.now.Add(30 * time.Second)
	processed, err = manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, processed)

	beforeRequeued := testutil.ToFloat64(dlqRequeuedCounter.WithLabelValues("fittrack.achievements", "achievement.awarded"))
	f.now = f.now.Add(30 * time.Second)
	processed, err = manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, processed)
	require.InDelta(t, beforeRequeued+1, testutil.ToFloat64(dlqRequeuedCounter.WithLabelValues("fittrack.achievements", "achievement.awarded")), 0.0001)

	dlq, err = f.queue.DLQ(ctx)
	require.NoError(t, err)
	require.Empty(t, dlq)
	pending, err := f.queue.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, 1, pending[0].Attempts)

	producer := &stubProducer{}
	dispatcher = NewDispatcher(f.queue, producer, time.Second, 10)
	require.NoError(t, dispatcher.processBatch(ctx))
	require.Len(t, producer.writes, 1)
	require.Equal(t, "first_steps", string(producer.writes[0].messages[0].Key))
}

func TestDLQQuarantinesAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.award(t, "first_steps", 10)

	failing := &stubProducer{err: errors.New("broker down")}
	dispatcher := NewDispatcher(f.queue, failing, time.Second, 10, WithLogger(log.New(testWriter{t}, "", 0)))
	manager := NewDLQManager(f.queue, 2, time.Second)

	// Two delivery failures each followed by a scheduled and then a due replay.
	for attempt := 0; attempt < 2; attempt++ {
		require.NoError(t, dispatcher.processBatch(ctx))
		_, err := manager.RunOnce(ctx, 10)
		require.NoError(t, err)
		f.now = f.now.Add(time.Hour)
		processed, err := manager.RunOnce(ctx, 10)
		require.NoError(t, err)
		require.Equal(t, 1, processed)
	}

	require.NoError(t, dispatcher.processBatch(ctx))
	dlq, err := f.queue.DLQ(ctx)
	require.NoError(t, err)
	require.Len(t, dlq, 1)
	require.Equal(t, 2, dlq[0].RetryCount)

	before := testutil.ToFloat64(dlqQuarantinedCounter.WithLabelValues("fittrack.achievements", "achievement.awarded"))
	processed, err := manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, processed)
	require.InDelta(t, before+1, testutil.ToFloat64(dlqQuarantinedCounter.WithLabelValues("fittrack.achievements", "achievement.awarded")), 0.0001)

	dlq, err = f.queue.DLQ(ctx)
	require.NoError(t, err)
	require.True(t, dlq[0].Quarantined())
	require.Equal(t, "retry limit reached", dlq[0].QuarantineReason)

	// Quarantined entries are left alone.
	processed, err = manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, processed)
	require.InDelta(t, 0, testutil.ToFloat64(dlqBacklogGauge), 0.0001)
}

func TestBackoffDelayIsCapped(t *testing.T) {
	m := NewDLQManager(nil, 5, time.Minute)
	require.Equal(t, time.Minute, m.backoffDelay(1))
	require.Equal(t, 4*time.Minute, m.backoffDelay(3))
	require.Equal(t, time.Hour, m.backoffDelay(10))
}

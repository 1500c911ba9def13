package outbox

import (
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
	"example.com/fittrack/internal/persistence/memory"
)

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

type stubProducer struct {
	mu     sync.Mutex
	err    error
	delay  time.Duration
	writes []writtenBatch
}

type writtenBatch struct {
	topic    string
	messages []kafka.Message
}

func (s *stubProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return s.err
	}
	copied := make([]kafka.Message, len(msgs))
	copy(copied, msgs)
	s.writes = append(s.writes, writtenBatch{topic: topic, messages: copied})
	return nil
}

type fixture struct {
	now      time.Time
	queue    *Queue
	recorder *Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2025, time.April, 9, 12, 0, 0, 0, time.UTC)}
	f.queue = NewQueue(memory.New(), func() time.Time { return f.now })
	f.recorder = NewRecorder(f.queue, "fittrack", WithRecorderLogger(log.New(testWriter{t}, "", 0)))
	return f
}

func (f *fixture) award(t *testing.T, id string, total int) {
	t.Helper()
	f.recorder.Handle(context.Background(), events.AchievementAwarded{
		Achievement: domain.AwardedAchievement{ID: id, Category: domain.AchievementSteps, Points: 10, Timestamp: f.now},
		TotalPoints: total,
	})
}

func TestRecorderRegistersOnBus(t *testing.T) {
	f := newFixture(t)
	bus := events.NewBus(events.WithLogger(log.New(testWriter{t}, "", 0)))
	f.recorder.Register(bus)

	bus.Publish(context.Background(), events.LevelUp{Level: 2, TotalPoints: 100, OccurredAt: f.now})
	bus.Publish(context.Background(), events.StepCountChanged{Date: "2025-04-09", Total: 10})

	pending, err := f.queue.Pending(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "level.up", pending[0].EventType)
	require.Equal(t, "fittrack.levels", pending[0].Topic)
	require.Equal(t, "2", pending[0].PartitionKey)
	require.JSONEq(t, `{"level":2,"total_points":100,"occurred_at":"2025-04-09T12:00:00Z"}`, string(pending[0].Payload))
}

func TestDispatcherPublishesMessages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.award(t, "first_steps", 10)
	f.award(t, "thousand_steps", 30)
	f.recorder.Handle(ctx, events.StreakUpdated{Current: 3, Longest: 3, Date: "2025-04-09"})

	producer := &stubProducer{}
	dispatcher := NewDispatcher(f.queue, producer, 10*time.Millisecond, 5, WithLogger(log.New(testWriter{t}, "", 0)))

	beforeDelivered := testutil.ToFloat64(deliveredCounter)
	beforeHistogram := histogramSampleCount(t)

	require.NoError(t, dispatcher.processBatch(ctx))

	require.Len(t, producer.writes, 2)
	require.Equal(t, "fittrack.achievements", producer.writes[0].topic)
	require.Len(t, producer.writes[0].messages, 2)
	first := producer.writes[0].messages[0]
	require.Equal(t, "first_steps", string(first.Key))
	require.Equal(t, kafka.Header{Key: "event_type", Value: []byte("achievement.awarded")}, first.Headers[0])
	require.Equal(t, "fittrack.streaks", producer.writes[1].topic)

	require.InDelta(t, beforeDelivered+3, testutil.ToFloat64(deliveredCounter), 0.0001)
	require.Greater(t, histogramSampleCount(t), beforeHistogram)

	pending, err := f.queue.Pending(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestDispatcherHonoursBatchSize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.award(t, "first_steps", 10)
	}

	producer := &stubProducer{}
	dispatcher := NewDispatcher(f.queue, producer, time.Second, 2)
	require.NoError(t, dispatcher.processBatch(ctx))
	require.Len(t, producer.writes[0].messages, 2)

	pending, err := f.queue.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestDispatcherObservesBatchDuration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.award(t, "first_steps", 10)

	before := histogramSampleSum(t)
	producer := &stubProducer{delay: 20 * time.Millisecond}
	dispatcher := NewDispatcher(f.queue, producer, time.Second, 5)
	require.NoError(t, dispatcher.processBatch(ctx))

	require.GreaterOrEqual(t, histogramSampleSum(t)-before, 0.02)
}

func TestDispatcherRoutesMessagesToDLQOnFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.award(t, "first_steps", 10)

	producer := &stubProducer{err: errors.New("kafka write failed")}
	dispatcher := NewDispatcher(f.queue, producer, 10*time.Millisecond, 5, WithLogger(log.New(testWriter{t}, "", 0)))

	beforeFailed := testutil.ToFloat64(failedCounter)
	beforeDLQ := testutil.ToFloat64(dlqCounter.WithLabelValues("fittrack.achievements"))

	require.NoError(t, dispatcher.processBatch(ctx))

	require.InDelta(t, beforeFailed+1, testutil.ToFloat64(failedCounter), 0.0001)
	require.InDelta(t, beforeDLQ+1, testutil.ToFloat64(dlqCounter.WithLabelValues("fittrack.achievements")), 0.0001)

	dlq, err := f.queue.DLQ(ctx)
	require.NoError(t, err)
	require.Len(t, dlq, 1)
	require.Equal(t, "kafka write failed", dlq[0].Reason)
	require.Equal(t, 0, dlq[0].RetryCount)
	require.Equal(t, f.now, dlq[0].FailedAt)

	pending, err := f.queue.Pending(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestDispatcherMissingTopicMovesEventsToDLQ(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.queue.Enqueue(ctx, Message{EventID: "e-1", EventType: "activity.unknown", Payload: []byte(`{}`)}))

	producer := &stubProducer{}
	dispatcher := NewDispatcher(f.queue, producer, 10*time.Millisecond, 5, WithLogger(log.New(testWriter{t}, "", 0)))
	require.NoError(t, dispatcher.processBatch(ctx))

	require.Empty(t, producer.writes, "missing topic should skip kafka writes")
	dlq, err := f.queue.DLQ(ctx)
	require.NoError(t, err)
	require.Len(t, dlq, 1)
	require.Contains(t, dlq[0].Reason, "no topic for event_type=activity.unknown")
}

func histogramSampleCount(t *testing.T) uint64 {
	t.Helper()

	metric := &dto.Metric{}
	require.NoError(t, batchDuration.Write(metric))
	hist := metric.GetHistogram()
	require.NotNil(t, hist)
	return hist.GetSampleCount()
}

func histogramSampleSum(t *testing.T) float64 {
	t.Helper()

	metric := &dto.Metric{}
	require.NoError(t, batchDuration.Write(metric))
	return metric.GetHistogram().GetSampleSum()
}

package outbox

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"example.com/fittrack/internal/persistence"
)

// Message is an event waiting for delivery.
type Message struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	Topic        string          `json:"topic"`
	PartitionKey string          `json:"partition_key"`
	Payload      json.RawMessage `json:"payload"`
	CreatedAt    time.Time       `json:"created_at"`
	Attempts     int             `json:"attempts"`
}

// DLQEntry is a message whose delivery failed.
type DLQEntry struct {
	Message
	Reason           string     `json:"reason"`
	RetryCount       int        `json:"retry_count"`
	FailedAt         time.Time  `json:"failed_at"`
	NextRetryAt      time.Time  `json:"next_retry_at"`
	QuarantinedAt    *time.Time `json:"quarantined_at,omitempty"`
	QuarantineReason string     `json:"quarantine_reason,omitempty"`
}

// Quarantined reports whether the entry is parked for manual inspection.
func (e DLQEntry) Quarantined() bool {
	return e.QuarantinedAt != nil
}

// Queue keeps the pending outbox and the dead-letter queue under two keys of
// the tracker's key-value store.
type Queue struct {
	kv  persistence.Store
	now func() time.Time
	mu  sync.Mutex
}

// NewQueue returns a queue over kv. A nil now uses time.Now.
func NewQueue(kv persistence.Store, now func() time.Time) *Queue {
	if now == nil {
		now = time.Now
	}
	return &Queue{kv: kv, now: now}
}

// Enqueue appends msgs to the pending outbox.
func (q *Queue) Enqueue(ctx context.Context, msgs ...Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enqueueLocked(ctx, msgs)
}

func (q *Queue) enqueueLocked(ctx context.Context, msgs []Message) error {
	pending, err := q.pendingLocked(ctx)
	if err != nil {
		return err
	}
	return persistence.SetJSON(ctx, q.kv, persistence.KeyOutboxPending, append(pending, msgs...))
}

// Pending returns up to limit of the oldest pending messages. A limit of zero
// returns all of them.
func (q *Queue) Pending(ctx context.Context, limit int) ([]Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	pending, err := q.pendingLocked(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (q *Queue) pendingLocked(ctx context.Context) ([]Message, error) {
	pending := make([]Message, 0)
	if _, err := persistence.GetJSON(ctx, q.kv, persistence.KeyOutboxPending, &pending); err != nil {
		return nil, err
	}
	return pending, nil
}

// Ack removes delivered messages from the pending outbox.
func (q *Queue) Ack(ctx context.Context, msgs []Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(ctx, msgs)
}

func (q *Queue) removeLocked(ctx context.Context, msgs []Message) error {
	done := make(map[string]bool, len(msgs))
	for _, m := range msgs {
		done[m.EventID] = true
	}
	pending, err := q.pendingLocked(ctx)
	if err != nil {
		return err
	}
	kept := pending[:0]
	for _, m := range pending {
		if !done[m.EventID] {
			kept = append(kept, m)
		}
	}
	return persistence.SetJSON(ctx, q.kv, persistence.KeyOutboxPending, kept)
}

// Fail moves msgs from the pending outbox into the dead-letter queue with reason.
func (q *Queue) Fail(ctx context.Context, msgs []Message, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	dlq, err := q.dlqLocked(ctx)
	if err != nil {
		return err
	}
	now := q.now()
	for _, m := range msgs {
		dlq = append(dlq, DLQEntry{
			Message:    m,
			Reason:     reason,
			RetryCount: m.Attempts,
			FailedAt:   now,
		})
	}
	if err := persistence.SetJSON(ctx, q.kv, persistence.KeyOutboxDLQ, dlq); err != nil {
		return err
	}
	return q.removeLocked(ctx, msgs)
}

// DLQ returns every dead-letter entry, quarantined ones included.
func (q *Queue) DLQ(ctx context.Context) ([]DLQEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dlqLocked(ctx)
}

func (q *Queue) dlqLocked(ctx context.Context) ([]DLQEntry, error) {
	dlq := make([]DLQEntry, 0)
	if _, err := persistence.GetJSON(ctx, q.kv, persistence.KeyOutboxDLQ, &dlq); err != nil {
		return nil, err
	}
	return dlq, nil
}

// updateDLQ lets fn rewrite the dead-letter queue and re-enqueue messages in
// one critical section.
func (q *Queue) updateDLQ(ctx context.Context, fn func(now time.Time, dlq []DLQEntry) ([]DLQEntry, []Message)) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	dlq, err := q.dlqLocked(ctx)
	if err != nil {
		return err
	}
	next, requeue := fn(q.now(), dlq)
	if len(requeue) > 0 {
		if err := q.enqueueLocked(ctx, requeue); err != nil {
			return err
		}
	}
	return persistence.SetJSON(ctx, q.kv, persistence.KeyOutboxDLQ, next)
}

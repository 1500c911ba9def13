package outbox

import (
	"context"
	"errors"
	"log"
	"time"
)

// DLQManager handles retrying failed outbox messages and quarantining exhausted entries.
type DLQManager struct {
	queue      *Queue
	maxRetries int
	baseDelay  time.Duration
	logger     *log.Logger
}

// NewDLQManager constructs a DLQManager with the provided queue and retry configuration.
func NewDLQManager(queue *Queue, maxRetries int, baseDelay time.Duration) *DLQManager {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	if baseDelay <= 0 {
		baseDelay = time.Minute
	}
	return &DLQManager{
		queue:      queue,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     log.New(log.Writer(), "[dlq] ", log.LstdFlags|log.Lshortfile),
	}
}

// Run calls RunOnce every interval until ctx is cancelled.
func (m *DLQManager) Run(ctx context.Context, interval time.Duration, batchSize int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Printf("DLQ manager started (interval=%s, maxRetries=%d)", interval, m.maxRetries)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			processed, err := m.RunOnce(ctx, batchSize)
			if err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Printf("dlq manager error: %v", err)
			} else if processed > 0 {
				m.logger.Printf("dlq manager processed %d entries", processed)
			}
		}
	}
}

// RunOnce processes up to batchSize due entries and returns how many were
// re-queued or quarantined. Entries fresh from the dispatcher are first given
// a retry time with exponential backoff.
func (m *DLQManager) RunOnce(ctx context.Context, batchSize int) (int, error) {
	processed := 0
	backlog := 0
	var requeued, quarantined, scheduled []DLQEntry

	err := m.queue.updateDLQ(ctx, func(now time.Time, dlq []DLQEntry) ([]DLQEntry, []Message) {
		next := make([]DLQEntry, 0, len(dlq))
		var replay []Message
		for _, entry := range dlq {
			if entry.Quarantined() || (batchSize > 0 && processed >= batchSize) {
				next = append(next, entry)
				continue
			}
			switch {
			case entry.RetryCount >= m.maxRetries:
				at := now
				entry.QuarantinedAt = &at
				entry.QuarantineReason = "retry limit reached"
				quarantined = append(quarantined, entry)
				processed++
			case entry.NextRetryAt.IsZero():
				entry.NextRetryAt = entry.FailedAt.Add(m.backoffDelay(entry.RetryCount + 1))
				scheduled = append(scheduled, entry)
			case !entry.NextRetryAt.After(now):
				msg := entry.Message
				msg.Attempts = entry.RetryCount + 1
				replay = append(replay, msg)
				requeued = append(requeued, entry)
				processed++
				continue
			}
			next = append(next, entry)
		}
		for _, entry := range next {
			if !entry.Quarantined() {
				backlog++
			}
		}
		return next, replay
	})
	if err != nil {
		return 0, err
	}

	for _, entry := range scheduled {
		recordDLQRetry(entry)
	}
	for _, entry := range requeued {
		recordDLQRequeued(entry)
		recordDLQProcessed(entry)
	}
	for _, entry := range quarantined {
		recordDLQQuarantined(entry)
		recordDLQProcessed(entry)
	}
	dlqBacklogGauge.Set(float64(backlog))
	return processed, nil
}

// backoffDelay calculates exponential backoff capped at one hour.
func (m *DLQManager) backoffDelay(attempt int) time.Duration {
	delay := time.Duration(1<<uint(attempt-1)) * m.baseDelay
	if delay > time.Hour || delay <= 0 {
		delay = time.Hour
	}
	return delay
}

// Package streak maintains the consecutive-active-day counter.
package streak

import (
	"context"
	"sync"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
)

// maxLookback bounds the backward scan of LiveStreak.
const maxLookback = 365

// Store is the subset of the activity store the tracker needs.
type Store interface {
	Today() string
	Record(ctx context.Context, date string) (domain.DailyActivityRecord, error)
	Records(ctx context.Context) (map[string]domain.DailyActivityRecord, error)
	StreakState(ctx context.Context) (domain.StreakState, error)
	SaveStreakState(ctx context.Context, state domain.StreakState) error
}

// Tracker evaluates today's activity against the persisted streak state.
type Tracker struct {
	store     Store
	publisher events.Publisher
	mu        sync.Mutex
}

// NewTracker constructs a Tracker. publisher may be nil.
func NewTracker(store Store, publisher events.Publisher) *Tracker {
	return &Tracker{store: store, publisher: publisher}
}

// EvaluateToday advances the streak for today's date.
func (t *Tracker) EvaluateToday(ctx context.Context) (int, error) {
	return t.EvaluateFor(ctx, t.store.Today())
}

// EvaluateFor advances the streak when date is active and returns the current
// length. Repeated calls on the same date are no-ops. An inactive day, or a
// date at or before the last counted one, leaves the state untouched.
func (t *Tracker) EvaluateFor(ctx context.Context, date string) (int, error) {
	t.mu.Lock()
	rec, err := t.store.Record(ctx, date)
	if err != nil {
		t.mu.Unlock()
		return 0, err
	}
	state, err := t.store.StreakState(ctx)
	if err != nil {
		t.mu.Unlock()
		return 0, err
	}
	if !rec.IsActive() || state.LastActiveDate >= date {
		t.mu.Unlock()
		return state.Current, nil
	}

	next := Advance(state, date)
	if err := t.store.SaveStreakState(ctx, next); err != nil {
		t.mu.Unlock()
		return 0, err
	}
	t.mu.Unlock()

	if t.publisher != nil {
		t.publisher.Publish(ctx, events.StreakUpdated{Current: next.Current, Longest: next.Longest, Date: date})
	}
	return next.Current, nil
}

// Advance applies an active day to state.
func Advance(state domain.StreakState, today string) domain.StreakState {
	switch state.LastActiveDate {
	case today:
		return state
	case domain.AddDays(today, -1):
		state.Current++
	default:
		state.Current = 1
	}
	if state.Current > state.Longest {
		state.Longest = state.Current
	}
	state.LastActiveDate = today
	return state
}

// State returns the persisted streak counters.
func (t *Tracker) State(ctx context.Context) (domain.StreakState, error) {
	return t.store.StreakState(ctx)
}

// Reset clears the persisted counters.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.SaveStreakState(ctx, domain.StreakState{})
}

// LiveStreak counts consecutive active days ending today, or ending yesterday
// when today has no activity yet.
func (t *Tracker) LiveStreak(ctx context.Context) (int, error) {
	records, err := t.store.Records(ctx)
	if err != nil {
		return 0, err
	}
	return CountBack(records, t.store.Today(), maxLookback, func(r domain.DailyActivityRecord) bool {
		return r.IsActive()
	}, true), nil
}

// CountBack counts consecutive dates ending at end whose record satisfies ok.
// With graceToday, an unsatisfied end date is skipped rather than ending the run.
func CountBack(records map[string]domain.DailyActivityRecord, end string, limit int, ok func(domain.DailyActivityRecord) bool, graceToday bool) int {
	count := 0
	date := end
	for i := 0; i < limit; i++ {
		rec, found := records[date]
		if !found || !ok(rec) {
			if i == 0 && graceToday {
				date = domain.AddDays(date, -1)
				continue
			}
			break
		}
		count++
		date = domain.AddDays(date, -1)
	}
	return count
}

// Package schedule runs named, cancellable daily tasks against an injectable clock.
package schedule

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// Timer is a pending callback.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so tests can drive the scheduler deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

type zonedClock struct {
	Clock
	loc *time.Location
}

func (c zonedClock) Now() time.Time { return c.Clock.Now().In(c.loc) }

// InLocation returns a clock reporting c's readings in loc, so calendar dates
// and daily tasks follow that zone.
func InLocation(c Clock, loc *time.Location) Clock {
	if loc == nil {
		return c
	}
	return zonedClock{Clock: c, loc: loc}
}

// TimeOfDay is a local wall-clock time.
type TimeOfDay struct {
	Hour, Minute, Second, Nanosecond int
}

// EndOfDay is the last millisecond of a local day.
var EndOfDay = TimeOfDay{Hour: 23, Minute: 59, Second: 59, Nanosecond: 999_000_000}

// ParseTimeOfDay parses "15:04", "15:04:05" or "15:04:05.000".
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05.000", "15:04:05", "15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q", raw)
}

// Next returns the first occurrence strictly after now, in now's location.
func (t TimeOfDay) Next(now time.Time) time.Time {
	y, m, d := now.Date()
	candidate := time.Date(y, m, d, t.Hour, t.Minute, t.Second, t.Nanosecond, now.Location())
	if !candidate.After(now) {
		candidate = time.Date(y, m, d+1, t.Hour, t.Minute, t.Second, t.Nanosecond, now.Location())
	}
	return candidate
}

// String formats t as 15:04:05.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Option configures optional behaviour for the Scheduler.
type Option func(*Scheduler)

// WithLogger overrides the scheduler logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

type task struct {
	name  string
	at    TimeOfDay
	fn    func(time.Time)
	next  time.Time
	timer Timer
}

// Scheduler owns a set of named daily tasks. Scheduling a name that is already
// pending replaces it; no name ever has two pending timers.
type Scheduler struct {
	clock   Clock
	mu      sync.Mutex
	tasks   map[string]*task
	stopped bool
	logger  *log.Logger
}

// New constructs a Scheduler driven by clock.
func New(clock Clock, opts ...Option) *Scheduler {
	if clock == nil {
		clock = SystemClock
	}
	s := &Scheduler{
		clock:  clock,
		tasks:  make(map[string]*task),
		logger: log.New(log.Writer(), "[schedule] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Daily runs fn at every occurrence of at, starting with the next one.
func (s *Scheduler) Daily(name string, at TimeOfDay, fn func(time.Time)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if existing, ok := s.tasks[name]; ok {
		existing.timer.Stop()
	}
	t := &task{name: name, at: at, fn: fn}
	s.tasks[name] = t
	s.armLocked(t, s.clock.Now())
}

func (s *Scheduler) armLocked(t *task, after time.Time) {
	t.next = t.at.Next(after)
	delay := t.next.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}
	t.timer = s.clock.AfterFunc(delay, func() { s.fire(t) })
}

func (s *Scheduler) fire(t *task) {
	s.mu.Lock()
	if s.tasks[t.name] != t {
		s.mu.Unlock()
		return
	}
	scheduled := t.next
	s.mu.Unlock()

	s.run(t, scheduled)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tasks[t.name] == t {
		s.armLocked(t, scheduled)
	}
}

func (s *Scheduler) run(t *task, scheduled time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("task %s panicked: %v", t.name, r)
		}
	}()
	t.fn(scheduled)
}

// Cancel stops the named task. It reports whether a task was pending.
func (s *Scheduler) Cancel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[name]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(s.tasks, name)
	return true
}

// Stop cancels every task and rejects future scheduling.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, name)
	}
	s.stopped = true
}

// Resume accepts new tasks again after Stop.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = false
}

// Pending is a scheduled task and its next firing.
type Pending struct {
	Name string    `json:"name"`
	Next time.Time `json:"next"`
}

// Pending lists scheduled tasks ordered by next firing.
func (s *Scheduler) Pending() []Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Pending, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, Pending{Name: t.name, Next: t.next})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Next.Equal(out[j].Next) {
			return out[i].Name < out[j].Name
		}
		return out[i].Next.Before(out[j].Next)
	})
	return out
}

// Package tracker assembles the fitness tracker: the activity store, event bus,
// streak tracker, achievement engine, workout sessions, progress queries and
// the daily scheduler.
package tracker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"example.com/fittrack/internal/achievement"
	"example.com/fittrack/internal/activity"
	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
	"example.com/fittrack/internal/observability"
	"example.com/fittrack/internal/persistence"
	"example.com/fittrack/internal/progress"
	"example.com/fittrack/internal/schedule"
	"example.com/fittrack/internal/streak"
	"example.com/fittrack/internal/workout"
)

const goalCheckTask = "goal-check"

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithClock sets the clock driving dates and scheduled tasks.
func WithClock(clock schedule.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithLogger overrides the logger handed to every component.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithEndOfDay moves the daily goal and streak check.
func WithEndOfDay(at schedule.TimeOfDay) Option {
	return func(s *Service) {
		s.endOfDay = at
	}
}

// WithoutMetrics skips mirroring bus events into the Prometheus collectors.
func WithoutMetrics() Option {
	return func(s *Service) {
		s.metrics = false
	}
}

// Service is the tracker's single entry point for transports.
type Service struct {
	clock    schedule.Clock
	logger   *log.Logger
	endOfDay schedule.TimeOfDay
	metrics  bool

	bus       *events.Bus
	store     *activity.Store
	streak    *streak.Tracker
	engine    *achievement.Engine
	workouts  *workout.Manager
	progress  *progress.Calculator
	scheduler *schedule.Scheduler

	mu      sync.Mutex
	started bool
}

// New wires the component graph over kv. Nothing is scheduled until Start.
func New(kv persistence.Store, opts ...Option) *Service {
	s := &Service{
		clock:    schedule.SystemClock,
		logger:   log.New(log.Writer(), "[tracker] ", log.LstdFlags|log.Lshortfile),
		endOfDay: schedule.EndOfDay,
		metrics:  true,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.bus = events.NewBus(events.WithLogger(s.logger))
	s.store = activity.NewStore(kv,
		activity.WithClock(s.clock.Now),
		activity.WithPublisher(s.bus),
		activity.WithLogger(s.logger),
	)
	s.streak = streak.NewTracker(s.store, s.bus)
	s.engine = achievement.NewEngine(s.store, s.streak, s.bus, achievement.WithLogger(s.logger))
	s.engine.Register(s.bus)
	s.workouts = workout.NewManager(s.store, workout.WithLogger(s.logger))
	s.progress = progress.NewCalculator(s.store, s.engine.Catalog())
	s.scheduler = schedule.New(s.clock, schedule.WithLogger(s.logger))

	newNotifier(s.store, s.logger).register(s.bus)
	if s.metrics {
		observability.Observe(s.bus)
	}
	return s
}

// Bus exposes the event bus so transports can subscribe sinks such as the outbox.
func (s *Service) Bus() *events.Bus { return s.bus }

// Store returns the activity store.
func (s *Service) Store() *activity.Store { return s.store }

// Achievements returns the achievement engine.
func (s *Service) Achievements() *achievement.Engine { return s.engine }

// Streak returns the streak tracker.
func (s *Service) Streak() *streak.Tracker { return s.streak }

// Workouts returns the workout session manager.
func (s *Service) Workouts() *workout.Manager { return s.workouts }

// Progress returns the progress calculator.
func (s *Service) Progress() *progress.Calculator { return s.progress }

// Now returns the service clock reading.
func (s *Service) Now() time.Time { return s.clock.Now() }

// Start seeds defaults, schedules the end-of-day check and arms reminders
// according to the stored settings.
func (s *Service) Start(ctx context.Context) error {
	if err := s.store.Seed(ctx); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduler.Resume()
	s.scheduler.Daily(goalCheckTask, s.endOfDay, s.endOfDayCheck)
	s.scheduleReminders(settings)
	s.started = true
	s.logger.Printf("tracker started; daily check at %s", s.endOfDay)
	return nil
}

// Stop cancels every scheduled task.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduler.Stop()
	s.started = false
}

// Scheduled lists pending tasks.
func (s *Service) Scheduled() []schedule.Pending {
	return s.scheduler.Pending()
}

func (s *Service) endOfDayCheck(at time.Time) {
	ctx := context.Background()
	date := domain.DateOf(at)
	s.bus.Publish(ctx, events.GoalCheck{Date: date})
	s.bus.Publish(ctx, events.StreakCheck{Date: date})
}

// CheckGoals runs the goal rules for date immediately. An empty date selects today.
func (s *Service) CheckGoals(ctx context.Context, date string) ([]domain.AwardedAchievement, error) {
	if date == "" {
		date = s.store.Today()
	}
	if _, err := domain.ParseDate(date, s.store.Location()); err != nil {
		return nil, err
	}
	return s.engine.Evaluate(ctx, events.GoalCheck{Date: date})
}

// CheckStreak advances the streak for today and runs the streak rules.
func (s *Service) CheckStreak(ctx context.Context) ([]domain.AwardedAchievement, error) {
	return s.engine.Evaluate(ctx, events.StreakCheck{})
}

// UpdateSettings persists settings and re-arms reminders.
func (s *Service) UpdateSettings(ctx context.Context, settings domain.Settings) error {
	if err := s.store.SetSettings(ctx, settings); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.scheduleReminders(settings)
	}
	return nil
}

// Reset clears every persisted key, reseeds defaults and drops any running
// workout session.
func (s *Service) Reset(ctx context.Context) error {
	_ = s.workouts.Discard()
	if err := s.store.Reset(ctx); err != nil {
		return err
	}
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.scheduleReminders(settings)
	}
	return nil
}

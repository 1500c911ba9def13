// Package achievement evaluates catalog rules against tracker state and
// records awards, adding their points to the profile.
package achievement

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
	"example.com/fittrack/internal/leveling"
)

// Store is the subset of the activity store the engine reads and writes.
type Store interface {
	Now() time.Time
	Location() *time.Location
	Today() string
	Record(ctx context.Context, date string) (domain.DailyActivityRecord, error)
	Records(ctx context.Context) (map[string]domain.DailyActivityRecord, error)
	Workouts(ctx context.Context) ([]domain.WorkoutRecord, error)
	Goals(ctx context.Context) (domain.Goals, error)
	Profile(ctx context.Context) (domain.UserProfile, error)
	UpdateProfile(ctx context.Context, fn func(*domain.UserProfile) error) (domain.UserProfile, error)
	Achievements(ctx context.Context) ([]domain.AwardedAchievement, error)
	AppendAchievement(ctx context.Context, a domain.AwardedAchievement) error
	ReplaceAchievements(ctx context.Context, awarded []domain.AwardedAchievement) error
}

// StreakEvaluator advances and reports the current streak.
type StreakEvaluator interface {
	EvaluateFor(ctx context.Context, date string) (int, error)
}

// Subscriber is the subset of events.Bus the engine registers with.
type Subscriber interface {
	Subscribe(h events.Handler, types ...events.Type)
}

// Option configures optional behaviour for the Engine.
type Option func(*Engine)

// WithLogger overrides the engine logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithCatalog replaces the built-in catalog.
func WithCatalog(c *Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// Engine awards achievements. The duplicate check and the insert happen under
// one lock, so concurrent triggers never double-award.
type Engine struct {
	store     Store
	streak    StreakEvaluator
	publisher events.Publisher
	catalog   *Catalog
	logger    *log.Logger
	mu        sync.Mutex
}

// NewEngine constructs an Engine. publisher may be nil.
func NewEngine(store Store, streak StreakEvaluator, publisher events.Publisher, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		streak:    streak,
		publisher: publisher,
		catalog:   DefaultCatalog(),
		logger:    log.New(log.Writer(), "[achievements] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the definitions the engine evaluates.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Register subscribes the engine to every trigger type.
func (e *Engine) Register(bus Subscriber) {
	bus.Subscribe(e.Handle,
		events.TypeStepCountChanged,
		events.TypeWorkoutCompleted,
		events.TypeHealthLogged,
		events.TypeGoalCheck,
		events.TypeStreakCheck,
		events.TypeSocialLogged,
	)
}

// Handle is the bus entry point. Errors are logged.
func (e *Engine) Handle(ctx context.Context, ev events.Event) {
	if _, err := e.Evaluate(ctx, ev); err != nil {
		e.logger.Printf("evaluate %s: %v", ev.EventType(), err)
	}
}

// Evaluate runs the rules selected by trigger and returns the new awards.
// Malformed triggers are logged and ignored; only storage failures are returned.
func (e *Engine) Evaluate(ctx context.Context, trigger events.Event) ([]domain.AwardedAchievement, error) {
	met, err := e.candidates(ctx, trigger)
	if err != nil || len(met) == 0 {
		return nil, err
	}
	return e.award(ctx, met, e.awardTime(trigger))
}

// awardTime is the timestamp given to awards of trigger. Checks for another
// date are stamped with the last instant of that date, so a check that runs
// after midnight still lands in the day it evaluated.
func (e *Engine) awardTime(trigger events.Event) time.Time {
	var date string
	switch ev := trigger.(type) {
	case events.GoalCheck:
		date = ev.Date
	case events.StreakCheck:
		date = ev.Date
	}
	now := e.store.Now()
	loc := e.store.Location()
	if date == "" || date == domain.DateOf(now.In(loc)) {
		return now
	}
	day, err := domain.ParseDate(date, loc)
	if err != nil {
		return now
	}
	return day.AddDate(0, 0, 1).Add(-time.Millisecond)
}

// Award grants the definition id if it is not already held in its scope.
func (e *Engine) Award(ctx context.Context, id string) (domain.AwardedAchievement, bool, error) {
	def, ok := e.catalog.Get(id)
	if !ok {
		return domain.AwardedAchievement{}, false, fmt.Errorf("achievement %s: %w", id, domain.ErrNotFound)
	}
	awarded, err := e.award(ctx, []domain.Achievement{def}, e.store.Now())
	if err != nil || len(awarded) == 0 {
		return domain.AwardedAchievement{}, false, err
	}
	return awarded[0], true, nil
}

// award grants defs stamped at now. Daily categories de-duplicate against the
// calendar date of now.
func (e *Engine) award(ctx context.Context, defs []domain.Achievement, now time.Time) ([]domain.AwardedAchievement, error) {
	var (
		awarded []domain.AwardedAchievement
		pending []events.Event
		err     error
	)

	e.mu.Lock()
	existing, err := e.store.Achievements(ctx)
	if err == nil {
		loc := e.store.Location()
		day := domain.DateOf(now.In(loc))
		for _, def := range defs {
			if held(existing, def, day, loc) {
				continue
			}
			a := def.Award(now)
			if err = e.store.AppendAchievement(ctx, a); err != nil {
				break
			}
			existing = append(existing, a)

			var res leveling.Result
			_, err = e.store.UpdateProfile(ctx, func(p *domain.UserProfile) error {
				res = leveling.AddPoints(p.Points, def.Points)
				p.Points = res.NewTotal
				return nil
			})
			if err != nil {
				break
			}

			awarded = append(awarded, a)
			pending = append(pending, events.AchievementAwarded{Achievement: a, TotalPoints: res.NewTotal})
			if res.LeveledUp {
				pending = append(pending, events.LevelUp{Level: res.NewLevel, TotalPoints: res.NewTotal, OccurredAt: now})
			}
		}
	}
	e.mu.Unlock()

	if e.publisher != nil {
		for _, ev := range pending {
			e.publisher.Publish(ctx, ev)
		}
	}
	return awarded, err
}

// held reports whether def was already awarded in its de-duplication scope:
// the calendar day for daily categories, ever for the rest.
func held(existing []domain.AwardedAchievement, def domain.Achievement, day string, loc *time.Location) bool {
	for _, a := range existing {
		if a.ID != def.ID {
			continue
		}
		if !def.Category.Daily() || a.Date(loc) == day {
			return true
		}
	}
	return false
}

// Earned reports whether id has been awarded at least once.
func (e *Engine) Earned(ctx context.Context, id string) (bool, error) {
	existing, err := e.store.Achievements(ctx)
	if err != nil {
		return false, err
	}
	for _, a := range existing {
		if a.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// ShareResult is the text produced when sharing an award.
type ShareResult struct {
	Title string                      `json:"title"`
	Text  string                      `json:"text"`
	New   []domain.AwardedAchievement `json:"newAchievements"`
}

// Share records a share of an earned achievement and evaluates the social rules.
func (e *Engine) Share(ctx context.Context, id string) (ShareResult, error) {
	def, ok := e.catalog.Get(id)
	if !ok {
		return ShareResult{}, fmt.Errorf("achievement %s: %w", id, domain.ErrNotFound)
	}
	earned, err := e.Earned(ctx, id)
	if err != nil {
		return ShareResult{}, err
	}
	if !earned {
		return ShareResult{}, fmt.Errorf("achievement %s not earned: %w", id, domain.ErrNotFound)
	}

	profile, err := e.store.UpdateProfile(ctx, func(p *domain.UserProfile) error {
		p.Social.Shares++
		return nil
	})
	if err != nil {
		return ShareResult{}, err
	}
	awarded, err := e.Evaluate(ctx, events.SocialLogged{Shares: profile.Social.Shares, Encouragements: profile.Social.Encouragements})
	if err != nil {
		return ShareResult{}, err
	}
	return ShareResult{
		Title: "FitTrack Achievement",
		Text:  fmt.Sprintf("I just unlocked %q: %s (+%d points)", def.Title, def.Description, def.Points),
		New:   awarded,
	}, nil
}

// Encourage records an encouragement and evaluates the social rules.
func (e *Engine) Encourage(ctx context.Context) ([]domain.AwardedAchievement, error) {
	profile, err := e.store.UpdateProfile(ctx, func(p *domain.UserProfile) error {
		p.Social.Encouragements++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e.Evaluate(ctx, events.SocialLogged{Shares: profile.Social.Shares, Encouragements: profile.Social.Encouragements})
}

// Reset removes every award and zeroes the point total.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.ReplaceAchievements(ctx, nil); err != nil {
		return err
	}
	_, err := e.store.UpdateProfile(ctx, func(p *domain.UserProfile) error {
		p.Points = 0
		return nil
	})
	return err
}

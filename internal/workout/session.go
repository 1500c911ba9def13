// Package workout runs live workout sessions and answers history queries over
// finished workouts.
package workout

import (
	"context"
	"fmt"
	"log"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"example.com/fittrack/internal/domain"
)

// Store is the workout side of the activity store.
type Store interface {
	Now() time.Time
	Location() *time.Location
	Today() string
	Workouts(ctx context.Context) ([]domain.WorkoutRecord, error)
	Workout(ctx context.Context, id string) (domain.WorkoutRecord, error)
	AppendWorkout(ctx context.Context, w domain.WorkoutRecord) (domain.WorkoutRecord, error)
	UpdateWorkout(ctx context.Context, id string, fn func(*domain.WorkoutRecord)) (domain.WorkoutRecord, error)
	DeleteWorkout(ctx context.Context, id string) error
}

// Option configures optional behaviour for the Manager.
type Option func(*Manager)

// WithLogger overrides the manager logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithCatalog replaces the built-in exercise catalog.
func WithCatalog(c *Catalog) Option {
	return func(m *Manager) {
		m.catalog = c
	}
}

// Session is the state of the workout in progress.
type Session struct {
	Name           string                     `json:"name"`
	Category       domain.WorkoutCategory     `json:"category"`
	TemplateID     string                     `json:"templateId,omitempty"`
	StartTime      time.Time                  `json:"startTime"`
	Plan           []PlannedExercise          `json:"exercises"`
	CurrentIndex   int                        `json:"currentExerciseIndex"`
	Completed      []domain.CompletedExercise `json:"completedExercises"`
	Calories       float64                    `json:"totalCaloriesBurned"`
	Paused         bool                       `json:"paused"`
	ElapsedSeconds int                        `json:"elapsedSeconds"`

	pausedAt    time.Time
	pausedTotal time.Duration
}

func (s *Session) elapsed(now time.Time) time.Duration {
	d := now.Sub(s.StartTime) - s.pausedTotal
	if s.Paused {
		d -= now.Sub(s.pausedAt)
	}
	return max(d, 0)
}

func (s *Session) snapshot(now time.Time) Session {
	out := *s
	out.Plan = slices.Clone(s.Plan)
	out.Completed = slices.Clone(s.Completed)
	out.ElapsedSeconds = int(s.elapsed(now) / time.Second)
	return out
}

// StartRequest selects a template or describes a custom workout.
type StartRequest struct {
	TemplateID string                 `json:"templateId"`
	Name       string                 `json:"name"`
	Category   domain.WorkoutCategory `json:"category"`
	Exercises  []PlannedExercise      `json:"exercises"`
}

// Manager owns the single in-progress session.
type Manager struct {
	store   Store
	catalog *Catalog
	logger  *log.Logger

	mu      sync.Mutex
	current *Session
}

// NewManager constructs a Manager over store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		catalog: DefaultCatalog(),
		logger:  log.New(log.Writer(), "[workout] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Catalog returns the exercise catalog.
func (m *Manager) Catalog() *Catalog {
	return m.catalog
}

// Start begins a session. Only one session may run at a time.
func (m *Manager) Start(req StartRequest) (Session, error) {
	session := Session{
		Name:     strings.TrimSpace(req.Name),
		Category: req.Category,
		Plan:     slices.Clone(req.Exercises),
	}
	if req.TemplateID != "" {
		tpl, ok := m.catalog.Template(req.TemplateID)
		if !ok {
			return Session{}, fmt.Errorf("template %s: %w", req.TemplateID, domain.ErrNotFound)
		}
		session.TemplateID = tpl.ID
		if session.Name == "" {
			session.Name = tpl.Name
		}
		if session.Category == "" {
			session.Category = tpl.Category
		}
		if len(session.Plan) == 0 {
			session.Plan = slices.Clone(tpl.Exercises)
		}
	}
	if session.Name == "" {
		session.Name = "Custom Workout"
	}
	if session.Category == "" {
		session.Category = domain.CategoryCustom
	}
	if !session.Category.Valid() {
		return Session{}, fmt.Errorf("%w: workout category %q", domain.ErrInvalidValue, session.Category)
	}
	for _, p := range session.Plan {
		if _, ok := m.catalog.Exercise(p.ExerciseID); !ok {
			return Session{}, fmt.Errorf("exercise %s: %w", p.ExerciseID, domain.ErrNotFound)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		return Session{}, fmt.Errorf("start %q: %w", session.Name, domain.ErrAlreadyInProgress)
	}
	session.StartTime = m.store.Now()
	session.Completed = []domain.CompletedExercise{}
	m.current = &session
	m.logger.Printf("workout %q started", session.Name)
	return session.snapshot(session.StartTime), nil
}

// Current returns the session in progress.
func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Session{}, false
	}
	return m.current.snapshot(m.store.Now()), true
}

// Pause stops the session clock. Pausing a paused session is a no-op.
func (m *Manager) Pause() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Session{}, errNoSession
	}
	now := m.store.Now()
	if !m.current.Paused {
		m.current.Paused = true
		m.current.pausedAt = now
	}
	return m.current.snapshot(now), nil
}

// Resume restarts the session clock. Resuming a running session is a no-op.
func (m *Manager) Resume() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Session{}, errNoSession
	}
	now := m.store.Now()
	if m.current.Paused {
		m.current.pausedTotal += now.Sub(m.current.pausedAt)
		m.current.Paused = false
	}
	return m.current.snapshot(now), nil
}

var errNoSession = fmt.Errorf("workout session: %w", domain.ErrNotFound)

// CompleteExercise records a finished exercise and credits its calories at the
// exercise's per-minute rate.
func (m *Manager) CompleteExercise(done domain.CompletedExercise) (Session, error) {
	if done.DurationSeconds < 0 || done.Sets < 0 || done.Reps < 0 {
		return Session{}, fmt.Errorf("%w: exercise counts must be non-negative", domain.ErrInvalidValue)
	}
	ex, ok := m.catalog.Exercise(done.ExerciseID)
	if !ok {
		return Session{}, fmt.Errorf("exercise %s: %w", done.ExerciseID, domain.ErrNotFound)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Session{}, errNoSession
	}
	now := m.store.Now()
	if done.Name == "" {
		done.Name = ex.Name
	}
	done.CompletedAt = now
	m.current.Completed = append(m.current.Completed, done)
	m.current.Calories += ex.CaloriesPerMinute * float64(done.DurationSeconds) / 60
	m.current.CurrentIndex++
	return m.current.snapshot(now), nil
}

// End finishes the session and appends it to the workout history. Paused
// time does not count towards the duration.
func (m *Manager) End(ctx context.Context, notes string) (domain.WorkoutRecord, error) {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return domain.WorkoutRecord{}, errNoSession
	}
	s := m.current
	m.current = nil
	m.mu.Unlock()

	now := m.store.Now()
	record := domain.WorkoutRecord{
		Name:               s.Name,
		Category:           s.Category,
		StartTime:          s.StartTime,
		EndTime:            now,
		DurationMinutes:    int(s.elapsed(now) / time.Minute),
		CaloriesBurned:     int(math.Round(s.Calories)),
		PlannedExercises:   len(s.Plan),
		CompletedExercises: s.Completed,
		Notes:              notes,
	}
	saved, err := m.store.AppendWorkout(ctx, record)
	if err != nil {
		// Put the session back so the caller can retry.
		m.mu.Lock()
		if m.current == nil {
			m.current = s
		}
		m.mu.Unlock()
		return domain.WorkoutRecord{}, err
	}
	m.logger.Printf("workout %q finished: %d min, %d kcal", saved.Name, saved.DurationMinutes, saved.CaloriesBurned)
	return saved, nil
}

// Discard drops the session without recording it.
func (m *Manager) Discard() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return errNoSession
	}
	m.current = nil
	return nil
}

// Patch lists the editable fields of a finished workout. Nil fields are kept.
type Patch struct {
	Name            *string                 `json:"name"`
	Category        *domain.WorkoutCategory `json:"category"`
	DurationMinutes *int                    `json:"duration"`
	CaloriesBurned  *int                    `json:"caloriesBurned"`
	Notes           *string                 `json:"notes"`
}

// Update edits a finished workout.
func (m *Manager) Update(ctx context.Context, id string, p Patch) (domain.WorkoutRecord, error) {
	return m.store.UpdateWorkout(ctx, id, func(w *domain.WorkoutRecord) {
		if p.Name != nil {
			w.Name = *p.Name
		}
		if p.Category != nil {
			w.Category = *p.Category
		}
		if p.DurationMinutes != nil {
			w.DurationMinutes = *p.DurationMinutes
		}
		if p.CaloriesBurned != nil {
			w.CaloriesBurned = *p.CaloriesBurned
		}
		if p.Notes != nil {
			w.Notes = *p.Notes
		}
	})
}

// Get returns a finished workout by id.
func (m *Manager) Get(ctx context.Context, id string) (domain.WorkoutRecord, error) {
	return m.store.Workout(ctx, id)
}

// Delete removes a finished workout.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.DeleteWorkout(ctx, id)
}

package activity

import (
	"context"
	"fmt"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/persistence"
)

// Profile returns the stored profile or the default one.
func (s *Store) Profile(ctx context.Context) (domain.UserProfile, error) {
	profile := domain.DefaultProfile(s.now())
	if _, err := persistence.GetJSON(ctx, s.kv, persistence.KeyProfile, &profile); err != nil {
		return domain.UserProfile{}, err
	}
	return profile, nil
}

// SetProfile validates and overwrites the profile.
func (s *Store) SetProfile(ctx context.Context, profile domain.UserProfile) error {
	if err := validateProfile(profile); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return persistence.SetJSON(ctx, s.kv, persistence.KeyProfile, profile)
}

// UpdateProfile applies fn to the stored profile under the store lock.
func (s *Store) UpdateProfile(ctx context.Context, fn func(*domain.UserProfile) error) (domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.Profile(ctx)
	if err != nil {
		return domain.UserProfile{}, err
	}
	if err := fn(&profile); err != nil {
		return domain.UserProfile{}, err
	}
	if err := validateProfile(profile); err != nil {
		return domain.UserProfile{}, err
	}
	if err := persistence.SetJSON(ctx, s.kv, persistence.KeyProfile, profile); err != nil {
		return domain.UserProfile{}, err
	}
	return profile, nil
}

func validateProfile(p domain.UserProfile) error {
	if p.Points < 0 || p.Age < 0 || p.HeightCm < 0 || p.WeightKg < 0 {
		return fmt.Errorf("%w: profile values must be non-negative", domain.ErrInvalidValue)
	}
	return nil
}

// Goals returns the stored goals or the defaults.
func (s *Store) Goals(ctx context.Context) (domain.Goals, error) {
	goals := domain.DefaultGoals()
	if _, err := persistence.GetJSON(ctx, s.kv, persistence.KeyGoals, &goals); err != nil {
		return domain.Goals{}, err
	}
	return goals, nil
}

// SetGoals validates and overwrites the goals.
func (s *Store) SetGoals(ctx context.Context, goals domain.Goals) error {
	d := goals.Daily
	if d.Steps < 0 || d.Calories < 0 || d.DistanceKm < 0 || d.ActiveMinutes < 0 || d.Water < 0 || d.Sleep < 0 ||
		goals.Weekly.Workouts < 0 || goals.Weekly.WeightLossKg < 0 {
		return fmt.Errorf("%w: goals must be non-negative", domain.ErrInvalidValue)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return persistence.SetJSON(ctx, s.kv, persistence.KeyGoals, goals)
}

// Settings returns the stored settings or the defaults.
func (s *Store) Settings(ctx context.Context) (domain.Settings, error) {
	settings := domain.DefaultSettings()
	if _, err := persistence.GetJSON(ctx, s.kv, persistence.KeySettings, &settings); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

// SetSettings overwrites the settings.
func (s *Store) SetSettings(ctx context.Context, settings domain.Settings) error {
	if settings.StepCalibration < 0 {
		return fmt.Errorf("%w: step calibration must be non-negative", domain.ErrInvalidValue)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return persistence.SetJSON(ctx, s.kv, persistence.KeySettings, settings)
}

// Achievements returns every award in the order it was granted.
func (s *Store) Achievements(ctx context.Context) ([]domain.AwardedAchievement, error) {
	awarded := make([]domain.AwardedAchievement, 0)
	if _, err := persistence.GetJSON(ctx, s.kv, persistence.KeyAchievements, &awarded); err != nil {
		return nil, err
	}
	return awarded, nil
}

// AppendAchievement appends a to the award list.
func (s *Store) AppendAchievement(ctx context.Context, a domain.AwardedAchievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	awarded, err := s.Achievements(ctx)
	if err != nil {
		return err
	}
	return persistence.SetJSON(ctx, s.kv, persistence.KeyAchievements, append(awarded, a))
}

// ReplaceAchievements overwrites the award list.
func (s *Store) ReplaceAchievements(ctx context.Context, awarded []domain.AwardedAchievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if awarded == nil {
		awarded = []domain.AwardedAchievement{}
	}
	return persistence.SetJSON(ctx, s.kv, persistence.KeyAchievements, awarded)
}

// StreakState returns the persisted streak counters.
func (s *Store) StreakState(ctx context.Context) (domain.StreakState, error) {
	var state domain.StreakState
	if _, err := persistence.GetJSON(ctx, s.kv, persistence.KeyStreakState, &state); err != nil {
		return domain.StreakState{}, err
	}
	return state, nil
}

// SaveStreakState overwrites the streak counters.
func (s *Store) SaveStreakState(ctx context.Context, state domain.StreakState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return persistence.SetJSON(ctx, s.kv, persistence.KeyStreakState, state)
}

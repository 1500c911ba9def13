// Package persistence defines the key-value boundary every tracker component
// persists through, plus helpers shared by the backends.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store is a byte-oriented key-value backend.
type Store interface {
	// Get returns the value stored at key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Keys persisted by the tracker.
const (
	KeyProfile         = "fittrack_user_profile"
	KeyDailyActivities = "fittrack_daily_activities"
	KeyWorkoutHistory  = "fittrack_workout_history"
	KeyGoals           = "fittrack_goals"
	KeyAchievements    = "fittrack_achievements"
	KeySettings        = "fittrack_settings"
	KeyWaterIntake     = "fittrack_water_intake"
	KeySleepData       = "fittrack_sleep_data"
	KeyStreakState     = "fittrack_streak_state"
	KeyOutboxPending   = "fittrack_outbox_pending"
	KeyOutboxDLQ       = "fittrack_outbox_dlq"
)

// AllKeys lists every key removed by a full reset.
var AllKeys = []string{
	KeyProfile, KeyDailyActivities, KeyWorkoutHistory, KeyGoals, KeyAchievements,
	KeySettings, KeyWaterIntake, KeySleepData, KeyStreakState, KeyOutboxPending, KeyOutboxDLQ,
}

// GetJSON decodes the value at key into dst. It reports false when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes value and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

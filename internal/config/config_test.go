package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/schedule"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddress)
	require.Equal(t, "sqlite", cfg.StoreDriver)
	require.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
	require.Equal(t, schedule.EndOfDay, mustEndOfDay(t, cfg))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("END_OF_DAY", "21:30")
	t.Setenv("TZ_NAME", "Europe/Berlin")
	t.Setenv("DLQ_BASE_DELAY", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "redis", cfg.Store().Driver)
	require.Len(t, cfg.KafkaBrokers, 2)
	require.Equal(t, 30*time.Second, cfg.DLQBaseDelay)
	require.Equal(t, schedule.TimeOfDay{Hour: 21, Minute: 30}, mustEndOfDay(t, cfg))
	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("END_OF_DAY", "late")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("END_OF_DAY", "23:00")
	t.Setenv("TZ_NAME", "Mars/Olympus_Mons")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("TZ_NAME", "UTC")
	t.Setenv("OUTBOX_BATCH_SIZE", "lots")
	_, err = Load()
	require.Error(t, err)
}

func mustEndOfDay(t *testing.T, cfg Config) schedule.TimeOfDay {
	t.Helper()
	at, err := cfg.EndOfDayTime()
	require.NoError(t, err)
	return at
}

package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/schedule"
	"example.com/fittrack/internal/testsupport"
)

func TestDailyFiresAtEndOfDayThenEvery24Hours(t *testing.T) {
	start := time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)
	clock := testsupport.NewManualClock(start)
	sched := schedule.New(clock)

	var fired []time.Time
	sched.Daily("goal-check", schedule.EndOfDay, func(at time.Time) { fired = append(fired, at) })

	pending := sched.Pending()
	require.Len(t, pending, 1)
	require.Equal(t, time.Date(2025, time.June, 2, 23, 59, 59, 999_000_000, time.UTC), pending[0].Next)

	clock.Advance(13 * time.Hour)
	require.Len(t, fired, 0)

	clock.Advance(time.Hour)
	require.Len(t, fired, 1)

	clock.Advance(48 * time.Hour)
	require.Len(t, fired, 3)
	require.Equal(t, 24*time.Hour, fired[1].Sub(fired[0]))
	require.Equal(t, 24*time.Hour, fired[2].Sub(fired[1]))
}

func TestRescheduleReplacesPendingTimer(t *testing.T) {
	clock := testsupport.NewManualClock(time.Date(2025, time.June, 2, 6, 0, 0, 0, time.UTC))
	sched := schedule.New(clock)

	calls := map[string]int{}
	sched.Daily("water", schedule.TimeOfDay{Hour: 8}, func(time.Time) { calls["first"]++ })
	sched.Daily("water", schedule.TimeOfDay{Hour: 9}, func(time.Time) { calls["second"]++ })

	require.Equal(t, 1, clock.PendingTimers())
	clock.Advance(4 * time.Hour)
	require.Equal(t, 0, calls["first"])
	require.Equal(t, 1, calls["second"])
}

func TestCancelStopsFutureFirings(t *testing.T) {
	clock := testsupport.NewManualClock(time.Date(2025, time.June, 2, 6, 0, 0, 0, time.UTC))
	sched := schedule.New(clock)

	count := 0
	sched.Daily("sleep", schedule.TimeOfDay{Hour: 22}, func(time.Time) { count++ })
	clock.Advance(17 * time.Hour)
	require.Equal(t, 1, count)

	require.True(t, sched.Cancel("sleep"))
	require.False(t, sched.Cancel("sleep"))
	clock.Advance(72 * time.Hour)
	require.Equal(t, 1, count)

	sched.Stop()
	sched.Daily("late", schedule.TimeOfDay{Hour: 1}, func(time.Time) { count++ })
	require.Empty(t, sched.Pending())

	sched.Resume()
	sched.Daily("late", schedule.TimeOfDay{Hour: 1}, func(time.Time) { count++ })
	require.Len(t, sched.Pending(), 1)
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := schedule.ParseTimeOfDay("23:59:59.999")
	require.NoError(t, err)
	require.Equal(t, schedule.EndOfDay, tod)

	tod, err = schedule.ParseTimeOfDay("07:30")
	require.NoError(t, err)
	require.Equal(t, schedule.TimeOfDay{Hour: 7, Minute: 30}, tod)

	_, err = schedule.ParseTimeOfDay("noon")
	require.Error(t, err)
}

func TestInLocationFollowsZone(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	clock := testsupport.NewManualClock(time.Date(2025, time.June, 2, 23, 0, 0, 0, time.UTC))
	zoned := schedule.InLocation(clock, loc)
	require.Equal(t, loc, zoned.Now().Location())
	require.Equal(t, 3, zoned.Now().Day())

	sched := schedule.New(zoned)
	fired := 0
	sched.Daily("sleep", schedule.TimeOfDay{Hour: 22}, func(time.Time) { fired++ })
	require.Equal(t, time.Date(2025, time.June, 3, 22, 0, 0, 0, loc), sched.Pending()[0].Next)

	clock.Advance(20 * time.Hour)
	require.Equal(t, 0, fired)
	clock.Advance(time.Hour)
	require.Equal(t, 1, fired)
}

// Package observability exposes Prometheus collectors for tracker state.
package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"example.com/fittrack/internal/events"
)

var (
	activityWriteGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fittrack",
		Subsystem: "activity",
		Name:      "last_write_timestamp_seconds",
		Help:      "Unix timestamp of the most recent daily activity write.",
	})

	activityWritesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "activity",
		Name:      "writes_total",
		Help:      "Number of daily activity writes grouped by field.",
	}, []string{"field"})

	achievementsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "achievements",
		Name:      "awarded_total",
		Help:      "Number of achievements awarded grouped by category.",
	}, []string{"category"})

	pointsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fittrack",
		Subsystem: "achievements",
		Name:      "points",
		Help:      "Cumulative achievement points.",
	})

	levelGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fittrack",
		Subsystem: "achievements",
		Name:      "level",
		Help:      "Level reached by the most recent level-up.",
	})

	streakGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fittrack",
		Subsystem: "streak",
		Name:      "days",
		Help:      "Current and longest streak lengths.",
	}, []string{"kind"})

	storeErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "store",
		Name:      "errors_total",
		Help:      "Number of key-value backend errors grouped by driver and operation.",
	}, []string{"driver", "op"})
)

func init() {
	prometheus.MustRegister(activityWriteGauge, activityWritesCounter, achievementsCounter, pointsGauge, levelGauge, streakGauge, storeErrorCounter)
}

// RecordActivityWrite updates the write watermark and per-field counter.
func RecordActivityWrite(field string, ts time.Time) {
	activityWritesCounter.WithLabelValues(field).Inc()
	if ts.IsZero() {
		return
	}
	activityWriteGauge.Set(float64(ts.Unix()))
}

// RecordStoreError counts a failed backend operation.
func RecordStoreError(driver, op string) {
	storeErrorCounter.WithLabelValues(driver, op).Inc()
}

// Subscriber is the subset of events.Bus used to observe tracker events.
type Subscriber interface {
	SubscribeAll(events.Handler)
}

// Observe mirrors bus events into the collectors.
func Observe(bus Subscriber) {
	bus.SubscribeAll(func(_ context.Context, e events.Event) {
		switch ev := e.(type) {
		case events.ActivityRecorded:
			RecordActivityWrite(string(ev.Field), ev.RecordedAt)
		case events.AchievementAwarded:
			achievementsCounter.WithLabelValues(string(ev.Achievement.Category)).Inc()
			pointsGauge.Set(float64(ev.TotalPoints))
		case events.LevelUp:
			levelGauge.Set(float64(ev.Level))
		case events.StreakUpdated:
			streakGauge.WithLabelValues("current").Set(float64(ev.Current))
			streakGauge.WithLabelValues("longest").Set(float64(ev.Longest))
		}
	})
}

package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/tracker"
)

// Ingest event types accepted on the ingest topic.
const (
	EventStepsRecorded    = "steps.recorded"
	EventActivityRecorded = "activity.recorded"
	EventWaterLogged      = "water.logged"
	EventSleepLogged      = "sleep.logged"
	EventWorkoutLogged    = "workout.logged"
)

// Tracker is the set of tracker operations the ingest handler drives.
type Tracker interface {
	AddSteps(ctx context.Context, date string, steps int) (tracker.StepLog, error)
	RecordActivity(ctx context.Context, date string, field domain.Field, value float64, mode string) (domain.DailyActivityRecord, error)
	LogWater(ctx context.Context, date string, glasses float64) (domain.WaterIntake, error)
	LogSleep(ctx context.Context, bedtime, wake time.Time, quality string) (domain.SleepRecord, error)
	LogWorkout(ctx context.Context, w domain.WorkoutRecord) (domain.WorkoutRecord, error)
}

type stepsPayload struct {
	Date  string `json:"date"`
	Steps int    `json:"steps"`
}

type activityPayload struct {
	Date  string       `json:"date"`
	Field domain.Field `json:"field"`
	Value float64      `json:"value"`
	Mode  string       `json:"mode"`
}

type waterPayload struct {
	Date    string  `json:"date"`
	Glasses float64 `json:"glasses"`
}

type sleepPayload struct {
	Bedtime  time.Time `json:"bedtime"`
	WakeTime time.Time `json:"wakeTime"`
	Quality  string    `json:"quality"`
}

// IngestHandler applies ingest events to the tracker. Payloads the tracker
// rejects are logged and dropped so they are committed; storage failures are
// returned and the message is redelivered.
type IngestHandler struct {
	tracker Tracker
	logger  *log.Logger
}

// NewIngestHandler builds an IngestHandler. A nil logger uses the default consumer prefix.
func NewIngestHandler(t Tracker, logger *log.Logger) *IngestHandler {
	if logger == nil {
		logger = log.New(log.Writer(), "[consumer] ", log.LstdFlags|log.Lshortfile)
	}
	return &IngestHandler{tracker: t, logger: logger}
}

// Handle dispatches msg by event type.
func (h *IngestHandler) Handle(ctx context.Context, msg Message) error {
	err := h.apply(ctx, msg)
	var skip skipError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &skip):
		h.logger.Printf("skip %s (offset=%d): %v", msg.EventType, msg.Offset, skip.err)
		recordSkipped(msg.EventType, skip.reason)
		return nil
	case errors.Is(err, domain.ErrInvalidValue), errors.Is(err, domain.ErrInvalidFormat):
		h.logger.Printf("rejected %s (offset=%d): %v", msg.EventType, msg.Offset, err)
		recordSkipped(msg.EventType, "rejected")
		return nil
	default:
		return err
	}
}

func (h *IngestHandler) apply(ctx context.Context, msg Message) error {
	switch msg.EventType {
	case EventStepsRecorded:
		var p stepsPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := h.tracker.AddSteps(ctx, p.Date, p.Steps)
		return err
	case EventActivityRecorded:
		var p activityPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := h.tracker.RecordActivity(ctx, p.Date, p.Field, p.Value, p.Mode)
		return err
	case EventWaterLogged:
		var p waterPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := h.tracker.LogWater(ctx, p.Date, p.Glasses)
		return err
	case EventSleepLogged:
		var p sleepPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := h.tracker.LogSleep(ctx, p.Bedtime, p.WakeTime, p.Quality)
		return err
	case EventWorkoutLogged:
		var w domain.WorkoutRecord
		if err := decode(msg.Payload, &w); err != nil {
			return err
		}
		_, err := h.tracker.LogWorkout(ctx, w)
		return err
	default:
		return skipError{reason: "unknown_type", err: fmt.Errorf("unknown event type %q", msg.EventType)}
	}
}

type skipError struct {
	reason string
	err    error
}

func (e skipError) Error() string { return e.err.Error() }

func decode(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return skipError{reason: "malformed", err: err}
	}
	return nil
}

package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/google/uuid"

	"example.com/fittrack/internal/events"
)

// EventMetadata describes how to route an emitted event.
type EventMetadata struct {
	Topic          string
	PartitionKeyFn func(events.Event) string
}

var eventCatalog = map[events.Type]EventMetadata{
	events.TypeAchievementAwarded: {
		Topic: "achievements",
		PartitionKeyFn: func(e events.Event) string {
			return e.(events.AchievementAwarded).Achievement.ID
		},
	},
	events.TypeLevelUp: {
		Topic: "levels",
		PartitionKeyFn: func(e events.Event) string {
			return strconv.Itoa(e.(events.LevelUp).Level)
		},
	},
	events.TypeStreakUpdated: {
		Topic: "streaks",
		PartitionKeyFn: func(e events.Event) string {
			return e.(events.StreakUpdated).Date
		},
	},
	events.TypeWorkoutCompleted: {
		Topic: "workouts",
		PartitionKeyFn: func(e events.Event) string {
			return e.(events.WorkoutCompleted).Workout.ID
		},
	},
}

// Subscriber is the part of the event bus the recorder needs.
type Subscriber interface {
	Subscribe(h events.Handler, types ...events.Type)
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRecorderLogger overrides the recorder logger.
func WithRecorderLogger(logger *log.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// Recorder turns bus events into pending outbox messages.
type Recorder struct {
	queue       *Queue
	topicPrefix string
	logger      *log.Logger
}

// NewRecorder builds a Recorder writing to queue. Topics are named
// "<topicPrefix>.<topic>".
func NewRecorder(queue *Queue, topicPrefix string, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		queue:       queue,
		topicPrefix: topicPrefix,
		logger:      log.New(log.Writer(), "[outbox] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register subscribes the recorder to every routed event type.
func (r *Recorder) Register(bus Subscriber) {
	types := make([]events.Type, 0, len(eventCatalog))
	for t := range eventCatalog {
		types = append(types, t)
	}
	bus.Subscribe(r.Handle, types...)
}

// Handle enqueues e. Failures are logged; the bus has no error path.
func (r *Recorder) Handle(ctx context.Context, e events.Event) {
	msg, err := r.message(e)
	if err != nil {
		r.logger.Printf("outbox: %v", err)
		return
	}
	if err := r.queue.Enqueue(ctx, msg); err != nil {
		r.logger.Printf("outbox: enqueue %s: %v", msg.EventType, err)
	}
}

func (r *Recorder) message(e events.Event) (Message, error) {
	topic, ok := r.TopicFor(e.EventType())
	if !ok {
		return Message{}, fmt.Errorf("unknown event type: %s", e.EventType())
	}
	body, err := json.Marshal(e)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s: %w", e.EventType(), err)
	}
	return Message{
		EventID:      uuid.NewString(),
		EventType:    string(e.EventType()),
		Topic:        topic,
		PartitionKey: eventCatalog[e.EventType()].PartitionKeyFn(e),
		Payload:      body,
		CreatedAt:    r.queue.now().UTC(),
	}, nil
}

// TopicFor reports the topic an event type is routed to, if any.
func (r *Recorder) TopicFor(t events.Type) (string, bool) {
	meta, ok := eventCatalog[t]
	if !ok {
		return "", false
	}
	if r.topicPrefix == "" {
		return meta.Topic, true
	}
	return r.topicPrefix + "." + meta.Topic, true
}

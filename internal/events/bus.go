package events

import (
	"context"
	"log"
	"sync"
)

// Handler consumes an event. Handlers run one at a time, in publish order.
type Handler func(context.Context, Event)

// Publisher is the write side of the bus.
type Publisher interface {
	Publish(context.Context, Event)
}

// Option configures optional behaviour for the Bus.
type Option func(*Bus)

// WithLogger overrides the logger used to report handler panics.
func WithLogger(logger *log.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

type queued struct {
	ctx   context.Context
	event Event
}

// Bus delivers events run-to-completion. The first publisher to find the bus
// idle drains the queue; events published from inside a handler, or from other
// goroutines while draining, are delivered after the current handler returns.
type Bus struct {
	mu       sync.Mutex
	handlers map[Type][]Handler
	all      []Handler
	queue    []queued
	draining bool
	logger   *log.Logger
}

// NewBus constructs an empty Bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		handlers: make(map[Type][]Handler),
		logger:   log.New(log.Writer(), "[events] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for events of the given types.
func (b *Bus) Subscribe(h Handler, types ...Type) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range types {
		b.handlers[t] = append(b.handlers[t], h)
	}
}

// SubscribeAll registers h for every event.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish enqueues e and drains the queue if no other goroutine is draining.
func (b *Bus) Publish(ctx context.Context, e Event) {
	if e == nil {
		return
	}
	b.mu.Lock()
	b.queue = append(b.queue, queued{ctx: context.WithoutCancel(ctx), event: e})
	if b.draining {
		b.mu.Unlock()
		return
	}
	b.draining = true
	for len(b.queue) > 0 {
		next := b.queue[0]
		b.queue = b.queue[1:]
		targets := make([]Handler, 0, len(b.handlers[next.event.EventType()])+len(b.all))
		targets = append(targets, b.handlers[next.event.EventType()]...)
		targets = append(targets, b.all...)
		b.mu.Unlock()

		for _, h := range targets {
			b.dispatch(next.ctx, h, next.event)
		}

		b.mu.Lock()
	}
	b.draining = false
	b.mu.Unlock()
}

func (b *Bus) dispatch(ctx context.Context, h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Printf("handler panic (event_type=%s): %v", e.EventType(), r)
		}
	}()
	h(ctx, e)
}

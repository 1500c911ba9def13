package events

import (
	"context"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBusDeliversNestedEventsAfterCurrentHandler(t *testing.T) {
	bus := NewBus(WithLogger(log.New(testWriter{t}, "", 0)))
	var order []string

	bus.Subscribe(func(ctx context.Context, e Event) {
		order = append(order, "steps:start")
		bus.Publish(ctx, AchievementAwarded{})
		order = append(order, "steps:end")
	}, TypeStepCountChanged)
	bus.Subscribe(func(context.Context, Event) {
		order = append(order, "awarded")
	}, TypeAchievementAwarded)

	bus.Publish(context.Background(), StepCountChanged{Date: "2025-01-01", Total: 100})

	require.Equal(t, []string{"steps:start", "steps:end", "awarded"}, order)
}

func TestBusRecoversFromHandlerPanic(t *testing.T) {
	bus := NewBus(WithLogger(log.New(testWriter{t}, "", 0)))
	delivered := 0
	bus.Subscribe(func(context.Context, Event) { panic("boom") }, TypeStreakCheck)
	bus.SubscribeAll(func(context.Context, Event) { delivered++ })

	bus.Publish(context.Background(), StreakCheck{})
	bus.Publish(context.Background(), StreakCheck{})

	require.Equal(t, 2, delivered)
}

func TestBusHandlesConcurrentPublishers(t *testing.T) {
	bus := NewBus()
	var mu sync.Mutex
	seen := 0
	bus.SubscribeAll(func(context.Context, Event) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(context.Background(), GoalCheck{Date: "2025-01-01"})
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 20, seen)
}

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

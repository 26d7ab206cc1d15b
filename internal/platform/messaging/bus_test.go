package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	contractsv1 "tally/contracts/gen/events/v1"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBusDeliversToTopicAndWildcardSubscribers(t *testing.T) {
	bus := NewBus(4, nil)
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	got := map[string][]string{}
	done := make(chan struct{}, 2)
	record := func(name string) func(context.Context, contractsv1.Envelope) error {
		return func(_ context.Context, event contractsv1.Envelope) error {
			mu.Lock()
			got[name] = append(got[name], event.EventID)
			mu.Unlock()
			done <- struct{}{}
			return nil
		}
	}
	if err := bus.Subscribe(ctx, contractsv1.EventResultFormStateChanged, "audit-log", record("topic")); err != nil {
		t.Fatalf("subscribe topic: %v", err)
	}
	if err := bus.Subscribe(ctx, AllTopics, "mirror", record("all")); err != nil {
		t.Fatalf("subscribe all: %v", err)
	}

	event := contractsv1.Envelope{EventID: "evt-1", EventType: contractsv1.EventResultFormStateChanged}
	if err := bus.Publish(ctx, event.EventType, event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d", i+1)
		}
	}

	cancel()
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(got["topic"]) != 1 || len(got["all"]) != 1 {
		t.Fatalf("unexpected deliveries: %+v", got)
	}
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBus(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	if err := bus.Subscribe(ctx, "topic", "slow", func(context.Context, contractsv1.Envelope) error {
		started <- struct{}{}
		<-release
		return errors.New("handler failed")
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := bus.Publish(ctx, "topic", contractsv1.Envelope{EventID: "first"}); err != nil {
		t.Fatalf("publish first: %v", err)
	}
	<-started
	for _, id := range []string{"second", "third"} {
		if err := bus.Publish(ctx, "topic", contractsv1.Envelope{EventID: id}); err != nil {
			t.Fatalf("publish %s: %v", id, err)
		}
	}

	cancel()
	close(release)
	bus.Wait()
}

func TestPublishHonoursCancelledContext(t *testing.T) {
	bus := NewBus(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := bus.Publish(ctx, "nobody", contractsv1.Envelope{EventID: "x"}); err != nil {
		t.Fatalf("publish without subscribers should succeed, got %v", err)
	}
}

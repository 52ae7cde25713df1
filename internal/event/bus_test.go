package event

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"vfswatch/internal/metrics"
)

func newTestBus(t *testing.T, opts BusOptions) *Bus[string] {
	t.Helper()
	if opts.Registry == nil {
		opts.Registry = &metrics.Registry{}
	}
	bus := NewBus[string](context.Background(), opts)
	t.Cleanup(bus.Close)
	return bus
}

func TestBusDeliversToSubscriber(t *testing.T) {
	bus := newTestBus(t, BusOptions{Name: "changes"})
	output, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish("/src/main.go")

	select {
	case got := <-output:
		if got != "/src/main.go" {
			t.Fatalf("expected published value, got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestBusFilteredSubscription(t *testing.T) {
	bus := newTestBus(t, BusOptions{})
	output, cancel := bus.SubscribeFiltered(func(path string) bool {
		return strings.HasSuffix(path, ".go")
	})
	defer cancel()

	bus.Publish("/src/readme.md")
	bus.Publish("/src/main.go")

	select {
	case got := <-output:
		if got != "/src/main.go" {
			t.Fatalf("expected filtered value, got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
	select {
	case got := <-output:
		t.Fatalf("expected filtered-out value to be dropped, got %q", got)
	default:
	}
}

func TestBusCountsDropsForSlowSubscriber(t *testing.T) {
	bus := newTestBus(t, BusOptions{SubscriberBufferSize: 1})
	_, cancel := bus.Subscribe()
	defer cancel()

	gofakeit.Seed(11)
	for i := 0; i < 10; i++ {
		bus.Publish("/" + gofakeit.Word() + "/" + gofakeit.Word() + ".go")
	}

	published, dropped := bus.Counts()
	if published != 10 {
		t.Fatalf("expected 10 published, got %d", published)
	}
	if dropped != 9 {
		t.Fatalf("expected 9 dropped with buffer of 1, got %d", dropped)
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	bus := newTestBus(t, BusOptions{})
	output, cancel := bus.Subscribe()
	cancel()

	if _, ok := <-output; ok {
		t.Fatal("expected channel closed after cancel")
	}
	if bus.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", bus.SubscriberCount())
	}
}

func TestBusCloseOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := NewBus[string](ctx, BusOptions{Registry: &metrics.Registry{}})
	output, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	cancel()

	select {
	case _, ok := <-output:
		if ok {
			t.Fatal("expected closed channel after context cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for close")
	}
}

func TestBusMaxSubscribers(t *testing.T) {
	bus := newTestBus(t, BusOptions{MaxSubscribers: 1})
	_, cancelFirst := bus.Subscribe()
	defer cancelFirst()

	output, cancelSecond := bus.Subscribe()
	defer cancelSecond()
	if _, ok := <-output; ok {
		t.Fatal("expected second subscription rejected")
	}
}

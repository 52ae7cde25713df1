package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vfswatch/internal/event"
	"vfswatch/internal/fswatch"
	"vfswatch/internal/logging"
	"vfswatch/internal/metrics"
	"vfswatch/internal/snapshot"
	"vfswatch/internal/vfs"
)

func TestChangePublisherPublishesChangeNotification(t *testing.T) {
	bus := event.NewBus[event.Notification](context.Background(), event.BusOptions{
		Registry: &metrics.Registry{},
	})
	defer bus.Close()
	output, cancel := bus.Subscribe()
	defer cancel()

	publisher := newChangePublisher(bus, &metrics.Registry{}, 0)
	publisher.HandleChange(vfs.ChangeEvent{Kind: vfs.KindModified, Path: "/src/main.go"})

	select {
	case notification := <-output:
		if notification.EventType != event.TypeChange {
			t.Fatalf("expected change notification, got %q", notification.EventType)
		}
		if notification.Kind != "modified" || notification.Path != "/src/main.go" {
			t.Fatalf("unexpected notification: %+v", notification)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func TestChangePublisherCoalescesBursts(t *testing.T) {
	counters := &metrics.Registry{}
	bus := event.NewBus[event.Notification](context.Background(), event.BusOptions{
		Registry: counters,
	})
	defer bus.Close()
	output, cancel := bus.Subscribe()
	defer cancel()

	publisher := newChangePublisher(bus, counters, 40*time.Millisecond)
	defer publisher.stopDebounce()

	publisher.HandleChange(vfs.ChangeEvent{Kind: vfs.KindCreated, Path: "/src/main.go"})
	publisher.HandleChange(vfs.ChangeEvent{Kind: vfs.KindModified, Path: "/src/main.go"})
	publisher.HandleChange(vfs.ChangeEvent{Kind: vfs.KindModified, Path: "/src/main.go"})
	publisher.HandleChange(vfs.ChangeEvent{Kind: vfs.KindCreated, Path: "/src/other.go"})

	received := make(map[string]string)
	for len(received) < 2 {
		select {
		case notification := <-output:
			received[notification.Path] = notification.Kind
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, received %v", received)
		}
	}
	// The burst on main.go settles to its latest notification.
	if received["/src/main.go"] != "modified" {
		t.Fatalf("expected latest kind for burst path, got %v", received)
	}
	if received["/src/other.go"] != "created" {
		t.Fatalf("expected distinct paths delivered separately, got %v", received)
	}

	select {
	case notification := <-output:
		t.Fatalf("unexpected extra notification: %+v", notification)
	case <-time.After(100 * time.Millisecond):
	}

	var exposition strings.Builder
	if err := counters.WritePrometheus(&exposition); err != nil {
		t.Fatalf("write metrics: %v", err)
	}
	if !strings.Contains(exposition.String(), "vfswatch_events_coalesced_total 2") {
		t.Fatalf("expected two coalesced events, got:\n%s", exposition.String())
	}
}

func TestChangePublisherLostStateBypassesDebounce(t *testing.T) {
	bus := event.NewBus[event.Notification](context.Background(), event.BusOptions{
		Registry: &metrics.Registry{},
	})
	defer bus.Close()
	output, cancel := bus.Subscribe()
	defer cancel()

	publisher := newChangePublisher(bus, &metrics.Registry{}, time.Hour)
	defer publisher.stopDebounce()
	publisher.HandleLostState()

	select {
	case notification := <-output:
		if notification.EventType != event.TypeLostState {
			t.Fatalf("expected lost-state notification, got %q", notification.EventType)
		}
	case <-time.After(time.Second):
		t.Fatal("expected lost-state notification immediately")
	}
}

func TestStopDebounceCancelsPendingNotifications(t *testing.T) {
	bus := event.NewBus[event.Notification](context.Background(), event.BusOptions{
		Registry: &metrics.Registry{},
	})
	defer bus.Close()
	output, cancel := bus.Subscribe()
	defer cancel()

	publisher := newChangePublisher(bus, &metrics.Registry{}, 20*time.Millisecond)
	publisher.HandleChange(vfs.ChangeEvent{Kind: vfs.KindModified, Path: "/src/main.go"})
	publisher.stopDebounce()

	select {
	case notification := <-output:
		t.Fatalf("expected pending notification dropped, got %+v", notification)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestChangePublisherLostStateSignalsResync(t *testing.T) {
	bus := event.NewBus[event.Notification](context.Background(), event.BusOptions{
		Registry: &metrics.Registry{},
	})
	defer bus.Close()

	publisher := newChangePublisher(bus, &metrics.Registry{}, 0)
	publisher.HandleLostState()
	publisher.HandleLostState()

	select {
	case <-publisher.lost:
	default:
		t.Fatal("expected pending resync signal")
	}
	select {
	case <-publisher.lost:
		t.Fatal("expected lost-state signals to coalesce")
	default:
	}
}

func TestLateHooksDelegatesAfterBind(t *testing.T) {
	hooks := &lateHooks{}
	location := snapshot.Location{Path: "/a", State: snapshot.StateComplete}

	// Unbound hooks must be safe to call.
	hooks.WatchRootAdded(location)

	recorder := &recordingHooks{}
	hooks.bind(recorder)
	hooks.WatchRootAdded(location)
	hooks.WatchRootRemoved(location)

	if recorder.added != 1 || recorder.removed != 1 {
		t.Fatalf("expected delegation after bind, got added=%d removed=%d",
			recorder.added, recorder.removed)
	}
}

type recordingHooks struct {
	added   int
	removed int
}

func (h *recordingHooks) WatchRootAdded(snapshot.Location)   { h.added++ }
func (h *recordingHooks) WatchRootRemoved(snapshot.Location) { h.removed++ }

func TestRootSyncerSyncAllRegistersRoots(t *testing.T) {
	dir := t.TempDir()
	mustWatch := filepath.Join(dir, "always")
	root := filepath.Join(dir, "root")
	for _, path := range []string{mustWatch, root} {
		if err := os.Mkdir(path, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	logger := logging.NewLoggerWithOutput(nil, logging.LevelError, nil)
	counters := &metrics.Registry{}
	bus := event.NewBus[event.Notification](context.Background(), event.BusOptions{Registry: counters})
	defer bus.Close()

	publisher := newChangePublisher(bus, counters, 0)
	factory, source := fswatch.Factory(fswatch.Options{Logger: logger})
	hooks := &lateHooks{}
	registry, err := vfs.NewRegistry(factory, nil, []string{mustWatch}, publisher, hooks, logger)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	defer registry.Close()

	counting := &recordingHooks{}
	hooks.bind(counting)

	syncer := &rootSyncer{
		registry: registry,
		source:   source(),
		roots:    []string{root},
		logger:   logger,
	}
	if err := syncer.syncAll(); err != nil {
		t.Fatalf("sync all: %v", err)
	}

	if counting.added != 1 {
		t.Fatalf("expected one watch root reported, got %d", counting.added)
	}
}

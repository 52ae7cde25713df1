package main

import (
	"strconv"
	"sync"
	"time"

	"vfswatch/internal/event"
	"vfswatch/internal/fswatch"
	"vfswatch/internal/logging"
	"vfswatch/internal/metrics"
	"vfswatch/internal/snapshot"
	"vfswatch/internal/vfs"
)

// changePublisher adapts the registry's change handler to the notification
// bus. Both handler methods run on the native source's goroutine and only
// perform non-blocking work: a burst of changes on one path parks behind a
// per-path timer and only the latest notification is published when the
// burst settles. Lost-state signals are never delayed.
type changePublisher struct {
	bus      *event.Bus[event.Notification]
	counters *metrics.Registry
	lost     chan struct{}

	mu        sync.Mutex
	debouncer *debouncer
}

func newChangePublisher(bus *event.Bus[event.Notification], counters *metrics.Registry, debounce time.Duration) *changePublisher {
	return &changePublisher{
		bus:       bus,
		counters:  counters,
		lost:      make(chan struct{}, 1),
		debouncer: newDebouncer(debounce),
	}
}

func (p *changePublisher) HandleChange(change vfs.ChangeEvent) {
	p.counters.IncEventsReceived()
	notification := event.NewChangeNotification(change.Kind.String(), change.Path)

	p.mu.Lock()
	if p.debouncer == nil {
		p.mu.Unlock()
		p.bus.Publish(notification)
		return
	}
	replaced := p.debouncer.schedule(change.Path, notification, p.flush)
	p.mu.Unlock()
	if replaced {
		p.counters.IncEventsCoalesced()
	}
}

func (p *changePublisher) flush(path string) {
	p.mu.Lock()
	notification, ok := p.debouncer.pop(path)
	p.mu.Unlock()
	if ok {
		p.bus.Publish(notification)
	}
}

// stopDebounce cancels pending flush timers. Called during shutdown before
// the bus closes.
func (p *changePublisher) stopDebounce() {
	p.mu.Lock()
	p.debouncer.stop()
	p.debouncer = nil
	p.mu.Unlock()
}

func (p *changePublisher) HandleLostState() {
	p.counters.IncLostStateSignals()
	p.bus.Publish(event.NewLostStateNotification())
	select {
	case p.lost <- struct{}{}:
	default:
	}
}

// startResync rebuilds the watched state whenever a lost-state signal
// arrives, off the native callback goroutine.
func (p *changePublisher) startResync(syncer *rootSyncer) (stop func()) {
	quit := make(chan struct{})
	go func() {
		for {
			select {
			case <-p.lost:
				syncer.resync()
			case <-quit:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(quit) })
	}
}

// lateHooks lets the registry be constructed before the hooks target
// exists: the native source only comes to life inside the registry's
// watcher factory.
type lateHooks struct {
	mu    sync.Mutex
	inner vfs.WatchRootHooks
}

func (h *lateHooks) bind(inner vfs.WatchRootHooks) {
	h.mu.Lock()
	h.inner = inner
	h.mu.Unlock()
}

func (h *lateHooks) WatchRootAdded(location snapshot.Location) {
	h.mu.Lock()
	inner := h.inner
	h.mu.Unlock()
	if inner != nil {
		inner.WatchRootAdded(location)
	}
}

func (h *lateHooks) WatchRootRemoved(location snapshot.Location) {
	h.mu.Lock()
	inner := h.inner
	h.mu.Unlock()
	if inner != nil {
		inner.WatchRootRemoved(location)
	}
}

// countingHooks layers watch-root metrics over the registration policy.
type countingHooks struct {
	inner    vfs.WatchRootHooks
	counters *metrics.Registry
}

func (h *countingHooks) WatchRootAdded(location snapshot.Location) {
	h.counters.IncWatchRootsAdded()
	h.inner.WatchRootAdded(location)
}

func (h *countingHooks) WatchRootRemoved(location snapshot.Location) {
	h.counters.IncWatchRootsRemoved()
	h.inner.WatchRootRemoved(location)
}

// rootSyncer derives the watched state from the configured roots: it scans
// each root into a snapshot tree and feeds the tree to the registry, which
// reports the resulting watch roots to the registration hooks.
type rootSyncer struct {
	registry *vfs.Registry
	source   *fswatch.Source
	roots    []string
	logger   *logging.Logger
}

func (s *rootSyncer) syncAll() error {
	for _, mustWatch := range s.registry.MustWatchDirectories() {
		if err := s.source.Add(mustWatch); err != nil {
			return err
		}
	}
	for _, root := range s.roots {
		tree, err := snapshot.Scan(root)
		if err != nil {
			return err
		}
		s.registry.NodeAdded(tree)
	}
	return nil
}

// resync re-derives everything after a lost-state signal. Failures are
// logged and retried on the next signal; the daemon keeps running.
func (s *rootSyncer) resync() {
	s.logger.Warn("watch state lost, rescanning roots", map[string]string{
		"roots": strconv.Itoa(len(s.roots)),
	})
	for _, mustWatch := range s.registry.MustWatchDirectories() {
		if err := s.source.Add(mustWatch); err != nil {
			s.logger.Warn("must-watch re-add failed", map[string]string{
				"path":  mustWatch,
				"error": err.Error(),
			})
		}
	}
	for _, root := range s.roots {
		tree, err := snapshot.Scan(root)
		if err != nil {
			s.logger.Warn("root rescan failed", map[string]string{
				"path":  root,
				"error": err.Error(),
			})
			continue
		}
		s.registry.NodeAdded(tree)
	}
}

// Package metrics collects operational counters for the watch daemon and
// renders them in Prometheus text exposition format.
package metrics

import (
	"fmt"
	"io"
	"sync/atomic"
)

type Registry struct {
	eventsReceived    atomic.Int64
	eventsCoalesced   atomic.Int64
	unknownEvents     atomic.Int64
	lostStateSignals  atomic.Int64
	streamErrors      atomic.Int64
	watchRootsAdded   atomic.Int64
	watchRootsRemoved atomic.Int64
	busPublished      atomic.Int64
	busDropped        atomic.Int64
}

var Default = &Registry{}

func (r *Registry) IncEventsReceived() {
	if r == nil {
		return
	}
	r.eventsReceived.Add(1)
}

func (r *Registry) IncEventsCoalesced() {
	if r == nil {
		return
	}
	r.eventsCoalesced.Add(1)
}

func (r *Registry) IncUnknownEvents() {
	if r == nil {
		return
	}
	r.unknownEvents.Add(1)
}

func (r *Registry) IncLostStateSignals() {
	if r == nil {
		return
	}
	r.lostStateSignals.Add(1)
}

func (r *Registry) IncStreamErrors() {
	if r == nil {
		return
	}
	r.streamErrors.Add(1)
}

func (r *Registry) IncWatchRootsAdded() {
	if r == nil {
		return
	}
	r.watchRootsAdded.Add(1)
}

func (r *Registry) IncWatchRootsRemoved() {
	if r == nil {
		return
	}
	r.watchRootsRemoved.Add(1)
}

func (r *Registry) IncBusPublished() {
	if r == nil {
		return
	}
	r.busPublished.Add(1)
}

func (r *Registry) IncBusDropped() {
	if r == nil {
		return
	}
	r.busDropped.Add(1)
}

func (r *Registry) WritePrometheus(writer io.Writer) error {
	if r == nil {
		return nil
	}

	writeCounter(writer, "vfswatch_events_received_total", "Total change events received from the native source", r.eventsReceived.Load())
	writeCounter(writer, "vfswatch_events_coalesced_total", "Total change events coalesced by debouncing", r.eventsCoalesced.Load())
	writeCounter(writer, "vfswatch_unknown_events_total", "Total unclassifiable native events", r.unknownEvents.Load())
	writeCounter(writer, "vfswatch_lost_state_signals_total", "Total lost-state signals delivered to consumers", r.lostStateSignals.Load())
	writeCounter(writer, "vfswatch_stream_errors_total", "Total native stream errors", r.streamErrors.Load())
	writeCounter(writer, "vfswatch_watch_roots_added_total", "Total watch roots registered", r.watchRootsAdded.Load())
	writeCounter(writer, "vfswatch_watch_roots_removed_total", "Total watch roots released", r.watchRootsRemoved.Load())
	writeCounter(writer, "vfswatch_bus_published_total", "Total events published to the change bus", r.busPublished.Load())
	writeCounter(writer, "vfswatch_bus_dropped_total", "Total events dropped by slow bus subscribers", r.busDropped.Load())
	return nil
}

func writeCounter(writer io.Writer, metric, help string, value int64) {
	fmt.Fprintf(writer, "# HELP %s %s\n", metric, help)
	fmt.Fprintf(writer, "# TYPE %s counter\n", metric)
	fmt.Fprintf(writer, "%s %d\n", metric, value)
}

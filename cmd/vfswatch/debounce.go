package main

import (
	"time"

	"vfswatch/internal/event"
)

type debounceEntry struct {
	timer        *time.Timer
	notification event.Notification
}

// debouncer coalesces rapid successive notifications per path: each schedule
// call replaces the pending notification and pushes the flush timer out, so
// only the latest one survives a burst. Callers hold their own lock around
// every method; a nil debouncer disables coalescing.
type debouncer struct {
	duration time.Duration
	entries  map[string]debounceEntry
}

func newDebouncer(duration time.Duration) *debouncer {
	if duration <= 0 {
		return nil
	}
	return &debouncer{
		duration: duration,
		entries:  make(map[string]debounceEntry),
	}
}

// schedule queues the notification for delayed flushing and reports whether
// a pending notification for the same path was replaced.
func (debouncer *debouncer) schedule(path string, notification event.Notification, flush func(string)) bool {
	if debouncer == nil {
		return false
	}
	entry := debouncer.entries[path]
	replaced := entry.timer != nil
	entry.notification = notification
	if entry.timer == nil {
		entry.timer = time.AfterFunc(debouncer.duration, func() {
			flush(path)
		})
	} else {
		entry.timer.Reset(debouncer.duration)
	}
	debouncer.entries[path] = entry
	return replaced
}

func (debouncer *debouncer) pop(path string) (event.Notification, bool) {
	if debouncer == nil {
		return event.Notification{}, false
	}
	entry, ok := debouncer.entries[path]
	if !ok {
		return event.Notification{}, false
	}
	delete(debouncer.entries, path)
	return entry.notification, true
}

func (debouncer *debouncer) stop() {
	if debouncer == nil {
		return
	}
	for _, entry := range debouncer.entries {
		if entry.timer != nil {
			entry.timer.Stop()
		}
	}
	debouncer.entries = nil
}

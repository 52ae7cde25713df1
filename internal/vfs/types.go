package vfs

import "vfswatch/internal/snapshot"

// ChangeEvent is a single translated change. Path is absolute and cleaned.
// The event is owned by the handler invocation and must not be retained.
type ChangeEvent struct {
	Kind EventKind
	Path string
}

// ChangeHandler consumes translated changes. Both methods are invoked on the
// native source's delivery goroutine and must not block.
type ChangeHandler interface {
	HandleChange(event ChangeEvent)
	// HandleLostState signals that the tracked watch state can no longer be
	// trusted for the current session and must be re-derived.
	HandleLostState()
}

// WatchFilter decides whether a changed path is of interest. Implementations
// must be pure; the registry keeps the predicate for its whole lifetime.
type WatchFilter func(path string) bool

// Callback is the surface the registry hands to the native watcher factory.
type Callback interface {
	OnPathChanged(kind NativeEventKind, path string)
	OnError(err error)
}

// NativeWatcher is the opaque handle produced by the watcher factory.
type NativeWatcher interface {
	Close() error
}

// WatcherFactory produces a live native watcher delivering events to the
// given callback. The factory owns platform specifics; the registry only
// keeps the returned handle.
type WatcherFactory func(callback Callback) (NativeWatcher, error)

// WatchRootHooks receives the maximal complete-location subtree roots that
// come into or go out of existence as the snapshot tree mutates. The actual
// registration policy lives behind this interface.
type WatchRootHooks interface {
	WatchRootAdded(location snapshot.Location)
	WatchRootRemoved(location snapshot.Location)
}

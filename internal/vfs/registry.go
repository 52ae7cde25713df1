package vfs

import (
	"errors"
	"fmt"
	"sync"

	"vfswatch/internal/fsutil"
	"vfswatch/internal/logging"
	"vfswatch/internal/snapshot"
)

// Registry owns a native watcher handle for one watch session. It exposes
// the lifecycle (construction, statistics retrieval, shutdown) and forwards
// snapshot tree mutations to the injected watch-root hooks.
//
// NodeAdded and NodeRemoved assume the single-writer discipline of the
// snapshot tree: the caller must not invoke them concurrently with each
// other or with mutation of the same tree. Using a registry after Close is a
// precondition violation; only Close itself is safe to call again.
type Registry struct {
	watcher   NativeWatcher
	stats     *accumulator
	filter    WatchFilter
	mustWatch []string
	hooks     WatchRootHooks
	closeOnce sync.Once
}

// NewRegistry wires the event translator into the native watcher factory and
// canonicalizes the must-watch directories into a deduplicated set.
func NewRegistry(
	factory WatcherFactory,
	filter WatchFilter,
	mustWatchDirs []string,
	handler ChangeHandler,
	hooks WatchRootHooks,
	logger *logging.Logger,
) (*Registry, error) {
	if factory == nil {
		return nil, errors.New("watcher factory is required")
	}
	if handler == nil {
		return nil, errors.New("change handler is required")
	}

	mustWatch, err := fsutil.CanonicalizeSet(mustWatchDirs)
	if err != nil {
		return nil, fmt.Errorf("must-watch directories: %w", err)
	}

	stats := newAccumulator()
	watcher, err := factory(&eventTranslator{
		stats:   stats,
		handler: handler,
		logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create native watcher: %w", err)
	}

	return &Registry{
		watcher:   watcher,
		stats:     stats,
		filter:    filter,
		mustWatch: mustWatch,
		hooks:     hooks,
	}, nil
}

// GetAndResetStatistics atomically returns the statistics accumulated since
// the previous call and starts a fresh accumulation period.
func (r *Registry) GetAndResetStatistics() Statistics {
	return r.stats.snapshotAndReset()
}

// WatchFilter returns the path-inclusion predicate supplied at construction.
// A nil filter means every path is of interest.
func (r *Registry) WatchFilter() WatchFilter {
	return r.filter
}

// MustWatchDirectories returns the canonicalized always-watched directories.
func (r *Registry) MustWatchDirectories() []string {
	out := make([]string, len(r.mustWatch))
	copy(out, r.mustWatch)
	return out
}

// NodeAdded reports the watch roots that came into existence with the given
// subtree: every node holding a complete location snapshot whose parent does
// not. Complete nodes under a complete parent are covered by the ancestor's
// watch and are skipped.
func (r *Registry) NodeAdded(node *snapshot.Node) {
	if r.hooks == nil {
		return
	}
	visitWatchRoots(node, r.hooks.WatchRootAdded)
}

// NodeRemoved reports the watch roots that went out of existence with the
// given subtree, using the same maximal complete-subtree rule as NodeAdded.
func (r *Registry) NodeRemoved(node *snapshot.Node) {
	if r.hooks == nil {
		return
	}
	visitWatchRoots(node, r.hooks.WatchRootRemoved)
}

// Close releases the native watcher handle. A release failure is returned to
// the caller, never swallowed.
func (r *Registry) Close() error {
	var err error
	r.closeOnce.Do(func() {
		if closeErr := r.watcher.Close(); closeErr != nil {
			err = fmt.Errorf("close native watcher: %w", closeErr)
		}
	})
	return err
}

func visitWatchRoots(node *snapshot.Node, report func(snapshot.Location)) {
	node.Walk(func(visited, parent *snapshot.Node) {
		if isWatchRoot(visited, parent) {
			report(visited.Location())
		}
	})
}

// isWatchRoot implements the watch-root predicate: a complete location whose
// parent location is absent or not complete.
func isWatchRoot(node, parent *snapshot.Node) bool {
	return node.Location().Complete() && !parent.Location().Complete()
}

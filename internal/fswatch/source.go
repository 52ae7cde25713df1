// Package fswatch implements the native watch source boundary on top of
// fsnotify. A Source delivers translated path-change and error callbacks on
// its own goroutine and keeps the underlying watcher alive across transient
// stream failures.
package fswatch

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"vfswatch/internal/logging"
	"vfswatch/internal/vfs"
)

const (
	maxRestartAttempts = 3
	restartBaseDelay   = 200 * time.Millisecond
)

// Options controls Source behavior.
type Options struct {
	Logger *logging.Logger
}

// Source owns an fsnotify watcher and forwards its stream to a vfs.Callback.
type Source struct {
	mutex    sync.Mutex
	watcher  *fsnotify.Watcher
	callback vfs.Callback
	// roots are the paths registered through Add; watched is every path
	// currently added to fsnotify, including directories discovered below
	// recursive roots.
	roots   map[string]struct{}
	watched map[string]struct{}
	closed  bool
	done    chan struct{}
	logger  *logging.Logger

	restartMutex    sync.Mutex
	restartTimer    *time.Timer
	restartAttempts int
}

// New creates a Source delivering events to the given callback.
func New(callback vfs.Callback, options Options) (*Source, error) {
	if callback == nil {
		return nil, errors.New("callback is required")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	source := &Source{
		watcher:  watcher,
		callback: callback,
		roots:    make(map[string]struct{}),
		watched:  make(map[string]struct{}),
		done:     make(chan struct{}),
		logger:   options.Logger,
	}
	source.startForwarder(watcher)
	return source, nil
}

// Factory adapts New into the registry's watcher factory shape.
func Factory(options Options) (vfs.WatcherFactory, func() *Source) {
	var created *Source
	factory := func(callback vfs.Callback) (vfs.NativeWatcher, error) {
		source, err := New(callback, options)
		if err != nil {
			return nil, err
		}
		created = source
		return source, nil
	}
	return factory, func() *Source { return created }
}

// Add registers a path. Directories are watched recursively: every
// subdirectory present now is added, and directories created later under the
// root are picked up from their create events.
func (source *Source) Add(path string) error {
	if source == nil {
		return errors.New("source is nil")
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	source.mutex.Lock()
	if source.closed {
		source.mutex.Unlock()
		return errors.New("source is closed")
	}
	source.roots[path] = struct{}{}
	source.mutex.Unlock()

	if err := source.addWatch(path); err != nil {
		// An unwatched root must not claim coverage of directories
		// created below it later.
		source.mutex.Lock()
		delete(source.roots, path)
		source.mutex.Unlock()
		return err
	}
	if !info.IsDir() {
		return nil
	}
	for _, dir := range collectSubdirs(path) {
		if err := source.addWatch(dir); err != nil {
			source.logWarn("recursive watch add failed", map[string]string{
				"path":  dir,
				"error": err.Error(),
			})
		}
	}
	return nil
}

// Remove unregisters a path and every watched directory below it.
func (source *Source) Remove(path string) error {
	if source == nil {
		return nil
	}

	source.mutex.Lock()
	delete(source.roots, path)
	var drop []string
	for watched := range source.watched {
		if watched == path || isWithinPath(path, watched) {
			drop = append(drop, watched)
			delete(source.watched, watched)
		}
	}
	watcher := source.watcher
	source.mutex.Unlock()

	var removeErr error
	for _, watched := range drop {
		if watcher == nil {
			continue
		}
		if err := watcher.Remove(watched); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
			source.logWarn("watch remove failed", map[string]string{
				"path":  watched,
				"error": err.Error(),
			})
			if removeErr == nil {
				removeErr = err
			}
		}
	}
	return removeErr
}

// Close shuts the source down and releases the fsnotify watcher.
func (source *Source) Close() error {
	if source == nil {
		return nil
	}

	source.mutex.Lock()
	if source.closed {
		source.mutex.Unlock()
		return nil
	}
	source.closed = true
	watcher := source.watcher
	source.mutex.Unlock()

	source.restartMutex.Lock()
	if source.restartTimer != nil {
		source.restartTimer.Stop()
		source.restartTimer = nil
	}
	source.restartMutex.Unlock()

	close(source.done)
	if watcher == nil {
		return nil
	}
	return watcher.Close()
}

func (source *Source) addWatch(path string) error {
	source.mutex.Lock()
	if source.closed {
		source.mutex.Unlock()
		return errors.New("source is closed")
	}
	if _, ok := source.watched[path]; ok {
		source.mutex.Unlock()
		return nil
	}
	source.watched[path] = struct{}{}
	watcher := source.watcher
	source.mutex.Unlock()

	if watcher == nil {
		return nil
	}
	if err := watcher.Add(path); err != nil {
		source.mutex.Lock()
		delete(source.watched, path)
		source.mutex.Unlock()
		return err
	}
	source.logDebug("watch added", path)
	return nil
}

func (source *Source) startForwarder(watcher *fsnotify.Watcher) {
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				source.dispatch(event)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				source.handleError(err)
			case <-source.done:
				return
			}
		}
	}()
}

func (source *Source) dispatch(event fsnotify.Event) {
	kind := nativeKind(event.Op)
	if kind == vfs.NativeCreated {
		source.maybeAddCreatedDir(event.Name)
	}
	source.callback.OnPathChanged(kind, event.Name)
}

// nativeKind maps fsnotify operations onto the native event vocabulary.
// Events carrying no recognized operation bits are reported as unknown.
func nativeKind(op fsnotify.Op) vfs.NativeEventKind {
	switch {
	case op.Has(fsnotify.Create):
		return vfs.NativeCreated
	case op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename):
		return vfs.NativeRemoved
	case op.Has(fsnotify.Write) || op.Has(fsnotify.Chmod):
		return vfs.NativeModified
	default:
		return vfs.NativeUnknown
	}
}

// maybeAddCreatedDir keeps recursive roots covered when new directories
// appear below them.
func (source *Source) maybeAddCreatedDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	source.mutex.Lock()
	covered := false
	for root := range source.roots {
		if isWithinPath(root, path) {
			covered = true
			break
		}
	}
	source.mutex.Unlock()
	if !covered {
		return
	}

	if err := source.addWatch(path); err != nil {
		source.logWarn("created directory watch failed", map[string]string{
			"path":  path,
			"error": err.Error(),
		})
	}
}

func collectSubdirs(root string) []string {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() || path == root {
			return nil
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs
}

func isWithinPath(parent, child string) bool {
	rel, err := filepath.Rel(filepath.Clean(parent), filepath.Clean(child))
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !hasParentPrefix(rel)
}

func hasParentPrefix(rel string) bool {
	prefix := ".." + string(os.PathSeparator)
	return len(rel) >= len(prefix) && rel[:len(prefix)] == prefix
}

func (source *Source) logWarn(message string, fields map[string]string) {
	if source == nil || source.logger == nil {
		return
	}
	source.logger.Warn(message, fields)
}

func (source *Source) logDebug(message, path string) {
	if source == nil || source.logger == nil {
		return
	}
	source.logger.Debug(message, map[string]string{"path": path})
}

package fswatch

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

// handleError reports a stream fault to the callback and tries to keep the
// native stream alive by rebuilding the fsnotify watcher with capped
// exponential backoff. Every fault is surfaced; restart only limits how long
// the stream stays broken.
func (source *Source) handleError(err error) {
	if err == nil {
		return
	}
	source.callback.OnError(err)
	source.scheduleRestart()
}

func restartDelay(attempt int) time.Duration {
	return restartBaseDelay * time.Duration(1<<attempt)
}

func (source *Source) scheduleRestart() {
	if source == nil {
		return
	}
	source.restartMutex.Lock()
	if source.restartTimer != nil || source.restartAttempts >= maxRestartAttempts {
		source.restartMutex.Unlock()
		return
	}
	delay := restartDelay(source.restartAttempts)
	source.restartAttempts++
	source.restartTimer = time.AfterFunc(delay, source.performRestart)
	source.restartMutex.Unlock()
}

func (source *Source) performRestart() {
	if source == nil {
		return
	}
	restartErr := source.restart()

	source.restartMutex.Lock()
	source.restartTimer = nil
	if restartErr == nil {
		source.restartAttempts = 0
		source.restartMutex.Unlock()
		return
	}
	source.restartMutex.Unlock()

	source.logWarn("watcher restart failed", map[string]string{
		"error": restartErr.Error(),
	})
	source.scheduleRestart()
}

func (source *Source) restart() error {
	source.mutex.Lock()
	if source.closed {
		source.mutex.Unlock()
		return nil
	}
	paths := make([]string, 0, len(source.watched))
	for path := range source.watched {
		paths = append(paths, path)
	}
	source.mutex.Unlock()

	replacement, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	for _, path := range paths {
		if err := replacement.Add(path); err != nil {
			source.logWarn("watcher re-add failed", map[string]string{
				"path":  path,
				"error": err.Error(),
			})
		}
	}

	return source.installReplacement(replacement, paths)
}

// installReplacement swaps the replacement in and catches up on watches that
// were added after the snapshot was taken: those landed only on the doomed
// watcher and must be re-registered on the replacement.
func (source *Source) installReplacement(replacement *fsnotify.Watcher, snapshot []string) error {
	already := make(map[string]struct{}, len(snapshot))
	for _, path := range snapshot {
		already[path] = struct{}{}
	}

	source.mutex.Lock()
	if source.closed {
		source.mutex.Unlock()
		_ = replacement.Close()
		return nil
	}
	var missing []string
	for path := range source.watched {
		if _, ok := already[path]; !ok {
			missing = append(missing, path)
		}
	}
	previous := source.watcher
	source.watcher = replacement
	source.mutex.Unlock()

	for _, path := range missing {
		if err := replacement.Add(path); err != nil {
			source.logWarn("watcher re-add failed", map[string]string{
				"path":  path,
				"error": err.Error(),
			})
		}
	}

	source.startForwarder(replacement)
	if previous != nil {
		_ = previous.Close()
	}
	return nil
}

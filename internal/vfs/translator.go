package vfs

import (
	"path/filepath"

	"vfswatch/internal/logging"
)

// eventTranslator adapts the native callback protocol into accumulator
// updates and change handler calls. It runs on goroutines owned by the
// native source, so every method is O(1) and never blocks.
type eventTranslator struct {
	stats   *accumulator
	handler ChangeHandler
	logger  *logging.Logger
}

func (t *eventTranslator) OnPathChanged(kind NativeEventKind, path string) {
	if kind == NativeUnknown {
		t.stats.recordUnknownEvent()
		t.handler.HandleLostState()
		return
	}
	t.stats.recordEvent()
	t.handler.HandleChange(ChangeEvent{
		Kind: kindFromNative(kind),
		Path: normalizePath(path),
	})
}

func (t *eventTranslator) OnError(err error) {
	if err == nil {
		return
	}
	if t.logger != nil {
		t.logger.Error("error while receiving file changes", map[string]string{
			"error": err.Error(),
		})
	}
	t.stats.recordError(err)
	t.handler.HandleLostState()
}

// normalizePath makes the raw native path absolute and cleaned. Native
// sources deliver absolute paths; the Abs fallback only matters when the
// working directory is unavailable.
func normalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

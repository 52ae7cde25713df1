package fswatch

import (
	"vfswatch/internal/logging"
	"vfswatch/internal/snapshot"
	"vfswatch/internal/vfs"
)

// Hooks implements the registry's watch-root strategy by registering and
// releasing roots on a Source. Roots the filter rejects are skipped.
type Hooks struct {
	source *Source
	filter vfs.WatchFilter
	logger *logging.Logger
}

func NewHooks(source *Source, filter vfs.WatchFilter, logger *logging.Logger) *Hooks {
	return &Hooks{
		source: source,
		filter: filter,
		logger: logger,
	}
}

func (h *Hooks) WatchRootAdded(location snapshot.Location) {
	if h == nil || h.source == nil {
		return
	}
	if h.filter != nil && !h.filter(location.Path) {
		return
	}
	if err := h.source.Add(location.Path); err != nil {
		h.logWarn("watch root add failed", location.Path, err)
	}
}

func (h *Hooks) WatchRootRemoved(location snapshot.Location) {
	if h == nil || h.source == nil {
		return
	}
	if h.filter != nil && !h.filter(location.Path) {
		return
	}
	if err := h.source.Remove(location.Path); err != nil {
		h.logWarn("watch root remove failed", location.Path, err)
	}
}

func (h *Hooks) logWarn(message, path string, err error) {
	if h.logger == nil {
		return
	}
	h.logger.Warn(message, map[string]string{
		"path":  path,
		"error": err.Error(),
	})
}

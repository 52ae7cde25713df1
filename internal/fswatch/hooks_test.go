package fswatch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vfswatch/internal/snapshot"
	"vfswatch/internal/vfs"
)

func TestHooksRegistersWatchRoot(t *testing.T) {
	dir := t.TempDir()
	source, callback := newTestSource(t)
	hooks := NewHooks(source, nil, nil)

	hooks.WatchRootAdded(snapshot.Location{Path: dir, State: snapshot.StateComplete})

	path := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	waitForChange(t, callback, func(c change) bool {
		return c.path == path && c.kind == vfs.NativeCreated
	})

	hooks.WatchRootRemoved(snapshot.Location{Path: dir, State: snapshot.StateComplete})
	source.mutex.Lock()
	remaining := len(source.watched)
	source.mutex.Unlock()
	if remaining != 0 {
		t.Fatalf("expected all watches released, got %d", remaining)
	}
}

func TestHooksSkipsFilteredRoots(t *testing.T) {
	dir := t.TempDir()
	source, _ := newTestSource(t)
	filter := func(path string) bool {
		return !strings.Contains(path, string(filepath.Separator)+"skip")
	}
	hooks := NewHooks(source, filter, nil)

	skipped := filepath.Join(dir, "skip")
	if err := os.Mkdir(skipped, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	hooks.WatchRootAdded(snapshot.Location{Path: skipped, State: snapshot.StateComplete})

	source.mutex.Lock()
	watched := len(source.watched)
	source.mutex.Unlock()
	if watched != 0 {
		t.Fatalf("expected filtered root to be skipped, got %d watches", watched)
	}
}

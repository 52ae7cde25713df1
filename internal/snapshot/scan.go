package snapshot

import (
	"os"
	"path/filepath"
)

// Scan builds a complete snapshot tree for an existing file or directory.
// Directory entries that disappear mid-scan are recorded as partial nodes
// rather than failing the whole scan.
func Scan(root string) (*Node, error) {
	info, err := os.Lstat(root)
	if err != nil {
		return nil, err
	}
	return scan(root, info.IsDir()), nil
}

func scan(path string, isDir bool) *Node {
	node := NewNode(Location{Path: path, State: StateComplete})
	if !isDir {
		return node
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return NewNode(Location{Path: path, State: StatePartial})
	}
	for _, entry := range entries {
		node.AddChild(scan(filepath.Join(path, entry.Name()), entry.IsDir()))
	}
	return node
}

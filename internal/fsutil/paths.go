// Package fsutil provides path canonicalization helpers shared by the watch
// registry and its collaborators.
package fsutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Canonicalize resolves a possibly relative path into a cleaned absolute one.
func Canonicalize(pathValue string) (string, error) {
	trimmed := strings.TrimSpace(pathValue)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("canonicalize %q: %w", pathValue, err)
	}
	return filepath.Clean(abs), nil
}

// CanonicalizeSet canonicalizes every input path and removes duplicates,
// preserving first-seen order.
func CanonicalizeSet(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, value := range paths {
		canonical, err := Canonicalize(value)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out, nil
}

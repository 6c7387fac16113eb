package reconciler

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// installFile compares-and-overwrites a managed artifact. It reports whether
// the file changed, which is what keeps a no-change apply free of semantic
// effect: unchanged content means no daemon-reload and no proxy reload.
func installFile(path string, content []byte, perm os.FileMode) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, content) {
		return false, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, perm); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

// removeFile deletes a managed artifact, reporting whether it existed.
// Already-absent files are not an error.
func removeFile(path string) (bool, error) {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("removing %s: %w", path, err)
	}
	return true, nil
}

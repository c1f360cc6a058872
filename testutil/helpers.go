package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes data to dir/name, creating parent directories, and
// returns the resulting path.
func WriteFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// CreateTempDir returns a scratch directory owned by the test
func CreateTempDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

package integration

import (
	"os"
	"path/filepath"
	"testing"
)

// writeDocument writes a value document into dir and returns its path.
func writeDocument(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// ABOUTME: Test utilities for creating isolated charm clients
// ABOUTME: Opens a local Badger database in a per-test temp directory

package charm

import (
	"path/filepath"
	"sync"
	"testing"
)

// NewTestClient opens a local-only client rooted in t.TempDir().
// The returned cleanup closes the database and is also registered with t.Cleanup,
// so deferring it is optional.
func NewTestClient(t *testing.T) (*Client, func()) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), AppName)
	c, err := OpenLocal(dir, &Config{Host: "localhost"})
	if err != nil {
		t.Fatalf("Failed to open test client: %v", err)
	}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			if err := c.Close(); err != nil {
				t.Logf("Warning: failed to close test database: %v", err)
			}
		})
	}
	t.Cleanup(cleanup)
	return c, cleanup
}

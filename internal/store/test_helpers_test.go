package store

import (
	"path/filepath"
	"testing"
)

// createTestStore creates a new SQLite store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, "test")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestBolt creates a new bbolt store in a temp dir for testing.
func createTestBolt(t *testing.T) *Bolt {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.bolt")
	b, err := OpenBolt(path, "test")
	if err != nil {
		t.Fatalf("OpenBolt() failed: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

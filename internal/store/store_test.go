package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path, "")
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
	assert.Equal(t, DefaultScope, s.Scope())
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := Open(path, "a")
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "projects", "[]"))
	require.NoError(t, s.Close())

	for i := 0; i < 3; i++ {
		s, err := Open(path, "a")
		require.NoError(t, err, "Open() iteration %d", i)
		require.NoError(t, s.Close())
	}

	s, err = Open(path, "a")
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "projects")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestMigrateToV1_AddsUpdatedAt(t *testing.T) {
	s := createTestStore(t)

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('kv') WHERE name = 'updated_at'`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Running it again is a no-op.
	assert.NoError(t, migrateToV1(s.db))
}

func TestStore_ScopesAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	ctx := context.Background()

	a, err := Open(path, "alice")
	require.NoError(t, err)
	require.NoError(t, a.Set(ctx, "projects", `[{"id":"1"}]`))
	require.NoError(t, a.Close())

	b, err := Open(path, "bob")
	require.NoError(t, err)
	defer b.Close()

	_, ok, err := b.Get(ctx, "projects")
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := b.Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStore_SetStampsUpdatedAt(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Set(context.Background(), "k", "v"))

	var updated string
	err := s.db.QueryRow(`SELECT updated_at FROM kv WHERE scope = ? AND key = ?`, "test", "k").Scan(&updated)
	require.NoError(t, err)
	assert.NotEmpty(t, updated)
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		backend Backend
		path    string
	}{
		{BackendMemory, ""},
		{BackendSQLite, filepath.Join(dir, "x.db")},
		{BackendBolt, filepath.Join(dir, "x.bolt")},
	}

	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			kv, err := OpenBackend(ctx, Options{Backend: tt.backend, Path: tt.path, Scope: "s"})
			require.NoError(t, err)
			defer kv.Close()

			require.NoError(t, kv.Set(ctx, "k", "v"))
			v, ok, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "v", v)
		})
	}

	_, err := OpenBackend(ctx, Options{Backend: "etcd"})
	assert.ErrorContains(t, err, `unknown store backend "etcd"`)
}

func TestGlobEscape(t *testing.T) {
	assert.Equal(t, `s:tableData_1_a\*b\?`, globEscape("s:tableData_1_a*b?"))
	assert.Equal(t, `x\[y\]`, globEscape("x[y]"))
}

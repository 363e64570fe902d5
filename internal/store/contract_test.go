package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns every KeyValueStore implementation available in this
// environment. Redis is included only when DBSIM_REDIS_ADDR is set.
func backends(t *testing.T) map[string]KeyValueStore {
	t.Helper()
	out := map[string]KeyValueStore{
		"memory": NewMemory(),
		"sqlite": createTestStore(t),
		"bolt":   createTestBolt(t),
	}

	if addr := os.Getenv("DBSIM_REDIS_ADDR"); addr != "" {
		r, err := OpenRedis(context.Background(), addr, "dbsim-test-"+t.Name())
		require.NoError(t, err)
		t.Cleanup(func() {
			keys, _ := r.Keys(context.Background(), "")
			for _, k := range keys {
				_ = r.Remove(context.Background(), k)
			}
			r.Close()
		})
		out["redis"] = r
	}
	return out
}

func TestContract_GetMissing(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v, ok, err := kv.Get(context.Background(), "nope")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Empty(t, v)
		})
	}
}

func TestContract_SetGetOverwrite(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set(ctx, "tables_1", `[]`))
			require.NoError(t, kv.Set(ctx, "tables_1", `[{"name":"users"}]`))

			v, ok, err := kv.Get(ctx, "tables_1")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[{"name":"users"}]`, v)
		})
	}
}

func TestContract_EmptyValueIsPresent(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set(ctx, "k", ""))

			_, ok, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestContract_RemoveIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set(ctx, "k", "v"))
			require.NoError(t, kv.Remove(ctx, "k"))
			require.NoError(t, kv.Remove(ctx, "k"))

			_, ok, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestContract_KeysByPrefix(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"tableData_1_users", "tableData_1_products", "tableData_12_x", "tables_1", "projects"} {
				require.NoError(t, kv.Set(ctx, k, "{}"))
			}

			keys, err := kv.Keys(ctx, "tableData_1_")
			require.NoError(t, err)
			assert.Equal(t, []string{"tableData_1_products", "tableData_1_users"}, keys)

			none, err := kv.Keys(ctx, "tableStructure_")
			require.NoError(t, err)
			assert.NotNil(t, none)
			assert.Empty(t, none)
		})
	}
}

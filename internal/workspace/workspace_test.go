package workspace

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dbsim/internal/codec"
	"github.com/roach88/dbsim/internal/connect"
	"github.com/roach88/dbsim/internal/dberr"
	"github.com/roach88/dbsim/internal/model"
	"github.com/roach88/dbsim/internal/query"
	"github.com/roach88/dbsim/internal/store"
	"github.com/roach88/dbsim/internal/testutil"
)

func newTestWorkspace(t *testing.T, kv store.KeyValueStore) *Workspace {
	t.Helper()
	if kv == nil {
		kv = store.NewMemory()
	}
	w := New(kv, Options{
		IDs:       testutil.NewFixedIDs("p"),
		Clock:     testutil.NewDeterministicClock(time.Time{}),
		Connector: connect.InstantConnector{},
	})
	t.Cleanup(func() { w.Close() })
	return w
}

func TestScenario_InventoryFilter(t *testing.T) {
	w := newTestWorkspace(t, nil)
	ctx := context.Background()

	p, err := w.Projects.Create(ctx, "Inventory")
	require.NoError(t, err)

	_, err = w.Schema.CreateTable(ctx, p.ID, "items", []model.Column{
		{Name: "sku", Type: model.TypeString},
		{Name: "qty", Type: model.TypeNumber},
	})
	require.NoError(t, err)

	ref := Ref(p.ID, "items")
	_, err = w.Records.Insert(ctx, ref, map[string]model.Value{"sku": model.String("A1"), "qty": model.Number(5)})
	require.NoError(t, err)

	rows, err := w.Records.List(ctx, ref)
	require.NoError(t, err)

	got := query.Filter(rows, query.Contains{Field: "sku", Value: "a1"})
	require.Len(t, got, 1)
	assert.Equal(t, model.String("A1"), got[0].Fields["sku"])
}

func TestScenario_UsersSortByRole(t *testing.T) {
	w := newTestWorkspace(t, nil)
	ctx := context.Background()

	_, err := w.Schema.SeedSamples(ctx, "1")
	require.NoError(t, err)

	rows, err := w.Records.List(ctx, Ref("1", "users"))
	require.NoError(t, err)

	sorted := query.Sort(rows, "role", query.Asc)
	roles := []string{}
	for _, r := range sorted {
		roles = append(roles, r.Fields["role"].Text())
	}
	assert.Equal(t, []string{"Admin", "User", "User"}, roles)
	assert.Equal(t, int64(2), sorted[1].ID)
	assert.Equal(t, int64(3), sorted[2].ID)
}

func TestScenario_RelationalBindMissingFields(t *testing.T) {
	w := newTestWorkspace(t, nil)
	ctx := context.Background()

	p, err := w.Projects.Create(ctx, "Fresh")
	require.NoError(t, err)

	_, err = w.Connect.Bind(ctx, p.ID, connect.Relational, map[string]string{"host": "h"})
	assert.True(t, dberr.IsValidation(err))

	p, err = w.Projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Kind(""), p.Kind)
}

func TestScenario_UpdateMissingRow(t *testing.T) {
	w := newTestWorkspace(t, nil)
	ctx := context.Background()
	_, err := w.Schema.SeedSamples(ctx, "1")
	require.NoError(t, err)
	ref := Ref("1", "products")

	before, err := w.Records.List(ctx, ref)
	require.NoError(t, err)

	_, err = w.Records.Update(ctx, ref, 404, map[string]model.Value{"name": model.String("x")})
	assert.True(t, dberr.IsNotFound(err))

	after, err := w.Records.List(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRemoveProject_LeavesNoTableKeys(t *testing.T) {
	for name, kv := range map[string]store.KeyValueStore{
		"memory": store.NewMemory(),
		"sqlite": openSQLite(t),
	} {
		t.Run(name, func(t *testing.T) {
			w := newTestWorkspace(t, kv)
			ctx := context.Background()

			p, err := w.Projects.Create(ctx, "Doomed")
			require.NoError(t, err)
			_, err = w.Schema.SeedSamples(ctx, p.ID)
			require.NoError(t, err)
			_, err = w.Schema.CreateTable(ctx, p.ID, "extra", []model.Column{{Name: "a", Type: model.TypeString}})
			require.NoError(t, err)

			// Another project's tables must survive.
			_, err = w.Schema.SeedSamples(ctx, "1")
			require.NoError(t, err)

			require.NoError(t, w.Projects.Remove(ctx, p.ID))

			for _, prefix := range []string{codec.TablesKey(p.ID), codec.DataPrefix(p.ID), codec.StructurePrefix(p.ID)} {
				keys, err := kv.Keys(ctx, prefix)
				require.NoError(t, err)
				assert.Empty(t, keys, prefix)
			}

			_, err = w.Projects.FindByID(ctx, p.ID)
			assert.True(t, dberr.IsNotFound(err))

			survivors, err := kv.Keys(ctx, codec.DataPrefix("1"))
			require.NoError(t, err)
			assert.Len(t, survivors, 2)
		})
	}
}

func TestWorkspace_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ws.db")
	ctx := context.Background()

	kv, err := store.Open(path, "session")
	require.NoError(t, err)
	w := New(kv, Options{IDs: testutil.NewFixedIDs("p")})
	p, err := w.Projects.Create(ctx, "Kept")
	require.NoError(t, err)
	_, err = w.Schema.SeedSamples(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	kv, err = store.Open(path, "session")
	require.NoError(t, err)
	w = New(kv, Options{})
	defer w.Close()

	rows, err := w.Records.List(ctx, Ref(p.ID, "products"))
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestSnapshot(t *testing.T) {
	w := newTestWorkspace(t, nil)
	ctx := context.Background()

	_, err := w.Projects.List(ctx)
	require.NoError(t, err)

	snap, err := w.Snapshot(ctx)
	require.NoError(t, err)
	assert.Contains(t, snap, codec.ProjectsKey)
	assert.Len(t, snap, 1)
}

func openSQLite(t *testing.T) store.KeyValueStore {
	t.Helper()
	kv, err := store.Open(filepath.Join(t.TempDir(), "ws.db"), "test")
	require.NoError(t, err)
	return kv
}

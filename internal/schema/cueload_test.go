package schema

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dbsim/internal/model"
)

const shopCUE = `package shop

table: customers: columns: [
	{name: "id", type: "integer", key: "PK"},
	{name: "email", type: "varchar(255)"},
	{name: "nickname", type: "string", nullable: true},
]

table: orders: columns: [
	{name: "id", type: "number", key: "PK"},
	{name: "customer_id", type: "number", key: "FK"},
	{name: "placed", type: "timestamp"},
]
`

func writeCUE(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.cue"), []byte(content), 0644))
	return dir
}

func TestLoadCUE(t *testing.T) {
	tables, err := LoadCUE(writeCUE(t, shopCUE))
	require.NoError(t, err)

	require.Len(t, tables, 2)
	assert.Equal(t, "customers", tables[0].Name)
	assert.Equal(t, []model.Column{
		{Name: "id", Type: model.TypeNumber, Key: model.KeyPrimary},
		{Name: "email", Type: model.TypeString},
		{Name: "nickname", Type: model.TypeString, Nullable: true},
	}, tables[0].Columns)
	assert.Equal(t, model.TypeDate, tables[1].Columns[2].Type)
	assert.Equal(t, model.KeyForeign, tables[1].Columns[1].Key)
}

func TestLoadCUE_Errors(t *testing.T) {
	_, err := LoadCUE(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	_, err = LoadCUE(t.TempDir())
	assert.ErrorContains(t, err, "no CUE files found")

	_, err = LoadCUE(writeCUE(t, "package shop\n\nfoo: 1\n"))
	assert.ErrorContains(t, err, "no table definitions")

	_, err = LoadCUE(writeCUE(t, "package shop\n\ntable: t: columns: [{name: \"a\", type: \"blob\"}]\n"))
	assert.ErrorContains(t, err, "unknown column type")

	_, err = LoadCUE(writeCUE(t, "package shop\n\ntable: t: columns: []\n"))
	assert.ErrorContains(t, err, "at least one column")
}

func TestApply(t *testing.T) {
	m, _, pid := newTestManager(t)
	ctx := context.Background()
	_, err := m.CreateTable(ctx, pid, "customers", []model.Column{{Name: "id", Type: model.TypeNumber, Key: model.KeyPrimary}})
	require.NoError(t, err)

	defs, err := LoadCUE(writeCUE(t, shopCUE))
	require.NoError(t, err)

	res, err := m.Apply(ctx, pid, defs)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, res.CreatedTables)
	assert.Equal(t, []string{"customers.email", "customers.nickname"}, res.AddedColumns)

	// Applying twice changes nothing.
	res, err = m.Apply(ctx, pid, defs)
	require.NoError(t, err)
	assert.Empty(t, res.CreatedTables)
	assert.Empty(t, res.AddedColumns)

	tables, err := m.Tables(ctx, pid)
	require.NoError(t, err)
	assert.Len(t, tables, 2)
}

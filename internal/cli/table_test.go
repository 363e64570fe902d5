package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dbsim/internal/model"
)

func TestTableLifecycle(t *testing.T) {
	env := newCLIEnv(t)

	resp, err := env.runJSON("table", "create", "3", "items", "-c", "sku:string:PK", "--column", "qty:number")
	require.NoError(t, err)
	var created model.Table
	decodeData(t, resp, &created)
	assert.Equal(t, "items", created.Name)
	assert.Equal(t, []string{"sku", "qty"}, created.ColumnNames())
	assert.Equal(t, model.KeyPrimary, created.Columns[0].Key)

	_, _, err = env.run("table", "add-column", "3", "items", "restocked:date:nullable")
	require.NoError(t, err)

	resp, err = env.runJSON("table", "describe", "3", "items")
	require.NoError(t, err)
	var columns []model.Column
	decodeData(t, resp, &columns)
	require.Len(t, columns, 3)
	assert.Equal(t, model.Column{Name: "restocked", Type: model.TypeDate, Nullable: true}, columns[2])

	out, _, err := env.run("table", "remove-column", "3", "items", "qty")
	require.NoError(t, err)
	assert.NotContains(t, out, "qty")

	out, _, err = env.run("table", "list", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "sku, restocked")

	_, _, err = env.run("table", "drop", "3", "items")
	require.NoError(t, err)

	resp, err = env.runJSON("table", "list", "3")
	require.NoError(t, err)
	var tables []model.Table
	decodeData(t, resp, &tables)
	assert.Empty(t, tables)
}

func TestTableCreate_Errors(t *testing.T) {
	env := newCLIEnv(t)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"no columns", []string{"table", "create", "3", "empty"}, "VALIDATION"},
		{"bad type", []string{"table", "create", "3", "t", "-c", "a:blob"}, "VALIDATION"},
		{"bad spec", []string{"table", "create", "3", "t", "-c", "justaname"}, "VALIDATION"},
		{"text id", []string{"table", "create", "3", "t", "-c", "id:string:PK"}, "VALIDATION"},
		{"unknown project", []string{"table", "create", "ghost", "t", "-c", "a:string"}, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.runJSON(tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestTableSeed(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run("table", "seed", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "users (4 columns)")
	assert.Contains(t, out, "products (4 columns)")

	// A second seed leaves the tables alone.
	resp, err := env.runJSON("table", "seed", "1")
	require.NoError(t, err)
	var tables []model.Table
	decodeData(t, resp, &tables)
	assert.Len(t, tables, 2)
}

func TestTableApply(t *testing.T) {
	env := newCLIEnv(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.cue"), []byte(`package shop

table: customers: columns: [
	{name: "id", type: "integer", key: "PK"},
	{name: "email", type: "varchar(255)"},
]
`), 0644))

	out, _, err := env.run("table", "apply", "2", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Created 1 tables, added 0 columns")
	assert.Contains(t, out, "+ table customers")

	out, _, err = env.run("table", "apply", "2", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Created 0 tables, added 0 columns")
}

func TestTableApply_MissingDir(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run("table", "apply", "2", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

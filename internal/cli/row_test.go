package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rowsOf runs a JSON row command and decodes its rows as generic maps.
func rowsOf(t *testing.T, env *cliEnv, args ...string) []map[string]any {
	t.Helper()
	resp, err := env.runJSON(args...)
	require.NoError(t, err)
	var rows []map[string]any
	decodeData(t, resp, &rows)
	return rows
}

func ids(rows []map[string]any) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r["id"].(float64)
	}
	return out
}

func TestRowList_Query(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.run("table", "seed", "1")
	require.NoError(t, err)

	rows := rowsOf(t, env, "row", "list", "1", "users")
	require.Len(t, rows, 3)
	assert.Equal(t, "John Doe", rows[0]["name"])

	rows = rowsOf(t, env, "row", "list", "1", "users", "--sort", "role", "--desc")
	assert.Equal(t, []float64{2, 3, 1}, ids(rows))

	rows = rowsOf(t, env, "row", "list", "1", "users", "--filter", "role=admin")
	assert.Equal(t, []float64{1}, ids(rows))

	rows = rowsOf(t, env, "row", "list", "1", "products", "-s", "chair")
	assert.Equal(t, []float64{2}, ids(rows))

	_, _, err = env.run("row", "list", "1", "users", "--filter", "role")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRowList_Text(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.run("table", "seed", "1")
	require.NoError(t, err)

	out, _, err := env.run("row", "list", "1", "products")
	require.NoError(t, err)
	assert.Contains(t, out, "Coffee Maker")
	assert.Contains(t, out, "999.99")
	assert.Contains(t, out, "3 rows")
}

// rowOf runs a JSON command that returns one row.
func rowOf(t *testing.T, env *cliEnv, args ...string) map[string]any {
	t.Helper()
	resp, err := env.runJSON(args...)
	require.NoError(t, err)
	var row map[string]any
	decodeData(t, resp, &row)
	return row
}

func TestRowEditing(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.run("table", "create", "3", "items", "-c", "sku:string", "-c", "qty:number", "-c", "note:string:nullable")
	require.NoError(t, err)

	row := rowOf(t, env, "row", "insert", "3", "items", "sku=A1", "qty=5", "note=null")
	assert.Equal(t, map[string]any{"id": float64(1), "sku": "A1", "qty": float64(5), "note": nil}, row)

	row = rowOf(t, env, "row", "insert", "3", "items", "sku=B2", "qty=7")
	assert.Equal(t, float64(2), row["id"])

	row = rowOf(t, env, "row", "update", "3", "items", "1", "sku=A1", "qty=6")
	assert.Equal(t, map[string]any{"id": float64(1), "sku": "A1", "qty": float64(6)}, row)

	row = rowOf(t, env, "row", "clone", "3", "items", "2")
	assert.Equal(t, float64(3), row["id"])
	assert.Equal(t, "B2", row["sku"])

	_, _, err = env.run("row", "delete", "3", "items", "3")
	require.NoError(t, err)
	_, _, err = env.run("row", "delete", "3", "items", "3")
	require.NoError(t, err, "deleting a missing row is not an error")

	row = rowOf(t, env, "row", "insert", "3", "items", "sku=C3", "qty=1")
	assert.Equal(t, float64(4), row["id"], "ids are not reused")

	_, _, err = env.run("row", "truncate", "3", "items")
	require.NoError(t, err)
	assert.Empty(t, rowsOf(t, env, "row", "list", "3", "items"))
}

func TestRowEditing_Errors(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.run("table", "create", "3", "items", "-c", "sku:string", "-c", "qty:number")
	require.NoError(t, err)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"bad number", []string{"row", "insert", "3", "items", "qty=lots"}, "VALIDATION"},
		{"NaN", []string{"row", "insert", "3", "items", "qty=NaN"}, "VALIDATION"},
		{"infinity", []string{"row", "insert", "3", "items", "qty=-Inf"}, "VALIDATION"},
		{"unknown column", []string{"row", "insert", "3", "items", "colour=red"}, "VALIDATION"},
		{"explicit id", []string{"row", "insert", "3", "items", "id=9"}, "VALIDATION"},
		{"not nullable", []string{"row", "insert", "3", "items", "sku=null"}, "VALIDATION"},
		{"bad assignment", []string{"row", "insert", "3", "items", "sku"}, "VALIDATION"},
		{"bad id", []string{"row", "delete", "3", "items", "abc"}, "VALIDATION"},
		{"update missing row", []string{"row", "update", "3", "items", "99", "sku=x"}, "NOT_FOUND"},
		{"clone missing row", []string{"row", "clone", "3", "items", "99"}, "NOT_FOUND"},
		{"unknown table", []string{"row", "list", "3", "ghosts"}, "NOT_FOUND"},
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

func TestRowExportImport(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.run("table", "seed", "1")
	require.NoError(t, err)

	dir := t.TempDir()
	jsonFile := filepath.Join(dir, "products.json")
	_, _, err = env.run("row", "export", "1", "products", "-o", jsonFile)
	require.NoError(t, err)

	raw, err := os.ReadFile(jsonFile)
	require.NoError(t, err)
	var exported []map[string]any
	require.NoError(t, json.Unmarshal(raw, &exported))
	require.Len(t, exported, 3)
	assert.Equal(t, "Laptop", exported[0]["name"])

	out, _, err := env.run("row", "export", "1", "products", "--as", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Laptop")

	yamlFile := filepath.Join(dir, "incoming.yml")
	require.NoError(t, os.WriteFile(yamlFile, []byte(`- name: Lamp
  price: 25
  category: Lighting
  legacy_sku: L-1
`), 0644))

	out, _, err = env.run("row", "import", "1", "products", yamlFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 rows into products")

	rows := rowsOf(t, env, "row", "list", "1", "products")
	require.Len(t, rows, 1)
	assert.Equal(t, float64(4), rows[0]["id"], "imported rows without ids get fresh ones")
	assert.Equal(t, "Lamp", rows[0]["name"])
	assert.Equal(t, "L-1", rows[0]["legacy_sku"])

	dupFile := filepath.Join(dir, "dup.json")
	require.NoError(t, os.WriteFile(dupFile, []byte(`[{"id":7,"name":"A"},{"id":7,"name":"B"}]`), 0644))
	resp, err := env.runJSON("row", "import", "1", "products", dupFile)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION", resp.Error.Code)
	assert.Len(t, rowsOf(t, env, "row", "list", "1", "products"), 1, "a rejected import leaves rows alone")

	_, _, err = env.run("row", "import", "1", "products", filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = env.run("row", "import", "1", "products", jsonFile, "--as", "csv")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

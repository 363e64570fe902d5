package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDay_JSON(t *testing.T) {
	d := NewDay(time.Date(2024, 2, 20, 23, 59, 0, 0, time.UTC))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-02-20"`, string(data))

	var back Day
	require.NoError(t, json.Unmarshal([]byte(`"2024-02-20T15:04:05Z"`), &back))
	assert.Equal(t, "2024-02-20", back.String())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &back))
}

func TestProject_JSONFieldNames(t *testing.T) {
	p := Project{
		ID:               "1",
		Name:             "E-commerce Database",
		Kind:             "postgresql",
		ConnectionParams: map[string]string{"host": "localhost"},
		CreatedAt:        MustDay("2024-02-20"),
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","name":"E-commerce Database","type":"postgresql",
		"connectionDetails":{"host":"localhost"},"createdAt":"2024-02-20"}`, string(data))
}

func TestProject_CloneIsDeep(t *testing.T) {
	p := Project{ID: "1", ConnectionParams: map[string]string{"host": "a"}}
	c := p.Clone()
	c.ConnectionParams["host"] = "b"

	assert.Equal(t, "a", p.ConnectionParams["host"])
	assert.False(t, p.Bound())
}

func TestTable_Column(t *testing.T) {
	tbl := Table{Name: "users", Columns: []Column{
		{Name: "id", Type: TypeNumber, Key: KeyPrimary},
		{Name: "email", Type: TypeString},
	}}

	c, ok := tbl.Column("email")
	assert.True(t, ok)
	assert.Equal(t, TypeString, c.Type)

	_, ok = tbl.Column("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"id", "email"}, tbl.ColumnNames())
}

func TestRow_Lookup(t *testing.T) {
	r := NewRow(3, map[string]Value{"name": String("Bob")})
	r.Extra = map[string]json.RawMessage{"legacy": json.RawMessage(`42`)}

	v, ok := r.Lookup("id")
	assert.True(t, ok)
	assert.Equal(t, Number(3), v)

	v, ok = r.Lookup("legacy")
	assert.True(t, ok)
	assert.Equal(t, Number(42), v)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"name", "legacy"}, r.Keys())
}

func TestRow_CloneIsDeep(t *testing.T) {
	r := NewRow(1, map[string]Value{"a": String("x")})
	r.Extra = map[string]json.RawMessage{"b": json.RawMessage(`1`)}

	c := r.Clone()
	c.Fields["a"] = String("y")
	c.Extra["b"][0] = '2'

	assert.Equal(t, String("x"), r.Fields["a"])
	assert.Equal(t, "1", string(r.Extra["b"]))
}

func TestTableData_MaxIDAndIndexOf(t *testing.T) {
	d := TableData{Rows: []Row{NewRow(2, nil), NewRow(9, nil), NewRow(4, nil)}}

	assert.Equal(t, int64(9), d.MaxID())
	assert.Equal(t, 2, d.IndexOf(4))
	assert.Equal(t, -1, d.IndexOf(5))
	assert.Equal(t, int64(0), TableData{}.MaxID())
}

package model

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"
)

// Kind names the database a project is bound to ("relational", "mongodb", ...).
// The empty Kind means the project has not been bound yet.
type Kind string

// Day is a calendar date serialized as YYYY-MM-DD.
type Day struct {
	time.Time
}

// NewDay truncates t to its UTC calendar date.
func NewDay(t time.Time) Day {
	y, m, d := t.UTC().Date()
	return Day{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// MustDay parses a YYYY-MM-DD literal. Used for fixed seed data.
func MustDay(s string) Day {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(fmt.Sprintf("MustDay(%q): %v", s, err))
	}
	return Day{t}
}

func (d Day) String() string { return d.Format(time.DateOnly) }

// MarshalJSON implements json.Marshaler.
func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts YYYY-MM-DD and full RFC 3339 timestamps.
func (d *Day) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		*d = Day{t}
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("invalid createdAt %q", s)
	}
	*d = NewDay(t)
	return nil
}

// Project is the top-level workspace grouping one schema and its
// connection metadata.
type Project struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Kind             Kind              `json:"type,omitempty"`
	ConnectionParams map[string]string `json:"connectionDetails,omitempty"`
	CreatedAt        Day               `json:"createdAt"`
	Color            string            `json:"color,omitempty"`
}

// Bound reports whether a connection kind has been attached.
func (p Project) Bound() bool { return p.Kind != "" }

// Clone returns a deep copy.
func (p Project) Clone() Project {
	p.ConnectionParams = maps.Clone(p.ConnectionParams)
	return p
}

// KeyKind marks a column as part of a primary or foreign key.
type KeyKind string

const (
	KeyNone    KeyKind = ""
	KeyPrimary KeyKind = "PK"
	KeyForeign KeyKind = "FK"
)

// Column is a typed field definition within a table.
type Column struct {
	Name     string  `json:"name"`
	Type     Type    `json:"type"`
	Nullable bool    `json:"nullable"`
	Key      KeyKind `json:"key,omitempty"`
}

// Table is a named, ordered column list. Rows are stored separately under
// the table's data key.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Column returns the named column.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Clone returns a deep copy.
func (t Table) Clone() Table {
	t.Columns = slices.Clone(t.Columns)
	return t
}

// TableRef addresses one table of one project.
type TableRef struct {
	ProjectID string
	Table     string
}

func (r TableRef) String() string { return r.ProjectID + "/" + r.Table }

// IDField is the implicit identity column every row carries.
const IDField = "id"

// Row is one record of a table.
type Row struct {
	// ID is stable once assigned and never reused within the table.
	ID int64

	// Fields holds values for declared columns, typed by the column.
	Fields map[string]Value

	// Extra holds keys the table does not declare (or whose stored value
	// does not match the declared type), kept verbatim from an import.
	Extra map[string]json.RawMessage
}

// NewRow creates a row with the given id and typed fields.
func NewRow(id int64, fields map[string]Value) Row {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Row{ID: id, Fields: fields}
}

// Lookup returns the value stored under name. "id" resolves to the row id;
// extra keys are decoded without a declared type.
func (r Row) Lookup(name string) (Value, bool) {
	if name == IDField {
		return Number(r.ID), true
	}
	if v, ok := r.Fields[name]; ok {
		return v, true
	}
	if raw, ok := r.Extra[name]; ok {
		return InferValue(raw), true
	}
	return nil, false
}

// Keys returns every key of the row except id: typed fields then extras,
// each sorted.
func (r Row) Keys() []string {
	keys := slices.Sorted(maps.Keys(r.Fields))
	for _, k := range slices.Sorted(maps.Keys(r.Extra)) {
		if _, dup := r.Fields[k]; !dup {
			keys = append(keys, k)
		}
	}
	return keys
}

// Clone returns a deep copy.
func (r Row) Clone() Row {
	out := Row{ID: r.ID, Fields: maps.Clone(r.Fields)}
	if out.Fields == nil {
		out.Fields = map[string]Value{}
	}
	if len(r.Extra) > 0 {
		out.Extra = make(map[string]json.RawMessage, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = slices.Clone(v)
		}
	}
	return out
}

// TableData is the persisted row set of one table.
type TableData struct {
	// Columns are the column names at the time of the last write.
	Columns []string

	// Rows in insertion order.
	Rows []Row

	// LastInsertID is the highest id ever assigned in this table.
	LastInsertID int64
}

// MaxID returns the highest row id present, or 0.
func (d TableData) MaxID() int64 {
	var hi int64
	for _, r := range d.Rows {
		if r.ID > hi {
			hi = r.ID
		}
	}
	return hi
}

// IndexOf returns the position of the row with the given id, or -1.
func (d TableData) IndexOf(id int64) int {
	return slices.IndexFunc(d.Rows, func(r Row) bool { return r.ID == id })
}

package codec

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/dbsim/internal/model"
)

// EncodeProjects serializes the project list.
func EncodeProjects(projects []model.Project) (string, error) {
	if projects == nil {
		projects = []model.Project{}
	}
	data, err := json.Marshal(projects)
	if err != nil {
		return "", fmt.Errorf("encode projects: %w", err)
	}
	return string(data), nil
}

// DecodeProjects parses the project list.
func DecodeProjects(s string) ([]model.Project, error) {
	var projects []model.Project
	if err := json.Unmarshal([]byte(s), &projects); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	if projects == nil {
		projects = []model.Project{}
	}
	return projects, nil
}

// EncodeTables serializes a project's table list.
func EncodeTables(tables []model.Table) (string, error) {
	if tables == nil {
		tables = []model.Table{}
	}
	for i := range tables {
		if tables[i].Columns == nil {
			tables[i].Columns = []model.Column{}
		}
	}
	data, err := json.Marshal(tables)
	if err != nil {
		return "", fmt.Errorf("encode tables: %w", err)
	}
	return string(data), nil
}

// DecodeTables parses a project's table list. Legacy column type names are
// normalized.
func DecodeTables(s string) ([]model.Table, error) {
	var tables []model.Table
	if err := json.Unmarshal([]byte(s), &tables); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	if tables == nil {
		tables = []model.Table{}
	}
	return tables, nil
}

// EncodeColumns serializes a table's structure view.
func EncodeColumns(columns []model.Column) (string, error) {
	if columns == nil {
		columns = []model.Column{}
	}
	data, err := json.Marshal(columns)
	if err != nil {
		return "", fmt.Errorf("encode structure: %w", err)
	}
	return string(data), nil
}

// DecodeColumns parses a table's structure view.
func DecodeColumns(s string) ([]model.Column, error) {
	var columns []model.Column
	if err := json.Unmarshal([]byte(s), &columns); err != nil {
		return nil, fmt.Errorf("decode structure: %w", err)
	}
	if columns == nil {
		columns = []model.Column{}
	}
	return columns, nil
}

type tableDataJSON struct {
	Columns      []string          `json:"columns"`
	Rows         []json.RawMessage `json:"rows"`
	LastInsertID int64             `json:"lastInsertId,omitempty"`
}

// EncodeTableData serializes a table's rows. Row keys follow d.Columns.
func EncodeTableData(d model.TableData) (string, error) {
	out := tableDataJSON{
		Columns:      d.Columns,
		Rows:         make([]json.RawMessage, len(d.Rows)),
		LastInsertID: d.LastInsertID,
	}
	if out.Columns == nil {
		out.Columns = []string{}
	}
	for i, r := range d.Rows {
		raw, err := EncodeRow(r, d.Columns)
		if err != nil {
			return "", fmt.Errorf("encode table data: row %d: %w", r.ID, err)
		}
		out.Rows[i] = raw
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode table data: %w", err)
	}
	return string(data), nil
}

// DecodeTableData parses a table's rows, typing values by columns.
//
// A missing lastInsertId is derived from the highest row id. Rows stored
// without an id are assigned fresh ones past that mark.
func DecodeTableData(s string, columns []model.Column) (model.TableData, error) {
	var in tableDataJSON
	if err := json.Unmarshal([]byte(s), &in); err != nil {
		return model.TableData{}, fmt.Errorf("decode table data: %w", err)
	}

	d := model.TableData{
		Columns:      in.Columns,
		Rows:         make([]model.Row, 0, len(in.Rows)),
		LastInsertID: in.LastInsertID,
	}
	if d.Columns == nil {
		d.Columns = []string{}
	}

	var missing []int
	for i, raw := range in.Rows {
		r, hasID, err := DecodeRow(raw, columns)
		if err != nil {
			return model.TableData{}, fmt.Errorf("decode table data: row %d: %w", i, err)
		}
		if !hasID {
			missing = append(missing, i)
		}
		d.Rows = append(d.Rows, r)
	}

	d.LastInsertID = max(d.LastInsertID, d.MaxID())
	for _, i := range missing {
		d.LastInsertID++
		d.Rows[i].ID = d.LastInsertID
	}
	return d, nil
}

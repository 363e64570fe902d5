package schema

import (
	"context"
	"fmt"

	"github.com/roach88/dbsim/internal/model"
)

// Sample is a demo table with its initial rows.
type Sample struct {
	Table model.Table
	Rows  []model.Row
}

// Samples returns the demo tables installed by SeedSamples.
func Samples() []Sample {
	return []Sample{
		{
			Table: model.Table{Name: "users", Columns: []model.Column{
				{Name: "id", Type: model.TypeNumber, Key: model.KeyPrimary},
				{Name: "name", Type: model.TypeString},
				{Name: "email", Type: model.TypeString},
				{Name: "role", Type: model.TypeString},
			}},
			Rows: []model.Row{
				sampleRow(1, "name", "John Doe", "email", "john@example.com", "role", "Admin"),
				sampleRow(2, "name", "Jane Smith", "email", "jane@example.com", "role", "User"),
				sampleRow(3, "name", "Bob Johnson", "email", "bob@example.com", "role", "User"),
			},
		},
		{
			Table: model.Table{Name: "products", Columns: []model.Column{
				{Name: "id", Type: model.TypeNumber, Key: model.KeyPrimary},
				{Name: "name", Type: model.TypeString},
				{Name: "price", Type: model.TypeNumber},
				{Name: "category", Type: model.TypeString},
			}},
			Rows: []model.Row{
				sampleRow(1, "name", "Laptop", "price", 999.99, "category", "Electronics"),
				sampleRow(2, "name", "Desk Chair", "price", 199.99, "category", "Furniture"),
				sampleRow(3, "name", "Coffee Maker", "price", 79.99, "category", "Appliances"),
			},
		},
	}
}

// sampleRow builds a row from alternating name/value pairs. Values are
// string or float64.
func sampleRow(id int64, kv ...any) model.Row {
	fields := make(map[string]model.Value, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		name := kv[i].(string)
		switch v := kv[i+1].(type) {
		case string:
			fields[name] = model.String(v)
		case float64:
			fields[name] = model.Number(v)
		}
	}
	return model.NewRow(id, fields)
}

// SeedSamples installs the demo tables into a project that has none.
// A project that already has tables is left untouched and its tables are
// returned.
func (m *Manager) SeedSamples(ctx context.Context, projectID string) ([]model.Table, error) {
	tables, err := m.Tables(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(tables) > 0 {
		return tables, nil
	}

	for _, s := range Samples() {
		tables = append(tables, s.Table)
		data := model.TableData{
			Columns:      s.Table.ColumnNames(),
			Rows:         s.Rows,
			LastInsertID: int64(len(s.Rows)),
		}
		if err := m.writeNew(ctx, projectID, tables, s.Table, data); err != nil {
			return nil, fmt.Errorf("seed samples: %w", err)
		}
	}

	m.logger.Info("sample tables seeded", "project", projectID, "tables", len(tables))
	return tables, nil
}

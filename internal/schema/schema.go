package schema

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/dbsim/internal/codec"
	"github.com/roach88/dbsim/internal/dberr"
	"github.com/roach88/dbsim/internal/model"
	"github.com/roach88/dbsim/internal/store"
)

// ProjectLookup resolves project ids. Implemented by registry.Registry.
type ProjectLookup interface {
	FindByID(ctx context.Context, id string) (model.Project, error)
}

// Manager creates, alters and drops tables.
type Manager struct {
	kv       store.KeyValueStore
	projects ProjectLookup
	logger   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// New creates a Manager over kv. projects is consulted before any table of
// a project is created or listed.
func New(kv store.KeyValueStore, projects ProjectLookup, opts ...Option) *Manager {
	m := &Manager{
		kv:       kv,
		projects: projects,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Tables returns a project's tables in creation order.
func (m *Manager) Tables(ctx context.Context, projectID string) ([]model.Table, error) {
	if _, err := m.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	return m.loadTables(ctx, projectID)
}

// Table returns one table definition.
func (m *Manager) Table(ctx context.Context, ref model.TableRef) (model.Table, error) {
	tables, err := m.Tables(ctx, ref.ProjectID)
	if err != nil {
		return model.Table{}, err
	}
	i := tableIndex(tables, ref.Table)
	if i < 0 {
		return model.Table{}, dberr.NotFound("table", ref.String())
	}
	return tables[i], nil
}

// Structure returns the structure view of a table. A table whose structure
// key is missing reports its definition's columns.
func (m *Manager) Structure(ctx context.Context, ref model.TableRef) ([]model.Column, error) {
	t, err := m.Table(ctx, ref)
	if err != nil {
		return nil, err
	}
	s, ok, err := m.kv.Get(ctx, codec.StructureKey(ref))
	if err != nil {
		return nil, fmt.Errorf("read structure: %w", err)
	}
	if !ok {
		return t.Columns, nil
	}
	return codec.DecodeColumns(s)
}

// CreateTable adds a table with the given columns and an empty row set.
func (m *Manager) CreateTable(ctx context.Context, projectID, name string, columns []model.Column) (model.Table, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Table{}, dberr.Validation("table", "table name is required")
	}
	cols, err := normalizeColumns(columns)
	if err != nil {
		return model.Table{}, err
	}

	tables, err := m.Tables(ctx, projectID)
	if err != nil {
		return model.Table{}, err
	}
	if tableIndex(tables, name) >= 0 {
		return model.Table{}, &dberr.Error{Code: dberr.CodeValidation, Message: "table already exists", Entity: "table", Key: name}
	}

	t := model.Table{Name: name, Columns: cols}
	if err := m.writeNew(ctx, projectID, append(tables, t), t, model.TableData{Columns: t.ColumnNames()}); err != nil {
		return model.Table{}, fmt.Errorf("create table %s: %w", name, err)
	}

	m.logger.Info("table created", "project", projectID, "table", name, "columns", len(cols))
	return t.Clone(), nil
}

// writeNew persists a new table: data, then structure, then the table list.
func (m *Manager) writeNew(ctx context.Context, projectID string, tables []model.Table, t model.Table, data model.TableData) error {
	ref := model.TableRef{ProjectID: projectID, Table: t.Name}

	dataJSON, err := codec.EncodeTableData(data)
	if err != nil {
		return err
	}
	structJSON, err := codec.EncodeColumns(t.Columns)
	if err != nil {
		return err
	}
	tablesJSON, err := codec.EncodeTables(tables)
	if err != nil {
		return err
	}

	if err := m.kv.Set(ctx, codec.DataKey(ref), dataJSON); err != nil {
		return err
	}
	if err := m.kv.Set(ctx, codec.StructureKey(ref), structJSON); err != nil {
		return err
	}
	return m.kv.Set(ctx, codec.TablesKey(projectID), tablesJSON)
}

// DropTable removes a table with its rows and structure.
func (m *Manager) DropTable(ctx context.Context, ref model.TableRef) error {
	tables, err := m.Tables(ctx, ref.ProjectID)
	if err != nil {
		return err
	}
	i := tableIndex(tables, ref.Table)
	if i < 0 {
		return dberr.NotFound("table", ref.String())
	}

	tablesJSON, err := codec.EncodeTables(slices.Delete(tables, i, i+1))
	if err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	if err := m.kv.Set(ctx, codec.TablesKey(ref.ProjectID), tablesJSON); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	if err := m.removeTableKeys(ctx, ref); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}

	m.logger.Info("table dropped", "project", ref.ProjectID, "table", ref.Table)
	return nil
}

// AddColumn appends a column. Existing rows are not back-filled.
func (m *Manager) AddColumn(ctx context.Context, ref model.TableRef, column model.Column) (model.Table, error) {
	col, err := normalizeColumn(column)
	if err != nil {
		return model.Table{}, err
	}

	return m.alter(ctx, ref, func(t *model.Table, d *model.TableData) error {
		if _, dup := t.Column(col.Name); dup {
			return &dberr.Error{Code: dberr.CodeValidation, Message: "duplicate column name", Entity: "column", Key: col.Name}
		}
		t.Columns = append(t.Columns, col)
		if !slices.Contains(d.Columns, col.Name) {
			d.Columns = append(d.Columns, col.Name)
		}
		return nil
	})
}

// RemoveColumn deletes a column and every row's value for it. A table must
// keep at least one column.
func (m *Manager) RemoveColumn(ctx context.Context, ref model.TableRef, name string) (model.Table, error) {
	return m.alter(ctx, ref, func(t *model.Table, d *model.TableData) error {
		i := slices.IndexFunc(t.Columns, func(c model.Column) bool { return c.Name == name })
		if i < 0 {
			return dberr.NotFound("column", name)
		}
		if len(t.Columns) == 1 {
			return &dberr.Error{Code: dberr.CodeValidation, Message: "a table must keep at least one column", Entity: "column", Key: name}
		}
		t.Columns = slices.Delete(t.Columns, i, i+1)
		d.Columns = slices.DeleteFunc(d.Columns, func(c string) bool { return c == name })
		for j := range d.Rows {
			delete(d.Rows[j].Fields, name)
			delete(d.Rows[j].Extra, name)
		}
		return nil
	})
}

// alter applies fn to a table definition and its row data, then writes the
// table list, structure and data back.
func (m *Manager) alter(ctx context.Context, ref model.TableRef, fn func(*model.Table, *model.TableData) error) (model.Table, error) {
	tables, err := m.Tables(ctx, ref.ProjectID)
	if err != nil {
		return model.Table{}, err
	}
	i := tableIndex(tables, ref.Table)
	if i < 0 {
		return model.Table{}, dberr.NotFound("table", ref.String())
	}

	data, err := m.loadData(ctx, ref, tables[i])
	if err != nil {
		return model.Table{}, err
	}

	t := tables[i].Clone()
	if err := fn(&t, &data); err != nil {
		return model.Table{}, err
	}
	tables[i] = t

	tablesJSON, err := codec.EncodeTables(tables)
	if err != nil {
		return model.Table{}, err
	}
	structJSON, err := codec.EncodeColumns(t.Columns)
	if err != nil {
		return model.Table{}, err
	}
	dataJSON, err := codec.EncodeTableData(data)
	if err != nil {
		return model.Table{}, err
	}

	for _, kv := range [][2]string{
		{codec.TablesKey(ref.ProjectID), tablesJSON},
		{codec.StructureKey(ref), structJSON},
		{codec.DataKey(ref), dataJSON},
	} {
		if err := m.kv.Set(ctx, kv[0], kv[1]); err != nil {
			return model.Table{}, fmt.Errorf("alter table %s: %w", ref, err)
		}
	}

	m.logger.Debug("table altered", "project", ref.ProjectID, "table", ref.Table, "columns", len(t.Columns))
	return t.Clone(), nil
}

// DropAll removes every table of a project, including data and structure
// keys left behind by tables no longer listed. It does not check that the
// project exists.
func (m *Manager) DropAll(ctx context.Context, projectID string) error {
	tables, err := m.loadTables(ctx, projectID)
	if err != nil {
		return err
	}

	if err := m.kv.Remove(ctx, codec.TablesKey(projectID)); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	for _, t := range tables {
		if err := m.removeTableKeys(ctx, model.TableRef{ProjectID: projectID, Table: t.Name}); err != nil {
			return fmt.Errorf("drop tables: %w", err)
		}
	}

	for _, prefix := range []string{codec.DataPrefix(projectID), codec.StructurePrefix(projectID)} {
		orphans, err := m.kv.Keys(ctx, prefix)
		if err != nil {
			return fmt.Errorf("drop tables: %w", err)
		}
		for _, k := range orphans {
			if err := m.kv.Remove(ctx, k); err != nil {
				return fmt.Errorf("drop tables: %w", err)
			}
		}
	}

	m.logger.Info("project tables dropped", "project", projectID, "tables", len(tables))
	return nil
}

func (m *Manager) removeTableKeys(ctx context.Context, ref model.TableRef) error {
	if err := m.kv.Remove(ctx, codec.DataKey(ref)); err != nil {
		return err
	}
	return m.kv.Remove(ctx, codec.StructureKey(ref))
}

func (m *Manager) loadTables(ctx context.Context, projectID string) ([]model.Table, error) {
	s, ok, err := m.kv.Get(ctx, codec.TablesKey(projectID))
	if err != nil {
		return nil, fmt.Errorf("read tables: %w", err)
	}
	if !ok {
		return []model.Table{}, nil
	}
	return codec.DecodeTables(s)
}

func (m *Manager) loadData(ctx context.Context, ref model.TableRef, t model.Table) (model.TableData, error) {
	s, ok, err := m.kv.Get(ctx, codec.DataKey(ref))
	if err != nil {
		return model.TableData{}, fmt.Errorf("read table data: %w", err)
	}
	if !ok {
		return model.TableData{Columns: t.ColumnNames(), Rows: []model.Row{}}, nil
	}
	return codec.DecodeTableData(s, t.Columns)
}

func tableIndex(tables []model.Table, name string) int {
	return slices.IndexFunc(tables, func(t model.Table) bool { return t.Name == name })
}

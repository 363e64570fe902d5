package schema

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/dbsim/internal/model"
)

// LoadCUE reads table definitions from the .cue files in dir. Tables are
// returned in declaration order.
//
// Expected shape:
//
//	table: <name>: columns: [{name: string, type: string, nullable?: bool, key?: "PK" | "FK"}, ...]
func LoadCUE(dir string) ([]model.Table, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	cctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded")
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := cctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building CUE value: %w", err)
	}

	tablesVal := value.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return nil, fmt.Errorf("no table definitions found in %s", dir)
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, fmt.Errorf("iterating tables: %w", err)
	}

	var tables []model.Table
	for iter.Next() {
		t, err := parseTable(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func parseTable(name string, v cue.Value) (model.Table, error) {
	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return model.Table{}, fmt.Errorf("table.%s: columns is required", name)
	}
	list, err := colsVal.List()
	if err != nil {
		return model.Table{}, fmt.Errorf("table.%s.columns: %w", name, err)
	}

	t := model.Table{Name: name}
	for i := 0; list.Next(); i++ {
		c, err := parseColumn(list.Value())
		if err != nil {
			return model.Table{}, fmt.Errorf("table.%s.columns[%d]: %w", name, i, err)
		}
		t.Columns = append(t.Columns, c)
	}

	cols, err := normalizeColumns(t.Columns)
	if err != nil {
		return model.Table{}, fmt.Errorf("table.%s: %w", name, err)
	}
	t.Columns = cols
	return t, nil
}

func parseColumn(v cue.Value) (model.Column, error) {
	var c model.Column

	name, err := v.LookupPath(cue.ParsePath("name")).String()
	if err != nil {
		return c, fmt.Errorf("name: %w", err)
	}
	c.Name = name

	typ, err := v.LookupPath(cue.ParsePath("type")).String()
	if err != nil {
		return c, fmt.Errorf("type: %w", err)
	}
	c.Type, err = model.ParseType(typ)
	if err != nil {
		return c, err
	}

	if nv := v.LookupPath(cue.ParsePath("nullable")); nv.Exists() {
		if c.Nullable, err = nv.Bool(); err != nil {
			return c, fmt.Errorf("nullable: %w", err)
		}
	}
	if kv := v.LookupPath(cue.ParsePath("key")); kv.Exists() {
		key, err := kv.String()
		if err != nil {
			return c, fmt.Errorf("key: %w", err)
		}
		c.Key = model.KeyKind(key)
	}
	return c, nil
}

// ApplyResult reports what Apply changed.
type ApplyResult struct {
	CreatedTables []string
	AddedColumns  []string // "table.column"
}

// Apply creates the declared tables that do not exist yet and appends
// declared columns missing from existing tables. Nothing is ever dropped.
// Column types of existing columns are not compared.
func (m *Manager) Apply(ctx context.Context, projectID string, defs []model.Table) (ApplyResult, error) {
	var res ApplyResult

	existing, err := m.Tables(ctx, projectID)
	if err != nil {
		return res, err
	}

	for _, def := range defs {
		i := tableIndex(existing, def.Name)
		if i < 0 {
			t, err := m.CreateTable(ctx, projectID, def.Name, def.Columns)
			if err != nil {
				return res, err
			}
			existing = append(existing, t)
			res.CreatedTables = append(res.CreatedTables, t.Name)
			continue
		}

		ref := model.TableRef{ProjectID: projectID, Table: def.Name}
		for _, c := range def.Columns {
			if slices.ContainsFunc(existing[i].Columns, func(e model.Column) bool { return e.Name == c.Name }) {
				continue
			}
			t, err := m.AddColumn(ctx, ref, c)
			if err != nil {
				return res, fmt.Errorf("apply %s.%s: %w", def.Name, c.Name, err)
			}
			existing[i] = t
			res.AddedColumns = append(res.AddedColumns, def.Name+"."+c.Name)
		}
	}

	m.logger.Info("schema applied", "project", projectID,
		"created_tables", len(res.CreatedTables), "added_columns", len(res.AddedColumns))
	return res, nil
}

package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/dbsim/internal/codec"
	"github.com/roach88/dbsim/internal/dberr"
	"github.com/roach88/dbsim/internal/model"
	"github.com/roach88/dbsim/internal/query"
	"github.com/roach88/dbsim/internal/schema"
	"github.com/roach88/dbsim/internal/workspace"
)

// opFunc executes one step against the workspace.
type opFunc func(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error)

var ops = map[string]opFunc{
	"project.create": opProjectCreate,
	"project.rename": opProjectRename,
	"project.remove": opProjectRemove,
	"project.list":   opProjectList,
	"project.get":    opProjectGet,

	"table.create":        opTableCreate,
	"table.drop":          opTableDrop,
	"table.add_column":    opAddColumn,
	"table.remove_column": opRemoveColumn,
	"table.seed":          opTableSeed,
	"table.list":          opTableList,

	"row.insert":   opRowInsert,
	"row.update":   opRowUpdate,
	"row.delete":   opRowDelete,
	"row.get":      opRowGet,
	"row.clone":    opRowClone,
	"row.truncate": opRowTruncate,
	"row.replace":  opRowReplace,

	"query.filter": opQueryFilter,
	"query.search": opQuerySearch,
	"query.sort":   opQuerySort,
	"query.view":   opQueryView,

	"connect.bind":    opConnectBind,
	"connect.connect": opConnectConnect,
}

// Ops lists the supported step operations.
func Ops() []string {
	return slices.Sorted(maps.Keys(ops))
}

// ArgError reports a malformed step. It aborts the run rather than becoming
// the step's case.
type ArgError struct {
	Name    string
	Message string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("arg %q: %s", e.Name, e.Message)
}

// args reads typed step arguments.
type args map[string]any

func (a args) str(name string) (string, error) {
	v, ok := a[name]
	if !ok {
		return "", &ArgError{Name: name, Message: "required"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ArgError{Name: name, Message: fmt.Sprintf("want string, got %T", v)}
	}
	return s, nil
}

func (a args) optStr(name string) (string, error) {
	if _, ok := a[name]; !ok {
		return "", nil
	}
	return a.str(name)
}

func (a args) id(name string) (int64, error) {
	switch v := a[name].(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case nil:
		return 0, &ArgError{Name: name, Message: "required"}
	default:
		return 0, &ArgError{Name: name, Message: fmt.Sprintf("want integer, got %T", v)}
	}
}

func (a args) strMap(name string) (map[string]string, error) {
	out := map[string]string{}
	raw, ok := a[name].(map[string]any)
	if !ok {
		if a[name] == nil {
			return out, nil
		}
		return nil, &ArgError{Name: name, Message: fmt.Sprintf("want mapping, got %T", a[name])}
	}
	for k, v := range raw {
		out[k] = fmt.Sprint(v)
	}
	return out, nil
}

func (a args) ref() (model.TableRef, error) {
	p, err := a.str("project")
	if err != nil {
		return model.TableRef{}, err
	}
	t, err := a.str("table")
	if err != nil {
		return model.TableRef{}, err
	}
	return workspace.Ref(p, t), nil
}

// fields converts a YAML field mapping to typed values using the table's
// column types. Undeclared names are passed through so the record store
// can reject them.
func (a args) fields(ctx context.Context, ws *workspace.Workspace, ref model.TableRef) (map[string]model.Value, error) {
	raw, ok := a["fields"].(map[string]any)
	if !ok && a["fields"] != nil {
		return nil, &ArgError{Name: "fields", Message: fmt.Sprintf("want mapping, got %T", a["fields"])}
	}
	t, err := ws.Schema.Table(ctx, ref)
	if err != nil {
		return nil, err
	}

	out := make(map[string]model.Value, len(raw))
	for name, v := range raw {
		c, declared := t.Column(name)
		if !declared {
			data, err := json.Marshal(v)
			if err != nil {
				return nil, &ArgError{Name: "fields." + name, Message: err.Error()}
			}
			out[name] = model.InferValue(data)
			continue
		}
		val, err := model.FromAny(v, c.Type)
		if err != nil {
			return nil, &dberr.Error{Code: dberr.CodeValidation, Message: err.Error(), Entity: "column", Key: name}
		}
		out[name] = val
	}
	return out, nil
}

func projectResult(p model.Project) map[string]any {
	return map[string]any{"id": p.ID, "name": p.Name}
}

func opProjectCreate(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	name, err := a.str("name")
	if err != nil {
		return nil, err
	}
	p, err := ws.Projects.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return projectResult(p), nil
}

func opProjectRename(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	id, err := a.str("project")
	if err != nil {
		return nil, err
	}
	name, err := a.str("name")
	if err != nil {
		return nil, err
	}
	p, err := ws.Projects.Rename(ctx, id, name)
	if err != nil {
		return nil, err
	}
	return projectResult(p), nil
}

func opProjectRemove(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	id, err := a.str("project")
	if err != nil {
		return nil, err
	}
	return nil, ws.Projects.Remove(ctx, id)
}

func opProjectList(ctx context.Context, ws *workspace.Workspace, _ args) (map[string]any, error) {
	projects, err := ws.Projects.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	return map[string]any{"count": len(projects), "ids": ids}, nil
}

func opProjectGet(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	id, err := a.str("project")
	if err != nil {
		return nil, err
	}
	p, err := ws.Projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := projectResult(p)
	res["kind"] = string(p.Kind)
	return res, nil
}

func opTableCreate(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	pid, err := a.str("project")
	if err != nil {
		return nil, err
	}
	name, err := a.str("name")
	if err != nil {
		return nil, err
	}
	specs, _ := a["columns"].([]any)
	columns := make([]model.Column, 0, len(specs))
	for i, s := range specs {
		str, ok := s.(string)
		if !ok {
			return nil, &ArgError{Name: fmt.Sprintf("columns[%d]", i), Message: "want name:type string"}
		}
		c, err := schema.ParseColumnSpec(str)
		if err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}
	t, err := ws.Schema.CreateTable(ctx, pid, name, columns)
	if err != nil {
		return nil, err
	}
	return map[string]any{"table": t.Name, "columns": len(t.Columns)}, nil
}

func opTableDrop(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	ref, err := a.ref()
	if err != nil {
		return nil, err
	}
	return nil, ws.Schema.DropTable(ctx, ref)
}

func opAddColumn(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	ref, err := a.ref()
	if err != nil {
		return nil, err
	}
	spec, err := a.str("column")
	if err != nil {
		return nil, err
	}
	c, err := schema.ParseColumnSpec(spec)
	if err != nil {
		return nil, err
	}
	t, err := ws.Schema.AddColumn(ctx, ref, c)
	if err != nil {
		return nil, err
	}
	return map[string]any{"table": t.Name, "columns": len(t.Columns)}, nil
}

func opRemoveColumn(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	ref, err := a.ref()
	if err != nil {
		return nil, err
	}
	name, err := a.str("column")
	if err != nil {
		return nil, err
	}
	t, err := ws.Schema.RemoveColumn(ctx, ref, name)
	if err != nil {
		return nil, err
	}
	return map[string]any{"table": t.Name, "columns": len(t.Columns)}, nil
}

func tableNames(tables []model.Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}

func opTableSeed(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	pid, err := a.str("project")
	if err != nil {
		return nil, err
	}
	tables, err := ws.Schema.SeedSamples(ctx, pid)
	if err != nil {
		return nil, err
	}
	return map[string]any{"tables": tableNames(tables)}, nil
}

func opTableList(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	pid, err := a.str("project")
	if err != nil {
		return nil, err
	}
	tables, err := ws.Schema.Tables(ctx, pid)
	if err != nil {
		return nil, err
	}
	return map[string]any{"tables": tableNames(tables)}, nil
}

func opRowInsert(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	ref, err := a.ref()
	if err != nil {
		return nil, err
	}
	fields, err := a.fields(ctx, ws, ref)
	if err != nil {
		return nil, err
	}
	r, err := ws.Records.Insert(ctx, ref, fields)
	if err != nil {
		return nil, err
	}
	return map[string]any{"id": r.ID}, nil
}

func opRowUpdate(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	ref, err := a.ref()
	if err != nil {
		return nil, err
	}
	id, err := a.id("id")
	if err != nil {
		return nil, err
	}
	fields, err := a.fields(ctx, ws, ref)
	if err != nil {
		return nil, err
	}
	r, err := ws.Records.Update(ctx, ref, id, fields)
	if err != nil {
		return nil, err
	}
	return map[string]any{"id": r.ID}, nil
}

func opRowDelete(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	ref, err := a.ref()
	if err != nil {
		return nil, err
	}
	id, err := a.id("id")
	if err != nil {
		return nil, err
	}
	return nil, ws.Records.Delete(ctx, ref, id)
}

func opRowGet(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	ref, err := a.ref()
	if err != nil {
		return nil, err
	}
	id, err := a.id("id")
	if err != nil {
		return nil, err
	}
	r, err := ws.Records.Get(ctx, ref, id)
	if err != nil {
		return nil, err
	}
	row, err := rowMap(r)
	if err != nil {
		return nil, err
	}
	return map[string]any{"row": row}, nil
}

func opRowClone(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	ref, err := a.ref()
	if err != nil {
		return nil, err
	}
	id, err := a.id("id")
	if err != nil {
		return nil, err
	}
	r, err := ws.Records.Clone(ctx, ref, id)
	if err != nil {
		return nil, err
	}
	return map[string]any{"id": r.ID}, nil
}

func opRowTruncate(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	ref, err := a.ref()
	if err != nil {
		return nil, err
	}
	return nil, ws.Records.Truncate(ctx, ref)
}

// opRowReplace imports rows the way a JSON import does: through the codec,
// with undeclared keys kept as extras.
func opRowReplace(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	ref, err := a.ref()
	if err != nil {
		return nil, err
	}
	raw, ok := a["rows"].([]any)
	if !ok {
		return nil, &ArgError{Name: "rows", Message: "want a list of mappings"}
	}
	t, err := ws.Schema.Table(ctx, ref)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, &ArgError{Name: "rows", Message: err.Error()}
	}
	rows, err := codec.DecodeRows(data, t.Columns)
	if err != nil {
		return nil, &ArgError{Name: "rows", Message: err.Error()}
	}
	if err := ws.Records.ReplaceAll(ctx, ref, rows); err != nil {
		return nil, err
	}
	return map[string]any{"count": len(rows)}, nil
}

func rowIDs(rows []model.Row) []int64 {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func rowsResult(rows []model.Row) map[string]any {
	return map[string]any{"count": len(rows), "ids": rowIDs(rows)}
}

func listRows(ctx context.Context, ws *workspace.Workspace, a args) ([]model.Row, error) {
	ref, err := a.ref()
	if err != nil {
		return nil, err
	}
	return ws.Records.List(ctx, ref)
}

func opQueryFilter(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	rows, err := listRows(ctx, ws, a)
	if err != nil {
		return nil, err
	}
	field, err := a.optStr("field")
	if err != nil {
		return nil, err
	}
	value, err := a.optStr("value")
	if err != nil {
		return nil, err
	}
	return rowsResult(query.Filter(rows, query.Contains{Field: field, Value: value})), nil
}

func opQuerySearch(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	rows, err := listRows(ctx, ws, a)
	if err != nil {
		return nil, err
	}
	q, err := a.optStr("query")
	if err != nil {
		return nil, err
	}
	return rowsResult(query.Search(rows, q)), nil
}

func opQuerySort(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	rows, err := listRows(ctx, ws, a)
	if err != nil {
		return nil, err
	}
	column, err := a.optStr("column")
	if err != nil {
		return nil, err
	}
	dir, err := direction(a)
	if err != nil {
		return nil, err
	}
	return rowsResult(query.Sort(rows, column, dir)), nil
}

func opQueryView(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	rows, err := listRows(ctx, ws, a)
	if err != nil {
		return nil, err
	}
	var v query.View
	for name, dst := range map[string]*string{
		"search": &v.Search,
		"field":  &v.Filter.Field,
		"value":  &v.Filter.Value,
		"sort":   &v.Sort.Column,
	} {
		if *dst, err = a.optStr(name); err != nil {
			return nil, err
		}
	}
	if v.Sort.Direction, err = direction(a); err != nil {
		return nil, err
	}
	return rowsResult(query.Apply(rows, v)), nil
}

func direction(a args) (query.Direction, error) {
	s, err := a.optStr("direction")
	if err != nil {
		return "", err
	}
	d, err := query.ParseDirection(s)
	if err != nil {
		return "", &ArgError{Name: "direction", Message: err.Error()}
	}
	return d, nil
}

func bindArgs(a args) (string, model.Kind, map[string]string, error) {
	pid, err := a.str("project")
	if err != nil {
		return "", "", nil, err
	}
	kind, err := a.str("kind")
	if err != nil {
		return "", "", nil, err
	}
	params, err := a.strMap("params")
	if err != nil {
		return "", "", nil, err
	}
	return pid, model.Kind(kind), params, nil
}

func opConnectBind(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	pid, kind, params, err := bindArgs(a)
	if err != nil {
		return nil, err
	}
	p, err := ws.Connect.Bind(ctx, pid, kind, params)
	if err != nil {
		return nil, err
	}
	return map[string]any{"kind": string(p.Kind)}, nil
}

func opConnectConnect(ctx context.Context, ws *workspace.Workspace, a args) (map[string]any, error) {
	pid, kind, params, err := bindArgs(a)
	if err != nil {
		return nil, err
	}
	p, err := ws.Connect.Connect(ctx, pid, kind, params)
	if err != nil {
		return nil, err
	}
	return map[string]any{"kind": string(p.Kind)}, nil
}

// rowMap renders a row in its stored JSON shape.
func rowMap(r model.Row) (map[string]any, error) {
	data, err := codec.EncodeRow(r, nil)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

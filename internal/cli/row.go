package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dbsim/internal/codec"
	"github.com/roach88/dbsim/internal/dberr"
	"github.com/roach88/dbsim/internal/model"
	"github.com/roach88/dbsim/internal/query"
	"github.com/roach88/dbsim/internal/records"
	"github.com/roach88/dbsim/internal/workspace"
)

// RowListOptions holds flags for row list.
type RowListOptions struct {
	Search string
	Filter string // field=value
	Sort   string
	Desc   bool
}

// NewRowCommand creates the row command group.
func NewRowCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "row",
		Short: "Read and edit the rows of a table",
	}

	listOpts := &RowListOptions{}
	list := &cobra.Command{
		Use:   "list <project> <table>",
		Short: "List rows, optionally searched, filtered and sorted",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				view, err := listOpts.view()
				if err != nil {
					return err
				}
				ref := workspace.Ref(args[0], args[1])
				t, err := ws.Schema.Table(ctx, ref)
				if err != nil {
					return err
				}
				rows, err := ws.Records.List(ctx, ref)
				if err != nil {
					return err
				}
				rows = query.Apply(rows, view)
				f.VerboseLog("%d rows after search %q, filter %q, sort %q", len(rows), view.Search, listOpts.Filter, view.Sort.Column)
				return outputRows(f, t, rows)
			})
		},
	}
	list.Flags().StringVarP(&listOpts.Search, "search", "s", "", "keep rows where any value contains this text")
	list.Flags().StringVar(&listOpts.Filter, "filter", "", "keep rows where field contains value (field=value)")
	list.Flags().StringVar(&listOpts.Sort, "sort", "", "sort by column")
	list.Flags().BoolVar(&listOpts.Desc, "desc", false, "sort descending")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "insert <project> <table> <column=value>...",
		Short: "Insert a row; the id is assigned automatically",
		Long: `Insert a row. Values are parsed by column type; the literal null stores
an explicit null in a nullable column.

  dbsim row insert 1 users name=Ada email=ada@example.com role=Admin`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				ref := workspace.Ref(args[0], args[1])
				t, fields, err := parseAssignments(ctx, ws, ref, args[2:])
				if err != nil {
					return err
				}
				r, err := ws.Records.Insert(ctx, ref, fields)
				if err != nil {
					return err
				}
				return outputRow(f, t, r, "Inserted")
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "update <project> <table> <id> <column=value>...",
		Short: "Replace a row's values",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				id, err := parseRowID(args[2])
				if err != nil {
					return err
				}
				ref := workspace.Ref(args[0], args[1])
				t, fields, err := parseAssignments(ctx, ws, ref, args[3:])
				if err != nil {
					return err
				}
				r, err := ws.Records.Update(ctx, ref, id, fields)
				if err != nil {
					return err
				}
				return outputRow(f, t, r, "Updated")
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <project> <table> <id>",
		Short: "Delete a row; deleting a missing row is not an error",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				id, err := parseRowID(args[2])
				if err != nil {
					return err
				}
				if err := ws.Records.Delete(ctx, workspace.Ref(args[0], args[1]), id); err != nil {
					return err
				}
				return f.Success(map[string]int64{"deleted": id}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Deleted row %d\n", id)
					return err
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clone <project> <table> <id>",
		Short: "Copy a row under a new id",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				id, err := parseRowID(args[2])
				if err != nil {
					return err
				}
				ref := workspace.Ref(args[0], args[1])
				t, err := ws.Schema.Table(ctx, ref)
				if err != nil {
					return err
				}
				r, err := ws.Records.Clone(ctx, ref, id)
				if err != nil {
					return err
				}
				return outputRow(f, t, r, "Cloned")
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "truncate <project> <table>",
		Short: "Delete every row of a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				if err := ws.Records.Truncate(ctx, workspace.Ref(args[0], args[1])); err != nil {
					return err
				}
				return f.Success(map[string]string{"truncated": args[1]}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Truncated table %s\n", args[1])
					return err
				})
			})
		},
	})

	var importAs string
	imp := &cobra.Command{
		Use:   "import <project> <table> <file>",
		Short: "Replace a table's rows with the rows in a JSON or YAML file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				format, err := transferFormat(importAs, args[2])
				if err != nil {
					return err
				}
				file, err := os.Open(args[2])
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to open import file", err)
				}
				defer file.Close()

				n, err := ws.Records.Import(ctx, workspace.Ref(args[0], args[1]), file, format)
				if err != nil {
					return err
				}
				return f.Success(map[string]int{"imported": n}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Imported %d rows into %s\n", n, args[1])
					return err
				})
			})
		},
	}
	imp.Flags().StringVar(&importAs, "as", "", "file format (json|yaml); default from the file extension")
	cmd.AddCommand(imp)

	var exportAs, exportOut string
	exp := &cobra.Command{
		Use:   "export <project> <table>",
		Short: "Write a table's rows as JSON or YAML",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				format, err := transferFormat(exportAs, exportOut)
				if err != nil {
					return err
				}
				var buf bytes.Buffer
				if err := ws.Records.Export(ctx, workspace.Ref(args[0], args[1]), &buf, format); err != nil {
					return err
				}
				if exportOut == "" {
					_, err := f.Writer.Write(buf.Bytes())
					return err
				}
				if err := os.WriteFile(exportOut, buf.Bytes(), 0o644); err != nil {
					return WrapExitError(ExitCommandError, "failed to write export file", err)
				}
				f.VerboseLog("exported %s to %s", args[1], exportOut)
				return nil
			})
		},
	}
	exp.Flags().StringVar(&exportAs, "as", "", "file format (json|yaml); default from --output, else json")
	exp.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default stdout)")
	cmd.AddCommand(exp)

	return cmd
}

func (o *RowListOptions) view() (query.View, error) {
	v := query.View{Search: o.Search}
	if o.Filter != "" {
		field, value, ok := strings.Cut(o.Filter, "=")
		if !ok {
			return query.View{}, NewExitError(ExitCommandError, fmt.Sprintf("invalid --filter %q: want field=value", o.Filter))
		}
		v.Filter = query.Contains{Field: field, Value: value}
	}
	if o.Sort != "" {
		v.Sort = query.SortState{Column: o.Sort, Direction: query.Asc}
		if o.Desc {
			v.Sort.Direction = query.Desc
		}
	}
	return v, nil
}

// transferFormat picks the explicit format, else the file extension, else JSON.
func transferFormat(explicit, path string) (records.Format, error) {
	if explicit == "" && path != "" {
		explicit = filepath.Ext(path)
	}
	if explicit == "" {
		return records.FormatJSON, nil
	}
	f, err := records.ParseFormat(explicit)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "invalid format", err)
	}
	return f, nil
}

func parseRowID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, dberr.Validation("row", "invalid row id %q", s)
	}
	return id, nil
}

// parseAssignments parses column=value arguments using the table's column
// types. Undeclared columns are passed through as text so the record store
// reports them.
func parseAssignments(ctx context.Context, ws *workspace.Workspace, ref model.TableRef, assignments []string) (model.Table, map[string]model.Value, error) {
	t, err := ws.Schema.Table(ctx, ref)
	if err != nil {
		return model.Table{}, nil, err
	}

	fields := make(map[string]model.Value, len(assignments))
	for _, a := range assignments {
		name, raw, ok := strings.Cut(a, "=")
		if !ok || name == "" {
			return model.Table{}, nil, dberr.Validation("row", "invalid assignment %q: want column=value", a)
		}
		c, declared := t.Column(name)
		if !declared {
			fields[name] = model.String(raw)
			continue
		}
		v, err := model.ParseValue(raw, c.Type)
		if err != nil {
			return model.Table{}, nil, &dberr.Error{Code: dberr.CodeValidation, Message: err.Error(), Entity: "column", Key: name}
		}
		fields[name] = v
	}
	return t, fields, nil
}

// rowColumns returns id, the declared columns (skipping a declared id) and
// then any extra keys present in rows.
func rowColumns(t model.Table, rows []model.Row) []string {
	cols := []string{model.IDField}
	for _, name := range t.ColumnNames() {
		if name != model.IDField {
			cols = append(cols, name)
		}
	}
	for _, r := range rows {
		for _, k := range r.Keys() {
			if !slices.Contains(cols, k) {
				cols = append(cols, k)
			}
		}
	}
	return cols
}

func rowCells(r model.Row, cols []string) []string {
	cells := make([]string, len(cols))
	for i, c := range cols {
		if v, ok := r.Lookup(c); ok {
			cells[i] = v.Text()
		}
	}
	return cells
}

func outputRows(f *OutputFormatter, t model.Table, rows []model.Row) error {
	data, err := codec.EncodeRows(rows, t.ColumnNames())
	if err != nil {
		return err
	}
	return f.Success(json.RawMessage(data), func(w io.Writer) error {
		cols := rowColumns(t, rows)
		cells := make([][]string, len(rows))
		for i, r := range rows {
			cells[i] = rowCells(r, cols)
		}
		renderTable(w, cols, cells)
		_, err := fmt.Fprintf(w, "%d rows\n", len(rows))
		return err
	})
}

func outputRow(f *OutputFormatter, t model.Table, r model.Row, verb string) error {
	data, err := codec.EncodeRow(r, t.ColumnNames())
	if err != nil {
		return err
	}
	return f.Success(json.RawMessage(data), func(w io.Writer) error {
		fmt.Fprintf(w, "%s row %d\n", verb, r.ID)
		cols := rowColumns(t, []model.Row{r})
		renderTable(w, cols, [][]string{rowCells(r, cols)})
		return nil
	})
}

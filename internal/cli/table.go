package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dbsim/internal/model"
	"github.com/roach88/dbsim/internal/schema"
	"github.com/roach88/dbsim/internal/workspace"
)

// NewTableCommand creates the table command group.
func NewTableCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Manage the tables of a project",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <project>",
		Short: "List tables in creation order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				tables, err := ws.Schema.Tables(ctx, args[0])
				if err != nil {
					return err
				}
				return f.Success(tables, func(w io.Writer) error {
					rows := make([][]string, len(tables))
					for i, t := range tables {
						rows[i] = []string{t.Name, strings.Join(t.ColumnNames(), ", ")}
					}
					renderTable(w, []string{"Table", "Columns"}, rows)
					return nil
				})
			})
		},
	})

	var columnSpecs []string
	create := &cobra.Command{
		Use:   "create <project> <name>",
		Short: "Create a table",
		Long: `Create a table with one --column per column.

Columns are written name:type[:nullable][:PK|FK], for example
  dbsim table create 1 items --column sku:string:PK --column qty:number`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				columns, err := parseColumns(columnSpecs)
				if err != nil {
					return err
				}
				t, err := ws.Schema.CreateTable(ctx, args[0], args[1], columns)
				if err != nil {
					return err
				}
				return f.Success(t, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Created table %s with %d columns\n", t.Name, len(t.Columns))
					return err
				})
			})
		},
	}
	create.Flags().StringArrayVarP(&columnSpecs, "column", "c", nil, "column as name:type[:nullable][:PK|FK] (repeatable)")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "drop <project> <table>",
		Short: "Drop a table and its rows",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				if err := ws.Schema.DropTable(ctx, workspace.Ref(args[0], args[1])); err != nil {
					return err
				}
				return f.Success(map[string]string{"dropped": args[1]}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Dropped table %s\n", args[1])
					return err
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "describe <project> <table>",
		Short: "Show a table's columns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				columns, err := ws.Schema.Structure(ctx, workspace.Ref(args[0], args[1]))
				if err != nil {
					return err
				}
				return f.Success(columns, func(w io.Writer) error {
					renderColumns(w, columns)
					return nil
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add-column <project> <table> <name:type[:nullable][:PK|FK]>",
		Short: "Append a column; existing rows are not back-filled",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				c, err := schema.ParseColumnSpec(args[2])
				if err != nil {
					return err
				}
				t, err := ws.Schema.AddColumn(ctx, workspace.Ref(args[0], args[1]), c)
				if err != nil {
					return err
				}
				return f.Success(t, func(w io.Writer) error {
					renderColumns(w, t.Columns)
					return nil
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove-column <project> <table> <column>",
		Short: "Remove a column and its values",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				t, err := ws.Schema.RemoveColumn(ctx, workspace.Ref(args[0], args[1]), args[2])
				if err != nil {
					return err
				}
				return f.Success(t, func(w io.Writer) error {
					renderColumns(w, t.Columns)
					return nil
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "seed <project>",
		Short: "Install the sample users and products tables into an empty project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				tables, err := ws.Schema.SeedSamples(ctx, args[0])
				if err != nil {
					return err
				}
				return f.Success(tables, func(w io.Writer) error {
					for _, t := range tables {
						fmt.Fprintf(w, "  %s (%d columns)\n", t.Name, len(t.Columns))
					}
					return nil
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "apply <project> <cue-dir>",
		Short: "Create tables and columns declared in CUE files",
		Long: `Load table definitions from the CUE package in <cue-dir> and apply them.

Missing tables are created and missing columns appended. Nothing is dropped.

  table: users: columns: [
    {name: "email", type: "string"},
    {name: "joined", type: "date", nullable: true},
  ]`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				defs, err := schema.LoadCUE(args[1])
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to load CUE definitions", err)
				}
				res, err := ws.Schema.Apply(ctx, args[0], defs)
				if err != nil {
					return err
				}
				return f.Success(res, func(w io.Writer) error {
					fmt.Fprintf(w, "Created %d tables, added %d columns\n", len(res.CreatedTables), len(res.AddedColumns))
					for _, t := range res.CreatedTables {
						fmt.Fprintf(w, "  + table %s\n", t)
					}
					for _, c := range res.AddedColumns {
						fmt.Fprintf(w, "  + column %s\n", c)
					}
					return nil
				})
			})
		},
	})

	return cmd
}

func parseColumns(specs []string) ([]model.Column, error) {
	columns := make([]model.Column, 0, len(specs))
	for _, s := range specs {
		c, err := schema.ParseColumnSpec(s)
		if err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}
	return columns, nil
}

func renderColumns(w io.Writer, columns []model.Column) {
	rows := make([][]string, len(columns))
	for i, c := range columns {
		null := "NO"
		if c.Nullable {
			null = "YES"
		}
		rows[i] = []string{c.Name, string(c.Type), null, string(c.Key)}
	}
	renderTable(w, []string{"Column", "Type", "Nullable", "Key"}, rows)
}

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/dbsim/internal/model"
	"github.com/roach88/dbsim/internal/workspace"
)

// NewProjectCommand creates the project command group.
func NewProjectCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				projects, err := ws.Projects.List(ctx)
				if err != nil {
					return err
				}
				return f.Success(projects, func(w io.Writer) error {
					rows := make([][]string, len(projects))
					for i, p := range projects {
						rows[i] = projectRow(p)
					}
					renderTable(w, projectHeaders, rows)
					return nil
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				p, err := ws.Projects.Create(ctx, args[0])
				if err != nil {
					return err
				}
				return f.Success(p, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Created project %s (%s)\n", p.Name, p.ID)
					return err
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a project with its tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				p, err := ws.Projects.FindByID(ctx, args[0])
				if err != nil {
					return err
				}
				tables, err := ws.Schema.Tables(ctx, p.ID)
				if err != nil {
					return err
				}
				data := struct {
					model.Project
					Tables []model.Table `json:"tables"`
				}{p, tables}
				return f.Success(data, func(w io.Writer) error {
					renderTable(w, projectHeaders, [][]string{projectRow(p)})
					for _, t := range tables {
						fmt.Fprintf(w, "  %s (%d columns)\n", t.Name, len(t.Columns))
					}
					return nil
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				p, err := ws.Projects.Rename(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return f.Success(p, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Renamed project %s to %s\n", p.ID, p.Name)
					return err
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project with all its tables and rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				if err := ws.Projects.Remove(ctx, args[0]); err != nil {
					return err
				}
				return f.Success(map[string]string{"deleted": args[0]}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Deleted project %s\n", args[0])
					return err
				})
			})
		},
	})

	return cmd
}

var projectHeaders = []string{"ID", "Name", "Kind", "Created"}

func projectRow(p model.Project) []string {
	kind := string(p.Kind)
	if kind == "" {
		kind = "-"
	}
	created := p.CreatedAt.String() + " (" + humanize.Time(p.CreatedAt.Time) + ")"
	return []string{p.ID, p.Name, kind, created}
}

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dbsim/internal/connect"
	"github.com/roach88/dbsim/internal/dberr"
	"github.com/roach88/dbsim/internal/model"
	"github.com/roach88/dbsim/internal/workspace"
)

// NewConnectCommand creates the connect command.
func NewConnectCommand(opts *RootOptions) *cobra.Command {
	var bindOnly bool

	cmd := &cobra.Command{
		Use:   "connect <project> <kind> <field=value>...",
		Short: "Attach a simulated database connection to a project",
		Long: `Validate connection parameters for a database kind, run the simulated
connection and record the kind and parameters on the project.

No network connection is made. The simulated connection waits for the
configured connect_delay and succeeds when every required field is set.

  dbsim connect 1 postgresql host=localhost port=5432 database=app username=admin password=secret
  dbsim kinds    # list kinds and their fields`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error {
				params, err := parseParams(args[2:])
				if err != nil {
					return err
				}
				kind := model.Kind(args[1])

				var p model.Project
				if bindOnly {
					p, err = ws.Connect.Bind(ctx, args[0], kind, params)
				} else {
					f.VerboseLog("connecting %s to %s...", args[0], kind)
					p, err = ws.Connect.Connect(ctx, args[0], kind, params)
				}
				if err != nil {
					return err
				}
				return f.Success(p, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Connected project %s to %s\n", p.ID, p.Kind)
					return err
				})
			})
		},
	}
	cmd.Flags().BoolVar(&bindOnly, "bind-only", false, "record the parameters without the simulated connection")

	return cmd
}

// NewKindsCommand creates the kinds command.
func NewKindsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds [query]",
		Short: "List the database kinds a project can connect to",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			catalog := connect.DefaultCatalog()

			kinds := catalog.Kinds()
			if len(args) == 1 {
				kinds = catalog.Search(args[0])
			}

			return f.Success(kinds, func(w io.Writer) error {
				rows := make([][]string, len(kinds))
				for i, k := range kinds {
					rows[i] = []string{string(k.Kind), k.Name, k.Description, strings.Join(k.Required(), ", ")}
				}
				renderTable(w, []string{"Kind", "Name", "Description", "Required"}, rows)
				return nil
			})
		},
	}
}

func parseParams(assignments []string) (map[string]string, error) {
	params := make(map[string]string, len(assignments))
	for _, a := range assignments {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, dberr.Validation("connection", "invalid parameter %q: want field=value", a)
		}
		params[k] = v
	}
	return params, nil
}

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/dbsim/internal/config"
	"github.com/roach88/dbsim/internal/connect"
	"github.com/roach88/dbsim/internal/store"
	"github.com/roach88/dbsim/internal/workspace"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	ConfigFile string
	EnvFile    string
	Backend    string
	Path       string
	Scope      string

	// Connector overrides the configured simulated connector. Tests set it
	// to connect.InstantConnector.
	Connector connect.SimulatedConnector
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the dbsim CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dbsim",
		Short: "dbsim - simulated database workspace",
		Long: `A multi-project workspace of typed tables and rows kept in a key-value store.

Projects own tables, tables own rows. Connections to real databases are
simulated: parameters are validated and recorded, nothing is dialed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	pf.StringVar(&opts.EnvFile, "env-file", "", "dotenv file (default ./.env if present)")
	pf.StringVar(&opts.Backend, "backend", "", "store backend (sqlite|bolt|memory|redis)")
	pf.StringVar(&opts.Path, "path", "", "store file, or host:port for redis")
	pf.StringVar(&opts.Scope, "scope", "", "session scope within the store")

	cmd.AddCommand(NewProjectCommand(opts))
	cmd.AddCommand(NewTableCommand(opts))
	cmd.AddCommand(NewRowCommand(opts))
	cmd.AddCommand(NewConnectCommand(opts))
	cmd.AddCommand(NewKindsCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// loadConfig resolves the configuration and applies flag overrides.
func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(config.Source{File: o.ConfigFile, EnvFile: o.EnvFile})
	if err != nil {
		return config.Config{}, err
	}
	if o.Backend != "" {
		cfg.Backend = store.Backend(o.Backend)
	}
	if o.Path != "" {
		cfg.Path = o.Path
	}
	if o.Scope != "" {
		cfg.Scope = o.Scope
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

// logger builds the diagnostic logger. Logs go to stderr so JSON output on
// stdout stays parseable.
func (o *RootOptions) logger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	level, _ := cfg.Level()
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// openWorkspace opens the configured store and builds a workspace over it.
// The caller must Close the workspace.
func (o *RootOptions) openWorkspace(ctx context.Context, cmd *cobra.Command) (*workspace.Workspace, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	logger := o.logger(cmd, cfg)
	kv, err := store.OpenBackend(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	logger.Debug("store opened", "backend", cfg.Backend, "path", cfg.Path, "scope", cfg.Scope)

	connector := o.Connector
	if connector == nil {
		connector = connect.DelayConnector{Delay: cfg.ConnectDelay}
	}

	return workspace.New(kv, workspace.Options{
		Connector: connector,
		Logger:    logger,
	}), nil
}

// formatter returns the output formatter for a command.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// withWorkspace runs fn against an open workspace and closes it afterwards.
// Workspace errors are reported through the formatter and mapped to exit
// codes.
func (o *RootOptions) withWorkspace(cmd *cobra.Command, fn func(ctx context.Context, ws *workspace.Workspace, f *OutputFormatter) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	f := o.formatter(cmd)
	ws, err := o.openWorkspace(ctx, cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := fn(ctx, ws, f); err != nil {
		return f.Fail(err)
	}
	return nil
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dbsim/internal/harness"
)

// ScenarioOptions holds flags for the scenario command.
type ScenarioOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// ScenarioSummary holds the overall run result.
type ScenarioSummary struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScenarioOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scenario <scenarios-dir>",
		Short: "Run workspace scenarios",
		Long: `Run YAML workspace scenarios, each against a fresh in-memory workspace.

Step outcomes, assertions and, when <dir>/golden/<file>.golden exists, the
trace snapshot are checked. The configured store is never touched.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  dbsim scenario ./scenarios
  dbsim scenario ./scenarios --filter "inventory-*"
  dbsim scenario ./scenarios --update
  dbsim scenario ./scenarios --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runScenarios(opts *ScenarioOptions, dir string, cmd *cobra.Command) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}

	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	summary := ScenarioSummary{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	if len(files) == 0 {
		if opts.Format == "json" {
			return outputScenarioJSON(cmd, summary)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	for _, file := range files {
		res := runScenarioFile(ctx, file, opts)
		if opts.Format != "json" {
			printScenarioResult(cmd.OutOrStdout(), res)
		}
		summary.Scenarios = append(summary.Scenarios, res)
		if res.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	if opts.Format == "json" {
		return outputScenarioJSON(cmd, summary)
	}
	return outputScenarioText(cmd, summary)
}

// findScenarioFiles finds all YAML scenario files under dir, skipping the
// golden directory.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// runScenarioFile executes one scenario file and checks its golden file.
func runScenarioFile(ctx context.Context, file string, opts *ScenarioOptions) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{
			Name:   filepath.Base(file),
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	result, err := harness.Run(ctx, scenario)
	if err != nil {
		return ScenarioResult{
			Name:   scenario.Name,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	snapshot, err := harness.Snapshot(scenario.Name, result)
	if err != nil {
		return ScenarioResult{Name: scenario.Name, Errors: []string{err.Error()}}
	}

	goldenPath := goldenFilePath(file)
	errs := result.Errors
	switch {
	case opts.Update:
		if err := writeGolden(goldenPath, snapshot); err != nil {
			errs = append(errs, fmt.Sprintf("failed to update golden file: %v", err))
		}
	default:
		golden, err := os.ReadFile(goldenPath)
		switch {
		case os.IsNotExist(err):
			// assertions only
		case err != nil:
			errs = append(errs, fmt.Sprintf("failed to read golden file: %v", err))
		case !bytes.Equal(golden, snapshot):
			errs = append(errs, "trace does not match golden file (run with --update to regenerate)")
		}
	}

	return ScenarioResult{Name: scenario.Name, Pass: len(errs) == 0, Errors: errs}
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

func writeGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func printScenarioResult(w io.Writer, res ScenarioResult) {
	if res.Pass {
		fmt.Fprintf(w, "✓ %s\n", res.Name)
		return
	}
	fmt.Fprintf(w, "✗ %s\n", res.Name)
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// outputScenarioJSON outputs the run summary as JSON.
func outputScenarioJSON(cmd *cobra.Command, summary ScenarioSummary) error {
	response := CLIResponse{Status: "ok", Data: summary}
	if summary.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_SCENARIO_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", summary.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if summary.Failed > 0 {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d scenario(s) failed", summary.Failed), Reported: true}
	}
	return nil
}

// outputScenarioText outputs the run summary as text.
func outputScenarioText(cmd *cobra.Command, summary ScenarioSummary) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Scenario Summary: %d passed, %d failed, %d total\n", summary.Passed, summary.Failed, summary.Total)

	if summary.Failed > 0 {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d scenario(s) failed", summary.Failed), Reported: true}
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}

package cli

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/sparqlc/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	InMemory  bool   // run every scenario against an in-memory endpoint
	GoldenDir string // default <scenarios-dir>/golden
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"` // "match", "written"
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run YAML scenarios against an endpoint",
		Long: `Run YAML scenarios against an endpoint.

Each scenario runs its steps through a fresh client, checks step
expectations and assertions, and compares the request trace with
<scenarios-dir>/golden/<name>.golden. A missing golden file is written.

Scenarios without an endpoint of their own use --endpoint, or a fresh
in-memory endpoint when none is configured. --in-memory forces the
in-memory endpoint for every scenario.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  sparqlc test ./testdata/scenarios
  sparqlc test ./testdata/scenarios --filter "set_*"
  sparqlc test ./testdata/scenarios --update
  sparqlc test ./testdata/scenarios --in-memory --format json`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().BoolVar(&opts.InMemory, "in-memory", false, "use an in-memory endpoint for every scenario")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden-dir", "", "golden file directory (default <scenarios-dir>/golden)")

	return cmd
}

func runTests(cmd *cobra.Command, opts *TestOptions, dir string) error {
	if ok, err := isDir(opts, dir); err != nil || !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}

	f := opts.formatter(cmd)

	files, err := harness.DiscoverScenarios(opts.Fs, dir, opts.Filter)
	var noScenarios *harness.NoScenariosError
	if errors.As(err, &noScenarios) {
		if f.IsJSON() {
			return f.Success(TestResult{Scenarios: []ScenarioResult{}})
		}
		f.Line("No scenarios found.")
		return nil
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		goldenDir = filepath.Join(dir, "golden")
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		sr := runScenario(cmd, opts, file, goldenDir)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		if !f.IsJSON() {
			printScenario(f, sr)
		}
	}

	if f.IsJSON() {
		return outputTestJSON(f, result)
	}
	return outputTestText(f, result)
}

func isDir(opts *TestOptions, dir string) (bool, error) {
	info, err := opts.Fs.Stat(dir)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// runOptions builds harness options from the resolved configuration.
func (opts *TestOptions) runOptions() []harness.Option {
	hopts := []harness.Option{harness.WithLogger(opts.logger)}
	if opts.InMemory {
		return append(hopts, harness.WithInMemory())
	}
	if cfg := opts.config; cfg != nil {
		hopts = append(hopts, harness.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
		if cfg.Endpoint != "" {
			hopts = append(hopts, harness.WithEndpoint(cfg.Endpoint))
		}
	}
	return hopts
}

// runScenario executes a single scenario and returns the result.
func runScenario(cmd *cobra.Command, opts *TestOptions, file, goldenDir string) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(file), File: file}

	scenario, err := harness.LoadScenarioFS(opts.Fs, file)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return sr
	}
	sr.Name = scenario.Name

	result, err := harness.Run(cmd.Context(), scenario, opts.runOptions()...)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Errors = append(sr.Errors, result.Errors...)

	snapshot, err := harness.Snapshot(scenario.Name, result)
	if err != nil {
		sr.Errors = append(sr.Errors, fmt.Sprintf("failed to snapshot trace: %v", err))
		return sr
	}
	written, err := harness.CheckGolden(opts.Fs, goldenDir, scenario.Name, snapshot, opts.Update)
	switch {
	case errors.Is(err, harness.ErrGoldenMismatch):
		sr.Errors = append(sr.Errors, "trace does not match golden file (run with --update to regenerate)")
	case err != nil:
		sr.Errors = append(sr.Errors, fmt.Sprintf("golden file: %v", err))
	case written:
		sr.Golden = "written"
	default:
		sr.Golden = "match"
	}

	sr.Pass = result.Pass && len(sr.Errors) == 0
	return sr
}

func printScenario(f *OutputFormatter, sr ScenarioResult) {
	if !sr.Pass {
		f.Fail("%s", sr.Name)
		for _, e := range sr.Errors {
			f.Line("  %s", e)
		}
		return
	}
	if sr.Golden == "written" {
		f.Pass("%s (golden written)", sr.Name)
		return
	}
	f.Pass("%s", sr.Name)
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(f *OutputFormatter, result TestResult) error {
	if result.Failed == 0 {
		return f.Success(result)
	}

	msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
	if err := f.Error("E_TEST_FAILED", msg, result); err != nil {
		return err
	}
	// Test failures = exit code 1
	return &ExitError{Code: ExitFailure, Message: msg, Reported: true}
}

// outputTestText outputs the test result as text.
func outputTestText(f *OutputFormatter, result TestResult) error {
	f.Line("")
	f.Line("Test Summary: %d passed, %d failed, %d total", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		// Test failures = exit code 1
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d scenario(s) failed", result.Failed), Reported: true}
	}

	f.Pass("All scenarios passed")
	return nil
}

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dobble/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // defaults to <scenarios-dir>/../golden
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
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
		Short: "Run scripted session scenarios",
		Long: `Run scenario files through the session reducer.

Each scenario feeds raw push frames and action events through the same
reducer the live client uses, checks per-step expectations and final
assertions, replays the journal to confirm it reproduces the live view, and
compares the trace with a golden file when one exists.

Golden files live in <scenarios-dir>/../golden unless --golden-dir is set.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  dobble test ./testdata/scenarios
  dobble test ./testdata/scenarios --filter "scenario_*"
  dobble test ./testdata/scenarios --update
  dobble test ./testdata/scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden-dir", "", "directory holding <name>.golden files")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); errors.Is(err, fs.ErrNotExist) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}
	if opts.GoldenDir == "" {
		opts.GoldenDir = filepath.Join(filepath.Dir(filepath.Clean(scenariosDir)), "golden")
	}

	paths, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	if len(paths) == 0 && opts.Format != "json" {
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	result := TestResult{Scenarios: []ScenarioResult{}, Total: len(paths)}
	for _, path := range paths {
		sr := runScenario(path, opts, cmd.OutOrStdout())
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, sr)
	}
	return reportTests(cmd, opts.Format, result)
}

// findScenarioFiles walks dir for .yaml and .yml files whose base name
// matches filter. An empty filter matches everything.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			ok, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// runScenario loads, runs and golden-checks one scenario file. Text output
// is streamed to w as each scenario finishes.
func runScenario(path string, opts *TestOptions, w io.Writer) ScenarioResult {
	sr := checkScenario(path, opts)
	if opts.Format == "json" {
		return sr
	}
	switch {
	case !sr.Pass:
		fmt.Fprintf(w, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	case opts.Update:
		fmt.Fprintf(w, "✓ %s (golden updated)\n", sr.Name)
	default:
		fmt.Fprintf(w, "✓ %s\n", sr.Name)
	}
	return sr
}

func checkScenario(path string, opts *TestOptions) ScenarioResult {
	failed := func(name, format string, args ...any) ScenarioResult {
		return ScenarioResult{Name: name, Errors: []string{fmt.Sprintf(format, args...)}}
	}

	sc, err := harness.LoadScenario(path)
	if err != nil {
		return failed(filepath.Base(path), "failed to load scenario: %v", err)
	}
	res, err := harness.Run(sc)
	if err != nil {
		return failed(sc.Name, "execution failed: %v", err)
	}
	trace, err := harness.Snapshot(sc, res)
	if err != nil {
		return failed(sc.Name, "failed to snapshot trace: %v", err)
	}

	goldenPath := filepath.Join(opts.GoldenDir, sc.Name+".golden")
	if opts.Update {
		if err := writeGoldenFile(goldenPath, trace); err != nil {
			return failed(sc.Name, "failed to update golden file: %v", err)
		}
		return ScenarioResult{Name: sc.Name, Pass: true}
	}

	// A scenario without a golden file is checked by its assertions alone.
	want, err := os.ReadFile(goldenPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return failed(sc.Name, "golden comparison failed: %v", err)
	}
	if err == nil && !bytes.Equal(want, trace) {
		return failed(sc.Name, "trace does not match golden file (run with --update to regenerate)")
	}
	if !res.Pass {
		return ScenarioResult{Name: sc.Name, Errors: res.Errors}
	}
	return ScenarioResult{Name: sc.Name, Pass: true}
}

func writeGoldenFile(path string, trace []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	if err := os.WriteFile(path, trace, 0644); err != nil {
		return fmt.Errorf("write golden file: %w", err)
	}
	return nil
}

// reportTests prints the summary in the requested format. Any failed
// scenario makes the command exit 1.
func reportTests(cmd *cobra.Command, format string, result TestResult) error {
	var failure error
	if result.Failed > 0 {
		failure = NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	w := cmd.OutOrStdout()
	if format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if failure != nil {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "E_TEST_FAILED", Message: failure.Error()}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if failure == nil {
		fmt.Fprintln(w, "✓ All scenarios passed")
	}
	return failure
}

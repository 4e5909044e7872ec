package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/roach88/strictflux/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter    string
	GoldenDir string
	Update    bool
}

// ScenarioOutcome is the result of one scenario in a test run.
type ScenarioOutcome struct {
	Name   string   `json:"name" yaml:"name"`
	File   string   `json:"file" yaml:"file"`
	Pass   bool     `json:"pass" yaml:"pass"`
	Golden string   `json:"golden,omitempty" yaml:"golden,omitempty"` // "match", "mismatch", "missing", "updated"
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
	Diff   string   `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// TestSummary is the structured output of the test command.
type TestSummary struct {
	Total     int               `json:"total" yaml:"total"`
	Passed    int               `json:"passed" yaml:"passed"`
	Failed    int               `json:"failed" yaml:"failed"`
	Scenarios []ScenarioOutcome `json:"scenarios" yaml:"scenarios"`
}

// Golden comparison states.
const (
	GoldenMatch    = "match"
	GoldenMismatch = "mismatch"
	GoldenMissing  = "missing"
	GoldenUpdated  = "updated"
)

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run every scenario in a directory",
		Long: `Run every *.yaml scenario in a directory against the example todo
application.

With --golden, each trace is also compared to <golden>/<name>.golden. Pass
--update to rewrite golden files from the current traces instead.

Exit codes:
  0 - All scenarios passed
  1 - At least one scenario failed or did not match its golden file
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose name contains this string")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "directory of golden trace files")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files instead of comparing")
	return cmd
}

func runTest(ctx context.Context, opts *TestOptions, dir string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Update && opts.GoldenDir == "" {
		_ = formatter.Error(ErrCodeGeneric, "--update requires --golden", nil)
		return NewExitError(ExitCommandError, "--update requires --golden")
	}

	files, err := findScenarioFiles(dir)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list scenarios", err)
	}

	summary := TestSummary{Scenarios: []ScenarioOutcome{}}
	for _, file := range files {
		scenario, err := harness.LoadScenario(file)
		if err != nil {
			_ = formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to load scenario", err)
		}
		if opts.Filter != "" && !strings.Contains(scenario.Name, opts.Filter) {
			formatter.VerboseLog("Skipping %s", scenario.Name)
			continue
		}

		outcome, err := runScenarioFile(ctx, opts, file, scenario)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to run scenario", err)
		}
		summary.Total++
		if outcome.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
		summary.Scenarios = append(summary.Scenarios, outcome)
	}

	return outputTestSummary(formatter, summary)
}

func runScenarioFile(ctx context.Context, opts *TestOptions, file string, scenario *harness.Scenario) (ScenarioOutcome, error) {
	outcome := ScenarioOutcome{Name: scenario.Name, File: file}

	result, err := harness.Run(scenario, todoFactory(ctx, nil))
	if err != nil {
		return outcome, err
	}
	outcome.Pass = result.Pass
	outcome.Errors = result.Errors

	if opts.GoldenDir == "" {
		return outcome, nil
	}

	actual, err := harness.MarshalSnapshot(scenario.Name, result)
	if err != nil {
		return outcome, err
	}
	path := filepath.Join(opts.GoldenDir, scenario.Name+".golden")

	if opts.Update {
		if err := writeFileAtomic(path, actual); err != nil {
			return outcome, err
		}
		outcome.Golden = GoldenUpdated
		return outcome, nil
	}

	expected, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		outcome.Golden = GoldenMissing
		outcome.Pass = false
	case err != nil:
		return outcome, err
	case bytes.Equal(expected, actual):
		outcome.Golden = GoldenMatch
	default:
		outcome.Golden = GoldenMismatch
		outcome.Pass = false
		outcome.Diff = goldenDiff(path, expected, actual)
	}
	return outcome, nil
}

// goldenDiff renders a unified diff between a golden file and a new trace.
func goldenDiff(path string, expected, actual []byte) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(expected)),
		B:        difflib.SplitLines(string(actual)),
		FromFile: path,
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil {
		return err.Error()
	}
	return diff
}

// findScenarioFiles returns the .yaml and .yml files directly in dir, sorted.
func findScenarioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}
	slices.Sort(files)
	return files, nil
}

func outputTestSummary(formatter *OutputFormatter, summary TestSummary) error {
	var failure error
	if summary.Failed > 0 {
		failure = NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", summary.Failed, summary.Total))
	}

	if formatter.Structured() {
		if failure == nil {
			return formatter.Success(summary)
		}
		if err := formatter.Failure("SCENARIO_FAILED", failure.Error(), summary); err != nil {
			return err
		}
		return failure
	}

	w := formatter.Writer
	for _, s := range summary.Scenarios {
		mark := "✓"
		if !s.Pass {
			mark = "✗"
		}
		line := fmt.Sprintf("%s %s", mark, s.Name)
		if s.Golden != "" {
			line += fmt.Sprintf(" [golden: %s]", s.Golden)
		}
		fmt.Fprintln(w, line)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "    %s\n", e)
		}
		if s.Diff != "" {
			fmt.Fprint(w, s.Diff)
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", summary.Passed, summary.Failed, summary.Total)
	return failure
}

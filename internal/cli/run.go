package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/strictflux/internal/dispatcher"
	"github.com/roach88/strictflux/internal/example/todo"
	"github.com/roach88/strictflux/internal/harness"
	"github.com/roach88/strictflux/internal/immutable"
	"github.com/roach88/strictflux/internal/journal"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	DBPath string
}

// RunResult is the structured output of the run command.
type RunResult struct {
	Scenario string               `json:"scenario" yaml:"scenario"`
	Pass     bool                 `json:"pass" yaml:"pass"`
	Trace    []harness.TraceEvent `json:"trace" yaml:"trace"`
	Errors   []string             `json:"errors,omitempty" yaml:"errors,omitempty"`
	Journal  string               `json:"journal,omitempty" yaml:"journal,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario against the example todo application",
		Long: `Run a YAML scenario against a fresh instance of the example todo
application and print the dispatch trace.

When --db (or journal.path in the config file) is set, every dispatch is
also recorded in that SQLite journal and can be inspected with 'trace'.

Exit codes:
  0 - Scenario passed
  1 - A step or expectation failed
  2 - Command error (unreadable scenario, journal cannot be opened)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "journal database path (default: journal.path from config)")
	return cmd
}

func runRun(ctx context.Context, opts *RunOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	dbPath := opts.DBPath
	if dbPath == "" && opts.Config != nil {
		dbPath = opts.Config.Journal.Path
	}

	var j *journal.Journal
	if dbPath != "" {
		j, err = journal.Open(dbPath)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer j.Close()
		formatter.VerboseLog("Recording dispatches in %s", dbPath)
	}

	result, err := harness.Run(scenario, todoFactory(ctx, j))
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	out := RunResult{
		Scenario: scenario.Name,
		Pass:     result.Pass,
		Trace:    result.Trace,
		Errors:   result.Errors,
		Journal:  dbPath,
	}
	return outputRunResult(formatter, out)
}

// todoFactory builds todo applications for the harness, journaling to j
// when it is non-nil.
func todoFactory(ctx context.Context, j *journal.Journal) harness.Factory {
	return func(opts ...dispatcher.Option) (harness.App, error) {
		appOpts := []todo.Option{todo.WithDispatcherOptions(opts...)}
		if j != nil {
			appOpts = append(appOpts, todo.WithJournal(ctx, j))
		}
		app, err := todo.New(appOpts...)
		if err != nil {
			return nil, err
		}
		return app, nil
	}
}

func outputRunResult(formatter *OutputFormatter, out RunResult) error {
	var failure error
	if !out.Pass {
		failure = NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed with %d error(s)", out.Scenario, len(out.Errors)))
	}

	if formatter.Structured() {
		out.Trace = thawTrace(out.Trace, formatter.Format)
		if out.Pass {
			return formatter.Success(out)
		}
		if err := formatter.Failure("SCENARIO_FAILED", out.Errors[0], out); err != nil {
			return err
		}
		return failure
	}

	w := formatter.Writer
	writeTrace(w, out.Trace)
	if out.Pass {
		fmt.Fprintf(w, "✓ %s passed (%d event(s))\n", out.Scenario, len(out.Trace))
		return nil
	}
	fmt.Fprintf(w, "✗ %s failed\n", out.Scenario)
	for _, e := range out.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	return failure
}

// writeTrace prints one line per trace event.
func writeTrace(w io.Writer, trace []harness.TraceEvent) {
	for _, ev := range trace {
		var b strings.Builder
		fmt.Fprintf(&b, "[%d] ", ev.Step)
		switch ev.Kind {
		case harness.EventDispatch:
			fmt.Fprintf(&b, "%s #%d %s", ev.ID, ev.Seq, ev.Type)
			if ev.Source != "" {
				fmt.Fprintf(&b, " (%s)", ev.Source)
			}
			if len(ev.Handled) > 0 {
				fmt.Fprintf(&b, " → %s", strings.Join(ev.Handled, ", "))
			}
		default:
			fmt.Fprintf(&b, "%s %s", ev.Kind, ev.Call)
			if ev.Type != "" {
				fmt.Fprintf(&b, " %s", ev.Type)
			}
		}
		if ev.Error != "" {
			fmt.Fprintf(&b, " !%s", ev.Error)
		}
		fmt.Fprintln(w, b.String())
	}
}

// thawTrace converts frozen payloads to plain values for YAML, which does
// not use their MarshalJSON methods.
func thawTrace(trace []harness.TraceEvent, format string) []harness.TraceEvent {
	if format != "yaml" {
		return trace
	}
	out := make([]harness.TraceEvent, len(trace))
	for i, ev := range trace {
		ev.Payload = immutable.Thaw(ev.Payload)
		out[i] = ev
	}
	return out
}

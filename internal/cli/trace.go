package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/strictflux/internal/immutable"
	"github.com/roach88/strictflux/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	DBPath     string
	DispatchID string
	Type       string
	Source     string
	ErrorsOnly bool
	Limit      int
}

// TraceEntry is a journal entry with its payload decoded.
type TraceEntry struct {
	DispatchID string    `json:"dispatch_id" yaml:"dispatch_id"`
	Seq        int64     `json:"seq" yaml:"seq"`
	Type       string    `json:"type" yaml:"type"`
	Source     string    `json:"source,omitempty" yaml:"source,omitempty"`
	Payload    any       `json:"payload" yaml:"payload"`
	Stores     []string  `json:"stores" yaml:"stores"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
	Duration   string    `json:"duration" yaml:"duration"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`

	payloadJSON string
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show dispatches recorded in a journal",
		Long: `List the dispatches recorded in a SQLite journal, oldest first.

Use --id to show a single dispatch, or --type, --source and --errors to
narrow the list.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "journal database path (default: journal.path from config)")
	cmd.Flags().StringVar(&opts.DispatchID, "id", "", "show only this dispatch")
	cmd.Flags().StringVar(&opts.Type, "type", "", "only dispatches of this action type")
	cmd.Flags().StringVar(&opts.Source, "source", "", "only dispatches from this source")
	cmd.Flags().BoolVar(&opts.ErrorsOnly, "errors", false, "only failed dispatches")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of dispatches (0 = no limit)")
	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	dbPath := opts.DBPath
	if dbPath == "" && opts.Config != nil {
		dbPath = opts.Config.Journal.Path
	}
	if dbPath == "" {
		_ = formatter.Error(ErrCodeGeneric, "no journal: pass --db or set journal.path", nil)
		return NewExitError(ExitCommandError, "no journal configured")
	}
	// journal.Open creates missing databases; trace only reads existing ones.
	if _, err := os.Stat(dbPath); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("journal not found: %s", dbPath), nil)
		return WrapExitError(ExitCommandError, "journal not found", err)
	}

	j, err := journal.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	var entries []journal.Entry
	if opts.DispatchID != "" {
		e, err := j.Get(ctx, opts.DispatchID)
		if errors.Is(err, journal.ErrNotFound) {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitFailure, "dispatch not found", err)
		}
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		entries = []journal.Entry{e}
	} else {
		entries, err = j.List(ctx, journal.Filter{
			Type:       opts.Type,
			Source:     opts.Source,
			ErrorsOnly: opts.ErrorsOnly,
			Limit:      opts.Limit,
		})
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
	}
	formatter.VerboseLog("Read %d dispatch(es) from %s", len(entries), dbPath)

	out := make([]TraceEntry, 0, len(entries))
	for _, e := range entries {
		te, err := toTraceEntry(e)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "corrupt journal entry", err)
		}
		out = append(out, te)
	}

	if formatter.Structured() {
		return formatter.Success(out)
	}
	writeTraceEntries(formatter, out)
	return nil
}

func toTraceEntry(e journal.Entry) (TraceEntry, error) {
	payload, err := e.Payload()
	if err != nil {
		return TraceEntry{}, fmt.Errorf("dispatch %s: %w", e.DispatchID, err)
	}
	return TraceEntry{
		DispatchID: e.DispatchID,
		Seq:        e.Seq,
		Type:       e.Type,
		Source:     e.Source,
		Payload:    immutable.Thaw(payload),
		Stores:     e.Stores,
		Error:      e.Error,
		Duration:   e.Duration.String(),
		StartedAt:  e.StartedAt,

		payloadJSON: e.PayloadJSON,
	}, nil
}

func writeTraceEntries(formatter *OutputFormatter, entries []TraceEntry) {
	w := formatter.Writer
	if len(entries) == 0 {
		fmt.Fprintln(w, "No dispatches recorded")
		return
	}
	for _, e := range entries {
		mark := "✓"
		if e.Error != "" {
			mark = "✗"
		}
		line := fmt.Sprintf("%s %s #%d %s", mark, e.DispatchID, e.Seq, e.Type)
		if e.Source != "" {
			line += fmt.Sprintf(" (%s)", e.Source)
		}
		if len(e.Stores) > 0 {
			line += " → " + strings.Join(e.Stores, ", ")
		}
		fmt.Fprintln(w, line)
		if formatter.Verbose {
			fmt.Fprintf(w, "    payload: %s\n", e.payloadJSON)
			fmt.Fprintf(w, "    started: %s  took: %s\n", e.StartedAt.Format(time.RFC3339Nano), e.Duration)
		}
		if e.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", e.Error)
		}
	}
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/remock/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunToken string
	Key      string // optional - filter to one fixture key
}

// TraceEvent is one interception occurrence in the trace timeline.
type TraceEvent struct {
	Seq        int64  `json:"seq"`
	FixtureKey string `json:"fixture_key"`
	Property   string `json:"property"`
	Mode       string `json:"mode"`
	Outcome    string `json:"outcome"`
	Input      string `json:"input,omitempty"`
	Output     string `json:"output,omitempty"`
}

// TraceStats summarizes one run's outcomes.
type TraceStats struct {
	TotalEvents int `json:"total_events"`
	Replayed    int `json:"replayed"`
	Recorded    int `json:"recorded"`
	Misses      int `json:"misses"`
	Errors      int `json:"errors"`
}

// TraceResult holds the complete trace output for one run.
type TraceResult struct {
	RunToken string       `json:"run_token"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// RunList holds the run tokens present in a journal, most recent first.
type RunList struct {
	Runs []string `json:"runs"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Query the interception journal",
		Long: `Query the interception journal.

Without --run, lists the run tokens present in the journal, most recent
first. With --run, prints that run's timeline: every interception in
order with its fixture key, mode, outcome and canonical input.

Examples:
  remock trace --db .remock/journal.db
  remock trace --db .remock/journal.db --run 0192f3a1-...
  remock trace --db .remock/journal.db --run 0192f3a1-... --key "TestCheckout > charge 1"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the journal database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunToken, "run", "", "run token to trace")
	cmd.Flags().StringVar(&opts.Key, "key", "", "filter to one fixture key")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	jnl, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "open journal", err)
	}
	defer jnl.Close()

	if opts.RunToken == "" {
		return listRuns(ctx, jnl, formatter)
	}

	events, err := jnl.ReadRun(ctx, opts.RunToken)
	if err != nil {
		return WrapExitError(ExitCommandError, "read run", err)
	}

	result := buildTraceResult(opts.RunToken, events, opts.Key)

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputTraceText(formatter, result, opts.Verbose)
}

func listRuns(ctx context.Context, jnl *journal.Journal, formatter *OutputFormatter) error {
	runs, err := jnl.Runs(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "list runs", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(RunList{Runs: runs})
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded")
		return nil
	}
	for _, token := range runs {
		fmt.Fprintln(formatter.Writer, token)
	}
	return nil
}

// buildTraceResult converts journal events to the trace timeline,
// optionally filtered to one fixture key.
func buildTraceResult(runToken string, events []journal.Event, keyFilter string) TraceResult {
	result := TraceResult{RunToken: runToken, Timeline: []TraceEvent{}}

	for _, ev := range events {
		if keyFilter != "" && ev.FixtureKey != keyFilter {
			continue
		}

		result.Timeline = append(result.Timeline, TraceEvent{
			Seq:        ev.Seq,
			FixtureKey: ev.FixtureKey,
			Property:   ev.Property,
			Mode:       ev.Mode,
			Outcome:    string(ev.Outcome),
			Input:      ev.Input,
			Output:     ev.Output,
		})

		switch ev.Outcome {
		case journal.OutcomeReplayed:
			result.Stats.Replayed++
		case journal.OutcomeRecorded:
			result.Stats.Recorded++
		case journal.OutcomeMiss:
			result.Stats.Misses++
		case journal.OutcomeError:
			result.Stats.Errors++
		}
	}
	result.Stats.TotalEvents = len(result.Timeline)
	return result
}

// outputTraceText renders the trace result as text.
func outputTraceText(formatter *OutputFormatter, result TraceResult, verbose bool) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Trace for run: %s\n", result.RunToken)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	} else {
		for _, event := range result.Timeline {
			fmt.Fprintf(w, "  [%d] %-8s %s %s\n", event.Seq, event.Outcome, event.FixtureKey, event.Input)
			if verbose && event.Output != "" {
				fmt.Fprintf(w, "       Output: %s\n", event.Output)
			}
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Replayed:     %d\n", result.Stats.Replayed)
	fmt.Fprintf(w, "  Recorded:     %d\n", result.Stats.Recorded)
	fmt.Fprintf(w, "  Misses:       %d\n", result.Stats.Misses)
	fmt.Fprintf(w, "  Errors:       %d\n", result.Stats.Errors)

	return nil
}

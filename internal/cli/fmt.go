package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/remock/internal/fixture"
)

// FmtOptions holds flags for the fmt command.
type FmtOptions struct {
	*RootOptions
	Check bool
}

// FmtResult holds the fmt command output for one file.
type FmtResult struct {
	Path      string `json:"path"`
	Canonical bool   `json:"canonical"`
	Rewritten bool   `json:"rewritten"`
}

// NewFmtCommand creates the fmt command.
func NewFmtCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FmtOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fmt <fixture-file>...",
		Short: "Rewrite fixture stores in canonical form",
		Long: `Rewrite fixture stores in canonical form.

A hand-edited fixture file stays loadable as long as it is valid JSON,
but only the canonical layout diffs cleanly against recorder output.
fmt parses each file and rewrites it the way the recorder would have.

With --check, no file is written; a non-canonical file makes the command
exit with status 1.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Check, "check", false, "report non-canonical files without rewriting them")

	return cmd
}

func runFmt(opts *FmtOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var results []FmtResult
	dirty := 0
	for _, path := range paths {
		result, err := fmtOne(path, opts.Check)
		if err != nil {
			return err
		}
		if !result.Canonical {
			dirty++
		}
		results = append(results, result)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		for _, result := range results {
			switch {
			case result.Canonical:
				formatter.VerboseLog("%s: already canonical", result.Path)
			case result.Rewritten:
				fmt.Fprintf(formatter.Writer, "%s: rewritten\n", result.Path)
			default:
				fmt.Fprintf(formatter.Writer, "%s: not canonical\n", result.Path)
			}
		}
	}

	if opts.Check && dirty > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d file(s) not canonical", dirty))
	}
	return nil
}

func fmtOne(path string, check bool) (FmtResult, error) {
	original, err := os.ReadFile(path)
	if err != nil {
		return FmtResult{}, WrapExitError(ExitCommandError, "read fixture file", err)
	}

	records, err := fixture.Decode(original)
	if err != nil {
		return FmtResult{}, WrapExitError(ExitFailure, fmt.Sprintf("parse %s", path), err)
	}

	canonical, err := fixture.Encode(records)
	if err != nil {
		return FmtResult{}, WrapExitError(ExitCommandError, fmt.Sprintf("encode %s", path), err)
	}

	result := FmtResult{Path: path, Canonical: bytes.Equal(original, canonical)}
	if result.Canonical || check {
		return result, nil
	}

	if err := fixture.WriteAtomic(path, canonical); err != nil {
		return FmtResult{}, &ExitError{Code: ExitCommandError, Message: ErrCodeWriteFailed + ": write " + path, Err: err}
	}
	result.Rewritten = true
	return result, nil
}

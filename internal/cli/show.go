package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/remock/internal/fixture"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Key string // optional - show only this fixture key
}

// ShowKey is one fixture key as reported by the show command.
type ShowKey struct {
	Key     string   `json:"key"`
	Count   int      `json:"count"`
	Records []string `json:"records,omitempty"` // canonical record lines, verbose or filtered output only
}

// ShowResult holds the show command output.
type ShowResult struct {
	Path string    `json:"path"`
	Keys []ShowKey `json:"keys"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <fixture-file>",
		Short: "List the keys and records of a fixture store",
		Long: `List the fixture keys of a store and how many records each holds.

With --key, prints every record of that key as canonical JSON, one per
line. With --verbose, prints the records of every key.

Examples:
  remock show __mocks__/cart_test.fixtures.json
  remock show __mocks__/cart_test.fixtures.json --key "TestCheckout > charge 1"
  remock show __mocks__/cart_test.fixtures.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Key, "key", "", "show records for this fixture key only")

	return cmd
}

func runShow(opts *ShowOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := loadFixtureFile(path)
	if err != nil {
		return err
	}

	result := ShowResult{Path: path}
	includeRecords := opts.Verbose || opts.Key != ""

	for _, key := range fixture.Keys(st.Records) {
		if opts.Key != "" && key != opts.Key {
			continue
		}
		entry := ShowKey{Key: key, Count: len(st.Records[key])}
		if includeRecords {
			for _, rec := range st.Records[key] {
				line, err := rec.MarshalCanonical()
				if err != nil {
					return WrapExitError(ExitCommandError, "encode record", err)
				}
				entry.Records = append(entry.Records, string(line))
			}
		}
		result.Keys = append(result.Keys, entry)
	}

	if opts.Key != "" && len(result.Keys) == 0 {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("key not found: %s", opts.Key), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("key not found: %s", opts.Key))
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s: %d key(s)\n", path, len(result.Keys))
	for _, entry := range result.Keys {
		fmt.Fprintf(w, "  %s (%d record(s))\n", entry.Key, entry.Count)
		for _, line := range entry.Records {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	return nil
}

// loadFixtureFile loads a fixture store, mapping failures onto exit codes:
// a missing file is a command error, a malformed one a failure.
func loadFixtureFile(path string) (*fixture.Store, error) {
	st, err := fixture.Load(path, false)
	if err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return nil, WrapExitError(ExitCommandError, "fixture file not found", err)
		}
		return nil, WrapExitError(ExitFailure, "parse fixture file", err)
	}
	return st, nil
}

package cli

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
	"github.com/spf13/cobra"

	"github.com/roach88/remock/internal/fixture"
)

//go:embed schema.cue
var schemaSource string

// VerifyIssue is one schema violation found in a fixture file.
type VerifyIssue struct {
	Path    string `json:"path"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// VerifyResult holds verification results across all checked files.
type VerifyResult struct {
	Valid  bool          `json:"valid"`
	Files  int           `json:"files"`
	Issues []VerifyIssue `json:"issues,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <fixture-file>...",
		Short: "Validate fixture stores against the store schema",
		Long: `Validate fixture stores against the store schema.

Checks that each file is well-formed JSON, that every key maps to an
array of records, and that every record carries exactly an input list
and an output. Catches hand-edits that the replay engine would reject
at load time.

Examples:
  remock verify __mocks__/cart_test.fixtures.json
  remock verify __mocks__/*.fixtures.json --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runVerify(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return WrapExitError(ExitCommandError, "compile store schema", err)
	}
	storeDef := schema.LookupPath(cue.ParsePath("#Store"))
	if err := storeDef.Err(); err != nil {
		return WrapExitError(ExitCommandError, "resolve store schema", err)
	}

	result := VerifyResult{Valid: true, Files: len(paths)}
	for _, path := range paths {
		formatter.VerboseLog("Verifying %s", path)
		issues, err := verifyOne(ctx, storeDef, path)
		if err != nil {
			return err
		}
		result.Issues = append(result.Issues, issues...)
	}
	result.Valid = len(result.Issues) == 0

	if formatter.Format == "json" {
		if result.Valid {
			return formatter.Success(result)
		}
		if err := formatter.Success(result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("verification failed with %d issue(s)", len(result.Issues)))
	}

	if result.Valid {
		fmt.Fprintf(formatter.Writer, "✓ %d file(s) valid\n", result.Files)
		return nil
	}

	fmt.Fprintln(formatter.Writer, "✗ Verification failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range result.Issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "  %s:%d: %s\n", issue.Path, issue.Line, issue.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", issue.Path, issue.Message)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("verification failed with %d issue(s)", len(result.Issues)))
}

// verifyOne checks a single file against the store schema. Schema
// violations come back as issues; unreadable files abort the command.
func verifyOne(ctx *cue.Context, storeDef cue.Value, path string) ([]VerifyIssue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read fixture file", err)
	}

	expr, err := cuejson.Extract(path, data)
	if err != nil {
		return []VerifyIssue{{Path: path, Message: fmt.Sprintf("invalid JSON: %v", err)}}, nil
	}

	unified := storeDef.Unify(ctx.BuildExpr(expr))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		var issues []VerifyIssue
		for _, e := range cueerrors.Errors(err) {
			issue := VerifyIssue{Path: path, Message: e.Error()}
			if pos := e.Position(); pos.IsValid() {
				issue.Line = pos.Line()
			}
			issues = append(issues, issue)
		}
		return issues, nil
	}

	// The schema accepts anything canon can represent; the decoder is
	// stricter about duplicate keys and number forms, so run it too.
	if _, err := fixture.Decode(data); err != nil {
		return []VerifyIssue{{Path: path, Message: err.Error()}}, nil
	}
	return nil, nil
}

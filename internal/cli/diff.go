package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/srcpatch/internal/config"
	"github.com/hupe1980/srcpatch/internal/diff"
	"github.com/hupe1980/srcpatch/internal/patch"
)

type diffOptions struct {
	// Context lines around each hunk.
	context int

	// Exit with code 3 when any file would change.
	exitCode bool
}

func newDiffCommand() *cobra.Command {
	opts := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff <file>...",
		Short: "Show what apply would change",
		Long: `Diff runs the rule set over each file and prints a unified diff of
the lines that would be removed. Nothing is written.

Files whose only change is the line terminator are listed without a
diff body.

Exit codes:
  0  Success (or no differences with --exit-code)
  1  Error
  2  Invalid arguments or configuration
  3  Differences found (only with --exit-code)
  4  Unterminated block with --unterminated=fail`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.Context(), cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.context, "context", 3, "number of context lines")
	f.BoolVar(&opts.exitCode, "exit-code", false, "exit with code 3 when there are differences")
	registerPatchFlags(cmd)

	return cmd
}

func runDiff(ctx context.Context, cmd *cobra.Command, files []string, opts *diffOptions) error {
	if opts.context < 0 {
		return &ExitError{Code: exitInvalid, Err: fmt.Errorf("invalid --context %d: must not be negative", opts.context)}
	}

	rep, err := runPatch(ctx, files, true)
	if err != nil {
		return err
	}

	color := !config.FromContext(ctx).NoColor

	if err := writeDiffs(cmd.OutOrStdout(), rep, color, opts.context); err != nil {
		return &ExitError{Code: exitError, Err: err}
	}

	if opts.exitCode && rep.ChangedCount() > 0 {
		return &ExitError{Code: exitPending, Err: fmt.Errorf("%d file(s) differ", rep.ChangedCount())}
	}

	return nil
}

// writeDiffs prints a unified diff for every changed file in rep.
func writeDiffs(w io.Writer, rep *patch.Report, color bool, contextLines int) error {
	for _, f := range rep.Files {
		if !f.Changed {
			continue
		}

		opts := diff.Options{
			OldLabel: "a/" + f.Path,
			NewLabel: "b/" + f.Path,
			Context:  contextLines,
		}

		res, err := diff.Compute(f.Before, f.After, opts)
		if err != nil {
			return fmt.Errorf("computing diff for %s: %w", f.Path, err)
		}

		if !res.HasDifferences {
			_, _ = fmt.Fprintf(w, "%s: line endings normalized\n", f.Path)
			continue
		}

		diff.Write(w, res, color)
	}

	return nil
}

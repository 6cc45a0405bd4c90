package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hupe1980/srcpatch/internal/config"
	"github.com/hupe1980/srcpatch/internal/diff"
	"github.com/hupe1980/srcpatch/internal/report"
)

type applyOptions struct {
	dryRun   bool
	format   string
	showDiff bool
}

func newApplyCommand() *cobra.Command {
	opts := &applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply <file>...",
		Short: "Patch files in place",
		Long: `Apply runs the rule set over each file and rewrites it in place.

Files are only rewritten when their content changes. Every line is
written with the configured terminator (CRLF by default), including the
last one.

Exit codes:
  0  Success
  1  Error (unreadable file, decode or encode failure)
  2  Invalid arguments or configuration
  4  Unterminated block with --unterminated=fail`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.dryRun, "dry-run", false, "report changes without writing")
	f.BoolVar(&opts.showDiff, "diff", false, "print a unified diff for each changed file")
	registerFormatFlag(cmd, &opts.format)
	registerPatchFlags(cmd)

	return cmd
}

func runApply(ctx context.Context, cmd *cobra.Command, files []string, opts *applyOptions) error {
	if err := report.ValidateFormat(opts.format); err != nil {
		return &ExitError{Code: exitInvalid, Err: err}
	}

	rep, err := runPatch(ctx, files, opts.dryRun)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()

	if opts.showDiff {
		if err := writeDiffs(w, rep, !config.FromContext(ctx).NoColor, diff.DefaultOptions().Context); err != nil {
			return &ExitError{Code: exitError, Err: err}
		}
	}

	if err := report.Write(w, rep, opts.format, opts.dryRun); err != nil {
		return &ExitError{Code: exitError, Err: err}
	}

	return nil
}

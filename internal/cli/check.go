package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/srcpatch/internal/report"
)

func newCheckCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Report files that would be patched",
		Long: `Check runs the rule set over each file without writing anything and
fails when at least one file would change. Use it in CI to verify that
sources are already clean.

Exit codes:
  0  All files are up to date
  1  Error
  2  Invalid arguments or configuration
  3  At least one file would be patched
  4  Unterminated block with --unterminated=fail`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cmd, args, format)
		},
	}

	registerFormatFlag(cmd, &format)
	registerPatchFlags(cmd)

	return cmd
}

func runCheck(ctx context.Context, cmd *cobra.Command, files []string, format string) error {
	if err := report.ValidateFormat(format); err != nil {
		return &ExitError{Code: exitInvalid, Err: err}
	}

	rep, err := runPatch(ctx, files, true)
	if err != nil {
		return err
	}

	if err := report.Write(cmd.OutOrStdout(), rep, format, false); err != nil {
		return &ExitError{Code: exitError, Err: err}
	}

	if n := rep.ChangedCount(); n > 0 {
		return &ExitError{Code: exitPending, Err: fmt.Errorf("%d of %d file(s) need patching", n, len(rep.Files))}
	}

	return nil
}

package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/srcpatch/internal/logging"
	"github.com/hupe1980/srcpatch/internal/patch"
	"github.com/hupe1980/srcpatch/internal/watch"
)

type watchOptions struct {
	debounce time.Duration
	dryRun   bool
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <file>...",
		Short: "Keep files patched while they are edited",
		Long: `Watch patches each file once, then monitors the files for changes and
re-applies the rule set whenever one of them is saved.

File changes are debounced to avoid rapid re-runs. Files are only
rewritten when the patch changes their content, so the watcher's own
writes settle immediately. Errors are reported and watching continues.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "debounce interval for file changes")
	f.BoolVar(&opts.dryRun, "dry-run", false, "report changes without writing")
	registerPatchFlags(cmd)

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, files []string, opts *watchOptions) error {
	p, err := newPatcher(ctx, opts.dryRun)
	if err != nil {
		return err
	}

	runFn := func(fnCtx context.Context, paths []string) (*patch.Report, error) {
		return p.ApplyAll(fnCtx, paths)
	}

	watchOpts := watch.Options{
		Files:    files,
		Debounce: opts.debounce,
		Logger:   logging.FromContext(ctx),
		Out:      cmd.ErrOrStderr(),
	}

	if err := watch.Run(ctx, watchOpts, runFn); err != nil {
		return &ExitError{Code: exitError, Err: err}
	}

	return nil
}

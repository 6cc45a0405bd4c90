package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/srcpatch/internal/patch"
)

// RunFunc is called each time the watcher triggers a re-patch of paths.
type RunFunc func(ctx context.Context, paths []string) (*patch.Report, error)

// Options configures the watch behaviour.
type Options struct {
	// Files are the documents to keep patched.
	Files []string

	// Debounce is the quiet period before re-patching.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status messages.
	Out io.Writer

	// Ready, when non-nil, is closed once the initial run has finished and
	// events are being processed.
	Ready chan<- struct{}
}

// DefaultOptions returns sensible default watch options.
func DefaultOptions() Options {
	return Options{
		Debounce: 500 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run patches every file once, then watches their directories and
// re-patches files as they change. It blocks until the context is
// cancelled or a SIGINT/SIGTERM signal is received.
//
// Files are written only when their content changes, so the watcher's own
// writes produce at most one extra no-op run.
func Run(ctx context.Context, opts Options, runFn RunFunc) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	targets, err := resolveTargets(opts.Files)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range targetDirs(targets) {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching directory %q: %w", dir, err)
		}
	}

	// Trap SIGINT / SIGTERM for graceful shutdown.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(opts.Out, "watching %d file(s) (debounce=%s)\n", len(targets), opts.Debounce)

	var runMu sync.Mutex

	run := func(paths []string, trigger string) {
		runMu.Lock()
		defer runMu.Unlock()

		doRun(sigCtx, opts, runFn, paths, trigger)
	}

	// Initial patch.
	all := make([]string, 0, len(targets))
	for abs := range targets {
		all = append(all, abs)
	}

	sort.Strings(all)
	run(all, "(initial)")

	debouncer := NewDebouncer(opts.Debounce, func(paths []string) {
		run(paths, fmt.Sprintf("%d change(s)", len(paths)))
	})
	defer debouncer.Stop()

	if opts.Ready != nil {
		close(opts.Ready)
	}

	for {
		select {
		case <-sigCtx.Done():
			fmt.Fprintln(opts.Out, "\nshutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event, targets) {
				continue
			}

			debouncer.Trigger(filepath.Clean(event.Name))

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// doRun executes a single patch run and prints the status line.
func doRun(ctx context.Context, opts Options, runFn RunFunc, paths []string, trigger string) {
	now := time.Now().Format("15:04:05")

	rep, err := runFn(ctx, existing(paths))
	if err != nil {
		fmt.Fprintf(opts.Out, "[%s] %s → ERROR: %v\n", now, trigger, err)
		return
	}

	fmt.Fprintf(opts.Out, "[%s] %s → OK (%s)\n", now, trigger, Summary(rep))

	if rep == nil {
		return
	}

	for _, f := range rep.Files {
		if f.Written {
			fmt.Fprintf(opts.Out, "  patched %s (-%d lines)\n", f.Path, len(f.Removed))
		}

		if f.Open != nil {
			fmt.Fprintf(opts.Out, "  warning: %s: block %q opened at line %d never closed\n",
				f.Path, f.Open.Rule, f.Open.StartLine)
		}
	}
}

// resolveTargets maps absolute, cleaned target paths to themselves.
func resolveTargets(files []string) (map[string]bool, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}

	targets := make(map[string]bool, len(files))

	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", f, err)
		}

		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("watching %q: %w", f, err)
		}

		if info.IsDir() {
			return nil, fmt.Errorf("watching %q: is a directory", f)
		}

		targets[filepath.Clean(abs)] = true
	}

	return targets, nil
}

// targetDirs returns the sorted, de-duplicated parent directories.
func targetDirs(targets map[string]bool) []string {
	seen := make(map[string]bool)

	var dirs []string

	for t := range targets {
		d := filepath.Dir(t)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}

	sort.Strings(dirs)

	return dirs
}

// existing drops paths that no longer exist, such as files removed between
// the event and the run.
func existing(paths []string) []string {
	out := make([]string, 0, len(paths))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}

	return out
}

// isRelevant filters out events on files that are not being watched.
func isRelevant(event fsnotify.Event, targets map[string]bool) bool {
	if event.Op == 0 {
		return false
	}

	// Only care about write, create, rename.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}

	return targets[filepath.Clean(event.Name)]
}

// Package patch reads documents, runs the line filter over them, and writes
// the results back. It is the orchestration layer between the pure filter
// and the filesystem.
package patch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/srcpatch/internal/document"
	"github.com/hupe1980/srcpatch/internal/filter"
	"github.com/hupe1980/srcpatch/internal/logging"
	"github.com/hupe1980/srcpatch/internal/rules"
)

// Options controls how documents are patched.
type Options struct {
	// Encoding is the character encoding of input and output.
	Encoding string
	// LineEnding is the terminator used when writing.
	LineEnding document.LineEnding
	// Unterminated decides what happens when input ends inside a block.
	Unterminated filter.UnterminatedPolicy
	// DryRun computes results without writing.
	DryRun bool
	// Workers bounds the number of files processed concurrently by
	// ApplyAll. Defaults to GOMAXPROCS if zero.
	Workers int
}

// DefaultOptions returns the options matching the tool's defaults.
func DefaultOptions() Options {
	return Options{
		Encoding:     document.DefaultEncoding,
		LineEnding:   document.CRLF,
		Unterminated: filter.PolicyDrop,
	}
}

// FileReport describes the outcome of patching a single file.
type FileReport struct {
	Path     string            `json:"path" yaml:"path"`
	LinesIn  int               `json:"linesIn" yaml:"linesIn"`
	LinesOut int               `json:"linesOut" yaml:"linesOut"`
	Changed  bool              `json:"changed" yaml:"changed"`
	Written  bool              `json:"written" yaml:"written"`
	Removed  []filter.Removal  `json:"removed,omitempty" yaml:"removed,omitempty"`
	Open     *filter.OpenBlock `json:"unterminated,omitempty" yaml:"unterminated,omitempty"`
	Before   []string          `json:"-" yaml:"-"`
	After    []string          `json:"-" yaml:"-"`
}

// Report aggregates the file reports of one run, in input order.
type Report struct {
	RuleSet string        `json:"ruleSet" yaml:"ruleSet"`
	Files   []*FileReport `json:"files" yaml:"files"`
}

// ChangedCount returns the number of files whose content changed.
func (r *Report) ChangedCount() int {
	n := 0

	for _, f := range r.Files {
		if f.Changed {
			n++
		}
	}

	return n
}

// RemovedCount returns the total number of dropped lines.
func (r *Report) RemovedCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Removed)
	}

	return n
}

// Patcher applies a rule set to documents in a store.
type Patcher struct {
	store  *document.Store
	set    *rules.Set
	opts   Options
	logger *slog.Logger
}

// Option configures a Patcher.
type Option func(*Patcher)

// WithLogger sets a logger for the Patcher.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Patcher) {
		p.logger = logger
	}
}

// New creates a Patcher. A nil store selects the OS filesystem.
func New(store *document.Store, set *rules.Set, opts Options, options ...Option) *Patcher {
	if store == nil {
		store = document.NewStore(nil)
	}

	if opts.Encoding == "" {
		opts.Encoding = document.DefaultEncoding
	}

	if opts.LineEnding == "" {
		opts.LineEnding = document.CRLF
	}

	if opts.Unterminated == "" {
		opts.Unterminated = filter.PolicyDrop
	}

	p := &Patcher{
		store:  store,
		set:    set,
		opts:   opts,
		logger: slog.Default(),
	}

	for _, o := range options {
		o(p)
	}

	return p
}

// RuleSet returns the rule set the patcher applies.
func (p *Patcher) RuleSet() *rules.Set { return p.set }

// Apply patches a single file. The file is only rewritten when the
// patched bytes differ from the original, and never in dry-run mode.
// Under PolicyFail an unterminated block aborts before anything is written.
func (p *Patcher) Apply(ctx context.Context, path string) (*FileReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := p.store.Read(path, p.opts.Encoding)
	if err != nil {
		return nil, err
	}

	logger := logging.ForFile(p.logger, path)

	lines := document.SplitLines(text)
	res := filter.Apply(lines, p.set.Rules)

	if err := p.opts.Unterminated.Check(res); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	out := document.JoinLines(res.Lines, p.opts.LineEnding)

	rep := &FileReport{
		Path:     path,
		LinesIn:  len(lines),
		LinesOut: len(res.Lines),
		Changed:  out != text,
		Removed:  res.Removed,
		Open:     res.Open,
		Before:   lines,
		After:    res.Lines,
	}

	for _, r := range res.Removed {
		logger.Debug("removed line",
			slog.Int("line", r.Line),
			slog.String("rule", r.Rule),
			slog.String("reason", string(r.Reason)),
		)
	}

	if res.Open != nil {
		logger.Warn("unterminated block dropped trailing content",
			slog.String("rule", res.Open.Rule),
			slog.Int("startLine", res.Open.StartLine),
		)
	}

	if !rep.Changed || p.opts.DryRun {
		return rep, nil
	}

	if err := p.store.Write(path, out, p.opts.Encoding); err != nil {
		return nil, err
	}

	rep.Written = true

	logger.Info("patched file",
		slog.Int("removed", len(res.Removed)),
		slog.Int("linesOut", len(res.Lines)),
	)

	return rep, nil
}

// ApplyAll patches independent files concurrently on a bounded worker
// pool. Duplicate paths are processed once and reports follow the order
// of first appearance. The first error cancels the remaining work and is
// returned.
func (p *Patcher) ApplyAll(ctx context.Context, paths []string) (*Report, error) {
	paths = unique(paths)
	report := &Report{RuleSet: p.set.Name, Files: make([]*FileReport, len(paths))}

	workers := p.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		i, path := i, path

		g.Go(func() error {
			rep, err := p.Apply(gctx, path)
			if err != nil {
				return err
			}

			report.Files[i] = rep

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return report, nil
}

func unique(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))

	for _, p := range paths {
		if seen[p] {
			continue
		}

		seen[p] = true
		out = append(out, p)
	}

	return out
}

// Package srcpatch provides a public Go API for stripping obsolete lines
// and blocks from source files.
//
// This package exposes the srcpatch rule engine as a library, allowing
// programmatic use without the CLI.
//
// Basic usage:
//
//	result, err := srcpatch.Patch(ctx, []string{"lib/home_screen.dart"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Files[0].Changed)
//
// With options:
//
//	result, err := srcpatch.Patch(ctx, files,
//	    srcpatch.WithRulesFile("cleanup.yaml"),
//	    srcpatch.WithLineEnding("lf"),
//	    srcpatch.WithDryRun(),
//	)
package srcpatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/hupe1980/srcpatch/internal/document"
	"github.com/hupe1980/srcpatch/internal/filter"
	"github.com/hupe1980/srcpatch/internal/logging"
	"github.com/hupe1980/srcpatch/internal/patch"
	"github.com/hupe1980/srcpatch/internal/rules"
)

// Errors returned by Patch and Filter, for use with errors.Is.
var (
	// ErrUnterminatedBlock is returned under WithFailOnUnterminated when the
	// input ends inside a block.
	ErrUnterminatedBlock = filter.ErrUnterminatedBlock
	// ErrDecode is returned when a file is not valid in the configured encoding.
	ErrDecode = document.ErrDecode
	// ErrEncode is returned when output cannot be represented in the encoding.
	ErrEncode = document.ErrEncode
	// ErrInvalidRule is returned for malformed rule files.
	ErrInvalidRule = rules.ErrInvalidRule
	// ErrUnknownSet is returned when a built-in rule set does not exist.
	ErrUnknownSet = rules.ErrUnknownSet
)

// DefaultRuleSet is the built-in rule set used when none is selected.
const DefaultRuleSet = rules.DefaultSetName

// Option configures Patch and Filter.
// Use the With* functions to create Options.
type Option func(*options)

type options struct {
	ruleSet    string
	rulesFile  string
	rulesData  []byte
	encoding   string
	lineEnding string
	failOpen   bool
	dryRun     bool
	workers    int
	fs         afero.Fs
	logger     *slog.Logger
}

// WithRuleSet selects a built-in rule set by name.
func WithRuleSet(name string) Option { return func(o *options) { o.ruleSet = name } }

// WithRulesFile loads rules from a YAML rule file. It takes precedence over
// WithRuleSet.
func WithRulesFile(path string) Option { return func(o *options) { o.rulesFile = path } }

// WithRulesData parses rules from raw rule file YAML. It takes precedence
// over WithRulesFile and WithRuleSet.
func WithRulesData(data []byte) Option { return func(o *options) { o.rulesData = data } }

// WithEncoding sets the character encoding of input and output (default: utf-8).
func WithEncoding(name string) Option { return func(o *options) { o.encoding = name } }

// WithLineEnding sets the line terminator to write: "crlf" (default) or "lf".
func WithLineEnding(e string) Option { return func(o *options) { o.lineEnding = e } }

// WithFailOnUnterminated makes an unterminated block an error instead of
// dropping everything after its trigger line.
func WithFailOnUnterminated() Option { return func(o *options) { o.failOpen = true } }

// WithDryRun computes results without writing files.
func WithDryRun() Option { return func(o *options) { o.dryRun = true } }

// WithWorkers bounds the number of files patched concurrently.
func WithWorkers(n int) Option { return func(o *options) { o.workers = n } }

// WithFs sets the filesystem files are read from and written to
// (default: the OS filesystem).
func WithFs(fs afero.Fs) Option { return func(o *options) { o.fs = fs } }

// WithLogger sets the logger (default: discard).
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// Removal describes a single dropped line.
type Removal struct {
	Line   int    // 1-based input line number
	Text   string // dropped content
	Rule   string // responsible rule
	Reason string // line, block-start, block-body or block-end
}

// FileResult describes the outcome for one file.
type FileResult struct {
	Path     string
	LinesIn  int
	LinesOut int
	Changed  bool
	Written  bool
	Removed  []Removal

	// Unterminated is true when the file ended inside a block.
	Unterminated bool
}

// Result holds the output of a successful Patch.
type Result struct {
	// RuleSet is the name of the rule set that was applied.
	RuleSet string

	// Files are the per-file results in input order.
	Files []FileResult
}

// Patch applies the rule set to each file in place.
//
// Pass no options to use all defaults:
//
//	result, err := srcpatch.Patch(ctx, []string{"lib/home_screen.dart"})
func Patch(ctx context.Context, paths []string, opts ...Option) (*Result, error) {
	if len(paths) == 0 {
		return nil, errors.New("no files to patch")
	}

	o := apply(opts)

	p, err := o.patcher()
	if err != nil {
		return nil, err
	}

	rep, err := p.ApplyAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	res := &Result{RuleSet: rep.RuleSet, Files: make([]FileResult, 0, len(rep.Files))}

	for _, f := range rep.Files {
		fr := FileResult{
			Path:         f.Path,
			LinesIn:      f.LinesIn,
			LinesOut:     f.LinesOut,
			Changed:      f.Changed,
			Written:      f.Written,
			Unterminated: f.Open != nil,
		}

		for _, r := range f.Removed {
			fr.Removed = append(fr.Removed, Removal{Line: r.Line, Text: r.Text, Rule: r.Rule, Reason: string(r.Reason)})
		}

		res.Files = append(res.Files, fr)
	}

	return res, nil
}

// Filter applies the rule set to text held in memory and returns the
// result joined with the configured line terminator.
func Filter(text string, opts ...Option) (string, error) {
	o := apply(opts)

	set, err := o.resolve()
	if err != nil {
		return "", err
	}

	e, policy, err := o.output()
	if err != nil {
		return "", err
	}

	res := filter.Apply(document.SplitLines(text), set.Rules)

	if err := policy.Check(res); err != nil {
		return "", err
	}

	return document.JoinLines(res.Lines, e), nil
}

// RuleSets returns the names of the built-in rule sets.
func RuleSets() []string {
	return rules.BuiltinNames()
}

func apply(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = logging.Discard()
	}

	return o
}

func (o *options) resolve() (*rules.Set, error) {
	if len(o.rulesData) > 0 {
		set, err := rules.Parse(o.rulesData)
		if err != nil {
			return nil, err
		}

		if set.Name == "" {
			set.Name = "custom"
		}

		return set, nil
	}

	return rules.Resolve(rules.Source{File: o.rulesFile, Builtin: o.ruleSet})
}

func (o *options) output() (document.LineEnding, filter.UnterminatedPolicy, error) {
	e := document.CRLF

	if o.lineEnding != "" {
		parsed, err := document.ParseLineEnding(o.lineEnding)
		if err != nil {
			return "", "", err
		}

		e = parsed
	}

	policy := filter.PolicyDrop
	if o.failOpen {
		policy = filter.PolicyFail
	}

	return e, policy, nil
}

func (o *options) patcher() (*patch.Patcher, error) {
	set, err := o.resolve()
	if err != nil {
		return nil, err
	}

	e, policy, err := o.output()
	if err != nil {
		return nil, err
	}

	if o.encoding != "" {
		if _, err := document.LookupCodec(o.encoding); err != nil {
			return nil, fmt.Errorf("invalid encoding: %w", err)
		}
	}

	popts := patch.Options{
		Encoding:     o.encoding,
		LineEnding:   e,
		Unterminated: policy,
		DryRun:       o.dryRun,
		Workers:      o.workers,
	}

	store := document.NewStore(o.fs, document.WithLogger(o.logger))

	return patch.New(store, set, popts, patch.WithLogger(o.logger)), nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hupe1980/srcpatch/internal/config"
	"github.com/hupe1980/srcpatch/internal/document"
	"github.com/hupe1980/srcpatch/internal/filter"
	"github.com/hupe1980/srcpatch/internal/logging"
	"github.com/hupe1980/srcpatch/internal/patch"
	"github.com/hupe1980/srcpatch/internal/rules"
)

// newPatcher builds a Patcher from the configuration carried in ctx.
// Rule resolution failures are reported as invalid configuration.
func newPatcher(ctx context.Context, dryRun bool) (*patch.Patcher, error) {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	set, err := rules.Resolve(cfg.RuleSource())
	if err != nil {
		return nil, &ExitError{Code: exitInvalid, Err: fmt.Errorf("resolving rules: %w", err)}
	}

	// Values were validated by config.Load.
	lineEnding, _ := document.ParseLineEnding(cfg.LineEnding)
	policy, _ := filter.ParsePolicy(cfg.Unterminated)

	logger.Debug("rule set resolved",
		slog.String("ruleSet", set.Name),
		slog.Int("rules", len(set.Rules)),
	)

	opts := patch.Options{
		Encoding:     cfg.Encoding,
		LineEnding:   lineEnding,
		Unterminated: policy,
		DryRun:       dryRun,
		Workers:      cfg.Workers,
	}

	store := document.NewStore(nil, document.WithLogger(logger))

	return patch.New(store, set, opts, patch.WithLogger(logger)), nil
}

// runPatch patches files and maps failures onto exit codes.
func runPatch(ctx context.Context, files []string, dryRun bool) (*patch.Report, error) {
	p, err := newPatcher(ctx, dryRun)
	if err != nil {
		return nil, err
	}

	rep, err := p.ApplyAll(ctx, files)
	if err != nil {
		return nil, classify(err)
	}

	return rep, nil
}

// classify wraps err in an ExitError carrying the matching exit code.
func classify(err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	switch {
	case errors.Is(err, filter.ErrUnterminatedBlock):
		return &ExitError{Code: exitUnterminated, Err: err}
	case errors.Is(err, rules.ErrInvalidRule),
		errors.Is(err, rules.ErrUnknownSet),
		errors.Is(err, rules.ErrIncompatible),
		errors.Is(err, document.ErrUnsupportedEncoding):
		return &ExitError{Code: exitInvalid, Err: err}
	default:
		return &ExitError{Code: exitError, Err: err}
	}
}

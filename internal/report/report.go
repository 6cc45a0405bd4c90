// Package report renders patch results and rule sets for humans and
// machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/srcpatch/internal/patch"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidateFormat checks that format is one of text, json, yaml.
func ValidateFormat(format string) error {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("invalid format %q: must be one of text, json, yaml", format)
	}
}

// Write renders r in the requested format.
func Write(w io.Writer, r *patch.Report, format string, dryRun bool) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding JSON report: %w", err)
		}

		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding YAML report: %w", err)
		}

		return enc.Close()
	default:
		writeText(w, r, dryRun)
		return nil
	}
}

func writeText(w io.Writer, r *patch.Report, dryRun bool) {
	for _, f := range r.Files {
		status := "unchanged"

		switch {
		case f.Written:
			status = "patched"
		case f.Changed && dryRun:
			status = "would patch"
		case f.Changed:
			status = "pending"
		}

		_, _ = fmt.Fprintf(w, "%s: %s (%d → %d lines, %d removed)\n",
			f.Path, status, f.LinesIn, f.LinesOut, len(f.Removed))

		if f.Open != nil {
			_, _ = fmt.Fprintf(w, "  warning: block %q opened at line %d was never closed by %q; trailing content dropped\n",
				f.Open.Rule, f.Open.StartLine, f.Open.End)
		}
	}

	_, _ = fmt.Fprintf(w, "%d file(s), %d changed, %d line(s) removed (rule set %s)\n",
		len(r.Files), r.ChangedCount(), r.RemovedCount(), r.RuleSet)
}

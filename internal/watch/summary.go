package watch

import (
	"fmt"
	"strings"

	"github.com/hupe1980/srcpatch/internal/patch"
)

// Summary returns a one-line, human-readable description of a patch run.
func Summary(r *patch.Report) string {
	if r == nil || len(r.Files) == 0 {
		return "no files"
	}

	var written, pending, open int

	for _, f := range r.Files {
		switch {
		case f.Written:
			written++
		case f.Changed:
			pending++
		}

		if f.Open != nil {
			open++
		}
	}

	parts := []string{fmt.Sprintf("%d file(s)", len(r.Files))}

	if written > 0 {
		parts = append(parts, fmt.Sprintf("%d patched", written))
	}

	if pending > 0 {
		parts = append(parts, fmt.Sprintf("%d pending", pending))
	}

	if written == 0 && pending == 0 {
		parts = append(parts, "up to date")
	}

	if n := r.RemovedCount(); n > 0 {
		parts = append(parts, fmt.Sprintf("-%d line(s)", n))
	}

	if open > 0 {
		parts = append(parts, fmt.Sprintf("%d unterminated", open))
	}

	return strings.Join(parts, ", ")
}

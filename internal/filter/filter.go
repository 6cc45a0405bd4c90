package filter

import (
	"errors"
	"fmt"

	"github.com/hupe1980/srcpatch/internal/rules"
)

// ErrUnterminatedBlock is returned by callers enforcing PolicyFail when a
// block rule opened but never saw its closing delimiter.
var ErrUnterminatedBlock = errors.New("unterminated block")

// Reason explains why a line was removed.
type Reason string

// Removal reasons.
const (
	ReasonLine       Reason = "line"
	ReasonBlockStart Reason = "block-start"
	ReasonBlockBody  Reason = "block-body"
	ReasonBlockEnd   Reason = "block-end"
)

// Removal records a single dropped line.
type Removal struct {
	// Line is the 1-based input line number.
	Line int `json:"line" yaml:"line"`
	// Text is the dropped line content.
	Text string `json:"text" yaml:"text"`
	// Rule is the name of the rule responsible.
	Rule string `json:"rule" yaml:"rule"`
	// Reason distinguishes single-line deletions from block deletions.
	Reason Reason `json:"reason" yaml:"reason"`
}

// OpenBlock describes a block that was still open at end of input.
type OpenBlock struct {
	// Rule is the name of the block rule that opened.
	Rule string `json:"rule" yaml:"rule"`
	// StartLine is the 1-based line number of the trigger line.
	StartLine int `json:"startLine" yaml:"startLine"`
	// End is the delimiter that never appeared.
	End string `json:"end" yaml:"end"`
}

// Err returns an error wrapping ErrUnterminatedBlock.
func (o *OpenBlock) Err() error {
	return fmt.Errorf("%w: rule %q opened at line %d, no closing %q before end of input",
		ErrUnterminatedBlock, o.Rule, o.StartLine, o.End)
}

// Result holds the outcome of a filter pass.
type Result struct {
	// Lines are the retained lines in original order.
	Lines []string
	// Removed records every dropped line in order.
	Removed []Removal
	// Open is non-nil when the input ended inside a block. Everything from
	// the trigger line to end of input has been dropped.
	Open *OpenBlock
}

// Changed reports whether any line was dropped.
func (r *Result) Changed() bool {
	return len(r.Removed) > 0
}

// Apply runs a single forward pass over lines. Line rules are evaluated
// first, in order; a block trigger is only considered when no line rule
// matched. While a block is open only its closing delimiter is checked,
// and the delimiter line is dropped too.
//
// Apply is total: it never fails and never mutates lines. An empty rule
// list returns the input unchanged.
func Apply(lines []string, rs []rules.Rule) *Result {
	res := &Result{Lines: make([]string, 0, len(lines))}

	var (
		skipping bool
		active   rules.BlockRule
		start    int
	)

	for i, line := range lines {
		n := i + 1

		if skipping {
			reason := ReasonBlockBody
			if active.Closes(line) {
				skipping = false
				reason = ReasonBlockEnd
			}

			res.Removed = append(res.Removed, Removal{Line: n, Text: line, Rule: active.Name, Reason: reason})

			continue
		}

		matched, reason := match(line, rs)
		if matched == nil {
			res.Lines = append(res.Lines, line)
			continue
		}

		if block, ok := matched.(rules.BlockRule); ok {
			skipping = true
			active = block
			start = n
		}

		res.Removed = append(res.Removed, Removal{Line: n, Text: line, Rule: matched.RuleName(), Reason: reason})
	}

	if skipping {
		res.Open = &OpenBlock{Rule: active.Name, StartLine: start, End: active.EndToken()}
	}

	return res
}

// match returns the rule that drops line. Line rules are checked before
// any block trigger, each group in list order.
func match(line string, rs []rules.Rule) (rules.Rule, Reason) {
	for _, r := range rs {
		if rule, ok := r.(rules.LineRule); ok && rule.Matches(line) {
			return rule, ReasonLine
		}
	}

	for _, r := range rs {
		if rule, ok := r.(rules.BlockRule); ok && rule.Opens(line) {
			return rule, ReasonBlockStart
		}
	}

	return nil, ""
}

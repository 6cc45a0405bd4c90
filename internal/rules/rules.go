// Package rules defines the deletion rules srcpatch applies to a document.
//
// A rule is either a [LineRule], which drops individual lines by content,
// or a [BlockRule], which drops a contiguous run of lines bounded by a
// start trigger and a closing delimiter. Rules are grouped into ordered
// [Set] values that are either built in or loaded from YAML rule files.
package rules

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// DefaultBlockEnd is the closing delimiter used by block rules that do not
// declare one.
const DefaultBlockEnd = "),"

var (
	// ErrInvalidRule is returned when a rule or rule set fails validation.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrUnknownSet is returned when a rule set name cannot be resolved.
	ErrUnknownSet = errors.New("unknown rule set")

	// ErrIncompatible is returned when a rule file requires a srcpatch
	// version the running binary does not satisfy.
	ErrIncompatible = errors.New("incompatible rule file")
)

// Rule is a single deletion rule. The concrete types are [LineRule] and
// [BlockRule].
type Rule interface {
	// RuleName returns the identifier used in reports and logs.
	RuleName() string

	isRule()
}

// LineRule drops any line containing Contains, unless the line also
// contains Unless.
type LineRule struct {
	Name     string
	Contains string
	Unless   string
}

// RuleName implements Rule.
func (r LineRule) RuleName() string { return r.Name }

func (LineRule) isRule() {}

// Matches reports whether line should be dropped by r.
func (r LineRule) Matches(line string) bool {
	if !strings.Contains(line, r.Contains) {
		return false
	}

	return r.Unless == "" || !strings.Contains(line, r.Unless)
}

// BlockRule opens a skip block on any line containing Start. The block is
// closed by the first subsequent line whose trimmed content equals End.
type BlockRule struct {
	Name  string
	Start string
	End   string
}

// RuleName implements Rule.
func (r BlockRule) RuleName() string { return r.Name }

func (BlockRule) isRule() {}

// Opens reports whether line starts a block.
func (r BlockRule) Opens(line string) bool {
	return strings.Contains(line, r.Start)
}

// Closes reports whether line is the closing delimiter of the block.
func (r BlockRule) Closes(line string) bool {
	return TrimLine(line) == r.EndToken()
}

// TrimLine strips leading and trailing whitespace. Besides Unicode white
// space it strips the ASCII information separators U+001C..U+001F, which
// count as white space for the closing-delimiter comparison.
func TrimLine(s string) string {
	return strings.TrimFunc(s, isSpace)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= '\x1c' && r <= '\x1f')
}

// EndToken returns the closing delimiter, falling back to DefaultBlockEnd.
func (r BlockRule) EndToken() string {
	if r.End == "" {
		return DefaultBlockEnd
	}

	return r.End
}

// Set is a named, ordered list of rules. Order matters: the first rule
// matching a line decides its fate.
type Set struct {
	Name  string
	Rules []Rule
}

// Validate checks every rule in the set and rejects duplicate names.
func (s *Set) Validate() error {
	seen := make(map[string]bool, len(s.Rules))

	for i, r := range s.Rules {
		name := r.RuleName()
		if name == "" {
			return fmt.Errorf("%w: rules[%d]: name is required", ErrInvalidRule, i)
		}

		if seen[name] {
			return fmt.Errorf("%w: rules[%d]: duplicate name %q", ErrInvalidRule, i, name)
		}

		seen[name] = true

		switch rule := r.(type) {
		case LineRule:
			if rule.Contains == "" {
				return fmt.Errorf("%w: rule %q: contains must not be empty", ErrInvalidRule, name)
			}
		case BlockRule:
			if rule.Start == "" {
				return fmt.Errorf("%w: rule %q: start must not be empty", ErrInvalidRule, name)
			}

			if rule.End != "" && TrimLine(rule.End) == "" {
				return fmt.Errorf("%w: rule %q: end must not be blank", ErrInvalidRule, name)
			}

			if rule.End != TrimLine(rule.End) {
				return fmt.Errorf("%w: rule %q: end %q has surrounding whitespace and can never match a trimmed line",
					ErrInvalidRule, name, rule.End)
			}
		}
	}

	return nil
}

// Names returns the rule names in order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.Rules))
	for _, r := range s.Rules {
		names = append(names, r.RuleName())
	}

	return names
}

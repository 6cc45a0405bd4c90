package rules

import (
	"fmt"
	"os"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/hupe1980/srcpatch/internal/version"
)

// FileConfig is the YAML representation of a rule set.
type FileConfig struct {
	// Name identifies the set in reports. Defaults to the file path.
	Name string `json:"name,omitempty"`
	// Requires is an optional semver constraint on the srcpatch version.
	Requires string `json:"requires,omitempty"`
	// Extends names a built-in set whose rules are evaluated first.
	Extends string `json:"extends,omitempty"`
	// Rules are evaluated in order after any extended rules.
	Rules []RuleConfig `json:"rules"`
}

// RuleConfig is the YAML representation of a single rule. A rule with a
// start trigger is a block rule, anything else is a line rule.
type RuleConfig struct {
	Name     string `json:"name"`
	Contains string `json:"contains,omitempty"`
	Unless   string `json:"unless,omitempty"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
}

// Rule converts the config into a typed rule.
func (rc RuleConfig) Rule() (Rule, error) {
	if rc.Start != "" {
		if rc.Contains != "" || rc.Unless != "" {
			return nil, fmt.Errorf("%w: rule %q: block rules cannot set contains or unless", ErrInvalidRule, rc.Name)
		}

		end := rc.End
		if end == "" {
			end = DefaultBlockEnd
		}

		return BlockRule{Name: rc.Name, Start: rc.Start, End: end}, nil
	}

	if rc.End != "" {
		return nil, fmt.Errorf("%w: rule %q: end requires start", ErrInvalidRule, rc.Name)
	}

	return LineRule{Name: rc.Name, Contains: rc.Contains, Unless: rc.Unless}, nil
}

// LoadFile reads and parses a YAML rule file.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied rule file
	if err != nil {
		return nil, fmt.Errorf("reading rule file %q: %w", path, err)
	}

	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rule file %q: %w", path, err)
	}

	if set.Name == "" {
		set.Name = path
	}

	return set, nil
}

// Parse parses YAML rule file content into a validated set.
func Parse(data []byte) (*Set, error) {
	var fc FileConfig
	if err := yaml.UnmarshalStrict(data, &fc); err != nil {
		return nil, fmt.Errorf("%w: parsing rules: %v", ErrInvalidRule, err)
	}

	return fc.Build()
}

// Build resolves Extends, checks Requires, and converts the config into a
// validated set.
func (fc *FileConfig) Build() (*Set, error) {
	if err := checkRequires(fc.Requires); err != nil {
		return nil, err
	}

	set := &Set{Name: fc.Name}

	if fc.Extends != "" {
		base, err := Builtin(fc.Extends)
		if err != nil {
			return nil, fmt.Errorf("extends: %w", err)
		}

		set.Rules = append(set.Rules, base.Rules...)
	}

	for i, rc := range fc.Rules {
		r, err := rc.Rule()
		if err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}

		set.Rules = append(set.Rules, r)
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}

	return set, nil
}

func checkRequires(constraint string) error {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		return nil
	}

	ok, err := version.Satisfies(constraint)
	if err != nil {
		return fmt.Errorf("%w: requires %q: %v", ErrInvalidRule, constraint, err)
	}

	if !ok {
		return fmt.Errorf("%w: requires srcpatch %s, running %s", ErrIncompatible, constraint, version.GetInfo().Version)
	}

	return nil
}

// ToFileConfig converts a set back into its YAML representation.
func ToFileConfig(s *Set) FileConfig {
	fc := FileConfig{Name: s.Name, Rules: make([]RuleConfig, 0, len(s.Rules))}

	for _, r := range s.Rules {
		switch rule := r.(type) {
		case LineRule:
			fc.Rules = append(fc.Rules, RuleConfig{Name: rule.Name, Contains: rule.Contains, Unless: rule.Unless})
		case BlockRule:
			fc.Rules = append(fc.Rules, RuleConfig{Name: rule.Name, Start: rule.Start, End: rule.EndToken()})
		}
	}

	return fc
}

// Marshal renders a set as rule file YAML.
func Marshal(s *Set) ([]byte, error) {
	data, err := yaml.Marshal(ToFileConfig(s))
	if err != nil {
		return nil, fmt.Errorf("marshaling rule set: %w", err)
	}

	return data, nil
}

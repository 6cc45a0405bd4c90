package config

import (
	"fmt"
	"os"

	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/srcpatch/internal/rules"
)

// LoadInlineRules reads the config file at path and returns its rules
// section, or nil when the file declares none.
func LoadInlineRules(path string) (*rules.FileConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from config discovery
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	return ParseInlineRules(data)
}

// ParseInlineRules extracts the rules section from raw config file bytes.
//
//	rules:
//	  name: project-cleanup
//	  extends: subtitle-cleanup
//	  rules:
//	    - name: drop-debug
//	      contains: "debugPrint("
func ParseInlineRules(data []byte) (*rules.FileConfig, error) {
	var raw struct {
		Rules *rules.FileConfig `json:"rules,omitempty"`
	}

	if err := sigsyaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing rules section: %w", err)
	}

	if raw.Rules == nil {
		return nil, nil
	}

	// Build validates without keeping the result; resolution happens later
	// so that --rules-file can still take precedence.
	if _, err := raw.Rules.Build(); err != nil {
		return nil, fmt.Errorf("config rules: %w", err)
	}

	return raw.Rules, nil
}

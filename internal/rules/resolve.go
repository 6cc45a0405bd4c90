package rules

import "fmt"

// Source describes where a rule set may come from. The first non-empty
// source wins: File, then Inline, then the built-in set named by Builtin.
type Source struct {
	// File is a path to a YAML rule file.
	File string
	// Inline is a rule set declared in the config file.
	Inline *FileConfig
	// Builtin names a built-in set. Defaults to DefaultSetName.
	Builtin string
}

// Resolve returns the rule set selected by src.
func Resolve(src Source) (*Set, error) {
	if src.File != "" {
		return LoadFile(src.File)
	}

	if src.Inline != nil && (len(src.Inline.Rules) > 0 || src.Inline.Extends != "") {
		set, err := src.Inline.Build()
		if err != nil {
			return nil, fmt.Errorf("config rules: %w", err)
		}

		if set.Name == "" {
			set.Name = "config"
		}

		return set, nil
	}

	name := src.Builtin
	if name == "" {
		name = DefaultSetName
	}

	return Builtin(name)
}

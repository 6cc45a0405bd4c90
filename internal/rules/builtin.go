package rules

import (
	"fmt"
	"sort"
)

// DefaultSetName is the built-in set used when nothing else is configured.
const DefaultSetName = "subtitle-cleanup"

// builtinSets contains the rule sets compiled into the binary.
var builtinSets = map[string]func() *Set{
	DefaultSetName: func() *Set {
		return &Set{
			Name: DefaultSetName,
			Rules: []Rule{
				LineRule{Name: "subtitle-field", Contains: "subtitle:", Unless: "category"},
				LineRule{Name: "subtitle-declaration", Contains: "final String subtitle;"},
				LineRule{Name: "subtitle-constructor-param", Contains: "required this.subtitle"},
				BlockRule{Name: "subtitle-spacer-block", Start: "const SizedBox(height: 4)", End: DefaultBlockEnd},
			},
		}
	},
	"none": func() *Set {
		return &Set{Name: "none"}
	},
}

// BuiltinNames returns the names of all built-in rule sets, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinSets))
	for name := range builtinSets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Builtin returns a fresh copy of the named built-in rule set.
func Builtin(name string) (*Set, error) {
	build, ok := builtinSets[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownSet, name)
	}

	return build(), nil
}

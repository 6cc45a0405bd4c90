package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/srcpatch/internal/rules"
)

func TestParseInlineRules_Absent(t *testing.T) {
	fc, err := ParseInlineRules([]byte("log-level: debug\n"))
	require.NoError(t, err)
	assert.Nil(t, fc)
}

func TestParseInlineRules_Valid(t *testing.T) {
	fc, err := ParseInlineRules([]byte(`
rules:
  rules:
    - name: drop-banner
      start: "Banner("
      end: ");"
`))
	require.NoError(t, err)
	require.NotNil(t, fc)
	require.Len(t, fc.Rules, 1)

	set, err := rules.Resolve(rules.Source{Inline: fc})
	require.NoError(t, err)
	assert.Equal(t, "config", set.Name)
	assert.Equal(t, rules.BlockRule{Name: "drop-banner", Start: "Banner(", End: ");"}, set.Rules[0])
}

func TestParseInlineRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"malformed", "rules: [\n", "parsing rules section"},
		{"unknown extends", "rules:\n  extends: nope\n", "unknown rule set"},
		{"duplicate names", "rules:\n  rules:\n    - {name: a, contains: x}\n    - {name: a, contains: y}\n", "duplicate name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInlineRules([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadInlineRules_MissingFile(t *testing.T) {
	_, err := LoadInlineRules("/nonexistent/srcpatch.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

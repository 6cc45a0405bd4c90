package diff

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_Identical(t *testing.T) {
	lines := []string{"class A {", "}"}
	result, err := Compute(lines, lines, DefaultOptions())
	require.NoError(t, err)
	assert.False(t, result.HasDifferences)
	assert.Empty(t, result.Hunks)
	assert.Zero(t, result.Added)
	assert.Zero(t, result.Removed)
}

func TestCompute_Removal(t *testing.T) {
	old := []string{"class A {", "  final String subtitle;", "  final String title;", "}"}
	patched := []string{"class A {", "  final String title;", "}"}

	result, err := Compute(old, patched, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, result.HasDifferences)
	require.Len(t, result.Hunks, 1)
	assert.Contains(t, result.Unified, "-  final String subtitle;")
	assert.Equal(t, 1, result.Removed)
	assert.Equal(t, 0, result.Added)
}

func TestCompute_Labels(t *testing.T) {
	opts := DefaultOptions()
	opts.OldLabel = "a/home.dart"
	opts.NewLabel = "b/home.dart"

	result, err := Compute([]string{"x"}, nil, opts)
	require.NoError(t, err)
	assert.Contains(t, result.Unified, "--- a/home.dart")
	assert.Contains(t, result.Unified, "+++ b/home.dart")
}

func TestCompute_SeparateHunks(t *testing.T) {
	var old []string
	for i := 0; i < 30; i++ {
		old = append(old, "line")
	}

	old[2] = "drop-1"
	old[25] = "drop-2"

	patched := append(append([]string{}, old[:2]...), old[3:25]...)
	patched = append(patched, old[26:]...)

	opts := DefaultOptions()
	opts.Context = 1

	result, err := Compute(old, patched, opts)
	require.NoError(t, err)
	assert.Len(t, result.Hunks, 2)
	assert.Equal(t, 2, result.Removed)
}

func TestWrite_NoDifferences(t *testing.T) {
	result, err := Compute([]string{"a"}, []string{"a"}, DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	Write(&buf, result, true)
	assert.Equal(t, "No differences found.\n", buf.String())
}

func TestWrite_NoColor(t *testing.T) {
	result, err := Compute([]string{"line1", "line2"}, []string{"line1"}, DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	Write(&buf, result, false)
	out := buf.String()
	assert.NotContains(t, out, "\033[")
	assert.Contains(t, out, "-line2")
}

func TestWrite_WithColor(t *testing.T) {
	result, err := Compute([]string{"line1", "line2"}, []string{"line1"}, DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	Write(&buf, result, true)
	assert.Contains(t, buf.String(), "\033[31m-line2")
}

package document

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// LineEnding selects the terminator used when joining lines.
type LineEnding string

// Supported line endings.
const (
	CRLF LineEnding = "crlf"
	LF   LineEnding = "lf"
)

// ParseLineEnding validates a line ending name. An empty name selects CRLF.
func ParseLineEnding(s string) (LineEnding, error) {
	switch LineEnding(strings.ToLower(s)) {
	case "", CRLF:
		return CRLF, nil
	case LF:
		return LF, nil
	default:
		return "", fmt.Errorf("invalid line ending %q: must be one of crlf, lf", s)
	}
}

// Terminator returns the byte sequence written after every line.
func (e LineEnding) Terminator() string {
	if e == LF {
		return "\n"
	}

	return "\r\n"
}

// SplitLines splits text on every universal line boundary: \n, \r\n, \r,
// \v, \f, the file/group/record separators \x1c-\x1e, NEL (U+0085), and
// the Unicode line and paragraph separators (U+2028, U+2029). Terminators
// are not included and a trailing terminator does not yield an empty
// final line.
func SplitLines(text string) []string {
	var lines []string

	start := 0

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])

		if !isLineBreak(r) {
			i += size
			continue
		}

		lines = append(lines, text[start:i])

		next := i + size
		if r == '\r' && next < len(text) && text[next] == '\n' {
			next++
		}

		i = next
		start = next
	}

	if start < len(text) {
		lines = append(lines, text[start:])
	}

	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	default:
		return false
	}
}

// JoinLines joins lines with the terminator of e and appends a trailing
// terminator. No lines yields an empty string.
func JoinLines(lines []string, e LineEnding) string {
	if len(lines) == 0 {
		return ""
	}

	term := e.Terminator()

	var b strings.Builder

	for _, l := range lines {
		b.WriteString(l)
		b.WriteString(term)
	}

	return b.String()
}

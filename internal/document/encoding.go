package document

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncoding is used when no encoding is configured.
const DefaultEncoding = "utf-8"

var (
	// ErrDecode is returned when file content is not valid in the
	// requested encoding.
	ErrDecode = errors.New("decode error")

	// ErrEncode is returned when text cannot be represented in the
	// requested encoding.
	ErrEncode = errors.New("encode error")

	// ErrUnsupportedEncoding is returned for unknown encoding names.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
)

// Codec converts between raw bytes and text for one character encoding.
type Codec struct {
	name string
	enc  encoding.Encoding
}

// LookupCodec resolves an IANA encoding name such as "utf-8",
// "windows-1252" or "iso-8859-1".
func LookupCodec(name string) (*Codec, error) {
	if name == "" {
		name = DefaultEncoding
	}

	if isUTF8(name) {
		return &Codec{name: DefaultEncoding}, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedEncoding, name)
	}

	return &Codec{name: strings.ToLower(name), enc: enc}, nil
}

// Name returns the normalized encoding name.
func (c *Codec) Name() string { return c.name }

// Decode converts raw bytes into text. UTF-8 input is validated strictly.
func (c *Codec) Decode(data []byte) (string, error) {
	if c.enc == nil {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: content is not valid %s", ErrDecode, c.name)
		}

		return string(data), nil
	}

	out, err := c.enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDecode, c.name, err)
	}

	return string(out), nil
}

// Encode converts text into raw bytes. Runes the encoding cannot represent
// are an error.
func (c *Codec) Encode(text string) ([]byte, error) {
	if c.enc == nil {
		if !utf8.ValidString(text) {
			return nil, fmt.Errorf("%w: text is not valid %s", ErrEncode, c.name)
		}

		return []byte(text), nil
	}

	out, err := c.enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, c.name, err)
	}

	return out, nil
}

func isUTF8(name string) bool {
	switch strings.ToLower(name) {
	case "utf-8", "utf8":
		return true
	}

	enc, err := ianaindex.IANA.Encoding(name)

	return err == nil && enc == unicode.UTF8
}

// Package textenc decodes raw input bytes into UTF-8 text using a named
// character encoding.
package textenc

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Default is used when no encoding is configured.
const Default = "utf-8"

// aliases covers names that show up in job files but are not WHATWG labels.
var aliases = map[string]encoding.Encoding{
	"latin1":   charmap.ISO8859_1,
	"latin-1":  charmap.ISO8859_1,
	"latin2":   charmap.ISO8859_2,
	"cp1250":   charmap.Windows1250,
	"cp1252":   charmap.Windows1252,
	"cp437":    charmap.CodePage437,
	"cp850":    charmap.CodePage850,
	"utf-16":   unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM),
	"utf16":    unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM),
	"utf-16le": unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"utf-16be": unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
}

// Lookup resolves an encoding by name. An empty name or any UTF-8 label
// returns (nil, nil): the bytes are used as they are.
func Lookup(name string) (encoding.Encoding, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	if e, ok := aliases[n]; ok {
		return e, nil
	}
	e, err := htmlindex.Get(n)
	if err != nil {
		return nil, fmt.Errorf("textenc: unknown encoding %q", name)
	}
	if e == unicode.UTF8 {
		return nil, nil
	}
	return e, nil
}

// Decode converts b from the named encoding to a UTF-8 string. For UTF-8
// input, invalid sequences are rejected rather than silently replaced.
func Decode(b []byte, name string) (string, error) {
	e, err := Lookup(name)
	if err != nil {
		return "", err
	}
	if e == nil {
		if !utf8.Valid(b) {
			return "", fmt.Errorf("textenc: input is not valid UTF-8")
		}
		return string(b), nil
	}
	out, _, err := transform.Bytes(e.NewDecoder(), b)
	if err != nil {
		return "", fmt.Errorf("textenc: decode %s: %w", name, err)
	}
	return string(out), nil
}

// NewReader wraps r so that reads yield UTF-8.
func NewReader(r io.Reader, name string) (io.Reader, error) {
	e, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return r, nil
	}
	return transform.NewReader(r, e.NewDecoder()), nil
}

// Encode converts UTF-8 text to the named encoding. Runes the target cannot
// represent are an error.
func Encode(s, name string) ([]byte, error) {
	e, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return []byte(s), nil
	}
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, e.NewEncoder())
	if _, err := io.WriteString(w, s); err != nil {
		return nil, fmt.Errorf("textenc: encode %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("textenc: encode %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

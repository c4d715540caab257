package csv

import "strings"

// utf8BOM is stripped from the start of the buffer if present.
const utf8BOM = "\uFEFF"

// StripBOM removes a leading UTF-8 byte order mark from text.
func StripBOM(text string) string {
	return strings.TrimPrefix(text, utf8BOM)
}

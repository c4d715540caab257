package csv

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Encode writes t as delimited text: a title line followed by one line per
// row. Every cell is wrapped in double quotes with embedded quotes doubled,
// and lines end with "\n". rename, when non-nil, rewrites column titles. Nil
// values are written as empty quoted cells.
func Encode(w io.Writer, t *Table, delim rune, rename func(string) string) error {
	if delim == 0 {
		delim = ','
	}
	bw := bufio.NewWriter(w)

	titles := t.Titles()
	cells := make([]string, len(titles))
	for i, title := range titles {
		if rename != nil {
			title = rename(title)
		}
		cells[i] = title
	}
	writeLine(bw, cells, delim)

	for _, r := range t.Rows() {
		for i, v := range r {
			cells[i] = FormatValue(v)
		}
		writeLine(bw, cells, delim)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// EncodeRecords writes raw string records with the same quoting as Encode.
func EncodeRecords(w io.Writer, records [][]string, delim rune) error {
	if delim == 0 {
		delim = ','
	}
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		writeLine(bw, rec, delim)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func writeLine(bw *bufio.Writer, cells []string, delim rune) {
	for i, c := range cells {
		if i > 0 {
			bw.WriteRune(delim)
		}
		bw.WriteString(Quote(c))
	}
	bw.WriteByte('\n')
}

// Quote wraps s in double quotes and doubles every embedded double quote.
func Quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// JSONValue returns v ready for encoding/json, which rejects NaN and
// infinities: those floats become their FormatValue text.
func JSONValue(v any) any {
	var f float64
	switch x := v.(type) {
	case float32:
		f = float64(x)
	case float64:
		f = x
	default:
		return v
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return FormatValue(v)
	}
	return v
}

// FormatValue renders a decoded value as cell text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

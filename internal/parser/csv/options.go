package csv

import "fmt"

// Options configures one parse call (the dialect plus explicit columns and
// condition handlers). The zero value is usable: comma delimited, CR folding
// on, no title row, no padding, every condition fatal.
type Options struct {
	// Delimiter separates cells. When zero, ',' is used. It must not be a
	// quote character or a line break.
	Delimiter rune

	// KeepCR disables folding of CRLF and lone CR into LF inside cell text.
	KeepCR bool

	// HasTitleRow consumes the first line as column titles.
	HasTitleRow bool

	// PadShortRows extends short lines with empty cells instead of treating
	// them as inconsistent.
	PadShortRows bool

	// MaxLines limits the number of non-empty lines taken from the input,
	// title row included. Zero means no limit.
	MaxLines int

	// Columns are explicit column declarations by position. Nil entries are
	// holes filled by type inference.
	Columns []*ColumnSpec

	// Handlers classify recoverable conditions.
	Handlers Handlers
}

// quoteChars is the fixed quote set.
var quoteChars = [...]rune{'"', '\''}

func isQuote(r rune) bool {
	for _, q := range quoteChars {
		if r == q {
			return true
		}
	}
	return false
}

func isLineBreak(r rune) bool { return r == '\r' || r == '\n' }

func (o Options) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

// Validate checks the dialect for settings the tokenizer cannot honour.
func (o Options) Validate() error {
	d := o.delimiter()
	if isQuote(d) || isLineBreak(d) {
		return fmt.Errorf("%w: delimiter %q collides with quoting or line breaks", ErrInvalidOptions, d)
	}
	if o.MaxLines < 0 {
		return fmt.Errorf("%w: max lines must be >= 0, got %d", ErrInvalidOptions, o.MaxLines)
	}
	return nil
}

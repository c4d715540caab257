package csv

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks. Every condition type below unwraps to one
// of them.
var (
	ErrMissingClosingQuote      = errors.New("missing closing quote")
	ErrInconsistentColumnCount  = errors.New("inconsistent column count")
	ErrColumnSpecWithoutAdapter = errors.New("column spec without parse function")
	ErrInvalidCellValue         = errors.New("invalid cell value")
	ErrInvalidRowAppend         = errors.New("invalid row append")
	ErrInvalidOptions           = errors.New("invalid options")
	ErrOutOfRange               = errors.New("index out of range")
)

// MissingClosingQuoteError is raised by the tokenizer when a quoted field is
// still open at the end of the buffer. It always aborts the parse.
type MissingClosingQuoteError struct {
	// Offset is the rune offset of the opening quote.
	Offset int
	// Content is the unconsumed text starting at the opening quote.
	Content string
}

func (e *MissingClosingQuoteError) Error() string {
	const max = 40
	c := []rune(e.Content)
	snippet := string(c)
	if len(c) > max {
		snippet = string(c[:max]) + "..."
	}
	return fmt.Sprintf("csv: missing closing quote at offset %d: %q", e.Offset, snippet)
}

func (e *MissingClosingQuoteError) Unwrap() error { return ErrMissingClosingQuote }

// InconsistentColumnCount lists the data rows whose length differs from the
// resolved column count. It is reported once per parse.
type InconsistentColumnCount struct {
	Expected int
	// Rows holds 0-based data row indexes (title row excluded).
	Rows []int
	// Counts holds the observed length of each row in Rows.
	Counts []int
}

func (c InconsistentColumnCount) Error() string {
	return fmt.Sprintf("csv: %d row(s) do not have %d columns (first: row %d with %d)",
		len(c.Rows), c.Expected, first(c.Rows), first(c.Counts))
}

func (c InconsistentColumnCount) Unwrap() error { return ErrInconsistentColumnCount }

// ColumnSpecWithoutAdapter reports a supplied column spec that has no parse
// function. The spec is discarded and the column is inferred instead.
type ColumnSpecWithoutAdapter struct {
	Column int
	Title  string
}

func (c ColumnSpecWithoutAdapter) Error() string {
	return fmt.Sprintf("csv: column %d (%q) has a spec without parse function", c.Column, c.Title)
}

func (c ColumnSpecWithoutAdapter) Unwrap() error { return ErrColumnSpecWithoutAdapter }

// InvalidCellValue reports a cell that its column could not parse. The cell
// takes the column default.
type InvalidCellValue struct {
	Row    int
	Column int
	Title  string
	Raw    string
	Err    error
}

func (c InvalidCellValue) Error() string {
	return fmt.Sprintf("csv: row %d column %d (%q): cannot parse %q: %v", c.Row, c.Column, c.Title, c.Raw, c.Err)
}

func (c InvalidCellValue) Unwrap() []error { return []error{ErrInvalidCellValue, c.Err} }

// InvalidRowAppend reports a row handed to Table.AppendRow that does not fit
// the resolved columns. The row is not appended.
type InvalidRowAppend struct {
	// Row is the index the row would have had.
	Row    int
	Values []any
	Err    error
}

func (c InvalidRowAppend) Error() string {
	return fmt.Sprintf("csv: cannot append row %d %v: %v", c.Row, c.Values, c.Err)
}

func (c InvalidRowAppend) Unwrap() []error { return []error{ErrInvalidRowAppend, c.Err} }

// Handlers is the classification channel for recoverable conditions. Each
// field is optional. A nil handler makes its condition fatal: the parse (or
// append) fails with the condition as error. A handler returning nil lets the
// engine continue with its recovery; returning an error aborts with that error.
type Handlers struct {
	OnInconsistentColumnCount  func(InconsistentColumnCount) error
	OnColumnSpecWithoutAdapter func(ColumnSpecWithoutAdapter) error
	OnInvalidCellValue         func(InvalidCellValue) error
	OnInvalidRowAppend         func(InvalidRowAppend) error
}

// Condition names, as used in job files and metric labels.
const (
	CondInconsistentColumnCount  = "inconsistent_column_count"
	CondColumnSpecWithoutAdapter = "column_spec_without_adapter"
	CondInvalidCellValue         = "invalid_cell_value"
	CondInvalidRowAppend         = "invalid_row_append"
)

// HandleAll routes every recoverable condition to fn along with its name.
// fn returns nil to recover or an error, usually c itself, to abort.
func HandleAll(fn func(cond string, c error) error) Handlers {
	return Handlers{
		OnInconsistentColumnCount: func(c InconsistentColumnCount) error {
			return fn(CondInconsistentColumnCount, c)
		},
		OnColumnSpecWithoutAdapter: func(c ColumnSpecWithoutAdapter) error {
			return fn(CondColumnSpecWithoutAdapter, c)
		},
		OnInvalidCellValue: func(c InvalidCellValue) error {
			return fn(CondInvalidCellValue, c)
		},
		OnInvalidRowAppend: func(c InvalidRowAppend) error {
			return fn(CondInvalidRowAppend, c)
		},
	}
}

// Ignore returns handlers that swallow every recoverable condition.
func Ignore() Handlers {
	return Handlers{
		OnInconsistentColumnCount:  func(InconsistentColumnCount) error { return nil },
		OnColumnSpecWithoutAdapter: func(ColumnSpecWithoutAdapter) error { return nil },
		OnInvalidCellValue:         func(InvalidCellValue) error { return nil },
		OnInvalidRowAppend:         func(InvalidRowAppend) error { return nil },
	}
}

func report[C error](h func(C) error, c C) error {
	if h == nil {
		return c
	}
	return h(c)
}

func first(v []int) int {
	if len(v) == 0 {
		return -1
	}
	return v[0]
}

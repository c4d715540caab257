// Package csv turns a fully buffered delimited-text document into a table of
// typed values.
//
// The pipeline runs Tokenize, Normalize, Partition, Repair, Cleanup,
// ResolveColumns and DecodeRow in that order. Parse wires them together and
// returns a *Table, which also carries the row-append path and change
// notifications for consumers that edit the data afterwards.
package csv

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// ChangeKind tells listeners what happened to a Table.
type ChangeKind uint8

const (
	ChangeLoaded ChangeKind = iota
	ChangeRowsInserted
	ChangeRowsUpdated
	ChangeRowsDeleted
	ChangeColumnsChanged
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeLoaded:
		return "loaded"
	case ChangeRowsInserted:
		return "rows_inserted"
	case ChangeRowsUpdated:
		return "rows_updated"
	case ChangeRowsDeleted:
		return "rows_deleted"
	case ChangeColumnsChanged:
		return "columns_changed"
	default:
		return "unknown"
	}
}

// Change is delivered to listeners after a mutation. FirstRow and LastRow are
// inclusive and -1 when the change is not row based.
type Change struct {
	Kind     ChangeKind
	FirstRow int
	LastRow  int
}

// Table is the outcome of a parse: resolved columns plus decoded rows. Every
// row has exactly len(Columns()) values. A Table is safe for concurrent use;
// listeners run synchronously after the lock is released.
type Table struct {
	mu        sync.RWMutex
	opt       Options
	columns   []ColumnSpec
	rows      []Row
	listeners map[int]func(Change)
	nextID    int
}

// NewTable returns an empty table bound to opt. Use Load to fill it.
func NewTable(opt Options) *Table {
	return &Table{opt: opt, listeners: map[int]func(Change){}}
}

// Parse runs the whole pipeline over text.
func Parse(text string, opt Options) (*Table, error) {
	t := NewTable(opt)
	if err := t.Load(text); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseBytes parses UTF-8 encoded data.
func ParseBytes(b []byte, opt Options) (*Table, error) { return Parse(string(b), opt) }

// ParseReader buffers r completely, strips a UTF-8 BOM and parses the text.
// ctx is checked before and after reading; parsing itself is not interruptible.
func ParseReader(ctx context.Context, r io.Reader, opt Options) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Parse(StripBOM(string(b)), opt)
}

// Load replaces the table content with the parse of text and notifies
// listeners with ChangeLoaded. On error the table is left untouched.
func (t *Table) Load(text string) error {
	t.mu.RLock()
	opt := t.opt
	t.mu.RUnlock()

	cols, rows, err := parse(text, opt)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.columns, t.rows = cols, rows
	t.mu.Unlock()

	t.notify(Change{Kind: ChangeLoaded, FirstRow: 0, LastRow: len(rows) - 1})
	return nil
}

func parse(text string, opt Options) ([]ColumnSpec, []Row, error) {
	if err := opt.Validate(); err != nil {
		return nil, nil, err
	}
	toks, err := Tokenize(text, opt)
	if err != nil {
		return nil, nil, fmt.Errorf("tokenize: %w", err)
	}
	normalizeAll(toks, !opt.KeepCR)

	lines := Partition(toks, opt.MaxLines)
	Repair(lines, opt.PadShortRows)
	grid := Cleanup(lines)

	cols, grid, err := ResolveColumns(grid, opt)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]Row, 0, len(grid))
	for i, cells := range grid {
		row, err := DecodeRow(cells, cols, i, opt.Handlers)
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, row)
	}
	return cols, rows, nil
}

// Subscribe registers fn for change notifications and returns a function
// removing it again.
func (t *Table) Subscribe(fn func(Change)) (unsubscribe func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	}
}

func (t *Table) notify(c Change) {
	t.mu.RLock()
	fns := make([]func(Change), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

// Columns returns a copy of the resolved column specs.
func (t *Table) Columns() []ColumnSpec {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]ColumnSpec(nil), t.columns...)
}

// Rows returns a snapshot of the rows. Table methods never modify a row in
// place, so later edits do not show through; callers must not modify the
// returned rows either.
func (t *Table) Rows() []Row {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Row(nil), t.rows...)
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.columns)
}

// Titles returns the column titles in order.
func (t *Table) Titles() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Title
	}
	return out
}

package csv

import (
	"fmt"
	"slices"
)

// ColumnIndex returns the index of the first column titled title, or -1.
func (t *Table) ColumnIndex(title string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.columnIndex(title)
}

func (t *Table) columnIndex(title string) int {
	for i, c := range t.columns {
		if c.Title == title {
			return i
		}
	}
	return -1
}

func (t *Table) checkCell(row, col int) error {
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("row %d: %w", row, ErrOutOfRange)
	}
	if col < 0 || col >= len(t.columns) {
		return fmt.Errorf("column %d: %w", col, ErrOutOfRange)
	}
	return nil
}

// Value returns the value at row, col.
func (t *Table) Value(row, col int) (any, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.checkCell(row, col); err != nil {
		return nil, err
	}
	return t.rows[row][col], nil
}

// ValueByTitle returns the value at row in the column titled title.
func (t *Table) ValueByTitle(row int, title string) (any, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	col := t.columnIndex(title)
	if col < 0 {
		return nil, fmt.Errorf("column %q: %w", title, ErrOutOfRange)
	}
	if err := t.checkCell(row, col); err != nil {
		return nil, err
	}
	return t.rows[row][col], nil
}

// SetValue replaces a single value. The value must match the column type or
// be nil, which stores the column default.
func (t *Table) SetValue(row, col int, v any) error {
	t.mu.Lock()
	if err := t.checkCell(row, col); err != nil {
		t.mu.Unlock()
		return err
	}
	c := t.columns[col]
	switch {
	case v == nil:
		v = c.Default
	case !c.Type.Accepts(v):
		t.mu.Unlock()
		return fmt.Errorf("column %d (%q): %T is not %s", col, c.Title, v, c.Type)
	}
	r := slices.Clone(t.rows[row])
	r[col] = v
	t.rows[row] = r
	t.mu.Unlock()

	t.notify(Change{Kind: ChangeRowsUpdated, FirstRow: row, LastRow: row})
	return nil
}

// Column returns all values of the column titled title.
func (t *Table) Column(title string) ([]any, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	col := t.columnIndex(title)
	if col < 0 {
		return nil, fmt.Errorf("column %q: %w", title, ErrOutOfRange)
	}
	out := make([]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[col]
	}
	return out, nil
}

// RemoveRow deletes the row at index i.
func (t *Table) RemoveRow(i int) error {
	t.mu.Lock()
	if i < 0 || i >= len(t.rows) {
		t.mu.Unlock()
		return fmt.Errorf("row %d: %w", i, ErrOutOfRange)
	}
	t.rows = slices.Delete(t.rows, i, i+1)
	t.mu.Unlock()

	t.notify(Change{Kind: ChangeRowsDeleted, FirstRow: i, LastRow: i})
	return nil
}

// RemoveRowsFunc deletes every row for which del returns true and reports how
// many were removed.
func (t *Table) RemoveRowsFunc(del func(Row) bool) int {
	t.mu.Lock()
	before := len(t.rows)
	t.rows = slices.DeleteFunc(t.rows, del)
	removed := before - len(t.rows)
	t.mu.Unlock()

	if removed > 0 {
		t.notify(Change{Kind: ChangeRowsDeleted, FirstRow: -1, LastRow: -1})
	}
	return removed
}

// RemoveRowsWhere deletes rows whose value in the titled column satisfies
// del. An unknown title removes nothing.
func (t *Table) RemoveRowsWhere(title string, del func(any) bool) int {
	col := t.ColumnIndex(title)
	if col < 0 {
		return 0
	}
	return t.RemoveRowsFunc(func(r Row) bool { return del(r[col]) })
}

// RemoveColumn deletes column col from the specs and from every row.
func (t *Table) RemoveColumn(col int) error {
	t.mu.Lock()
	if col < 0 || col >= len(t.columns) {
		t.mu.Unlock()
		return fmt.Errorf("column %d: %w", col, ErrOutOfRange)
	}
	t.columns = slices.Delete(slices.Clone(t.columns), col, col+1)
	for i, r := range t.rows {
		t.rows[i] = slices.Concat(r[:col], r[col+1:])
	}
	t.mu.Unlock()

	t.notify(Change{Kind: ChangeColumnsChanged, FirstRow: -1, LastRow: -1})
	return nil
}

// JoinColumns replaces columns a and b with a single column described by
// spec, appended after the remaining columns. Each row's new value is
// join(row[a], row[b]); a nil result takes spec.Default.
func (t *Table) JoinColumns(a, b int, spec ColumnSpec, join func(left, right any) any) error {
	t.mu.Lock()
	if a < 0 || a >= len(t.columns) || b < 0 || b >= len(t.columns) || a == b {
		t.mu.Unlock()
		return fmt.Errorf("join columns %d and %d: %w", a, b, ErrOutOfRange)
	}
	lo, hi := min(a, b), max(a, b)

	for i, r := range t.rows {
		v := join(r[a], r[b])
		if v == nil {
			v = spec.Default
		}
		t.rows[i] = joined(r, lo, hi, v)
	}
	t.columns = joined(t.columns, lo, hi, spec)
	t.mu.Unlock()

	t.notify(Change{Kind: ChangeColumnsChanged, FirstRow: -1, LastRow: -1})
	return nil
}

// joined returns a new slice without the elements at lo and hi, with v
// appended.
func joined[E any](s []E, lo, hi int, v E) []E {
	out := make([]E, 0, len(s)-1)
	out = append(out, s[:lo]...)
	out = append(out, s[lo+1:hi]...)
	out = append(out, s[hi+1:]...)
	return append(out, v)
}

// ForEach calls fn for every row. With titles, fn receives only those columns
// in the given order. fn sees the rows as they were when ForEach started and
// may modify the table.
func (t *Table) ForEach(fn func(Row), titles ...string) error {
	t.mu.RLock()
	pick, err := t.projection(titles)
	if err != nil {
		t.mu.RUnlock()
		return err
	}
	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		rows[i] = pick(r)
	}
	t.mu.RUnlock()

	for _, r := range rows {
		fn(r)
	}
	return nil
}

// Reduce folds the rows of t into a single value, optionally projecting them
// onto the titled columns first.
func Reduce[R any](t *Table, initial R, fn func(R, Row) R, titles ...string) (R, error) {
	acc := initial
	err := t.ForEach(func(r Row) { acc = fn(acc, r) }, titles...)
	return acc, err
}

func (t *Table) projection(titles []string) (func(Row) Row, error) {
	if len(titles) == 0 {
		return func(r Row) Row { return r }, nil
	}
	idx := make([]int, len(titles))
	for i, title := range titles {
		idx[i] = t.columnIndex(title)
		if idx[i] < 0 {
			return nil, fmt.Errorf("column %q: %w", title, ErrOutOfRange)
		}
	}
	return func(r Row) Row {
		out := make(Row, len(idx))
		for i, c := range idx {
			out[i] = r[c]
		}
		return out
	}, nil
}

// AppendRow adds a caller-built row. Nil values take the column default and
// strings are parsed for typed columns. A row that does not fit is reported
// as InvalidRowAppend and never partially applied.
func (t *Table) AppendRow(values []any) error {
	t.mu.Lock()
	at := len(t.rows)
	row, err := adaptRow(values, t.columns)
	if err != nil {
		h := t.opt.Handlers.OnInvalidRowAppend
		t.mu.Unlock()
		return report(h, InvalidRowAppend{Row: at, Values: values, Err: err})
	}
	t.rows = append(t.rows, row)
	t.mu.Unlock()

	t.notify(Change{Kind: ChangeRowsInserted, FirstRow: at, LastRow: at})
	return nil
}

// AppendText decodes one raw row through the column parse functions, exactly
// like rows read by Load, and appends it. Handlers run without the lock held,
// so the row index they see may be passed by a concurrent append.
func (t *Table) AppendText(cells []*string) error {
	t.mu.RLock()
	cols := t.columns
	at := len(t.rows)
	h := t.opt.Handlers
	t.mu.RUnlock()

	if len(cells) != len(cols) {
		c := InvalidRowAppend{Row: at, Values: textValues(cells), Err: fmt.Errorf("got %d cells for %d columns", len(cells), len(cols))}
		return report(h.OnInvalidRowAppend, c)
	}
	row, err := DecodeRow(cells, cols, at, h)
	if err != nil {
		return err
	}

	t.mu.Lock()
	at = len(t.rows)
	if len(row) != len(t.columns) {
		t.mu.Unlock()
		c := InvalidRowAppend{Row: at, Values: textValues(cells), Err: fmt.Errorf("columns changed to %d while decoding", len(t.columns))}
		return report(h.OnInvalidRowAppend, c)
	}
	t.rows = append(t.rows, row)
	t.mu.Unlock()

	t.notify(Change{Kind: ChangeRowsInserted, FirstRow: at, LastRow: at})
	return nil
}

func textValues(cells []*string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		if c != nil {
			out[i] = *c
		}
	}
	return out
}

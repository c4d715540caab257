package csv

import "fmt"

// Row is one decoded record, one value per resolved column. A nil value is
// an absent cell of a nullable column.
type Row []any

// DecodeRow applies each column's parse function to the matching cell. A nil
// cell takes the column default. A cell that fails to parse also takes the
// default and is reported as InvalidCellValue; only an error from that report
// stops decoding.
func DecodeRow(cells []*string, cols []ColumnSpec, row int, h Handlers) (Row, error) {
	out := make(Row, len(cols))
	for i, col := range cols {
		var cell *string
		if i < len(cells) {
			cell = cells[i]
		}
		if cell == nil || col.Parse == nil {
			out[i] = col.Default
			continue
		}
		v, err := col.Parse(*cell)
		if err != nil {
			out[i] = col.Default
			c := InvalidCellValue{Row: row, Column: i, Title: col.Title, Raw: *cell, Err: err}
			if rerr := report(h.OnInvalidCellValue, c); rerr != nil {
				return nil, fmt.Errorf("decode row %d: %w", row, rerr)
			}
			continue
		}
		out[i] = v
	}
	return out, nil
}

// adaptRow checks a caller-supplied row against the columns. Nil values take
// the column default; strings are parsed for non-string columns.
func adaptRow(values []any, cols []ColumnSpec) (Row, error) {
	if len(values) != len(cols) {
		return nil, fmt.Errorf("got %d values for %d columns", len(values), len(cols))
	}
	out := make(Row, len(cols))
	for i, v := range values {
		col := cols[i]
		switch {
		case v == nil:
			out[i] = col.Default
		case col.Type.Accepts(v):
			out[i] = v
		default:
			s, ok := v.(string)
			if !ok || col.Parse == nil {
				return nil, fmt.Errorf("column %d (%q): %T is not %s", i, col.Title, v, col.Type)
			}
			pv, err := col.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("column %d (%q): %w", i, col.Title, err)
			}
			out[i] = pv
		}
	}
	return out, nil
}

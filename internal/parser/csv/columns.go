package csv

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ResolveColumns fixes the column count, titles and specs for a cell grid and
// returns the data rows that fit them.
//
// The column count is the larger of len(opt.Columns) and the widest row. With
// HasTitleRow the first row is consumed as titles. Rows of a different width
// are reported once as InconsistentColumnCount and dropped, unless
// PadShortRows is set, in which case short rows are padded with nil cells.
// Columns without a usable explicit spec are inferred from the remaining rows.
func ResolveColumns(grid [][]*string, opt Options) ([]ColumnSpec, [][]*string, error) {
	n := len(opt.Columns)
	for _, row := range grid {
		n = max(n, len(row))
	}

	var header []*string
	if opt.HasTitleRow && len(grid) > 0 {
		header, grid = grid[0], grid[1:]
	}

	grid, err := fitRows(grid, n, opt)
	if err != nil {
		return nil, nil, err
	}

	cols := make([]ColumnSpec, n)
	var pending []int
	for i := range cols {
		var spec *ColumnSpec
		if i < len(opt.Columns) {
			spec = opt.Columns[i]
		}
		title := columnTitle(i, header, spec)

		if spec != nil && spec.Parse == nil {
			c := ColumnSpecWithoutAdapter{Column: i, Title: title}
			if err := report(opt.Handlers.OnColumnSpecWithoutAdapter, c); err != nil {
				return nil, nil, fmt.Errorf("resolve columns: %w", err)
			}
			spec = nil
		}
		if spec == nil {
			cols[i].Title = title
			pending = append(pending, i)
			continue
		}
		cols[i] = spec.Copy()
		cols[i].Title = title
	}

	// Columns are independent; each goroutine owns one slot of cols.
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, i := range pending {
		g.Go(func() error {
			spec := InferColumn(columnValues(grid, i))
			spec.Title = cols[i].Title
			cols[i] = spec
			return nil
		})
	}
	_ = g.Wait()

	return cols, grid, nil
}

func fitRows(grid [][]*string, n int, opt Options) ([][]*string, error) {
	var bad InconsistentColumnCount
	for i, row := range grid {
		if len(row) != n {
			bad.Rows = append(bad.Rows, i)
			bad.Counts = append(bad.Counts, len(row))
		}
	}
	if len(bad.Rows) == 0 {
		return grid, nil
	}

	if opt.PadShortRows {
		out := make([][]*string, len(grid))
		for i, row := range grid {
			if len(row) < n {
				padded := make([]*string, n)
				copy(padded, row)
				row = padded
			}
			out[i] = row
		}
		return out, nil
	}

	bad.Expected = n
	if err := report(opt.Handlers.OnInconsistentColumnCount, bad); err != nil {
		return nil, fmt.Errorf("resolve columns: %w", err)
	}
	out := make([][]*string, 0, len(grid)-len(bad.Rows))
	for _, row := range grid {
		if len(row) == n {
			out = append(out, row)
		}
	}
	return out, nil
}

// columnTitle picks the header cell, then the explicit spec title, then a
// generated "Column <i>".
func columnTitle(i int, header []*string, spec *ColumnSpec) string {
	if i < len(header) && header[i] != nil {
		if t := strings.TrimSpace(*header[i]); t != "" {
			return t
		}
	}
	if spec != nil {
		if t := strings.TrimSpace(spec.Title); t != "" {
			return t
		}
	}
	return fmt.Sprintf("Column %d", i)
}

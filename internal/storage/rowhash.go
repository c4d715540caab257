package storage

import (
	"strconv"

	"github.com/zeebo/xxh3"

	"csvtable/internal/parser/csv"
)

// RowHash is the xxh3 digest of the row's cells in their text form, each
// cell followed by a unit separator. Absent cells and empty strings hash
// differently.
func RowHash(row csv.Row) int64 {
	h := xxh3.New()
	for _, v := range row {
		if v == nil {
			_, _ = h.Write([]byte{0x00})
		} else {
			_, _ = h.Write([]byte(csv.FormatValue(v)))
		}
		_, _ = h.Write([]byte{0x1f})
	}
	return int64(h.Sum64())
}

// Values converts a decoded row into driver arguments. Narrow integer and
// float types are widened to int64 and float64, which every database/sql
// driver and pgx accept. With rowHash the digest is appended.
func Values(row csv.Row, rowHash bool) []any {
	n := len(row)
	if rowHash {
		n++
	}
	out := make([]any, 0, n)
	for _, v := range row {
		out = append(out, widen(v))
	}
	if rowHash {
		out = append(out, RowHash(row))
	}
	return out
}

func widen(v any) any {
	switch x := v.(type) {
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		// Keep the decimal the cell was written with rather than the
		// binary expansion of the float32.
		f, err := strconv.ParseFloat(strconv.FormatFloat(float64(x), 'g', -1, 32), 64)
		if err != nil {
			return float64(x)
		}
		return f
	}
	return v
}

package storage

import (
	"reflect"
	"testing"

	"csvtable/internal/parser/csv"
)

func TestRowHash(t *testing.T) {
	t.Parallel()

	a := RowHash(csv.Row{"x", int8(1), nil})
	if a != RowHash(csv.Row{"x", int8(1), nil}) {
		t.Fatalf("hash not deterministic")
	}
	distinct := []csv.Row{
		{"x", int8(1), ""},
		{"x1", nil, nil},
		{"x", int8(2), nil},
		{"x", int8(1)},
	}
	for _, r := range distinct {
		if RowHash(r) == a {
			t.Fatalf("collision between %v and {x 1 <nil>}", r)
		}
	}
}

func TestValues(t *testing.T) {
	t.Parallel()

	row := csv.Row{int8(1), int16(2), int32(3), int64(4), float32(0.1), 2.5, true, "s", nil}
	got := Values(row, false)
	want := []any{int64(1), int64(2), int64(3), int64(4), 0.1, 2.5, true, "s", nil}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Values = %#v, want %#v", got, want)
	}

	withHash := Values(row, true)
	if len(withHash) != len(row)+1 {
		t.Fatalf("len = %d", len(withHash))
	}
	if withHash[len(row)] != RowHash(row) {
		t.Fatalf("last value is not the row hash")
	}
}

package ddl

import (
	"strings"
	"testing"

	"csvtable/internal/parser/csv"
)

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		dialect     Dialect
		wantSQL     string
		errContains string
	}{
		{
			name:        "empty FQN returns error",
			def:         TableDef{Columns: []ColumnDef{{Name: "id", SQLType: "INT"}}},
			dialect:     Postgres,
			errContains: "table FQN must not be empty",
		},
		{
			name:        "no columns returns error",
			def:         TableDef{FQN: "public.t"},
			dialect:     Postgres,
			errContains: "at least one column is required",
		},
		{
			name:        "column with empty name returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{SQLType: "INT"}}},
			dialect:     Postgres,
			errContains: "column with empty name",
		},
		{
			name:        "column with empty type returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id"}}},
			dialect:     Postgres,
			errContains: "missing SQLType",
		},
		{
			name: "postgres with key and default",
			def: TableDef{FQN: "public.people", Columns: []ColumnDef{
				{Name: "id", SQLType: "INTEGER", PrimaryKey: true},
				{Name: "name", SQLType: "TEXT", Nullable: true, Default: "'anon'"},
			}},
			dialect: Postgres,
			wantSQL: "CREATE TABLE IF NOT EXISTS \"public\".\"people\" (\n" +
				"  \"id\" INTEGER NOT NULL,\n" +
				"  \"name\" TEXT DEFAULT 'anon',\n" +
				"  PRIMARY KEY (\"id\")\n);",
		},
		{
			name:    "mysql backticks",
			def:     TableDef{FQN: "t", Columns: []ColumnDef{{Name: "a`b", SQLType: "INT", Nullable: true}}},
			dialect: MySQL,
			wantSQL: "CREATE TABLE IF NOT EXISTS `t` (\n  `a``b` INT\n);",
		},
		{
			name:    "mssql guard",
			def:     TableDef{FQN: "dbo.o'k", Columns: []ColumnDef{{Name: "x", SQLType: "BIT"}}},
			dialect: MSSQL,
			wantSQL: "IF OBJECT_ID(N'dbo.o''k', N'U') IS NULL\nBEGIN\n" +
				"CREATE TABLE [dbo].[o'k] (\n  [x] BIT NOT NULL\n)\nEND;",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := BuildCreateTableSQL(tc.def, tc.dialect)
			if tc.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tc.errContains) {
					t.Fatalf("err=%v, want containing %q", err, tc.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildCreateTableSQL: %v", err)
			}
			if got != tc.wantSQL {
				t.Fatalf("sql mismatch\n got: %q\nwant: %q", got, tc.wantSQL)
			}
		})
	}
}

func TestDialects_MapEveryType(t *testing.T) {
	t.Parallel()

	types := []csv.ScalarType{
		csv.TypeBoolean, csv.TypeByte, csv.TypeShort, csv.TypeInt,
		csv.TypeLong, csv.TypeFloat, csv.TypeDouble, csv.TypeString,
	}
	for _, name := range []string{"postgres", "sqlite", "mysql", "MSSQL"} {
		d, ok := Lookup(name)
		if !ok {
			t.Fatalf("Lookup(%q) not found", name)
		}
		for _, typ := range types {
			if s, err := d.MapType(typ); err != nil || s == "" {
				t.Fatalf("%s MapType(%s) = %q, %v", d.Name, typ, s, err)
			}
		}
	}
	if _, ok := Lookup("oracle"); ok {
		t.Fatalf("unexpected dialect oracle")
	}
	if got := MSSQL.Types[csv.TypeByte]; got != "SMALLINT" {
		t.Fatalf("mssql byte = %q, want SMALLINT", got)
	}
}

func TestFromColumns(t *testing.T) {
	t.Parallel()

	cols := []csv.ColumnSpec{
		*csv.NewColumnSpec(csv.TypeInt, "ID", false),
		*csv.NewColumnSpec(csv.TypeString, "Full Name", true),
		*csv.NewColumnSpec(csv.TypeDouble, "full-name", true),
	}

	def, err := FromColumns("people", cols, nil, []string{"id"}, true, Postgres)
	if err != nil {
		t.Fatalf("FromColumns: %v", err)
	}
	want := []ColumnDef{
		{Name: "id", SQLType: "INTEGER", PrimaryKey: true},
		{Name: "full_name", SQLType: "TEXT", Nullable: true},
		{Name: "full_name_2", SQLType: "DOUBLE PRECISION", Nullable: true},
		{Name: RowHashColumn, SQLType: "BIGINT"},
	}
	if len(def.Columns) != len(want) {
		t.Fatalf("columns = %+v", def.Columns)
	}
	for i := range want {
		if def.Columns[i] != want[i] {
			t.Fatalf("column %d = %+v, want %+v", i, def.Columns[i], want[i])
		}
	}
	if got := strings.Join(def.ColumnNames(), ","); got != "id,full_name,full_name_2,row_hash" {
		t.Fatalf("ColumnNames = %s", got)
	}

	if _, err := FromColumns("t", cols, []string{"a"}, nil, false, SQLite); err == nil {
		t.Fatalf("expected error for name count mismatch")
	}
	if _, err := FromColumns("t", cols, nil, []string{"nope"}, false, SQLite); err == nil {
		t.Fatalf("expected error for unknown key column")
	}

	def, err = FromColumns("t", cols, []string{"a", "b", "c"}, []string{"row_hash"}, true, SQLite)
	if err != nil {
		t.Fatalf("FromColumns renamed: %v", err)
	}
	if !def.Columns[3].PrimaryKey || def.Columns[0].Name != "a" {
		t.Fatalf("renamed def = %+v", def.Columns)
	}
}

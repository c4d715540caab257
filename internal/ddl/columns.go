package ddl

import (
	"fmt"
	"strings"

	"csvtable/internal/parser/csv"
)

// RowHashColumn is the name of the optional digest column.
const RowHashColumn = "row_hash"

// FromColumns builds a TableDef for the resolved columns of a parsed table.
//
// names renames the columns positionally; when empty the titles are turned
// into identifiers with UniqueIdentifiers. keys lists the primary key
// columns by their final name. rowHash appends a BIGINT row_hash column.
func FromColumns(fqn string, cols []csv.ColumnSpec, names, keys []string, rowHash bool, d Dialect) (TableDef, error) {
	if len(names) == 0 {
		titles := make([]string, len(cols))
		for i, c := range cols {
			titles[i] = c.Title
		}
		names = UniqueIdentifiers(titles)
	}
	if len(names) != len(cols) {
		return TableDef{}, fmt.Errorf("ddl: %d column names for %d columns", len(names), len(cols))
	}

	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		keySet[strings.TrimSpace(k)] = true
	}

	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, 0, len(cols)+1)}
	for i, c := range cols {
		typ, err := d.MapType(c.Type)
		if err != nil {
			return TableDef{}, err
		}
		pk := keySet[names[i]]
		delete(keySet, names[i])
		def.Columns = append(def.Columns, ColumnDef{
			Name:       names[i],
			SQLType:    typ,
			Nullable:   c.Nullable && !pk,
			PrimaryKey: pk,
		})
	}
	if rowHash {
		def.Columns = append(def.Columns, ColumnDef{
			Name:       RowHashColumn,
			SQLType:    d.Types[csv.TypeLong],
			PrimaryKey: keySet[RowHashColumn],
		})
		delete(keySet, RowHashColumn)
	}
	for k := range keySet {
		return TableDef{}, fmt.Errorf("ddl: key column %q is not a column of %s", k, fqn)
	}
	return def, nil
}

package ddl

import (
	"fmt"
	"strings"

	"csvtable/internal/parser/csv"
)

// Dialect captures what differs between SQL backends when rendering a
// CREATE TABLE statement for a parsed table.
type Dialect struct {
	Name string

	// Types maps every scalar type to the column type of this backend.
	Types map[csv.ScalarType]string

	// Open and Close delimit a quoted identifier. Close is doubled when it
	// appears inside the identifier.
	Open, Close string

	// Guard wraps the CREATE TABLE statement so that it is a no-op when the
	// table exists. It receives the quoted table name, the raw name and the
	// statement.
	Guard func(quoted, raw, stmt string) string
}

// MapType returns the backend type for t.
func (d Dialect) MapType(t csv.ScalarType) (string, error) {
	s, ok := d.Types[t]
	if !ok {
		return "", fmt.Errorf("ddl: %s has no type for %s", d.Name, t)
	}
	return s, nil
}

// QuoteIdent quotes a single identifier.
func (d Dialect) QuoteIdent(id string) string {
	return d.Open + strings.ReplaceAll(id, d.Close, d.Close+d.Close) + d.Close
}

// QuoteFQN quotes each dot separated part of a possibly schema qualified name.
func (d Dialect) QuoteFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.QuoteIdent(p)
	}
	return strings.Join(parts, ".")
}

// QuoteIdents quotes every name in cols.
func (d Dialect) QuoteIdents(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = d.QuoteIdent(c)
	}
	return out
}

func ifNotExists(quoted, _ string, stmt string) string {
	return strings.Replace(stmt, "CREATE TABLE "+quoted, "CREATE TABLE IF NOT EXISTS "+quoted, 1)
}

// Postgres renders identifiers with double quotes and uses IF NOT EXISTS.
var Postgres = Dialect{
	Name: "postgres",
	Types: map[csv.ScalarType]string{
		csv.TypeBoolean: "BOOLEAN",
		csv.TypeByte:    "SMALLINT",
		csv.TypeShort:   "SMALLINT",
		csv.TypeInt:     "INTEGER",
		csv.TypeLong:    "BIGINT",
		csv.TypeFloat:   "REAL",
		csv.TypeDouble:  "DOUBLE PRECISION",
		csv.TypeString:  "TEXT",
	},
	Open: `"`, Close: `"`,
	Guard: ifNotExists,
}

// SQLite uses the storage classes INTEGER, REAL and TEXT.
var SQLite = Dialect{
	Name: "sqlite",
	Types: map[csv.ScalarType]string{
		csv.TypeBoolean: "INTEGER",
		csv.TypeByte:    "INTEGER",
		csv.TypeShort:   "INTEGER",
		csv.TypeInt:     "INTEGER",
		csv.TypeLong:    "INTEGER",
		csv.TypeFloat:   "REAL",
		csv.TypeDouble:  "REAL",
		csv.TypeString:  "TEXT",
	},
	Open: `"`, Close: `"`,
	Guard: ifNotExists,
}

// MySQL quotes with backticks. TINYINT is signed, so it holds a Byte.
var MySQL = Dialect{
	Name: "mysql",
	Types: map[csv.ScalarType]string{
		csv.TypeBoolean: "BOOLEAN",
		csv.TypeByte:    "TINYINT",
		csv.TypeShort:   "SMALLINT",
		csv.TypeInt:     "INT",
		csv.TypeLong:    "BIGINT",
		csv.TypeFloat:   "FLOAT",
		csv.TypeDouble:  "DOUBLE",
		csv.TypeString:  "TEXT",
	},
	Open: "`", Close: "`",
	Guard: ifNotExists,
}

// MSSQL quotes with brackets. TINYINT is unsigned on SQL Server, so Byte
// widens to SMALLINT.
var MSSQL = Dialect{
	Name: "mssql",
	Types: map[csv.ScalarType]string{
		csv.TypeBoolean: "BIT",
		csv.TypeByte:    "SMALLINT",
		csv.TypeShort:   "SMALLINT",
		csv.TypeInt:     "INT",
		csv.TypeLong:    "BIGINT",
		csv.TypeFloat:   "REAL",
		csv.TypeDouble:  "FLOAT",
		csv.TypeString:  "NVARCHAR(MAX)",
	},
	Open: "[", Close: "]",
	Guard: func(_, raw, stmt string) string {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n%s\nEND;",
			strings.ReplaceAll(raw, "'", "''"), strings.TrimSuffix(stmt, ";"))
	},
}

var dialects = map[string]Dialect{
	Postgres.Name: Postgres,
	SQLite.Name:   SQLite,
	MySQL.Name:    MySQL,
	MSSQL.Name:    MSSQL,
}

// Lookup returns the dialect registered under name.
func Lookup(name string) (Dialect, bool) {
	d, ok := dialects[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

package storage

import (
	"context"
	"fmt"
	"log/slog"

	"csvtable/internal/ddl"
	"csvtable/internal/parser/csv"
)

// TableDef builds the destination table definition for the resolved columns
// of a parsed table, using the SQL dialect of cfg.Kind.
func TableDef(cfg Config, cols []csv.ColumnSpec, rowHash bool) (ddl.TableDef, error) {
	d, ok := ddl.Lookup(cfg.Kind)
	if !ok {
		return ddl.TableDef{}, fmt.Errorf("storage: no SQL dialect for kind %q", cfg.Kind)
	}
	names := cfg.Columns
	if rowHash && len(names) == len(cols)+1 {
		names = names[:len(cols)]
	}
	return ddl.FromColumns(cfg.Table, cols, names, cfg.KeyColumns, rowHash, d)
}

// EnsureTable creates the table described by def unless it exists.
func EnsureTable(ctx context.Context, repo Repository, kind string, def ddl.TableDef) error {
	d, ok := ddl.Lookup(kind)
	if !ok {
		return fmt.Errorf("storage: no SQL dialect for kind %q", kind)
	}
	stmt, err := ddl.BuildCreateTableSQL(def, d)
	if err != nil {
		return err
	}
	slog.Debug("ensure table", "kind", kind, "table", def.FQN, "sql", stmt)
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", def.FQN, err)
	}
	return nil
}

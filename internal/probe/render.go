package probe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"csvtable/internal/config"
	"csvtable/internal/ddl"
	"csvtable/internal/parser/csv"
)

// renderLines writes one `"title",type,nullable` line per column.
func renderLines(cols []Column) ([]byte, error) {
	var buf bytes.Buffer
	for _, c := range cols {
		fmt.Fprintf(&buf, "%s,%s,%t\n", csv.Quote(c.Title), c.Type, c.Nullable)
	}
	return buf.Bytes(), nil
}

// renderJob builds a job configuration that loads the probed input with the
// inferred column types. DSNs are left as ${CSVTABLE_DSN}.
func renderJob(cols []Column, opt Options) ([]byte, error) {
	name := ddl.NormalizeIdentifier(opt.Name)
	backend := normalizeBackendKind(opt.Backend)

	var j config.Job
	j.Job = name
	j.Source = sourceFor(opt.Location)
	j.Source.Encoding = opt.Encoding

	delim := opt.Delimiter
	if delim == 0 {
		delim = ','
	}
	d := string(delim)
	if delim == '\t' {
		d = `\t`
	}
	j.Parser.Kind = "csv"
	j.Parser.Options = config.Options{
		"delimiter":     d,
		"has_title_row": opt.HasTitleRow,
		"on_error":      string(config.PolicyWarn),
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		j.Parser.Columns = append(j.Parser.Columns, config.Column{
			Title:    c.Title,
			Type:     c.Type.String(),
			Nullable: c.Nullable,
		})
		names[i] = c.Identifier
	}

	j.Storage.Kind = backend
	j.Storage.DB = config.DBConfig{
		DSN:             "${" + config.EnvDSN + "}",
		Table:           tableFor(backend, name),
		Columns:         names,
		AutoCreateTable: true,
	}
	j.Metrics.Backend = "none"
	j.Runtime.BatchSize = config.DefaultBatchSize

	b, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("probe: render job: %w", err)
	}
	return append(b, '\n'), nil
}

func sourceFor(loc string) config.Source {
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		return config.Source{Kind: "http", HTTP: config.SourceHTTP{URL: loc}}
	}
	return config.Source{Kind: "file", File: config.SourceFile{Path: strings.TrimPrefix(loc, "file://")}}
}

// normalizeBackendKind maps user spellings to storage kinds; postgres is the
// default.
func normalizeBackendKind(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mssql", "sqlserver":
		return "mssql"
	case "mysql", "mariadb":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return "postgres"
	}
}

func tableFor(backend, name string) string {
	switch backend {
	case "postgres":
		return "public." + name
	case "mssql":
		return "dbo." + name
	}
	return name
}

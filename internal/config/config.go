// Package config holds the JSON job model used by the csvtable binaries: where
// the delimited text comes from, how the parser is configured, and where the
// decoded table is written.
//
// Example (trimmed):
//
//	{
//	  "job":     "vehicles",
//	  "source":  { "kind": "file", "file": { "path": "in.csv" }, "encoding": "windows-1250" },
//	  "parser":  { "kind": "csv", "options": { "delimiter": ";", "has_title_row": true } },
//	  "storage": { "kind": "postgres", "db": { "dsn": "${CSVTABLE_DSN}", "table": "public.vehicles" } }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"
)

// Environment variables consulted when the job leaves a value empty or refers
// to them as ${NAME}.
const (
	EnvDSN            = "CSVTABLE_DSN"
	EnvPushgatewayURL = "PUSHGATEWAY_URL"
	EnvDatadogAddr    = "DD_AGENT_ADDR"
)

// Job is the top-level object of a job file.
type Job struct {
	// Job names the run in logs and metrics.
	Job     string        `json:"job"`
	Source  Source        `json:"source"`
	Parser  Parser        `json:"parser"`
	Storage Storage       `json:"storage"`
	Metrics Metrics       `json:"metrics"`
	Runtime RuntimeConfig `json:"runtime"`
}

// RuntimeConfig controls batching towards storage.
type RuntimeConfig struct {
	BatchSize int `json:"batch_size"`
}

// DefaultBatchSize applies when runtime.batch_size is unset.
const DefaultBatchSize = 1000

// Batch returns the configured batch size or DefaultBatchSize.
func (r RuntimeConfig) Batch() int {
	if r.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return r.BatchSize
}

// Source identifies where the input bytes come from.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string     `json:"kind"`
	File SourceFile `json:"file"`
	HTTP SourceHTTP `json:"http"`

	// Encoding names the text encoding of the input (utf-8 when empty).
	Encoding string `json:"encoding,omitempty"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL string `json:"url"`
	// InsecureSkipVerify disables TLS certificate checks.
	InsecureSkipVerify bool `json:"insecure_skip_verify,omitempty"`
	// MaxRetries bounds retries on 5xx and 429 responses.
	MaxRetries int `json:"max_retries,omitempty"`
}

// Parser configures the delimited-text engine.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	// Options carries the dialect and error policies:
	//   delimiter (string), has_title_row (bool), disable_cr (bool, default true),
	//   pad_short_rows (bool), max_lines (int), on_error (object of policies)
	Options Options `json:"options"`

	// Columns declares column types by position. Entries left out are
	// inferred from the data.
	Columns []Column `json:"columns,omitempty"`
}

// Column is one explicit column declaration.
type Column struct {
	Title    string `json:"title,omitempty"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable,omitempty"`
	// Default is the cell text used when the cell is absent or invalid. It is
	// parsed with the column type.
	Default *string `json:"default,omitempty"`
	// Skip leaves a hole at this position for inference.
	Skip bool `json:"skip,omitempty"`
}

// Storage selects the sink used to persist decoded rows.
type Storage struct {
	// Kind selects the backend: postgres, mssql, mysql, sqlite or none.
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures a SQL sink.
type DBConfig struct {
	// DSN is the driver connection string. "${VAR}" expands from the
	// environment; empty falls back to CSVTABLE_DSN.
	DSN string `json:"dsn"`

	// Table is the destination table, optionally schema qualified.
	Table string `json:"table"`

	// Columns renames the parsed columns positionally. When empty the column
	// titles are turned into identifiers.
	Columns []string `json:"columns,omitempty"`

	// KeyColumns become the primary key when the table is created.
	KeyColumns []string `json:"key_columns,omitempty"`

	// AutoCreateTable creates the table from the resolved columns.
	AutoCreateTable bool `json:"auto_create_table"`

	// RowHash adds a row_hash column holding an xxh3 digest of each row.
	RowHash bool `json:"row_hash"`
}

// Metrics selects where run metrics are pushed.
type Metrics struct {
	// Backend is none, pushgateway or datadog.
	Backend        string `json:"backend"`
	PushgatewayURL string `json:"pushgateway_url,omitempty"`
	DatadogAddr    string `json:"datadog_addr,omitempty"`
}

// Load reads and decodes a job file, then resolves environment references.
func Load(path string) (Job, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("read config: %w", err)
	}
	return Decode(b)
}

// Decode parses a job from JSON and resolves environment references.
func Decode(b []byte) (Job, error) {
	var j Job
	if err := json.Unmarshal(b, &j); err != nil {
		return Job{}, fmt.Errorf("decode config: %w", err)
	}
	j.ResolveEnv()
	return j, nil
}

// LoadEnv loads .env files into the process environment. Variables that are
// already set win. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load env %s: %w", f, err)
		}
	}
	return nil
}

// ResolveEnv expands ${VAR} references in connection settings and fills
// empty ones from the well-known environment variables.
func (j *Job) ResolveEnv() {
	j.Storage.DB.DSN = fromEnv(j.Storage.DB.DSN, EnvDSN)
	j.Metrics.PushgatewayURL = fromEnv(j.Metrics.PushgatewayURL, EnvPushgatewayURL)
	j.Metrics.DatadogAddr = fromEnv(j.Metrics.DatadogAddr, EnvDatadogAddr)
}

func fromEnv(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return os.Getenv(fallback)
	}
	return os.ExpandEnv(v)
}

// Options is a free-form JSON object with typed getters that fall back to a
// default when a key is absent or of the wrong type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if s, ok := o[key].(string); ok {
		return s
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if b, ok := o[key].(bool); ok {
		return b
	}
	return def
}

// Int returns the int value for key or def. encoding/json decodes numbers as
// float64, so both float64 and int are accepted.
func (o Options) Int(key string, def int) int {
	switch n := o[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return def
}

// Rune returns the first rune of the string value for key, or def. The
// escape "\t" is accepted for tab.
func (o Options) Rune(key string, def rune) rune {
	s, ok := o[key].(string)
	if !ok || s == "" {
		return def
	}
	if s == `\t` {
		return '\t'
	}
	return []rune(s)[0]
}

// StringMap returns the string values of an object valued key. Non-string
// values are skipped; a missing key yields an empty map.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if m, ok := o[key].(map[string]any); ok {
		for k, v := range m {
			if s, ok := v.(string); ok {
				res[k] = s
			}
		}
	}
	return res
}

// UnmarshalJSON makes a missing or null object decode to an empty map.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

// ParseDelimiter reads a delimiter given on a command line or query string.
// Empty means ','. The names tab, semicolon and pipe and the escape "\t"
// are accepted; anything else must be a single character.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	case "semicolon":
		return ';', nil
	case "pipe":
		return '|', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter %q must be a single character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

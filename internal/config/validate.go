package config

import (
	"fmt"
	"net/url"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single lint finding. Path is a dotted path into the job (e.g.
// "storage.db.table", "parser.columns[1].type").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidateJob performs static checks over a decoded job. It never mutates j.
func ValidateJob(j Job) []Issue {
	var issues []Issue

	if strings.TrimSpace(j.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; runs will be labelled \"csvtable\" in logs and metrics",
		})
	}
	issues = append(issues, validateSource(j.Source)...)
	issues = append(issues, validateParser(j.Parser)...)
	issues = append(issues, validateStorage(j.Storage, j.Parser)...)
	issues = append(issues, validateMetrics(j.Metrics)...)
	issues = append(issues, validateRuntime(j.Runtime)...)
	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	switch strings.TrimSpace(s.Kind) {
	case "":
		return append(issues, Issue{SeverityError, "source.kind", "source.kind must not be empty"})
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{SeverityError, "source.file.path", "file source requires a non-empty path"})
		}
	case "http":
		u, err := url.Parse(strings.TrimSpace(s.HTTP.URL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			issues = append(issues, Issue{SeverityError, "source.http.url", "http source requires an absolute http(s) url"})
		}
		if s.HTTP.MaxRetries < 0 {
			issues = append(issues, Issue{SeverityError, "source.http.max_retries", "max_retries must not be negative"})
		}
	default:
		issues = append(issues, Issue{SeverityError, "source.kind", fmt.Sprintf("unknown source kind %q", s.Kind)})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	if k := strings.TrimSpace(p.Kind); k != "" && k != "csv" {
		issues = append(issues, Issue{SeverityError, "parser.kind", fmt.Sprintf("unknown parser kind %q", p.Kind)})
		return issues
	}

	if d, ok := p.Options["delimiter"].(string); ok && d != `\t` && len([]rune(d)) != 1 {
		issues = append(issues, Issue{SeverityError, "parser.options.delimiter", fmt.Sprintf("delimiter must be a single character, got %q", d)})
	}
	if n := p.Options.Int("max_lines", 0); n < 0 {
		issues = append(issues, Issue{SeverityError, "parser.options.max_lines", "max_lines must not be negative"})
	}

	switch v := p.Options["on_error"].(type) {
	case nil:
	case string:
		if _, err := ParsePolicy(v); err != nil {
			issues = append(issues, Issue{SeverityError, "parser.options.on_error", err.Error()})
		}
	case map[string]any:
		for k, raw := range v {
			path := "parser.options.on_error." + k
			if !knownCondition(k) {
				issues = append(issues, Issue{SeverityWarning, path, fmt.Sprintf("unknown condition %q", k)})
				continue
			}
			s, _ := raw.(string)
			if _, err := ParsePolicy(s); err != nil || s == "" {
				issues = append(issues, Issue{SeverityError, path, fmt.Sprintf("policy must be fail, warn or ignore, got %v", raw)})
			}
		}
	default:
		issues = append(issues, Issue{SeverityError, "parser.options.on_error", "on_error must be a policy string or an object of policies"})
	}

	for i, c := range p.Columns {
		if c.Skip {
			continue
		}
		if _, err := c.Spec(); err != nil {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("parser.columns[%d]", i), err.Error()})
		}
	}

	if _, err := p.ToOptions(); err != nil && len(issues) == 0 {
		issues = append(issues, Issue{SeverityError, "parser.options", err.Error()})
	}
	return issues
}

func knownCondition(k string) bool {
	for _, c := range Conditions {
		if c == k {
			return true
		}
	}
	return false
}

func validateStorage(s Storage, p Parser) []Issue {
	var issues []Issue

	switch strings.TrimSpace(s.Kind) {
	case "", "none":
		return nil
	case "postgres", "mssql", "mysql", "sqlite":
	default:
		return append(issues, Issue{SeverityWarning, "storage.kind", fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind)})
	}

	db := s.DB
	if strings.TrimSpace(db.DSN) == "" {
		issues = append(issues, Issue{SeverityError, "storage.db.dsn", "storage.db.dsn must not be empty (or set " + EnvDSN + ")"})
	}
	if strings.TrimSpace(db.Table) == "" {
		issues = append(issues, Issue{SeverityError, "storage.db.table", "storage.db.table must not be empty"})
	}
	if len(db.Columns) > 0 && len(p.Columns) > len(db.Columns) {
		issues = append(issues, Issue{SeverityError, "storage.db.columns",
			fmt.Sprintf("%d destination columns for %d declared parser columns", len(db.Columns), len(p.Columns))})
	}
	seen := map[string]bool{}
	for i, c := range db.Columns {
		if strings.TrimSpace(c) == "" {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("storage.db.columns[%d]", i), "column name must not be empty"})
			continue
		}
		if seen[c] {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("storage.db.columns[%d]", i), fmt.Sprintf("duplicate column %q", c)})
		}
		seen[c] = true
	}
	if len(db.KeyColumns) > 0 && !db.AutoCreateTable {
		issues = append(issues, Issue{SeverityWarning, "storage.db.key_columns", "key_columns only take effect with auto_create_table"})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	switch strings.TrimSpace(m.Backend) {
	case "", "none":
	case "pushgateway":
		if m.PushgatewayURL == "" {
			return []Issue{{SeverityError, "metrics.pushgateway_url", "pushgateway backend requires a URL (or set " + EnvPushgatewayURL + ")"}}
		}
		if u, err := url.Parse(m.PushgatewayURL); err != nil || u.Scheme == "" || u.Host == "" {
			return []Issue{{SeverityError, "metrics.pushgateway_url", fmt.Sprintf("invalid URL %q", m.PushgatewayURL)}}
		}
	case "datadog":
		if m.DatadogAddr == "" {
			return []Issue{{SeverityWarning, "metrics.datadog_addr", "datadog_addr is empty; the client default agent address is used"}}
		}
	default:
		return []Issue{{SeverityError, "metrics.backend", fmt.Sprintf("unknown metrics backend %q", m.Backend)}}
	}
	return nil
}

func validateRuntime(r RuntimeConfig) []Issue {
	if r.BatchSize < 0 {
		return []Issue{{SeverityError, "runtime.batch_size", "batch_size must not be negative"}}
	}
	return nil
}

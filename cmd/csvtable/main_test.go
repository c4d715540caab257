package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const people = "name,age\nann,31\nbob,\n"

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	in := writeFile(t, "people.csv", people)

	t.Run("json", func(t *testing.T) {
		out, err := run(t, "parse", "-t", "-o", "json", in)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		var doc struct {
			Columns []struct {
				Title    string `json:"title"`
				Type     string `json:"type"`
				Nullable bool   `json:"nullable"`
			} `json:"columns"`
			Rows [][]any `json:"rows"`
		}
		if err := json.Unmarshal([]byte(out), &doc); err != nil {
			t.Fatalf("decode %q: %v", out, err)
		}
		if len(doc.Columns) != 2 || doc.Columns[1].Type != "byte" || !doc.Columns[1].Nullable {
			t.Fatalf("columns = %+v", doc.Columns)
		}
		if len(doc.Rows) != 2 || doc.Rows[1][1] != nil {
			t.Fatalf("rows = %v", doc.Rows)
		}
	})

	t.Run("table", func(t *testing.T) {
		out, err := run(t, "parse", "-t", in)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if !strings.Contains(out, "age (byte)") || !strings.Contains(out, "NULL") {
			t.Fatalf("table output:\n%s", out)
		}
	})

	t.Run("no title row by default", func(t *testing.T) {
		out, err := run(t, "parse", "-o", "csv", in)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if !strings.HasPrefix(out, "\"Column 0\",\"Column 1\"\n\"name\",\"age\"\n") {
			t.Fatalf("csv output = %q", out)
		}
	})

	t.Run("csv with delimiter", func(t *testing.T) {
		semi := writeFile(t, "semi.csv", "a;b\n1;x\n")
		out, err := run(t, "-d", ";", "parse", "-t", "-o", "csv", semi)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if out != "\"a\";\"b\"\n\"1\";\"x\"\n" {
			t.Fatalf("csv output = %q", out)
		}
	})

	t.Run("lenient", func(t *testing.T) {
		short := writeFile(t, "short.csv", "a,b\n1,2\n3\n")
		if _, err := run(t, "parse", "-t", short); err == nil {
			t.Fatalf("expected error for short row")
		}
		out, err := run(t, "parse", "-t", "--lenient", "-o", "csv", short)
		if err != nil {
			t.Fatalf("lenient parse: %v", err)
		}
		if strings.Count(out, "\n") != 2 {
			t.Fatalf("lenient output = %q", out)
		}
	})
}

func TestParseCommand_Errors(t *testing.T) {
	in := writeFile(t, "people.csv", people)
	open := writeFile(t, "open.csv", "a,\"b\n")

	tests := []struct {
		name string
		args []string
	}{
		{"missing quote", []string{"parse", open}},
		{"bad delimiter", []string{"-d", "ab", "parse", in}},
		{"bad output", []string{"parse", "-o", "xml", in}},
		{"bad encoding", []string{"--encoding", "klingon", "parse", in}},
		{"missing file", []string{"parse", filepath.Join(t.TempDir(), "nope.csv")}},
		{"no args", []string{"parse"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := run(t, tc.args...); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestProbeCommand(t *testing.T) {
	in := writeFile(t, "people.csv", people)

	out, err := run(t, "probe", in)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !strings.Contains(out, `"age",byte,true`) {
		t.Fatalf("probe output = %q", out)
	}

	out, err = run(t, "probe", "--json", "--name", "people", "--backend", "sqlite", in)
	if err != nil {
		t.Fatalf("probe --json: %v", err)
	}
	if !strings.Contains(out, `"table": "people"`) {
		t.Fatalf("probe --json output = %s", out)
	}
}

func TestValidateAndLoad(t *testing.T) {
	in := writeFile(t, "people.csv", people)
	dbPath := filepath.Join(t.TempDir(), "out.db")

	job := map[string]any{
		"job":    "people",
		"source": map[string]any{"kind": "file", "file": map[string]any{"path": in}},
		"parser": map[string]any{"kind": "csv", "options": map[string]any{"has_title_row": true}},
		"storage": map[string]any{"kind": "sqlite", "db": map[string]any{
			"dsn": dbPath, "table": "people", "auto_create_table": true,
		}},
	}
	b, _ := json.Marshal(job)
	cfg := writeFile(t, "job.json", string(b))

	out, err := run(t, "validate", "-c", cfg)
	if err != nil || !strings.Contains(out, "configuration is valid") {
		t.Fatalf("validate = %q, %v", out, err)
	}

	out, err = run(t, "load", "-c", cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var sum struct {
		Rows     int   `json:"rows"`
		Inserted int64 `json:"inserted"`
	}
	if err := json.Unmarshal([]byte(out), &sum); err != nil {
		t.Fatalf("decode summary %q: %v", out, err)
	}
	if sum.Rows != 2 || sum.Inserted != 2 {
		t.Fatalf("summary = %+v", sum)
	}

	bad := writeFile(t, "bad.json", `{"job":"x","source":{"kind":"ftp"}}`)
	if _, err := run(t, "validate", "-c", bad); !errors.Is(err, errInvalidJob) {
		t.Fatalf("validate bad = %v", err)
	}
	if _, err := run(t, "load"); err == nil {
		t.Fatalf("expected error without --config")
	}
}

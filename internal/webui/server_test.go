package webui

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"csvtable/internal/config"
)

const people = "name,age\nann,31\nbob,\n"

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthAndIndex(t *testing.T) {
	h := NewServer(Config{}).Handler()

	rec := do(t, h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<form") {
		t.Fatalf("index = %d", rec.Code)
	}
}

func TestParse(t *testing.T) {
	h := NewServer(Config{}).Handler()

	rec := do(t, h, http.MethodPost, "/api/parse?title_row=true", people)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[parseResponse](t, rec)

	if len(got.Columns) != 2 || got.Columns[0].Title != "name" || got.Columns[1].Title != "age" {
		t.Fatalf("columns = %+v", got.Columns)
	}
	if got.Columns[1].Type.String() != "byte" || !got.Columns[1].Nullable {
		t.Fatalf("age column = %+v", got.Columns[1])
	}
	if len(got.Rows) != 2 || got.Rows[0][1] != float64(31) || got.Rows[1][1] != nil {
		t.Fatalf("rows = %v", got.Rows)
	}
	if len(got.Conditions) != 0 {
		t.Fatalf("conditions = %v", got.Conditions)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		body     string
		status   int
		wantKind string
	}{
		{"missing closing quote", "/api/parse", "a,\"b\n", http.StatusUnprocessableEntity, "missing_closing_quote"},
		{"short row", "/api/parse?title_row=1", "a,b\n1,2\n3\n", http.StatusUnprocessableEntity, config.CondInconsistentColumnCount},
		{"bad delimiter", "/api/parse?delimiter=ab", "a\n", http.StatusBadRequest, ""},
		{"quote delimiter", "/api/parse?delimiter=%22", "a\n", http.StatusBadRequest, "invalid_options"},
		{"bad bool", "/api/parse?pad=maybe", "a\n", http.StatusBadRequest, ""},
		{"bad encoding", "/api/parse?encoding=klingon", "a\n", http.StatusBadRequest, ""},
	}

	h := NewServer(Config{}).Handler()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tc.target, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
			got := decode[errorResponse](t, rec)
			if got.Kind != tc.wantKind || got.Error == "" {
				t.Fatalf("error = %+v", got)
			}
		})
	}
}

func TestParse_Lenient(t *testing.T) {
	h := NewServer(Config{}).Handler()

	rec := do(t, h, http.MethodPost, "/api/parse?title_row=true&lenient=true", "a,b\n1,2\n3\n")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[parseResponse](t, rec)
	if len(got.Rows) != 1 {
		t.Fatalf("rows = %v", got.Rows)
	}
	if len(got.Conditions) != 1 || got.Conditions[0].Kind != config.CondInconsistentColumnCount {
		t.Fatalf("conditions = %+v", got.Conditions)
	}
}

func TestParse_Pad(t *testing.T) {
	h := NewServer(Config{}).Handler()

	rec := do(t, h, http.MethodPost, "/api/parse?title_row=true&pad=true&delimiter=%3B", "a;b\n1;2\n3\n")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[parseResponse](t, rec)
	if len(got.Rows) != 2 || got.Rows[1][1] != nil {
		t.Fatalf("rows = %v", got.Rows)
	}
}

func TestParse_BodyLimit(t *testing.T) {
	h := NewServer(Config{MaxBodyBytes: 8}).Handler()

	rec := do(t, h, http.MethodPost, "/api/parse", people)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestProbe(t *testing.T) {
	h := NewServer(Config{}).Handler()

	rec := do(t, h, http.MethodPost, "/api/probe", people)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"age",byte,true`) {
		t.Fatalf("lines = %q", rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/api/probe?format=json&name=people&backend=sqlite", people)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("status = %d ct=%q", rec.Code, rec.Header().Get("Content-Type"))
	}
	job, err := config.Decode(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.Storage.Kind != "sqlite" || job.Storage.DB.Table != "people" || len(job.Parser.Columns) != 2 {
		t.Fatalf("job = %+v", job)
	}

	rec = do(t, h, http.MethodPost, "/api/probe?format=xml", people)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("format=xml status = %d", rec.Code)
	}
}

func TestRemoteProbe(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, people)
	}))
	defer upstream.Close()
	target := "/api/probe?url=" + url.QueryEscape(upstream.URL+"/people.csv")

	rec := do(t, NewServer(Config{}).Handler(), http.MethodGet, target, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("disabled: status = %d", rec.Code)
	}

	h := NewServer(Config{AllowRemoteProbe: true}).Handler()
	rec = do(t, h, http.MethodGet, target, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"name",string,false`) {
		t.Fatalf("status = %d body=%q", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/probe?url=ftp://example.com/x.csv", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("ftp: status = %d", rec.Code)
	}
}

package storage

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"csvtable/internal/parser/csv"
)

// fakeRepo records what it is asked to do.
type fakeRepo struct {
	closed bool
	execs  []string
	rows   int
}

func (f *fakeRepo) CopyFrom(_ context.Context, _ []string, rows [][]any) (int64, error) {
	f.rows += len(rows)
	return int64(len(rows)), nil
}

func (f *fakeRepo) Exec(_ context.Context, sql string) error {
	f.execs = append(f.execs, sql)
	return nil
}

func (f *fakeRepo) Close() { f.closed = true }

func TestRegisterAndNew_Success(t *testing.T) {
	t.Parallel()

	kind := "fake"
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		return &fakeRepo{}, nil
	})

	repo, err := New(context.Background(), Config{Kind: "FAKE"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if repo == nil {
		t.Fatalf("New returned nil repo")
	}

	found := false
	for _, k := range ListKinds() {
		if k == kind {
			found = true
		}
	}
	if !found {
		t.Fatalf("registered kind %q not present in ListKinds: %v", kind, ListKinds())
	}
}

func TestNew_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Kind: "does-not-exist"})
	if err == nil {
		t.Fatalf("expected error for unsupported kind")
	}
	if !strings.Contains(err.Error(), `unsupported kind "does-not-exist"`) {
		t.Fatalf("error = %q", err)
	}
}

func TestRegister_Override(t *testing.T) {
	t.Parallel()

	kind := "override"
	calls := 0
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		calls++
		return &fakeRepo{}, nil
	})
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		calls += 10
		return &fakeRepo{}, nil
	})

	if _, err := New(context.Background(), Config{Kind: kind}); err != nil {
		t.Fatalf("New error: %v", err)
	}
	if calls != 10 {
		t.Fatalf("factory call count = %d, want 10", calls)
	}
}

func TestListKinds_Snapshot(t *testing.T) {
	t.Parallel()

	Register("snap", func(ctx context.Context, cfg Config) (Repository, error) { return &fakeRepo{}, nil })

	a := ListKinds()
	if len(a) == 0 {
		t.Fatalf("ListKinds empty after registration")
	}
	a[0] = "mutated"
	if reflect.DeepEqual(a, ListKinds()) {
		t.Fatalf("ListKinds returned same slice; want snapshot copy")
	}
}

func TestRegister_AllowsErrors(t *testing.T) {
	t.Parallel()

	want := errors.New("boom")
	Register("errkind", func(ctx context.Context, cfg Config) (Repository, error) {
		return nil, want
	})

	_, err := New(context.Background(), Config{Kind: "errkind"})
	if !errors.Is(err, want) {
		t.Fatalf("want %v, got %v", want, err)
	}
}

func TestEnsureTable(t *testing.T) {
	t.Parallel()

	cols := []csv.ColumnSpec{
		*csv.NewColumnSpec(csv.TypeInt, "Id", false),
		*csv.NewColumnSpec(csv.TypeString, "Name", true),
	}
	cfg := Config{Kind: "sqlite", Table: "people", KeyColumns: []string{"id"}}

	def, err := TableDef(cfg, cols, true)
	if err != nil {
		t.Fatalf("TableDef: %v", err)
	}
	if got := strings.Join(def.ColumnNames(), ","); got != "id,name,row_hash" {
		t.Fatalf("columns = %s", got)
	}

	repo := &fakeRepo{}
	if err := EnsureTable(context.Background(), repo, cfg.Kind, def); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS \"people\" (\n" +
		"  \"id\" INTEGER NOT NULL,\n" +
		"  \"name\" TEXT,\n" +
		"  \"row_hash\" INTEGER NOT NULL,\n" +
		"  PRIMARY KEY (\"id\")\n);"
	if len(repo.execs) != 1 || repo.execs[0] != want {
		t.Fatalf("execs = %q", repo.execs)
	}

	// Explicit names that already include row_hash are accepted.
	cfg.Columns = []string{"a", "b", "row_hash"}
	cfg.KeyColumns = nil
	def, err = TableDef(cfg, cols, true)
	if err != nil {
		t.Fatalf("TableDef renamed: %v", err)
	}
	if got := strings.Join(def.ColumnNames(), ","); got != "a,b,row_hash" {
		t.Fatalf("columns = %s", got)
	}

	if _, err := TableDef(Config{Kind: "fake"}, cols, false); err == nil {
		t.Fatalf("expected error for kind without dialect")
	}
	if err := EnsureTable(context.Background(), repo, "fake", def); err == nil {
		t.Fatalf("expected error for kind without dialect")
	}
}

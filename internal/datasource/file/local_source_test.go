package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(p, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		path    string
		ctx     context.Context
		wantErr error
		want    string
	}{
		{name: "reads content", path: p, ctx: context.Background(), want: "a,b\n1,2\n"},
		{name: "missing file", path: filepath.Join(dir, "nope.csv"), ctx: context.Background(), wantErr: os.ErrNotExist},
		{name: "canceled context", path: p, ctx: canceled, wantErr: context.Canceled},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			src := NewLocal(tc.path)
			if src.Path() != tc.path {
				t.Fatalf("Path() = %q", src.Path())
			}
			rc, err := src.Open(tc.ctx)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer rc.Close()
			b, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(b) != tc.want {
				t.Fatalf("content = %q, want %q", b, tc.want)
			}
		})
	}
}

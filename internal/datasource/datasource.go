// Package datasource opens the bytes a job parses.
package datasource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"csvtable/internal/config"
	"csvtable/internal/datasource/file"
	"csvtable/internal/datasource/httpds"
)

// Source yields a fresh reader over the input on each Open.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Peeker is implemented by sources that can fetch a prefix more cheaply
// than opening the whole input.
type Peeker interface {
	Peek(ctx context.Context, n int) ([]byte, error)
}

// FromConfig builds the source described by a job.
func FromConfig(s config.Source) (Source, error) {
	switch strings.TrimSpace(s.Kind) {
	case "file":
		return file.NewLocal(s.File.Path), nil
	case "http":
		c := httpds.NewClient(httpds.Config{
			InsecureSkipVerify: s.HTTP.InsecureSkipVerify,
			MaxRetries:         s.HTTP.MaxRetries,
		})
		return httpds.NewSource(c, s.HTTP.URL), nil
	default:
		return nil, fmt.Errorf("datasource: unknown source kind %q", s.Kind)
	}
}

// FromLocation picks the source for a CLI argument: http(s) URLs are
// fetched, anything else (optionally prefixed with file://) is a local path.
func FromLocation(loc string, insecure bool) Source {
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		return httpds.NewSource(httpds.NewClient(httpds.Config{InsecureSkipVerify: insecure}), loc)
	}
	return file.NewLocal(strings.TrimPrefix(loc, "file://"))
}

// ReadAll opens src and reads it fully.
func ReadAll(ctx context.Context, src Source) ([]byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return b, nil
}

// Peek returns at most n leading bytes of src.
func Peek(ctx context.Context, src Source, n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("peek: n must be > 0")
	}
	if p, ok := src.(Peeker); ok {
		return p.Peek(ctx, n)
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(io.LimitReader(rc, int64(n))); err != nil {
		return nil, fmt.Errorf("peek: %w", err)
	}
	return buf.Bytes(), nil
}

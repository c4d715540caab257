package httpds

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// Source reads one URL.
type Source struct {
	client *Client
	url    string
}

// NewSource binds url to client.
func NewSource(c *Client, url string) *Source { return &Source{client: c, url: url} }

// URL returns the bound URL.
func (s *Source) URL() string { return s.url }

// Open GETs the URL. Any status other than 2xx is an error.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("get %s: unexpected status %s", s.url, resp.Status)
	}
	return resp.Body, nil
}

// Peek returns at most n leading bytes. It asks for a byte range and also
// limits the read, so servers that ignore Range still work.
func (s *Source) Peek(ctx context.Context, n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("httpds: n must be > 0")
	}
	h := make(http.Header)
	h.Set("Range", fmt.Sprintf("bytes=0-%d", n-1))

	resp, err := s.client.Get(ctx, s.url, h)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("get %s: unexpected status %s", s.url, resp.Status)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, int64(n))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package datadog

import (
	"net"
	"strings"
	"testing"
	"time"

	"csvtable/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackend_RequiresAddr(t *testing.T) {
	t.Parallel()

	b, err := NewBackend(Config{})
	assert.Error(t, err)
	assert.Nil(t, b)
}

func TestHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "csvtable.rows_total", metricName(metrics.RowsTotal))
	assert.Equal(t, []string{"job:j", "kind:parsed"}, tags(metrics.Labels{"kind": "parsed", "job": "j"}))
	assert.Nil(t, tags(nil))
}

func TestBackend_SendsToAgent(t *testing.T) {
	t.Parallel()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	b, err := NewBackend(Config{Addr: conn.LocalAddr().String(), GlobalTags: []string{"env:test"}})
	require.NoError(t, err)

	b.IncCounter(metrics.RowsTotal, 3, metrics.Labels{"kind": metrics.RowsParsed})
	b.ObserveHistogram(metrics.StepDuration, 0.25, metrics.Labels{"step": "parse"})
	require.NoError(t, b.Flush())

	var got strings.Builder
	buf := make([]byte, 64*1024)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for !strings.Contains(got.String(), "csvtable.rows_total") || !strings.Contains(got.String(), "csvtable.step_duration_seconds") {
		n, _, err := conn.ReadFrom(buf)
		require.NoError(t, err, "received so far: %q", got.String())
		got.Write(buf[:n])
	}

	payload := got.String()
	assert.Contains(t, payload, "csvtable.rows_total:3|c")
	assert.Contains(t, payload, "kind:parsed")
	assert.Contains(t, payload, "env:test")
	assert.Contains(t, payload, "csvtable.step_duration_seconds:0.25|h")
}

func TestNilClientIsSafe(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.RowsTotal, 1, nil)
	b.ObserveHistogram(metrics.StepDuration, 1, nil)
	assert.NoError(t, b.Flush())
}

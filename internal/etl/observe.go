package etl

import (
	"fmt"
	"log/slog"
	"strings"

	"csvtable/internal/config"
	"csvtable/internal/metrics"
	"csvtable/internal/metrics/datadog"
	"csvtable/internal/metrics/prompush"
)

// SetupMetrics installs the metrics backend selected by the job and returns
// a function that flushes it. With backend none the returned function is a
// no-op.
func SetupMetrics(job config.Job) (flush func(), err error) {
	m := job.Metrics
	var b metrics.Backend

	switch strings.TrimSpace(m.Backend) {
	case "", "none":
		return func() {}, nil
	case "pushgateway":
		b, err = prompush.NewBackend(job.Job, m.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			GlobalTags: []string{"job:" + job.Job},
		})
	default:
		return nil, fmt.Errorf("metrics: unknown backend %q", m.Backend)
	}
	if err != nil {
		return nil, err
	}

	metrics.SetBackend(b)
	slog.Debug("metrics backend installed", "backend", m.Backend, "job", job.Job)
	return func() {
		if err := metrics.Flush(); err != nil {
			slog.Warn("metrics flush failed", "backend", m.Backend, "err", err)
		}
		metrics.Reset()
	}, nil
}

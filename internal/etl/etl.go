// Package etl runs a configured job end to end: read the source, decode it
// to text, parse it into a typed table and optionally load the rows into a
// SQL table.
package etl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"csvtable/internal/config"
	"csvtable/internal/datasource"
	"csvtable/internal/metrics"
	"csvtable/internal/parser/csv"
	"csvtable/internal/storage"
	"csvtable/internal/textenc"
)

// Summary reports what a run did.
type Summary struct {
	RunID uuid.UUID `json:"run_id"`
	// Rows is the number of decoded data rows.
	Rows int `json:"rows"`
	// Dropped counts rows removed for an inconsistent column count.
	Dropped int `json:"dropped"`
	// InvalidCells counts cells replaced by their column default.
	InvalidCells int `json:"invalid_cells"`
	// Inserted is the number of rows the storage backend reported as written.
	Inserted int64 `json:"inserted"`
}

// Test seams.
var (
	newRepositoryFn = storage.New
	openSourceFn    = datasource.FromConfig
)

// Run executes job. A fatal parse condition, per the job's on_error
// policies, fails the run before anything is written.
func Run(ctx context.Context, job config.Job) (Summary, error) {
	sum := Summary{RunID: uuid.New()}
	log := slog.Default().With("job", job.Job, "run_id", sum.RunID.String())
	start := time.Now()

	tbl, counts, err := parse(ctx, job, log)
	if err != nil {
		return sum, err
	}
	sum.Rows = tbl.RowCount()
	sum.Dropped = int(counts.dropped.Load())
	sum.InvalidCells = int(counts.invalid.Load())

	metrics.RecordRows(job.Job, metrics.RowsParsed, int64(sum.Rows))
	metrics.RecordRows(job.Job, metrics.RowsDropped, int64(sum.Dropped))
	metrics.RecordRows(job.Job, metrics.RowsInvalidCells, int64(sum.InvalidCells))
	log.Info("parsed", "rows", sum.Rows, "columns", len(tbl.Columns()),
		"dropped", sum.Dropped, "invalid_cells", sum.InvalidCells)

	kind := strings.ToLower(strings.TrimSpace(job.Storage.Kind))
	if kind != "" && kind != "none" {
		stop := metrics.Timer(job.Job, "load")
		n, err := load(ctx, job, kind, tbl, log)
		stop(err)
		sum.Inserted = n
		if err != nil {
			return sum, err
		}
		metrics.RecordRows(job.Job, metrics.RowsInserted, n)
	}

	log.Info("run complete", "inserted", sum.Inserted, "elapsed", time.Since(start).Truncate(time.Millisecond))
	return sum, nil
}

type conditionCounts struct {
	dropped atomic.Int64
	invalid atomic.Int64
}

func (n *conditionCounts) add(c error) {
	switch c := c.(type) {
	case csv.InconsistentColumnCount:
		n.dropped.Add(int64(len(c.Rows)))
	case csv.InvalidCellValue:
		n.invalid.Add(1)
	}
}

func parse(ctx context.Context, job config.Job, log *slog.Logger) (_ *csv.Table, _ *conditionCounts, err error) {
	stop := metrics.Timer(job.Job, "parse")
	defer func() { stop(err) }()

	src, err := openSourceFn(job.Source)
	if err != nil {
		return nil, nil, err
	}
	raw, err := datasource.ReadAll(ctx, src)
	if err != nil {
		return nil, nil, fmt.Errorf("read source: %w", err)
	}
	text, err := textenc.Decode(raw, job.Source.Encoding)
	if err != nil {
		return nil, nil, fmt.Errorf("decode source: %w", err)
	}

	opt, err := job.Parser.ToOptions()
	if err != nil {
		return nil, nil, err
	}
	counts := &conditionCounts{}
	opt.Handlers = handlers(job, log, counts)

	tbl, err := csv.ParseReader(ctx, strings.NewReader(text), opt)
	if err != nil {
		return nil, nil, fmt.Errorf("parse: %w", err)
	}
	return tbl, counts, nil
}

// handlers builds engine handlers from the job's per-condition policies.
func handlers(job config.Job, log *slog.Logger, counts *conditionCounts) csv.Handlers {
	return csv.HandleAll(func(cond string, c error) error {
		pol := job.Parser.Policy(cond)
		if pol == config.PolicyFail {
			return c
		}
		metrics.RecordCondition(job.Job, cond)
		counts.add(c)
		if pol == config.PolicyWarn {
			log.Warn("parse condition", "condition", cond, "err", c)
		}
		return nil
	})
}

func load(ctx context.Context, job config.Job, kind string, tbl *csv.Table, log *slog.Logger) (int64, error) {
	db := job.Storage.DB
	cfg := storage.Config{
		Kind:       kind,
		DSN:        db.DSN,
		Table:      db.Table,
		Columns:    db.Columns,
		KeyColumns: db.KeyColumns,
	}
	def, err := storage.TableDef(cfg, tbl.Columns(), db.RowHash)
	if err != nil {
		return 0, err
	}
	cfg.Columns = def.ColumnNames()

	repo, err := newRepositoryFn(ctx, cfg)
	if err != nil {
		return 0, fmt.Errorf("open storage: %w", err)
	}
	defer repo.Close()

	if db.AutoCreateTable {
		if err := storage.EnsureTable(ctx, repo, kind, def); err != nil {
			return 0, err
		}
	}

	batch := job.Runtime.Batch()
	log.Info("loading", "kind", kind, "table", db.Table, "rows", tbl.RowCount(), "batch", batch)

	g, gctx := errgroup.WithContext(ctx)
	rows := make(chan []any, batch)
	g.Go(func() error {
		defer close(rows)
		for _, r := range tbl.Rows() {
			select {
			case rows <- storage.Values(r, db.RowHash):
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var inserted int64
	g.Go(func() error {
		n, err := storage.LoadBatches(gctx, job.Job, cfg.Columns, rows, batch, repo.CopyFrom)
		inserted = n
		return err
	})

	if err := g.Wait(); err != nil {
		return inserted, fmt.Errorf("load %s: %w", db.Table, err)
	}
	return inserted, nil
}

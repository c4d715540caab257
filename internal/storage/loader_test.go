package storage

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"csvtable/internal/metrics"
	"csvtable/internal/parser/csv"
)

// batchCounter is a metrics.Backend that sums the batch counter per job.
type batchCounter struct {
	mu   sync.Mutex
	jobs map[string]float64
}

func (b *batchCounter) IncCounter(name string, delta float64, l metrics.Labels) {
	if name != metrics.BatchesTotal {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobs[l["job"]] += delta
}

func (b *batchCounter) ObserveHistogram(string, float64, metrics.Labels) {}
func (b *batchCounter) Flush() error                                     { return nil }

func (b *batchCounter) get(job string) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jobs[job]
}

func countBatches(t *testing.T) *batchCounter {
	t.Helper()
	b := &batchCounter{jobs: map[string]float64{}}
	metrics.SetBackend(b)
	t.Cleanup(metrics.Reset)
	return b
}

// recorder is a CopyFn keeping every batch it was given.
type recorder struct {
	mu      sync.Mutex
	batches [][][]any
	fail    map[int]error
}

func (r *recorder) copy(_ context.Context, _ []string, rows [][]any) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, append([][]any(nil), rows...))
	if err := r.fail[len(r.batches)]; err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// tableRows parses text and sends its rows through Values on a closed channel.
func tableRows(t *testing.T, text string, rowHash bool) (*csv.Table, <-chan []any) {
	t.Helper()
	tbl, err := csv.Parse(text, csv.Options{HasTitleRow: true})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	in := make(chan []any, tbl.RowCount())
	for _, r := range tbl.Rows() {
		in <- Values(r, rowHash)
	}
	close(in)
	return tbl, in
}

const scores = "id,name,score\n1,ann,1.5\n2,bob,\n3,cid,2\n4,dan,0.5\n5,eve,4\n"

func TestLoadBatches_TableRows(t *testing.T) {
	counter := countBatches(t)
	tbl, in := tableRows(t, scores, true)

	rec := &recorder{}
	total, err := LoadBatches(context.Background(), "scores", []string{"id", "name", "score", "row_hash"}, in, 2, rec.copy)
	if err != nil {
		t.Fatalf("LoadBatches: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}

	var sizes []int
	for _, b := range rec.batches {
		sizes = append(sizes, len(b))
	}
	if !reflect.DeepEqual(sizes, []int{2, 2, 1}) {
		t.Fatalf("batch sizes = %v", sizes)
	}

	second := rec.batches[0][1]
	want := []any{int64(2), "bob", nil, RowHash(tbl.Rows()[1])}
	if !reflect.DeepEqual(second, want) {
		t.Fatalf("row 2 = %#v, want %#v", second, want)
	}
	if got := counter.get("scores"); got != 3 {
		t.Fatalf("batches counted for scores = %v, want 3", got)
	}
}

func TestLoadBatches_FailedBatchStopsLoad(t *testing.T) {
	counter := countBatches(t)
	_, in := tableRows(t, scores, false)

	boom := errors.New("unique violation")
	rec := &recorder{fail: map[int]error{2: boom}}
	total, err := LoadBatches(context.Background(), "failing", []string{"id", "name", "score"}, in, 2, rec.copy)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if total != 2 || len(rec.batches) != 2 {
		t.Fatalf("total = %d after %d batches, want 2 after 2", total, len(rec.batches))
	}
	if got := counter.get("failing"); got != 1 {
		t.Fatalf("batches counted = %v, only the successful one should count", got)
	}
}

func TestLoadBatches_CancelMidBatch(t *testing.T) {
	counter := countBatches(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan []any)
	rec := &recorder{}
	type result struct {
		total int64
		err   error
	}
	done := make(chan result, 1)
	go func() {
		n, err := LoadBatches(ctx, "cancelled", []string{"n"}, in, 2, rec.copy)
		done <- result{n, err}
	}()

	// Two rows fill the first batch; the third stays pending.
	for i := int64(1); i <= 3; i++ {
		in <- []any{i}
	}
	cancel()

	select {
	case r := <-done:
		if !errors.Is(r.err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", r.err)
		}
		if r.total != 2 || len(rec.batches) != 1 {
			t.Fatalf("total = %d, batches = %d; the pending row must not be copied", r.total, len(rec.batches))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("LoadBatches did not return after cancel")
	}
	if got := counter.get("cancelled"); got != 1 {
		t.Fatalf("batches counted = %v, want 1", got)
	}
}

func TestLoadBatches_BadArguments(t *testing.T) {
	in := make(chan []any)
	close(in)
	if _, err := LoadBatches(context.Background(), "x", nil, in, 0, (&recorder{}).copy); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
	if _, err := LoadBatches(context.Background(), "x", nil, in, 1, nil); err == nil {
		t.Fatalf("expected error for nil copy function")
	}
}

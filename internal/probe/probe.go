// Package probe samples the head of a delimited file, parses it leniently and
// reports the inferred columns, either as "title,type,nullable" lines or as a
// starter job configuration.
package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"csvtable/internal/datasource"
	"csvtable/internal/ddl"
	"csvtable/internal/parser/csv"
	"csvtable/internal/textenc"
)

// DefaultMaxBytes is the sample size used when Options.MaxBytes is zero.
const DefaultMaxBytes = 64 << 10

// Options control sampling and output.
type Options struct {
	// Location is a local path, a file:// URL or an http(s) URL.
	Location string
	// MaxBytes to sample from the start of the input.
	MaxBytes int
	// Delimiter of the dialect; zero means ','.
	Delimiter rune
	// HasTitleRow treats the first line as column titles.
	HasTitleRow bool
	// Encoding of the input; empty means utf-8.
	Encoding string
	// Name is used for the job, table and sample file names.
	Name string
	// Backend selects the storage kind of the generated job.
	Backend string
	// OutputJSON renders a job configuration instead of column lines.
	OutputJSON bool
	// SaveSample writes the sampled bytes to <name>.csv.
	SaveSample bool
	// AllowInsecureTLS skips certificate checks for https locations.
	AllowInsecureTLS bool
}

// Column is one inferred column.
type Column struct {
	Title      string         `json:"title"`
	Identifier string         `json:"identifier"`
	Type       csv.ScalarType `json:"type"`
	Nullable   bool           `json:"nullable"`
}

// Result is the rendered output plus what it was rendered from.
type Result struct {
	Body    []byte   `json:"-"`
	Columns []Column `json:"columns"`
	// Rows is the number of sampled data rows kept.
	Rows int `json:"rows"`
	// Dropped counts rows removed for an inconsistent column count.
	Dropped int `json:"dropped"`
	// Truncated reports that the sample was cut at MaxBytes.
	Truncated bool `json:"truncated"`
}

// Probe fetches the sample from opt.Location and runs Sample on it.
func Probe(ctx context.Context, opt Options) (Result, error) {
	if opt.Location == "" {
		return Result{}, fmt.Errorf("probe: location must not be empty")
	}
	n := opt.MaxBytes
	if n <= 0 {
		n = DefaultMaxBytes
	}
	opt.MaxBytes = n

	src := datasource.FromLocation(opt.Location, opt.AllowInsecureTLS)
	data, err := datasource.Peek(ctx, src, n)
	if err != nil {
		return Result{}, fmt.Errorf("probe: sample %s: %w", opt.Location, err)
	}

	if opt.SaveSample {
		name := ddl.NormalizeIdentifier(opt.Name) + ".csv"
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return Result{}, fmt.Errorf("probe: save sample: %w", err)
		}
	}
	return Sample(data, opt)
}

// Sample parses data, which may be the head of a larger input, and renders
// the result. When data fills MaxBytes the decoded text is cut after its last
// complete line, and again before a quoted field the cut left open.
func Sample(data []byte, opt Options) (Result, error) {
	var res Result
	res.Truncated = opt.MaxBytes > 0 && len(data) >= opt.MaxBytes
	if res.Truncated {
		data = trimPartialRune(data, opt.Encoding)
	}

	text, err := textenc.Decode(data, opt.Encoding)
	if err != nil {
		return Result{}, fmt.Errorf("probe: %w", err)
	}
	text = csv.StripBOM(text)
	if res.Truncated {
		text = cutAfterLastLine(text)
	}

	tbl, err := parseSample(text, opt, &res)
	if err != nil {
		return Result{}, fmt.Errorf("probe: parse sample: %w", err)
	}

	cols := tbl.Columns()
	ids := ddl.UniqueIdentifiers(tbl.Titles())
	res.Columns = make([]Column, len(cols))
	for i, c := range cols {
		res.Columns[i] = Column{Title: c.Title, Identifier: ids[i], Type: c.Type, Nullable: c.Nullable}
	}
	res.Rows = tbl.RowCount()

	if opt.OutputJSON {
		res.Body, err = renderJob(res.Columns, opt)
	} else {
		res.Body, err = renderLines(res.Columns)
	}
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func parseSample(text string, opt Options, res *Result) (*csv.Table, error) {
	for {
		res.Dropped = 0
		h := csv.Ignore()
		h.OnInconsistentColumnCount = func(c csv.InconsistentColumnCount) error {
			res.Dropped += len(c.Rows)
			return nil
		}
		tbl, err := csv.Parse(text, csv.Options{
			Delimiter:   opt.Delimiter,
			HasTitleRow: opt.HasTitleRow,
			Handlers:    h,
		})
		var mcq *csv.MissingClosingQuoteError
		if err == nil || !res.Truncated || !errors.As(err, &mcq) {
			return tbl, err
		}
		shorter := cutBeforeRune(text, mcq.Offset)
		if shorter == "" || len(shorter) >= len(text) {
			return nil, err
		}
		text = shorter
	}
}

// cutAfterLastLine drops the text after the last line break.
func cutAfterLastLine(text string) string {
	if i := strings.LastIndexByte(text, '\n'); i > 0 {
		return text[:i+1]
	}
	return text
}

// cutBeforeRune returns the complete lines preceding the line that holds the
// rune at offset.
func cutBeforeRune(text string, offset int) string {
	b := len(text)
	n := 0
	for i := range text {
		if n == offset {
			b = i
			break
		}
		n++
	}
	return text[:strings.LastIndexByte(text[:b], '\n')+1]
}

// trimPartialRune removes an incomplete UTF-8 sequence left at the end of a
// byte-limited sample. Other encodings replace a partial trailing character
// while decoding, and that line is cut afterwards.
func trimPartialRune(data []byte, enc string) []byte {
	if e, err := textenc.Lookup(enc); err != nil || e != nil {
		return data
	}
	for i := len(data) - 1; i >= 0 && i >= len(data)-utf8.UTFMax; i-- {
		if utf8.RuneStart(data[i]) {
			if !utf8.FullRune(data[i:]) {
				return data[:i]
			}
			break
		}
	}
	return data
}

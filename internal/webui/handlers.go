package webui

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"csvtable/internal/config"
	"csvtable/internal/logging"
	"csvtable/internal/parser/csv"
	"csvtable/internal/probe"
	"csvtable/internal/textenc"
)

type columnJSON struct {
	Title    string         `json:"title"`
	Type     csv.ScalarType `json:"type"`
	Nullable bool           `json:"nullable"`
	Default  any            `json:"default"`
}

type conditionJSON struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type parseResponse struct {
	Columns    []columnJSON    `json:"columns"`
	Rows       [][]any         `json:"rows"`
	Conditions []conditionJSON `json:"conditions"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// handleParse parses the request body.
//
// Query: delimiter, title_row, pad, disable_cr (default true), max_lines,
// encoding, lenient. Without lenient any recoverable condition fails the
// request with 422, as does a missing closing quote.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	q := r.URL.Query()

	opt, err := optionsFromQuery(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	lenient, err := queryBool(q, "lenient", false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	raw, ok := s.readBody(w, r)
	if !ok {
		return
	}
	text, err := textenc.Decode(raw, q.Get("encoding"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var conds conditions
	if lenient {
		opt.Handlers = csv.HandleAll(conds.add)
	}
	tbl, err := csv.Parse(csv.StripBOM(text), opt)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, csv.ErrInvalidOptions) {
			status = http.StatusBadRequest
		}
		log.Info("parse rejected", "err", err)
		writeError(w, status, err)
		return
	}

	resp := parseResponse{
		Columns:    make([]columnJSON, 0, len(tbl.Columns())),
		Rows:       make([][]any, 0, tbl.RowCount()),
		Conditions: conds.list(),
	}
	for _, c := range tbl.Columns() {
		resp.Columns = append(resp.Columns, columnJSON{
			Title: c.Title, Type: c.Type, Nullable: c.Nullable, Default: csv.JSONValue(c.Default),
		})
	}
	for _, row := range tbl.Rows() {
		out := make([]any, len(row))
		for i, v := range row {
			out[i] = csv.JSONValue(v)
		}
		resp.Rows = append(resp.Rows, out)
	}
	log.Debug("parsed", "rows", len(resp.Rows), "columns", len(resp.Columns), "conditions", len(resp.Conditions))
	writeJSON(w, http.StatusOK, resp)
}

// handleProbe infers the columns of the request body.
//
// Query: delimiter, title_row, encoding, max_bytes, name, backend, format
// (lines or json).
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	opt, err := probeOptionsFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	raw, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if len(raw) > opt.MaxBytes {
		raw = raw[:opt.MaxBytes]
	}
	res, err := probe.Sample(raw, opt)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeProbe(w, res, opt)
}

// handleRemoteProbe samples ?url= like the probe command does.
func (s *Server) handleRemoteProbe(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.AllowRemoteProbe {
		writeError(w, http.StatusForbidden, errors.New("remote probing is disabled"))
		return
	}
	q := r.URL.Query()
	opt, err := probeOptionsFromQuery(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	opt.Location = strings.TrimSpace(q.Get("url"))
	if u, err := url.Parse(opt.Location); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		writeError(w, http.StatusBadRequest, errors.New("url must be an absolute http(s) URL"))
		return
	}
	res, err := probe.Probe(r.Context(), opt)
	if err != nil {
		logging.FromContext(r.Context()).Warn("probe failed", "url", opt.Location, "err", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeProbe(w, res, opt)
}

func writeProbe(w http.ResponseWriter, res probe.Result, opt probe.Options) {
	if opt.OutputJSON {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	_, _ = w.Write(res.Body)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	raw, err := io.ReadAll(body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
		} else {
			writeError(w, http.StatusBadRequest, err)
		}
		return nil, false
	}
	return raw, true
}

func optionsFromQuery(q url.Values) (csv.Options, error) {
	var (
		opt csv.Options
		err error
	)
	if opt.Delimiter, err = config.ParseDelimiter(q.Get("delimiter")); err != nil {
		return opt, err
	}
	if opt.HasTitleRow, err = queryBool(q, "title_row", false); err != nil {
		return opt, err
	}
	if opt.PadShortRows, err = queryBool(q, "pad", false); err != nil {
		return opt, err
	}
	foldCR, err := queryBool(q, "disable_cr", true)
	if err != nil {
		return opt, err
	}
	opt.KeepCR = !foldCR
	if v := q.Get("max_lines"); v != "" {
		if opt.MaxLines, err = strconv.Atoi(v); err != nil {
			return opt, errors.New("max_lines must be an integer")
		}
	}
	return opt, opt.Validate()
}

func probeOptionsFromQuery(q url.Values) (probe.Options, error) {
	var (
		opt = probe.Options{
			Name:     q.Get("name"),
			Backend:  q.Get("backend"),
			Encoding: q.Get("encoding"),
			MaxBytes: probe.DefaultMaxBytes,
		}
		err error
	)
	if opt.Delimiter, err = config.ParseDelimiter(q.Get("delimiter")); err != nil {
		return opt, err
	}
	if opt.HasTitleRow, err = queryBool(q, "title_row", true); err != nil {
		return opt, err
	}
	if v := q.Get("max_bytes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return opt, errors.New("max_bytes must be a positive integer")
		}
		opt.MaxBytes = n
	}
	switch q.Get("format") {
	case "", "lines":
	case "json":
		opt.OutputJSON = true
	default:
		return opt, errors.New("format must be lines or json")
	}
	return opt, nil
}

func queryBool(q url.Values, key string, def bool) (bool, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(key + " must be a boolean")
	}
	return b, nil
}

// conditions records what lenient handlers swallowed.
type conditions struct {
	mu    sync.Mutex
	items []conditionJSON
}

func (c *conditions) add(kind string, err error) error {
	c.mu.Lock()
	c.items = append(c.items, conditionJSON{Kind: kind, Message: err.Error()})
	c.mu.Unlock()
	return nil
}

func (c *conditions) list() []conditionJSON {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]conditionJSON{}, c.items...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: errorKind(err)})
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, csv.ErrMissingClosingQuote):
		return "missing_closing_quote"
	case errors.Is(err, csv.ErrInconsistentColumnCount):
		return config.CondInconsistentColumnCount
	case errors.Is(err, csv.ErrColumnSpecWithoutAdapter):
		return config.CondColumnSpecWithoutAdapter
	case errors.Is(err, csv.ErrInvalidCellValue):
		return config.CondInvalidCellValue
	case errors.Is(err, csv.ErrInvalidOptions):
		return "invalid_options"
	}
	return ""
}

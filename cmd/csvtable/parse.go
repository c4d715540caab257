package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"csvtable/internal/parser/csv"
)

type parseOptions struct {
	titleRow bool
	pad      bool
	keepCR   bool
	maxLines int
	lenient  bool
	output   string
	insecure bool
}

func newParseCommand(g *globalOptions) *cobra.Command {
	o := &parseOptions{}

	cmd := &cobra.Command{
		Use:   "parse FILE|URL",
		Short: "Parse a file and print the typed table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delim, err := g.delim()
			if err != nil {
				return err
			}
			text, err := g.readText(cmd.Context(), args[0], o.insecure)
			if err != nil {
				return err
			}

			opt := csv.Options{
				Delimiter:    delim,
				KeepCR:       o.keepCR,
				HasTitleRow:  o.titleRow,
				PadShortRows: o.pad,
				MaxLines:     o.maxLines,
			}
			if o.lenient {
				opt.Handlers = warnHandlers(slog.Default())
			}
			tbl, err := csv.Parse(csv.StripBOM(text), opt)
			if err != nil {
				return err
			}
			slog.Debug("parsed", "file", args[0], "rows", tbl.RowCount(), "columns", len(tbl.Columns()))

			out := cmd.OutOrStdout()
			switch o.output {
			case "json":
				return writeTableJSON(out, tbl)
			case "table":
				return writeTableText(out, tbl)
			case "csv":
				return csv.Encode(out, tbl, delim, nil)
			default:
				return fmt.Errorf("unknown output %q (want json, table or csv)", o.output)
			}
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&o.titleRow, "title-row", "t", false, "first line holds the column titles")
	f.BoolVar(&o.pad, "pad", false, "pad short rows with empty cells instead of dropping them")
	f.BoolVar(&o.keepCR, "keep-cr", false, "keep carriage returns inside cells")
	f.IntVar(&o.maxLines, "max-lines", 0, "stop after this many lines, title included (0 = all)")
	f.BoolVar(&o.lenient, "lenient", false, "log recoverable conditions instead of failing")
	f.StringVarP(&o.output, "output", "o", "table", "output format: table, json or csv")
	f.BoolVar(&o.insecure, "insecure", false, "skip TLS verification for https URLs")
	return cmd
}

// warnHandlers logs every recoverable condition and continues.
func warnHandlers(log *slog.Logger) csv.Handlers {
	return csv.HandleAll(func(cond string, c error) error {
		log.Warn("parse condition", "condition", cond, "err", c)
		return nil
	})
}

func writeTableJSON(w io.Writer, tbl *csv.Table) error {
	type column struct {
		Title    string         `json:"title"`
		Type     csv.ScalarType `json:"type"`
		Nullable bool           `json:"nullable"`
		Default  any            `json:"default"`
	}
	doc := struct {
		Columns []column `json:"columns"`
		Rows    [][]any  `json:"rows"`
	}{Rows: make([][]any, 0, tbl.RowCount())}

	for _, c := range tbl.Columns() {
		doc.Columns = append(doc.Columns, column{c.Title, c.Type, c.Nullable, csv.JSONValue(c.Default)})
	}
	for _, r := range tbl.Rows() {
		row := make([]any, len(r))
		for i, v := range r {
			row[i] = csv.JSONValue(v)
		}
		doc.Rows = append(doc.Rows, row)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func writeTableText(w io.Writer, tbl *csv.Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	cols := tbl.Columns()
	for i, c := range cols {
		sep := "\t"
		if i == len(cols)-1 {
			sep = "\n"
		}
		fmt.Fprintf(tw, "%s (%s)%s", c.Title, c.Type, sep)
	}
	for _, r := range tbl.Rows() {
		for i, v := range r {
			sep := "\t"
			if i == len(r)-1 {
				sep = "\n"
			}
			cell := "NULL"
			if v != nil {
				cell = csv.FormatValue(v)
			}
			fmt.Fprint(tw, cell, sep)
		}
	}
	return tw.Flush()
}

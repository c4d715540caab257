package config

import (
	"fmt"
	"strings"

	"csvtable/internal/parser/csv"
)

// Policy says what to do with a recoverable parse condition.
type Policy string

const (
	// PolicyFail aborts the run.
	PolicyFail Policy = "fail"
	// PolicyWarn logs the condition and continues.
	PolicyWarn Policy = "warn"
	// PolicyIgnore continues silently.
	PolicyIgnore Policy = "ignore"
)

// Condition keys accepted under parser.options.on_error.
const (
	CondInconsistentColumnCount  = csv.CondInconsistentColumnCount
	CondColumnSpecWithoutAdapter = csv.CondColumnSpecWithoutAdapter
	CondInvalidCellValue         = csv.CondInvalidCellValue
	CondInvalidRowAppend         = csv.CondInvalidRowAppend
)

// Conditions lists the on_error keys in a stable order.
var Conditions = []string{
	CondInconsistentColumnCount,
	CondColumnSpecWithoutAdapter,
	CondInvalidCellValue,
	CondInvalidRowAppend,
}

// ParsePolicy validates a policy name. Empty means fail.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyFail, nil
	case PolicyFail, PolicyWarn, PolicyIgnore:
		return p, nil
	}
	return "", fmt.Errorf("unknown error policy %q (want fail, warn or ignore)", s)
}

// Policy returns the configured policy for cond. A bare string under
// on_error applies to every condition.
func (p Parser) Policy(cond string) Policy {
	if all, ok := p.Options["on_error"].(string); ok {
		if pol, err := ParsePolicy(all); err == nil {
			return pol
		}
		return PolicyFail
	}
	pol, err := ParsePolicy(p.Options.StringMap("on_error")[cond])
	if err != nil {
		return PolicyFail
	}
	return pol
}

// ToOptions builds engine options from the parser block. Handlers are left
// empty; the caller installs them according to Policy.
func (p Parser) ToOptions() (csv.Options, error) {
	opt := csv.Options{
		Delimiter:    p.Options.Rune("delimiter", ','),
		KeepCR:       !p.Options.Bool("disable_cr", true),
		HasTitleRow:  p.Options.Bool("has_title_row", false),
		PadShortRows: p.Options.Bool("pad_short_rows", false),
		MaxLines:     p.Options.Int("max_lines", 0),
	}
	if len(p.Columns) > 0 {
		opt.Columns = make([]*csv.ColumnSpec, len(p.Columns))
		for i, c := range p.Columns {
			if c.Skip {
				continue
			}
			spec, err := c.Spec()
			if err != nil {
				return csv.Options{}, fmt.Errorf("parser.columns[%d]: %w", i, err)
			}
			opt.Columns[i] = spec
		}
	}
	if err := opt.Validate(); err != nil {
		return csv.Options{}, fmt.Errorf("parser.options: %w", err)
	}
	return opt, nil
}

// Spec converts the declaration into an engine column spec.
func (c Column) Spec() (*csv.ColumnSpec, error) {
	t, err := csv.ParseScalarType(c.Type)
	if err != nil {
		return nil, err
	}
	spec := csv.NewColumnSpec(t, c.Title, c.Nullable)
	if c.Default != nil {
		v, err := spec.Parse(*c.Default)
		if err != nil {
			return nil, fmt.Errorf("default %q is not %s: %w", *c.Default, t, err)
		}
		spec.Default = v
	}
	return spec, nil
}

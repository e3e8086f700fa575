package engine

import (
	"fmt"
	"strings"
	"time"
)

// ============================================================================
// CLEANER — Allow-list, Date Drop/Parse, Zero-Fill
// ============================================================================
// Pipeline:
//   1. FilterEntities  — keep allow-listed entities (exact match)
//   2. DropMissing     — rows without a date are discarded, never filled
//   3. ParseDates      — text → calendar date, column normalized to ISO form
//   4. ZeroFill        — nulls in designated numeric columns become 0
//
// The asymmetry between (2) and (4) is intentional and preserved.
// Clean(Clean(t)) == Clean(t).
// ============================================================================

// ISODate is the canonical layout dates are normalized to.
const ISODate = "2006-01-02"

// CleanOptions configures Clean. Every field is explicit; there are no
// package-level defaults.
type CleanOptions struct {
	EntityKey   string
	Entities    []string
	DateKey     string
	DateLayouts []string // tried in order; empty means ISODate only
	ZeroFill    []string
}

// DateParseError reports a non-null date that matched no layout.
type DateParseError struct {
	Column string
	Row    int
	Value  string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("column %q row %d: cannot parse %q as a date", e.Column, e.Row, e.Value)
}

// Clean runs the full cleaning sequence and returns a new table.
// An allow-list matching nothing yields an empty table, not an error.
func Clean(t *Table, opts CleanOptions) (*Table, error) {
	out, err := FilterEntities(t, opts.EntityKey, opts.Entities)
	if err != nil {
		return nil, err
	}
	if out, err = DropMissing(out, opts.DateKey); err != nil {
		return nil, err
	}
	if out, err = ParseDates(out, opts.DateKey, opts.DateLayouts); err != nil {
		return nil, err
	}
	return ZeroFill(out, opts.ZeroFill)
}

// ParseDates parses every row of a string column into a calendar date.
// A null row is an error here; callers drop missing dates first.
func ParseDates(t *Table, key string, layouts []string) (*Table, error) {
	col, ok := t.Column(key)
	if !ok {
		return nil, fmt.Errorf("parse dates: %w: %q", ErrMissingColumn, key)
	}
	if len(layouts) == 0 {
		layouts = []string{ISODate}
	}

	dates := make([]time.Time, t.Len())
	text := make([]string, t.Len())
	for i := 0; i < t.Len(); i++ {
		raw := strings.TrimSpace(col.String(i))
		d, ok := parseDate(raw, layouts)
		if !ok {
			return nil, &DateParseError{Column: key, Row: i, Value: raw}
		}
		dates[i] = d
		text[i] = d.Format(ISODate)
	}

	out, err := t.WithColumn(StringColumn(key, text))
	if err != nil {
		return nil, err
	}
	out.dateKey = key
	out.dates = dates
	return out, nil
}

// parseDate tries each layout and truncates the result to a UTC calendar day.
func parseDate(raw string, layouts []string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if d, err := time.Parse(layout, raw); err == nil {
			y, m, day := d.Date()
			return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ZeroFill replaces nulls with 0 in each named numeric column.
func ZeroFill(t *Table, keys []string) (*Table, error) {
	out := t
	for _, key := range keys {
		col, ok := out.Column(key)
		if !ok {
			return nil, fmt.Errorf("zero-fill: %w: %q", ErrMissingColumn, key)
		}
		if !col.Numeric {
			if !allNull(col) {
				return nil, fmt.Errorf("zero-fill: %w: %q", ErrNotNumeric, key)
			}
			// A column with no values at all parses as text; treat it as numeric.
			col = NumberColumn(key, make([]float64, col.Len()), make([]bool, col.Len()))
		}

		nums := make([]float64, col.Len())
		for i := range nums {
			if v, ok := col.Float(i); ok {
				nums[i] = v
			}
		}
		var err error
		if out, err = out.WithColumn(NumberColumn(key, nums, nil)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func allNull(c *Column) bool {
	return c.NullCount() == c.Len()
}

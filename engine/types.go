package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ============================================================================
// COVIDSCOPE ENGINE TYPES — Observation Table + Figure Model
// ============================================================================
// The table is column-oriented and immutable: every transformation returns a
// new *Table. Columns are shared between tables, never written after creation.
//
// Null semantics:
//   string column  — empty string is null
//   numeric column — valid[i] == false is null
// ============================================================================

var (
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing column")
	// ErrNotNumeric is returned when a numeric operation targets a string column.
	ErrNotNumeric = errors.New("column is not numeric")
)

// ============================================================================
// COLUMN
// ============================================================================

// Column is a single named column of an observation table.
type Column struct {
	Key     string
	Numeric bool

	strs  []string
	nums  []float64
	valid []bool
}

// StringColumn creates a string column. Empty values are null.
func StringColumn(key string, values []string) *Column {
	return &Column{Key: key, strs: values}
}

// NumberColumn creates a numeric column. valid may be nil, meaning all valid.
func NumberColumn(key string, values []float64, valid []bool) *Column {
	if valid == nil {
		valid = make([]bool, len(values))
		for i := range valid {
			valid[i] = true
		}
	}
	return &Column{Key: key, Numeric: true, nums: values, valid: valid}
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Numeric {
		return len(c.nums)
	}
	return len(c.strs)
}

// IsNull reports whether row i holds no value.
func (c *Column) IsNull(i int) bool {
	if c.Numeric {
		return !c.valid[i]
	}
	return c.strs[i] == ""
}

// Float returns the numeric value at row i and whether it is present.
// String columns always report false.
func (c *Column) Float(i int) (float64, bool) {
	if !c.Numeric || !c.valid[i] {
		return 0, false
	}
	return c.nums[i], true
}

// String returns the text form of row i, or "" for null.
func (c *Column) String(i int) string {
	if !c.Numeric {
		return c.strs[i]
	}
	if !c.valid[i] {
		return ""
	}
	return FormatNumber(c.nums[i])
}

// NullCount returns the number of null rows.
func (c *Column) NullCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			n++
		}
	}
	return n
}

// take copies the given rows into a new column.
func (c *Column) take(indices []int) *Column {
	if c.Numeric {
		nums := make([]float64, len(indices))
		valid := make([]bool, len(indices))
		for j, i := range indices {
			nums[j] = c.nums[i]
			valid[j] = c.valid[i]
		}
		return &Column{Key: c.Key, Numeric: true, nums: nums, valid: valid}
	}
	strs := make([]string, len(indices))
	for j, i := range indices {
		strs[j] = c.strs[i]
	}
	return &Column{Key: c.Key, strs: strs}
}

// ============================================================================
// TABLE
// ============================================================================

// Table is the observation table: one row per (entity, date) pair.
type Table struct {
	columns []*Column
	byKey   map[string]int
	rows    int

	// Parsed calendar dates for dateKey, set by ParseDates.
	dateKey string
	dates   []time.Time
}

// NewTable builds a table from columns of equal length. Keys must be unique.
func NewTable(columns ...*Column) (*Table, error) {
	t := &Table{byKey: make(map[string]int, len(columns))}
	for i, c := range columns {
		if _, dup := t.byKey[c.Key]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Key)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Key, c.Len(), t.rows)
		}
		t.byKey[c.Key] = i
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Columns returns column keys in source order.
func (t *Table) Columns() []string {
	keys := make([]string, len(t.columns))
	for i, c := range t.columns {
		keys[i] = c.Key
	}
	return keys
}

// Column returns the column with the given key.
func (t *Table) Column(key string) (*Column, bool) {
	i, ok := t.byKey[key]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Dimension returns the text value of a column at row i ("" when null or absent).
func (t *Table) Dimension(i int, key string) string {
	c, ok := t.Column(key)
	if !ok || i < 0 || i >= t.rows {
		return ""
	}
	return c.String(i)
}

// Measure returns the numeric value of a column at row i.
func (t *Table) Measure(i int, key string) (float64, bool) {
	c, ok := t.Column(key)
	if !ok || i < 0 || i >= t.rows {
		return 0, false
	}
	return c.Float(i)
}

// Date returns the parsed calendar date of row i.
// It reports false until the table has been through ParseDates.
func (t *Table) Date(i int) (time.Time, bool) {
	if t.dates == nil || i < 0 || i >= t.rows {
		return time.Time{}, false
	}
	return t.dates[i], true
}

// DateKey returns the key of the parsed temporal column, or "".
func (t *Table) DateKey() string { return t.dateKey }

// Head returns the first n rows as text, one []string per row in column order.
func (t *Table) Head(n int) [][]string {
	if n > t.rows || n < 0 {
		n = t.rows
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(t.columns))
		for j, c := range t.columns {
			row[j] = c.String(i)
		}
		out[i] = row
	}
	return out
}

// Take returns a new table holding the given rows in the given order.
func (t *Table) Take(indices []int) *Table {
	out := &Table{
		byKey:   t.byKey,
		rows:    len(indices),
		dateKey: t.dateKey,
		columns: make([]*Column, len(t.columns)),
	}
	for i, c := range t.columns {
		out.columns[i] = c.take(indices)
	}
	if t.dates != nil {
		out.dates = make([]time.Time, len(indices))
		for j, i := range indices {
			out.dates[j] = t.dates[i]
		}
	}
	return out
}

// WithColumn returns a new table where c replaces the column of the same key,
// or is appended when no such column exists.
func (t *Table) WithColumn(c *Column) (*Table, error) {
	if c.Len() != t.rows {
		return nil, fmt.Errorf("column %q has %d rows, want %d", c.Key, c.Len(), t.rows)
	}
	out := &Table{
		rows:    t.rows,
		dateKey: t.dateKey,
		dates:   t.dates,
		columns: append([]*Column(nil), t.columns...),
		byKey:   make(map[string]int, len(t.columns)+1),
	}
	for k, v := range t.byKey {
		out.byKey[k] = v
	}
	if i, ok := out.byKey[c.Key]; ok {
		out.columns[i] = c
	} else {
		out.byKey[c.Key] = len(out.columns)
		out.columns = append(out.columns, c)
	}
	return out, nil
}

// FormatNumber renders a float the way it would appear in the source CSV.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ============================================================================
// FIGURE TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string
	Title      string
	XAxis      string
	YAxis      string
	Series     []ChartSeries
	ShowLegend bool
	ShowGrid   bool
}

// ChartSeries represents one curve of a chart.
type ChartSeries struct {
	Name  string
	Data  []ChartPoint
	Color string
}

// ChartPoint is a single (date, value) point. Value may be NaN or ±Inf.
type ChartPoint struct {
	Label string
	Time  time.Time
	Value float64
}

// FigureSpec describes one time-series figure over a measure.
type FigureSpec struct {
	Title   string
	Measure string
	YAxis   string

	// Ratio, when set, derives Measure as Numerator / Denominator right
	// before the figure is built.
	Ratio *RatioSpec
}

// RatioSpec names the operands of a derived ratio column.
type RatioSpec struct {
	Numerator   string
	Denominator string
}

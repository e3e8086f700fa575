package engine

import (
	"fmt"
	"strings"
)

// ============================================================================
// AGGREGATORS — Derived Columns and Per-View Helpers
// ============================================================================

// DeriveRatio returns a new table with column name = numerator / denominator.
// The division is unguarded: 0/0 is NaN and x/0 is ±Inf. A row where either
// operand is null gets a null result.
func DeriveRatio(t *Table, name, numerator, denominator string) (*Table, error) {
	num, ok := t.Column(numerator)
	if !ok {
		return nil, fmt.Errorf("derive %s: %w: %q", name, ErrMissingColumn, numerator)
	}
	den, ok := t.Column(denominator)
	if !ok {
		return nil, fmt.Errorf("derive %s: %w: %q", name, ErrMissingColumn, denominator)
	}
	if !num.Numeric {
		return nil, fmt.Errorf("derive %s: %w: %q", name, ErrNotNumeric, numerator)
	}
	if !den.Numeric {
		return nil, fmt.Errorf("derive %s: %w: %q", name, ErrNotNumeric, denominator)
	}

	values := make([]float64, t.Len())
	valid := make([]bool, t.Len())
	for i := range values {
		n, okN := num.Float(i)
		d, okD := den.Float(i)
		if okN && okD {
			values[i] = n / d
			valid[i] = true
		}
	}
	return t.WithColumn(NumberColumn(name, values, valid))
}

// UniqueValues returns distinct non-null values of a dimension in first-seen order.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := view.Dimension(i, dimension)
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

// MeasureValues returns the present values of a measure across a view.
func MeasureValues(view RecordView, measure string) []float64 {
	out := make([]float64, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		if v, ok := view.Measure(i, measure); ok {
			out = append(out, v)
		}
	}
	return out
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// LabelForMeasure turns a snake_case key into a title: "total_cases" → "Total Cases".
func LabelForMeasure(measure string) string {
	words := strings.Fields(strings.ReplaceAll(measure, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

package schema

import (
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/spektr-org/covidscope/engine"
)

// ============================================================================
// PROFILING — Heuristic per-column classification
// ============================================================================
// Inspects a loaded table and reports, for every column, what kind of values
// it holds, how many are null, and a few samples. Diagnostic only: nothing
// downstream depends on the result.
//
// Classification per column:
//   1. Numeric columns are numeric.
//   2. Text columns: sample non-null values → detect type (date, bool, numeric,
//      string) by 80% majority.
//   3. Nulls are counted over every row; type detection stops at SampleSize.
// ============================================================================

// Kind is the detected value type of a column.
type Kind string

const (
	KindString  Kind = "string"
	KindNumeric Kind = "numeric"
	KindDate    Kind = "date"
	KindBool    Kind = "bool"
)

// ColumnProfile is the diagnostic summary of one column.
type ColumnProfile struct {
	Key         string
	DisplayName string
	Kind        Kind
	NullCount   int
	UniqueCount int // over the sampled rows
	Samples     []string
}

// ProfileOptions controls profiling.
type ProfileOptions struct {
	SampleSize int // Max rows inspected for type and cardinality. Default: 1000
	MaxSamples int // Sample values kept per column. Default: 5
}

// DefaultProfileOptions returns sensible defaults.
func DefaultProfileOptions() ProfileOptions {
	return ProfileOptions{
		SampleSize: 1000,
		MaxSamples: 5,
	}
}

// Profile summarizes every column of t in column order.
func Profile(t *engine.Table, opts ...ProfileOptions) []ColumnProfile {
	opt := DefaultProfileOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.SampleSize <= 0 {
		opt.SampleSize = t.Len()
	}

	keys := t.Columns()
	profiles := make([]ColumnProfile, 0, len(keys))
	for _, key := range keys {
		col, _ := t.Column(key)
		profiles = append(profiles, analyzeColumn(col, opt))
	}
	return profiles
}

// analyzeColumn inspects the values of one column and classifies it.
func analyzeColumn(col *engine.Column, opt ProfileOptions) ColumnProfile {
	p := ColumnProfile{
		Key:         col.Key,
		DisplayName: toDisplayName(col.Key),
		NullCount:   col.NullCount(),
	}

	limit := col.Len()
	if opt.SampleSize < limit {
		limit = opt.SampleSize
	}

	values := make([]string, 0, limit)
	uniqueSet := make(map[string]bool)
	for i := 0; i < limit; i++ {
		if col.IsNull(i) {
			continue
		}
		v := col.String(i)
		values = append(values, v)
		uniqueSet[v] = true
	}

	p.UniqueCount = len(uniqueSet)
	p.Samples = collectSamples(uniqueSet, opt.MaxSamples)

	switch {
	case col.Numeric:
		p.Kind = KindNumeric
	default:
		p.Kind = detectType(values)
	}
	return p
}

// ============================================================================
// TYPE DETECTION
// ============================================================================

// detectType inspects values to determine column type.
// Requires 80%+ of non-null values to match for date/bool/numeric.
func detectType(values []string) Kind {
	if len(values) == 0 {
		return KindString
	}

	numCount := 0
	dateCount := 0
	boolCount := 0

	for _, v := range values {
		if isNumeric(v) {
			numCount++
		}
		if isDate(v) {
			dateCount++
		}
		if isBool(v) {
			boolCount++
		}
	}

	threshold := int(float64(len(values)) * 0.8)

	if boolCount >= threshold {
		return KindBool
	}
	if dateCount >= threshold {
		return KindDate
	}
	if numCount >= threshold {
		return KindNumeric
	}
	return KindString
}

func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "") // handle "1,234.56"
	s = strings.TrimPrefix(s, "-")
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02/01/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

func isDate(s string) bool {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func isBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "false" || s == "yes" || s == "no"
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// ToSnakeCase converts "Column Name" or "columnName" → "column_name".
func ToSnakeCase(s string) string {
	// Handle camelCase: insert underscore before uppercase letters
	var result strings.Builder
	prev := rune(0)
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 {
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(r)
		prev = r
	}

	s = result.String()
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "_")
	return s
}

// toDisplayName cleans a key for human display.
// "total_cases" → "Total Cases", "location" → "Location"
func toDisplayName(s string) string {
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to maxSamples representative values.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}

	// Sort for deterministic output
	sort.Strings(samples)

	if maxSamples > 0 && len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}

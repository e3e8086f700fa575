package helpers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spektr-org/covidscope/engine"
	"github.com/spektr-org/covidscope/schema"
)

// ============================================================================
// CSV HELPER — Parses CSV data into an engine.Table
// ============================================================================
// The fetcher opens the stream from wherever it lives (HTTP, S3, disk).
// This helper converts it into typed columns using the schema: declared
// dimensions stay text, everything else is numeric unless a value refuses
// to parse.
// ============================================================================

// ParseStats reports what the parser did with the input.
type ParseStats struct {
	Rows   int // rows read
	Padded int // short rows completed with nulls
}

// Values read as null in a numeric column.
var numericNulls = map[string]bool{
	"": true, "NA": true, "N/A": true, "n/a": true, "NaN": true, "nan": true,
	"null": true, "NULL": true, "#N/A": true,
}

// ParseCSV reads a CSV stream into a Table.
// Header names are snake-cased. A row shorter than the header is padded with
// nulls and counted. A row longer than the header, or one with bad quoting,
// fails the whole parse.
func ParseCSV(r io.Reader, sch schema.Config) (*engine.Table, ParseStats, error) {
	var stats ParseStats

	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	reader.FieldsPerRecord = -1

	// Read header
	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, errors.New("CSV is empty: no header row")
		}
		return nil, stats, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	if len(headers) == 0 || (len(headers) == 1 && strings.TrimSpace(headers[0]) == "") {
		return nil, stats, errors.New("CSV has no columns")
	}

	dimSet := make(map[string]bool)
	for _, key := range sch.DimensionKeys() {
		dimSet[key] = true
	}

	builders := make([]*columnBuilder, len(headers))
	seen := make(map[string]bool)
	for i, h := range headers {
		key := schema.ToSnakeCase(h)
		if key == "" {
			key = fmt.Sprintf("column_%d", i)
		}
		if seen[key] {
			return nil, stats, fmt.Errorf("CSV header repeats column %q", key)
		}
		seen[key] = true
		builders[i] = newColumnBuilder(key, dimSet[key])
	}

	// Read rows
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read CSV row %d: %w", stats.Rows+1, err)
		}
		if len(row) > len(builders) {
			line, _ := reader.FieldPos(0)
			return nil, stats, fmt.Errorf("CSV row %d (line %d) has %d fields, header has %d",
				stats.Rows+1, line, len(row), len(builders))
		}

		for i, b := range builders {
			if i < len(row) {
				b.add(strings.TrimSpace(row[i]))
			} else {
				b.add("")
			}
		}
		if len(row) < len(builders) {
			stats.Padded++
		}
		stats.Rows++
	}

	columns := make([]*engine.Column, len(builders))
	for i, b := range builders {
		columns[i] = b.build()
	}

	tbl, err := engine.NewTable(columns...)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to assemble table: %w", err)
	}
	return tbl, stats, nil
}

// ============================================================================
// COLUMN BUILDER
// ============================================================================

// columnBuilder accumulates one column. It starts numeric and falls back to
// text the first time a non-null value is not a number.
type columnBuilder struct {
	key     string
	numeric bool

	strs  []string
	nums  []float64
	valid []bool
}

func newColumnBuilder(key string, text bool) *columnBuilder {
	return &columnBuilder{key: key, numeric: !text}
}

func (b *columnBuilder) add(val string) {
	if !b.numeric {
		b.strs = append(b.strs, strings.Clone(val))
		return
	}

	if numericNulls[val] {
		b.nums = append(b.nums, 0)
		b.valid = append(b.valid, false)
		return
	}
	if f, err := strconv.ParseFloat(val, 64); err == nil {
		b.nums = append(b.nums, f)
		b.valid = append(b.valid, true)
		return
	}

	b.promote()
	b.strs = append(b.strs, strings.Clone(val))
}

// promote turns the values read so far into text. Earlier numbers are
// rendered in their shortest form.
func (b *columnBuilder) promote() {
	b.strs = make([]string, len(b.nums), cap(b.nums)+1)
	for i, v := range b.nums {
		if b.valid[i] {
			b.strs[i] = engine.FormatNumber(v)
		}
	}
	b.numeric = false
	b.nums, b.valid = nil, nil
}

func (b *columnBuilder) build() *engine.Column {
	if b.numeric {
		return engine.NumberColumn(b.key, b.nums, b.valid)
	}
	if b.strs == nil {
		b.strs = []string{}
	}
	return engine.StringColumn(b.key, b.strs)
}

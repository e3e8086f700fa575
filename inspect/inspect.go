package inspect

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/spektr-org/covidscope/engine"
	"github.com/spektr-org/covidscope/schema"
)

// ============================================================================
// INSPECTOR — Console diagnostics for a loaded or cleaned table
// ============================================================================
// Read-only. Nothing downstream depends on what is printed.
//
// Loaded:  columns with detected kind, first N rows, null count per column
// Cleaned: first N rows, null count per column, per-entity distribution of
//          the daily measure
// ============================================================================

const (
	DefaultHeadRows = 5
	// MaxHeadRows is the most rows the head table prints.
	MaxHeadRows = 10
)

// Inspector prints table diagnostics to a writer.
type Inspector struct {
	w        io.Writer
	headRows int

	// For the post-clean distribution. Empty EntityKey disables it.
	EntityKey string
	Entities  []string
	Measure   string
}

// New creates an Inspector. headRows <= 0 uses DefaultHeadRows.
func New(w io.Writer, headRows int) *Inspector {
	if w == nil {
		w = os.Stdout
	}
	if headRows <= 0 {
		headRows = DefaultHeadRows
	}
	if headRows > MaxHeadRows {
		headRows = MaxHeadRows
	}
	return &Inspector{w: w, headRows: headRows, Measure: "new_cases"}
}

// Loaded describes the table as fetched.
func (in *Inspector) Loaded(t *engine.Table) {
	fmt.Fprintf(in.w, "\n=== Dataset: %s rows × %d columns ===\n", engine.FormatInt(t.Len()), len(t.Columns()))
	in.printColumns(t)
	in.printHead(t)
	in.printNulls(t)
}

// Cleaned describes the table after cleaning.
func (in *Inspector) Cleaned(t *engine.Table) {
	fmt.Fprintf(in.w, "\n=== Cleaned: %s rows ===\n", engine.FormatInt(t.Len()))
	in.printHead(t)
	in.printNulls(t)
	if in.EntityKey != "" {
		present := engine.UniqueValues(t, in.EntityKey)
		if len(present) == 0 {
			present = []string{"(none)"}
		}
		fmt.Fprintf(in.w, "\nEntities present: %s\n", strings.Join(present, ", "))
	}
	if in.EntityKey != "" && in.Measure != "" {
		in.printDistributions(t)
	}
}

// ============================================================================
// SECTIONS
// ============================================================================

func (in *Inspector) printColumns(t *engine.Table) {
	fmt.Fprintln(in.w, "\nColumns:")
	tw := tabwriter.NewWriter(in.w, 0, 0, 2, ' ', 0)
	for _, p := range schema.Profile(t) {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", p.Key, p.Kind, strings.Join(p.Samples, ", "))
	}
	tw.Flush()
}

func (in *Inspector) printHead(t *engine.Table) {
	fmt.Fprintf(in.w, "\nFirst %d rows:\n", in.headRows)
	rows := t.Head(in.headRows)
	if len(rows) == 0 {
		fmt.Fprintln(in.w, "  (no rows)")
		return
	}
	fmt.Fprintln(in.w, formatFrame(t.Columns(), rows))
}

func (in *Inspector) printNulls(t *engine.Table) {
	fmt.Fprintln(in.w, "\nMissing values per column:")
	tw := tabwriter.NewWriter(in.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, key := range t.Columns() {
		col, _ := t.Column(key)
		fmt.Fprintf(tw, "  %s\t%d\t\n", key, col.NullCount())
	}
	tw.Flush()
}

func (in *Inspector) printDistributions(t *engine.Table) {
	if _, ok := t.Column(in.Measure); !ok {
		return
	}
	fmt.Fprintf(in.w, "\nDistribution of %s per %s:\n", in.Measure, in.EntityKey)

	header := []string{in.EntityKey, "days", "mean", "p50", "p90", "p99", "max", "negative"}
	var rows [][]string
	for _, d := range Distributions(t, in.EntityKey, in.Entities, in.Measure) {
		rows = append(rows, d.Row())
	}
	if len(rows) == 0 {
		fmt.Fprintln(in.w, "  (no entities)")
		return
	}
	fmt.Fprintln(in.w, formatFrame(header, rows))
}

// formatFrame renders rows as a gota DataFrame. Every cell stays text so
// the printout matches the table's own formatting; empty cells print as NaN.
func formatFrame(header []string, rows [][]string) string {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	records = append(records, rows...)

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{""}),
	)
	if df.Err != nil {
		return "  (cannot format: " + df.Err.Error() + ")"
	}
	return df.String()
}

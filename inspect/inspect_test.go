package inspect

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/spektr-org/covidscope/engine"
)

func rawTable(t *testing.T) *engine.Table {
	t.Helper()
	tbl, err := engine.NewTable(
		engine.StringColumn("location", []string{"Kenya", "Kenya", "India", "Brazil", "Kenya", "India"}),
		engine.StringColumn("date", []string{"2020-03-13", "", "2021-03-01", "2020-03-01", "2020-03-14", "2021-03-02"}),
		engine.NumberColumn("new_cases", []float64{1, 0, 5, 9, -2, 7}, []bool{true, false, true, true, true, true}),
	)
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func assertContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Errorf("output missing %q:\n%s", want, out)
	}
}

func TestLoadedPrintsColumnsHeadAndNulls(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, 2).Loaded(rawTable(t))
	out := buf.String()

	assertContains(t, out, "6 rows × 3 columns")
	assertContains(t, out, "Columns:")
	assertContains(t, out, "numeric")
	assertContains(t, out, "date")
	assertContains(t, out, "First 2 rows:")
	assertContains(t, out, "2020-03-13")
	assertContains(t, out, "Missing values per column:")

	// date has one null, new_cases has one null
	nulls := out[strings.Index(out, "Missing values per column:"):]
	for _, line := range strings.Split(nulls, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && (fields[0] == "date" || fields[0] == "new_cases") && fields[1] != "1" {
			t.Errorf("null count line %q, want 1", line)
		}
	}
	if strings.Contains(out, "Distribution") {
		t.Error("distribution is printed after cleaning only")
	}
}

func TestCleanedPrintsDistribution(t *testing.T) {
	cleaned, err := engine.Clean(rawTable(t), engine.CleanOptions{
		EntityKey: "location",
		Entities:  []string{"Kenya", "India"},
		DateKey:   "date",
		ZeroFill:  []string{"new_cases"},
	})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	in := New(&buf, 0)
	in.EntityKey = "location"
	in.Entities = []string{"Kenya", "India"}
	in.Cleaned(cleaned)
	out := buf.String()

	assertContains(t, out, "Cleaned: 4 rows")
	assertContains(t, out, "First 5 rows:")
	assertContains(t, out, "Entities present: Kenya, India")
	assertContains(t, out, "Distribution of new_cases per location:")
	assertContains(t, out, "Kenya")
	assertContains(t, out, "India")
}

func TestCleanedEmptyTable(t *testing.T) {
	empty, err := engine.Clean(rawTable(t), engine.CleanOptions{
		EntityKey: "location",
		Entities:  []string{"United States"},
		DateKey:   "date",
	})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	in := New(&buf, 5)
	in.EntityKey = "location"
	in.Entities = []string{"United States"}
	in.Cleaned(empty)
	assertContains(t, buf.String(), "(no rows)")
	assertContains(t, buf.String(), "Entities present: (none)")
}

func TestHeadRowsClamped(t *testing.T) {
	if in := New(nil, 500); in.headRows != MaxHeadRows {
		t.Errorf("headRows = %d, want %d", in.headRows, MaxHeadRows)
	}
	if in := New(nil, -1); in.headRows != DefaultHeadRows {
		t.Errorf("headRows = %d, want %d", in.headRows, DefaultHeadRows)
	}
}

// ============================================================================
// DISTRIBUTION
// ============================================================================

func TestSummarize(t *testing.T) {
	values := []float64{0, 10, 20, 30, 40, -5, math.NaN(), math.Inf(1)}
	d := Summarize(values)

	if d.Count != 5 {
		t.Errorf("Count = %d, want 5", d.Count)
	}
	if d.Negatives != 1 {
		t.Errorf("Negatives = %d, want 1", d.Negatives)
	}
	if d.Mean != 20 {
		t.Errorf("Mean = %v, want 20", d.Mean)
	}
	if d.P50 != 20 {
		t.Errorf("P50 = %d, want 20", d.P50)
	}
	if d.Max != 40 {
		t.Errorf("Max = %d, want 40", d.Max)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	d := Summarize(nil)
	if d.Count != 0 || d.Max != 0 {
		t.Errorf("empty summary = %+v", d)
	}
	row := d.Row()
	if len(row) != 8 || row[1] != "0" {
		t.Errorf("empty row = %v", row)
	}
}

func TestDistributionsFollowEntityOrder(t *testing.T) {
	tbl := rawTable(t)
	ds := Distributions(tbl, "location", []string{"India", "Kenya", "Peru"}, "new_cases")
	if len(ds) != 3 {
		t.Fatalf("expected 3 distributions, got %d", len(ds))
	}
	if ds[0].Entity != "India" || ds[0].Count != 2 || ds[0].Max != 7 {
		t.Errorf("India = %+v", ds[0])
	}
	// Kenya: 1, null (skipped), -2 (negative)
	if ds[1].Count != 1 || ds[1].Negatives != 1 {
		t.Errorf("Kenya = %+v", ds[1])
	}
	if ds[2].Count != 0 {
		t.Errorf("Peru should be empty, got %+v", ds[2])
	}
}

package engine

import (
	"errors"
	"math"
	"testing"
)

func cleanedFixture(t *testing.T) *Table {
	t.Helper()
	return mustClean(t, observations(t,
		[4]interface{}{"Kenya", "2020-03-01", 0, 0},
		[4]interface{}{"Kenya", "2020-03-02", 4, 1},
		[4]interface{}{"Brazil", "2020-03-01", 10, 1},
		[4]interface{}{"United States", "2020-03-01", 20, 2},
		[4]interface{}{"United States", "2020-03-02", 40, nil},
	))
}

func TestDefaultFigures(t *testing.T) {
	figs := DefaultFigures()
	if len(figs) != 4 {
		t.Fatalf("expected 4 figures, got %d", len(figs))
	}
	measures := []string{figs[0].Measure, figs[1].Measure, figs[2].Measure, figs[3].Measure}
	assertStrings(t, measures, []string{"total_cases", "total_deaths", "new_cases", DeathRate})
	if figs[3].Ratio == nil || figs[3].Ratio.Numerator != "total_deaths" || figs[3].Ratio.Denominator != "total_cases" {
		t.Errorf("death rate figure should derive total_deaths / total_cases, got %+v", figs[3].Ratio)
	}
}

func TestBuildTimeSeriesOneSeriesPerEntity(t *testing.T) {
	cfg, err := BuildTimeSeries(cleanedFixture(t), DefaultFigures()[0], "location", allowList)
	if err != nil {
		t.Fatalf("BuildTimeSeries failed: %v", err)
	}

	if cfg.ChartType != "line" || !cfg.ShowLegend || !cfg.ShowGrid {
		t.Errorf("unexpected chart flags: %+v", cfg)
	}
	if cfg.XAxis != "Date" || cfg.YAxis != "Total Cases" {
		t.Errorf("axes = %q/%q", cfg.XAxis, cfg.YAxis)
	}

	names := make([]string, len(cfg.Series))
	for i, s := range cfg.Series {
		names[i] = s.Name
	}
	assertStrings(t, names, allowList)

	kenya := cfg.Series[0].Data
	if len(kenya) != 2 || kenya[0].Value != 0 || kenya[1].Value != 4 {
		t.Errorf("Kenya points = %+v", kenya)
	}
	if kenya[1].Label != "2020-03-02" || kenya[1].Time.Day() != 2 {
		t.Errorf("Kenya x = %q / %v", kenya[1].Label, kenya[1].Time)
	}
	if n := len(cfg.Series[2].Data); n != 0 {
		t.Errorf("India has no rows, expected empty series, got %d points", n)
	}
	if cfg.Series[0].Color == "" || cfg.Series[0].Color == cfg.Series[1].Color {
		t.Errorf("each series needs its own color: %q, %q", cfg.Series[0].Color, cfg.Series[1].Color)
	}
}

func TestBuildTimeSeriesDeathRateKeepsNonFinite(t *testing.T) {
	cfg, err := BuildTimeSeries(cleanedFixture(t), DefaultFigures()[3], "location", allowList)
	if err != nil {
		t.Fatalf("BuildTimeSeries failed: %v", err)
	}

	kenya := cfg.Series[0].Data
	if !math.IsNaN(kenya[0].Value) {
		t.Errorf("0/0 should reach the figure as NaN, got %v", kenya[0].Value)
	}
	if kenya[1].Value != 0.25 {
		t.Errorf("Kenya day 2 death rate = %v, want 0.25", kenya[1].Value)
	}
	us := cfg.Series[1].Data
	if us[1].Value != 0 {
		t.Errorf("zero-filled deaths should give death rate 0, got %v", us[1].Value)
	}
}

func TestBuildTimeSeriesRequiresParsedDates(t *testing.T) {
	raw := observations(t, [4]interface{}{"Kenya", "2020-03-01", 1, 0})
	if _, err := BuildTimeSeries(raw, DefaultFigures()[0], "location", allowList); err == nil {
		t.Error("expected error for a table without parsed dates")
	}
}

func TestBuildTimeSeriesMissingMeasure(t *testing.T) {
	spec := FigureSpec{Title: "Hospital Patients", Measure: "hosp_patients"}
	_, err := BuildTimeSeries(cleanedFixture(t), spec, "location", allowList)
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("expected ErrMissingColumn, got %v", err)
	}
}

func TestBuildTimeSeriesDefaultYAxisLabel(t *testing.T) {
	spec := FigureSpec{Title: "Deaths", Measure: "new_deaths"}
	cfg, err := BuildTimeSeries(cleanedFixture(t), spec, "location", allowList)
	if err != nil {
		t.Fatalf("BuildTimeSeries failed: %v", err)
	}
	if cfg.YAxis != "New Deaths" {
		t.Errorf("YAxis = %q, want New Deaths", cfg.YAxis)
	}
}

func TestGroupByEmptyTable(t *testing.T) {
	empty := mustClean(t, observations(t, [4]interface{}{"Brazil", "2020-03-01", 1, 1}))
	groups := GroupBy(empty, "location", []string{"Kenya", "Kenya", "India"})
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	for _, g := range groups {
		if g.View.Len() != 0 {
			t.Errorf("group %s should be empty", g.Key)
		}
	}
}

package engine

import "fmt"

// ============================================================================
// CHART BUILDER — Produces ChartConfig from a cleaned table + FigureSpec
// ============================================================================
// One series per allow-listed entity, in allow-list order, x = parsed date.
// Values are copied as-is: non-finite results of a derived ratio stay in the
// figure model and it is up to the renderer to decide what is drawable.
// ============================================================================

// DeathRate is the derived measure plotted by the fourth default figure.
const DeathRate = "death_rate"

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// DefaultFigures returns the four exploratory figures in display order.
func DefaultFigures() []FigureSpec {
	return []FigureSpec{
		{Title: "Total COVID-19 Cases Over Time", Measure: "total_cases", YAxis: "Total Cases"},
		{Title: "Total COVID-19 Deaths Over Time", Measure: "total_deaths", YAxis: "Total Deaths"},
		{Title: "Daily New COVID-19 Cases", Measure: "new_cases", YAxis: "New Cases"},
		{
			Title:   "COVID-19 Death Rate (Total Deaths / Total Cases)",
			Measure: DeathRate,
			YAxis:   "Death Rate",
			Ratio:   &RatioSpec{Numerator: "total_deaths", Denominator: "total_cases"},
		},
	}
}

// BuildTimeSeries produces a line ChartConfig for one figure.
// The table must have been through ParseDates. When spec.Ratio is set the
// measure is derived first.
func BuildTimeSeries(t *Table, spec FigureSpec, entityKey string, entities []string) (*ChartConfig, error) {
	if t.DateKey() == "" {
		return nil, fmt.Errorf("build %q: table has no parsed date column", spec.Title)
	}

	if spec.Ratio != nil {
		var err error
		t, err = DeriveRatio(t, spec.Measure, spec.Ratio.Numerator, spec.Ratio.Denominator)
		if err != nil {
			return nil, fmt.Errorf("build %q: %w", spec.Title, err)
		}
	}
	if _, ok := t.Column(spec.Measure); !ok {
		return nil, fmt.Errorf("build %q: %w: %q", spec.Title, ErrMissingColumn, spec.Measure)
	}

	yAxis := spec.YAxis
	if yAxis == "" {
		yAxis = LabelForMeasure(spec.Measure)
	}

	config := &ChartConfig{
		ChartType:  "line",
		Title:      spec.Title,
		XAxis:      "Date",
		YAxis:      yAxis,
		ShowLegend: true,
		ShowGrid:   true,
	}

	for i, g := range GroupBy(t, entityKey, entities) {
		config.Series = append(config.Series, ChartSeries{
			Name:  g.Key,
			Data:  buildPoints(g.View, spec.Measure),
			Color: defaultColors[i%len(defaultColors)],
		})
	}
	return config, nil
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

// buildPoints keeps rows in table order; a null measure is skipped.
func buildPoints(view RecordView, measure string) []ChartPoint {
	points := make([]ChartPoint, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		v, ok := view.Measure(i, measure)
		if !ok {
			continue
		}
		d, _ := view.Date(i)
		points = append(points, ChartPoint{
			Label: d.Format(ISODate),
			Time:  d,
			Value: v,
		})
	}
	return points
}

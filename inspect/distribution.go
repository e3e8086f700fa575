package inspect

import (
	"math"
	"strconv"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/spektr-org/covidscope/engine"
)

// Histogram bounds for daily counts. Three significant digits.
const (
	histMin     = 1
	histMax     = 10000000000
	histSigFigs = 3
)

// Distribution summarizes one entity's values of a daily measure.
// Negative values (retroactive corrections) are counted, not recorded.
type Distribution struct {
	Entity    string
	Count     int64
	Negatives int
	Mean      float64
	P50       int64
	P90       int64
	P99       int64
	Max       int64
}

// Distributions returns one Distribution per entity, in the given order.
func Distributions(t *engine.Table, entityKey string, entities []string, measure string) []Distribution {
	groups := engine.GroupBy(t, entityKey, entities)
	out := make([]Distribution, 0, len(groups))
	for _, g := range groups {
		d := Summarize(engine.MeasureValues(g.View, measure))
		d.Entity = g.Key
		out = append(out, d)
	}
	return out
}

// Summarize builds a Distribution from raw values. Non-finite values are
// ignored; the rest are rounded to whole units.
func Summarize(values []float64) Distribution {
	histogram := hdrhistogram.New(histMin, histMax, histSigFigs)
	var d Distribution

	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < 0 {
			d.Negatives++
			continue
		}
		if err := histogram.RecordValue(int64(math.Round(v))); err != nil {
			// above histMax: keep it in the maximum bucket
			histogram.RecordValue(histMax)
		}
	}

	d.Count = histogram.TotalCount()
	if d.Count == 0 {
		return d
	}
	d.Mean = histogram.Mean()
	d.P50 = histogram.ValueAtQuantile(50)
	d.P90 = histogram.ValueAtQuantile(90)
	d.P99 = histogram.ValueAtQuantile(99)
	d.Max = histogram.Max()
	return d
}

// Row renders the distribution as table cells.
func (d Distribution) Row() []string {
	if d.Count == 0 {
		return []string{d.Entity, "0", "", "", "", "", "", strconv.Itoa(d.Negatives)}
	}
	return []string{
		d.Entity,
		strconv.FormatInt(d.Count, 10),
		strconv.FormatFloat(d.Mean, 'f', 1, 64),
		engine.FormatInt(int(d.P50)),
		engine.FormatInt(int(d.P90)),
		engine.FormatInt(int(d.P99)),
		engine.FormatInt(int(d.Max)),
		strconv.Itoa(d.Negatives),
	}
}

package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/spektr-org/covidscope/engine"
)

// ============================================================================
// PNG RENDERER — engine.ChartConfig → go-chart line chart
// ============================================================================
// go-chart refuses NaN/Inf values, single-point series and zero-height
// ranges, so the figure is adapted before drawing:
//   - non-finite points are skipped (the figure model keeps them)
//   - a single-point series is padded with a second point one day later
//   - a flat y-range is widened around its value
//   - nothing drawable at all → blank canvas
// ============================================================================

const (
	DefaultWidth  = 1200
	DefaultHeight = 600
)

var gridStyle = chart.Style{
	StrokeColor: drawing.ColorFromHex("e5e7eb"),
	StrokeWidth: 1,
}

// PNG draws cfg and writes the PNG encoding to w.
func PNG(w io.Writer, cfg *engine.ChartConfig, width, height int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	series, ext := buildSeries(cfg)
	if len(series) == 0 {
		return png.Encode(w, blank(width, height))
	}

	ch := chart.Chart{
		Title:      cfg.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           cfg.XAxis,
			ValueFormatter: chart.TimeValueFormatterWithFormat(engine.ISODate),
		},
		YAxis: chart.YAxis{
			Name:           cfg.YAxis,
			ValueFormatter: yValueFormatter,
		},
		Series: series,
	}
	if ext.yMax <= ext.yMin {
		pad := math.Abs(ext.yMin) * 0.1
		if pad == 0 {
			pad = 1
		}
		ch.YAxis.Range = &chart.ContinuousRange{Min: ext.yMin - pad, Max: ext.yMax + pad}
	}
	if !ext.xMax.After(ext.xMin) {
		day := float64(24 * time.Hour)
		x := chart.TimeToFloat64(ext.xMin)
		ch.XAxis.Range = &chart.ContinuousRange{Min: x - day, Max: x + day}
	}
	if cfg.ShowGrid {
		ch.XAxis.GridMajorStyle = gridStyle
		ch.YAxis.GridMajorStyle = gridStyle
	}
	if cfg.ShowLegend {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return fmt.Errorf("render %q: %w", cfg.Title, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// extent is the bounding box of every drawable point.
type extent struct {
	xMin, xMax time.Time
	yMin, yMax float64
}

func (e *extent) add(t time.Time, v float64) {
	if e.xMin.IsZero() || t.Before(e.xMin) {
		e.xMin = t
	}
	if t.After(e.xMax) {
		e.xMax = t
	}
	e.yMin = math.Min(e.yMin, v)
	e.yMax = math.Max(e.yMax, v)
}

// buildSeries converts the drawable part of every series.
func buildSeries(cfg *engine.ChartConfig) ([]chart.Series, extent) {
	var out []chart.Series
	ext := extent{yMin: math.MaxFloat64, yMax: -math.MaxFloat64}

	for i, s := range cfg.Series {
		xs := make([]time.Time, 0, len(s.Data))
		ys := make([]float64, 0, len(s.Data))
		for _, p := range s.Data {
			if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
				continue
			}
			xs = append(xs, p.Time)
			ys = append(ys, p.Value)
			ext.add(p.Time, p.Value)
		}
		if len(xs) == 0 {
			continue
		}
		if len(xs) == 1 {
			// Pad to at least two X values for go-chart
			xs = append(xs, xs[0].Add(24*time.Hour))
			ys = append(ys, ys[0])
		}

		out = append(out, chart.TimeSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: seriesColor(cfg, i),
				StrokeWidth: 2,
			},
		})
	}
	return out, ext
}

func seriesColor(cfg *engine.ChartConfig, i int) drawing.Color {
	hex := cfg.Series[i].Color
	if hex == "" {
		return chart.GetDefaultColor(i)
	}
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// yValueFormatter prints large counts with thousands separators and small
// ratios with a few significant digits.
func yValueFormatter(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	if math.Abs(f) >= 1000 {
		return engine.FormatInt(int(math.Round(f)))
	}
	return strconv.FormatFloat(f, 'g', 4, 64)
}

// blank returns a plain white canvas.
func blank(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	return img
}

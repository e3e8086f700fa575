package render

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/spektr-org/covidscope/engine"
)

// ============================================================================
// DISPLAY — Where a finished figure goes
// ============================================================================
// Nothing is ever written to disk. Headless renders and discards; Viewer
// serves the figure locally until the user dismisses it.
// ============================================================================

// Display shows one figure. Show returns once the figure is done with.
type Display interface {
	Show(ctx context.Context, fig *engine.ChartConfig) error
}

// Headless renders each figure to PNG in memory and discards the image.
type Headless struct {
	Width  int
	Height int
	Logger *log.Logger
}

func NewHeadless(width, height int, logger *log.Logger) *Headless {
	if logger == nil {
		logger = log.Default()
	}
	return &Headless{Width: width, Height: height, Logger: logger}
}

func (h *Headless) Show(ctx context.Context, fig *engine.ChartConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := PNG(&buf, fig, h.Width, h.Height); err != nil {
		return err
	}
	h.Logger.Printf("🖼️  Rendered %q (%d series, %d bytes, not kept)", fig.Title, len(fig.Series), buf.Len())
	return nil
}

// ============================================================================
// VISUALIZE
// ============================================================================

// Visualize builds every figure from the cleaned table, in order, and hands
// each to the display. A figure's derived measure is computed right before
// that figure is built.
func Visualize(ctx context.Context, t *engine.Table, figs []engine.FigureSpec, entityKey string, entities []string, d Display) error {
	for i, spec := range figs {
		cfg, err := engine.BuildTimeSeries(t, spec, entityKey, entities)
		if err != nil {
			return fmt.Errorf("figure %d: %w", i+1, err)
		}
		if err := d.Show(ctx, cfg); err != nil {
			return fmt.Errorf("figure %d %q: %w", i+1, spec.Title, err)
		}
	}
	return nil
}

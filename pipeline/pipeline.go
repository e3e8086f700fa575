package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/spektr-org/covidscope/config"
	"github.com/spektr-org/covidscope/engine"
	"github.com/spektr-org/covidscope/render"
	"github.com/spektr-org/covidscope/source"
)

// ============================================================================
// PIPELINE — fetch → inspect → clean → inspect → visualize
// ============================================================================
// Strictly sequential. A fetch failure ends the run before anything is
// inspected or shown; the caller decides how to exit.
// ============================================================================

// Observer receives the table after loading and after cleaning. It must not
// modify it.
type Observer interface {
	Loaded(t *engine.Table)
	Cleaned(t *engine.Table)
}

type Pipeline struct {
	cfg      *config.Config
	fetcher  source.Fetcher
	display  render.Display
	figures  []engine.FigureSpec
	observer Observer
	logger   *log.Logger
}

type Option func(*Pipeline)

// WithObserver attaches diagnostics. Without one nothing is printed.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithFigures replaces the default four figures.
func WithFigures(figs []engine.FigureSpec) Option {
	return func(p *Pipeline) {
		p.figures = figs
	}
}

func New(cfg *config.Config, fetcher source.Fetcher, display render.Display, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		fetcher: fetcher,
		display: display,
		figures: engine.DefaultFigures(),
		logger:  log.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run executes every stage once. Fetch failures come back as
// *source.FetchError.
func (p *Pipeline) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := log.New(p.logger.Writer(), fmt.Sprintf("%s[run %s] ", p.logger.Prefix(), runID[:8]), p.logger.Flags())

	// 1. Fetch
	logger.Printf("🔄 Fetching %s", p.fetcher.Name())
	start := time.Now()
	tbl, stats, err := source.Load(ctx, p.fetcher, p.cfg.Dataset)
	if err != nil {
		logger.Printf("❌ Fetch failed: %v", err)
		return err
	}
	logger.Printf("✅ Loaded %s rows × %d columns in %s", engine.FormatInt(tbl.Len()), len(tbl.Columns()), time.Since(start).Round(time.Millisecond))
	if stats.Padded > 0 {
		logger.Printf("⚠️ Padded %d short rows with missing values", stats.Padded)
	}

	if p.observer != nil {
		p.observer.Loaded(tbl)
	}

	// 2. Clean
	cleaned, err := engine.Clean(tbl, p.cfg.CleanOptions())
	if err != nil {
		logger.Printf("❌ Clean failed: %v", err)
		return fmt.Errorf("clean: %w", err)
	}
	logger.Printf("🧹 Cleaned: %s of %s rows kept for %v", engine.FormatInt(cleaned.Len()), engine.FormatInt(tbl.Len()), p.cfg.Clean.Entities)
	if cleaned.Len() == 0 {
		logger.Printf("⚠️ No rows match the allow-list; figures will be empty")
	}

	if p.observer != nil {
		p.observer.Cleaned(cleaned)
	}

	// 3. Visualize
	err = render.Visualize(ctx, cleaned, p.figures, p.cfg.Dataset.EntityKey(), p.cfg.Clean.Entities, p.display)
	if err != nil {
		logger.Printf("❌ Visualize failed: %v", err)
		return fmt.Errorf("visualize: %w", err)
	}
	logger.Printf("📈 Displayed %d figures", len(p.figures))
	return nil
}

// Package covidscope fetches the Our World in Data COVID-19 dataset, filters
// it to a few countries, cleans missing values, and charts it.
//
// Usage:
//
//	cfg := config.Default()
//	fetcher, _ := source.New(cfg.Source.URL, 60*time.Second)
//	display := render.NewHeadless(cfg.Display.Width, cfg.Display.Height, nil)
//
//	err := pipeline.New(cfg, fetcher, display,
//	    pipeline.WithObserver(inspect.New(os.Stdout, 5)),
//	).Run(ctx)
//
// The stages are plain functions over an immutable engine.Table, so each can
// be used on its own: source.Load, engine.Clean, engine.BuildTimeSeries,
// render.PNG. Nothing is written to disk.
package covidscope

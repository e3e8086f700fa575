package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spektr-org/covidscope/config"
	"github.com/spektr-org/covidscope/inspect"
	"github.com/spektr-org/covidscope/pipeline"
	"github.com/spektr-org/covidscope/render"
	"github.com/spektr-org/covidscope/source"
)

// ============================================================================
// COVIDSCOPE CLI — Fetch, clean and chart the OWID COVID-19 dataset
// ============================================================================

const version = "0.1.0"

const connectivityHint = "Please ensure you have a stable internet connection or download the CSV manually."

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run is main without the process: it returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("covidscope", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// ── Flags ─────────────────────────────────────────────────────────────
	configPath := fs.String("config", "", "Path to YAML config (defaults are built in)")
	sourceURL := fs.String("source", "", "Dataset location: https://…, s3://bucket/key, file://path or a local path")
	countries := fs.String("countries", "", "Comma-separated allow-list, e.g. \"Kenya,United States,India\"")
	displayMode := fs.String("display", "", "Display mode: viewer or headless")
	addr := fs.String("addr", "", "Viewer listen address (default 127.0.0.1:8089)")
	headRows := fs.Int("head", -1, "Rows printed by the inspector (default 5)")
	quiet := fs.Bool("quiet", false, "Skip the dataset inspection printout")
	showVersion := fs.Bool("version", false, "Print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `covidscope — exploratory charts of the OWID COVID-19 dataset

Usage:
  covidscope
  covidscope --countries "Kenya,India" --display headless
  covidscope --source ./owid-covid-data.csv
  covidscope --config covidscope.yaml

Flags:
`)
		fs.PrintDefaults()
		fmt.Fprintf(stderr, `
Display modes:
  viewer    Serve each chart on a local page; press Next to continue (default)
  headless  Render each chart in memory and move on

Exit codes:
  0  success
  1  data could not be loaded, or any other failure
  2  invalid flags or configuration
`)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Fprintf(stdout, "covidscope %s\n", version)
		return 0
	}

	logger := log.New(stderr, "", log.LstdFlags)

	// ── Config ────────────────────────────────────────────────────────────
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: config: %v\n", err)
			return 2
		}
		cfg = loaded
		logger.Printf("📋 Loaded config %s", *configPath)
	}

	if *sourceURL != "" {
		cfg.Source.URL = *sourceURL
	}
	if *countries != "" {
		cfg.Clean.Entities = splitList(*countries)
	}
	if *displayMode != "" {
		cfg.Display.Mode = *displayMode
	}
	if *addr != "" {
		cfg.Display.Addr = *addr
	}
	if *headRows >= 0 {
		cfg.Inspect.HeadRows = *headRows
	}
	if *quiet {
		cfg.Inspect.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: invalid configuration:\n%v\n", err)
		return 2
	}

	// ── Source ────────────────────────────────────────────────────────────
	timeout, _ := cfg.FetchTimeout()
	fetcher, err := source.New(cfg.Source.URL, timeout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	// ── Display ───────────────────────────────────────────────────────────
	var display render.Display
	switch cfg.Display.Mode {
	case config.DisplayViewer:
		viewer := render.NewViewer(cfg.Display.Addr, cfg.Display.Width, cfg.Display.Height, logger)
		if err := viewer.Start(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer shutdown(viewer, logger)
		display = viewer
	default:
		display = render.NewHeadless(cfg.Display.Width, cfg.Display.Height, logger)
	}

	// ── Run ───────────────────────────────────────────────────────────────
	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.Inspect.Enabled {
		in := inspect.New(stdout, cfg.Inspect.HeadRows)
		in.EntityKey = cfg.Dataset.EntityKey()
		in.Entities = cfg.Clean.Entities
		opts = append(opts, pipeline.WithObserver(in))
	}

	err = pipeline.New(cfg, fetcher, display, opts...).Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, "Interrupted.")
			return 1
		}
		var fe *source.FetchError
		if errors.As(err, &fe) {
			fmt.Fprintf(stderr, "Error loading data: %v\n%s\n", fe, connectivityHint)
			return 1
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// shutdown stops the viewer, giving open requests a few seconds to finish.
func shutdown(v interface{ Close(context.Context) error }, logger *log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := v.Close(ctx); err != nil {
		logger.Printf("⚠️ Viewer shutdown: %v", err)
	}
}

// splitList parses "a, b ,c" into trimmed, non-empty names.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/covidscope/engine"
	"github.com/spektr-org/covidscope/inspect"
	"github.com/spektr-org/covidscope/render"
	"github.com/spektr-org/covidscope/schema"
)

// DefaultSourceURL is the public OWID COVID-19 dataset.
const DefaultSourceURL = "https://covid.ourworldindata.org/data/owid-covid-data.csv"

// Display modes.
const (
	DisplayHeadless = "headless"
	DisplayViewer   = "viewer"
)

type Config struct {
	Source  Source        `yaml:"source"`
	Dataset schema.Config `yaml:"dataset"`
	Clean   Clean         `yaml:"clean"`
	Inspect Inspect       `yaml:"inspect"`
	Display Display       `yaml:"display"`
}

type Source struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

type Clean struct {
	Entities []string `yaml:"entities"`
}

type Inspect struct {
	Enabled  bool `yaml:"enabled"`
	HeadRows int  `yaml:"head_rows"`
}

type Display struct {
	Mode   string `yaml:"mode"`
	Addr   string `yaml:"addr"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Source: Source{
			URL:     DefaultSourceURL,
			Timeout: "60s",
		},
		Dataset: schema.OWID(),
		Clean: Clean{
			Entities: []string{"Kenya", "United States", "India"},
		},
		Inspect: Inspect{
			Enabled:  true,
			HeadRows: inspect.DefaultHeadRows,
		},
		Display: Display{
			Mode:   DisplayViewer,
			Addr:   render.DefaultViewerAddr,
			Width:  render.DefaultWidth,
			Height: render.DefaultHeight,
		},
	}
}

// LoadConfig reads a YAML file over the defaults. Keys absent from the file
// keep their default value.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(file, config)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return config, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Source.URL == "" {
		errs = append(errs, errors.New("source.url is required"))
	}
	if _, err := c.FetchTimeout(); err != nil {
		errs = append(errs, err)
	}
	if len(c.Clean.Entities) == 0 {
		errs = append(errs, errors.New("clean.entities must name at least one entity"))
	}
	if c.Inspect.HeadRows < 1 || c.Inspect.HeadRows > inspect.MaxHeadRows {
		errs = append(errs, fmt.Errorf("inspect.head_rows must be between 1 and %d", inspect.MaxHeadRows))
	}
	switch c.Display.Mode {
	case DisplayHeadless, DisplayViewer:
	default:
		errs = append(errs, fmt.Errorf("display.mode %q: want %q or %q", c.Display.Mode, DisplayHeadless, DisplayViewer))
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		errs = append(errs, errors.New("display.width and display.height must be positive"))
	}
	if err := c.Dataset.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// FetchTimeout parses source.timeout. Empty means no timeout.
func (c *Config) FetchTimeout() (time.Duration, error) {
	if c.Source.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Source.Timeout)
	if err != nil {
		return 0, fmt.Errorf("source.timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("source.timeout: negative duration %s", d)
	}
	return d, nil
}

// CleanOptions derives the cleaner's options from the dataset description.
// Every declared measure is zero-filled.
func (c *Config) CleanOptions() engine.CleanOptions {
	return engine.CleanOptions{
		EntityKey:   c.Dataset.EntityKey(),
		Entities:    c.Clean.Entities,
		DateKey:     c.Dataset.DateKey(),
		DateLayouts: c.Dataset.DateLayouts(),
		ZeroFill:    c.Dataset.MeasureKeys(),
	}
}

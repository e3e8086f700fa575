package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/spektr-org/covidscope/engine"
	"github.com/spektr-org/covidscope/helpers"
	"github.com/spektr-org/covidscope/schema"
)

// ============================================================================
// FETCHER — Retrieves the dataset and parses it into an observation table
// ============================================================================
// One attempt, no retry, no fallback source. The location picks the
// implementation:
//   http:// https://  → HTTPFetcher
//   s3://bucket/key   → S3Fetcher
//   file://path, path → FileFetcher
// ============================================================================

// Fetcher opens the raw CSV stream of a dataset.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (io.ReadCloser, error)
}

// New returns the Fetcher for location. timeout bounds a single fetch;
// zero means no limit beyond ctx.
func New(location string, timeout time.Duration) (Fetcher, error) {
	location = strings.TrimSpace(location)
	switch {
	case location == "":
		return nil, errors.New("empty source location")

	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return NewHTTP(location, timeout), nil

	case strings.HasPrefix(location, "s3://"):
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("invalid S3 location %q: %w", location, err)
		}
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, fmt.Errorf("invalid S3 location %q: want s3://bucket/key", location)
		}
		return NewS3(u.Host, key, timeout), nil

	case strings.HasPrefix(location, "file://"):
		return NewFile(strings.TrimPrefix(location, "file://")), nil

	case strings.Contains(location, "://"):
		return nil, fmt.Errorf("unsupported source scheme in %q", location)

	default:
		return NewFile(location), nil
	}
}

// Load fetches the dataset and parses it with the schema.
// Every failure is returned as *FetchError.
func Load(ctx context.Context, f Fetcher, sch schema.Config) (*engine.Table, helpers.ParseStats, error) {
	body, err := f.Fetch(ctx)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, helpers.ParseStats{}, fe
		}
		return nil, helpers.ParseStats{}, NewFetchError(f.Name(), "fetch failed", err)
	}
	defer body.Close()

	tbl, stats, err := helpers.ParseCSV(body, sch)
	if err != nil {
		return nil, stats, NewFetchError(f.Name(), "unreadable CSV", err)
	}
	return tbl, stats, nil
}

// cancelOnClose ties a timeout context to the lifetime of a body.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

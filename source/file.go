package source

import (
	"context"
	"io"
	"os"
)

// FileFetcher reads a local copy of the dataset.
type FileFetcher struct {
	path string
}

func NewFile(path string) *FileFetcher {
	return &FileFetcher{path: path}
}

func (f *FileFetcher) Name() string { return f.path }

func (f *FileFetcher) Fetch(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewFetchError(f.path, "cancelled", err)
	}
	file, err := os.Open(f.path)
	if err != nil {
		return nil, NewFetchError(f.path, "cannot open file", err)
	}
	return file, nil
}

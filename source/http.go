package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPFetcher downloads the dataset with a single GET.
type HTTPFetcher struct {
	url    string
	client *http.Client
}

// NewHTTP creates an HTTPFetcher. The client timeout covers the whole
// download including the body.
func NewHTTP(url string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (h *HTTPFetcher) Name() string { return h.url }

// Fetch issues the GET. Any status other than 200 is a FetchError.
func (h *HTTPFetcher) Fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, NewFetchError(h.url, "invalid request", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, NewFetchError(h.url, "HTTP request failed", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		reason := fmt.Sprintf("server returned %d", resp.StatusCode)
		if msg := strings.TrimSpace(string(snippet)); msg != "" {
			reason += ": " + truncate(msg, 200)
		}
		return nil, NewFetchError(h.url, reason, nil)
	}

	return resp.Body, nil
}

package offline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Fetcher loads shell resources from the network.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (Entry, error)
}

// HTTPFetcher fetches paths relative to an origin URL.
type HTTPFetcher struct {
	origin     string
	httpClient *http.Client
}

// NewHTTPFetcher creates a fetcher for origin.
func NewHTTPFetcher(origin string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		origin:     strings.TrimRight(origin, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch issues a GET for path. Non-200 responses are returned as entries,
// not errors; only transport failures are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, path string) (Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.origin+path, nil)
	if err != nil {
		return Entry{}, err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	h := resp.Header.Clone()
	h.Del("Content-Length")
	return Entry{Status: resp.StatusCode, Header: h, Body: body}, nil
}

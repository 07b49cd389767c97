package gtfsrt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Client fetches GTFS-RT protobuf data from a URL or a local file.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new GTFS-RT client
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch returns the raw protobuf bytes at urlOrPath. Paths without an
// http(s) scheme are read from disk. An empty location yields nil.
func (c *Client) Fetch(ctx context.Context, urlOrPath string) ([]byte, error) {
	if urlOrPath == "" {
		return nil, nil
	}

	if !strings.HasPrefix(urlOrPath, "http://") && !strings.HasPrefix(urlOrPath, "https://") {
		return os.ReadFile(urlOrPath)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlOrPath, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", urlOrPath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, urlOrPath)
	}

	return io.ReadAll(resp.Body)
}

// FetchVehiclePositions fetches and decodes a VehiclePositions feed.
func (c *Client) FetchVehiclePositions(ctx context.Context, urlOrPath string) (*VehiclePositions, error) {
	data, err := c.Fetch(ctx, urlOrPath)
	if err != nil {
		return nil, fmt.Errorf("vehicle positions: %w", err)
	}
	return ParseVehiclePositions(data)
}

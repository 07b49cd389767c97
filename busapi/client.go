package busapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrBusNotFound is returned when the API has no bus with the number
	ErrBusNotFound = errors.New("bus not found")
	// ErrEmptyBusNumber is returned for a blank bus number
	ErrEmptyBusNumber = errors.New("bus number is empty")
)

const busesPath = "/api/student/buses"

// Client fetches bus records from the bus REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL. A zero timeout leaves requests
// bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListBuses fetches every bus.
func (c *Client) ListBuses(ctx context.Context) ([]Bus, error) {
	var buses []Bus
	if err := c.getJSON(ctx, c.baseURL+busesPath, &buses); err != nil {
		return nil, fmt.Errorf("list buses: %w", err)
	}
	return buses, nil
}

// GetBus fetches one bus with its route by bus number.
func (c *Client) GetBus(ctx context.Context, number string) (*Bus, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, ErrEmptyBusNumber
	}
	var bus Bus
	if err := c.getJSON(ctx, c.baseURL+busesPath+"/"+url.PathEscape(number), &bus); err != nil {
		return nil, fmt.Errorf("get bus %s: %w", number, err)
	}
	if bus.BusNumber == "" {
		bus.BusNumber = number
	}
	return &bus, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return ErrBusNotFound
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, u)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}
	return nil
}

package busapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/bus-tracker/tracking"
)

const busDetailJSON = `{
  "id": 7,
  "busNumber": "222",
  "driverName": "Ravi",
  "routeName": "Depot - Beach",
  "currentStatus": "RUNNING",
  "currentSpeed": 32.5,
  "lastUpdated": "2025-10-03T08:00:00",
  "currentLocation": {"x": 1.0, "y": 0.0},
  "routePoints": [
    {"latitude": 0, "longitude": 0, "name": "A", "address": "Depot Road"},
    {"latitude": 0, "longitude": 1, "name": "B"},
    {"latitude": 0, "longitude": 2, "name": "C"}
  ]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/student/buses", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":7,"busNumber":"222","currentStatus":"RUNNING","currentLocation":{"x":83.3,"y":17.7}},{"id":8,"busNumber":"101"}]`))
	})
	mux.HandleFunc("/api/student/buses/222", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(busDetailJSON))
	})
	mux.HandleFunc("/api/student/buses/500", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/api/student/buses/bad", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"busNumber":`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_GetBus(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL+"/", time.Second)

	bus, err := c.GetBus(context.Background(), " 222 ")
	require.NoError(t, err)
	assert.Equal(t, "222", bus.BusNumber)
	assert.Equal(t, "Depot - Beach", bus.RouteName)

	route := bus.Route()
	require.Len(t, route, 3)
	assert.Equal(t, "Depot Road", route[0].Address)
	assert.Equal(t, 1.0, route[1].Longitude)

	fix := bus.Fix()
	require.NotNil(t, fix)
	// x is the longitude, y the latitude.
	assert.Equal(t, 1.0, fix.Longitude)
	assert.Equal(t, 0.0, fix.Latitude)
	assert.Equal(t, 32.5, fix.SpeedKMH)
	assert.Equal(t, tracking.StatusRunning, fix.Status)
	assert.Equal(t, time.Date(2025, 10, 3, 8, 0, 0, 0, time.UTC), fix.RecordedAt)

	res := tracking.ComputeProgress(route, fix, tracking.ProgressResult{})
	assert.InDelta(t, 0.5, res.Ratio, 1e-12)
}

func TestClient_ListBuses(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, time.Second)

	buses, err := c.ListBuses(context.Background())
	require.NoError(t, err)
	require.Len(t, buses, 2)

	fix := buses[0].Fix()
	require.NotNil(t, fix)
	assert.Equal(t, 17.7, fix.Latitude)
	assert.Equal(t, 83.3, fix.Longitude)

	assert.Nil(t, buses[1].Fix(), "bus without a location has no fix")
	assert.Nil(t, buses[1].Route())
	assert.Equal(t, tracking.StatusNotRunning, buses[1].Status())
}

func TestClient_Errors(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, time.Second)
	ctx := context.Background()

	_, err := c.GetBus(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyBusNumber)

	_, err = c.GetBus(ctx, "999")
	assert.ErrorIs(t, err, ErrBusNotFound)

	_, err = c.GetBus(ctx, "500")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")

	_, err = c.GetBus(ctx, "bad")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrBusNotFound))
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListBuses(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

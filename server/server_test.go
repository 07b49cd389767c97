package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/bus-tracker/converter"
	"github.com/theoremus-urban-solutions/bus-tracker/internal/observability"
	"github.com/theoremus-urban-solutions/bus-tracker/monitor"
	"github.com/theoremus-urban-solutions/bus-tracker/tracking"
)

func equatorRoute() tracking.Route {
	return tracking.Route{
		{Coordinate: tracking.Coordinate{Latitude: 0, Longitude: 0}, Name: "Depot"},
		{Coordinate: tracking.Coordinate{Latitude: 0, Longitude: 1}, Name: "Market"},
		{Coordinate: tracking.Coordinate{Latitude: 0, Longitude: 2}, Name: "Beach"},
	}
}

type stubSource struct {
	mu    sync.Mutex
	buses map[string]monitor.Observation
	fail  error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) List(context.Context) ([]monitor.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []monitor.Observation{}
	for _, o := range s.buses {
		out = append(out, o)
	}
	return out, s.fail
}

func (s *stubSource) Fetch(_ context.Context, number string) (monitor.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return monitor.Observation{}, s.fail
	}
	o, ok := s.buses[number]
	if !ok {
		return monitor.Observation{}, fmt.Errorf("%w: %s", monitor.ErrBusNotFound, number)
	}
	return o, nil
}

func (s *stubSource) put(number string, fix *tracking.VehicleFix) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buses[number] = monitor.Observation{
		BusNumber:  number,
		RouteName:  "Campus",
		DriverName: "Ravi",
		Route:      equatorRoute(),
		Fix:        fix,
	}
}

func (s *stubSource) setFail(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

func fixAt(lon float64) *tracking.VehicleFix {
	return &tracking.VehicleFix{
		Coordinate: tracking.Coordinate{Latitude: 0, Longitude: lon},
		Status:     tracking.StatusRunning,
		RecordedAt: time.Date(2025, 10, 3, 8, 0, 0, 0, time.UTC),
	}
}

type testEnv struct {
	src     *stubSource
	tracker *tracking.Tracker
	poller  *monitor.Poller
	hub     *Hub
	srv     *httptest.Server
}

func newTestEnv(t *testing.T, shell http.Handler) *testEnv {
	t.Helper()
	metrics, err := observability.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	env := &testEnv{src: &stubSource{buses: map[string]monitor.Observation{}}}
	env.tracker = tracking.NewTracker()
	env.hub = NewHub(env.tracker.Snapshot, nil)
	env.poller = monitor.NewPoller(env.src, env.tracker, monitor.Config{
		Metrics:   metrics,
		Notifiers: []monitor.Notifier{env.hub},
	})

	ctx, cancel := context.WithCancel(context.Background())
	go env.hub.Run(ctx)
	t.Cleanup(cancel)

	s := New(Deps{
		Tracker:   env.tracker,
		Poller:    env.poller,
		Converter: converter.NewConverter("APSRTC", time.Minute),
		Hub:       env.hub,
		Shell:     shell,
		Metrics:   metrics,
		Source:    "stub",
	})
	env.srv = httptest.NewServer(s.Handler())
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, body := env.do(t, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var h healthResponse
	require.NoError(t, json.Unmarshal(body, &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "stub", h.Source)
	assert.Equal(t, 0, h.TrackedBuses)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	env := newTestEnv(t, nil)
	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/buses/404", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))
	var e errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.Equal(t, "req-42", e.RequestID)
}

func TestGetBus(t *testing.T) {
	env := newTestEnv(t, nil)
	env.src.put("222", fixAt(0.5))

	resp, body := env.do(t, http.MethodGet, "/api/buses/222")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "222", got["busNumber"])
	assert.Equal(t, "222.39", got["routeLengthKm"])
	assert.Equal(t, "166.79", got["remainingDistanceKm"])
	progress := got["progress"].(map[string]any)
	assert.InDelta(t, 0.25, progress["ratio"].(float64), 1e-3)
	assert.Equal(t, "55.60", progress["coveredDistanceKm"])
	next := got["nextStop"].(map[string]any)
	assert.Equal(t, "Market", next["name"])
	assert.Equal(t, "55.60 km", got["distanceToNextStop"])
	assert.Nil(t, got["stale"])

	assert.Equal(t, []string{"222"}, env.poller.Tracked())
}

func TestGetBus_NoLocation(t *testing.T) {
	env := newTestEnv(t, nil)
	env.src.put("300", nil)

	resp, body := env.do(t, http.MethodGet, "/api/buses/300")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), msgNoLocation)
	assert.Contains(t, string(body), `"ratio":0`)
}

func TestGetBus_Errors(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodGet, "/api/buses/%20")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Please enter a bus number")

	resp, body = env.do(t, http.MethodGet, "/api/buses/999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "Bus 999 not found")

	env.src.setFail(errors.New("connection refused"))
	resp, _ = env.do(t, http.MethodGet, "/api/buses/222")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestGetBus_StaleWhenFeedDown(t *testing.T) {
	env := newTestEnv(t, nil)
	env.src.put("222", fixAt(1))
	resp, _ := env.do(t, http.MethodGet, "/api/buses/222")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env.src.setFail(errors.New("timeout"))
	resp, body := env.do(t, http.MethodGet, "/api/buses/222")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"stale":true`)
	assert.Contains(t, string(body), `"ratio":0.5`)
}

func TestListProgressAndUntrack(t *testing.T) {
	env := newTestEnv(t, nil)
	env.src.put("222", fixAt(2))

	resp, _ := env.do(t, http.MethodGet, "/api/buses/222/progress")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	env.do(t, http.MethodGet, "/api/buses/222")

	resp, body := env.do(t, http.MethodGet, "/api/buses/222/progress")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ratio":1,"coveredDistanceKm":"222.39","segmentIndex":1}`, string(body))

	resp, body = env.do(t, http.MethodGet, "/api/buses")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "0.00", list[0]["remainingDistanceKm"])

	resp, _ = env.do(t, http.MethodDelete, "/api/buses/222")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = env.do(t, http.MethodDelete, "/api/buses/222")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 0, env.tracker.Len())
}

func TestVehicleMonitoring(t *testing.T) {
	env := newTestEnv(t, nil)
	env.src.put("222", fixAt(0.5))
	env.src.put("300", fixAt(1))
	env.do(t, http.MethodGet, "/api/buses/222")
	env.do(t, http.MethodGet, "/api/buses/300")

	resp, body := env.do(t, http.MethodGet, "/api/siri/vehicle-monitoring.json?VehicleRef=APSRTC:VehicleRef:300")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), `"VehicleRef":"APSRTC:VehicleRef:300"`)
	assert.NotContains(t, string(body), "VehicleRef:222")

	_, body = env.do(t, http.MethodGet, "/api/siri/vehicle-monitoring.json?maximumvehicles=1")
	assert.Equal(t, 1, strings.Count(string(body), `"RecordedAtTime"`))

	resp, body = env.do(t, http.MethodGet, "/api/siri/vehicle-monitoring.xml?lineref=campus")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/xml", resp.Header.Get("Content-Type"))
	assert.Equal(t, 2, strings.Count(string(body), "<VehicleActivity>"))

	resp, body = env.do(t, http.MethodGet, "/api/siri/vehicle-monitoring.json?VehicleMonitoringDetailLevel=calls")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Unsupported VehicleMonitoringDetailLevel")

	resp, _ = env.do(t, http.MethodGet, "/api/siri/vehicle-monitoring.xml?MaximumVehicles=-1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.src.put("222", fixAt(1))
	env.do(t, http.MethodGet, "/api/buses/222")

	resp, body := env.do(t, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "bus_tracker_")
}

func TestShellMountedAtRoot(t *testing.T) {
	shell := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("shell:" + r.URL.Path))
	})
	env := newTestEnv(t, shell)

	_, body := env.do(t, http.MethodGet, "/index.html")
	assert.Equal(t, "shell:/index.html", string(body))

	resp, _ := env.do(t, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m Message
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func TestWebSocketUpdates(t *testing.T) {
	env := newTestEnv(t, nil)
	env.src.put("222", fixAt(0.5))
	env.src.put("300", fixAt(1))
	env.do(t, http.MethodGet, "/api/buses/222")

	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws/buses?bus=300"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	snap := readMessage(t, conn)
	assert.Equal(t, MessageSnapshot, snap.Type)
	assert.Empty(t, snap.Data)
	assert.Equal(t, 1, env.hub.Clients())

	// Updates for other buses are filtered out.
	env.do(t, http.MethodGet, "/api/buses/222")
	env.do(t, http.MethodGet, "/api/buses/300")

	msg := readMessage(t, conn)
	assert.Equal(t, MessageProgress, msg.Type)
	data := msg.Data.(map[string]any)
	assert.Equal(t, "300", data["busNumber"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "subscribe", "bus": "222"}))
	snap = readMessage(t, conn)
	assert.Equal(t, MessageSnapshot, snap.Type)
	states := snap.Data.([]any)
	require.Len(t, states, 1)
	assert.Equal(t, "222", states[0].(map[string]any)["busNumber"])
}

func TestHub_UpdateDuringConnectIsDelivered(t *testing.T) {
	var hub *Hub
	var once sync.Once
	hub = NewHub(func() []tracking.BusState {
		// An update that lands while the snapshot is being taken.
		once.Do(func() {
			hub.Notify(context.Background(), tracking.BusState{BusNumber: "222"})
		})
		return nil
	}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, MessageSnapshot, readMessage(t, conn).Type)
	msg := readMessage(t, conn)
	assert.Equal(t, MessageProgress, msg.Type)
	assert.Equal(t, "222", msg.Data.(map[string]any)["busNumber"])
}

package tracking

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/bus-tracker/utils"
)

func pt(lat, lon float64, name string) RoutePoint {
	return RoutePoint{Coordinate: Coordinate{Latitude: lat, Longitude: lon}, Name: name}
}

func fixAt(lat, lon float64) *VehicleFix {
	return &VehicleFix{Coordinate: Coordinate{Latitude: lat, Longitude: lon}, Status: StatusRunning}
}

// equatorRoute is three stops one degree apart along the equator.
func equatorRoute() Route {
	return Route{pt(0, 0, "A"), pt(0, 1, "B"), pt(0, 2, "C")}
}

func TestEstimateProgress_AtMiddleStop(t *testing.T) {
	res, ok := EstimateProgress(equatorRoute(), Coordinate{Latitude: 0, Longitude: 1})
	require.True(t, ok)
	assert.InDelta(t, 0.5, res.Ratio, 1e-12)
	assert.Equal(t, 111.19, res.CoveredDistanceKM)
	assert.Equal(t, 0, res.SegmentIndex)
}

func TestEstimateProgress_AtFirstStop(t *testing.T) {
	routes := []Route{
		{pt(0, 0, "A"), pt(0, 1, "B")},
		equatorRoute(),
		{pt(17.6868, 83.2185, "Depot"), pt(17.7, 83.25, "Market"), pt(17.72, 83.3, "College"), pt(17.75, 83.31, "Beach")},
	}
	for _, r := range routes {
		res, ok := EstimateProgress(r, r[0].Coordinate)
		require.True(t, ok)
		assert.Equal(t, 0.0, res.Ratio)
		assert.Equal(t, 0.0, res.CoveredDistanceKM)
	}
}

func TestEstimateProgress_AtLastStop(t *testing.T) {
	routes := []Route{
		{pt(0, 0, "A"), pt(0, 1, "B")},
		equatorRoute(),
		{pt(17.6868, 83.2185, "Depot"), pt(17.7, 83.25, "Market"), pt(17.72, 83.3, "College"), pt(17.75, 83.31, "Beach")},
	}
	for _, r := range routes {
		res, ok := EstimateProgress(r, r[len(r)-1].Coordinate)
		require.True(t, ok)
		assert.Equal(t, 1.0, res.Ratio)
	}
}

func TestEstimateProgress_BeyondLastStop(t *testing.T) {
	r := Route{pt(0, 0, "A"), pt(0, 1, "B")}
	res, ok := EstimateProgress(r, Coordinate{Latitude: 0, Longitude: 1.5})
	require.True(t, ok)
	assert.Equal(t, 1.0, res.Ratio)
	assert.Equal(t, 1, res.SegmentIndex)
	assert.Nil(t, NextStop(r, res))
}

func TestEstimateProgress_Monotonic(t *testing.T) {
	r := equatorRoute()
	last := -1.0
	for lon := 0.0; lon <= 2.0; lon += 0.05 {
		res, ok := EstimateProgress(r, Coordinate{Latitude: 0, Longitude: lon})
		require.True(t, ok)
		assert.GreaterOrEqual(t, res.Ratio, last, "ratio decreased at lon %.2f", lon)
		assert.LessOrEqual(t, res.Ratio, 1.0)
		last = res.Ratio
	}
}

func TestEstimateProgress_BehindStart(t *testing.T) {
	r := equatorRoute()

	// Slightly behind the origin: counted as inside the first segment.
	res, ok := EstimateProgress(r, Coordinate{Latitude: 0, Longitude: -0.5})
	require.True(t, ok)
	assert.InDelta(t, 0.25, res.Ratio, 1e-9)
	assert.Equal(t, 0, res.SegmentIndex)

	// Far behind the origin every segment start is out of reach, so the
	// walk passes them all.
	res, ok = EstimateProgress(r, Coordinate{Latitude: 0, Longitude: -1.5})
	require.True(t, ok)
	assert.Equal(t, 1.0, res.Ratio)
}

func TestEstimateProgress_ZeroLengthRoute(t *testing.T) {
	r := Route{pt(1, 1, "A"), pt(1, 1, "A again")}
	for _, at := range []Coordinate{{Latitude: 1, Longitude: 1}, {Latitude: 2, Longitude: 2}} {
		res, ok := EstimateProgress(r, at)
		require.True(t, ok)
		assert.Equal(t, 0.0, res.Ratio)
		assert.Equal(t, 0.0, res.CoveredDistanceKM)
		assert.False(t, math.IsNaN(res.Ratio))
	}
}

func TestEstimateProgress_InsufficientInput(t *testing.T) {
	tests := []struct {
		name  string
		route Route
		at    Coordinate
	}{
		{name: "empty route", route: nil, at: Coordinate{}},
		{name: "single stop", route: Route{pt(0, 0, "A")}, at: Coordinate{}},
		{name: "nan fix", route: equatorRoute(), at: Coordinate{Latitude: math.NaN(), Longitude: 1}},
		{name: "inf fix", route: equatorRoute(), at: Coordinate{Latitude: 0, Longitude: math.Inf(1)}},
		{name: "nan stop", route: Route{pt(0, 0, "A"), pt(math.NaN(), 1, "B")}, at: Coordinate{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := EstimateProgress(tt.route, tt.at)
			assert.False(t, ok)
		})
	}
}

func TestComputeProgress_NoOpKeepsPrevious(t *testing.T) {
	previous := ProgressResult{Ratio: 0.42, CoveredDistanceKM: 3.14, SegmentIndex: 1}

	assert.Equal(t, previous, ComputeProgress(nil, fixAt(0, 1), previous))
	assert.Equal(t, previous, ComputeProgress(Route{pt(0, 0, "A")}, fixAt(0, 1), previous))
	assert.Equal(t, previous, ComputeProgress(equatorRoute(), nil, previous))
	assert.Equal(t, previous, ComputeProgress(equatorRoute(), fixAt(math.NaN(), 0), previous))
	assert.Equal(t, ProgressResult{}, ComputeProgress(nil, nil, ProgressResult{}))
}

func TestComputeProgress_Idempotent(t *testing.T) {
	r := equatorRoute()
	f := fixAt(0.01, 1.37)
	first := ComputeProgress(r, f, ProgressResult{})
	second := ComputeProgress(r, f, first)
	assert.Equal(t, first, second)
	assert.Equal(t, first, ComputeProgress(r, f, ProgressResult{Ratio: 0.9}))
}

func TestProgressResult_JSON(t *testing.T) {
	res, ok := EstimateProgress(equatorRoute(), Coordinate{Latitude: 0, Longitude: 1})
	require.True(t, ok)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ratio":0.5,"coveredDistanceKm":"111.19","segmentIndex":0}`, string(b))
}

func TestNextStopAndRemaining(t *testing.T) {
	r := equatorRoute()
	res, ok := EstimateProgress(r, Coordinate{Latitude: 0, Longitude: 0.4})
	require.True(t, ok)

	next := NextStop(r, res)
	require.NotNil(t, next)
	assert.Equal(t, "B", next.Name)
	assert.InDelta(t, r.LengthKM()*0.8, RemainingKM(r, res), 0.01)
}

func TestNextStop_NoEstimate(t *testing.T) {
	r := equatorRoute()
	assert.Nil(t, NextStop(r, ProgressResult{}))
	assert.Nil(t, NextStop(r, ComputeProgress(r, nil, ProgressResult{})))
	assert.Nil(t, NextStop(r, ComputeProgress(r, fixAt(math.NaN(), 1), ProgressResult{})))
	assert.Equal(t, utils.RoundKM(r.LengthKM()), RemainingKM(r, ProgressResult{}))

	b, err := json.Marshal(ProgressResult{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ratio":0,"coveredDistanceKm":"0.00","segmentIndex":-1}`, string(b))

	res, ok := EstimateProgress(r, Coordinate{Latitude: 0, Longitude: 0})
	require.True(t, ok)
	require.NotNil(t, NextStop(r, res))
	assert.Equal(t, "B", NextStop(r, res).Name)
}

func TestRemainingKM_AddsUpToRouteLength(t *testing.T) {
	r := equatorRoute()
	length := utils.FormatKM(r.LengthKM())
	for lon := 0.0; lon <= 2.0; lon += 0.013 {
		res, ok := EstimateProgress(r, Coordinate{Latitude: 0, Longitude: lon})
		require.True(t, ok)
		sum := res.CoveredDistanceKM + RemainingKM(r, res)
		assert.Equal(t, length, utils.FormatKM(sum), "lon=%v", lon)
	}
}

func TestRouteEnds(t *testing.T) {
	var empty Route
	assert.Nil(t, empty.Origin())
	assert.Nil(t, empty.Destination())

	r := equatorRoute()
	assert.Equal(t, "A", r.Origin().Name)
	assert.Equal(t, "C", r.Destination().Name)
	assert.InDelta(t, 222.39, r.LengthKM(), 0.01)
}

package tracking

import (
	"encoding/json"
	"math"
	"time"

	"github.com/theoremus-urban-solutions/bus-tracker/utils"
)

// Coordinate is a latitude/longitude pair in decimal degrees. Range is not
// validated; callers guarantee it.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinate) finite() bool {
	return !math.IsNaN(c.Latitude) && !math.IsNaN(c.Longitude) &&
		!math.IsInf(c.Latitude, 0) && !math.IsInf(c.Longitude, 0)
}

// DistanceKM returns the haversine distance to o.
func (c Coordinate) DistanceKM(o Coordinate) float64 {
	return utils.HaversineKM(c.Latitude, c.Longitude, o.Latitude, o.Longitude)
}

// RoutePoint is a stop on a route. Its identity is its index in the Route.
type RoutePoint struct {
	Coordinate
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// Route is the ordered sequence of stops from origin to destination.
type Route []RoutePoint

// LengthKM returns the polyline length of the route.
func (r Route) LengthKM() float64 {
	total := 0.0
	for i := 0; i < len(r)-1; i++ {
		total += r[i].DistanceKM(r[i+1].Coordinate)
	}
	return total
}

// Origin returns the first stop, or nil for an empty route.
func (r Route) Origin() *RoutePoint {
	if len(r) == 0 {
		return nil
	}
	return &r[0]
}

// Destination returns the last stop, or nil for an empty route.
func (r Route) Destination() *RoutePoint {
	if len(r) == 0 {
		return nil
	}
	return &r[len(r)-1]
}

// Vehicle status tags used by the bus API.
const (
	StatusRunning    = "RUNNING"
	StatusNotRunning = "NOT_RUNNING"
)

// VehicleFix is one observation of a vehicle.
type VehicleFix struct {
	Coordinate
	SpeedKMH   float64   `json:"speedKmh"`
	Status     string    `json:"status"`
	RecordedAt time.Time `json:"recordedAt,omitempty"`
}

// ProgressResult is the estimated progress along a route. CoveredDistanceKM
// is already rounded to two decimals. The zero value means no estimate has
// been made yet.
type ProgressResult struct {
	Ratio             float64
	CoveredDistanceKM float64
	// SegmentIndex is the index of the segment the walk stopped in, or
	// len(route)-1 when every segment was passed. Meaningless unless
	// Estimated is set.
	SegmentIndex int
	Estimated    bool
}

type progressJSON struct {
	Ratio             float64 `json:"ratio"`
	CoveredDistanceKM string  `json:"coveredDistanceKm"`
	SegmentIndex      int     `json:"segmentIndex"`
}

// MarshalJSON renders the covered distance as a two-decimal string and the
// segment index as -1 when there is no estimate.
func (p ProgressResult) MarshalJSON() ([]byte, error) {
	seg := p.SegmentIndex
	if !p.Estimated {
		seg = -1
	}
	return json.Marshal(progressJSON{
		Ratio:             p.Ratio,
		CoveredDistanceKM: utils.FormatKM(p.CoveredDistanceKM),
		SegmentIndex:      seg,
	})
}

// BusState is the last known state of one tracked bus.
type BusState struct {
	BusNumber  string         `json:"busNumber"`
	RouteName  string         `json:"routeName,omitempty"`
	DriverName string         `json:"driverName,omitempty"`
	Route      Route          `json:"routePoints"`
	Fix        *VehicleFix    `json:"currentLocation,omitempty"`
	Progress   ProgressResult `json:"progress"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

package busapi

import (
	"github.com/theoremus-urban-solutions/bus-tracker/tracking"
	"github.com/theoremus-urban-solutions/bus-tracker/utils"
)

// Location is the vehicle position as the bus API sends it: X is the
// longitude and Y the latitude.
type Location struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// RoutePoint is one stop of a bus route
type RoutePoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
	Address   string  `json:"address,omitempty"`
}

// Bus is a bus record from the list and detail endpoints. The list endpoint
// usually omits RoutePoints.
type Bus struct {
	ID              any          `json:"id,omitempty"`
	BusNumber       string       `json:"busNumber"`
	DriverName      string       `json:"driverName,omitempty"`
	RouteName       string       `json:"routeName,omitempty"`
	CurrentStatus   string       `json:"currentStatus,omitempty"`
	CurrentSpeed    *float64     `json:"currentSpeed,omitempty"`
	LastUpdated     string       `json:"lastUpdated,omitempty"`
	CurrentLocation *Location    `json:"currentLocation,omitempty"`
	RoutePoints     []RoutePoint `json:"routePoints,omitempty"`
}

// Route converts the stops into a tracking route, preserving order.
func (b Bus) Route() tracking.Route {
	if len(b.RoutePoints) == 0 {
		return nil
	}
	r := make(tracking.Route, 0, len(b.RoutePoints))
	for _, p := range b.RoutePoints {
		r = append(r, tracking.RoutePoint{
			Coordinate: tracking.Coordinate{Latitude: p.Latitude, Longitude: p.Longitude},
			Name:       p.Name,
			Address:    p.Address,
		})
	}
	return r
}

// Fix converts the current location into a vehicle fix, or nil when the
// location has not been reported yet.
func (b Bus) Fix() *tracking.VehicleFix {
	if b.CurrentLocation == nil || b.CurrentLocation.X == nil || b.CurrentLocation.Y == nil {
		return nil
	}
	fix := &tracking.VehicleFix{
		Coordinate: tracking.Coordinate{
			Latitude:  *b.CurrentLocation.Y,
			Longitude: *b.CurrentLocation.X,
		},
		Status:     b.Status(),
		RecordedAt: utils.ParseTimestamp(b.LastUpdated),
	}
	if b.CurrentSpeed != nil {
		fix.SpeedKMH = *b.CurrentSpeed
	}
	return fix
}

// Status returns the status tag, defaulting to NOT_RUNNING.
func (b Bus) Status() string {
	if b.CurrentStatus == "" {
		return tracking.StatusNotRunning
	}
	return b.CurrentStatus
}

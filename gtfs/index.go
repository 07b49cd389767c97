package gtfs

import (
	"sort"

	"github.com/theoremus-urban-solutions/bus-tracker/tracking"
)

// Stop is one row of stops.txt
type Stop struct {
	Name      string
	Desc      string
	Latitude  float64
	Longitude float64
}

// Index stores GTFS static data in memory for route lookups.
// Fields are exported so the index can be gob encoded.
type Index struct {
	RouteShortNames map[string]string   // route_id -> short_name
	TripToRoute     map[string]string   // trip_id -> route_id
	TripHeadsign    map[string]string   // trip_id -> headsign
	TripStopSeq     map[string][]string // trip_id -> ordered stop_ids
	Stops           map[string]Stop     // stop_id -> stop
}

// NewIndex creates a new empty index
func NewIndex() *Index {
	return &Index{
		RouteShortNames: map[string]string{},
		TripToRoute:     map[string]string{},
		TripHeadsign:    map[string]string{},
		TripStopSeq:     map[string][]string{},
		Stops:           map[string]Stop{},
	}
}

// RouteForTrip returns the ordered stops of a trip. Stops missing from
// stops.txt are skipped.
func (g *Index) RouteForTrip(tripID string) (tracking.Route, bool) {
	seq, ok := g.TripStopSeq[tripID]
	if !ok || len(seq) == 0 {
		return nil, false
	}
	route := make(tracking.Route, 0, len(seq))
	for _, id := range seq {
		s, ok := g.Stops[id]
		if !ok {
			continue
		}
		route = append(route, tracking.RoutePoint{
			Coordinate: tracking.Coordinate{Latitude: s.Latitude, Longitude: s.Longitude},
			Name:       s.Name,
			Address:    s.Desc,
		})
	}
	return route, len(route) > 0
}

// RouteForVehicle resolves a route for a realtime vehicle: by trip first,
// then by the lowest trip id serving routeID.
func (g *Index) RouteForVehicle(tripID, routeID string) (tracking.Route, bool) {
	if r, ok := g.RouteForTrip(tripID); ok {
		return r, true
	}
	if routeID == "" {
		return nil, false
	}
	trips := make([]string, 0)
	for trip, rid := range g.TripToRoute {
		if rid == routeID {
			trips = append(trips, trip)
		}
	}
	sort.Strings(trips)
	for _, trip := range trips {
		if r, ok := g.RouteForTrip(trip); ok {
			return r, true
		}
	}
	return nil, false
}

// RouteName returns a display name for a vehicle's route: the route short
// name, the trip headsign, or the raw route id.
func (g *Index) RouteName(tripID, routeID string) string {
	if routeID == "" {
		routeID = g.TripToRoute[tripID]
	}
	if n := g.RouteShortNames[routeID]; n != "" {
		return n
	}
	if h := g.TripHeadsign[tripID]; h != "" {
		return h
	}
	return routeID
}

// TripCount returns the number of trips with a stop sequence
func (g *Index) TripCount() int { return len(g.TripStopSeq) }

package gtfsrt

import "github.com/theoremus-urban-solutions/bus-tracker/tracking"

// Vehicle is a vehicle position extracted from a GTFS-RT feed
type Vehicle struct {
	Key     string
	TripID  string
	RouteID string
	Fix     tracking.VehicleFix
}

// Package gtfsrt reads vehicle positions from GTFS-Realtime protobuf feeds.
//
// It is the alternative location feed to the bus REST API: each
// VehiclePosition entity becomes a tracking.VehicleFix keyed by the vehicle
// label, carrying the trip and route it serves. Speeds are converted from
// m/s to km/h.
package gtfsrt

// Package gtfs builds ordered stop routes from a GTFS static feed.
//
// Only stops.txt, stop_times.txt, trips.txt and routes.txt are read. Each
// trip becomes a tracking.Route whose points are its stops in stop_sequence
// order, which is what the GTFS-Realtime source needs to estimate progress
// for a vehicle serving that trip.
//
// Parse once at startup and keep the Index in memory; SerializeIndex and
// DeserializeIndex let callers cache the parsed index on disk.
package gtfs

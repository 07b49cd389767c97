// Package monitor runs the refresh loop that keeps bus progress current.
//
// A Poller reads observations from a Source (the bus REST API or a
// GTFS-Realtime feed), runs them through a tracking.Tracker and hands every
// accepted state to its Notifiers.
package monitor

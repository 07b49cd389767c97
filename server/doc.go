// Package server is the HTTP surface of the bus tracker: a JSON API over
// the tracked buses, a SIRI VehicleMonitoring feed, a WebSocket stream of
// progress updates, Prometheus metrics and the offline web shell.
package server

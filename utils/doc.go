// Package utils provides shared helpers for the bus tracker.
//
// It contains:
//   - Great-circle distance (haversine) and distance formatting
//   - Time formatting and parsing utilities
package utils

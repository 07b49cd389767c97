// Package formatter wraps VehicleMonitoring deliveries in a SIRI envelope
// and serializes them.
//
// This package is organized into:
// - wrapper.go: ServiceDelivery wrapping and error payloads
// - json.go: output formats and JSON serialization
// - xml.go: XML serialization with proper escaping
//
// XML is written by hand so element order follows the SIRI schema.
package formatter

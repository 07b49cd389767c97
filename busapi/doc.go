// Package busapi is the client for the bus REST API.
//
// Two endpoints are used:
//   - GET /api/student/buses: every bus with its last known location
//   - GET /api/student/buses/{number}: one bus with its ordered route stops
//
// The API names the vehicle axes x (longitude) and y (latitude). That
// convention is kept on the wire types and converted once, in Bus.Fix, into
// tracking coordinates.
package busapi

// Package offline keeps a versioned copy of the web shell so it can be
// served when the origin is unreachable.
//
// The lifecycle has three steps. Install fetches the precache list into the
// current version, all or nothing. Activate evicts every other version.
// ServeHTTP answers from the cache first, falls back to the network, stores
// 200 responses, and serves the cached fallback page when the network fails.
package offline

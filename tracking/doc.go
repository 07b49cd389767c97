// Package tracking estimates bus progress along a route.
//
// This package handles:
// - The route and vehicle-fix data model
// - Estimating the covered distance and progress ratio along a stop polyline
// - Keeping the last computed state per bus between polls
//
// EstimateProgress and ComputeProgress are pure; Tracker is the state
// container that threads the previous result from one poll to the next.
package tracking

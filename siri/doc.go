// Package siri renders tracked buses as a SIRI VehicleMonitoring delivery.
//
// Only the VM module is modelled. Route progress, which SIRI has no element
// for, travels in each activity's Extensions.RouteProgress.
package siri

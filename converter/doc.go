// Package converter maps tracked bus states onto SIRI VehicleMonitoring.
//
// Each tracking.BusState becomes one VehicleActivity. References follow the
// {codespace}:Line:{route} and {codespace}:VehicleRef:{bus} convention, the
// MonitoredCall is the next stop ahead of the bus, and route progress is
// attached as an extension.
//
//	conv := converter.NewConverter("APSRTC", 10*time.Second)
//	vm := conv.BuildVehicleMonitoring(tracker.Snapshot(), converter.Filter{LineRef: "222"})
//	res := formatter.WrapVehicleMonitoringResponse(vm, conv.Codespace)
package converter

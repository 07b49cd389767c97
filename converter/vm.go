package converter

import (
	"math"

	"github.com/theoremus-urban-solutions/bus-tracker/siri"
	"github.com/theoremus-urban-solutions/bus-tracker/tracking"
	"github.com/theoremus-urban-solutions/bus-tracker/utils"
)

const atStopKM = 0.05

func (c *Converter) buildMVJ(s tracking.BusState) siri.MonitoredVehicleJourney {
	lineRef := s.RouteName
	if s.RouteName != "" {
		lineRef = c.Codespace + ":Line:" + s.RouteName
	}
	mvj := siri.MonitoredVehicleJourney{
		LineRef:                lineRef,
		VehicleMode:            "bus",
		PublishedLineName:      s.RouteName,
		Monitored:              s.Fix != nil,
		DataSource:             c.Codespace,
		VehicleRef:             c.Codespace + ":VehicleRef:" + s.BusNumber,
		ProgressRate:           progressRate(s.Fix),
		MonitoredCall:          c.buildMonitoredCall(s),
		IsCompleteStopSequence: false,
	}
	if o := s.Route.Origin(); o != nil {
		mvj.OriginName = o.Name
	}
	if d := s.Route.Destination(); d != nil {
		mvj.DestinationName = d.Name
	}
	if s.Fix != nil {
		mvj.VehicleLocation = &siri.VehicleLocation{Latitude: s.Fix.Latitude, Longitude: s.Fix.Longitude}
		mvj.VehicleStatus = s.Fix.Status
		v := int(math.Round(s.Fix.SpeedKMH))
		mvj.Velocity = &v
	}
	return mvj
}

// buildMonitoredCall describes the next stop ahead of the bus
func (c *Converter) buildMonitoredCall(s tracking.BusState) *siri.MonitoredCall {
	if s.Fix == nil {
		return nil
	}
	next := tracking.NextStop(s.Route, s.Progress)
	if next == nil {
		return nil
	}
	km := s.Fix.DistanceKM(next.Coordinate)
	return &siri.MonitoredCall{
		StopPointName: next.Name,
		Order:         s.Progress.SegmentIndex + 2,
		VehicleAtStop: km <= atStopKM,
		Extensions: &siri.Distances{
			PresentableDistance: utils.PresentableDistance(km),
			DistanceFromCall:    math.Round(km * utils.MetersPerKilometer),
		},
	}
}

func progressRate(fix *tracking.VehicleFix) string {
	switch {
	case fix == nil:
		return siri.ProgressUnknown
	case fix.Status == tracking.StatusNotRunning || fix.SpeedKMH <= 0:
		return siri.ProgressNone
	default:
		return siri.ProgressNormal
	}
}

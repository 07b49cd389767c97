package converter

import (
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/bus-tracker/siri"
	"github.com/theoremus-urban-solutions/bus-tracker/tracking"
	"github.com/theoremus-urban-solutions/bus-tracker/utils"
)

// Converter turns tracked bus states into SIRI VehicleMonitoring deliveries.
type Converter struct {
	Codespace string
	ValidFor  time.Duration
	now       func() time.Time
}

// NewConverter creates a converter. codespace prefixes every reference
// ({codespace}:Line:{route}); validFor is the poll interval.
func NewConverter(codespace string, validFor time.Duration) *Converter {
	if codespace == "" {
		codespace = "UNKNOWN"
	}
	return &Converter{Codespace: codespace, ValidFor: validFor, now: time.Now}
}

// Filter selects activities by vehicle or line. Matching is case
// insensitive; empty fields match everything. MaximumVehicles caps the
// number of activities when positive.
type Filter struct {
	VehicleRef      string
	LineRef         string
	MaximumVehicles int
}

func (f Filter) match(s tracking.BusState) bool {
	if v := strings.TrimSpace(f.VehicleRef); v != "" && !strings.EqualFold(v, s.BusNumber) {
		return false
	}
	if l := strings.TrimSpace(f.LineRef); l != "" && !strings.EqualFold(l, s.RouteName) {
		return false
	}
	return true
}

// BuildVehicleMonitoring builds one VM delivery from states.
func (c *Converter) BuildVehicleMonitoring(states []tracking.BusState, f Filter) siri.VehicleMonitoring {
	now := c.now()
	vm := siri.VehicleMonitoring{
		ResponseTimestamp: utils.Iso8601FromTime(now),
		ValidUntil:        utils.ValidUntilFrom(now, c.ValidFor),
		VehicleActivity:   []siri.VehicleActivityEntry{},
	}
	for _, s := range states {
		if !f.match(s) {
			continue
		}
		if f.MaximumVehicles > 0 && len(vm.VehicleActivity) >= f.MaximumVehicles {
			break
		}
		vm.VehicleActivity = append(vm.VehicleActivity, c.buildActivity(s))
	}
	return vm
}

func (c *Converter) buildActivity(s tracking.BusState) siri.VehicleActivityEntry {
	recorded := s.UpdatedAt
	if s.Fix != nil && !s.Fix.RecordedAt.IsZero() {
		recorded = s.Fix.RecordedAt
	}
	return siri.VehicleActivityEntry{
		RecordedAtTime:          utils.Iso8601FromTime(recorded),
		ValidUntilTime:          utils.ValidUntilFrom(recorded, c.ValidFor),
		MonitoredVehicleJourney: c.buildMVJ(s),
		Extensions: &siri.ActivityExtensions{RouteProgress: siri.RouteProgress{
			Ratio:               s.Progress.Ratio,
			CoveredDistanceKm:   utils.FormatKM(s.Progress.CoveredDistanceKM),
			RouteLengthKm:       utils.FormatKM(s.Route.LengthKM()),
			RemainingDistanceKm: utils.FormatKM(tracking.RemainingKM(s.Route, s.Progress)),
			DriverName:          s.DriverName,
		}},
	}
}

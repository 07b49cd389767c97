package gtfsrt

import (
	"fmt"
	"sort"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/theoremus-urban-solutions/bus-tracker/tracking"
)

// metersPerSecondToKMH converts GTFS-RT speeds (m/s) to km/h
const metersPerSecondToKMH = 3.6

// VehiclePositions indexes the vehicles of one GTFS-RT feed message by
// vehicle label (falling back to vehicle id, then entity id).
type VehiclePositions struct {
	headerTimestamp int64
	vehicles        map[string]Vehicle
}

// ParseVehiclePositions decodes a GTFS-RT FeedMessage and keeps the entities
// that carry a vehicle position. A nil or empty payload yields an empty set.
func ParseVehiclePositions(data []byte) (*VehiclePositions, error) {
	vp := &VehiclePositions{vehicles: map[string]Vehicle{}}
	if len(data) == 0 {
		return vp, nil
	}
	var fm gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(data, &fm); err != nil {
		return nil, fmt.Errorf("decode vehicle positions: %w", err)
	}
	vp.headerTimestamp = int64(fm.GetHeader().GetTimestamp())

	for _, e := range fm.GetEntity() {
		v := e.GetVehicle()
		if v == nil || v.GetPosition() == nil {
			continue
		}
		key := vehicleKey(e, v)
		if key == "" {
			continue
		}
		veh := Vehicle{
			Key:     key,
			TripID:  v.GetTrip().GetTripId(),
			RouteID: v.GetTrip().GetRouteId(),
			Fix:     fixFromPosition(v, vp.headerTimestamp),
		}
		if prev, ok := vp.vehicles[key]; ok && prev.Fix.RecordedAt.After(veh.Fix.RecordedAt) {
			continue
		}
		vp.vehicles[key] = veh
	}
	return vp, nil
}

func vehicleKey(e *gtfsrtpb.FeedEntity, v *gtfsrtpb.VehiclePosition) string {
	if l := v.GetVehicle().GetLabel(); l != "" {
		return l
	}
	if id := v.GetVehicle().GetId(); id != "" {
		return id
	}
	return e.GetId()
}

func fixFromPosition(v *gtfsrtpb.VehiclePosition, headerTS int64) tracking.VehicleFix {
	pos := v.GetPosition()
	fix := tracking.VehicleFix{
		Coordinate: tracking.Coordinate{
			Latitude:  float64(pos.GetLatitude()),
			Longitude: float64(pos.GetLongitude()),
		},
		SpeedKMH: float64(pos.GetSpeed()) * metersPerSecondToKMH,
		Status:   statusFor(v),
	}
	ts := int64(v.GetTimestamp())
	if ts == 0 {
		ts = headerTS
	}
	if ts > 0 {
		fix.RecordedAt = time.Unix(ts, 0).UTC()
	}
	return fix
}

// statusFor maps the stop status onto the tracker's status tags. GTFS-RT
// has no notion of a parked bus, so any reported position means RUNNING
// unless the vehicle is stopped at a stop.
func statusFor(v *gtfsrtpb.VehiclePosition) string {
	if v.CurrentStatus == nil {
		return tracking.StatusRunning
	}
	if v.GetCurrentStatus() == gtfsrtpb.VehiclePosition_STOPPED_AT {
		return v.GetCurrentStatus().String()
	}
	return tracking.StatusRunning
}

// HeaderTime returns the feed header timestamp, or the zero time when the
// feed carries none.
func (p *VehiclePositions) HeaderTime() time.Time {
	if p.headerTimestamp <= 0 {
		return time.Time{}
	}
	return time.Unix(p.headerTimestamp, 0).UTC()
}

// Get returns one vehicle by key.
func (p *VehiclePositions) Get(key string) (Vehicle, bool) {
	v, ok := p.vehicles[key]
	return v, ok
}

// Keys returns every vehicle key in sorted order.
func (p *VehiclePositions) Keys() []string {
	keys := make([]string, 0, len(p.vehicles))
	for k := range p.vehicles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of vehicles.
func (p *VehiclePositions) Len() int { return len(p.vehicles) }

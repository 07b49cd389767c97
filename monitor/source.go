package monitor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/theoremus-urban-solutions/bus-tracker/busapi"
	"github.com/theoremus-urban-solutions/bus-tracker/gtfs"
	"github.com/theoremus-urban-solutions/bus-tracker/gtfsrt"
	"github.com/theoremus-urban-solutions/bus-tracker/internal/logging"
	"github.com/theoremus-urban-solutions/bus-tracker/tracking"
)

// Sentinel errors shared by every source.
var (
	ErrBusNotFound    = busapi.ErrBusNotFound
	ErrEmptyBusNumber = busapi.ErrEmptyBusNumber
)

// Observation is one bus as reported by a feed.
type Observation struct {
	BusNumber  string
	RouteName  string
	DriverName string
	Route      tracking.Route
	Fix        *tracking.VehicleFix
}

// Source is a location feed the poller reads from.
type Source interface {
	Name() string
	List(ctx context.Context) ([]Observation, error)
	Fetch(ctx context.Context, busNumber string) (Observation, error)
}

// BusClient is the part of busapi.Client the REST source needs.
type BusClient interface {
	ListBuses(ctx context.Context) ([]busapi.Bus, error)
	GetBus(ctx context.Context, number string) (*busapi.Bus, error)
}

// RESTSource reads buses from the bus REST API.
type RESTSource struct {
	client BusClient
}

// NewRESTSource wraps a bus API client.
func NewRESTSource(client BusClient) *RESTSource {
	return &RESTSource{client: client}
}

func (s *RESTSource) Name() string { return "rest" }

func (s *RESTSource) List(ctx context.Context) ([]Observation, error) {
	buses, err := s.client.ListBuses(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Observation, 0, len(buses))
	for _, b := range buses {
		if b.BusNumber == "" {
			continue
		}
		out = append(out, observationFromBus(b))
	}
	return out, nil
}

func (s *RESTSource) Fetch(ctx context.Context, busNumber string) (Observation, error) {
	b, err := s.client.GetBus(ctx, busNumber)
	if err != nil {
		return Observation{}, err
	}
	obs := observationFromBus(*b)
	if obs.BusNumber == "" {
		obs.BusNumber = busNumber
	}
	return obs, nil
}

func observationFromBus(b busapi.Bus) Observation {
	return Observation{
		BusNumber:  b.BusNumber,
		RouteName:  b.RouteName,
		DriverName: b.DriverName,
		Route:      b.Route(),
		Fix:        b.Fix(),
	}
}

// VehicleFeed is the part of gtfsrt.Client the GTFS-RT source needs.
type VehicleFeed interface {
	FetchVehiclePositions(ctx context.Context, urlOrPath string) (*gtfsrt.VehiclePositions, error)
}

// StaleFeedAge is how old a feed header may be before it is reported.
const StaleFeedAge = 5 * time.Minute

// GTFSRTSource reads vehicle positions from a GTFS-Realtime feed and
// resolves their routes against a static GTFS index. Bus numbers are the
// vehicle labels of the feed.
type GTFSRTSource struct {
	feed  VehicleFeed
	url   string
	index *gtfs.Index
	log   logging.Logger
	now   func() time.Time
}

// NewGTFSRTSource creates a GTFS-RT source. index may be nil, in which case
// observations carry no route and report zero progress.
func NewGTFSRTSource(feed VehicleFeed, url string, index *gtfs.Index, log logging.Logger) *GTFSRTSource {
	if log == nil {
		log = logging.Noop()
	}
	return &GTFSRTSource{feed: feed, url: url, index: index, log: log, now: time.Now}
}

func (s *GTFSRTSource) positions(ctx context.Context) (*gtfsrt.VehiclePositions, error) {
	vp, err := s.feed.FetchVehiclePositions(ctx, s.url)
	if err != nil {
		return nil, err
	}
	header := vp.HeaderTime()
	if header.IsZero() {
		return vp, nil
	}
	age := s.now().Sub(header)
	if age > StaleFeedAge {
		s.log.Warn(ctx, "vehicle feed is stale",
			logging.String("feed_timestamp", header.Format(time.RFC3339)),
			logging.Any("feed_age_seconds", int64(age.Seconds())))
		return vp, nil
	}
	s.log.Debug(ctx, "vehicle positions fetched",
		logging.Int("vehicles", vp.Len()),
		logging.Any("feed_age_seconds", int64(age.Seconds())))
	return vp, nil
}

func (s *GTFSRTSource) Name() string { return "gtfsrt" }

func (s *GTFSRTSource) List(ctx context.Context) ([]Observation, error) {
	vp, err := s.positions(ctx)
	if err != nil {
		return nil, err
	}
	keys := vp.Keys()
	out := make([]Observation, 0, len(keys))
	for _, k := range keys {
		v, _ := vp.Get(k)
		out = append(out, s.observation(v))
	}
	return out, nil
}

func (s *GTFSRTSource) Fetch(ctx context.Context, busNumber string) (Observation, error) {
	if busNumber == "" {
		return Observation{}, ErrEmptyBusNumber
	}
	vp, err := s.positions(ctx)
	if err != nil {
		return Observation{}, err
	}
	v, ok := vp.Get(busNumber)
	if !ok {
		return Observation{}, fmt.Errorf("%w: %s", ErrBusNotFound, busNumber)
	}
	return s.observation(v), nil
}

func (s *GTFSRTSource) observation(v gtfsrt.Vehicle) Observation {
	fix := v.Fix
	obs := Observation{
		BusNumber: v.Key,
		RouteName: v.RouteID,
		Fix:       &fix,
	}
	if s.index != nil {
		obs.RouteName = s.index.RouteName(v.TripID, v.RouteID)
		if r, ok := s.index.RouteForVehicle(v.TripID, v.RouteID); ok {
			obs.Route = r
		}
	}
	return obs
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

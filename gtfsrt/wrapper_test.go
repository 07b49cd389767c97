package gtfsrt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/theoremus-urban-solutions/bus-tracker/tracking"
)

func vehicleEntity(id, label, tripID string, lat, lon, speed float32, ts uint64) *gtfsrtpb.FeedEntity {
	v := &gtfsrtpb.VehiclePosition{
		Trip:     &gtfsrtpb.TripDescriptor{TripId: proto.String(tripID), RouteId: proto.String("R1")},
		Position: &gtfsrtpb.Position{Latitude: proto.Float32(lat), Longitude: proto.Float32(lon), Speed: proto.Float32(speed)},
	}
	if label != "" {
		v.Vehicle = &gtfsrtpb.VehicleDescriptor{Label: proto.String(label), Id: proto.String("veh-" + label)}
	}
	if ts > 0 {
		v.Timestamp = proto.Uint64(ts)
	}
	return &gtfsrtpb.FeedEntity{Id: proto.String(id), Vehicle: v}
}

func feedBytes(t *testing.T, entities ...*gtfsrtpb.FeedEntity) []byte {
	t.Helper()
	fm := &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(1759478400),
		},
		Entity: entities,
	}
	b, err := proto.Marshal(fm)
	require.NoError(t, err)
	return b
}

func TestParseVehiclePositions(t *testing.T) {
	stopped := vehicleEntity("e2", "", "T2", 17.7, 83.3, 0, 0)
	stopped.Vehicle.CurrentStatus = gtfsrtpb.VehiclePosition_STOPPED_AT.Enum()

	data := feedBytes(t,
		vehicleEntity("e1", "222", "T1", 0, 1, 10, 1759478390),
		stopped,
		&gtfsrtpb.FeedEntity{Id: proto.String("alert-only"), IsDeleted: proto.Bool(false)},
	)

	vp, err := ParseVehiclePositions(data)
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1759478400, 0).UTC(), vp.HeaderTime())
	assert.Equal(t, []string{"222", "e2"}, vp.Keys())

	v, ok := vp.Get("222")
	require.True(t, ok)
	assert.Equal(t, "T1", v.TripID)
	assert.Equal(t, "R1", v.RouteID)
	assert.InDelta(t, 36.0, v.Fix.SpeedKMH, 1e-4)
	assert.Equal(t, tracking.StatusRunning, v.Fix.Status)
	assert.Equal(t, time.Unix(1759478390, 0).UTC(), v.Fix.RecordedAt)
	assert.InDelta(t, 1.0, v.Fix.Longitude, 1e-6)

	v, ok = vp.Get("e2")
	require.True(t, ok)
	assert.Equal(t, "STOPPED_AT", v.Fix.Status)
	// Falls back to the header timestamp.
	assert.Equal(t, time.Unix(1759478400, 0).UTC(), v.Fix.RecordedAt)
}

func TestParseVehiclePositions_KeepsNewestDuplicate(t *testing.T) {
	data := feedBytes(t,
		vehicleEntity("a", "222", "T1", 0, 1.5, 0, 200),
		vehicleEntity("b", "222", "T1", 0, 0.5, 0, 100),
	)
	vp, err := ParseVehiclePositions(data)
	require.NoError(t, err)
	require.Equal(t, 1, vp.Len())

	v, _ := vp.Get("222")
	assert.InDelta(t, 1.5, v.Fix.Longitude, 1e-6)
}

func TestParseVehiclePositions_EmptyAndInvalid(t *testing.T) {
	vp, err := ParseVehiclePositions(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, vp.Len())
	assert.True(t, vp.HeaderTime().IsZero())

	_, err = ParseVehiclePositions([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}

func TestClient_FetchVehiclePositions(t *testing.T) {
	data := feedBytes(t, vehicleEntity("e1", "222", "T1", 0, 1, 10, 0))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vp.pb" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	c := NewClient(time.Second)
	vp, err := c.FetchVehiclePositions(context.Background(), srv.URL+"/vp.pb")
	require.NoError(t, err)
	assert.Equal(t, 1, vp.Len())

	_, err = c.FetchVehiclePositions(context.Background(), srv.URL+"/missing.pb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")

	path := filepath.Join(t.TempDir(), "vp.pb")
	require.NoError(t, os.WriteFile(path, data, 0644))
	vp, err = c.FetchVehiclePositions(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, vp.Len())

	empty, err := c.Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

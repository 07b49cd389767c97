package publish

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theoremus-urban-solutions/bus-tracker/tracking"
	"github.com/theoremus-urban-solutions/bus-tracker/utils"
)

const routingPrefix = "bus.progress."

// ProgressEvent is the message body of a published update.
type ProgressEvent struct {
	EventID             string     `json:"eventId"`
	BusNumber           string     `json:"busNumber"`
	RouteName           string     `json:"routeName,omitempty"`
	Ratio               float64    `json:"ratio"`
	CoveredDistanceKm   string     `json:"coveredDistanceKm"`
	RouteLengthKm       string     `json:"routeLengthKm"`
	RemainingDistanceKm string     `json:"remainingDistanceKm"`
	NextStop            string     `json:"nextStop,omitempty"`
	Latitude            *float64   `json:"latitude,omitempty"`
	Longitude           *float64   `json:"longitude,omitempty"`
	RecordedAt          *time.Time `json:"recordedAt,omitempty"`
	PublishedAt         time.Time  `json:"publishedAt"`
}

// RoutingKey returns the topic routing key for a bus. Dots and whitespace
// in the number are replaced so the key keeps exactly three words.
func RoutingKey(busNumber string) string {
	n := strings.TrimSpace(busNumber)
	if n == "" {
		return routingPrefix + "unknown"
	}
	n = strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '\t', '*', '#':
			return '_'
		}
		return r
	}, n)
	return routingPrefix + n
}

// NewProgressEvent builds the event for a state.
func NewProgressEvent(s tracking.BusState, now time.Time) ProgressEvent {
	ev := ProgressEvent{
		EventID:             uuid.NewString(),
		BusNumber:           s.BusNumber,
		RouteName:           s.RouteName,
		Ratio:               s.Progress.Ratio,
		CoveredDistanceKm:   utils.FormatKM(s.Progress.CoveredDistanceKM),
		RouteLengthKm:       utils.FormatKM(s.Route.LengthKM()),
		RemainingDistanceKm: utils.FormatKM(tracking.RemainingKM(s.Route, s.Progress)),
		PublishedAt:         now.UTC(),
	}
	if next := tracking.NextStop(s.Route, s.Progress); next != nil {
		ev.NextStop = next.Name
	}
	if s.Fix != nil {
		lat, lon := s.Fix.Latitude, s.Fix.Longitude
		ev.Latitude, ev.Longitude = &lat, &lon
		if !s.Fix.RecordedAt.IsZero() {
			at := s.Fix.RecordedAt.UTC()
			ev.RecordedAt = &at
		}
	}
	return ev
}

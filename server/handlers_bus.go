package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/theoremus-urban-solutions/bus-tracker/internal/logging"
	"github.com/theoremus-urban-solutions/bus-tracker/monitor"
	"github.com/theoremus-urban-solutions/bus-tracker/tracking"
	"github.com/theoremus-urban-solutions/bus-tracker/utils"
)

const msgNoLocation = "location not updated yet"

type busResponse struct {
	tracking.BusState
	RouteLengthKm       string               `json:"routeLengthKm"`
	RemainingDistanceKm string               `json:"remainingDistanceKm"`
	NextStop            *tracking.RoutePoint `json:"nextStop,omitempty"`
	DistanceToNextStop  string               `json:"distanceToNextStop,omitempty"`
	Stale               bool                 `json:"stale,omitempty"`
	Message             string               `json:"message,omitempty"`
}

func newBusResponse(s tracking.BusState) busResponse {
	resp := busResponse{
		BusState:            s,
		RouteLengthKm:       utils.FormatKM(s.Route.LengthKM()),
		RemainingDistanceKm: utils.FormatKM(tracking.RemainingKM(s.Route, s.Progress)),
	}
	if s.Fix == nil {
		resp.Message = msgNoLocation
		return resp
	}
	if next := tracking.NextStop(s.Route, s.Progress); next != nil {
		resp.NextStop = next
		resp.DistanceToNextStop = utils.PresentableDistance(s.Fix.DistanceKM(next.Coordinate))
	}
	return resp
}

func (s *Server) handleListBuses(w http.ResponseWriter, r *http.Request) {
	states := s.deps.Tracker.Snapshot()
	out := make([]busResponse, 0, len(states))
	for _, st := range states {
		out = append(out, newBusResponse(st))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetBus fetches the bus now and starts tracking it. When the feed is
// down the last known state is returned marked stale.
func (s *Server) handleGetBus(w http.ResponseWriter, r *http.Request) {
	number := strings.TrimSpace(r.PathValue("number"))
	if number == "" {
		writeError(w, http.StatusBadRequest, "Please enter a bus number")
		return
	}
	state, err := s.deps.Poller.Track(r.Context(), number)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, newBusResponse(state))
	case errors.Is(err, monitor.ErrEmptyBusNumber):
		writeError(w, http.StatusBadRequest, "Please enter a bus number")
	case errors.Is(err, monitor.ErrBusNotFound):
		writeError(w, http.StatusNotFound, "Bus "+number+" not found")
	default:
		s.log.Warn(r.Context(), "bus lookup failed", logging.String("bus", number), logging.Err(err))
		if prev, ok := s.deps.Tracker.Get(number); ok {
			resp := newBusResponse(prev)
			resp.Stale = true
			writeJSON(w, http.StatusOK, resp)
			return
		}
		writeError(w, http.StatusBadGateway, "bus feed unavailable")
	}
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	number := strings.TrimSpace(r.PathValue("number"))
	state, ok := s.deps.Tracker.Get(number)
	if !ok {
		writeError(w, http.StatusNotFound, "Bus "+number+" is not tracked")
		return
	}
	writeJSON(w, http.StatusOK, state.Progress)
}

func (s *Server) handleUntrackBus(w http.ResponseWriter, r *http.Request) {
	number := strings.TrimSpace(r.PathValue("number"))
	if !s.deps.Poller.Untrack(number) {
		writeError(w, http.StatusNotFound, "Bus "+number+" is not tracked")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

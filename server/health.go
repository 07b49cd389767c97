package server

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status        string `json:"status"`
	Source        string `json:"source,omitempty"`
	TrackedBuses  int    `json:"trackedBuses"`
	Clients       int    `json:"websocketClients"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "ok",
		Source:        s.deps.Source,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}
	if s.deps.Tracker != nil {
		resp.TrackedBuses = s.deps.Tracker.Len()
	}
	if s.deps.Hub != nil {
		resp.Clients = s.deps.Hub.Clients()
	}
	writeJSON(w, http.StatusOK, resp)
}

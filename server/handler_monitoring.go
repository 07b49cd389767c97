package server

import (
	"net/http"

	"github.com/theoremus-urban-solutions/bus-tracker/formatter"
)

func (s *Server) handleVehicleMonitoringJSON(w http.ResponseWriter, r *http.Request) {
	s.writeVehicleMonitoring(w, r, formatter.FormatJSON)
}

func (s *Server) handleVehicleMonitoringXML(w http.ResponseWriter, r *http.Request) {
	s.writeVehicleMonitoring(w, r, formatter.FormatXML)
}

// writeVehicleMonitoring renders the tracked buses as a SIRI VM delivery.
// Query errors are always reported as JSON.
func (s *Server) writeVehicleMonitoring(w http.ResponseWriter, r *http.Request, f formatter.Format) {
	conv := s.deps.Converter
	filter, err := parseVehicleMonitoringQuery(r.URL.Query(), conv.Codespace)
	if err != nil {
		w.Header().Set("Content-Type", formatter.FormatJSON.ContentType())
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write(formatter.BuildErrorJSON(err.Error()))
		return
	}
	vm := conv.BuildVehicleMonitoring(s.deps.Tracker.Snapshot(), filter)
	res := formatter.WrapVehicleMonitoringResponse(vm, conv.Codespace)

	w.Header().Set("Content-Type", f.ContentType())
	_, _ = w.Write(formatter.NewResponseBuilder().Build(res, f))
}

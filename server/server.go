package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/theoremus-urban-solutions/bus-tracker/converter"
	"github.com/theoremus-urban-solutions/bus-tracker/internal/logging"
	"github.com/theoremus-urban-solutions/bus-tracker/internal/observability"
	"github.com/theoremus-urban-solutions/bus-tracker/tracking"
)

const shutdownTimeout = 10 * time.Second

// BusPoller is the part of monitor.Poller the handlers drive.
type BusPoller interface {
	Track(ctx context.Context, busNumber string) (tracking.BusState, error)
	Untrack(busNumber string) bool
	Tracked() []string
}

// Deps are the collaborators of the HTTP surface. Hub, Shell and Metrics
// are optional.
type Deps struct {
	Tracker   *tracking.Tracker
	Poller    BusPoller
	Converter *converter.Converter
	Hub       *Hub
	Shell     http.Handler
	Metrics   *observability.Collector
	Logger    logging.Logger
	Source    string
}

// Server exposes bus progress over HTTP.
type Server struct {
	deps    Deps
	log     logging.Logger
	started time.Time
}

// New creates a server.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logging.Noop()
	}
	if deps.Converter == nil {
		deps.Converter = converter.NewConverter("", 0)
	}
	return &Server{deps: deps, log: deps.Logger, started: time.Now()}
}

// Handler returns the routed handler wrapped in the request-id middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/buses", s.handleListBuses)
	mux.HandleFunc("GET /api/buses/{number}", s.handleGetBus)
	mux.HandleFunc("GET /api/buses/{number}/progress", s.handleGetProgress)
	mux.HandleFunc("DELETE /api/buses/{number}", s.handleUntrackBus)
	mux.HandleFunc("GET /api/siri/vehicle-monitoring.json", s.handleVehicleMonitoringJSON)
	mux.HandleFunc("GET /api/siri/vehicle-monitoring.xml", s.handleVehicleMonitoringXML)
	if s.deps.Hub != nil {
		mux.HandleFunc("GET /ws/buses", s.deps.Hub.ServeWS)
	}
	mux.Handle("GET /metrics", s.deps.Metrics.Handler())
	if s.deps.Shell != nil {
		mux.Handle("/", s.deps.Shell)
	}
	return withRequestID(s.log, mux)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "server listening", logging.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info(context.Background(), "shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info(context.Background(), "server shut down successfully")
	return nil
}

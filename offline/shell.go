package offline

import (
	"context"
	"fmt"
	"net/http"

	"github.com/theoremus-urban-solutions/bus-tracker/internal/logging"
	"github.com/theoremus-urban-solutions/bus-tracker/internal/observability"
)

// Shell request outcomes recorded in metrics.
const (
	ResultHit      = "hit"
	ResultStored   = "stored"
	ResultNetwork  = "network"
	ResultFallback = "fallback"
	ResultOffline  = "offline"
)

// Config configures a Shell.
type Config struct {
	Precache []string
	Fallback string
	Metrics  *observability.Collector
	Logger   logging.Logger
}

// Shell serves the web shell cache-first out of a Store and keeps it
// filled from a Fetcher.
type Shell struct {
	store    *Store
	fetcher  Fetcher
	precache []string
	fallback string
	metrics  *observability.Collector
	log      logging.Logger
}

// NewShell creates a shell over store and fetcher.
func NewShell(store *Store, fetcher Fetcher, cfg Config) *Shell {
	if cfg.Fallback == "" {
		cfg.Fallback = "/index.html"
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Noop()
	}
	return &Shell{
		store:    store,
		fetcher:  fetcher,
		precache: cfg.Precache,
		fallback: cfg.Fallback,
		metrics:  cfg.Metrics,
		log:      cfg.Logger.With(logging.String("cache", store.Current())),
	}
}

// Install fetches the precache list into the current version. Either every
// path is stored or none is.
func (s *Shell) Install(ctx context.Context) error {
	entries := make(map[string]Entry, len(s.precache))
	for _, p := range s.precache {
		e, err := s.fetcher.Fetch(ctx, p)
		if err != nil {
			return fmt.Errorf("install %s: %w", p, err)
		}
		if e.Status != http.StatusOK {
			return fmt.Errorf("install %s: HTTP %d", p, e.Status)
		}
		entries[p] = e
	}
	s.store.PutAll(s.store.Current(), entries)
	s.log.Info(ctx, "caching essential assets", logging.Int("count", len(entries)))
	return nil
}

// Activate evicts every version except the current one and returns the
// evicted names.
func (s *Shell) Activate(ctx context.Context) []string {
	var evicted []string
	for _, v := range s.store.Versions() {
		if v == s.store.Current() {
			continue
		}
		if s.store.Delete(v) {
			s.log.Info(ctx, "deleting old cache", logging.String("version", v))
			evicted = append(evicted, v)
		}
	}
	return evicted
}

func (s *Shell) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	key := r.URL.RequestURI()

	if e, ok := s.store.Match(key); ok {
		s.metrics.ObserveShell(ResultHit)
		writeEntry(w, r, e)
		return
	}

	e, err := s.fetcher.Fetch(ctx, key)
	if err != nil {
		s.log.Warn(ctx, "network fetch failed", logging.String("path", key), logging.Err(err))
		if fb, ok := s.store.Match(s.fallback); ok {
			s.metrics.ObserveShell(ResultFallback)
			writeEntry(w, r, fb)
			return
		}
		s.metrics.ObserveShell(ResultOffline)
		http.Error(w, "offline", http.StatusServiceUnavailable)
		return
	}
	if e.Status != http.StatusOK {
		s.metrics.ObserveShell(ResultNetwork)
		writeEntry(w, r, e)
		return
	}
	s.store.Put(s.store.Current(), key, e)
	s.metrics.ObserveShell(ResultStored)
	writeEntry(w, r, e)
}

func writeEntry(w http.ResponseWriter, r *http.Request, e Entry) {
	for k, vs := range e.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(e.Status)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(e.Body)
}

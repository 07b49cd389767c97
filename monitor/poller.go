package monitor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/theoremus-urban-solutions/bus-tracker/internal/logging"
	"github.com/theoremus-urban-solutions/bus-tracker/internal/observability"
	"github.com/theoremus-urban-solutions/bus-tracker/tracking"
)

// DefaultInterval is the refresh period when none is configured.
const DefaultInterval = 10 * time.Second

// Poll outcomes recorded in metrics.
const (
	OutcomeUpdated = "updated"
	OutcomeStale   = "stale"
	OutcomeError   = "error"
)

// Notifier receives every state the tracker accepts.
type Notifier interface {
	Notify(ctx context.Context, state tracking.BusState)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, state tracking.BusState)

func (f NotifierFunc) Notify(ctx context.Context, state tracking.BusState) { f(ctx, state) }

// Config configures a Poller.
type Config struct {
	Interval  time.Duration
	Buses     []string
	Metrics   *observability.Collector
	Logger    logging.Logger
	Notifiers []Notifier
}

// Poller refreshes the tracked buses from a Source on a fixed interval and
// feeds the results through the tracker. A failed fetch leaves the previous
// state in place.
type Poller struct {
	source    Source
	tracker   *tracking.Tracker
	interval  time.Duration
	metrics   *observability.Collector
	log       logging.Logger
	notifiers []Notifier

	mu         sync.Mutex
	configured map[string]struct{}
	adhoc      map[string]struct{}
}

// NewPoller creates a poller over source and tracker.
func NewPoller(source Source, tracker *tracking.Tracker, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Noop()
	}
	p := &Poller{
		source:     source,
		tracker:    tracker,
		interval:   cfg.Interval,
		metrics:    cfg.Metrics,
		log:        cfg.Logger.With(logging.String("source", source.Name())),
		notifiers:  cfg.Notifiers,
		configured: map[string]struct{}{},
		adhoc:      map[string]struct{}{},
	}
	for _, b := range cfg.Buses {
		if b = strings.TrimSpace(b); b != "" {
			p.configured[b] = struct{}{}
		}
	}
	return p
}

// Run polls immediately and then every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info(ctx, "poller started", logging.Any("interval", p.interval.String()), logging.Int("buses", len(p.Tracked())))
	p.PollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.log.Info(context.Background(), "poller stopped")
			return nil
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce refreshes every tracked bus one after another and returns how
// many were updated.
func (p *Poller) PollOnce(ctx context.Context) int {
	updated := 0
	for _, number := range p.Tracked() {
		if ctx.Err() != nil {
			break
		}
		obs, err := p.fetch(ctx, number)
		if err != nil {
			continue
		}
		if _, ok := p.apply(ctx, obs); ok {
			updated++
		}
	}
	return updated
}

// Track fetches one bus on demand and adds it to the tracked set. Unknown
// buses are not tracked.
func (p *Poller) Track(ctx context.Context, busNumber string) (tracking.BusState, error) {
	busNumber = strings.TrimSpace(busNumber)
	if busNumber == "" {
		return tracking.BusState{}, ErrEmptyBusNumber
	}
	obs, err := p.fetch(ctx, busNumber)
	if err != nil {
		return tracking.BusState{}, err
	}
	p.mu.Lock()
	p.adhoc[busNumber] = struct{}{}
	p.mu.Unlock()

	// The feed may report the bus under its canonical number.
	obs.BusNumber = busNumber
	state, _ := p.apply(ctx, obs)
	return state, nil
}

// Untrack stops refreshing a bus and drops its state.
func (p *Poller) Untrack(busNumber string) bool {
	p.mu.Lock()
	_, a := p.adhoc[busNumber]
	_, c := p.configured[busNumber]
	delete(p.adhoc, busNumber)
	delete(p.configured, busNumber)
	p.mu.Unlock()

	p.forget(busNumber)
	return a || c
}

// SetBuses replaces the configured bus list. Buses that leave the list and
// were not searched for on demand are forgotten.
func (p *Poller) SetBuses(buses []string) {
	next := map[string]struct{}{}
	for _, b := range buses {
		if b = strings.TrimSpace(b); b != "" {
			next[b] = struct{}{}
		}
	}

	p.mu.Lock()
	var dropped []string
	for b := range p.configured {
		if _, keep := next[b]; keep {
			continue
		}
		if _, searched := p.adhoc[b]; !searched {
			dropped = append(dropped, b)
		}
	}
	p.configured = next
	p.mu.Unlock()

	for _, b := range dropped {
		p.forget(b)
	}
}

// Tracked returns the tracked bus numbers in order.
func (p *Poller) Tracked() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	all := make(map[string]struct{}, len(p.configured)+len(p.adhoc))
	for b := range p.configured {
		all[b] = struct{}{}
	}
	for b := range p.adhoc {
		all[b] = struct{}{}
	}
	return sortedKeys(all)
}

// RefreshAll lists every bus the source knows about and runs each through
// the tracker without adding it to the tracked set.
func (p *Poller) RefreshAll(ctx context.Context) ([]tracking.BusState, error) {
	start := time.Now()
	list, err := p.source.List(ctx)
	p.metrics.ObserveFetch(p.source.Name(), time.Since(start), err)
	if err != nil {
		p.log.Warn(ctx, "bus list fetch failed", logging.Err(err))
		return nil, err
	}
	out := make([]tracking.BusState, 0, len(list))
	for _, obs := range list {
		state, _ := p.apply(ctx, obs)
		out = append(out, state)
	}
	return out, nil
}

func (p *Poller) fetch(ctx context.Context, busNumber string) (Observation, error) {
	start := time.Now()
	obs, err := p.source.Fetch(ctx, busNumber)
	p.metrics.ObserveFetch(p.source.Name(), time.Since(start), err)
	if err != nil {
		p.metrics.ObservePoll(p.source.Name(), OutcomeError)
		p.log.Warn(ctx, "bus fetch failed", logging.String("bus", busNumber), logging.Err(err))
		return Observation{}, err
	}
	return obs, nil
}

func (p *Poller) apply(ctx context.Context, obs Observation) (tracking.BusState, bool) {
	state, updated := p.tracker.Update(obs.BusNumber, obs.RouteName, obs.DriverName, obs.Route, obs.Fix)
	if !updated {
		p.metrics.ObservePoll(p.source.Name(), OutcomeStale)
		p.log.Debug(ctx, "stale fix ignored", logging.String("bus", obs.BusNumber))
		return state, false
	}
	p.metrics.ObservePoll(p.source.Name(), OutcomeUpdated)
	p.metrics.SetProgress(state.BusNumber, state.Progress.Ratio)
	p.metrics.SetTracked(p.tracker.Len())
	if obs.Fix == nil {
		p.log.Info(ctx, "location not updated yet", logging.String("bus", obs.BusNumber))
	}
	p.log.Debug(ctx, "bus progress",
		logging.String("bus", state.BusNumber),
		logging.Float("ratio", state.Progress.Ratio),
		logging.Float("covered_km", state.Progress.CoveredDistanceKM),
	)
	for _, n := range p.notifiers {
		n.Notify(ctx, state)
	}
	return state, true
}

func (p *Poller) forget(busNumber string) {
	p.tracker.Forget(busNumber)
	p.metrics.ForgetBus(busNumber)
	p.metrics.SetTracked(p.tracker.Len())
}

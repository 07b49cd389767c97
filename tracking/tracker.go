package tracking

import (
	"sort"
	"sync"
	"time"
)

// Tracker keeps the last computed state per bus. It is the caller-held
// container that ComputeProgress threads its previous result through.
type Tracker struct {
	mu    sync.RWMutex
	buses map[string]*BusState
	now   func() time.Time
}

// NewTracker returns an empty tracker
func NewTracker() *Tracker {
	return &Tracker{buses: map[string]*BusState{}, now: time.Now}
}

// Update recomputes progress for busNumber from a freshly polled route and
// fix. A fix recorded before the stored one is ignored and the stored state
// is returned with updated=false.
func (t *Tracker) Update(busNumber, routeName, driverName string, route Route, fix *VehicleFix) (BusState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.buses[busNumber]
	var previous ProgressResult
	if ok {
		if isStale(prev.Fix, fix) {
			return *prev, false
		}
		previous = prev.Progress
	}

	state := &BusState{
		BusNumber:  busNumber,
		RouteName:  routeName,
		DriverName: driverName,
		Route:      route,
		Fix:        fix,
		Progress:   ComputeProgress(route, fix, previous),
		UpdatedAt:  t.now(),
	}
	// Keep the last known position while the feed reports none.
	if fix == nil && ok {
		state.Fix = prev.Fix
	}
	t.buses[busNumber] = state
	return *state, true
}

func isStale(prev, next *VehicleFix) bool {
	if prev == nil || next == nil {
		return false
	}
	if prev.RecordedAt.IsZero() || next.RecordedAt.IsZero() {
		return false
	}
	return next.RecordedAt.Before(prev.RecordedAt)
}

// Get returns the state of one bus.
func (t *Tracker) Get(busNumber string) (BusState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.buses[busNumber]
	if !ok {
		return BusState{}, false
	}
	return *s, true
}

// Snapshot returns every tracked state ordered by bus number.
func (t *Tracker) Snapshot() []BusState {
	t.mu.RLock()
	out := make([]BusState, 0, len(t.buses))
	for _, s := range t.buses {
		out = append(out, *s)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].BusNumber < out[j].BusNumber })
	return out
}

// Forget drops a bus from the tracker.
func (t *Tracker) Forget(busNumber string) {
	t.mu.Lock()
	delete(t.buses, busNumber)
	t.mu.Unlock()
}

// Len returns the number of tracked buses
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.buses)
}

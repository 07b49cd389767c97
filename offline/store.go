package offline

import (
	"net/http"
	"sort"
	"sync"
)

// Entry is a cached response.
type Entry struct {
	Status int
	Header http.Header
	Body   []byte
}

// Store is a process-wide set of named caches, each mapping a request key
// to a response. Only one version is current; the others are leftovers of
// earlier deployments until Activate evicts them.
type Store struct {
	mu      sync.RWMutex
	current string
	caches  map[string]map[string]Entry
}

// NewStore returns a store whose current version is name.
func NewStore(name string) *Store {
	return &Store{current: name, caches: map[string]map[string]Entry{}}
}

// Current returns the current version name.
func (s *Store) Current() string { return s.current }

// Put stores an entry under version.
func (s *Store) Put(version, key string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[version]
	if !ok {
		c = map[string]Entry{}
		s.caches[version] = c
	}
	c[key] = e
}

// PutAll stores every entry under version in one step.
func (s *Store) PutAll(version string, entries map[string]Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[version]
	if !ok {
		c = make(map[string]Entry, len(entries))
		s.caches[version] = c
	}
	for k, e := range entries {
		c[k] = e
	}
}

// Match looks key up in the current version first, then in the others in
// name order.
func (s *Store) Match(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.caches[s.current][key]; ok {
		return e, true
	}
	for _, v := range s.versionsLocked() {
		if e, ok := s.caches[v][key]; ok {
			return e, true
		}
	}
	return Entry{}, false
}

// Versions returns every version name in order.
func (s *Store) Versions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versionsLocked()
}

func (s *Store) versionsLocked() []string {
	out := make([]string, 0, len(s.caches))
	for v := range s.caches {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Delete drops a version.
func (s *Store) Delete(version string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.caches[version]
	delete(s.caches, version)
	return ok
}

// Len returns the number of entries in version.
func (s *Store) Len(version string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.caches[version])
}

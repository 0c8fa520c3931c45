package mesh

import (
	"sort"
	"sync"
)

// ResultStore keeps the latest comparison result per pair, backing the HTTP
// endpoints. Safe for concurrent use.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]*ComparisonResult
}

// NewResultStore creates an empty result store.
func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]*ComparisonResult)}
}

// Put records the latest result for its pair.
func (s *ResultStore) Put(r *ComparisonResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.Pair] = r
}

// Get returns the latest result for a pair.
func (s *ResultStore) Get(pair string) (*ComparisonResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[pair]
	if !ok {
		return nil, false
	}
	cp := *r
	return &cp, true
}

// All returns the stored results ordered by pair name.
func (s *ResultStore) All() []*ComparisonResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ComparisonResult, 0, len(s.results))
	for _, r := range s.results {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pair < out[j].Pair })
	return out
}

// Len returns the number of stored results.
func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

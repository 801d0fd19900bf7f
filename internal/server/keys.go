package server

import "sync"

// APIKeySet is the set of accepted API keys. It may be replaced while the
// server is running.
type APIKeySet struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

// NewAPIKeySet creates a set from keys, skipping empty entries
func NewAPIKeySet(keys []string) *APIKeySet {
	s := &APIKeySet{}
	s.Replace(keys)
	return s
}

// Contains reports whether key is accepted
func (s *APIKeySet) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[key]
	return ok
}

// Len returns the number of accepted keys. Zero disables authentication.
func (s *APIKeySet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Replace swaps the accepted keys atomically
func (s *APIKeySet) Replace(keys []string) {
	next := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key != "" {
			next[key] = struct{}{}
		}
	}

	s.mu.Lock()
	s.keys = next
	s.mu.Unlock()
}

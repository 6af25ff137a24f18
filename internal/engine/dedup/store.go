package dedup

import (
	"sync"

	"github.com/rendis/storetap/internal/model"
)

// Store remembers identity keys already emitted. Safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewStore() *Store {
	return &Store{seen: make(map[string]struct{})}
}

// Accept stamps r.Key and reports whether the record is new. The first
// record with a key wins; later ones are rejected.
func (s *Store) Accept(r *model.Record) (bool, error) {
	key, err := IdentityKey(*r)
	if err != nil {
		return false, err
	}
	r.Key = key

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = struct{}{}
	return true, nil
}

// Seen reports whether key has been accepted.
func (s *Store) Seen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[key]
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

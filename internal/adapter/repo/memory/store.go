package memory

import (
	"sync"

	"pickit/internal/app/ports"
)

type Store struct {
	mu       sync.RWMutex
	attempts []ports.AttemptRecord
	limit    int
}

// NewStore keeps at most limit attempt records, oldest dropped first. A
// non-positive limit keeps everything.
func NewStore(limit int) *Store {
	return &Store{limit: limit}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attempts)
}

package memory

import (
	"context"

	"pickit/internal/app/ports"
)

type AttemptRepo struct {
	store *Store
}

var _ ports.AttemptJournal = AttemptRepo{}

func NewAttemptRepo(store *Store) AttemptRepo {
	return AttemptRepo{store: store}
}

func (r AttemptRepo) Append(_ context.Context, record ports.AttemptRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.attempts = append(r.store.attempts, record)
	if r.store.limit > 0 && len(r.store.attempts) > r.store.limit {
		over := len(r.store.attempts) - r.store.limit
		r.store.attempts = append([]ports.AttemptRecord(nil), r.store.attempts[over:]...)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (r AttemptRepo) Recent(_ context.Context, limit int) ([]ports.AttemptRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	n := len(r.store.attempts)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]ports.AttemptRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, r.store.attempts[i])
	}
	return out, nil
}

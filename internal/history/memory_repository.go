package history

import (
	"context"
	"sync"
)

// InMemoryRepository keeps the most recent entries in memory. It is the
// default when no database is configured.
type InMemoryRepository struct {
	mu       sync.RWMutex
	entries  []*Entry
	capacity int
}

// Ensure InMemoryRepository implements Repository.
var _ Repository = (*InMemoryRepository)(nil)

// NewInMemoryRepository creates a repository holding at most capacity entries.
func NewInMemoryRepository(capacity int) *InMemoryRepository {
	if capacity <= 0 {
		capacity = 500
	}
	return &InMemoryRepository{capacity: capacity}
}

// Record stores an entry, dropping the oldest when full.
func (r *InMemoryRepository) Record(_ context.Context, e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *e
	r.entries = append(r.entries, &cpy)
	if len(r.entries) > r.capacity {
		r.entries = r.entries[len(r.entries)-r.capacity:]
	}
	return nil
}

// List returns the most recent entries, newest first.
func (r *InMemoryRepository) List(_ context.Context, limit int) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultListLimit
	}

	out := make([]*Entry, 0, min(limit, len(r.entries)))
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		cpy := *r.entries[i]
		out = append(out, &cpy)
	}
	return out, nil
}

// Purge deletes every entry.
func (r *InMemoryRepository) Purge(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.entries))
	r.entries = nil
	return n, nil
}

package history

import "context"

// DefaultListLimit is used when List is called with a non-positive limit.
const DefaultListLimit = 50

// Repository defines the interface for history persistence.
type Repository interface {
	// Record stores an entry.
	Record(ctx context.Context, e *Entry) error

	// List returns the most recent entries, newest first.
	List(ctx context.Context, limit int) ([]*Entry, error)

	// Purge deletes every entry and returns how many were removed.
	Purge(ctx context.Context) (int64, error)
}

package history

import "context"

// Repository is the append-only transaction history store.
type Repository interface {
	// Append stores an entry. When the entry carries an idempotency key,
	// appending a second entry with the same key replaces the first instead
	// of duplicating it, so retried transfers yield exactly one record per
	// direction.
	Append(ctx context.Context, entry *Entry) error
	ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*Entry, error)
}

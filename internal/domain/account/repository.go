package account

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository defines the persistence contract for accounts.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByAccountNum(ctx context.Context, accountNum string) (*Account, error)
	ListByType(ctx context.Context, accountType Type) ([]*Account, error)
	Update(ctx context.Context, acc *Account) error
	// LockForUpdate obtains a row lock on the account and returns its
	// current state. Must be used within a transaction.
	LockForUpdate(ctx context.Context, id string) (*Account, error)
	// WithTx returns a repository bound to the given transaction.
	WithTx(tx pgx.Tx) Repository
}

// ParticipantRepository exposes joint-account membership. Listing is ordered
// by creation time ascending.
type ParticipantRepository interface {
	ListByAccountID(ctx context.Context, accountID string) ([]*Participant, error)
}

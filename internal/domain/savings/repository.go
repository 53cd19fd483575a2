package savings

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrSavingsNotFound is returned when no enrollment exists for an account
// (or account/user pair for joint accounts).
type ErrSavingsNotFound struct {
	AccountID string
	UserID    string
}

func (e ErrSavingsNotFound) Error() string {
	if e.UserID != "" {
		return fmt.Sprintf("user savings not found for account %s, user %s", e.AccountID, e.UserID)
	}
	return fmt.Sprintf("user savings not found for account %s", e.AccountID)
}

// UserSavingsRepository resolves funding configuration for savings accounts.
type UserSavingsRepository interface {
	// GetByAccountID resolves the enrollment for a single-owner account.
	GetByAccountID(ctx context.Context, accountID string) (*UserSavings, error)
	// GetByAccountAndUser resolves one participant's enrollment in a joint
	// account; schedules are per-user even though the balance is pooled.
	GetByAccountAndUser(ctx context.Context, accountID, userID string) (*UserSavings, error)
}

// ScheduleRepository queries and updates payment schedules. Due listings
// union PENDING schedules due on or before the target date with OVERDUE
// schedules due strictly before it, enabling catch-up processing.
type ScheduleRepository interface {
	ListDue(ctx context.Context, accountID string, targetDate time.Time) ([]*PaymentSchedule, error)
	ListDueForUser(ctx context.Context, accountID, userID string, targetDate time.Time) ([]*PaymentSchedule, error)
	// UpdateStatus persists the schedule's status and paid-at fields.
	UpdateStatus(ctx context.Context, schedule *PaymentSchedule) error
	// WithTx returns a repository bound to the given transaction.
	WithTx(tx pgx.Tx) ScheduleRepository
}

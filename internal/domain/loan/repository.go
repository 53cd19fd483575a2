package loan

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrContractNotFound is returned when a loan contract cannot be resolved.
type ErrContractNotFound struct {
	LoanID string
}

func (e ErrContractNotFound) Error() string {
	return fmt.Sprintf("loan contract not found: %s", e.LoanID)
}

// ContractRepository exposes loan contracts keyed by their funding account.
type ContractRepository interface {
	ListByDisburseAccount(ctx context.Context, accountID string) ([]*Contract, error)
}

// ScheduleRepository queries and updates loan repayment schedules. ListDue
// returns schedules with status PENDING or OVERDUE due on or before the
// target date.
type ScheduleRepository interface {
	ListDue(ctx context.Context, loanID string, targetDate time.Time) ([]*RepaymentSchedule, error)
	UpdateStatus(ctx context.Context, schedule *RepaymentSchedule) error
	WithTx(tx pgx.Tx) ScheduleRepository
}

package savings

import (
	"time"

	"github.com/homeplanner/settlement-scheduler/internal/domain/shared"
)

// PaymentSchedule is one due savings installment. Schedules are created at
// contract origination; the settlement engine only moves them forward
// through the status lifecycle. A PAID schedule is immutable.
type PaymentSchedule struct {
	PaymentID string                `json:"payment_id"`
	UserID    string                `json:"user_id"`
	AccountID string                `json:"account_id"`
	DueDate   time.Time             `json:"due_date"`
	Amount    int64                 `json:"amount"`
	Status    shared.ScheduleStatus `json:"status"`
	PaidAt    *time.Time            `json:"paid_at,omitempty"`
}

// MarkPaid transitions the schedule to PAID and stamps the processing date.
// Returns ErrIllegalTransition if the schedule is already PAID.
func (p *PaymentSchedule) MarkPaid(paidAt time.Time) error {
	next, err := p.Status.Transition(shared.ScheduleStatusPaid)
	if err != nil {
		return err
	}
	p.Status = next
	p.PaidAt = &paidAt
	return nil
}

// MarkOverdue transitions the schedule to OVERDUE. Marking an already
// overdue schedule is a no-op transition and succeeds.
func (p *PaymentSchedule) MarkOverdue() error {
	next, err := p.Status.Transition(shared.ScheduleStatusOverdue)
	if err != nil {
		return err
	}
	p.Status = next
	return nil
}

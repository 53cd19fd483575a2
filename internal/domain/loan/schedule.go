package loan

import (
	"time"

	"github.com/homeplanner/settlement-scheduler/internal/domain/shared"
)

// RepaymentSchedule is one due loan installment. Principal and interest are
// tracked separately for reporting; the settlement transfer moves TotalDue.
type RepaymentSchedule struct {
	RepayID      string                `json:"repay_id"`
	LoanID       string                `json:"loan_id"`
	DueDate      time.Time             `json:"due_date"`
	PrincipalDue int64                 `json:"principal_due"`
	InterestDue  int64                 `json:"interest_due"`
	TotalDue     int64                 `json:"total_due"`
	Status       shared.ScheduleStatus `json:"status"`
	PaidAt       *time.Time            `json:"paid_at,omitempty"`
}

// MarkPaid transitions the schedule to PAID and stamps the processing time.
func (s *RepaymentSchedule) MarkPaid(paidAt time.Time) error {
	next, err := s.Status.Transition(shared.ScheduleStatusPaid)
	if err != nil {
		return err
	}
	s.Status = next
	s.PaidAt = &paidAt
	return nil
}

// MarkOverdue transitions the schedule to OVERDUE.
func (s *RepaymentSchedule) MarkOverdue() error {
	next, err := s.Status.Transition(shared.ScheduleStatusOverdue)
	if err != nil {
		return err
	}
	s.Status = next
	return nil
}

package shared

import "fmt"

// ScheduleStatus is the lifecycle state of a due installment.
type ScheduleStatus string

const (
	ScheduleStatusPending ScheduleStatus = "PENDING"
	ScheduleStatusPaid    ScheduleStatus = "PAID"
	ScheduleStatusOverdue ScheduleStatus = "OVERDUE"
)

// ErrIllegalTransition is returned when a status change would move a
// schedule backward (e.g. PAID back to PENDING).
type ErrIllegalTransition struct {
	From ScheduleStatus
	To   ScheduleStatus
}

func (e ErrIllegalTransition) Error() string {
	return fmt.Sprintf("illegal schedule status transition %s -> %s", e.From, e.To)
}

// allowedTransitions is the closed transition table for schedule statuses.
// PAID is terminal. OVERDUE -> OVERDUE is allowed so catch-up runs that fail
// again are idempotent.
var allowedTransitions = map[ScheduleStatus][]ScheduleStatus{
	ScheduleStatusPending: {ScheduleStatusPaid, ScheduleStatusOverdue},
	ScheduleStatusOverdue: {ScheduleStatusPaid, ScheduleStatusOverdue},
	ScheduleStatusPaid:    {},
}

// CanTransitionTo reports whether moving from s to next is a legal
// lifecycle transition.
func (s ScheduleStatus) CanTransitionTo(next ScheduleStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition validates and returns the next status, or ErrIllegalTransition.
func (s ScheduleStatus) Transition(next ScheduleStatus) (ScheduleStatus, error) {
	if !s.CanTransitionTo(next) {
		return s, ErrIllegalTransition{From: s, To: next}
	}
	return next, nil
}

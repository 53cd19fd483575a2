package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScheduleStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    ScheduleStatus
		to      ScheduleStatus
		allowed bool
	}{
		{"pending to paid", ScheduleStatusPending, ScheduleStatusPaid, true},
		{"pending to overdue", ScheduleStatusPending, ScheduleStatusOverdue, true},
		{"overdue to paid", ScheduleStatusOverdue, ScheduleStatusPaid, true},
		{"overdue to overdue", ScheduleStatusOverdue, ScheduleStatusOverdue, true},
		{"paid is terminal", ScheduleStatusPaid, ScheduleStatusOverdue, false},
		{"paid to paid rejected", ScheduleStatusPaid, ScheduleStatusPaid, false},
		{"paid back to pending rejected", ScheduleStatusPaid, ScheduleStatusPending, false},
		{"pending to pending rejected", ScheduleStatusPending, ScheduleStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestScheduleStatus_Transition(t *testing.T) {
	next, err := ScheduleStatusPending.Transition(ScheduleStatusPaid)
	assert.NoError(t, err)
	assert.Equal(t, ScheduleStatusPaid, next)

	next, err = ScheduleStatusPaid.Transition(ScheduleStatusOverdue)
	assert.Error(t, err)
	assert.Equal(t, ScheduleStatusPaid, next, "status should be unchanged on illegal transition")

	var illegal ErrIllegalTransition
	assert.ErrorAs(t, err, &illegal)
	assert.Equal(t, ScheduleStatusPaid, illegal.From)
	assert.Equal(t, ScheduleStatusOverdue, illegal.To)
}

package settlement

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/homeplanner/settlement-scheduler/internal/domain/loan"
	"github.com/homeplanner/settlement-scheduler/internal/domain/savings"
)

// savingsScheduleMarker persists status transitions for a savings payment
// schedule. Each call works on a copy of the base schedule and never writes
// back: a transfer attempt may mark the copy PAID and then lose the commit,
// and the next attempt must start from the listed status, not the mutated
// one. The persisted row is the only source of truth.
type savingsScheduleMarker struct {
	schedule *savings.PaymentSchedule
	repo     savings.ScheduleRepository
}

func newSavingsMarker(schedule *savings.PaymentSchedule, repo savings.ScheduleRepository) *savingsScheduleMarker {
	return &savingsScheduleMarker{schedule: schedule, repo: repo}
}

func (m *savingsScheduleMarker) MarkPaid(ctx context.Context, tx pgx.Tx, paidAt time.Time) error {
	clone := *m.schedule
	if err := clone.MarkPaid(paidAt); err != nil {
		return err
	}
	return m.repoFor(tx).UpdateStatus(ctx, &clone)
}

func (m *savingsScheduleMarker) MarkOverdue(ctx context.Context, tx pgx.Tx) error {
	clone := *m.schedule
	if err := clone.MarkOverdue(); err != nil {
		return err
	}
	return m.repoFor(tx).UpdateStatus(ctx, &clone)
}

func (m *savingsScheduleMarker) repoFor(tx pgx.Tx) savings.ScheduleRepository {
	if tx == nil {
		return m.repo
	}
	return m.repo.WithTx(tx)
}

// loanScheduleMarker is the loan repayment counterpart of
// savingsScheduleMarker.
type loanScheduleMarker struct {
	schedule *loan.RepaymentSchedule
	repo     loan.ScheduleRepository
}

func newLoanMarker(schedule *loan.RepaymentSchedule, repo loan.ScheduleRepository) *loanScheduleMarker {
	return &loanScheduleMarker{schedule: schedule, repo: repo}
}

func (m *loanScheduleMarker) MarkPaid(ctx context.Context, tx pgx.Tx, paidAt time.Time) error {
	clone := *m.schedule
	if err := clone.MarkPaid(paidAt); err != nil {
		return err
	}
	return m.repoFor(tx).UpdateStatus(ctx, &clone)
}

func (m *loanScheduleMarker) MarkOverdue(ctx context.Context, tx pgx.Tx) error {
	clone := *m.schedule
	if err := clone.MarkOverdue(); err != nil {
		return err
	}
	return m.repoFor(tx).UpdateStatus(ctx, &clone)
}

func (m *loanScheduleMarker) repoFor(tx pgx.Tx) loan.ScheduleRepository {
	if tx == nil {
		return m.repo
	}
	return m.repo.WithTx(tx)
}

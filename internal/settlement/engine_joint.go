package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/homeplanner/settlement-scheduler/internal/domain/account"
	"github.com/homeplanner/settlement-scheduler/internal/domain/savings"
	"github.com/homeplanner/settlement-scheduler/internal/settlement/locker"
)

// JointSavingsEngine settles due installments for joint savings accounts.
// The pooled balance is shared but schedules and funding configuration are
// per participant, so the engine fans out across accounts and then walks
// each account's participants in their creation order. The account lock is
// held for the whole walk: participants of one joint account are settled
// strictly one after another.
type JointSavingsEngine struct {
	accounts     account.Repository
	participants account.ParticipantRepository
	enrollments  savings.UserSavingsRepository
	schedules    savings.ScheduleRepository
	executor     *TransferExecutor
	locks        *locker.AccountLocker
	pool         *ants.Pool
	logger       *slog.Logger
}

// NewJointSavingsEngine creates the joint savings settlement engine.
func NewJointSavingsEngine(
	logger *slog.Logger,
	accounts account.Repository,
	participants account.ParticipantRepository,
	enrollments savings.UserSavingsRepository,
	schedules savings.ScheduleRepository,
	executor *TransferExecutor,
	locks *locker.AccountLocker,
	pool *ants.Pool,
) *JointSavingsEngine {
	return &JointSavingsEngine{
		accounts:     accounts,
		participants: participants,
		enrollments:  enrollments,
		schedules:    schedules,
		executor:     executor,
		locks:        locks,
		pool:         pool,
		logger:       logger,
	}
}

// Name returns the engine identifier.
func (e *JointSavingsEngine) Name() string { return EngineJointSavings }

// Run settles every joint savings account's due installments as of targetDate.
func (e *JointSavingsEngine) Run(ctx context.Context, targetDate time.Time) *RunResult {
	result := NewRunResult(EngineJointSavings, targetDate)

	accounts, err := e.accounts.ListByType(ctx, account.TypeJointSaving)
	if err != nil {
		e.logger.Error("Failed to list joint savings accounts", "error", err)
		result.AddGlobalError(fmt.Sprintf("failed to list joint savings accounts: %v", err))
		return result
	}

	e.logger.Info("Joint savings settlement run started",
		"run_id", result.RunID,
		"target_date", targetDate.Format("2006-01-02"),
		"accounts", len(accounts))

	var wg sync.WaitGroup
	for _, acc := range accounts {
		acc := acc
		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("Panic while settling joint account",
						"account_id", acc.ID, "panic", r)
					result.AddError(acc.ID, fmt.Sprintf("panic: %v", r))
				}
			}()
			e.settleAccount(ctx, acc, targetDate, result)
		}
		if err := e.pool.Submit(task); err != nil {
			wg.Done()
			result.AddError(acc.ID, fmt.Sprintf("failed to submit account task: %v", err))
		}
	}
	wg.Wait()

	e.logger.Info("Joint savings settlement run finished",
		"run_id", result.RunID,
		"successes", result.SuccessCount(),
		"failures", result.FailureCount(),
		"errors", result.ErrorCount(),
		"total_amount", result.TotalAmount())
	return result
}

func (e *JointSavingsEngine) settleAccount(ctx context.Context, acc *account.Account, targetDate time.Time, result *RunResult) {
	e.locks.Lock(acc.ID)
	defer e.locks.Unlock(acc.ID)

	participants, err := e.participants.ListByAccountID(ctx, acc.ID)
	if err != nil {
		result.AddError(acc.ID, fmt.Sprintf("failed to list participants: %v", err))
		return
	}

	for _, p := range participants {
		e.settleParticipant(ctx, acc, p, targetDate, result)
	}
}

func (e *JointSavingsEngine) settleParticipant(ctx context.Context, acc *account.Account, p *account.Participant, targetDate time.Time, result *RunResult) {
	// Every participant is expected to carry an enrollment row; a missing one
	// is an operational error, not a skip.
	enrollment, err := e.enrollments.GetByAccountAndUser(ctx, acc.ID, p.UserID)
	if err != nil {
		result.AddError(p.ID, fmt.Sprintf("failed to resolve enrollment: %v", err))
		return
	}

	if !enrollment.HasAutoDebit() {
		e.logger.Debug("Auto-debit not configured, skipping participant",
			"account_id", acc.ID, "user_id", p.UserID)
		return
	}

	funding, err := e.accounts.GetByAccountNum(ctx, enrollment.AutoDebitAccountNum)
	if err != nil {
		result.AddError(p.ID, fmt.Sprintf("failed to resolve funding account %s: %v",
			enrollment.AutoDebitAccountNum, err))
		return
	}

	schedules, err := e.schedules.ListDueForUser(ctx, acc.ID, p.UserID, targetDate)
	if err != nil {
		result.AddError(p.ID, fmt.Sprintf("failed to list due schedules: %v", err))
		return
	}

	for _, schedule := range schedules {
		out := e.executor.Execute(ctx, TransferRequest{
			ScheduleID:        schedule.PaymentID,
			UserID:            schedule.UserID,
			FundingAccountID:  funding.ID,
			TargetAccountID:   acc.ID,
			Amount:            schedule.Amount,
			DebitDescription:  fmt.Sprintf("Joint savings auto-debit to account %s", acc.AccountNum),
			CreditDescription: fmt.Sprintf("Joint savings deposit from account %s", funding.AccountNum),
			Marker:            newSavingsMarker(schedule, e.schedules),
		})
		result.Record(out)
	}
}

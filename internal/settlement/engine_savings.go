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

// Engine names used in run results, log lines, and metric labels.
const (
	EngineSavings      = "SAVINGS"
	EngineJointSavings = "JOINT_SAVINGS"
	EngineLoan         = "LOAN"
)

// Engine is one settlement engine: a full pass over its account population
// for the given target date.
type Engine interface {
	Name() string
	Run(ctx context.Context, targetDate time.Time) *RunResult
}

// SavingsEngine settles due installments for single-owner savings accounts.
// Accounts are fanned out across the worker pool; within one account the
// in-process lock serializes against any other run touching it.
type SavingsEngine struct {
	accounts    account.Repository
	enrollments savings.UserSavingsRepository
	schedules   savings.ScheduleRepository
	executor    *TransferExecutor
	locks       *locker.AccountLocker
	pool        *ants.Pool
	logger      *slog.Logger
}

// NewSavingsEngine creates the savings settlement engine.
func NewSavingsEngine(
	logger *slog.Logger,
	accounts account.Repository,
	enrollments savings.UserSavingsRepository,
	schedules savings.ScheduleRepository,
	executor *TransferExecutor,
	locks *locker.AccountLocker,
	pool *ants.Pool,
) *SavingsEngine {
	return &SavingsEngine{
		accounts:    accounts,
		enrollments: enrollments,
		schedules:   schedules,
		executor:    executor,
		locks:       locks,
		pool:        pool,
		logger:      logger,
	}
}

// Name returns the engine identifier.
func (e *SavingsEngine) Name() string { return EngineSavings }

// Run settles every savings account's due installments as of targetDate.
func (e *SavingsEngine) Run(ctx context.Context, targetDate time.Time) *RunResult {
	result := NewRunResult(EngineSavings, targetDate)

	accounts, err := e.accounts.ListByType(ctx, account.TypeSaving)
	if err != nil {
		e.logger.Error("Failed to list savings accounts", "error", err)
		result.AddGlobalError(fmt.Sprintf("failed to list savings accounts: %v", err))
		return result
	}

	e.logger.Info("Savings settlement run started",
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
					e.logger.Error("Panic while settling account",
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

	e.logger.Info("Savings settlement run finished",
		"run_id", result.RunID,
		"successes", result.SuccessCount(),
		"failures", result.FailureCount(),
		"errors", result.ErrorCount(),
		"total_amount", result.TotalAmount())
	return result
}

func (e *SavingsEngine) settleAccount(ctx context.Context, acc *account.Account, targetDate time.Time, result *RunResult) {
	e.locks.Lock(acc.ID)
	defer e.locks.Unlock(acc.ID)

	// A savings account is expected to carry an enrollment row; a missing one
	// is an operational error, not a skip.
	enrollment, err := e.enrollments.GetByAccountID(ctx, acc.ID)
	if err != nil {
		result.AddError(acc.ID, fmt.Sprintf("failed to resolve enrollment: %v", err))
		return
	}

	if !enrollment.HasAutoDebit() {
		e.logger.Debug("Auto-debit not configured, skipping account",
			"account_id", acc.ID, "user_id", enrollment.UserID)
		return
	}

	funding, err := e.accounts.GetByAccountNum(ctx, enrollment.AutoDebitAccountNum)
	if err != nil {
		// Schedules stay untouched when the funding account cannot be
		// resolved; the next run retries them.
		result.AddError(acc.ID, fmt.Sprintf("failed to resolve funding account %s: %v",
			enrollment.AutoDebitAccountNum, err))
		return
	}

	schedules, err := e.schedules.ListDue(ctx, acc.ID, targetDate)
	if err != nil {
		result.AddError(acc.ID, fmt.Sprintf("failed to list due schedules: %v", err))
		return
	}

	for _, schedule := range schedules {
		out := e.executor.Execute(ctx, TransferRequest{
			ScheduleID:        schedule.PaymentID,
			UserID:            schedule.UserID,
			FundingAccountID:  funding.ID,
			TargetAccountID:   acc.ID,
			Amount:            schedule.Amount,
			DebitDescription:  fmt.Sprintf("Savings auto-debit to account %s", acc.AccountNum),
			CreditDescription: fmt.Sprintf("Savings deposit from account %s", funding.AccountNum),
			Marker:            newSavingsMarker(schedule, e.schedules),
		})
		result.Record(out)
	}
}

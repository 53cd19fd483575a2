package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/homeplanner/settlement-scheduler/internal/domain/account"
	"github.com/homeplanner/settlement-scheduler/internal/domain/loan"
	"github.com/homeplanner/settlement-scheduler/internal/settlement/locker"
)

// LoanEngine settles due loan repayments. It enumerates loan and joint loan
// accounts, resolves the contracts disbursed from each, and transfers each
// due repayment from the disburse account to the contract's loan account.
type LoanEngine struct {
	accounts  account.Repository
	contracts loan.ContractRepository
	schedules loan.ScheduleRepository
	executor  *TransferExecutor
	locks     *locker.AccountLocker
	pool      *ants.Pool
	logger    *slog.Logger
}

// NewLoanEngine creates the loan repayment settlement engine.
func NewLoanEngine(
	logger *slog.Logger,
	accounts account.Repository,
	contracts loan.ContractRepository,
	schedules loan.ScheduleRepository,
	executor *TransferExecutor,
	locks *locker.AccountLocker,
	pool *ants.Pool,
) *LoanEngine {
	return &LoanEngine{
		accounts:  accounts,
		contracts: contracts,
		schedules: schedules,
		executor:  executor,
		locks:     locks,
		pool:      pool,
		logger:    logger,
	}
}

// Name returns the engine identifier.
func (e *LoanEngine) Name() string { return EngineLoan }

// Run settles every due loan repayment as of targetDate.
func (e *LoanEngine) Run(ctx context.Context, targetDate time.Time) *RunResult {
	result := NewRunResult(EngineLoan, targetDate)

	var accounts []*account.Account
	for _, accountType := range []account.Type{account.TypeLoan, account.TypeJointLoan} {
		listed, err := e.accounts.ListByType(ctx, accountType)
		if err != nil {
			e.logger.Error("Failed to list loan accounts", "type", accountType, "error", err)
			result.AddGlobalError(fmt.Sprintf("failed to list %s accounts: %v", accountType, err))
			return result
		}
		accounts = append(accounts, listed...)
	}

	e.logger.Info("Loan settlement run started",
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
					e.logger.Error("Panic while settling loan account",
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

	e.logger.Info("Loan settlement run finished",
		"run_id", result.RunID,
		"successes", result.SuccessCount(),
		"failures", result.FailureCount(),
		"errors", result.ErrorCount(),
		"total_amount", result.TotalAmount())
	return result
}

func (e *LoanEngine) settleAccount(ctx context.Context, acc *account.Account, targetDate time.Time, result *RunResult) {
	e.locks.Lock(acc.ID)
	defer e.locks.Unlock(acc.ID)

	contracts, err := e.contracts.ListByDisburseAccount(ctx, acc.ID)
	if err != nil {
		result.AddError(acc.ID, fmt.Sprintf("failed to list loan contracts: %v", err))
		return
	}

	for _, contract := range contracts {
		e.settleContract(ctx, acc, contract, targetDate, result)
	}
}

func (e *LoanEngine) settleContract(ctx context.Context, funding *account.Account, contract *loan.Contract, targetDate time.Time, result *RunResult) {
	target, err := e.accounts.GetByID(ctx, contract.LoanAccountID)
	if err != nil {
		result.AddError(contract.LoanID, fmt.Sprintf("failed to resolve loan account %s: %v",
			contract.LoanAccountID, err))
		return
	}

	schedules, err := e.schedules.ListDue(ctx, contract.LoanID, targetDate)
	if err != nil {
		result.AddError(contract.LoanID, fmt.Sprintf("failed to list due repayments: %v", err))
		return
	}

	for _, schedule := range schedules {
		out := e.executor.Execute(ctx, TransferRequest{
			ScheduleID:        schedule.RepayID,
			UserID:            contract.UserID,
			LoanID:            contract.LoanID,
			FundingAccountID:  funding.ID,
			TargetAccountID:   target.ID,
			Amount:            schedule.TotalDue,
			PrincipalDue:      schedule.PrincipalDue,
			InterestDue:       schedule.InterestDue,
			DebitDescription:  fmt.Sprintf("Loan repayment to account %s", target.AccountNum),
			CreditDescription: fmt.Sprintf("Loan repayment from account %s", funding.AccountNum),
			Marker:            newLoanMarker(schedule, e.schedules),
		})
		result.Record(out)
	}
}

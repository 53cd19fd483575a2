// Package settlement implements the recurring payment settlement engines:
// the funds-transfer protocol shared by all of them, the per-run result
// aggregation, and the savings, joint savings, and loan repayment engines
// built on top.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/homeplanner/settlement-scheduler/internal/config"
	"github.com/homeplanner/settlement-scheduler/internal/domain/account"
	"github.com/homeplanner/settlement-scheduler/internal/domain/history"
	"github.com/homeplanner/settlement-scheduler/internal/domain/shared"
	"github.com/homeplanner/settlement-scheduler/internal/platform/persistence"
)

// OutcomeKind classifies the result of one transfer.
type OutcomeKind string

const (
	// OutcomeSuccess means the transfer committed and the schedule is PAID.
	OutcomeSuccess OutcomeKind = "SUCCESS"
	// OutcomeFailure means an expected business condition stopped the
	// transfer (insufficient funds, retry exhaustion). The schedule is
	// OVERDUE.
	OutcomeFailure OutcomeKind = "FAILURE"
	// OutcomeError means an unexpected condition stopped the transfer.
	// The schedule keeps its previous status.
	OutcomeError OutcomeKind = "ERROR"
)

// Outcome is the terminal result of one transfer: exactly one of the three
// kinds, with Detail populated only on success.
type Outcome struct {
	Kind   OutcomeKind
	Detail *SettlementDetail
	ID     string
	Reason string
}

// ScheduleMarker persists a schedule status transition. MarkPaid is only
// called inside the transfer transaction and receives it; MarkOverdue may be
// called with a nil tx when the transfer transaction is already gone, such
// as after retry exhaustion.
type ScheduleMarker interface {
	MarkPaid(ctx context.Context, tx pgx.Tx, paidAt time.Time) error
	MarkOverdue(ctx context.Context, tx pgx.Tx) error
}

// TransferRequest describes one installment settlement: move Amount from the
// funding account to the target account and advance the schedule.
type TransferRequest struct {
	ScheduleID        string
	UserID            string
	LoanID            string
	FundingAccountID  string
	TargetAccountID   string
	Amount            int64
	PrincipalDue      int64
	InterestDue       int64
	DebitDescription  string
	CreditDescription string
	Marker            ScheduleMarker
}

// operationalError marks a condition retrying cannot fix, such as a missing
// account or an illegal status transition. It stops the retry loop without
// touching the schedule.
type operationalError struct {
	err error
}

func (e operationalError) Error() string { return e.err.Error() }
func (e operationalError) Unwrap() error { return e.err }

func operational(err error) error {
	return operationalError{err: err}
}

// TransferExecutor runs the settlement transfer protocol. Each attempt is
// one database transaction: lock both accounts in id order, verify funds,
// apply the debit and credit, record both history entries, mark the schedule
// PAID, commit. Transient attempt errors are retried with exponential
// backoff; when attempts are exhausted the schedule is forced OVERDUE so it
// never silently stays PENDING.
type TransferExecutor struct {
	txRunner persistence.TxRunner
	accounts account.Repository
	history  history.Repository
	retry    config.RetryConfig
	logger   *slog.Logger
}

// NewTransferExecutor creates a transfer executor.
func NewTransferExecutor(
	logger *slog.Logger,
	txRunner persistence.TxRunner,
	accounts account.Repository,
	histRepo history.Repository,
	retry config.RetryConfig,
) *TransferExecutor {
	return &TransferExecutor{
		txRunner: txRunner,
		accounts: accounts,
		history:  histRepo,
		retry:    retry,
		logger:   logger,
	}
}

// Execute settles one installment and returns its outcome. Execute never
// returns an error: every result, including unexpected ones, is folded into
// the Outcome so engine runs degrade per-installment instead of aborting.
func (e *TransferExecutor) Execute(ctx context.Context, req TransferRequest) Outcome {
	if req.FundingAccountID == req.TargetAccountID {
		return Outcome{
			Kind:   OutcomeError,
			ID:     req.ScheduleID,
			Reason: fmt.Sprintf("funding and target account are the same: %s", req.FundingAccountID),
		}
	}
	if req.Amount <= 0 {
		return Outcome{
			Kind:   OutcomeError,
			ID:     req.ScheduleID,
			Reason: fmt.Sprintf("non-positive settlement amount: %d", req.Amount),
		}
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = e.retry.InitialInterval
	expo.Multiplier = e.retry.Multiplier
	expo.RandomizationFactor = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(e.retry.MaxAttempts-1)), ctx)

	attemptNum := 0
	out, err := backoff.RetryWithData(func() (Outcome, error) {
		attemptNum++
		o, attemptErr := e.attempt(ctx, req)
		if attemptErr != nil {
			var opErr operationalError
			if errors.As(attemptErr, &opErr) {
				return Outcome{}, backoff.Permanent(attemptErr)
			}
			e.logger.Warn("Transfer attempt failed",
				"schedule_id", req.ScheduleID,
				"attempt", attemptNum,
				"error", attemptErr)
			return Outcome{}, attemptErr
		}
		return o, nil
	}, policy)
	if err == nil {
		return out
	}

	var opErr operationalError
	if errors.As(err, &opErr) || ctx.Err() != nil {
		e.logger.Error("Transfer aborted",
			"schedule_id", req.ScheduleID,
			"error", err)
		return Outcome{Kind: OutcomeError, ID: req.ScheduleID, Reason: err.Error()}
	}

	// Retries exhausted on a transient error. Force the schedule OVERDUE so
	// the next run picks it up again.
	e.logger.Error("Transfer retries exhausted, marking schedule overdue",
		"schedule_id", req.ScheduleID,
		"attempts", attemptNum,
		"error", err)
	if markErr := req.Marker.MarkOverdue(ctx, nil); markErr != nil {
		e.logger.Error("Failed to mark schedule overdue after retry exhaustion",
			"schedule_id", req.ScheduleID,
			"error", markErr)
		return Outcome{
			Kind:   OutcomeError,
			ID:     req.ScheduleID,
			Reason: fmt.Sprintf("retries exhausted (%v) and overdue mark failed: %v", err, markErr),
		}
	}
	return Outcome{
		Kind:   OutcomeFailure,
		ID:     req.ScheduleID,
		Reason: string(shared.FailureReasonRetryExhausted),
	}
}

// attempt runs one full transfer attempt inside a single transaction.
// Errors it returns are transient unless wrapped as operational.
func (e *TransferExecutor) attempt(ctx context.Context, req TransferRequest) (Outcome, error) {
	var out Outcome

	err := e.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accounts := e.accounts.WithTx(tx)

		funding, target, err := lockPair(ctx, accounts, req.FundingAccountID, req.TargetAccountID)
		if err != nil {
			var notFound account.ErrAccountNotFound
			if errors.As(err, &notFound) {
				return operational(err)
			}
			return err
		}

		if !funding.CanWithdraw(req.Amount) {
			if err := req.Marker.MarkOverdue(ctx, tx); err != nil {
				return operational(err)
			}
			e.logger.Info("Insufficient funds, schedule marked overdue",
				"schedule_id", req.ScheduleID,
				"account_id", funding.ID,
				"balance", funding.Balance,
				"amount", req.Amount)
			out = Outcome{
				Kind:   OutcomeFailure,
				ID:     req.ScheduleID,
				Reason: string(shared.FailureReasonInsufficientFunds),
			}
			return nil
		}

		if err := funding.Withdraw(req.Amount); err != nil {
			return operational(err)
		}
		if err := target.Deposit(req.Amount); err != nil {
			return operational(err)
		}
		if err := accounts.Update(ctx, funding); err != nil {
			return err
		}
		if err := accounts.Update(ctx, target); err != nil {
			return err
		}

		processedAt := time.Now()
		debitID := uuid.New().String()
		creditID := uuid.New().String()

		// Idempotency keys are stable across attempts so a retried attempt
		// replaces the entries a rolled-back attempt may have written.
		debit := &history.Entry{
			TransactionID:  debitID,
			AccountID:      funding.ID,
			Amount:         -req.Amount,
			BalanceAfter:   funding.Balance,
			Description:    req.DebitDescription,
			IdempotencyKey: req.ScheduleID + ":debit",
			CreatedAt:      processedAt,
		}
		credit := &history.Entry{
			TransactionID:  creditID,
			AccountID:      target.ID,
			Amount:         req.Amount,
			BalanceAfter:   target.Balance,
			Description:    req.CreditDescription,
			IdempotencyKey: req.ScheduleID + ":credit",
			CreatedAt:      processedAt,
		}
		if err := e.history.Append(ctx, debit); err != nil {
			return err
		}
		if err := e.history.Append(ctx, credit); err != nil {
			return err
		}

		if err := req.Marker.MarkPaid(ctx, tx, processedAt); err != nil {
			return operational(err)
		}

		out = Outcome{
			Kind: OutcomeSuccess,
			ID:   req.ScheduleID,
			Detail: &SettlementDetail{
				ScheduleID:          req.ScheduleID,
				UserID:              req.UserID,
				LoanID:              req.LoanID,
				FromAccountID:       funding.ID,
				ToAccountID:         target.ID,
				FromAccountNum:      funding.AccountNum,
				ToAccountNum:        target.AccountNum,
				DebitTransactionID:  debitID,
				CreditTransactionID: creditID,
				Amount:              req.Amount,
				PrincipalDue:        req.PrincipalDue,
				InterestDue:         req.InterestDue,
				FromAccountBalance:  funding.Balance,
				ToAccountBalance:    target.Balance,
				ProcessedAt:         processedAt,
			},
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// lockPair locks both accounts in ascending id order so two concurrent
// transfers touching the same pair cannot deadlock, then returns them as
// (funding, target).
func lockPair(ctx context.Context, repo account.Repository, fundingID, targetID string) (*account.Account, *account.Account, error) {
	firstID, secondID := fundingID, targetID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}

	first, err := repo.LockForUpdate(ctx, firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := repo.LockForUpdate(ctx, secondID)
	if err != nil {
		return nil, nil, err
	}

	if first.ID == fundingID {
		return first, second, nil
	}
	return second, first, nil
}

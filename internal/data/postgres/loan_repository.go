package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/homeplanner/settlement-scheduler/internal/domain/loan"
	"github.com/homeplanner/settlement-scheduler/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// LoanContractRepository implements loan.ContractRepository for PostgreSQL
type LoanContractRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLoanContractRepository creates a new PostgreSQL loan contract repository
func NewLoanContractRepository(logger *slog.Logger, db *persistence.PostgresDB) loan.ContractRepository {
	return &LoanContractRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// ListByDisburseAccount retrieves loan contracts funded from the given account
func (r *LoanContractRepository) ListByDisburseAccount(ctx context.Context, accountID string) ([]*loan.Contract, error) {
	query := `
		SELECT loan_id, app_id, user_id, product_id, amount, interest_rate,
		       start_date, end_date, repay_type, disburse_account_id, loan_account_id,
		       status, created_at
		FROM loan_contracts
		WHERE disburse_account_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.querier.Query(ctx, query, accountID)
	if err != nil {
		r.logger.Error("Failed to list loan contracts", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to list loan contracts: %w", err)
	}
	defer rows.Close()

	var contracts []*loan.Contract
	for rows.Next() {
		var c loan.Contract
		if err := rows.Scan(
			&c.LoanID,
			&c.AppID,
			&c.UserID,
			&c.ProductID,
			&c.Amount,
			&c.InterestRate,
			&c.StartDate,
			&c.EndDate,
			&c.RepayType,
			&c.DisburseAccountID,
			&c.LoanAccountID,
			&c.Status,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan loan contract row: %w", err)
		}
		contracts = append(contracts, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loan contract rows: %w", err)
	}

	return contracts, nil
}

// LoanScheduleRepository implements loan.ScheduleRepository for PostgreSQL
type LoanScheduleRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLoanScheduleRepository creates a new PostgreSQL loan repayment schedule repository
func NewLoanScheduleRepository(logger *slog.Logger, db *persistence.PostgresDB) loan.ScheduleRepository {
	return &LoanScheduleRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *LoanScheduleRepository) WithTx(tx pgx.Tx) loan.ScheduleRepository {
	return &LoanScheduleRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// ListDue retrieves PENDING and OVERDUE repayment schedules due on or before
// the target date for one loan contract.
func (r *LoanScheduleRepository) ListDue(ctx context.Context, loanID string, targetDate time.Time) ([]*loan.RepaymentSchedule, error) {
	query := `
		SELECT repay_id, loan_id, due_date, principal_due, interest_due, total_due, status, paid_at
		FROM loan_repayment_schedules
		WHERE loan_id = $1 AND status IN ('PENDING', 'OVERDUE') AND due_date <= $2
		ORDER BY due_date ASC
	`

	rows, err := r.querier.Query(ctx, query, loanID, targetDate)
	if err != nil {
		r.logger.Error("Failed to list due repayment schedules", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf("failed to list due repayment schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*loan.RepaymentSchedule
	for rows.Next() {
		var s loan.RepaymentSchedule
		if err := rows.Scan(&s.RepayID, &s.LoanID, &s.DueDate, &s.PrincipalDue, &s.InterestDue, &s.TotalDue, &s.Status, &s.PaidAt); err != nil {
			return nil, fmt.Errorf("failed to scan repayment schedule row: %w", err)
		}
		schedules = append(schedules, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate repayment schedule rows: %w", err)
	}

	return schedules, nil
}

// UpdateStatus persists a repayment schedule's status and paid-at fields
func (r *LoanScheduleRepository) UpdateStatus(ctx context.Context, schedule *loan.RepaymentSchedule) error {
	query := `
		UPDATE loan_repayment_schedules
		SET status = $1, paid_at = $2
		WHERE repay_id = $3
	`

	result, err := r.querier.Exec(ctx, query, schedule.Status, schedule.PaidAt, schedule.RepayID)
	if err != nil {
		r.logger.Error("Failed to update repayment schedule status", "repay_id", schedule.RepayID, "error", err)
		return fmt.Errorf("failed to update repayment schedule status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("loan repayment schedule not found: %s", schedule.RepayID)
	}

	return nil
}

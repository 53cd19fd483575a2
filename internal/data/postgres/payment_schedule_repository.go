package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/homeplanner/settlement-scheduler/internal/domain/savings"
	"github.com/homeplanner/settlement-scheduler/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// PaymentScheduleRepository implements savings.ScheduleRepository for PostgreSQL
type PaymentScheduleRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPaymentScheduleRepository creates a new PostgreSQL payment schedule repository
func NewPaymentScheduleRepository(logger *slog.Logger, db *persistence.PostgresDB) savings.ScheduleRepository {
	return &PaymentScheduleRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *PaymentScheduleRepository) WithTx(tx pgx.Tx) savings.ScheduleRepository {
	return &PaymentScheduleRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// dueFilter selects PENDING schedules due on or before the target date and
// OVERDUE schedules due strictly before it. PAID schedules are never
// selected, which is the idempotency boundary for re-runs.
const dueFilter = `
	((status = 'PENDING' AND due_date <= $2) OR (status = 'OVERDUE' AND due_date < $2))
`

// ListDue retrieves the due installments for an account as of the target date
func (r *PaymentScheduleRepository) ListDue(ctx context.Context, accountID string, targetDate time.Time) ([]*savings.PaymentSchedule, error) {
	query := fmt.Sprintf(`
		SELECT payment_id, user_id, account_id, due_date, amount, status, paid_at
		FROM payment_schedules
		WHERE account_id = $1 AND %s
		ORDER BY due_date ASC
	`, dueFilter)

	rows, err := r.querier.Query(ctx, query, accountID, targetDate)
	if err != nil {
		r.logger.Error("Failed to list due schedules", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to list due schedules: %w", err)
	}
	defer rows.Close()

	return scanPaymentSchedules(rows)
}

// ListDueForUser retrieves one joint-account participant's due installments
func (r *PaymentScheduleRepository) ListDueForUser(ctx context.Context, accountID, userID string, targetDate time.Time) ([]*savings.PaymentSchedule, error) {
	query := fmt.Sprintf(`
		SELECT payment_id, user_id, account_id, due_date, amount, status, paid_at
		FROM payment_schedules
		WHERE account_id = $1 AND user_id = $3 AND %s
		ORDER BY due_date ASC
	`, dueFilter)

	rows, err := r.querier.Query(ctx, query, accountID, targetDate, userID)
	if err != nil {
		r.logger.Error("Failed to list due schedules for user", "account_id", accountID, "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list due schedules for user: %w", err)
	}
	defer rows.Close()

	return scanPaymentSchedules(rows)
}

// UpdateStatus persists a schedule's status and paid-at fields
func (r *PaymentScheduleRepository) UpdateStatus(ctx context.Context, schedule *savings.PaymentSchedule) error {
	query := `
		UPDATE payment_schedules
		SET status = $1, paid_at = $2
		WHERE payment_id = $3
	`

	result, err := r.querier.Exec(ctx, query, schedule.Status, schedule.PaidAt, schedule.PaymentID)
	if err != nil {
		r.logger.Error("Failed to update schedule status", "payment_id", schedule.PaymentID, "error", err)
		return fmt.Errorf("failed to update schedule status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment schedule not found: %s", schedule.PaymentID)
	}

	return nil
}

func scanPaymentSchedules(rows pgx.Rows) ([]*savings.PaymentSchedule, error) {
	var schedules []*savings.PaymentSchedule
	for rows.Next() {
		var s savings.PaymentSchedule
		if err := rows.Scan(&s.PaymentID, &s.UserID, &s.AccountID, &s.DueDate, &s.Amount, &s.Status, &s.PaidAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}
		schedules = append(schedules, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedule rows: %w", err)
	}
	return schedules, nil
}

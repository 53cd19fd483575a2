package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/homeplanner/settlement-scheduler/internal/domain/savings"
	"github.com/homeplanner/settlement-scheduler/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// UserSavingsRepository implements savings.UserSavingsRepository for PostgreSQL
type UserSavingsRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewUserSavingsRepository creates a new PostgreSQL user savings repository
func NewUserSavingsRepository(logger *slog.Logger, db *persistence.PostgresDB) savings.UserSavingsRepository {
	return &UserSavingsRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

const userSavingsColumns = `
	id, user_id, product_id, account_id, start_date, end_date,
	monthly_amount, status, auto_debit_account_num, created_at
`

func (r *UserSavingsRepository) scanRow(row pgx.Row) (*savings.UserSavings, error) {
	var us savings.UserSavings
	err := row.Scan(
		&us.ID,
		&us.UserID,
		&us.ProductID,
		&us.AccountID,
		&us.StartDate,
		&us.EndDate,
		&us.MonthlyAmount,
		&us.Status,
		&us.AutoDebitAccountNum,
		&us.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &us, nil
}

// GetByAccountID resolves the enrollment backing a single-owner savings account
func (r *UserSavingsRepository) GetByAccountID(ctx context.Context, accountID string) (*savings.UserSavings, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM user_savings
		WHERE account_id = $1
	`, userSavingsColumns)

	us, err := r.scanRow(r.querier.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, savings.ErrSavingsNotFound{AccountID: accountID}
		}
		r.logger.Error("Failed to get user savings", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to get user savings: %w", err)
	}

	return us, nil
}

// GetByAccountAndUser resolves one participant's enrollment in a joint account
func (r *UserSavingsRepository) GetByAccountAndUser(ctx context.Context, accountID, userID string) (*savings.UserSavings, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM user_savings
		WHERE account_id = $1 AND user_id = $2
	`, userSavingsColumns)

	us, err := r.scanRow(r.querier.QueryRow(ctx, query, accountID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, savings.ErrSavingsNotFound{AccountID: accountID, UserID: userID}
		}
		r.logger.Error("Failed to get user savings", "account_id", accountID, "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get user savings: %w", err)
	}

	return us, nil
}

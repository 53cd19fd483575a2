// Package postgres provides PostgreSQL implementations of the domain
// repositories backing the settlement engine: accounts, joint-account
// participants, savings enrollments, and payment/repayment schedules.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/homeplanner/settlement-scheduler/internal/domain/account"
	"github.com/homeplanner/settlement-scheduler/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so balance updates and
// schedule transitions commit atomically.
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := `
		SELECT id, account_num, account_type, owner_id, balance, version, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	var acc account.Account
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&acc.ID,
		&acc.AccountNum,
		&acc.Type,
		&acc.OwnerID,
		&acc.Balance,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &acc, nil
}

// GetByAccountNum retrieves an account by its account number. Funding
// accounts are configured by number, not id.
func (r *AccountRepository) GetByAccountNum(ctx context.Context, accountNum string) (*account.Account, error) {
	query := `
		SELECT id, account_num, account_type, owner_id, balance, version, created_at, updated_at
		FROM accounts
		WHERE account_num = $1
	`

	var acc account.Account
	err := r.querier.QueryRow(ctx, query, accountNum).Scan(
		&acc.ID,
		&acc.AccountNum,
		&acc.Type,
		&acc.OwnerID,
		&acc.Balance,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: accountNum}
		}
		r.logger.Error("Failed to get account by number", "account_num", accountNum, "error", err)
		return nil, fmt.Errorf("failed to get account by number: %w", err)
	}

	return &acc, nil
}

// ListByType retrieves all accounts of the given type, ordered by creation
// time for stable run ordering.
func (r *AccountRepository) ListByType(ctx context.Context, accountType account.Type) ([]*account.Account, error) {
	query := `
		SELECT id, account_num, account_type, owner_id, balance, version, created_at, updated_at
		FROM accounts
		WHERE account_type = $1
		ORDER BY created_at ASC
	`

	rows, err := r.querier.Query(ctx, query, accountType)
	if err != nil {
		r.logger.Error("Failed to list accounts by type", "account_type", string(accountType), "error", err)
		return nil, fmt.Errorf("failed to list accounts by type: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		var acc account.Account
		if err := rows.Scan(
			&acc.ID,
			&acc.AccountNum,
			&acc.Type,
			&acc.OwnerID,
			&acc.Balance,
			&acc.Version,
			&acc.CreatedAt,
			&acc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, &acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account rows: %w", err)
	}

	return accounts, nil
}

// Update persists an account using optimistic locking on the version column.
// Returns ErrConcurrentModification if the account changed between read and
// update; the transfer protocol treats that as transient and retries.
func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts
		SET balance = $1, version = $2, updated_at = $3
		WHERE id = $4 AND version = $5
	`

	result, err := r.querier.Exec(ctx, query,
		acc.Balance,
		acc.Version,
		acc.UpdatedAt,
		acc.ID,
		acc.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update account", "id", acc.ID, "error", err)
		return fmt.Errorf("failed to update account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrConcurrentModification{AccountID: acc.ID}
	}

	return nil
}

// LockForUpdate obtains a pessimistic lock on the account and returns its
// current state. Must be used within a transaction; the transfer protocol
// locks both accounts before any balance mutation.
func (r *AccountRepository) LockForUpdate(ctx context.Context, id string) (*account.Account, error) {
	query := `
		SELECT id, account_num, account_type, owner_id, balance, version, created_at, updated_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`

	var acc account.Account
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&acc.ID,
		&acc.AccountNum,
		&acc.Type,
		&acc.OwnerID,
		&acc.Balance,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to lock account for update", "id", id, "error", err)
		return nil, fmt.Errorf("failed to lock account for update: %w", err)
	}

	return &acc, nil
}

package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/homeplanner/settlement-scheduler/internal/domain/account"
	"github.com/homeplanner/settlement-scheduler/internal/platform/persistence"
)

// ParticipantRepository implements account.ParticipantRepository for PostgreSQL
type ParticipantRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewParticipantRepository creates a new PostgreSQL participant repository
func NewParticipantRepository(logger *slog.Logger, db *persistence.PostgresDB) account.ParticipantRepository {
	return &ParticipantRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// ListByAccountID retrieves the members of a joint account ordered by
// creation time ascending, which fixes the fan-out processing order.
func (r *ParticipantRepository) ListByAccountID(ctx context.Context, accountID string) ([]*account.Participant, error) {
	query := `
		SELECT id, account_id, user_id, role, created_at
		FROM account_participants
		WHERE account_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.querier.Query(ctx, query, accountID)
	if err != nil {
		r.logger.Error("Failed to list participants", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*account.Participant
	for rows.Next() {
		var p account.Participant
		if err := rows.Scan(&p.ID, &p.AccountID, &p.UserID, &p.Role, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participant rows: %w", err)
	}

	return participants, nil
}

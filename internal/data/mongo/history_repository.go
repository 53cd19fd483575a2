// Package mongo provides the MongoDB implementation of the append-only
// transaction history store.
package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/homeplanner/settlement-scheduler/internal/domain/history"
)

const (
	// HistoryCollectionName is the name of the transaction history collection
	HistoryCollectionName = "transaction_history"
)

// HistoryRepository implements the history.Repository interface for MongoDB
type HistoryRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewHistoryRepository creates a new MongoDB transaction history repository
func NewHistoryRepository(logger *slog.Logger, db *mongo.Database) history.Repository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Append stores a history entry. Entries carrying an idempotency key are
// upserted on that key, so a retried transfer attempt replaces the record
// written by a previous attempt instead of duplicating it. Keyless entries
// are plain inserts.
func (r *HistoryRepository) Append(ctx context.Context, entry *history.Entry) error {
	collection := r.db.Collection(HistoryCollectionName)

	if entry.IdempotencyKey == "" {
		if _, err := collection.InsertOne(ctx, entry); err != nil {
			r.logger.Error("Failed to append history entry",
				"transaction_id", entry.TransactionID,
				"error", err)
			return fmt.Errorf("failed to append history entry: %w", err)
		}
		return nil
	}

	filter := bson.M{"idempotency_key": entry.IdempotencyKey}
	opts := options.Replace().SetUpsert(true)
	if _, err := collection.ReplaceOne(ctx, filter, entry, opts); err != nil {
		r.logger.Error("Failed to upsert history entry",
			"transaction_id", entry.TransactionID,
			"idempotency_key", entry.IdempotencyKey,
			"error", err)
		return fmt.Errorf("failed to upsert history entry: %w", err)
	}

	return nil
}

// ListByAccountID retrieves paginated history entries for an account.
// Results are sorted by creation time in descending order (newest first).
func (r *HistoryRepository) ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*history.Entry, error) {
	collection := r.db.Collection(HistoryCollectionName)

	filter := bson.M{"account_id": accountID}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list history entries",
			"account_id", accountID,
			"error", err)
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*history.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode history entries",
			"account_id", accountID,
			"error", err)
		return nil, fmt.Errorf("failed to decode history entries: %w", err)
	}

	return entries, nil
}

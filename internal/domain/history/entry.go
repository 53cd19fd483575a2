package history

import (
	"fmt"
	"time"
)

// EntryType is derived from the sign of an entry's amount. The signed amount
// is the single source of truth; the type is never stored independently.
type EntryType string

const (
	EntryTypeDeposit    EntryType = "DEPOSIT"
	EntryTypeWithdrawal EntryType = "WITHDRAWAL"
)

// ErrDuplicateEntry is returned when an entry with the same transaction ID
// already exists in the history store.
type ErrDuplicateEntry struct {
	TransactionID string
}

func (e ErrDuplicateEntry) Error() string {
	return fmt.Sprintf("duplicate history entry: %s", e.TransactionID)
}

// Entry is one append-only transaction history record. Amount is signed:
// negative for withdrawals, positive for deposits. Entries are never mutated
// or deleted by the settlement engine.
type Entry struct {
	TransactionID  string    `json:"transaction_id" bson:"transaction_id"`
	AccountID      string    `json:"account_id" bson:"account_id"`
	Amount         int64     `json:"amount" bson:"amount"`
	BalanceAfter   int64     `json:"balance_after" bson:"balance_after"`
	Description    string    `json:"description,omitempty" bson:"description,omitempty"`
	IdempotencyKey string    `json:"idempotency_key,omitempty" bson:"idempotency_key,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

// Type derives the entry direction from the sign of the amount.
func (e *Entry) Type() EntryType {
	if e.Amount < 0 {
		return EntryTypeWithdrawal
	}
	return EntryTypeDeposit
}

package savings

import (
	"strings"
	"time"
)

// SavingsStatus is the lifecycle state of a savings enrollment.
type SavingsStatus string

const (
	SavingsStatusActive    SavingsStatus = "ACTIVE"
	SavingsStatusInactive  SavingsStatus = "INACTIVE"
	SavingsStatusCompleted SavingsStatus = "COMPLETED"
	SavingsStatusCancelled SavingsStatus = "CANCELLED"
)

// UserSavings links a user's savings enrollment to the account funding its
// installments. AutoDebitAccountNum references the funding account by
// account number and may be blank when no auto-debit is configured.
type UserSavings struct {
	ID                  string        `json:"id"`
	UserID              string        `json:"user_id"`
	ProductID           string        `json:"product_id"`
	AccountID           string        `json:"account_id"`
	StartDate           time.Time     `json:"start_date"`
	EndDate             *time.Time    `json:"end_date,omitempty"`
	MonthlyAmount       int64         `json:"monthly_amount"`
	Status              SavingsStatus `json:"status"`
	AutoDebitAccountNum string        `json:"auto_debit_account_num,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
}

// HasAutoDebit reports whether a funding account is configured. Accounts
// without one are skipped by the engine, not treated as errors.
func (u *UserSavings) HasAutoDebit() bool {
	return strings.TrimSpace(u.AutoDebitAccountNum) != ""
}

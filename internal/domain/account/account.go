package account

import (
	"errors"
	"fmt"
	"time"
)

// Type classifies an account by product.
type Type string

const (
	TypeSaving      Type = "SAVING"
	TypeJointSaving Type = "JOINT_SAVING"
	TypeLoan        Type = "LOAN"
	TypeJointLoan   Type = "JOINT_LOAN"
	TypeDemand      Type = "DEMAND"
)

// Common errors
var (
	ErrInsufficientFunds = errors.New("insufficient funds for withdrawal")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// ErrAccountNotFound is returned when no account exists for the given id or
// account number.
type ErrAccountNotFound struct {
	AccountID string
}

func (e ErrAccountNotFound) Error() string {
	return fmt.Sprintf("account not found: %s", e.AccountID)
}

// ErrConcurrentModification is returned when an optimistic-lock version
// check fails during an update. Callers treat it as transient and retry.
type ErrConcurrentModification struct {
	AccountID string
}

func (e ErrConcurrentModification) Error() string {
	return fmt.Sprintf("account %s was modified concurrently", e.AccountID)
}

// Account represents a bank account. Balance is stored in minor units and is
// only mutated through the settlement protocol or other collaborators.
type Account struct {
	ID         string    `json:"id"`
	AccountNum string    `json:"account_num"`
	Type       Type      `json:"type"`
	OwnerID    string    `json:"owner_id,omitempty"` // empty for joint accounts
	Balance    int64     `json:"balance"`
	Version    int       `json:"version"` // For optimistic locking
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Deposit adds the specified amount to the account balance
func (a *Account) Deposit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	a.Balance += amount
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// Withdraw subtracts the specified amount from the account balance.
// The balance never goes negative: insufficient funds is rejected before
// any mutation.
func (a *Account) Withdraw(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if a.Balance < amount {
		return ErrInsufficientFunds
	}

	a.Balance -= amount
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// CanWithdraw checks if the account has sufficient funds for a withdrawal
func (a *Account) CanWithdraw(amount int64) bool {
	return a.Balance >= amount
}

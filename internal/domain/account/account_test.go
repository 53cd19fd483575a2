package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccount_Deposit(t *testing.T) {
	acc := &Account{ID: "acc-1", Balance: 1000, Version: 3}

	err := acc.Deposit(500)
	assert.NoError(t, err)
	assert.Equal(t, int64(1500), acc.Balance)
	assert.Equal(t, 4, acc.Version)

	err = acc.Deposit(0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, int64(1500), acc.Balance)

	err = acc.Deposit(-100)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestAccount_Withdraw(t *testing.T) {
	acc := &Account{ID: "acc-1", Balance: 1000, Version: 1}

	err := acc.Withdraw(400)
	assert.NoError(t, err)
	assert.Equal(t, int64(600), acc.Balance)
	assert.Equal(t, 2, acc.Version)

	// Insufficient funds leaves the account untouched
	err = acc.Withdraw(601)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(600), acc.Balance)
	assert.Equal(t, 2, acc.Version)

	// Withdrawing the exact balance is allowed
	err = acc.Withdraw(600)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), acc.Balance)

	err = acc.Withdraw(-1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestAccount_CanWithdraw(t *testing.T) {
	acc := &Account{Balance: 100}
	assert.True(t, acc.CanWithdraw(100))
	assert.True(t, acc.CanWithdraw(1))
	assert.False(t, acc.CanWithdraw(101))
}

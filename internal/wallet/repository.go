package wallet

import (
	"context"

	"github.com/congo-pay/coinledger/internal/ledger"
)

// Repository persists currency accounts. ledger.Store satisfies it.
type Repository interface {
	FindUser(ctx context.Context, id int64) (ledger.User, error)
	AddAccount(ctx context.Context, userID int64, currency ledger.Currency, accountID string) (ledger.Account, error)
	Deposit(ctx context.Context, userID int64, currency ledger.Currency, amount int64) (ledger.Account, error)
}

var _ Repository = ledger.Store(nil)

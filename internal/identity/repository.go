package identity

import (
	"context"

	"github.com/congo-pay/coinledger/internal/ledger"
)

// Repository persists users. ledger.Store satisfies it.
type Repository interface {
	CreateUser(ctx context.Context, user ledger.NewUser) (ledger.User, error)
	FindUser(ctx context.Context, id int64) (ledger.User, error)
	ListUsers(ctx context.Context) ([]ledger.User, error)
}

var _ Repository = ledger.Store(nil)

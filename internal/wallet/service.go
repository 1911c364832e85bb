package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/congo-pay/coinledger/internal/ledger"
)

// Service exposes currency account operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds a wallet service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// AddAccount opens an account of the given currency for a user. Each user
// holds at most one account per currency and account ids are unique per
// currency.
func (s *Service) AddAccount(ctx context.Context, userID int64, currencyCode, accountID string) (ledger.Account, error) {
	currency, err := ledger.ParseCurrency(currencyCode)
	if err != nil {
		return ledger.Account{}, err
	}
	id, err := ledger.NormalizeAccountID(currency, accountID)
	if err != nil {
		return ledger.Account{}, err
	}
	return s.repo.AddAccount(ctx, userID, currency, id)
}

// Deposit tops up a user's account. The resulting balance must stay below
// ledger.MaxBalance.
func (s *Service) Deposit(ctx context.Context, userID int64, currencyCode string, amount int64) (ledger.Account, error) {
	currency, err := ledger.ParseCurrency(currencyCode)
	if err != nil {
		return ledger.Account{}, err
	}
	if amount <= 0 {
		return ledger.Account{}, ErrInvalidAmount
	}
	acc, err := s.repo.Deposit(ctx, userID, currency, amount)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("deposit %d %s for user %d: %w", amount, currency, userID, err)
	}
	return acc, nil
}

// Balance returns the current balance of a user's account.
func (s *Service) Balance(ctx context.Context, userID int64, currencyCode string) (Balance, error) {
	currency, err := ledger.ParseCurrency(currencyCode)
	if err != nil {
		return Balance{}, err
	}
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		return Balance{}, err
	}
	acc := user.Account(currency)
	if acc == nil {
		return Balance{}, ledger.ErrAccountNotFound
	}
	return Balance{
		UserID:    userID,
		Currency:  currency,
		AccountID: acc.ID,
		Amount:    acc.Balance,
		AsOf:      s.now(),
	}, nil
}

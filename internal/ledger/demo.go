package ledger

import (
	"context"
	"fmt"
)

// SeedDemo populates an empty store with two bitcoin holders and one pending
// transfer between them. It is a no-op when users already exist.
func SeedDemo(ctx context.Context, s Store) error {
	if users, err := s.ListUsers(ctx); err != nil {
		return err
	} else if len(users) > 0 {
		return nil
	}

	alice, err := s.CreateUser(ctx, NewUser{
		Name:              "test1",
		Description:       "desc.",
		Email:             "te.st1@example.com",
		MaxPerTransaction: 500,
		BitcoinAccountID:  "001122334455",
	})
	if err != nil {
		return fmt.Errorf("seed user test1: %w", err)
	}
	bob, err := s.CreateUser(ctx, NewUser{
		Name:              "test2",
		Description:       "des2.",
		Email:             "qw.er1234@gmail.com",
		MaxPerTransaction: 3,
		BitcoinAccountID:  "aabbccddee",
	})
	if err != nil {
		return fmt.Errorf("seed user test2: %w", err)
	}
	if _, err := s.Deposit(ctx, alice.ID, BTC, 50); err != nil {
		return fmt.Errorf("seed balance: %w", err)
	}

	transfer := NewTransaction{Currency: BTC, Amount: 1, SourceUserID: alice.ID, TargetUserID: bob.ID}
	if _, err := s.CreateTransaction(ctx, transfer); err != nil {
		return fmt.Errorf("seed transaction: %w", err)
	}
	return nil
}

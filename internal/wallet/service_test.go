package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/congo-pay/coinledger/internal/ledger"
)

func newUser(t *testing.T, store ledger.Store, email string) ledger.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), ledger.NewUser{Name: email, Email: email, MaxPerTransaction: 100})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestServiceAddAccountDepositAndBalance(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(store)
	ctx := context.Background()
	user := newUser(t, store, "a@example.com")

	acc, err := svc.AddAccount(ctx, user.ID, "eth", "0xDE0B295669A9FD93D5F28D9EC85E40F4CB697BAE")
	if err != nil {
		t.Fatalf("add account: %v", err)
	}
	if acc.Currency != ledger.ETH || acc.ID != "de0b295669a9fd93d5f28d9ec85e40f4cb697bae" {
		t.Fatalf("unexpected account %+v", acc)
	}

	if _, err := svc.Deposit(ctx, user.ID, "ETH", 2_500); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	balance, err := svc.Balance(ctx, user.ID, "ETH")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Amount != 2_500 {
		t.Fatalf("expected balance 2500, got %d", balance.Amount)
	}
	if balance.AccountID != acc.ID {
		t.Fatalf("expected account %s, got %s", acc.ID, balance.AccountID)
	}
}

func TestServiceAddAccountConflicts(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(store)
	ctx := context.Background()
	alice := newUser(t, store, "alice@example.com")
	bob := newUser(t, store, "bob@example.com")

	if _, err := svc.AddAccount(ctx, alice.ID, "BTC", "alice01"); err != nil {
		t.Fatalf("add account: %v", err)
	}
	if _, err := svc.AddAccount(ctx, alice.ID, "BTC", "alice02"); !errors.Is(err, ledger.ErrAccountExists) {
		t.Fatalf("expected one account per currency, got %v", err)
	}
	if _, err := svc.AddAccount(ctx, bob.ID, "BTC", "alice01"); !errors.Is(err, ledger.ErrDuplicateAccount) {
		t.Fatalf("expected duplicate account id, got %v", err)
	}
	if _, err := svc.AddAccount(ctx, bob.ID, "DOGE", "bob01"); !errors.Is(err, ledger.ErrUnsupportedCurrency) {
		t.Fatalf("expected unsupported currency, got %v", err)
	}
	if _, err := svc.AddAccount(ctx, 999, "BTC", "ghost"); !errors.Is(err, ledger.ErrUserNotFound) {
		t.Fatalf("expected unknown user, got %v", err)
	}
}

func TestServiceDepositBounds(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(store)
	ctx := context.Background()
	user := newUser(t, store, "a@example.com")

	if _, err := svc.Deposit(ctx, user.ID, "BTC", 10); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Fatalf("expected missing account, got %v", err)
	}
	if _, err := svc.AddAccount(ctx, user.ID, "BTC", "abc"); err != nil {
		t.Fatalf("add account: %v", err)
	}
	if _, err := svc.Deposit(ctx, user.ID, "BTC", 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := svc.Deposit(ctx, user.ID, "BTC", ledger.MaxBalance); !errors.Is(err, ledger.ErrBalanceOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
	acc, err := svc.Deposit(ctx, user.ID, "BTC", ledger.MaxBalance-1)
	if err != nil {
		t.Fatalf("deposit to ceiling: %v", err)
	}
	if acc.Balance != ledger.MaxBalance-1 {
		t.Fatalf("unexpected balance %d", acc.Balance)
	}
}

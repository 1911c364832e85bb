package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/congo-pay/coinledger/internal/ledger"
	"github.com/congo-pay/coinledger/internal/logging"
	"github.com/congo-pay/coinledger/internal/queue"
)

type failingQueue struct{ calls int }

func (q *failingQueue) Enqueue(context.Context, int64) error {
	q.calls++
	return errors.New("queue unavailable")
}

func seedUsers(t *testing.T, store ledger.Store) (ledger.User, ledger.User) {
	t.Helper()
	ctx := context.Background()
	alice, err := store.CreateUser(ctx, ledger.NewUser{Name: "alice", Email: "alice@example.com", MaxPerTransaction: 500, BitcoinAccountID: "alice01"})
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	bob, err := store.CreateUser(ctx, ledger.NewUser{Name: "bob", Email: "bob@example.com", MaxPerTransaction: 5, BitcoinAccountID: "bob01"})
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}
	if _, err := store.Deposit(ctx, alice.ID, ledger.BTC, 50); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	return alice, bob
}

func TestSubmitCreatesNewTransactionAndEnqueues(t *testing.T) {
	store := ledger.NewInMemory()
	q := queue.NewMemory(4)
	svc := NewService(store, q, logging.Discard())
	alice, bob := seedUsers(t, store)

	tx, err := svc.Submit(context.Background(), SubmitInput{Currency: "btc", Amount: 30, SourceUserID: alice.ID, TargetUserID: bob.ID})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if tx.State != ledger.StateNew || tx.Currency != ledger.BTC || tx.ProcessedAt != nil {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	if q.Len() != 1 {
		t.Fatalf("expected one queued id, got %d", q.Len())
	}

	// Submission never moves money.
	u, _ := store.FindUser(context.Background(), alice.ID)
	if u.Bitcoin.Balance != 50 {
		t.Fatalf("balance changed at submission: %d", u.Bitcoin.Balance)
	}
}

func TestSubmitSurvivesEnqueueFailure(t *testing.T) {
	store := ledger.NewInMemory()
	q := &failingQueue{}
	svc := NewService(store, q, logging.Discard())
	alice, bob := seedUsers(t, store)

	tx, err := svc.Submit(context.Background(), SubmitInput{Currency: "BTC", Amount: 1, SourceUserID: alice.ID, TargetUserID: bob.ID})
	if err != nil {
		t.Fatalf("submit should succeed when the queue fails: %v", err)
	}
	if q.calls != 1 {
		t.Fatalf("expected one enqueue attempt, got %d", q.calls)
	}

	oldest, err := store.OldestNewTransaction(context.Background())
	if err != nil || oldest.ID != tx.ID {
		t.Fatalf("transaction should be discoverable by scan, got %+v, %v", oldest, err)
	}
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(store, nil, logging.Discard())
	alice, bob := seedUsers(t, store)
	ctx := context.Background()

	cases := []struct {
		name  string
		input SubmitInput
		want  error
	}{
		{"zero amount", SubmitInput{Currency: "BTC", Amount: 0, SourceUserID: alice.ID, TargetUserID: bob.ID}, ErrInvalidAmount},
		{"unknown currency", SubmitInput{Currency: "DOGE", Amount: 1, SourceUserID: alice.ID, TargetUserID: bob.ID}, ledger.ErrUnsupportedCurrency},
		{"unknown source", SubmitInput{Currency: "BTC", Amount: 1, SourceUserID: 99, TargetUserID: bob.ID}, ledger.ErrUserNotFound},
		{"unknown target", SubmitInput{Currency: "BTC", Amount: 1, SourceUserID: alice.ID, TargetUserID: 99}, ledger.ErrUserNotFound},
		{"no eth account", SubmitInput{Currency: "ETH", Amount: 1, SourceUserID: alice.ID, TargetUserID: bob.ID}, ErrAccountMissing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Submit(ctx, tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	txs, _ := svc.List(ctx)
	if len(txs) != 0 {
		t.Fatalf("rejected submissions must not be stored, got %d", len(txs))
	}
}

func TestLookups(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(store, nil, logging.Discard())
	alice, bob := seedUsers(t, store)
	ctx := context.Background()

	first, err := svc.Submit(ctx, SubmitInput{Currency: "BTC", Amount: 1, SourceUserID: alice.ID, TargetUserID: bob.ID})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Submit(ctx, SubmitInput{Currency: "BTC", Amount: 2, SourceUserID: bob.ID, TargetUserID: alice.ID}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	state, err := svc.State(ctx, first.ID)
	if err != nil || state != ledger.StateNew {
		t.Fatalf("unexpected state %q, %v", state, err)
	}
	if _, err := svc.Get(ctx, 42); !errors.Is(err, ledger.ErrTransactionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	history, err := svc.History(ctx, bob.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("bob is source or target of both transactions, got %d", len(history))
	}
	if _, err := svc.History(ctx, 99); !errors.Is(err, ledger.ErrUserNotFound) {
		t.Fatalf("expected unknown user, got %v", err)
	}
}

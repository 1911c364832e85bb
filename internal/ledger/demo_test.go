package ledger

import (
	"context"
	"testing"
)

func TestSeedDemoIsIdempotent(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	if err := SeedDemo(ctx, s); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := SeedDemo(ctx, s); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 demo users, got %d", len(users))
	}
	if users[0].Bitcoin == nil || users[0].Bitcoin.Balance != 50 {
		t.Fatalf("expected funded bitcoin account, got %+v", users[0].Bitcoin)
	}

	pending, err := s.OldestNewTransaction(ctx)
	if err != nil {
		t.Fatalf("expected a pending transfer: %v", err)
	}
	if pending.SourceUserID != users[0].ID || pending.TargetUserID != users[1].ID {
		t.Fatalf("unexpected demo transfer %+v", pending)
	}
	txs, _ := s.ListTransactions(ctx)
	if len(txs) != 1 {
		t.Fatalf("seed must not duplicate transactions, got %d", len(txs))
	}
}

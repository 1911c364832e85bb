package identity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/congo-pay/coinledger/internal/ledger"
)

func TestRegisterCreatesAccounts(t *testing.T) {
	svc := NewService(ledger.NewInMemory())
	ctx := context.Background()

	user, err := svc.Register(ctx, Registration{
		Name:              "test1",
		Description:       "desc.",
		Email:             "te.st1@example.com",
		Password:          "correct horse",
		MaxPerTransaction: 500,
		BitcoinAccountID:  "001122334455",
		EthereumAccountID: "0x52908400098527886E0F7030069857D2E4169EE7",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if user.Bitcoin == nil || user.Bitcoin.ID != "001122334455" {
		t.Fatalf("expected bitcoin account, got %+v", user.Bitcoin)
	}
	if user.Ethereum == nil || user.Ethereum.ID != "52908400098527886e0f7030069857d2e4169ee7" {
		t.Fatalf("expected normalised ethereum account, got %+v", user.Ethereum)
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte("correct horse")); err != nil {
		t.Fatalf("password hash mismatch: %v", err)
	}

	got, err := svc.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != user.Email || got.MaxPerTransaction != 500 {
		t.Fatalf("unexpected user %+v", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(ledger.NewInMemory())
	ctx := context.Background()
	valid := Registration{Name: "n", Email: "n@example.com"}

	cases := []struct {
		name   string
		mutate func(*Registration)
		want   error
	}{
		{"empty name", func(r *Registration) { r.Name = "  " }, ErrInvalidName},
		{"long name", func(r *Registration) { r.Name = strings.Repeat("a", MaxNameLength+1) }, ErrInvalidName},
		{"long description", func(r *Registration) { r.Description = strings.Repeat("d", MaxDescriptionLength+1) }, ErrInvalidDescription},
		{"bad email", func(r *Registration) { r.Email = "not-an-email" }, ErrInvalidEmail},
		{"display name email", func(r *Registration) { r.Email = "Bob <bob@example.com>" }, ErrInvalidEmail},
		{"short password", func(r *Registration) { r.Password = "short" }, ErrInvalidPassword},
		{"negative limit", func(r *Registration) { r.MaxPerTransaction = -1 }, ErrInvalidLimit},
		{"bad bitcoin id", func(r *Registration) { r.BitcoinAccountID = "not valid!" }, ledger.ErrInvalidAccountID},
		{"bad ethereum id", func(r *Registration) { r.EthereumAccountID = "0x1234" }, ledger.ErrInvalidAccountID},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reg := valid
			tc.mutate(&reg)
			if _, err := svc.Register(ctx, reg); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	users, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("invalid registrations must not create users, got %d", len(users))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(ledger.NewInMemory())
	ctx := context.Background()

	if _, err := svc.Register(ctx, Registration{Name: "a", Email: "dup@example.com"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, Registration{Name: "b", Email: "DUP@example.com"}); !errors.Is(err, ledger.ErrDuplicateEmail) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
}

func TestRegisterDuplicateAccountID(t *testing.T) {
	svc := NewService(ledger.NewInMemory())
	ctx := context.Background()

	if _, err := svc.Register(ctx, Registration{Name: "a", Email: "a@example.com", BitcoinAccountID: "abc123"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, Registration{Name: "b", Email: "b@example.com", BitcoinAccountID: "abc123"})
	if !errors.Is(err, ledger.ErrDuplicateAccount) {
		t.Fatalf("expected duplicate account error, got %v", err)
	}
}

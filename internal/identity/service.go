package identity

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/congo-pay/coinledger/internal/ledger"
)

// Service manages the user lifecycle.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register validates the input, hashes the password and creates the user
// together with any initial currency accounts.
func (s *Service) Register(ctx context.Context, reg Registration) (ledger.User, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := validate(reg); err != nil {
		return ledger.User{}, err
	}

	in := ledger.NewUser{
		Name:              reg.Name,
		Description:       reg.Description,
		Email:             reg.Email,
		MaxPerTransaction: reg.MaxPerTransaction,
	}

	var err error
	if reg.BitcoinAccountID != "" {
		if in.BitcoinAccountID, err = ledger.NormalizeAccountID(ledger.BTC, reg.BitcoinAccountID); err != nil {
			return ledger.User{}, err
		}
	}
	if reg.EthereumAccountID != "" {
		if in.EthereumAccountID, err = ledger.NormalizeAccountID(ledger.ETH, reg.EthereumAccountID); err != nil {
			return ledger.User{}, err
		}
	}

	if reg.Password != "" {
		in.PasswordHash, err = bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
		if err != nil {
			return ledger.User{}, err
		}
	}

	return s.repo.CreateUser(ctx, in)
}

// Get returns a single user with their accounts.
func (s *Service) Get(ctx context.Context, id int64) (ledger.User, error) {
	return s.repo.FindUser(ctx, id)
}

// List returns every user in registration order.
func (s *Service) List(ctx context.Context) ([]ledger.User, error) {
	return s.repo.ListUsers(ctx)
}

func validate(reg Registration) error {
	if n := utf8.RuneCountInString(reg.Name); n == 0 || n > MaxNameLength {
		return ErrInvalidName
	}
	if utf8.RuneCountInString(reg.Description) > MaxDescriptionLength {
		return ErrInvalidDescription
	}
	if len(reg.Email) > MaxEmailLength {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(reg.Email)
	if err != nil || addr.Address != reg.Email {
		return ErrInvalidEmail
	}
	if reg.Password != "" && (len(reg.Password) < MinPasswordLength || len(reg.Password) > MaxPasswordLength) {
		return ErrInvalidPassword
	}
	if reg.MaxPerTransaction < 0 {
		return ErrInvalidLimit
	}
	return nil
}

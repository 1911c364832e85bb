package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/congo-pay/coinledger/internal/ledger"
)

const defaultEnqueueTimeout = time.Second

var (
	// ErrInvalidAmount indicates a non-positive transfer amount.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrAccountMissing indicates the source or target user has no account of the currency.
	ErrAccountMissing = errors.New("source or target user has no account of this currency")
)

// Store is the subset of the ledger the gateway needs.
type Store interface {
	FindUser(ctx context.Context, id int64) (ledger.User, error)
	CreateTransaction(ctx context.Context, tx ledger.NewTransaction) (ledger.Transaction, error)
	FindTransaction(ctx context.Context, id int64) (ledger.Transaction, error)
	ListTransactions(ctx context.Context) ([]ledger.Transaction, error)
	TransactionsForUser(ctx context.Context, userID int64) ([]ledger.Transaction, error)
}

// Enqueuer hands a transaction id to the processor.
type Enqueuer interface {
	Enqueue(ctx context.Context, id int64) error
}

// Service is the submission gateway: it records transfers as NEW and
// notifies the processor.
type Service struct {
	store          Store
	queue          Enqueuer
	logger         *slog.Logger
	enqueueTimeout time.Duration
}

// NewService constructs a payment service. A nil queue leaves every
// submission to the processor's store scan.
func NewService(store Store, queue Enqueuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, queue: queue, logger: logger, enqueueTimeout: defaultEnqueueTimeout}
}

// SubmitInput captures a transfer request.
type SubmitInput struct {
	Currency     string
	Amount       int64
	SourceUserID int64
	TargetUserID int64
}

// Submit validates the request, persists a NEW transaction and enqueues its
// id. A failed enqueue is logged and never fails the submission.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (ledger.Transaction, error) {
	currency, err := ledger.ParseCurrency(input.Currency)
	if err != nil {
		return ledger.Transaction{}, err
	}
	if input.Amount <= 0 {
		return ledger.Transaction{}, ErrInvalidAmount
	}

	source, err := s.store.FindUser(ctx, input.SourceUserID)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("source user %d: %w", input.SourceUserID, err)
	}
	target, err := s.store.FindUser(ctx, input.TargetUserID)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("target user %d: %w", input.TargetUserID, err)
	}
	if source.Account(currency) == nil || target.Account(currency) == nil {
		return ledger.Transaction{}, ErrAccountMissing
	}

	tx, err := s.store.CreateTransaction(ctx, ledger.NewTransaction{
		Currency:     currency,
		Amount:       input.Amount,
		SourceUserID: source.ID,
		TargetUserID: target.ID,
	})
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.enqueue(ctx, tx.ID)
	return tx, nil
}

func (s *Service) enqueue(ctx context.Context, id int64) {
	if s.queue == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.enqueueTimeout)
	defer cancel()
	if err := s.queue.Enqueue(ctx, id); err != nil {
		s.logger.Warn("enqueue failed, processor scan will pick the transaction up",
			slog.Int64("transaction_id", id),
			slog.Any("error", err),
		)
	}
}

// Get returns one transaction.
func (s *Service) Get(ctx context.Context, id int64) (ledger.Transaction, error) {
	return s.store.FindTransaction(ctx, id)
}

// State returns the lifecycle state of a transaction.
func (s *Service) State(ctx context.Context, id int64) (ledger.State, error) {
	tx, err := s.store.FindTransaction(ctx, id)
	if err != nil {
		return "", err
	}
	return tx.State, nil
}

// List returns every transaction in id order.
func (s *Service) List(ctx context.Context) ([]ledger.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

// History returns the transactions where the user is source or target.
func (s *Service) History(ctx context.Context, userID int64) ([]ledger.Transaction, error) {
	if _, err := s.store.FindUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.TransactionsForUser(ctx, userID)
}

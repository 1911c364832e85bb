package ledger

import (
	"context"
	"errors"
)

// MaxBalance is the exclusive upper bound for any account balance.
const MaxBalance int64 = 1_000_000_000

var (
	// ErrUserNotFound is returned when no user matches the requested identifier.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountNotFound is returned when no account of the requested currency exists.
	ErrAccountNotFound = errors.New("account not found")
	// ErrTransactionNotFound is returned when no transaction matches the lookup.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrDuplicateEmail occurs when a user with the same e-mail already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateAccount occurs when an account identifier is already taken for its currency.
	ErrDuplicateAccount = errors.New("account id already in use")
	// ErrAccountExists occurs when a user already holds an account of the currency.
	ErrAccountExists = errors.New("user already has an account of this currency")

	// ErrBalanceOutOfRange is raised by the store when a write would break 0 <= balance < MaxBalance.
	ErrBalanceOutOfRange = errors.New("balance out of range")
	// ErrNotClaimed indicates a settle attempt on a transaction that is not PROCESSING.
	ErrNotClaimed = errors.New("transaction is not in processing state")
	// ErrInvalidDecision indicates a decider returned a non-terminal state.
	ErrInvalidDecision = errors.New("decision is not a terminal state")
)

// Settlement carries everything a decider needs to judge a claimed transaction.
// Source and Target are nil when the user has no account of the transaction's
// currency. For a self-transfer both point at the same Account.
type Settlement struct {
	Transaction Transaction
	Source      *Account
	Target      *Account
	SendLimit   int64
}

// Decision is the terminal outcome chosen for a settlement. When State is
// StateDone the store persists the (already mutated) Source and Target balances.
type Decision struct {
	State  State
	Detail string
}

// Decider judges a settlement and may mutate its accounts in place.
type Decider func(s *Settlement) Decision

// Store defines the contract implemented by ledger backends (in-memory, Postgres).
type Store interface {
	CreateUser(ctx context.Context, user NewUser) (User, error)
	FindUser(ctx context.Context, id int64) (User, error)
	ListUsers(ctx context.Context) ([]User, error)

	AddAccount(ctx context.Context, userID int64, currency Currency, accountID string) (Account, error)
	FindAccount(ctx context.Context, currency Currency, accountID string) (Account, error)
	Deposit(ctx context.Context, userID int64, currency Currency, amount int64) (Account, error)

	CreateTransaction(ctx context.Context, tx NewTransaction) (Transaction, error)
	FindTransaction(ctx context.Context, id int64) (Transaction, error)
	ListTransactions(ctx context.Context) ([]Transaction, error)
	TransactionsForUser(ctx context.Context, userID int64) ([]Transaction, error)

	OldestNewTransaction(ctx context.Context) (Transaction, error)
	NewTransactionsBefore(ctx context.Context, id int64) ([]Transaction, error)
	// ClaimTransaction moves a NEW transaction to PROCESSING. It reports false,
	// without error, when the transaction is no longer NEW.
	ClaimTransaction(ctx context.Context, id int64) (bool, error)
	// SettleTransaction runs decide against a PROCESSING transaction and commits
	// balances, terminal state and processed timestamp as one unit.
	SettleTransaction(ctx context.Context, id int64, decide Decider) (Transaction, error)
}

func balanceInRange(balance int64) bool {
	return balance >= 0 && balance < MaxBalance
}

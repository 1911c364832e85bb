package ledger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"

	transactionColumns = `id, currency, amount, source_user_id, target_user_id, state, detail, created_at, processed_at`
	userColumns        = `id, name, description, email, password_hash, max_per_transaction, created_at`
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ Store = (*PostgresStore)(nil)

// PostgresStore persists users, accounts and transactions in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed store implementation.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the tables used by the store when they do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply ledger schema: %w", err)
	}
	return nil
}

// CreateUser inserts the user and any initial accounts in one transaction.
func (s *PostgresStore) CreateUser(ctx context.Context, in NewUser) (User, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return User{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	user := User{
		Name:              in.Name,
		Description:       in.Description,
		Email:             in.Email,
		PasswordHash:      in.PasswordHash,
		MaxPerTransaction: in.MaxPerTransaction,
	}
	if err := tx.QueryRow(ctx, `INSERT INTO users (name, description, email, password_hash, max_per_transaction)
        VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		in.Name, in.Description, in.Email, in.PasswordHash, in.MaxPerTransaction).Scan(&user.ID, &user.CreatedAt); err != nil {
		return User{}, mapPgError(err)
	}
	user.CreatedAt = user.CreatedAt.UTC()

	for _, c := range Currencies {
		id := in.BitcoinAccountID
		if c == ETH {
			id = in.EthereumAccountID
		}
		if id == "" {
			continue
		}
		if _, err := tx.Exec(ctx, `INSERT INTO accounts (currency, id, user_id, balance) VALUES ($1, $2, $3, 0)`,
			string(c), id, user.ID); err != nil {
			return User{}, mapPgError(err)
		}
		acc := &Account{Currency: c, ID: id, UserID: user.ID}
		if c == BTC {
			user.Bitcoin = acc
		} else {
			user.Ethereum = acc
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return User{}, err
	}
	return user, nil
}

// FindUser fetches a user together with its currency accounts.
func (s *PostgresStore) FindUser(ctx context.Context, id int64) (User, error) {
	user, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	if err := s.loadAccounts(ctx, s.db, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// ListUsers returns every user ordered by identifier.
func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		users = append(users, user)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range users {
		if err := s.loadAccounts(ctx, s.db, &users[i]); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// AddAccount attaches a new currency account to an existing user.
func (s *PostgresStore) AddAccount(ctx context.Context, userID int64, currency Currency, accountID string) (Account, error) {
	if !currency.Valid() {
		return Account{}, ErrUnsupportedCurrency
	}
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return Account{}, err
	}
	if !exists {
		return Account{}, ErrUserNotFound
	}
	if _, err := s.db.Exec(ctx, `INSERT INTO accounts (currency, id, user_id, balance) VALUES ($1, $2, $3, 0)`,
		string(currency), accountID, userID); err != nil {
		return Account{}, mapPgError(err)
	}
	return Account{Currency: currency, ID: accountID, UserID: userID}, nil
}

// FindAccount fetches an account by currency and identifier.
func (s *PostgresStore) FindAccount(ctx context.Context, currency Currency, accountID string) (Account, error) {
	acc, err := scanAccount(s.db.QueryRow(ctx, `SELECT currency, id, COALESCE(user_id, 0), balance
        FROM accounts WHERE currency = $1 AND id = $2`, string(currency), accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return acc, nil
}

// Deposit credits the user's account of the given currency.
func (s *PostgresStore) Deposit(ctx context.Context, userID int64, currency Currency, amount int64) (Account, error) {
	acc, err := scanAccount(s.db.QueryRow(ctx, `UPDATE accounts SET balance = balance + $3
        WHERE user_id = $1 AND currency = $2
        RETURNING currency, id, user_id, balance`, userID, string(currency), amount))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, findErr := s.FindUser(ctx, userID); errors.Is(findErr, ErrUserNotFound) {
				return Account{}, ErrUserNotFound
			}
			return Account{}, ErrAccountNotFound
		}
		return Account{}, mapPgError(err)
	}
	return acc, nil
}

// CreateTransaction stores a NEW transaction and returns it with its assigned id.
func (s *PostgresStore) CreateTransaction(ctx context.Context, in NewTransaction) (Transaction, error) {
	created := in.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return scanTransaction(s.db.QueryRow(ctx, `INSERT INTO transactions
        (currency, amount, source_user_id, target_user_id, state, created_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+transactionColumns,
		string(in.Currency), in.Amount, in.SourceUserID, in.TargetUserID, string(StateNew), created))
}

// FindTransaction fetches a transaction by identifier.
func (s *PostgresStore) FindTransaction(ctx context.Context, id int64) (Transaction, error) {
	tx, err := scanTransaction(s.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, err
	}
	return tx, nil
}

// ListTransactions returns all transactions in ascending id order.
func (s *PostgresStore) ListTransactions(ctx context.Context) ([]Transaction, error) {
	return queryTransactions(ctx, s.db, `SELECT `+transactionColumns+` FROM transactions ORDER BY id`)
}

// TransactionsForUser returns transactions where the user is source or target.
func (s *PostgresStore) TransactionsForUser(ctx context.Context, userID int64) ([]Transaction, error) {
	return queryTransactions(ctx, s.db, `SELECT `+transactionColumns+` FROM transactions
        WHERE source_user_id = $1 OR target_user_id = $1 ORDER BY id`, userID)
}

// OldestNewTransaction returns the NEW transaction with the lowest id.
func (s *PostgresStore) OldestNewTransaction(ctx context.Context) (Transaction, error) {
	tx, err := scanTransaction(s.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions
        WHERE state = $1 ORDER BY id LIMIT 1`, string(StateNew)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, err
	}
	return tx, nil
}

// NewTransactionsBefore returns NEW transactions with id strictly below the given one, ascending.
func (s *PostgresStore) NewTransactionsBefore(ctx context.Context, id int64) ([]Transaction, error) {
	return queryTransactions(ctx, s.db, `SELECT `+transactionColumns+` FROM transactions
        WHERE state = $1 AND id < $2 ORDER BY id`, string(StateNew), id)
}

// ClaimTransaction conditionally moves a transaction from NEW to PROCESSING.
func (s *PostgresStore) ClaimTransaction(ctx context.Context, id int64) (bool, error) {
	cmd, err := s.db.Exec(ctx, `UPDATE transactions SET state = $2 WHERE id = $1 AND state = $3`,
		id, string(StateProcessing), string(StateNew))
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() == 1 {
		return true, nil
	}
	if _, err := s.FindTransaction(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// SettleTransaction locks the transaction and both accounts, runs decide and
// commits balances and terminal state together.
func (s *PostgresStore) SettleTransaction(ctx context.Context, id int64, decide Decider) (Transaction, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	current, err := scanTransaction(tx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions
        WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, err
	}
	if current.State != StateProcessing {
		return current, ErrNotClaimed
	}

	settlement := &Settlement{Transaction: current}
	if err := tx.QueryRow(ctx, `SELECT max_per_transaction FROM users WHERE id = $1`, current.SourceUserID).
		Scan(&settlement.SendLimit); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return current, err
	}

	if current.Currency.Valid() {
		source, err := lockAccount(ctx, tx, current.SourceUserID, current.Currency)
		if err != nil {
			return current, err
		}
		target := source
		if current.TargetUserID != current.SourceUserID {
			if target, err = lockAccount(ctx, tx, current.TargetUserID, current.Currency); err != nil {
				return current, err
			}
		}
		settlement.Source, settlement.Target = source, target
	}

	decision := decide(settlement)
	if !CanTransition(StateProcessing, decision.State) {
		return current, fmt.Errorf("%w: %q", ErrInvalidDecision, decision.State)
	}

	if decision.State == StateDone {
		if settlement.Source == nil || settlement.Target == nil {
			return current, fmt.Errorf("%w: done without both accounts", ErrInvalidDecision)
		}
		for _, acc := range distinctAccounts(settlement.Source, settlement.Target) {
			if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = $3 WHERE currency = $1 AND id = $2`,
				string(acc.Currency), acc.ID, acc.Balance); err != nil {
				return current, mapPgError(err)
			}
		}
	}

	processed := time.Now().UTC()
	if _, err := tx.Exec(ctx, `UPDATE transactions SET state = $2, detail = $3, processed_at = $4 WHERE id = $1`,
		id, string(decision.State), decision.Detail, processed); err != nil {
		return current, err
	}

	if err := tx.Commit(ctx); err != nil {
		return current, err
	}

	current.State = decision.State
	current.Detail = decision.Detail
	current.ProcessedAt = &processed
	return current, nil
}

func (s *PostgresStore) loadAccounts(ctx context.Context, q querier, user *User) error {
	rows, err := q.Query(ctx, `SELECT currency, id, user_id, balance FROM accounts WHERE user_id = $1`, user.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return err
		}
		switch acc.Currency {
		case BTC:
			user.Bitcoin = &acc
		case ETH:
			user.Ethereum = &acc
		}
	}
	return rows.Err()
}

func lockAccount(ctx context.Context, tx pgx.Tx, userID int64, currency Currency) (*Account, error) {
	acc, err := scanAccount(tx.QueryRow(ctx, `SELECT currency, id, user_id, balance FROM accounts
        WHERE user_id = $1 AND currency = $2 FOR UPDATE`, userID, string(currency)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &acc, nil
}

func distinctAccounts(source, target *Account) []*Account {
	if source == target {
		return []*Account{source}
	}
	return []*Account{source, target}
}

func queryTransactions(ctx context.Context, q querier, sql string, args ...any) ([]Transaction, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		tx        Transaction
		currency  string
		state     string
		processed *time.Time
	)
	if err := row.Scan(&tx.ID, &currency, &tx.Amount, &tx.SourceUserID, &tx.TargetUserID,
		&state, &tx.Detail, &tx.CreatedAt, &processed); err != nil {
		return Transaction{}, err
	}
	tx.Currency = Currency(currency)
	tx.State = State(state)
	tx.CreatedAt = tx.CreatedAt.UTC()
	if processed != nil {
		p := processed.UTC()
		tx.ProcessedAt = &p
	}
	return tx, nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	if err := row.Scan(&user.ID, &user.Name, &user.Description, &user.Email,
		&user.PasswordHash, &user.MaxPerTransaction, &user.CreatedAt); err != nil {
		return User{}, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		acc      Account
		currency string
	)
	if err := row.Scan(&currency, &acc.ID, &acc.UserID, &acc.Balance); err != nil {
		return Account{}, err
	}
	acc.Currency = Currency(currency)
	return acc, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return ErrDuplicateEmail
		case pgErr.ConstraintName == "accounts_one_per_currency":
			return ErrAccountExists
		case pgErr.ConstraintName == "accounts_pkey":
			return ErrDuplicateAccount
		}
	case pgCheckViolation:
		if pgErr.ConstraintName == "check_balance" {
			return ErrBalanceOutOfRange
		}
	}
	return err
}

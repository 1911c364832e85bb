package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

type accountKey struct {
	currency Currency
	id       string
}

type inMemoryStore struct {
	mu           sync.RWMutex
	users        map[int64]*User
	emails       map[string]int64
	accounts     map[accountKey]*Account
	transactions []*Transaction // index i holds id i+1
	nextUserID   int64
	now          func() time.Time
}

// NewInMemory creates a concurrency-safe in-memory store useful for unit tests
// and development.
func NewInMemory() Store {
	return &inMemoryStore{
		users:    make(map[int64]*User),
		emails:   make(map[string]int64),
		accounts: make(map[accountKey]*Account),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *inMemoryStore) CreateUser(_ context.Context, in NewUser) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(in.Email)
	if _, exists := s.emails[email]; exists {
		return User{}, ErrDuplicateEmail
	}

	var pending []*Account
	for _, c := range Currencies {
		id := in.BitcoinAccountID
		if c == ETH {
			id = in.EthereumAccountID
		}
		if id == "" {
			continue
		}
		if _, exists := s.accounts[accountKey{c, id}]; exists {
			return User{}, ErrDuplicateAccount
		}
		pending = append(pending, &Account{Currency: c, ID: id})
	}

	s.nextUserID++
	user := &User{
		ID:                s.nextUserID,
		Name:              in.Name,
		Description:       in.Description,
		Email:             in.Email,
		PasswordHash:      in.PasswordHash,
		MaxPerTransaction: in.MaxPerTransaction,
		CreatedAt:         s.now(),
	}
	for _, acc := range pending {
		acc.UserID = user.ID
		s.accounts[accountKey{acc.Currency, acc.ID}] = acc
		s.attach(user, acc)
	}
	s.users[user.ID] = user
	s.emails[email] = user.ID
	return copyUser(user), nil
}

func (s *inMemoryStore) FindUser(_ context.Context, id int64) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return copyUser(user), nil
}

func (s *inMemoryStore) ListUsers(_ context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.users))
	for id := int64(1); id <= s.nextUserID; id++ {
		if user, ok := s.users[id]; ok {
			out = append(out, copyUser(user))
		}
	}
	return out, nil
}

func (s *inMemoryStore) AddAccount(_ context.Context, userID int64, currency Currency, accountID string) (Account, error) {
	if !currency.Valid() {
		return Account{}, ErrUnsupportedCurrency
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return Account{}, ErrUserNotFound
	}
	if _, exists := s.accounts[accountKey{currency, accountID}]; exists {
		return Account{}, ErrDuplicateAccount
	}
	if user.Account(currency) != nil {
		return Account{}, ErrAccountExists
	}

	acc := &Account{Currency: currency, ID: accountID, UserID: userID}
	s.accounts[accountKey{currency, accountID}] = acc
	s.attach(user, acc)
	return *acc, nil
}

func (s *inMemoryStore) FindAccount(_ context.Context, currency Currency, accountID string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[accountKey{currency, accountID}]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return *acc, nil
}

func (s *inMemoryStore) Deposit(_ context.Context, userID int64, currency Currency, amount int64) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return Account{}, ErrUserNotFound
	}
	acc := user.Account(currency)
	if acc == nil {
		return Account{}, ErrAccountNotFound
	}
	if !balanceInRange(acc.Balance + amount) {
		return Account{}, ErrBalanceOutOfRange
	}
	acc.Balance += amount
	return *acc, nil
}

func (s *inMemoryStore) CreateTransaction(_ context.Context, in NewTransaction) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := in.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	tx := &Transaction{
		ID:           int64(len(s.transactions) + 1),
		Currency:     in.Currency,
		Amount:       in.Amount,
		SourceUserID: in.SourceUserID,
		TargetUserID: in.TargetUserID,
		State:        StateNew,
		CreatedAt:    created,
	}
	s.transactions = append(s.transactions, tx)
	return *tx, nil
}

func (s *inMemoryStore) FindTransaction(_ context.Context, id int64) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transaction(id)
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return *tx, nil
}

func (s *inMemoryStore) ListTransactions(_ context.Context) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		out = append(out, *tx)
	}
	return out, nil
}

func (s *inMemoryStore) TransactionsForUser(_ context.Context, userID int64) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Transaction
	for _, tx := range s.transactions {
		if tx.SourceUserID == userID || tx.TargetUserID == userID {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (s *inMemoryStore) OldestNewTransaction(_ context.Context) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tx := range s.transactions {
		if tx.State == StateNew {
			return *tx, nil
		}
	}
	return Transaction{}, ErrTransactionNotFound
}

func (s *inMemoryStore) NewTransactionsBefore(_ context.Context, id int64) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Transaction
	for _, tx := range s.transactions {
		if tx.ID >= id {
			break
		}
		if tx.State == StateNew {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (s *inMemoryStore) ClaimTransaction(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transaction(id)
	if !ok {
		return false, ErrTransactionNotFound
	}
	if tx.State != StateNew {
		return false, nil
	}
	tx.State = StateProcessing
	return true, nil
}

// SettleTransaction holds the write lock for the whole decide-and-apply step,
// so readers never observe a debit without its credit.
func (s *inMemoryStore) SettleTransaction(_ context.Context, id int64, decide Decider) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transaction(id)
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	if tx.State != StateProcessing {
		return *tx, ErrNotClaimed
	}

	settlement := &Settlement{Transaction: *tx}
	var source, target *Account
	if user, ok := s.users[tx.SourceUserID]; ok {
		settlement.SendLimit = user.MaxPerTransaction
		source = user.Account(tx.Currency)
	}
	if user, ok := s.users[tx.TargetUserID]; ok {
		target = user.Account(tx.Currency)
	}
	settlement.Source, settlement.Target = workingCopies(source, target)

	decision := decide(settlement)
	if !CanTransition(StateProcessing, decision.State) {
		return *tx, fmt.Errorf("%w: %q", ErrInvalidDecision, decision.State)
	}

	if decision.State == StateDone {
		if source == nil || target == nil {
			return *tx, fmt.Errorf("%w: done without both accounts", ErrInvalidDecision)
		}
		if !balanceInRange(settlement.Source.Balance) || !balanceInRange(settlement.Target.Balance) {
			return *tx, ErrBalanceOutOfRange
		}
		source.Balance = settlement.Source.Balance
		target.Balance = settlement.Target.Balance
	}

	processed := s.now()
	tx.State = decision.State
	tx.Detail = decision.Detail
	tx.ProcessedAt = &processed
	return *tx, nil
}

func (s *inMemoryStore) transaction(id int64) (*Transaction, bool) {
	if id < 1 || id > int64(len(s.transactions)) {
		return nil, false
	}
	return s.transactions[id-1], true
}

func (s *inMemoryStore) attach(user *User, acc *Account) {
	switch acc.Currency {
	case BTC:
		user.Bitcoin = acc
	case ETH:
		user.Ethereum = acc
	}
}

// workingCopies detaches the accounts from the store so a decider cannot
// mutate stored balances directly. A self-transfer shares one copy.
func workingCopies(source, target *Account) (*Account, *Account) {
	var src, dst *Account
	if source != nil {
		c := *source
		src = &c
	}
	if target != nil {
		if source == target {
			dst = src
		} else {
			c := *target
			dst = &c
		}
	}
	return src, dst
}

func copyUser(u *User) User {
	out := *u
	if u.Bitcoin != nil {
		acc := *u.Bitcoin
		out.Bitcoin = &acc
	}
	if u.Ethereum != nil {
		acc := *u.Ethereum
		out.Ethereum = &acc
	}
	return out
}

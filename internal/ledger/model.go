package ledger

import "time"

// User is a registered account holder.
type User struct {
	ID                int64
	Name              string
	Description       string
	Email             string
	PasswordHash      []byte
	MaxPerTransaction int64
	Bitcoin           *Account
	Ethereum          *Account
	CreatedAt         time.Time
}

// Account returns the user's account for the currency, if any.
func (u User) Account(c Currency) *Account {
	switch c {
	case BTC:
		return u.Bitcoin
	case ETH:
		return u.Ethereum
	default:
		return nil
	}
}

// Account is a per-currency balance owned by at most one user.
type Account struct {
	Currency Currency
	ID       string
	UserID   int64
	Balance  int64
}

// Transaction is an append-only transfer record.
type Transaction struct {
	ID           int64
	Currency     Currency
	Amount       int64
	SourceUserID int64
	TargetUserID int64
	State        State
	Detail       string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}

// NewUser captures the fields required to register a user.
type NewUser struct {
	Name              string
	Description       string
	Email             string
	PasswordHash      []byte
	MaxPerTransaction int64
	BitcoinAccountID  string
	EthereumAccountID string
}

// NewTransaction captures a submitted transfer before it is stored.
type NewTransaction struct {
	Currency     Currency
	Amount       int64
	SourceUserID int64
	TargetUserID int64
	CreatedAt    time.Time
}

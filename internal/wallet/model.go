package wallet

import (
	"errors"
	"time"

	"github.com/congo-pay/coinledger/internal/ledger"
)

// ErrInvalidAmount indicates a non-positive deposit.
var ErrInvalidAmount = errors.New("amount must be positive")

// Balance is a point-in-time view of one currency account.
type Balance struct {
	UserID    int64
	Currency  ledger.Currency
	AccountID string
	Amount    int64
	AsOf      time.Time
}

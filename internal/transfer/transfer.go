// Package transfer decides whether a claimed transaction may move value and
// applies the resulting debit and credit.
package transfer

import (
	"fmt"

	"github.com/congo-pay/coinledger/internal/ledger"
)

// Reason identifies why a transfer was rejected. It is recorded verbatim in
// the transaction's terminal ERROR state.
type Reason string

const (
	ReasonUnsupportedCurrency Reason = "UnsupportedCurrency"
	ReasonMissingAccount      Reason = "MissingAccount"
	ReasonInsufficientFunds   Reason = "InsufficientFunds"
	ReasonLimitExceeded       Reason = "LimitExceeded"
	ReasonTargetLimitExceeded Reason = "TargetLimitExceeded"
)

// Rejection is an expected, recoverable validation outcome.
type Rejection struct {
	Reason Reason
	Detail string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

// State returns the terminal transaction state for the rejection.
func (r *Rejection) State() ledger.State {
	return ledger.ErrorState(string(r.Reason))
}

func reject(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Validate checks the transfer preconditions in order and returns the first
// failing one as a *Rejection, or nil when the transfer may be applied.
func Validate(tx ledger.Transaction, source, target *ledger.Account, sendLimit int64) *Rejection {
	if !tx.Currency.Valid() {
		return reject(ReasonUnsupportedCurrency, "unsupported currency %q", string(tx.Currency))
	}
	if source == nil || target == nil {
		return reject(ReasonMissingAccount, "source or target user has no %s account", tx.Currency)
	}
	if source.Balance < tx.Amount {
		return reject(ReasonInsufficientFunds, "balance %d is lower than amount %d", source.Balance, tx.Amount)
	}
	if tx.Amount > sendLimit {
		return reject(ReasonLimitExceeded, "amount %d exceeds send limit %d", tx.Amount, sendLimit)
	}
	if target.Balance+tx.Amount >= ledger.MaxBalance {
		return reject(ReasonTargetLimitExceeded, "target balance %d would reach the %d ceiling", target.Balance, ledger.MaxBalance)
	}
	return nil
}

// Apply debits source and credits target by amount. Callers must have
// validated the transfer and must persist both accounts in one unit of work.
func Apply(amount int64, source, target *ledger.Account) {
	source.Balance -= amount
	target.Balance += amount
}

// Decide is the ledger.Decider used by the processor: validate, then apply on
// success. On rejection no balance is touched.
func Decide(s *ledger.Settlement) ledger.Decision {
	if rej := Validate(s.Transaction, s.Source, s.Target, s.SendLimit); rej != nil {
		return ledger.Decision{State: rej.State(), Detail: rej.Detail}
	}
	Apply(s.Transaction.Amount, s.Source, s.Target)
	return ledger.Decision{State: ledger.StateDone}
}

var _ ledger.Decider = Decide

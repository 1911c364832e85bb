package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/coinledger/internal/ledger"
)

func settlement(amount, sourceBalance, targetBalance, limit int64) *ledger.Settlement {
	return &ledger.Settlement{
		Transaction: ledger.Transaction{ID: 1, Currency: ledger.BTC, Amount: amount, SourceUserID: 1, TargetUserID: 2},
		Source:      &ledger.Account{Currency: ledger.BTC, ID: "src", UserID: 1, Balance: sourceBalance},
		Target:      &ledger.Account{Currency: ledger.BTC, ID: "dst", UserID: 2, Balance: targetBalance},
		SendLimit:   limit,
	}
}

func TestDecide_Success(t *testing.T) {
	s := settlement(30, 50, 0, 500)

	decision := Decide(s)

	require.Equal(t, ledger.StateDone, decision.State)
	assert.Equal(t, int64(20), s.Source.Balance)
	assert.Equal(t, int64(30), s.Target.Balance)
	assert.Equal(t, int64(50), s.Source.Balance+s.Target.Balance, "value must be conserved")
}

func TestDecide_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		s      *ledger.Settlement
		reason Reason
	}{
		{name: "limit exceeded", s: settlement(30, 50, 0, 10), reason: ReasonLimitExceeded},
		{name: "insufficient funds", s: settlement(30, 5, 0, 500), reason: ReasonInsufficientFunds},
		{name: "target ceiling", s: settlement(20, 50, 999_999_990, 500), reason: ReasonTargetLimitExceeded},
		{name: "target exactly at ceiling", s: settlement(10, 50, 999_999_990, 500), reason: ReasonTargetLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := [2]int64{tt.s.Source.Balance, tt.s.Target.Balance}

			decision := Decide(tt.s)

			assert.Equal(t, ledger.ErrorState(string(tt.reason)), decision.State)
			assert.NotEmpty(t, decision.Detail)
			assert.Equal(t, before, [2]int64{tt.s.Source.Balance, tt.s.Target.Balance}, "balances must be unchanged")
		})
	}
}

func TestValidate_Order(t *testing.T) {
	tx := ledger.Transaction{Currency: "DOGE", Amount: 1_000}
	rej := Validate(tx, nil, nil, 0)
	require.NotNil(t, rej)
	assert.Equal(t, ReasonUnsupportedCurrency, rej.Reason)

	tx.Currency = ledger.ETH
	rej = Validate(tx, &ledger.Account{Balance: 0}, nil, 0)
	require.NotNil(t, rej)
	assert.Equal(t, ReasonMissingAccount, rej.Reason)

	// Insufficient funds wins over the send limit when both fail.
	rej = Validate(tx, &ledger.Account{Balance: 10}, &ledger.Account{}, 5)
	require.NotNil(t, rej)
	assert.Equal(t, ReasonInsufficientFunds, rej.Reason)

	// Send limit wins over the target ceiling.
	rej = Validate(tx, &ledger.Account{Balance: 5_000}, &ledger.Account{Balance: ledger.MaxBalance - 1}, 5)
	require.NotNil(t, rej)
	assert.Equal(t, ReasonLimitExceeded, rej.Reason)
}

func TestValidate_AmountEqualToLimitAndBalance(t *testing.T) {
	s := settlement(50, 50, 0, 50)
	assert.Nil(t, Validate(s.Transaction, s.Source, s.Target, s.SendLimit))
}

func TestDecide_SelfTransferNetsToZero(t *testing.T) {
	acc := &ledger.Account{Currency: ledger.BTC, ID: "same", Balance: 100}
	s := &ledger.Settlement{
		Transaction: ledger.Transaction{Currency: ledger.BTC, Amount: 40, SourceUserID: 1, TargetUserID: 1},
		Source:      acc,
		Target:      acc,
		SendLimit:   100,
	}

	decision := Decide(s)

	require.Equal(t, ledger.StateDone, decision.State)
	assert.Equal(t, int64(100), acc.Balance)
}

func TestRejectionError(t *testing.T) {
	rej := reject(ReasonLimitExceeded, "amount %d exceeds send limit %d", 30, 10)
	assert.Equal(t, "LimitExceeded: amount 30 exceeds send limit 10", rej.Error())
	assert.Equal(t, ledger.State("ERROR:LimitExceeded"), rej.State())
}

package ledger

// SeedBalance is a test helper that sets an account balance when using the in-memory store.
func SeedBalance(s Store, currency Currency, accountID string, amount int64) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		if acc, ok := mem.accounts[accountKey{currency, accountID}]; ok {
			acc.Balance = amount
		}
	}
}

// SetTransactionState is a test helper that forces a transaction into the given state.
func SetTransactionState(s Store, id int64, state State) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		if tx, ok := mem.transaction(id); ok {
			tx.State = state
		}
	}
}

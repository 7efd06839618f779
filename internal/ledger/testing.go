package ledger

// SeedBalance is a test helper that sets a member's balance directly when
// using the in-memory ledger. It bypasses history, so tests asserting the
// balance invariant should seed through Credit instead.
func SeedBalance(l Ledger, memberID string, amount int64) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		acct, exists := mem.accounts[memberID]
		if !exists {
			acct = &account{}
			mem.accounts[memberID] = acct
		}
		acct.balance = amount
	}
}

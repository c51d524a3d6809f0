package wallet

import (
	"context"
	"fmt"
	"sync"
)

// InMemory is a process-local wallet for development and tests. Accounts
// not explicitly funded hold zero.
type InMemory struct {
	mu       sync.Mutex
	balances map[string]float64
}

// NewInMemory creates an empty in-memory wallet.
func NewInMemory() *InMemory {
	return &InMemory{balances: make(map[string]float64)}
}

// Fund sets an account's balance.
func (w *InMemory) Fund(account string, amount float64) {
	w.mu.Lock()
	w.balances[account] = amount
	w.mu.Unlock()
}

// BalanceOf implements domain.Wallet.
func (w *InMemory) BalanceOf(_ context.Context, account string) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balances[account], nil
}

// Transfer implements domain.Wallet. Overdrafts are rejected.
func (w *InMemory) Transfer(_ context.Context, from, to string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %v", amount)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.balances[from] < amount {
		return fmt.Errorf("account %s holds %v, cannot transfer %v", from, w.balances[from], amount)
	}
	w.balances[from] -= amount
	w.balances[to] += amount
	return nil
}

// AccountID implements domain.Wallet.
func (w *InMemory) AccountID(principal string) string {
	return DeriveAccountID(principal)
}

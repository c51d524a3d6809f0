package domain

import (
	"context"
	"time"
)

// ─── Collaborator Interfaces ────────────────────────────────────────────────
// These interfaces define boundaries between layers. Infrastructure
// implements them; the application layer depends on them. The in-memory
// chain is a cache refreshed on explicit fetch — the Directory is the
// authoritative source of record.

// Directory abstracts the chain directory service.
type Directory interface {
	CreateChain(ctx context.Context, c Chain) error
	GetChain(ctx context.Context, id string) (Chain, error)
	ListChains(ctx context.Context) ([]Chain, error)
	SaveChain(ctx context.Context, c Chain) error
	AddMember(ctx context.Context, chainID string, m Member) error
	PutLoan(ctx context.Context, chainID string, l Loan) error
	UpdateLoanStatus(ctx context.Context, loanID string, status LoanStatus, repaidAt *time.Time) error
	MemberLoans(ctx context.Context, chainID, memberID string) ([]Loan, error)
}

// Wallet abstracts the external ledger/wallet service. Balances are never
// computed locally; loan eligibility is a pass-through query.
type Wallet interface {
	BalanceOf(ctx context.Context, account string) (float64, error)
	Transfer(ctx context.Context, from, to string, amount float64) error
	AccountID(principal string) string
}

// Clock supplies wall-clock time. Injectable so round and loan timing is
// testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

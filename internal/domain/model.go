// Package domain contains the pure rotation and ledger rules with ZERO
// infrastructure imports. This is the innermost ring of clean architecture —
// it depends on nothing.
package domain

import "time"

// ─── Chain Types ────────────────────────────────────────────────────────────

// ChainType classifies how a chain admits members.
type ChainType string

const (
	// ChainSocial admits members immediately via invite link.
	ChainSocial ChainType = "social"
	// ChainGlobal gates admission behind a vetting step.
	ChainGlobal ChainType = "global"
)

// Chain is a rotating savings group: a fixed funding target, an ordered
// member list, and a season split into fixed-length rounds.
type Chain struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Type          ChainType     `json:"type"`
	StartDate     time.Time     `json:"start_date"`
	RoundDuration time.Duration `json:"round_duration"` // whole seconds
	TotalRounds   int           `json:"total_rounds"`
	CurrentRound  int           `json:"current_round"` // 1-indexed
	Currency      string        `json:"currency"`
	TotalFunds    float64       `json:"total_funds"`
	CurrentFunds  float64       `json:"current_funds"`
	InterestRate  float64       `json:"interest_rate"` // percent
	FineRate      float64       `json:"fine_rate"`     // percent, late-payment penalty
	Members       []Member      `json:"members"`
	Loans         []Loan        `json:"loans"` // insertion order = creation order
}

// Validate checks the chain invariants.
func (c *Chain) Validate() error {
	if c.RoundDuration <= 0 {
		return ErrInvalidChain
	}
	if c.TotalRounds < 1 {
		return ErrInvalidChain
	}
	if c.CurrentRound < 1 || c.CurrentRound > c.TotalRounds {
		return ErrInvalidChain
	}
	if c.CurrentFunds < 0 || c.CurrentFunds > c.TotalFunds {
		return ErrInvalidChain
	}
	if c.Type != ChainSocial && c.Type != ChainGlobal {
		return ErrInvalidChain
	}
	return nil
}

// Clone returns a deep copy of the chain. The scheduler publishes clones so
// readers never alias its exclusively-owned snapshot.
func (c *Chain) Clone() Chain {
	out := *c
	out.Members = make([]Member, len(c.Members))
	copy(out.Members, c.Members)
	out.Loans = make([]Loan, len(c.Loans))
	for i, l := range c.Loans {
		out.Loans[i] = l
		if l.RepaymentDate != nil {
			t := *l.RepaymentDate
			out.Loans[i].RepaymentDate = &t
		}
	}
	return out
}

// FindMember returns a pointer into the chain's member list, or nil.
func (c *Chain) FindMember(id string) *Member {
	for i := range c.Members {
		if c.Members[i].ID == id {
			return &c.Members[i]
		}
	}
	return nil
}

// FindLoan returns a pointer into the chain's loan list, or nil.
func (c *Chain) FindLoan(id string) *Loan {
	for i := range c.Loans {
		if c.Loans[i].ID == id {
			return &c.Loans[i]
		}
	}
	return nil
}

// ─── Member ─────────────────────────────────────────────────────────────────

// Member is a participant in a chain. Contributed resets at each round
// boundary; IsLender marks the member as eligible to extend loans.
type Member struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Wallet             string  `json:"wallet"`
	Contributed        bool    `json:"contributed"`
	ContributionAmount float64 `json:"contribution_amount"`
	IsLender           bool    `json:"is_lender"`
}

// ─── Loan ───────────────────────────────────────────────────────────────────

// LoanStatus is the lifecycle state of a peer-to-peer loan.
type LoanStatus string

const (
	LoanPending   LoanStatus = "pending"
	LoanApproved  LoanStatus = "approved"
	LoanRepaid    LoanStatus = "repaid"
	LoanDefaulted LoanStatus = "defaulted"
)

// Terminal reports whether no further transitions are possible.
func (s LoanStatus) Terminal() bool {
	return s == LoanRepaid || s == LoanDefaulted
}

// Loan is credit extended between two members of the same chain.
// InterestRate is copied from the chain at creation time.
type Loan struct {
	ID            string     `json:"id"`
	BorrowerID    string     `json:"borrower_id"`
	LenderID      string     `json:"lender_id"` // empty until an eligible lender approves
	Amount        float64    `json:"amount"`
	InterestRate  float64    `json:"interest_rate"` // percent
	DueDate       time.Time  `json:"due_date"`
	Status        LoanStatus `json:"status"`
	RepaymentDate *time.Time `json:"repayment_date,omitempty"` // set only on repaid
}

// RepaymentAmount is principal plus simple interest.
func (l Loan) RepaymentAmount() float64 {
	return l.Amount * (1 + l.InterestRate/100)
}

// ─── TimeWindow ─────────────────────────────────────────────────────────────

// TimeWindow is the remaining time to a boundary, decomposed for display.
// Derived on every tick, never persisted.
type TimeWindow struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// IsZero reports whether the boundary has been reached.
func (w TimeWindow) IsZero() bool {
	return w.Days == 0 && w.Hours == 0 && w.Minutes == 0 && w.Seconds == 0
}

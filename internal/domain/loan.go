package domain

import "time"

// ─── Loan State Machine ─────────────────────────────────────────────────────
//
//	pending ──approve──▶ approved ──repay──▶ repaid
//	                        │
//	                        └──past due date (tick)──▶ defaulted
//
// repaid and defaulted are terminal. If a repayment lands exactly at or
// after the due date, repay wins when it is processed before the next
// scheduler tick; otherwise the tick defaults the loan first.

// NewLoan creates a pending loan. Interest rate is copied from the chain.
// The lender may be left unassigned; any lender-capable member can then
// claim the loan at approval time.
func (c *Chain) NewLoan(id, borrowerID, lenderID string, amount float64, dueDate time.Time) (Loan, error) {
	if amount <= 0 {
		return Loan{}, ErrInvalidLoan
	}
	if borrowerID == "" || borrowerID == lenderID {
		return Loan{}, ErrInvalidLoan
	}
	if c.FindMember(borrowerID) == nil {
		return Loan{}, ErrMemberNotFound
	}
	if lenderID != "" && c.FindMember(lenderID) == nil {
		return Loan{}, ErrMemberNotFound
	}
	loan := Loan{
		ID:           id,
		BorrowerID:   borrowerID,
		LenderID:     lenderID,
		Amount:       amount,
		InterestRate: c.InterestRate,
		DueDate:      dueDate,
		Status:       LoanPending,
	}
	c.Loans = append(c.Loans, loan)
	return loan, nil
}

// ApproveLoan transitions a pending loan to approved. Valid only for the
// designated lender, or for any lender-capable member when the loan has no
// lender assigned. lenderBalance is the wallet collaborator's answer to the
// eligibility query — the chain never computes balances itself.
func (c *Chain) ApproveLoan(loanID, lenderID string, lenderBalance float64) error {
	l := c.FindLoan(loanID)
	if l == nil {
		return ErrLoanNotFound
	}
	if l.Status != LoanPending {
		return ErrInvalidState
	}
	lender := c.FindMember(lenderID)
	if lender == nil {
		return ErrMemberNotFound
	}
	if lenderID == l.BorrowerID {
		return ErrInvalidLoan
	}
	if l.LenderID == "" {
		if !lender.IsLender {
			return ErrInvalidLoan
		}
	} else if l.LenderID != lenderID {
		return ErrInvalidLoan
	}
	if lenderBalance < l.Amount {
		return ErrInsufficientFunds
	}
	l.LenderID = lenderID
	l.Status = LoanApproved
	return nil
}

// RepayLoan transitions an approved loan to repaid and stamps the
// repayment date. Any other starting state is an illegal transition.
func (c *Chain) RepayLoan(loanID, borrowerID string, now time.Time) error {
	l := c.FindLoan(loanID)
	if l == nil {
		return ErrLoanNotFound
	}
	if l.BorrowerID != borrowerID {
		return ErrInvalidLoan
	}
	if l.Status != LoanApproved {
		return ErrInvalidState
	}
	t := now
	l.RepaymentDate = &t
	l.Status = LoanRepaid
	return nil
}

// ExpireLoan defaults an approved loan whose due date has passed. This is a
// scheduled transition, not a user action.
func (c *Chain) ExpireLoan(loanID string, now time.Time) error {
	l := c.FindLoan(loanID)
	if l == nil {
		return ErrLoanNotFound
	}
	if l.Status != LoanApproved {
		return ErrInvalidState
	}
	if !now.After(l.DueDate) {
		return ErrInvalidState
	}
	l.Status = LoanDefaulted
	return nil
}

// ExpireOverdueLoans defaults every approved loan past its due date and
// returns the loans that transitioned. Evaluated on every scheduler tick.
func (c *Chain) ExpireOverdueLoans(now time.Time) []Loan {
	var expired []Loan
	for i := range c.Loans {
		l := &c.Loans[i]
		if l.Status == LoanApproved && now.After(l.DueDate) {
			l.Status = LoanDefaulted
			expired = append(expired, *l)
		}
	}
	return expired
}

// ActiveLoans returns loans still in a non-terminal state.
func (c *Chain) ActiveLoans() []Loan {
	var active []Loan
	for _, l := range c.Loans {
		if !l.Status.Terminal() {
			active = append(active, l)
		}
	}
	return active
}

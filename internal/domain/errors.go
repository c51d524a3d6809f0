package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Chain errors
	ErrInvalidChain  = errors.New("chain violates its invariants")
	ErrChainNotFound = errors.New("chain not found")

	// Contribution errors
	ErrInvalidContribution = errors.New("invalid contribution")

	// Loan errors
	ErrInvalidLoan       = errors.New("invalid loan request")
	ErrInsufficientFunds = errors.New("lender balance below loan amount")
	ErrInvalidState      = errors.New("illegal loan state transition")
	ErrLoanNotFound      = errors.New("loan not found")

	// Membership errors
	ErrInvalidInviteToken = errors.New("invite token does not contain a chain id")
	ErrMemberNotFound     = errors.New("member not found")
	ErrVettingRequired    = errors.New("global chain requires a vetting grant")

	// Collaborator errors
	ErrExternalCall = errors.New("external collaborator call failed")
)

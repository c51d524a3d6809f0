// Package scheduler drives the periodic recomputation behind a live chain.
//
// A Scheduler is the single owner of one Chain snapshot. Each tick runs a
// strictly ordered sequence — advance rounds, expire overdue loans, publish
// the merged view — atomically under one mutex. Commands (contribute,
// request, approve, repay) serialize with ticks on the same mutex, so a
// tick is always complete or not-started, never half-applied.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NMsby/rotatechain-sub000/internal/domain"
	"github.com/NMsby/rotatechain-sub000/internal/infra/observability"
)

// Config controls scheduler behavior.
type Config struct {
	TickInterval time.Duration // default: 1s
	Clock        domain.Clock  // default: wall clock
}

// DefaultConfig returns the one-second wall-clock defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval: time.Second,
		Clock:        domain.SystemClock{},
	}
}

// View is the merged, read-only output published to the presentation layer
// after every tick.
type View struct {
	ChainID          string            `json:"chain_id"`
	Name             string            `json:"name"`
	Round            int               `json:"round"`
	TotalRounds      int               `json:"total_rounds"`
	RoundEndsIn      domain.TimeWindow `json:"round_ends_in"`
	SeasonEndsIn     domain.TimeWindow `json:"season_ends_in"`
	SeasonComplete   bool              `json:"season_complete"`
	ProgressPercent  float64           `json:"progress_percent"`
	ContributedCount int               `json:"contributed_count"`
	Members          []domain.Member   `json:"members"`
	Loans            []domain.Loan     `json:"loans"`
	ComputedAt       time.Time         `json:"computed_at"`
}

// Scheduler owns a live Chain snapshot and recomputes its derived state on
// a fixed tick.
type Scheduler struct {
	mu     sync.Mutex
	chain  domain.Chain
	dir    domain.Directory
	wallet domain.Wallet
	clock  domain.Clock

	interval time.Duration
	view     View
	subs     []chan View
}

// New creates a scheduler for the given chain snapshot. CurrentRound
// defaults to 1 when the snapshot's source of record supplied none.
func New(chain domain.Chain, dir domain.Directory, wallet domain.Wallet, cfg Config) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = domain.SystemClock{}
	}
	if chain.CurrentRound < 1 {
		chain.CurrentRound = 1
	}
	s := &Scheduler{
		chain:    chain,
		dir:      dir,
		wallet:   wallet,
		clock:    cfg.Clock,
		interval: cfg.TickInterval,
	}
	s.mu.Lock()
	s.tickLocked(context.Background())
	s.mu.Unlock()
	return s
}

// Run ticks until ctx is canceled. Ticks already started finish; none start
// after cancellation.
func (s *Scheduler) Run(ctx context.Context) {
	observability.ActiveSchedulers.Inc()
	defer observability.ActiveSchedulers.Dec()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[scheduler] chain %s stopping", s.chain.ID)
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs one recomputation cycle.
func (s *Scheduler) Tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickLocked(ctx)
}

// tickLocked runs the ordered tick sequence: round advance, loan expiry,
// view publication. Caller holds s.mu.
func (s *Scheduler) tickLocked(ctx context.Context) {
	now := s.clock.Now()
	c := &s.chain

	// (1)+(2) Round boundary passed: advance to the derived round (capped
	// at totalRounds), resetting every member's contributed flag once per
	// crossed boundary. Multiple boundaries may pass between ticks.
	target := domain.CurrentRoundAt(c.StartDate, c.RoundDuration, c.TotalRounds, now)
	advanced := c.CurrentRound < target
	for c.CurrentRound < target {
		c.CurrentRound++
		c.ResetContributions()
		observability.RoundsAdvanced.Inc()
		log.Printf("[scheduler] chain %s advanced to round %d/%d", c.ID, c.CurrentRound, c.TotalRounds)
	}
	if advanced {
		// Write the new round position back so directory reads don't trail
		// the live view until the next command.
		if err := s.dir.SaveChain(ctx, c.Clone()); err != nil {
			observability.ExternalCallFailures.WithLabelValues("save_chain").Inc()
			log.Printf("[scheduler] chain %s: persist round advance: %v", c.ID, err)
		}
	}

	// (3) Default every approved loan past its due date.
	for _, l := range c.ExpireOverdueLoans(now) {
		observability.LoanTransitions.WithLabelValues(string(domain.LoanDefaulted)).Inc()
		if err := s.dir.UpdateLoanStatus(ctx, l.ID, domain.LoanDefaulted, nil); err != nil {
			observability.ExternalCallFailures.WithLabelValues("update_loan_status").Inc()
			log.Printf("[scheduler] chain %s: persist default of loan %s: %v", c.ID, l.ID, err)
		}
	}

	// (4) Publish the merged view.
	s.view = s.buildViewLocked(now)
	observability.ChainProgress.WithLabelValues(c.ID).Set(c.DisplayProgress())
	observability.TicksTotal.Inc()
	for _, ch := range s.subs {
		select {
		case ch <- s.view:
		default: // slow subscriber keeps its stale view
		}
	}
}

func (s *Scheduler) buildViewLocked(now time.Time) View {
	c := s.chain.Clone()
	roundEnd := domain.RoundBoundary(c.StartDate, c.RoundDuration, c.CurrentRound)
	seasonEnd := domain.SeasonEnd(c.StartDate, c.RoundDuration, c.TotalRounds)
	return View{
		ChainID:          c.ID,
		Name:             c.Name,
		Round:            c.CurrentRound,
		TotalRounds:      c.TotalRounds,
		RoundEndsIn:      domain.Remaining(roundEnd, now),
		SeasonEndsIn:     domain.Remaining(seasonEnd, now),
		SeasonComplete:   c.CurrentRound == c.TotalRounds && !now.Before(seasonEnd),
		ProgressPercent:  c.ProgressPercent(),
		ContributedCount: c.ContributedCount(),
		Members:          c.Members,
		Loans:            c.Loans,
		ComputedAt:       now,
	}
}

// View returns the most recently published view.
func (s *Scheduler) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Subscribe returns a channel receiving every published view, and a cancel
// function that stops delivery and releases the subscription. Subscribers
// that fall behind miss intermediate views rather than blocking the tick.
func (s *Scheduler) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, c := range s.subs {
			if c == ch {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
	return ch, cancel
}

// Chain returns a copy of the owned snapshot.
func (s *Scheduler) Chain() domain.Chain {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chain.Clone()
}

// Refresh replaces the owned snapshot from the directory, the authoritative
// source of record.
func (s *Scheduler) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chain, err := s.dir.GetChain(ctx, s.chain.ID)
	if err != nil {
		observability.ExternalCallFailures.WithLabelValues("get_chain").Inc()
		return fmt.Errorf("%w: get chain: %w", domain.ErrExternalCall, err)
	}
	s.chain = chain
	s.tickLocked(ctx)
	return nil
}

// ─── Commands ───────────────────────────────────────────────────────────────
// Every command validates locally on a scratch clone, sequences the
// external collaborator call, then commits. A failed collaborator call
// leaves chain-local state unchanged and is never retried here.

// PayContribution transfers the member's contribution into the chain pot
// and records it. The record is written only after the transfer succeeded.
func (s *Scheduler) PayContribution(ctx context.Context, memberID string, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.chain.Clone()
	if err := work.RecordContribution(memberID, amount); err != nil {
		return err
	}
	member := s.chain.FindMember(memberID)

	pot := s.wallet.AccountID(s.chain.ID)
	if err := s.wallet.Transfer(ctx, member.Wallet, pot, amount); err != nil {
		observability.ExternalCallFailures.WithLabelValues("transfer").Inc()
		return fmt.Errorf("%w: contribution transfer: %w", domain.ErrExternalCall, err)
	}
	if err := s.dir.SaveChain(ctx, work.Clone()); err != nil {
		observability.ExternalCallFailures.WithLabelValues("save_chain").Inc()
		return fmt.Errorf("%w: save chain: %w", domain.ErrExternalCall, err)
	}

	s.chain = work
	s.view = s.buildViewLocked(s.clock.Now())
	observability.ContributionsRecorded.Inc()
	return nil
}

// RequestLoan creates a pending loan and registers it with the directory.
func (s *Scheduler) RequestLoan(ctx context.Context, borrowerID, lenderID string, amount float64, dueDate time.Time) (domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.chain.Clone()
	loan, err := work.NewLoan(uuid.NewString(), borrowerID, lenderID, amount, dueDate)
	if err != nil {
		return domain.Loan{}, err
	}
	if err := s.dir.PutLoan(ctx, s.chain.ID, loan); err != nil {
		observability.ExternalCallFailures.WithLabelValues("put_loan").Inc()
		return domain.Loan{}, fmt.Errorf("%w: put loan: %w", domain.ErrExternalCall, err)
	}

	s.chain = work
	s.view = s.buildViewLocked(s.clock.Now())
	observability.LoanTransitions.WithLabelValues(string(domain.LoanPending)).Inc()
	return loan, nil
}

// ApproveLoan checks the lender's balance with the wallet service, approves
// the loan, and triggers the lender→borrower transfer. Insufficient funds
// surface before any transfer is attempted.
func (s *Scheduler) ApproveLoan(ctx context.Context, loanID, lenderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lender := s.chain.FindMember(lenderID)
	if lender == nil {
		return domain.ErrMemberNotFound
	}
	balance, err := s.wallet.BalanceOf(ctx, lender.Wallet)
	if err != nil {
		observability.ExternalCallFailures.WithLabelValues("balance_of").Inc()
		return fmt.Errorf("%w: balance query: %w", domain.ErrExternalCall, err)
	}

	work := s.chain.Clone()
	if err := work.ApproveLoan(loanID, lenderID, balance); err != nil {
		return err
	}
	loan := work.FindLoan(loanID)
	borrower := work.FindMember(loan.BorrowerID)
	if borrower == nil {
		return domain.ErrMemberNotFound
	}

	if err := s.wallet.Transfer(ctx, lender.Wallet, borrower.Wallet, loan.Amount); err != nil {
		observability.ExternalCallFailures.WithLabelValues("transfer").Inc()
		return fmt.Errorf("%w: loan transfer: %w", domain.ErrExternalCall, err)
	}
	// Full snapshot write-back: approval may have just assigned the lender
	// on an open request, and the directory of record must carry it.
	if err := s.dir.SaveChain(ctx, work.Clone()); err != nil {
		observability.ExternalCallFailures.WithLabelValues("save_chain").Inc()
		return fmt.Errorf("%w: save chain: %w", domain.ErrExternalCall, err)
	}

	s.chain = work
	s.view = s.buildViewLocked(s.clock.Now())
	observability.LoanTransitions.WithLabelValues(string(domain.LoanApproved)).Inc()
	return nil
}

// RepayLoan transfers principal plus interest back to the lender and
// settles the loan. A repayment processed before the tick that would
// default the loan wins the race.
func (s *Scheduler) RepayLoan(ctx context.Context, loanID, borrowerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	work := s.chain.Clone()
	if err := work.RepayLoan(loanID, borrowerID, now); err != nil {
		return err
	}
	loan := work.FindLoan(loanID)
	borrower := work.FindMember(borrowerID)
	lender := work.FindMember(loan.LenderID)
	if borrower == nil || lender == nil {
		return domain.ErrMemberNotFound
	}

	if err := s.wallet.Transfer(ctx, borrower.Wallet, lender.Wallet, loan.RepaymentAmount()); err != nil {
		observability.ExternalCallFailures.WithLabelValues("transfer").Inc()
		return fmt.Errorf("%w: repayment transfer: %w", domain.ErrExternalCall, err)
	}
	if err := s.dir.UpdateLoanStatus(ctx, loanID, domain.LoanRepaid, loan.RepaymentDate); err != nil {
		observability.ExternalCallFailures.WithLabelValues("update_loan_status").Inc()
		return fmt.Errorf("%w: update loan: %w", domain.ErrExternalCall, err)
	}

	s.chain = work
	s.view = s.buildViewLocked(now)
	observability.LoanTransitions.WithLabelValues(string(domain.LoanRepaid)).Inc()
	return nil
}

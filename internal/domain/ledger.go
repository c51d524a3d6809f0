package domain

// ─── Contribution Ledger ────────────────────────────────────────────────────
// Chain-local contribution accounting. The actual funding transfer belongs
// to the wallet collaborator; RecordContribution must only be called after
// that transfer succeeded.

// ProgressPercent is currentFunds/totalFunds*100, unclamped. Consumers that
// need a display value use DisplayProgress; the raw value is kept for
// everyone else.
func (c *Chain) ProgressPercent() float64 {
	if c.TotalFunds == 0 {
		return 0
	}
	return c.CurrentFunds / c.TotalFunds * 100
}

// DisplayProgress clamps ProgressPercent to [0, 100].
func (c *Chain) DisplayProgress() float64 {
	p := c.ProgressPercent()
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ContributedCount is the number of members who contributed this round.
func (c *Chain) ContributedCount() int {
	n := 0
	for i := range c.Members {
		if c.Members[i].Contributed {
			n++
		}
	}
	return n
}

// RecordContribution marks a member as contributed for the active round and
// adds the amount to the chain's accumulated funds. A member contributes at
// most once per round; the second call is rejected regardless of ordering
// around round resets.
func (c *Chain) RecordContribution(memberID string, amount float64) error {
	if amount <= 0 {
		return ErrInvalidContribution
	}
	m := c.FindMember(memberID)
	if m == nil {
		return ErrMemberNotFound
	}
	if m.Contributed {
		return ErrInvalidContribution
	}
	m.Contributed = true
	c.CurrentFunds += amount
	if c.CurrentFunds > c.TotalFunds {
		c.CurrentFunds = c.TotalFunds
	}
	return nil
}

// ResetContributions clears every member's contributed flag for a new
// round. Explicitly driven by the scheduler at round boundaries, never
// automatic.
func (c *Chain) ResetContributions() {
	for i := range c.Members {
		c.Members[i].Contributed = false
	}
}

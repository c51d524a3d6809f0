// Package membership turns invite tokens into chain admissions.
//
// An invite token is a URL of the form {origin}/join/{chainId}. Tokens
// pointing at a canister-style local host carry the chain id behind the
// port, so parsing branches on the host shape. Both branches are kept
// as-is; collapsing them into a single self-describing token format is a
// product decision, not ours.
package membership

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/NMsby/rotatechain-sub000/internal/domain"
)

// canisterHostMarker identifies invite links that target a canister-style
// local host ("http://<canister>.localhost:4943/join/<id>").
const canisterHostMarker = ".localhost"

// ParseInviteToken extracts the chain id from an invite link.
//
// Canister-style tokens split on ":" — the third segment is the port plus
// path, whose third "/"-component is the id. Generic tokens split on "/" —
// the id is the third component after the double slash.
func ParseInviteToken(token string) (string, error) {
	var id string
	if strings.Contains(token, canisterHostMarker) {
		parts := strings.Split(token, ":")
		if len(parts) >= 3 {
			comps := strings.Split(parts[2], "/")
			if len(comps) >= 3 {
				id = comps[2]
			}
		}
	} else {
		comps := strings.Split(token, "/")
		if len(comps) >= 5 {
			id = comps[4]
		}
	}
	if id == "" {
		return "", domain.ErrInvalidInviteToken
	}
	return id, nil
}

// InviteLink produces a shareable link for a chain. When the origin already
// carries a join path segment the id is appended directly.
func InviteLink(origin, chainID string) string {
	origin = strings.TrimRight(origin, "/")
	if strings.HasSuffix(origin, "/join") {
		return origin + "/" + chainID
	}
	return origin + "/join/" + chainID
}

// Manager admits members into chains held by the directory.
type Manager struct {
	dir    domain.Directory
	wallet domain.Wallet
}

// New creates a membership manager.
func New(dir domain.Directory, wallet domain.Wallet) *Manager {
	return &Manager{dir: dir, wallet: wallet}
}

// AdmitParams describes a joining member. Vetted must already be true for
// global chains: vetting completion is produced by an external collaborator
// and modeled here as a capability the caller holds.
type AdmitParams struct {
	UserName           string
	WalletAddress      string
	ContributionAmount float64
	IsLender           bool
	Vetted             bool
}

// Join converts an invite token into an admission. Social chains admit
// immediately; global chains require the vetting grant.
func (m *Manager) Join(ctx context.Context, token string, p AdmitParams) (domain.Chain, domain.Member, error) {
	chainID, err := ParseInviteToken(token)
	if err != nil {
		return domain.Chain{}, domain.Member{}, err
	}
	return m.Admit(ctx, chainID, p)
}

// Admit appends a new member to the chain with contributed=false.
func (m *Manager) Admit(ctx context.Context, chainID string, p AdmitParams) (domain.Chain, domain.Member, error) {
	chain, err := m.dir.GetChain(ctx, chainID)
	if err != nil {
		return domain.Chain{}, domain.Member{}, fmt.Errorf("%w: get chain: %w", domain.ErrExternalCall, err)
	}
	if chain.Type == domain.ChainGlobal && !p.Vetted {
		return domain.Chain{}, domain.Member{}, domain.ErrVettingRequired
	}

	member := domain.Member{
		ID:                 uuid.NewString(),
		Name:               p.UserName,
		Wallet:             m.wallet.AccountID(p.WalletAddress),
		Contributed:        false,
		ContributionAmount: p.ContributionAmount,
		IsLender:           p.IsLender,
	}
	if err := m.dir.AddMember(ctx, chain.ID, member); err != nil {
		return domain.Chain{}, domain.Member{}, fmt.Errorf("%w: add member: %w", domain.ErrExternalCall, err)
	}
	chain.Members = append(chain.Members, member)
	return chain, member, nil
}

// Leave removes a member from a chain. A member with pending or approved
// loans on either side stays until those loans settle.
func (m *Manager) Leave(ctx context.Context, chainID, memberID string) error {
	chain, err := m.dir.GetChain(ctx, chainID)
	if err != nil {
		return fmt.Errorf("%w: get chain: %w", domain.ErrExternalCall, err)
	}
	if chain.FindMember(memberID) == nil {
		return domain.ErrMemberNotFound
	}
	for _, l := range chain.ActiveLoans() {
		if l.BorrowerID == memberID || l.LenderID == memberID {
			return domain.ErrInvalidState
		}
	}
	kept := chain.Members[:0]
	for _, mem := range chain.Members {
		if mem.ID != memberID {
			kept = append(kept, mem)
		}
	}
	chain.Members = kept
	if err := m.dir.SaveChain(ctx, chain); err != nil {
		return fmt.Errorf("%w: save chain: %w", domain.ErrExternalCall, err)
	}
	return nil
}

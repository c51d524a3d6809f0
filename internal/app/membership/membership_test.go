package membership

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NMsby/rotatechain-sub000/internal/domain"
)

// ─── Fakes ──────────────────────────────────────────────────────────────────

type fakeDirectory struct {
	chains map[string]domain.Chain
	added  []domain.Member
	saved  []domain.Chain
}

func newFakeDirectory(chains ...domain.Chain) *fakeDirectory {
	d := &fakeDirectory{chains: make(map[string]domain.Chain)}
	for _, c := range chains {
		d.chains[c.ID] = c
	}
	return d
}

func (d *fakeDirectory) CreateChain(_ context.Context, c domain.Chain) error {
	d.chains[c.ID] = c
	return nil
}

func (d *fakeDirectory) GetChain(_ context.Context, id string) (domain.Chain, error) {
	c, ok := d.chains[id]
	if !ok {
		return domain.Chain{}, domain.ErrChainNotFound
	}
	return c.Clone(), nil
}

func (d *fakeDirectory) ListChains(_ context.Context) ([]domain.Chain, error) {
	var out []domain.Chain
	for _, c := range d.chains {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (d *fakeDirectory) SaveChain(_ context.Context, c domain.Chain) error {
	d.chains[c.ID] = c
	d.saved = append(d.saved, c)
	return nil
}

func (d *fakeDirectory) AddMember(_ context.Context, chainID string, m domain.Member) error {
	c, ok := d.chains[chainID]
	if !ok {
		return domain.ErrChainNotFound
	}
	c.Members = append(c.Members, m)
	d.chains[chainID] = c
	d.added = append(d.added, m)
	return nil
}

func (d *fakeDirectory) PutLoan(_ context.Context, chainID string, l domain.Loan) error {
	c := d.chains[chainID]
	c.Loans = append(c.Loans, l)
	d.chains[chainID] = c
	return nil
}

func (d *fakeDirectory) UpdateLoanStatus(_ context.Context, loanID string, status domain.LoanStatus, repaidAt *time.Time) error {
	return nil
}

func (d *fakeDirectory) MemberLoans(_ context.Context, chainID, memberID string) ([]domain.Loan, error) {
	var out []domain.Loan
	for _, l := range d.chains[chainID].Loans {
		if l.BorrowerID == memberID || l.LenderID == memberID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeWallet struct{}

func (fakeWallet) BalanceOf(_ context.Context, _ string) (float64, error) { return 0, nil }
func (fakeWallet) Transfer(_ context.Context, _, _ string, _ float64) error {
	return nil
}
func (fakeWallet) AccountID(principal string) string { return "acct-" + principal }

func socialChain(id string) domain.Chain {
	return domain.Chain{
		ID:            id,
		Name:          "Neighbours",
		Type:          domain.ChainSocial,
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		RoundDuration: 604800 * time.Second,
		TotalRounds:   4,
		CurrentRound:  1,
		TotalFunds:    4000,
	}
}

// ─── Token Parsing Tests ────────────────────────────────────────────────────

func TestParseInviteToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		want    string
		wantErr bool
	}{
		{
			name:  "generic https link",
			token: "https://app.example.com/join/abc123",
			want:  "abc123",
		},
		{
			name:  "canister-style local host",
			token: "http://rrkah-fqaaa.localhost:4943/join/abc123",
			want:  "abc123",
		},
		{
			name:    "generic link without id",
			token:   "https://app.example.com/join",
			wantErr: true,
		},
		{
			name:    "canister link without id",
			token:   "http://rrkah-fqaaa.localhost:4943",
			wantErr: true,
		},
		{
			name:    "empty token",
			token:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInviteToken(tt.token)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidInviteToken) {
					t.Errorf("err = %v, want ErrInvalidInviteToken", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseInviteToken: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseInviteToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInviteLink_RoundTrip(t *testing.T) {
	origins := []string{
		"https://app.example.com",
		"https://app.example.com/",
		"https://app.example.com/join",
	}
	for _, origin := range origins {
		t.Run(origin, func(t *testing.T) {
			link := InviteLink(origin, "abc123")
			got, err := ParseInviteToken(link)
			if err != nil {
				t.Fatalf("ParseInviteToken(%q): %v", link, err)
			}
			if got != "abc123" {
				t.Errorf("round trip = %q, want abc123 (link %q)", got, link)
			}
		})
	}
}

// ─── Admission Tests ────────────────────────────────────────────────────────

func TestJoin_SocialChain(t *testing.T) {
	dir := newFakeDirectory(socialChain("abc123"))
	mgr := New(dir, fakeWallet{})

	chain, member, err := mgr.Join(context.Background(), "https://app.example.com/join/abc123", AdmitParams{
		UserName:           "Asha",
		WalletAddress:      "principal-1",
		ContributionAmount: 1000,
		IsLender:           true,
	})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if chain.ID != "abc123" {
		t.Errorf("chain ID = %q, want abc123", chain.ID)
	}
	if member.Contributed {
		t.Error("new member must start with contributed=false")
	}
	if member.Wallet != "acct-principal-1" {
		t.Errorf("wallet = %q, want derived account id", member.Wallet)
	}
	if len(dir.added) != 1 {
		t.Fatalf("directory recorded %d admissions, want 1", len(dir.added))
	}
}

func TestAdmit_GlobalChainRequiresVetting(t *testing.T) {
	global := socialChain("g1")
	global.Type = domain.ChainGlobal
	dir := newFakeDirectory(global)
	mgr := New(dir, fakeWallet{})

	_, _, err := mgr.Admit(context.Background(), "g1", AdmitParams{UserName: "Ben"})
	if !errors.Is(err, domain.ErrVettingRequired) {
		t.Fatalf("unvetted admit err = %v, want ErrVettingRequired", err)
	}
	if len(dir.added) != 0 {
		t.Error("unvetted admission reached the directory")
	}

	_, _, err = mgr.Admit(context.Background(), "g1", AdmitParams{UserName: "Ben", Vetted: true})
	if err != nil {
		t.Fatalf("vetted admit: %v", err)
	}
}

func TestAdmit_UnknownChain(t *testing.T) {
	mgr := New(newFakeDirectory(), fakeWallet{})
	_, _, err := mgr.Admit(context.Background(), "nope", AdmitParams{UserName: "Cleo"})
	if !errors.Is(err, domain.ErrExternalCall) {
		t.Errorf("err = %v, want wrapped ErrExternalCall", err)
	}
}

func TestLeave_BlockedByOpenLoan(t *testing.T) {
	chain := socialChain("abc123")
	chain.Members = []domain.Member{
		{ID: "m1", Name: "Asha", IsLender: true},
		{ID: "m2", Name: "Ben"},
	}
	chain.Loans = []domain.Loan{{
		ID: "l1", BorrowerID: "m2", LenderID: "m1",
		Amount: 100, Status: domain.LoanApproved,
		DueDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}}
	dir := newFakeDirectory(chain)
	mgr := New(dir, fakeWallet{})

	err := mgr.Leave(context.Background(), "abc123", "m2")
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("leave with open loan err = %v, want ErrInvalidState", err)
	}

	settled := dir.chains["abc123"]
	settled.FindLoan("l1").Status = domain.LoanRepaid
	if err := mgr.Leave(context.Background(), "abc123", "m2"); err != nil {
		t.Fatalf("leave after settlement: %v", err)
	}
	if got := len(dir.chains["abc123"].Members); got != 1 {
		t.Errorf("chain has %d members after leave, want 1", got)
	}
}

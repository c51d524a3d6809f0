package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/NMsby/rotatechain-sub000/internal/app/membership"
	"github.com/NMsby/rotatechain-sub000/internal/domain"
)

// ─── Chains ─────────────────────────────────────────────────────────────────

type createChainRequest struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"` // "social" or "global"
	StartDate    string  `json:"start_date,omitempty"`
	Frequency    string  `json:"frequency"` // "weekly", "monthly", ... or seconds
	TotalRounds  int     `json:"total_rounds"`
	Currency     string  `json:"currency"`
	TotalFunds   float64 `json:"total_funds"`
	InterestRate float64 `json:"interest_rate"`
	FineRate     float64 `json:"fine_rate"`

	Creator struct {
		Name               string  `json:"name"`
		WalletAddress      string  `json:"wallet_address"`
		ContributionAmount float64 `json:"contribution_amount"`
		IsLender           bool    `json:"is_lender"`
	} `json:"creator"`
}

func (s *Server) handleCreateChain(w http.ResponseWriter, r *http.Request) {
	var req createChainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start := time.Now().UTC()
	if req.StartDate != "" {
		t, err := time.Parse(time.RFC3339, req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start_date must be RFC3339")
			return
		}
		start = t
	}

	chainType := domain.ChainSocial
	if req.Type == string(domain.ChainGlobal) {
		chainType = domain.ChainGlobal
	}

	chain := domain.Chain{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Type:          chainType,
		StartDate:     start,
		RoundDuration: domain.ParseFrequency(req.Frequency),
		TotalRounds:   req.TotalRounds,
		CurrentRound:  1,
		Currency:      req.Currency,
		TotalFunds:    req.TotalFunds,
		InterestRate:  req.InterestRate,
		FineRate:      req.FineRate,
	}
	if req.Creator.Name != "" {
		chain.Members = append(chain.Members, domain.Member{
			ID:                 uuid.NewString(),
			Name:               req.Creator.Name,
			Wallet:             s.wallet.AccountID(req.Creator.WalletAddress),
			ContributionAmount: req.Creator.ContributionAmount,
			IsLender:           req.Creator.IsLender,
		})
	}
	if err := chain.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.dir.CreateChain(r.Context(), chain); err != nil {
		writeDomainError(w, err)
		return
	}
	s.registry.Start(context.WithoutCancel(r.Context()), chain)

	writeJSON(w, http.StatusCreated, chain)
}

// refreshScheduler re-syncs a live scheduler with the directory after a
// membership change. A chain not currently being served has nothing to sync.
func (s *Server) refreshScheduler(r *http.Request, chainID string) {
	sched, ok := s.registry.Get(chainID)
	if !ok {
		return
	}
	if err := sched.Refresh(r.Context()); err != nil {
		log.Printf("[api] refresh chain %s: %v", chainID, err)
	}
}

func (s *Server) handleListChains(w http.ResponseWriter, r *http.Request) {
	chains, err := s.dir.ListChains(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chains": chains,
		"count":  len(chains),
	})
}

func (s *Server) handleGetChain(w http.ResponseWriter, r *http.Request) {
	chain, err := s.dir.GetChain(r.Context(), chi.URLParam(r, "chainID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chain)
}

func (s *Server) handleInviteLink(w http.ResponseWriter, r *http.Request) {
	chainID := chi.URLParam(r, "chainID")
	if _, err := s.dir.GetChain(r.Context(), chainID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"invite_link": membership.InviteLink(s.origin, chainID),
	})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sched, err := s.chainScheduler(r.Context(), chi.URLParam(r, "chainID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sched.View())
}

// ─── Membership ─────────────────────────────────────────────────────────────

type admitRequest struct {
	Token              string  `json:"token,omitempty"` // join only
	UserName           string  `json:"user_name"`
	WalletAddress      string  `json:"wallet_address"`
	ContributionAmount float64 `json:"contribution_amount"`
	IsLender           bool    `json:"is_lender"`
	Vetted             bool    `json:"vetted"`
}

func (a admitRequest) params() membership.AdmitParams {
	return membership.AdmitParams{
		UserName:           a.UserName,
		WalletAddress:      a.WalletAddress,
		ContributionAmount: a.ContributionAmount,
		IsLender:           a.IsLender,
		Vetted:             a.Vetted,
	}
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req admitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	chain, member, err := s.members.Join(r.Context(), req.Token, req.params())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.refreshScheduler(r, chain.ID)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"chain":  chain,
		"member": member,
	})
}

func (s *Server) handleAdmit(w http.ResponseWriter, r *http.Request) {
	var req admitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	chainID := chi.URLParam(r, "chainID")
	chain, member, err := s.members.Admit(r.Context(), chainID, req.params())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.refreshScheduler(r, chain.ID)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"chain":  chain,
		"member": member,
	})
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	chainID := chi.URLParam(r, "chainID")
	if err := s.members.Leave(r.Context(), chainID, chi.URLParam(r, "memberID")); err != nil {
		writeDomainError(w, err)
		return
	}
	s.refreshScheduler(r, chainID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

func (s *Server) handleMemberLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := s.dir.MemberLoans(r.Context(), chi.URLParam(r, "chainID"), chi.URLParam(r, "memberID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"loans": loans,
		"count": len(loans),
	})
}

// ─── Contributions ──────────────────────────────────────────────────────────

type contributionRequest struct {
	MemberID string  `json:"member_id"`
	Amount   float64 `json:"amount"`
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	var req contributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sched, err := s.chainScheduler(r.Context(), chi.URLParam(r, "chainID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := sched.PayContribution(r.Context(), req.MemberID, req.Amount); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sched.View())
}

// ─── Loans ──────────────────────────────────────────────────────────────────

type loanRequest struct {
	BorrowerID string  `json:"borrower_id"`
	LenderID   string  `json:"lender_id,omitempty"`
	Amount     float64 `json:"amount"`
	DueDate    string  `json:"due_date"` // RFC3339
}

func (s *Server) handleRequestLoan(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	due, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "due_date must be RFC3339")
		return
	}
	sched, err := s.chainScheduler(r.Context(), chi.URLParam(r, "chainID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	loan, err := sched.RequestLoan(r.Context(), req.BorrowerID, req.LenderID, req.Amount, due)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

type approveRequest struct {
	LenderID string `json:"lender_id"`
}

func (s *Server) handleApproveLoan(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sched, err := s.chainScheduler(r.Context(), chi.URLParam(r, "chainID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	loanID := chi.URLParam(r, "loanID")
	if err := sched.ApproveLoan(r.Context(), loanID, req.LenderID); err != nil {
		writeDomainError(w, err)
		return
	}
	chain := sched.Chain()
	writeJSON(w, http.StatusOK, chain.FindLoan(loanID))
}

type repayRequest struct {
	BorrowerID string `json:"borrower_id"`
}

func (s *Server) handleRepayLoan(w http.ResponseWriter, r *http.Request) {
	var req repayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sched, err := s.chainScheduler(r.Context(), chi.URLParam(r, "chainID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	loanID := chi.URLParam(r, "loanID")
	if err := sched.RepayLoan(r.Context(), loanID, req.BorrowerID); err != nil {
		writeDomainError(w, err)
		return
	}
	chain := sched.Chain()
	writeJSON(w, http.StatusOK, chain.FindLoan(loanID))
}

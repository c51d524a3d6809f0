// Package api provides the HTTP surface of the rotation engine: chain
// CRUD, invite join, contribution and loan commands, and the live view
// published by each chain's scheduler.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NMsby/rotatechain-sub000/internal/app/membership"
	"github.com/NMsby/rotatechain-sub000/internal/app/scheduler"
	"github.com/NMsby/rotatechain-sub000/internal/domain"
)

// Version is the engine version reported by /api/version.
const Version = "0.1.0"

// Server is the rotation engine HTTP API server.
type Server struct {
	dir            domain.Directory
	wallet         domain.Wallet
	members        *membership.Manager
	registry       *scheduler.Registry
	origin         string
	metricsEnabled bool
}

// NewServer creates a new API server. origin is the public origin used in
// invite links.
func NewServer(dir domain.Directory, wallet domain.Wallet, members *membership.Manager, registry *scheduler.Registry, origin string) *Server {
	return &Server{
		dir:      dir,
		wallet:   wallet,
		members:  members,
		registry: registry,
		origin:   origin,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": Version})
	})

	r.Route("/api/chains", func(r chi.Router) {
		r.Get("/", s.handleListChains)
		r.Post("/", s.handleCreateChain)
		r.Route("/{chainID}", func(r chi.Router) {
			r.Get("/", s.handleGetChain)
			r.Get("/invite", s.handleInviteLink)
			r.Get("/view", s.handleView)
			r.Post("/members", s.handleAdmit)
			r.Delete("/members/{memberID}", s.handleLeave)
			r.Get("/members/{memberID}/loans", s.handleMemberLoans)
			r.Post("/contributions", s.handleContribute)
			r.Post("/loans", s.handleRequestLoan)
			r.Post("/loans/{loanID}/approve", s.handleApproveLoan)
			r.Post("/loans/{loanID}/repay", s.handleRepayLoan)
		})
	})

	r.Post("/api/join", s.handleJoin)

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// chainScheduler returns the live scheduler for a chain, starting one from
// the directory snapshot when the chain is not yet being served.
func (s *Server) chainScheduler(ctx context.Context, chainID string) (*scheduler.Scheduler, error) {
	if sched, ok := s.registry.Get(chainID); ok {
		return sched, nil
	}
	chain, err := s.dir.GetChain(ctx, chainID)
	if err != nil {
		return nil, err
	}
	return s.registry.Start(context.WithoutCancel(ctx), chain), nil
}

// ─── Response Helpers ───────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeDomainError maps a core error onto its HTTP status. Every error is
// a single human-readable message — no partial-success payloads.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrChainNotFound),
		errors.Is(err, domain.ErrLoanNotFound),
		errors.Is(err, domain.ErrMemberNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidContribution),
		errors.Is(err, domain.ErrInvalidLoan),
		errors.Is(err, domain.ErrInvalidInviteToken),
		errors.Is(err, domain.ErrInvalidChain):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrVettingRequired):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrExternalCall):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// corsMiddleware adds CORS headers for the browser dashboard.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

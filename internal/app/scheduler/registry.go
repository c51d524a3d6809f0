package scheduler

import (
	"context"
	"sync"

	"github.com/NMsby/rotatechain-sub000/internal/domain"
)

// Registry runs one scheduler per served chain. There is exactly one tick
// source per chain; consumers subscribe to its published view instead of
// re-deriving from raw timestamps.
type Registry struct {
	mu      sync.Mutex
	dir     domain.Directory
	wallet  domain.Wallet
	cfg     Config
	scheds  map[string]*Scheduler
	cancels map[string]context.CancelFunc
}

// NewRegistry creates an empty scheduler registry.
func NewRegistry(dir domain.Directory, wallet domain.Wallet, cfg Config) *Registry {
	return &Registry{
		dir:     dir,
		wallet:  wallet,
		cfg:     cfg,
		scheds:  make(map[string]*Scheduler),
		cancels: make(map[string]context.CancelFunc),
	}
}

// Start begins ticking a chain. Starting an already-served chain returns
// the existing scheduler.
func (r *Registry) Start(ctx context.Context, chain domain.Chain) *Scheduler {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.scheds[chain.ID]; ok {
		return s
	}
	s := New(chain, r.dir, r.wallet, r.cfg)
	runCtx, cancel := context.WithCancel(ctx)
	r.scheds[chain.ID] = s
	r.cancels[chain.ID] = cancel
	go s.Run(runCtx)
	return s
}

// Get returns the scheduler serving a chain, if any.
func (r *Registry) Get(chainID string) (*Scheduler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scheds[chainID]
	return s, ok
}

// Stop cancels the tick loop for one chain.
func (r *Registry) Stop(chainID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cancel, ok := r.cancels[chainID]; ok {
		cancel()
		delete(r.cancels, chainID)
		delete(r.scheds, chainID)
	}
}

// StopAll cancels every tick loop, for view teardown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, cancel := range r.cancels {
		cancel()
		delete(r.cancels, id)
		delete(r.scheds, id)
	}
}

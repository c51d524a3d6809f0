package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/NMsby/rotatechain-sub000/internal/api"
	"github.com/NMsby/rotatechain-sub000/internal/app/membership"
	"github.com/NMsby/rotatechain-sub000/internal/app/scheduler"
	"github.com/NMsby/rotatechain-sub000/internal/daemon"
	"github.com/NMsby/rotatechain-sub000/internal/domain"
	"github.com/NMsby/rotatechain-sub000/internal/infra/sqlite"
	"github.com/NMsby/rotatechain-sub000/internal/infra/wallet"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chain engine daemon",
	Long: `Start the rotation engine: open the chain directory, begin ticking
every stored chain, and serve the HTTP API.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	db, err := sqlite.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open chain directory: %w", err)
	}
	defer db.Close()

	w, err := buildWallet(cfg.Wallet)
	if err != nil {
		return err
	}

	registry := scheduler.NewRegistry(db, w, scheduler.Config{
		TickInterval: cfg.Scheduler.TickDuration(),
	})
	defer registry.StopAll()

	// Resume ticking every chain already on record.
	chains, err := db.ListChains(cmd.Context())
	if err != nil {
		return fmt.Errorf("list chains: %w", err)
	}
	for _, c := range chains {
		registry.Start(context.Background(), c)
	}
	log.Printf("[serve] ticking %d chain(s) every %s", len(chains), cfg.Scheduler.TickDuration())

	srv := api.NewServer(db, w, membership.New(db, w), registry, cfg.API.Origin)
	if cfg.API.MetricsEnabled {
		srv.EnableMetrics()
	}
	httpSrv := &http.Server{
		Addr:    cfg.API.Addr(),
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[serve] listening on http://%s", cfg.API.Addr())
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case s := <-sig:
		log.Printf("[serve] received %s, shutting down", s)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildWallet selects the wallet collaborator from config.
func buildWallet(cfg daemon.WalletConfig) (domain.Wallet, error) {
	switch cfg.Mode {
	case "", "memory":
		return wallet.NewInMemory(), nil
	case "http":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("wallet mode %q requires an endpoint", cfg.Mode)
		}
		return wallet.NewClient(cfg.Endpoint), nil
	default:
		return nil, fmt.Errorf("unknown wallet mode %q (want \"memory\" or \"http\")", cfg.Mode)
	}
}

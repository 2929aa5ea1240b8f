// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/club-membership/internal/auth"
	"github.com/Shivanand-hulikatti/club-membership/internal/config"
	"github.com/Shivanand-hulikatti/club-membership/internal/database"
	"github.com/Shivanand-hulikatti/club-membership/internal/handler"
	"github.com/Shivanand-hulikatti/club-membership/internal/logger"
	"github.com/Shivanand-hulikatti/club-membership/internal/model"
	"github.com/Shivanand-hulikatti/club-membership/internal/repository"
	"github.com/Shivanand-hulikatti/club-membership/internal/repository/memstore"
	"github.com/Shivanand-hulikatti/club-membership/internal/repository/pgstore"
	"github.com/Shivanand-hulikatti/club-membership/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Open the document store ────────────────────────────────────────
	base, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer base.Close()

	store := repository.NewRetrying(base, repository.RetryPolicy{
		MaxAttempts:     cfg.TxMaxAttempts,
		InitialInterval: repository.DefaultRetryPolicy.InitialInterval,
		MaxInterval:     repository.DefaultRetryPolicy.MaxInterval,
	}, log)

	// ── 2. Wire up layers ─────────────────────────────────────────────────
	svc := handler.Services{
		Users:     service.NewUserService(store, nil),
		Events:    service.NewEventService(store, nil),
		RSVPs:     service.NewRSVPService(store, nil),
		Tokens:    service.NewTokenService(store, nil),
		Purchases: service.NewPurchaseService(store, nil),
		Content:   service.NewContentService(store, nil),
		Stats:     service.NewStatsService(store, nil),
	}

	verifier, err := newVerifier(cfg.Auth)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	if cfg.SeedDemo {
		if err := svc.Purchases.SeedPackages(ctx, demoPackages()); err != nil {
			return fmt.Errorf("seed packages: %w", err)
		}
		log.Info("seeded demo token packages")
	}

	// ── 3. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.NewRouter(handler.New(svc, log), verifier),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "store": cfg.Store}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, log *logrus.Logger) (repository.Store, error) {
	if cfg.Store == config.StoreMemory {
		log.Warn("using in-memory store; data is lost on restart")
		return memstore.New(), nil
	}

	pool, err := database.NewPool(ctx, cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	store := pgstore.New(pool)
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("connected to PostgreSQL")
	return store, nil
}

func newVerifier(cfg config.Auth) (*auth.Verifier, error) {
	ac := auth.Config{Issuer: cfg.Issuer, Audience: cfg.Audience}
	if cfg.HMACSecret != "" {
		ac.HMACSecret = []byte(cfg.HMACSecret)
	}
	if cfg.Ed25519PublicKey != "" {
		key, err := auth.ParsePublicKey(cfg.Ed25519PublicKey)
		if err != nil {
			return nil, err
		}
		ac.PublicKey = key
	}
	return auth.NewVerifier(ac)
}

func demoPackages() []model.TokenPackage {
	return []model.TokenPackage{
		{ID: "starter", Name: "Starter Pack", Tokens: 5, Price: decimal.RequireFromString("10.00"), IsActive: true},
		{ID: "value", Name: "Value Pack", Tokens: 10, Price: decimal.RequireFromString("18.00"), IsActive: true},
		{ID: "premium", Name: "Premium Pack", Tokens: 20, Price: decimal.RequireFromString("30.00"), IsActive: true},
		{ID: "mega", Name: "Mega Pack", Tokens: 50, Price: decimal.RequireFromString("70.00"), IsActive: true},
	}
}

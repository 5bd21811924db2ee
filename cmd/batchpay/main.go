// Package main runs the batchpay server: the batch invoice payment API over
// an Ethereum-compatible JSON-RPC endpoint.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/R3E-Network/batchpay/internal/batch"
	"github.com/R3E-Network/batchpay/internal/chain"
	"github.com/R3E-Network/batchpay/internal/config"
	"github.com/R3E-Network/batchpay/internal/httpapi"
	"github.com/R3E-Network/batchpay/internal/invoice"
	"github.com/R3E-Network/batchpay/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log := logger.NewDefault("batchpay")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Error("invalid configuration")
		os.Exit(1)
	}

	store, cleanup, err := buildStore(cfg, log)
	if err != nil {
		log.WithError(err).Error("store initialization failed")
		os.Exit(1)
	}
	defer cleanup()

	client, err := chain.NewClient(chain.Config{
		RPCURL:   cfg.RPCURL,
		Account:  cfg.Account,
		Contract: cfg.Contract,
		Timeout:  cfg.RPCTimeout,
	})
	if err != nil {
		log.WithError(err).Error("chain client initialization failed")
		os.Exit(1)
	}

	var tokens []invoice.Token
	if cfg.TokenRegistryPath != "" {
		reg, err := config.LoadTokenRegistry(cfg.TokenRegistryPath)
		if err != nil {
			log.WithError(err).Error("token registry load failed")
			os.Exit(1)
		}
		tokens = reg.Tokens
		log.WithField("tokens", len(tokens)).Info("token registry loaded")
	}

	orchestrator := batch.NewOrchestrator(batch.OrchestratorConfig{
		Store:        store,
		Reader:       client,
		Submitter:    client,
		Fees:         client,
		Account:      cfg.Account,
		Contract:     cfg.Contract,
		MaxBatchSize: cfg.MaxBatchSize,
		Logger:       logger.NewDefault("batch-orchestrator"),
	})

	refresher := batch.NewRefresher(store, cfg.SuggestInterval, logger.NewDefault("batch-suggest"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := refresher.Start(ctx); err != nil {
		log.WithError(err).Error("suggestion refresher failed to start")
		os.Exit(1)
	}

	handler := httpapi.New(httpapi.Config{
		Store:        store,
		Orchestrator: orchestrator,
		Verifier:     batch.NewVerifier(client, cfg.Account),
		Refresher:    refresher,
		Fees:         client,
		Tokens:       tokens,
		Logger:       logger.NewDefault("httpapi"),
	})

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.Router(cfg.CORSOriginList()),
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("batchpay server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("server stopped")
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("shutting down")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := refresher.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("refresher shutdown incomplete")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown incomplete")
	}
}

// buildStore opens the Postgres store when a database URL is configured and
// falls back to the in-memory store otherwise (local development).
func buildStore(cfg *config.Config, log *logger.Logger) (invoice.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("no database configured, using in-memory invoice store")
		return invoice.NewMemoryStore(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := invoice.Migrate(db); err != nil {
		db.Close()
		return nil, nil, err
	}

	log.Info("postgres invoice store ready")
	return invoice.NewPostgresStore(db), func() { db.Close() }, nil
}

package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wichananm65/beartrak-search-backend/internal/category"
	"github.com/wichananm65/beartrak-search-backend/internal/config"
	"github.com/wichananm65/beartrak-search-backend/internal/database"
	"github.com/wichananm65/beartrak-search-backend/internal/logger"
	"github.com/wichananm65/beartrak-search-backend/internal/rfp"
	"github.com/wichananm65/beartrak-search-backend/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.Debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Error("server stopped", zap.Error(err))
		_ = zl.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, zl *zap.Logger) error {
	db, dialect, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// An unreachable store is not fatal: the service starts degraded, keeps
	// retrying in the background and applies the schema once it answers.
	store := database.NewStore(db, dialect, zl)
	go func() {
		if err := store.WaitReady(sigCtx, database.DefaultRetryInterval); err != nil {
			zl.Warn("gave up waiting for database", zap.Error(err))
		}
	}()

	app := server.New(server.Deps{
		Config:     cfg,
		Logger:     zl,
		DB:         store,
		RFPs:       rfp.NewSQLRepository(db, dialect),
		Categories: category.NewSQLRepository(db),
	})

	errCh := make(chan error, 1)
	go func() {
		zl.Info("starting server",
			zap.String("addr", cfg.Addr()),
			zap.String("environment", cfg.Environment),
		)
		errCh <- app.Listen(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"note-taker/internal/clients/mongo"
	"note-taker/internal/config"
	"note-taker/internal/logger"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 25 * time.Second

func main() {
	if err := run(); err != nil {
		log.New(os.Stderr, "note-taker: ", log.LstdFlags).Print(err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if _, _, err := mongo.Init(ctx, cfg, logg); err != nil {
		return fmt.Errorf("init mongo: %w", err)
	}

	app, err := setupRouter(ctx, cfg)
	if err != nil {
		_ = mongo.Shutdown(context.Background())
		return fmt.Errorf("setup router: %w", err)
	}
	logg.Info("starting note-taker", "port", cfg.AppPort, "replica_set", mongo.IsReplicaSet())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.AppPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logg.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(app.ShutdownWithContext(shutdownCtx), mongo.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logg.Info("graceful shutdown complete")
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/codescribe/internal/wire"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker failed to run", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, cleanup, err := wire.InitializeWorkerApp()
	if err != nil {
		return fmt.Errorf("failed to initialize worker: %w", err)
	}
	defer cleanup()

	slog.Info("starting job worker")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.Run(ctx)
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case <-quit:
			slog.Info("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("worker stopped with error: %w", err)
	}
	slog.Info("worker stopped")
	return nil
}

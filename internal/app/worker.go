package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/codescribe/internal/config"
	"github.com/sevigo/codescribe/internal/queue"
	"github.com/sevigo/codescribe/internal/worker"
)

// WorkerApp is the consumer process: a single worker loop against the broker.
type WorkerApp struct {
	cfg    *config.Config
	worker *worker.Worker
	broker queue.Broker
	logger *slog.Logger
}

// NewWorkerApp wires the worker process. The broker must be reachable at
// startup; a consumer that cannot pop should exit rather than spin.
func NewWorkerApp(cfg *config.Config, w *worker.Worker, broker queue.Broker, logger *slog.Logger) (*WorkerApp, error) {
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := broker.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("job broker is unreachable: %w", err)
	}

	return &WorkerApp{
		cfg:    cfg,
		worker: w,
		broker: broker,
		logger: logger,
	}, nil
}

// Run blocks processing jobs until ctx is cancelled.
func (a *WorkerApp) Run(ctx context.Context) error {
	err := a.worker.Run(ctx)
	if cerr := a.broker.Close(); cerr != nil {
		a.logger.Error("error closing broker connection", "error", cerr)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Package app assembles the receiver and worker processes from their
// components and owns their lifecycles.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/codescribe/internal/config"
	"github.com/sevigo/codescribe/internal/queue"
	"github.com/sevigo/codescribe/internal/server"
)

// ServerApp is the webhook receiver process: the HTTP server plus the broker
// connection it enqueues into.
type ServerApp struct {
	cfg    *config.Config
	server *server.Server
	broker queue.Broker
	logger *slog.Logger
}

// NewServerApp wires the receiver. The broker must be reachable at startup;
// a receiver that cannot enqueue is useless and should fail fast.
func NewServerApp(cfg *config.Config, srv *server.Server, broker queue.Broker, logger *slog.Logger) (*ServerApp, error) {
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := broker.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("job broker is unreachable: %w", err)
	}

	logger.Info("webhook receiver initialized",
		"port", cfg.Server.Port,
		"review_queue", cfg.Redis.ReviewQueue,
		"reply_queue", cfg.Redis.ReplyQueue)

	return &ServerApp{
		cfg:    cfg,
		server: srv,
		broker: broker,
		logger: logger,
	}, nil
}

// Start runs the HTTP server and blocks until shutdown.
func (a *ServerApp) Start() error {
	return a.server.Start()
}

// Stop shuts the receiver down cleanly.
func (a *ServerApp) Stop() error {
	err := a.server.Stop()
	if cerr := a.broker.Close(); cerr != nil {
		a.logger.Error("error closing broker connection", "error", cerr)
	}
	if err != nil {
		return err
	}
	a.logger.Info("webhook receiver stopped")
	return nil
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/codescribe/internal/config"
	"github.com/sevigo/codescribe/internal/queue"
)

type stubBroker struct {
	pingErr error
}

func (s *stubBroker) Enqueue(context.Context, string, []byte) error { return nil }

func (s *stubBroker) DequeueBlocking(context.Context, []string, time.Duration) (string, []byte, error) {
	return "", nil, queue.ErrNoJob
}

func (s *stubBroker) Requeue(context.Context, string, []byte) error { return nil }
func (s *stubBroker) Ping(context.Context) error                    { return s.pingErr }
func (s *stubBroker) Close() error                                  { return nil }

func TestNewWorkerApp_UnreachableBrokerIsFatal(t *testing.T) {
	broker := &stubBroker{
		pingErr: fmt.Errorf("%w: connection refused", queue.ErrBrokerUnavailable),
	}

	workerApp, err := NewWorkerApp(&config.Config{}, nil, broker, slog.Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, queue.ErrBrokerUnavailable)
	assert.Nil(t, workerApp)
}

func TestNewWorkerApp_HealthyBroker(t *testing.T) {
	workerApp, err := NewWorkerApp(&config.Config{}, nil, &stubBroker{}, slog.Default())
	require.NoError(t, err)
	assert.NotNil(t, workerApp)
}

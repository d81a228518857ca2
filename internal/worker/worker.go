// Package worker implements the single-threaded job consumer. It blocks on
// the broker, routes each record by the queue it arrived on, and requeues
// anything that fails so no job is lost.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sevigo/codescribe/internal/config"
	"github.com/sevigo/codescribe/internal/core"
	"github.com/sevigo/codescribe/internal/github"
	"github.com/sevigo/codescribe/internal/jobs"
	"github.com/sevigo/codescribe/internal/queue"
)

// Worker consumes jobs one at a time. Jobs are processed strictly
// sequentially: a slow review delays everything behind it, which keeps
// resource usage on the model host predictable.
type Worker struct {
	cfg           *config.Config
	broker        queue.Broker
	clientFactory github.ClientFactory
	reviewRunner  *jobs.ReviewJobRunner
	replyRunner   *jobs.ReplyJobRunner
	logger        *slog.Logger

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration)
}

// New creates a Worker.
func New(cfg *config.Config, broker queue.Broker, factory github.ClientFactory, review *jobs.ReviewJobRunner, reply *jobs.ReplyJobRunner, logger *slog.Logger) *Worker {
	return &Worker{
		cfg:           cfg,
		broker:        broker,
		clientFactory: factory,
		reviewRunner:  review,
		replyRunner:   reply,
		logger:        logger,
		sleep:         sleepCtx,
	}
}

// Run blocks until ctx is cancelled, popping one job at a time from both
// queues. Every failure path either discards (bot's own comments) or requeues
// the raw record; delivery is at-least-once.
func (w *Worker) Run(ctx context.Context) error {
	queues := []string{w.cfg.Redis.ReviewQueue, w.cfg.Redis.ReplyQueue}
	w.logger.Info("worker started", "queues", queues, "backoff", w.cfg.Worker.Backoff)

	for {
		if err := ctx.Err(); err != nil {
			w.logger.Info("worker stopping")
			return err
		}

		sourceQueue, record, err := w.broker.DequeueBlocking(ctx, queues, 0)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				w.logger.Info("worker stopping")
				return err
			}
			if errors.Is(err, queue.ErrNoJob) {
				continue
			}
			if errors.Is(err, queue.ErrBrokerUnavailable) {
				// No reconnection mid-run; the process exits and lets the
				// supervisor restart it against a healthy broker.
				w.logger.Error("job broker unreachable, worker exiting", "error", err)
				return err
			}
			w.logger.Error("failed to pop from broker", "error", err)
			w.sleep(ctx, w.cfg.Worker.Backoff)
			continue
		}

		if err := w.processRecord(ctx, sourceQueue, record); err != nil {
			w.logger.Error("job failed, requeueing", "queue", sourceQueue, "error", err)
			// Detached context: a job interrupted by shutdown must still make
			// it back onto the queue.
			rqCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if rqErr := w.broker.Requeue(rqCtx, sourceQueue, record); rqErr != nil {
				w.logger.Error("failed to requeue record, job is lost", "queue", sourceQueue, "error", rqErr)
			}
			cancel()
			w.sleep(ctx, w.cfg.Worker.Backoff)
		}
	}
}

// processRecord decodes and runs one raw record. A nil return means the
// record is settled (done or deliberately discarded); any error means the
// caller must requeue the raw bytes untouched.
func (w *Worker) processRecord(ctx context.Context, sourceQueue string, record []byte) error {
	if w.cfg.Worker.JobDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.Worker.JobDeadline)
		defer cancel()
	}

	switch sourceQueue {
	case w.cfg.Redis.ReviewQueue:
		job, err := core.DecodeReviewJob(record)
		if err != nil {
			return err
		}
		gh, err := w.clientFactory(ctx, job.InstallationID)
		if err != nil {
			return err
		}
		return w.reviewRunner.Run(ctx, job, gh)

	case w.cfg.Redis.ReplyQueue:
		job, err := core.DecodeReplyJob(record)
		if err != nil {
			return err
		}
		if w.isOwnComment(job.CommenterLogin) {
			w.logger.Info("discarding bot's own comment", "repo", job.RepoFullName, "pr", job.PRNumber)
			return nil
		}
		gh, err := w.clientFactory(ctx, job.InstallationID)
		if err != nil {
			return err
		}
		return w.replyRunner.Run(ctx, job, gh)

	default:
		// Not reachable while the queue list above is the only source.
		w.logger.Error("record from unknown queue discarded", "queue", sourceQueue)
		return nil
	}
}

// isOwnComment guards against the feedback loop of the bot answering its own
// replies forever.
func (w *Worker) isOwnComment(login string) bool {
	return strings.EqualFold(login, w.cfg.GitHub.BotLogin)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

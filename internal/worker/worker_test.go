package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	gogithub "github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/codescribe/internal/config"
	"github.com/sevigo/codescribe/internal/core"
	"github.com/sevigo/codescribe/internal/github"
	"github.com/sevigo/codescribe/internal/jobs"
	"github.com/sevigo/codescribe/internal/llm"
	"github.com/sevigo/codescribe/internal/mocks"
	"github.com/sevigo/codescribe/internal/queue"
)

type queuedRecord struct {
	queue string
	data  []byte
}

// fakeBroker is an in-memory stand-in for the Redis broker. Records flow
// through a channel so DequeueBlocking genuinely blocks like BRPOP.
type fakeBroker struct {
	mu            sync.Mutex
	items         chan queuedRecord
	requeued      []queuedRecord
	requeueCtxErr []error

	dequeueErr error
	onDequeue  func(call int)
	dequeues   int
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{items: make(chan queuedRecord, 16)}
}

func (f *fakeBroker) Enqueue(_ context.Context, q string, record []byte) error {
	f.items <- queuedRecord{queue: q, data: record}
	return nil
}

func (f *fakeBroker) DequeueBlocking(ctx context.Context, _ []string, _ time.Duration) (string, []byte, error) {
	f.mu.Lock()
	f.dequeues++
	n := f.dequeues
	hook := f.onDequeue
	f.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	if f.dequeueErr != nil {
		return "", nil, f.dequeueErr
	}

	select {
	case <-ctx.Done():
		return "", nil, ctx.Err()
	case item := <-f.items:
		return item.queue, item.data, nil
	}
}

func (f *fakeBroker) Requeue(ctx context.Context, q string, record []byte) error {
	f.mu.Lock()
	f.requeued = append(f.requeued, queuedRecord{queue: q, data: record})
	f.requeueCtxErr = append(f.requeueCtxErr, ctx.Err())
	f.mu.Unlock()
	f.items <- queuedRecord{queue: q, data: record}
	return nil
}

func (f *fakeBroker) Ping(context.Context) error { return nil }
func (f *fakeBroker) Close() error               { return nil }

func (f *fakeBroker) requeuedRecords() []queuedRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]queuedRecord, len(f.requeued))
	copy(out, f.requeued)
	return out
}

type stubRAG struct {
	reviewResult *core.ReviewResult
	reply        string
}

func (s *stubRAG) GenerateReview(context.Context, llm.ReviewInput) (*core.ReviewResult, error) {
	return s.reviewResult, nil
}

func (s *stubRAG) GenerateReply(context.Context, llm.ReplyInput) (string, error) {
	return s.reply, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Redis.ReviewQueue = "pr_review_jobs"
	cfg.Redis.ReplyQueue = "pr_reply_jobs"
	cfg.GitHub.BotLogin = "codescribe[bot]"
	cfg.Worker.Backoff = 5 * time.Second
	return cfg
}

func newTestWorker(t *testing.T, cfg *config.Config, broker queue.Broker, factory github.ClientFactory) (*Worker, *[]time.Duration) {
	t.Helper()
	logger := slog.Default()
	rag := &stubRAG{reviewResult: &core.ReviewResult{}, reply: "answer"}
	review := jobs.NewReviewJobRunner(cfg, rag, nil, logger)
	reply := jobs.NewReplyJobRunner(cfg, rag, nil, logger)

	w := New(cfg, broker, factory, review, reply, logger)
	var slept []time.Duration
	var mu sync.Mutex
	w.sleep = func(_ context.Context, d time.Duration) {
		mu.Lock()
		slept = append(slept, d)
		mu.Unlock()
	}
	return w, &slept
}

func runWorker(t *testing.T, w *Worker) (cancel context.CancelFunc, done chan error) {
	t.Helper()
	ctx, cancelFn := context.WithCancel(context.Background())
	done = make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	return cancelFn, done
}

func waitStopped(t *testing.T, cancel context.CancelFunc, done chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}

func TestWorker_FailedJobIsRequeuedAndRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	cfg := testConfig()
	broker := newFakeBroker()

	job := &core.ReviewJob{
		EventType:      core.EventPullRequest,
		RepoFullName:   "acme/widgets",
		PRNumber:       42,
		InstallationID: 7,
	}
	record, err := core.EncodeJob(job)
	require.NoError(t, err)
	require.NoError(t, broker.Enqueue(context.Background(), cfg.Redis.ReviewQueue, record))

	gh := mocks.NewMockClient(ctrl)
	gh.EXPECT().GetPullRequest(gomock.Any(), "acme", "widgets", 42).
		Return(&gogithub.PullRequest{
			Title: gogithub.Ptr("T"),
			Head:  &gogithub.PullRequestBranch{SHA: gogithub.Ptr("abc")},
		}, nil)
	gh.EXPECT().GetPullRequestDiff(gomock.Any(), "acme", "widgets", 42).Return("+x", nil)

	posted := make(chan struct{})
	gh.EXPECT().CreateComment(gomock.Any(), "acme", "widgets", 42, gomock.Any()).
		DoAndReturn(func(context.Context, string, string, int, string) error {
			close(posted)
			return nil
		}).Times(1)

	// First token exchange fails, forcing a requeue; the retry succeeds.
	var calls int
	var mu sync.Mutex
	factory := func(context.Context, int64) (github.Client, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return nil, errors.New("token exchange failed")
		}
		return gh, nil
	}

	w, slept := newTestWorker(t, cfg, broker, factory)
	cancel, done := runWorker(t, w)

	select {
	case <-posted:
	case <-time.After(2 * time.Second):
		t.Fatal("comment was never posted")
	}
	waitStopped(t, cancel, done)

	requeued := broker.requeuedRecords()
	require.Len(t, requeued, 1)
	assert.Equal(t, cfg.Redis.ReviewQueue, requeued[0].queue)
	assert.Equal(t, record, requeued[0].data, "requeued record must be the raw bytes, untouched")
	assert.Equal(t, []time.Duration{cfg.Worker.Backoff}, *slept)
}

func TestWorker_DiscardsBotOwnComment(t *testing.T) {
	cfg := testConfig()
	broker := newFakeBroker()

	job := &core.ReplyJob{
		EventType:      core.EventIssueComment,
		RepoFullName:   "acme/widgets",
		PRNumber:       42,
		InstallationID: 7,
		CommentBody:    "1. Check the error return.",
		CommenterLogin: "CodeScribe[Bot]", // case differs from configured login
	}
	record, err := core.EncodeJob(job)
	require.NoError(t, err)
	require.NoError(t, broker.Enqueue(context.Background(), cfg.Redis.ReplyQueue, record))

	// A second dequeue call means the first record was settled.
	settled := make(chan struct{})
	broker.onDequeue = func(call int) {
		if call == 2 {
			close(settled)
		}
	}

	factory := func(context.Context, int64) (github.Client, error) {
		t.Error("client factory must not be called for the bot's own comment")
		return nil, errors.New("unexpected")
	}

	w, slept := newTestWorker(t, cfg, broker, factory)
	cancel, done := runWorker(t, w)

	select {
	case <-settled:
	case <-time.After(2 * time.Second):
		t.Fatal("record was never settled")
	}
	waitStopped(t, cancel, done)

	assert.Empty(t, broker.requeuedRecords(), "discarded comments must not be requeued")
	assert.Empty(t, *slept)
}

func TestWorker_UndecodableRecordIsRequeued(t *testing.T) {
	cfg := testConfig()
	broker := newFakeBroker()

	garbage := []byte("{not json")
	require.NoError(t, broker.Enqueue(context.Background(), cfg.Redis.ReviewQueue, garbage))

	requeuedOnce := make(chan struct{})
	var once sync.Once
	w, _ := newTestWorker(t, cfg, broker, func(context.Context, int64) (github.Client, error) {
		return nil, errors.New("must not be reached")
	})
	w.sleep = func(context.Context, time.Duration) {
		once.Do(func() { close(requeuedOnce) })
	}

	cancel, done := runWorker(t, w)

	select {
	case <-requeuedOnce:
	case <-time.After(2 * time.Second):
		t.Fatal("record was never requeued")
	}
	waitStopped(t, cancel, done)

	requeued := broker.requeuedRecords()
	require.NotEmpty(t, requeued)
	assert.Equal(t, garbage, requeued[0].data)
}

func TestWorker_UnreachableBrokerStopsLoop(t *testing.T) {
	cfg := testConfig()
	broker := newFakeBroker()
	broker.dequeueErr = fmt.Errorf("%w: connection refused", queue.ErrBrokerUnavailable)

	w, slept := newTestWorker(t, cfg, broker, func(context.Context, int64) (github.Client, error) {
		return nil, errors.New("must not be reached")
	})

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, queue.ErrBrokerUnavailable)
	case <-time.After(2 * time.Second):
		t.Fatal("worker kept running against an unreachable broker")
	}
	assert.Empty(t, *slept, "an unreachable broker must not be retried")
}

func TestWorker_RequeueSurvivesShutdownCancellation(t *testing.T) {
	cfg := testConfig()
	broker := newFakeBroker()

	job := &core.ReviewJob{
		EventType:      core.EventPullRequest,
		RepoFullName:   "acme/widgets",
		PRNumber:       42,
		InstallationID: 7,
	}
	record, err := core.EncodeJob(job)
	require.NoError(t, err)
	require.NoError(t, broker.Enqueue(context.Background(), cfg.Redis.ReviewQueue, record))

	ctx, cancel := context.WithCancel(context.Background())

	// The shutdown signal lands while the job is in flight.
	factory := func(context.Context, int64) (github.Client, error) {
		cancel()
		return nil, context.Canceled
	}

	w, _ := newTestWorker(t, cfg, broker, factory)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}

	requeued := broker.requeuedRecords()
	require.Len(t, requeued, 1, "the in-flight job must be requeued despite shutdown")
	assert.Equal(t, record, requeued[0].data)

	broker.mu.Lock()
	defer broker.mu.Unlock()
	require.Len(t, broker.requeueCtxErr, 1)
	assert.NoError(t, broker.requeueCtxErr[0], "requeue must not run on the cancelled run context")
}

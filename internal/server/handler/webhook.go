package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v73/github"

	"github.com/sevigo/codescribe/internal/config"
	"github.com/sevigo/codescribe/internal/core"
	"github.com/sevigo/codescribe/internal/queue"
)

const maxPayloadBytes = 25 << 20 // GitHub caps webhook payloads at 25 MB

// WebhookHandler authenticates, classifies, and enqueues incoming GitHub
// webhook deliveries. It never does review work itself; a delivery is
// acknowledged as soon as its job is durably on the broker.
type WebhookHandler struct {
	cfg    *config.Config
	broker queue.Broker
	logger *slog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(cfg *config.Config, broker queue.Broker, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		cfg:    cfg,
		broker: broker,
		logger: logger,
	}
}

type webhookResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Handle processes one webhook delivery. The signature is verified over the
// raw body before any parsing happens.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		h.respond(w, http.StatusBadRequest, "error", "failed to read request body")
		return
	}

	sigHeader := r.Header.Get("X-Hub-Signature-256")
	if err := VerifySignature(h.cfg.GitHub.WebhookSecret, body, sigHeader); err != nil {
		h.logger.Error("webhook signature verification failed", "error", err)
		status := http.StatusForbidden
		if errors.Is(err, ErrUnsupportedAlgorithm) {
			status = http.StatusBadRequest
		}
		h.respond(w, status, "error", err.Error())
		return
	}

	eventType := r.Header.Get("X-GitHub-Event")
	switch eventType {
	case "pull_request":
		h.handlePullRequest(w, r, body)
	case "issue_comment":
		h.handleIssueComment(w, r, body)
	default:
		h.logger.Debug("ignoring unhandled webhook event type", "type", eventType)
		h.respond(w, http.StatusOK, "ignored", "event type not handled")
	}
}

func (h *WebhookHandler) handlePullRequest(w http.ResponseWriter, r *http.Request, body []byte) {
	var event github.PullRequestEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Error("could not parse pull_request payload", "error", err)
		h.respond(w, http.StatusBadRequest, "error", "could not parse payload")
		return
	}

	job, err := core.JobFromPullRequest(&event)
	if err != nil {
		h.classificationError(w, err, "pull_request")
		return
	}

	h.enqueue(w, r, h.cfg.Redis.ReviewQueue, job, "review job queued")
}

func (h *WebhookHandler) handleIssueComment(w http.ResponseWriter, r *http.Request, body []byte) {
	var event github.IssueCommentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Error("could not parse issue_comment payload", "error", err)
		h.respond(w, http.StatusBadRequest, "error", "could not parse payload")
		return
	}

	job, err := core.JobFromIssueComment(&event)
	if err != nil {
		h.classificationError(w, err, "issue_comment")
		return
	}

	h.enqueue(w, r, h.cfg.Redis.ReplyQueue, job, "reply job queued")
}

func (h *WebhookHandler) classificationError(w http.ResponseWriter, err error, eventType string) {
	if errors.Is(err, core.ErrIgnoreEvent) {
		h.logger.Debug("ignoring webhook delivery", "type", eventType)
		h.respond(w, http.StatusOK, "ignored", "event does not require action")
		return
	}

	var malformed *core.MalformedPayloadError
	if errors.As(err, &malformed) {
		h.logger.Error("malformed webhook payload", "type", eventType, "field", malformed.Field)
		h.respond(w, http.StatusBadRequest, "error", err.Error())
		return
	}

	h.logger.Error("failed to classify webhook payload", "type", eventType, "error", err)
	h.respond(w, http.StatusBadRequest, "error", "could not classify payload")
}

func (h *WebhookHandler) enqueue(w http.ResponseWriter, r *http.Request, queueName string, job core.Job, message string) {
	record, err := core.EncodeJob(job)
	if err != nil {
		h.logger.Error("failed to encode job", "queue", queueName, "error", err)
		h.respond(w, http.StatusInternalServerError, "error", "failed to encode job")
		return
	}

	if err := h.broker.Enqueue(r.Context(), queueName, record); err != nil {
		h.logger.Error("failed to enqueue job", "queue", queueName, "error", err)
		h.respond(w, http.StatusServiceUnavailable, "error", "job broker unavailable")
		return
	}

	h.logger.Info("job queued", "queue", queueName, "kind", job.Kind())
	h.respond(w, http.StatusOK, "queued", message)
}

func (h *WebhookHandler) respond(w http.ResponseWriter, status int, state, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(webhookResponse{Status: state, Message: message}); err != nil {
		h.logger.Error("failed to write webhook response", "error", err)
	}
}

package llm

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/goframe/llms"

	"github.com/sevigo/codescribe/internal/config"
	"github.com/sevigo/codescribe/internal/core"
	"github.com/sevigo/codescribe/internal/storage"
)

// ReviewInput is everything the review generation step needs from a pull
// request.
type ReviewInput struct {
	Title       string
	Description string
	Diff        string
}

// ReplyInput is everything the conversational reply step needs.
type ReplyInput struct {
	// Transcript is the full ordered thread rendered as "<login> said: <text>"
	// lines, oldest first.
	Transcript string
	Commenter  string
	Comment    string
}

// RAGService is the Retrieval-Augmented Generation pipeline: standards
// retrieval plus LLM invocation under the structured suggestion contract,
// and free-text continuation for conversation replies.
type RAGService interface {
	GenerateReview(ctx context.Context, in ReviewInput) (*core.ReviewResult, error)
	GenerateReply(ctx context.Context, in ReplyInput) (string, error)
}

type ragService struct {
	cfg          *config.Config
	promptMgr    *PromptManager
	vectorStore  storage.VectorStore
	generatorLLM llms.Model
	logger       *slog.Logger
}

// NewRAGService creates a RAGService backed by the given vector store and
// generator model. Both are long-lived and shared across all jobs of the
// worker process.
func NewRAGService(
	cfg *config.Config,
	promptMgr *PromptManager,
	vs storage.VectorStore,
	gen llms.Model,
	logger *slog.Logger,
) RAGService {
	return &ragService{
		cfg:          cfg,
		promptMgr:    promptMgr,
		vectorStore:  vs,
		generatorLLM: gen,
		logger:       logger,
	}
}

// GenerateReview retrieves the standards passages most relevant to the diff
// and asks the generator model for zero or more suggestions constrained to
// them.
func (r *ragService) GenerateReview(ctx context.Context, in ReviewInput) (*core.ReviewResult, error) {
	standards, err := r.retrieveStandards(ctx, in.Diff)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve standards: %w", err)
	}

	prompt, err := r.renderPrompt(CodeReviewPrompt, map[string]string{
		"Standards":   standards,
		"Title":       in.Title,
		"Description": in.Description,
		"Diff":        in.Diff,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("invoking generator LLM for review", "prompt_bytes", len(prompt))
	response, err := r.generatorLLM.Call(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("LLM review generation failed: %w", err)
	}

	result, err := parseReviewResult(response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse review output: %w", err)
	}

	r.logger.Info("review generated", "suggestions", len(result.Suggestions))
	return result, nil
}

// GenerateReply produces one free-text continuation of a PR conversation.
// No retrieval step and no structured-output constraint.
func (r *ragService) GenerateReply(ctx context.Context, in ReplyInput) (string, error) {
	prompt, err := r.renderPrompt(CommentReplyPrompt, map[string]string{
		"Transcript": in.Transcript,
		"Commenter":  in.Commenter,
		"Comment":    in.Comment,
	})
	if err != nil {
		return "", err
	}

	response, err := r.generatorLLM.Call(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("LLM reply generation failed: %w", err)
	}

	reply := strings.TrimSpace(response)
	if reply == "" {
		return "", fmt.Errorf("LLM produced an empty reply")
	}
	return reply, nil
}

// retrieveStandards queries the standards collection with the diff text and
// joins the top-k passages. An empty corpus is not an error: the prompt
// makes zero retrieved standards mean zero possible violations.
func (r *ragService) retrieveStandards(ctx context.Context, diff string) (string, error) {
	docs, err := r.vectorStore.SimilaritySearch(ctx, r.cfg.AI.StandardsCollection, diff, r.cfg.AI.RetrievalTopK)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		r.logger.Warn("no standards passages retrieved; was the knowledge base ingested?",
			"collection", r.cfg.AI.StandardsCollection)
		return "(no coding standards found)", nil
	}

	var b strings.Builder
	for i, doc := range docs {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		b.WriteString(doc.PageContent)
	}
	return b.String(), nil
}

func (r *ragService) renderPrompt(key PromptKey, data map[string]string) (string, error) {
	tmpl, err := r.promptMgr.Get(key, DefaultProvider)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", key, err)
	}
	return buf.String(), nil
}

// Package jobs holds the background tasks the worker executes: pull request
// reviews and replies to review-thread comments.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/codescribe/internal/config"
	"github.com/sevigo/codescribe/internal/core"
	"github.com/sevigo/codescribe/internal/github"
	"github.com/sevigo/codescribe/internal/llm"
	"github.com/sevigo/codescribe/internal/storage"
)

// ApprovalComment is posted when the model finds nothing to improve.
const ApprovalComment = "I reviewed the changes and found no issues. Looks good to me!"

// ReviewJobRunner performs an AI-assisted review of a pull request and posts
// the result as a single issue comment.
type ReviewJobRunner struct {
	cfg        *config.Config
	ragService llm.RAGService
	store      storage.Store
	logger     *slog.Logger
}

// NewReviewJobRunner creates a new ReviewJobRunner.
func NewReviewJobRunner(cfg *config.Config, rag llm.RAGService, store storage.Store, logger *slog.Logger) *ReviewJobRunner {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if rag == nil {
		panic("RAG service cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ReviewJobRunner{cfg: cfg, ragService: rag, store: store, logger: logger}
}

// Run executes the review for a single job. The GitHub client is created per
// job by the caller so each run uses a fresh installation token.
func (j *ReviewJobRunner) Run(ctx context.Context, job *core.ReviewJob, gh github.Client) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid review job: %w", err)
	}

	owner, repo := job.Owner(), job.Repo()
	j.logger.Info("starting review job", "repo", job.RepoFullName, "pr", job.PRNumber)

	pr, err := gh.GetPullRequest(ctx, owner, repo, job.PRNumber)
	if err != nil {
		return fmt.Errorf("failed to get PR details: %w", err)
	}

	diff, err := j.collectDiff(ctx, gh, job, pr.GetHead().GetSHA())
	if err != nil {
		return fmt.Errorf("failed to collect PR diff: %w", err)
	}
	if strings.TrimSpace(diff) == "" {
		return fmt.Errorf("PR %s#%d has an empty diff", job.RepoFullName, job.PRNumber)
	}

	result, err := j.ragService.GenerateReview(ctx, llm.ReviewInput{
		Title:       pr.GetTitle(),
		Description: pr.GetBody(),
		Diff:        diff,
	})
	if err != nil {
		return fmt.Errorf("failed to generate review: %w", err)
	}

	body := RenderReviewComment(result)
	if err := gh.CreateComment(ctx, owner, repo, job.PRNumber, body); err != nil {
		return fmt.Errorf("failed to post review comment: %w", err)
	}

	j.persist(ctx, job.RepoFullName, job.PRNumber, core.CommentKindReview, body)

	j.logger.Info("review job completed", "repo", job.RepoFullName, "pr", job.PRNumber,
		"suggestions", len(result.Suggestions))
	return nil
}

// collectDiff fetches the unified diff for the pull request. When the diff
// endpoint is unavailable it is reassembled from the per-file patches; files
// too large to carry a patch fall back to their full content at the head ref.
func (j *ReviewJobRunner) collectDiff(ctx context.Context, gh github.Client, job *core.ReviewJob, headSHA string) (string, error) {
	diff, err := gh.GetPullRequestDiff(ctx, job.Owner(), job.Repo(), job.PRNumber)
	if err == nil && strings.TrimSpace(diff) != "" {
		return diff, nil
	}
	if err != nil {
		j.logger.Warn("diff endpoint failed, assembling diff from changed files", "error", err)
	}

	files, err := gh.GetChangedFiles(ctx, job.Owner(), job.Repo(), job.PRNumber)
	if err != nil {
		return "", fmt.Errorf("failed to list changed files: %w", err)
	}

	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "--- %s ---\n", f.Filename)
		if f.Patch != "" {
			b.WriteString(f.Patch)
			b.WriteString("\n")
			continue
		}
		content, err := gh.GetFileContent(ctx, job.Owner(), job.Repo(), f.Filename, headSHA)
		if err != nil {
			j.logger.Warn("failed to fetch file content for patchless file", "file", f.Filename, "error", err)
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// persist records the posted comment in the review history. Failures are
// logged and swallowed: the comment is already on GitHub.
func (j *ReviewJobRunner) persist(ctx context.Context, repoFullName string, prNumber int, kind, body string) {
	if j.store == nil {
		return
	}
	err := j.store.SaveReview(ctx, &core.Review{
		RepoFullName: repoFullName,
		PRNumber:     prNumber,
		Kind:         kind,
		Body:         body,
	})
	if err != nil {
		j.logger.Error("failed to persist review history", "repo", repoFullName, "pr", prNumber, "error", err)
	}
}

// RenderReviewComment formats a review result as a Markdown comment. An empty
// result becomes a short approval; otherwise the suggestions are numbered in
// the order the model produced them.
func RenderReviewComment(result *core.ReviewResult) string {
	if result == nil || len(result.Suggestions) == 0 {
		return ApprovalComment
	}

	var b strings.Builder
	b.WriteString("### Code Review Suggestions\n")
	for i, s := range result.Suggestions {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, strings.TrimSpace(s.Description))
		if code := strings.TrimSpace(s.SuggestionCode); code != "" {
			fmt.Fprintf(&b, "\n```suggestion\n%s\n```\n", code)
		}
	}
	return b.String()
}

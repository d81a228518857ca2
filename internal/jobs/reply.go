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

// ReplyJobRunner answers a comment left on a pull request the bot reviewed.
// It feeds the full conversation so far to the model and posts the answer as
// a new issue comment.
type ReplyJobRunner struct {
	cfg        *config.Config
	ragService llm.RAGService
	store      storage.Store
	logger     *slog.Logger
}

// NewReplyJobRunner creates a new ReplyJobRunner.
func NewReplyJobRunner(cfg *config.Config, rag llm.RAGService, store storage.Store, logger *slog.Logger) *ReplyJobRunner {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if rag == nil {
		panic("RAG service cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ReplyJobRunner{cfg: cfg, ragService: rag, store: store, logger: logger}
}

// Run executes the reply for a single job.
func (j *ReplyJobRunner) Run(ctx context.Context, job *core.ReplyJob, gh github.Client) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid reply job: %w", err)
	}

	owner, repo := job.Owner(), job.Repo()
	j.logger.Info("starting reply job", "repo", job.RepoFullName, "pr", job.PRNumber,
		"commenter", job.CommenterLogin)

	comments, err := gh.ListIssueComments(ctx, owner, repo, job.PRNumber)
	if err != nil {
		return fmt.Errorf("failed to list PR comments: %w", err)
	}

	reply, err := j.ragService.GenerateReply(ctx, llm.ReplyInput{
		Transcript: BuildTranscript(comments),
		Commenter:  job.CommenterLogin,
		Comment:    job.CommentBody,
	})
	if err != nil {
		return fmt.Errorf("failed to generate reply: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return fmt.Errorf("generated reply is empty")
	}

	body := fmt.Sprintf("@%s %s", job.CommenterLogin, strings.TrimSpace(reply))
	if err := gh.CreateComment(ctx, owner, repo, job.PRNumber, body); err != nil {
		return fmt.Errorf("failed to post reply comment: %w", err)
	}

	j.persistReply(ctx, job, body)

	j.logger.Info("reply job completed", "repo", job.RepoFullName, "pr", job.PRNumber)
	return nil
}

func (j *ReplyJobRunner) persistReply(ctx context.Context, job *core.ReplyJob, body string) {
	if j.store == nil {
		return
	}
	err := j.store.SaveReview(ctx, &core.Review{
		RepoFullName: job.RepoFullName,
		PRNumber:     job.PRNumber,
		Kind:         core.CommentKindReply,
		Body:         body,
	})
	if err != nil {
		j.logger.Error("failed to persist reply history", "repo", job.RepoFullName, "pr", job.PRNumber, "error", err)
	}
}

// BuildTranscript renders the comment thread oldest-first, one line per
// comment, in the "<login> said: <text>" form the reply prompt expects.
func BuildTranscript(comments []github.IssueComment) string {
	if len(comments) == 0 {
		return "(no previous comments)"
	}
	var b strings.Builder
	for i, c := range comments {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s said: %s", c.Login, strings.ReplaceAll(c.Body, "\n", " "))
	}
	return b.String()
}

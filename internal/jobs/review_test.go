package jobs

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	gogithub "github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/codescribe/internal/config"
	"github.com/sevigo/codescribe/internal/core"
	"github.com/sevigo/codescribe/internal/github"
	"github.com/sevigo/codescribe/internal/llm"
	"github.com/sevigo/codescribe/internal/mocks"
)

type fakeRAGService struct {
	reviewInput  llm.ReviewInput
	reviewResult *core.ReviewResult
	reviewErr    error

	replyInput llm.ReplyInput
	reply      string
	replyErr   error
}

func (f *fakeRAGService) GenerateReview(_ context.Context, in llm.ReviewInput) (*core.ReviewResult, error) {
	f.reviewInput = in
	return f.reviewResult, f.reviewErr
}

func (f *fakeRAGService) GenerateReply(_ context.Context, in llm.ReplyInput) (string, error) {
	f.replyInput = in
	return f.reply, f.replyErr
}

func testPR(title, body, headSHA string) *gogithub.PullRequest {
	return &gogithub.PullRequest{
		Title: gogithub.Ptr(title),
		Body:  gogithub.Ptr(body),
		Head:  &gogithub.PullRequestBranch{SHA: gogithub.Ptr(headSHA)},
	}
}

func TestReviewJobRunner_Run(t *testing.T) {
	job := &core.ReviewJob{
		EventType:      core.EventPullRequest,
		RepoFullName:   "acme/widgets",
		PRNumber:       42,
		InstallationID: 7,
	}

	t.Run("posts exactly one comment with rendered suggestions", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gh := mocks.NewMockClient(ctrl)

		gh.EXPECT().GetPullRequest(gomock.Any(), "acme", "widgets", 42).
			Return(testPR("Add frobnicator", "Adds the frobnicator.", "abc123"), nil)
		gh.EXPECT().GetPullRequestDiff(gomock.Any(), "acme", "widgets", 42).
			Return("diff --git a/main.go b/main.go\n+frob()", nil)

		var posted string
		gh.EXPECT().CreateComment(gomock.Any(), "acme", "widgets", 42, gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ string, _ int, body string) error {
				posted = body
				return nil
			}).Times(1)

		rag := &fakeRAGService{reviewResult: &core.ReviewResult{
			Suggestions: []core.Suggestion{
				{Description: "Check the error return.", SuggestionCode: "if err != nil {\n\treturn err\n}"},
				{Description: "Rename x to count."},
			},
		}}

		runner := NewReviewJobRunner(&config.Config{}, rag, nil, slog.Default())
		err := runner.Run(context.Background(), job, gh)
		require.NoError(t, err)

		assert.Equal(t, "Add frobnicator", rag.reviewInput.Title)
		assert.Equal(t, "Adds the frobnicator.", rag.reviewInput.Description)
		assert.Contains(t, rag.reviewInput.Diff, "+frob()")

		assert.Contains(t, posted, "1. Check the error return.")
		assert.Contains(t, posted, "2. Rename x to count.")
		assert.Contains(t, posted, "```suggestion\nif err != nil {\n\treturn err\n}\n```")
	})

	t.Run("empty result posts the approval comment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gh := mocks.NewMockClient(ctrl)

		gh.EXPECT().GetPullRequest(gomock.Any(), "acme", "widgets", 42).
			Return(testPR("Fix typo", "", "abc123"), nil)
		gh.EXPECT().GetPullRequestDiff(gomock.Any(), "acme", "widgets", 42).
			Return("-teh\n+the", nil)
		gh.EXPECT().CreateComment(gomock.Any(), "acme", "widgets", 42, ApprovalComment).
			Return(nil)

		rag := &fakeRAGService{reviewResult: &core.ReviewResult{Suggestions: []core.Suggestion{}}}
		runner := NewReviewJobRunner(&config.Config{}, rag, nil, slog.Default())

		err := runner.Run(context.Background(), job, gh)
		require.NoError(t, err)
	})

	t.Run("falls back to per-file patches when the diff endpoint fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gh := mocks.NewMockClient(ctrl)

		gh.EXPECT().GetPullRequest(gomock.Any(), "acme", "widgets", 42).
			Return(testPR("Big change", "", "head-sha"), nil)
		gh.EXPECT().GetPullRequestDiff(gomock.Any(), "acme", "widgets", 42).
			Return("", errors.New("406 diff too large"))
		gh.EXPECT().GetChangedFiles(gomock.Any(), "acme", "widgets", 42).
			Return([]github.ChangedFile{
				{Filename: "main.go", Patch: "+frob()"},
				{Filename: "huge.gen.go", Patch: ""},
			}, nil)
		gh.EXPECT().GetFileContent(gomock.Any(), "acme", "widgets", "huge.gen.go", "head-sha").
			Return("package gen", nil)
		gh.EXPECT().CreateComment(gomock.Any(), "acme", "widgets", 42, gomock.Any()).
			Return(nil)

		rag := &fakeRAGService{reviewResult: &core.ReviewResult{}}
		runner := NewReviewJobRunner(&config.Config{}, rag, nil, slog.Default())

		err := runner.Run(context.Background(), job, gh)
		require.NoError(t, err)

		assert.Contains(t, rag.reviewInput.Diff, "--- main.go ---")
		assert.Contains(t, rag.reviewInput.Diff, "+frob()")
		assert.Contains(t, rag.reviewInput.Diff, "package gen")
	})

	t.Run("generation failure posts nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gh := mocks.NewMockClient(ctrl)

		gh.EXPECT().GetPullRequest(gomock.Any(), "acme", "widgets", 42).
			Return(testPR("T", "", "abc"), nil)
		gh.EXPECT().GetPullRequestDiff(gomock.Any(), "acme", "widgets", 42).
			Return("+x", nil)

		rag := &fakeRAGService{reviewErr: errors.New("model unavailable")}
		runner := NewReviewJobRunner(&config.Config{}, rag, nil, slog.Default())

		err := runner.Run(context.Background(), job, gh)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to generate review")
	})

	t.Run("invalid job is rejected before any API call", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gh := mocks.NewMockClient(ctrl)

		runner := NewReviewJobRunner(&config.Config{}, &fakeRAGService{}, nil, slog.Default())
		err := runner.Run(context.Background(), &core.ReviewJob{}, gh)
		require.Error(t, err)
	})
}

func TestRenderReviewComment(t *testing.T) {
	t.Run("nil result approves", func(t *testing.T) {
		assert.Equal(t, ApprovalComment, RenderReviewComment(nil))
	})

	t.Run("suggestions keep model order", func(t *testing.T) {
		out := RenderReviewComment(&core.ReviewResult{Suggestions: []core.Suggestion{
			{Description: "First."},
			{Description: "Second.", SuggestionCode: "y := 2"},
			{Description: "Third."},
		}})
		first := "1. First."
		second := "2. Second."
		third := "3. Third."
		require.Contains(t, out, first)
		require.Contains(t, out, second)
		require.Contains(t, out, third)
		assert.Less(t, strings.Index(out, first), strings.Index(out, second))
		assert.Less(t, strings.Index(out, second), strings.Index(out, third))
		assert.Contains(t, out, "```suggestion\ny := 2\n```")
	})
}

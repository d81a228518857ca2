package core

import "time"

// Suggestion is a single standards violation found by the LLM, paired with a
// complete corrected code block. Suggestions live only for the duration of
// one job's processing; they are rendered into the posted comment and
// discarded.
type Suggestion struct {
	Description    string `json:"description"`
	SuggestionCode string `json:"suggestion_code"`
}

// ReviewResult is the structured-output schema the LLM must produce for a
// review: zero or more suggestions, constrained to the retrieved standards.
type ReviewResult struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// Comment kinds recorded in the review history.
const (
	CommentKindReview = "review"
	CommentKindReply  = "reply"
)

// Review is one posted comment recorded in the history store.
type Review struct {
	ID           int64
	RepoFullName string
	PRNumber     int
	Kind         string
	Body         string
	CreatedAt    time.Time
}

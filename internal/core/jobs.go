// Package core defines the essential data structures that form the backbone
// of the application: the job variants carried on the broker, the event
// classification rules that produce them, and the review output model.
package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies a job variant. The set is closed: every record on the
// broker decodes into exactly one of these.
type Kind string

const (
	KindReview Kind = "review"
	KindReply  Kind = "reply"
)

// Event type labels carried inside the job record. The record is
// self-describing, but routing is decided by queue membership, not by this
// field.
const (
	EventPullRequest            = "pull_request"
	EventPullRequestSynchronize = "pull_request_synchronize"
	EventIssueComment           = "issue_comment"
)

// Job is the closed union of work-item variants. Implementations are
// ReviewJob and ReplyJob only.
type Job interface {
	Kind() Kind
	Validate() error
}

// ReviewJob describes one pull request to review. Produced by the classifier
// for pull_request opened/synchronize events, consumed exactly once per
// delivery by the worker.
type ReviewJob struct {
	EventType      string `json:"event_type"`
	RepoFullName   string `json:"repo_full_name"`
	PRNumber       int    `json:"pr_number"`
	InstallationID int64  `json:"installation_id"`
}

// Kind implements Job.
func (j *ReviewJob) Kind() Kind { return KindReview }

// Validate checks the fixed field set of a review job.
func (j *ReviewJob) Validate() error {
	if j.RepoFullName == "" {
		return &JobDecodeError{Reason: "missing repo_full_name"}
	}
	if !strings.Contains(j.RepoFullName, "/") {
		return &JobDecodeError{Reason: fmt.Sprintf("repo_full_name %q is not of the form owner/repo", j.RepoFullName)}
	}
	if j.PRNumber <= 0 {
		return &JobDecodeError{Reason: fmt.Sprintf("pr_number must be positive, got %d", j.PRNumber)}
	}
	if j.InstallationID <= 0 {
		return &JobDecodeError{Reason: fmt.Sprintf("installation_id must be positive, got %d", j.InstallationID)}
	}
	return nil
}

// Owner returns the owner half of the repository full name.
func (j *ReviewJob) Owner() string {
	owner, _, _ := strings.Cut(j.RepoFullName, "/")
	return owner
}

// Repo returns the repository half of the repository full name.
func (j *ReviewJob) Repo() string {
	_, repo, _ := strings.Cut(j.RepoFullName, "/")
	return repo
}

// ReplyJob describes one PR conversation comment to answer. Produced for
// issue_comment created events whose issue is a pull request.
type ReplyJob struct {
	EventType      string `json:"event_type"`
	RepoFullName   string `json:"repo_full_name"`
	PRNumber       int    `json:"pr_number"`
	InstallationID int64  `json:"installation_id"`
	CommentBody    string `json:"comment_body"`
	CommenterLogin string `json:"commenter_login"`
}

// Kind implements Job.
func (j *ReplyJob) Kind() Kind { return KindReply }

// Validate checks the fixed field set of a reply job.
func (j *ReplyJob) Validate() error {
	base := ReviewJob{
		EventType:      j.EventType,
		RepoFullName:   j.RepoFullName,
		PRNumber:       j.PRNumber,
		InstallationID: j.InstallationID,
	}
	if err := base.Validate(); err != nil {
		return err
	}
	if j.CommenterLogin == "" {
		return &JobDecodeError{Reason: "missing commenter_login"}
	}
	return nil
}

// Owner returns the owner half of the repository full name.
func (j *ReplyJob) Owner() string {
	owner, _, _ := strings.Cut(j.RepoFullName, "/")
	return owner
}

// Repo returns the repository half of the repository full name.
func (j *ReplyJob) Repo() string {
	_, repo, _ := strings.Cut(j.RepoFullName, "/")
	return repo
}

// EncodeJob serializes a job into its broker wire form.
func EncodeJob(j Job) ([]byte, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(j)
}

// DecodeReviewJob parses a raw broker record popped from the review queue.
// Any failure is a *JobDecodeError.
func DecodeReviewJob(raw []byte) (*ReviewJob, error) {
	var j ReviewJob
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, &JobDecodeError{Reason: "record is not valid JSON", Err: err}
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return &j, nil
}

// DecodeReplyJob parses a raw broker record popped from the reply queue.
// Any failure is a *JobDecodeError.
func DecodeReplyJob(raw []byte) (*ReplyJob, error) {
	var j ReplyJob
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, &JobDecodeError{Reason: "record is not valid JSON", Err: err}
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return &j, nil
}

package core

import (
	"github.com/google/go-github/v73/github"
)

// JobFromPullRequest classifies a pull_request webhook event. Opened and
// synchronized pull requests yield a ReviewJob; every other action is
// ignored. It acts as an anti-corruption layer: a selected payload missing a
// required field yields a *MalformedPayloadError naming that field.
func JobFromPullRequest(event *github.PullRequestEvent) (*ReviewJob, error) {
	eventType := ""
	switch event.GetAction() {
	case "opened":
		eventType = EventPullRequest
	case "synchronize":
		eventType = EventPullRequestSynchronize
	default:
		return nil, ErrIgnoreEvent
	}

	if event.GetRepo().GetFullName() == "" {
		return nil, &MalformedPayloadError{Field: "repository.full_name"}
	}
	if event.GetPullRequest() == nil || event.GetPullRequest().GetNumber() <= 0 {
		return nil, &MalformedPayloadError{Field: "pull_request.number"}
	}
	if event.GetInstallation().GetID() == 0 {
		return nil, &MalformedPayloadError{Field: "installation.id"}
	}

	return &ReviewJob{
		EventType:      eventType,
		RepoFullName:   event.GetRepo().GetFullName(),
		PRNumber:       event.GetPullRequest().GetNumber(),
		InstallationID: event.GetInstallation().GetID(),
	}, nil
}

// JobFromIssueComment classifies an issue_comment webhook event. Newly
// created comments on issues that are pull requests yield a ReplyJob.
// Comments on plain issues, and comment edits or deletions, are ignored.
//
// Comments authored by the bot itself are classified normally; the feedback
// loop is broken at consumption time by the worker, not here.
func JobFromIssueComment(event *github.IssueCommentEvent) (*ReplyJob, error) {
	if event.GetAction() != "created" {
		return nil, ErrIgnoreEvent
	}
	if !event.GetIssue().IsPullRequest() {
		return nil, ErrIgnoreEvent
	}

	if event.GetRepo().GetFullName() == "" {
		return nil, &MalformedPayloadError{Field: "repository.full_name"}
	}
	if event.GetIssue().GetNumber() <= 0 {
		return nil, &MalformedPayloadError{Field: "issue.number"}
	}
	if event.GetInstallation().GetID() == 0 {
		return nil, &MalformedPayloadError{Field: "installation.id"}
	}
	if event.GetComment().GetUser().GetLogin() == "" {
		return nil, &MalformedPayloadError{Field: "comment.user.login"}
	}

	return &ReplyJob{
		EventType:      EventIssueComment,
		RepoFullName:   event.GetRepo().GetFullName(),
		PRNumber:       event.GetIssue().GetNumber(),
		InstallationID: event.GetInstallation().GetID(),
		CommentBody:    event.GetComment().GetBody(),
		CommenterLogin: event.GetComment().GetUser().GetLogin(),
	}, nil
}

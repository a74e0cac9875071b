// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"fmt"

	"github.com/google/go-github/v73/github"
)

// Actions on a pull request that trigger a review.
const (
	ActionOpened      = "opened"
	ActionSynchronize = "synchronize"
)

// PullRequestEvent is the application's internal view of one webhook delivery
// for a pull request. Immutable once built; a redelivery of the same logical
// event produces a distinct value with a distinct DeliveryID.
type PullRequestEvent struct {
	DeliveryID string
	Action     string

	RepoOwner    string
	RepoName     string
	RepoFullName string

	PRNumber int
	PRTitle  string
	HeadSHA  string

	InstallationID int64
}

// IsReviewAction reports whether action is one the review pipeline handles.
func IsReviewAction(action string) bool {
	return action == ActionOpened || action == ActionSynchronize
}

// EventFromPullRequest transforms a raw GitHub PullRequestEvent into the
// application's internal representation. It acts as an anti-corruption layer,
// ensuring the incoming payload is complete before it reaches the orchestrator.
// Deliveries for actions other than "opened" and "synchronize" are rejected
// here so the handler can acknowledge and drop them.
func EventFromPullRequest(deliveryID string, event *github.PullRequestEvent) (*PullRequestEvent, error) {
	action := event.GetAction()
	if !IsReviewAction(action) {
		return nil, fmt.Errorf("action %q does not trigger a review", action)
	}

	repo := event.GetRepo()
	if repo == nil || repo.GetOwner() == nil || repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return nil, fmt.Errorf("repository or owner information is missing from the event")
	}

	pr := event.GetPullRequest()
	if pr == nil {
		return nil, fmt.Errorf("pull request information is missing from the event")
	}

	prNumber := pr.GetNumber()
	if prNumber <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", prNumber)
	}

	headSHA := pr.GetHead().GetSHA()
	if headSHA == "" {
		return nil, fmt.Errorf("pull request head SHA is missing from the event")
	}

	if event.GetInstallation() == nil || event.GetInstallation().GetID() == 0 {
		return nil, fmt.Errorf("installation ID is missing from the event")
	}

	return &PullRequestEvent{
		DeliveryID:     deliveryID,
		Action:         action,
		RepoOwner:      repo.GetOwner().GetLogin(),
		RepoName:       repo.GetName(),
		RepoFullName:   repo.GetFullName(),
		PRNumber:       prNumber,
		PRTitle:        pr.GetTitle(),
		HeadSHA:        headSHA,
		InstallationID: event.GetInstallation().GetID(),
	}, nil
}

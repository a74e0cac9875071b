package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	gh "github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ganderhq/gander/internal/config"
	"github.com/ganderhq/gander/internal/core"
	"github.com/ganderhq/gander/internal/jobs"
)

type fakeIntake struct {
	acceptOK bool
	reason   string
	accepted []*core.PullRequestEvent
	released []*core.PullRequestEvent
}

func (f *fakeIntake) Accept(event *core.PullRequestEvent) (bool, string) {
	f.accepted = append(f.accepted, event)
	return f.acceptOK, f.reason
}

func (f *fakeIntake) Release(event *core.PullRequestEvent) {
	f.released = append(f.released, event)
}

type fakeDispatcher struct {
	err        error
	dispatched []*core.PullRequestEvent
}

func (f *fakeDispatcher) Dispatch(_ context.Context, event *core.PullRequestEvent) error {
	if f.err != nil {
		return f.err
	}
	f.dispatched = append(f.dispatched, event)
	return nil
}

func (f *fakeDispatcher) Stop() {}

const testSecret = "s3cret-token"

func newTestHandler(intake *fakeIntake, dispatcher *fakeDispatcher) *WebhookHandler {
	cfg := &config.Config{GitHub: config.GitHubConfig{WebhookSecret: testSecret}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWebhookHandler(cfg, intake, dispatcher, logger)
}

func prPayload(t *testing.T, action, sha string, mutate func(*gh.PullRequestEvent)) []byte {
	t.Helper()

	event := &gh.PullRequestEvent{
		Action: gh.Ptr(action),
		Repo: &gh.Repository{
			Name:     gh.Ptr("widgets"),
			FullName: gh.Ptr("octo/widgets"),
			Owner:    &gh.User{Login: gh.Ptr("octo")},
		},
		PullRequest: &gh.PullRequest{
			Number: gh.Ptr(42),
			Title:  gh.Ptr("Improve parser"),
			Head:   &gh.PullRequestBranch{SHA: gh.Ptr(sha)},
		},
		Installation: &gh.Installation{ID: gh.Ptr(int64(1001))},
	}
	if mutate != nil {
		mutate(event)
	}

	body, err := json.Marshal(event)
	require.NoError(t, err)
	return body
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func webhookRequest(body []byte, eventType, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/github", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", eventType)
	req.Header.Set("X-GitHub-Delivery", "delivery-123")
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}
	return req
}

func TestWebhookAcceptsPullRequest(t *testing.T) {
	intake := &fakeIntake{acceptOK: true}
	dispatcher := &fakeDispatcher{}
	h := newTestHandler(intake, dispatcher)

	body := prPayload(t, "opened", "aaa111", nil)
	rec := httptest.NewRecorder()
	h.Handle(rec, webhookRequest(body, "pull_request", signBody(testSecret, body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Review accepted")

	require.Len(t, intake.accepted, 1)
	require.Len(t, dispatcher.dispatched, 1)

	event := dispatcher.dispatched[0]
	assert.Equal(t, "octo", event.RepoOwner)
	assert.Equal(t, "widgets", event.RepoName)
	assert.Equal(t, "octo/widgets", event.RepoFullName)
	assert.Equal(t, 42, event.PRNumber)
	assert.Equal(t, "aaa111", event.HeadSHA)
	assert.Equal(t, int64(1001), event.InstallationID)
	assert.Equal(t, "delivery-123", event.DeliveryID)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	tests := []struct {
		name      string
		signature func(body []byte) string
	}{
		{
			name:      "wrong secret",
			signature: func(body []byte) string { return signBody("not-the-secret", body) },
		},
		{
			name:      "missing header",
			signature: func([]byte) string { return "" },
		},
		{
			name:      "signature of different body",
			signature: func([]byte) string { return signBody(testSecret, []byte("other payload")) },
		},
		{
			name:      "malformed header",
			signature: func([]byte) string { return "sha256=zzzz" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intake := &fakeIntake{acceptOK: true}
			dispatcher := &fakeDispatcher{}
			h := newTestHandler(intake, dispatcher)

			body := prPayload(t, "opened", "aaa111", nil)
			rec := httptest.NewRecorder()
			h.Handle(rec, webhookRequest(body, "pull_request", tt.signature(body)))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, intake.accepted, "nothing downstream may observe an unverified delivery")
			assert.Empty(t, dispatcher.dispatched)
		})
	}
}

func TestWebhookRejectsMalformedJSON(t *testing.T) {
	intake := &fakeIntake{acceptOK: true}
	dispatcher := &fakeDispatcher{}
	h := newTestHandler(intake, dispatcher)

	body := []byte(`{"action": "opened", "pull_request": `)
	rec := httptest.NewRecorder()
	h.Handle(rec, webhookRequest(body, "pull_request", signBody(testSecret, body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, dispatcher.dispatched)
}

func TestWebhookIgnoresOtherEventTypes(t *testing.T) {
	intake := &fakeIntake{acceptOK: true}
	dispatcher := &fakeDispatcher{}
	h := newTestHandler(intake, dispatcher)

	body := []byte(`{"zen": "Keep it logically awesome."}`)
	rec := httptest.NewRecorder()
	h.Handle(rec, webhookRequest(body, "ping", signBody(testSecret, body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, intake.accepted)
	assert.Empty(t, dispatcher.dispatched)
}

func TestWebhookIgnoresOtherActions(t *testing.T) {
	for _, action := range []string{"closed", "labeled", "review_requested"} {
		t.Run(action, func(t *testing.T) {
			intake := &fakeIntake{acceptOK: true}
			dispatcher := &fakeDispatcher{}
			h := newTestHandler(intake, dispatcher)

			body := prPayload(t, action, "aaa111", nil)
			rec := httptest.NewRecorder()
			h.Handle(rec, webhookRequest(body, "pull_request", signBody(testSecret, body)))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, dispatcher.dispatched)
		})
	}
}

func TestWebhookRejectsIncompleteEvents(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*gh.PullRequestEvent)
	}{
		{
			name:   "missing installation",
			mutate: func(e *gh.PullRequestEvent) { e.Installation = nil },
		},
		{
			name:   "missing head sha",
			mutate: func(e *gh.PullRequestEvent) { e.PullRequest.Head = nil },
		},
		{
			name:   "missing repository",
			mutate: func(e *gh.PullRequestEvent) { e.Repo = nil },
		},
		{
			name:   "missing pull request",
			mutate: func(e *gh.PullRequestEvent) { e.PullRequest = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intake := &fakeIntake{acceptOK: true}
			dispatcher := &fakeDispatcher{}
			h := newTestHandler(intake, dispatcher)

			body := prPayload(t, "synchronize", "aaa111", tt.mutate)
			rec := httptest.NewRecorder()
			h.Handle(rec, webhookRequest(body, "pull_request", signBody(testSecret, body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, dispatcher.dispatched)
		})
	}
}

func TestWebhookAcknowledgesDroppedDuplicate(t *testing.T) {
	intake := &fakeIntake{acceptOK: false, reason: "a run for this head SHA is already in flight"}
	dispatcher := &fakeDispatcher{}
	h := newTestHandler(intake, dispatcher)

	body := prPayload(t, "synchronize", "aaa111", nil)
	rec := httptest.NewRecorder()
	h.Handle(rec, webhookRequest(body, "pull_request", signBody(testSecret, body)))

	assert.Equal(t, http.StatusOK, rec.Code, "duplicates are acknowledged so the host does not redeliver")
	assert.Contains(t, rec.Body.String(), "Delivery dropped")
	assert.Empty(t, dispatcher.dispatched)
}

func TestWebhookReleasesStateWhenQueueIsFull(t *testing.T) {
	intake := &fakeIntake{acceptOK: true}
	dispatcher := &fakeDispatcher{err: jobs.ErrQueueFull}
	h := newTestHandler(intake, dispatcher)

	body := prPayload(t, "opened", "aaa111", nil)
	rec := httptest.NewRecorder()
	h.Handle(rec, webhookRequest(body, "pull_request", signBody(testSecret, body)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Len(t, intake.released, 1, "claimed state must be released so the redelivery can start a run")
	assert.Equal(t, "aaa111", intake.released[0].HeadSHA)
}

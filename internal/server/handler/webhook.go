// Package handler provides the HTTP handlers for the webhook and status
// endpoints.
package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	gh "github.com/google/go-github/v73/github"

	"github.com/ganderhq/gander/internal/config"
	"github.com/ganderhq/gander/internal/core"
	"github.com/ganderhq/gander/internal/github"
	"github.com/ganderhq/gander/internal/jobs"
)

// maxPayloadBytes caps how much of a webhook body is read. Pull request
// payloads are far smaller; anything bigger is not a delivery we handle.
const maxPayloadBytes = 1 << 20

// ReviewIntake claims and releases per-PR processing state for deliveries.
// Implemented by the orchestrator.
type ReviewIntake interface {
	Accept(event *core.PullRequestEvent) (bool, string)
	Release(event *core.PullRequestEvent)
}

// WebhookHandler processes incoming webhooks from GitHub.
type WebhookHandler struct {
	secret     []byte
	intake     ReviewIntake
	dispatcher core.JobDispatcher
	logger     *slog.Logger
}

// NewWebhookHandler creates a webhook handler bound to the configured
// signing secret.
func NewWebhookHandler(cfg *config.Config, intake ReviewIntake, dispatcher core.JobDispatcher, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		secret:     []byte(cfg.GitHub.WebhookSecret),
		intake:     intake,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Handle verifies, parses, and enqueues one webhook delivery, responding
// before any review work happens. 401 means the signature did not match,
// 400 means the payload is not a usable pull request event, and everything
// the service chooses not to review is acknowledged with 200 so the host
// does not redeliver it.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		http.Error(w, "Could not read request body", http.StatusBadRequest)
		return
	}

	// Sole authorization gate. The response must not reveal why the
	// signature was rejected.
	if !github.VerifySignature(h.secret, body, r.Header.Get(github.SignatureHeader)) {
		h.logger.Error("webhook signature verification failed", "delivery_id", gh.DeliveryID(r))
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	eventType := gh.WebHookType(r)
	payload, err := gh.ParseWebHook(eventType, body)
	if err != nil {
		h.logger.Error("could not parse webhook", "type", eventType, "error", err)
		http.Error(w, "Could not parse webhook", http.StatusBadRequest)
		return
	}

	switch event := payload.(type) {
	case *gh.PullRequestEvent:
		h.handlePullRequest(w, r, event)
	default:
		h.logger.Debug("ignoring unhandled webhook event type", "type", eventType)
		_, _ = fmt.Fprint(w, "Event type not handled")
	}
}

// handlePullRequest claims processing state for a reviewable delivery and
// queues it. The review itself runs on a worker; the delivery is answered
// immediately.
func (h *WebhookHandler) handlePullRequest(w http.ResponseWriter, r *http.Request, event *gh.PullRequestEvent) {
	if !core.IsReviewAction(event.GetAction()) {
		h.logger.Debug("ignoring pull request action", "action", event.GetAction())
		_, _ = fmt.Fprint(w, "Action not handled")
		return
	}

	reviewEvent, err := core.EventFromPullRequest(gh.DeliveryID(r), event)
	if err != nil {
		h.logger.Error("rejecting malformed pull request event", "error", err)
		http.Error(w, "Malformed pull request event", http.StatusBadRequest)
		return
	}

	logger := h.logger.With("repo", reviewEvent.RepoFullName, "pr", reviewEvent.PRNumber, "head_sha", reviewEvent.HeadSHA)

	accepted, reason := h.intake.Accept(reviewEvent)
	if !accepted {
		logger.Info("dropping delivery", "reason", reason)
		_, _ = fmt.Fprint(w, "Delivery dropped: "+reason)
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), reviewEvent); err != nil {
		h.intake.Release(reviewEvent)
		if errors.Is(err, jobs.ErrQueueFull) {
			logger.Warn("review queue is full, asking for redelivery")
			http.Error(w, "Review queue is full, retry later", http.StatusServiceUnavailable)
			return
		}
		logger.Error("failed to dispatch review job", "error", err)
		http.Error(w, "Failed to queue review", http.StatusInternalServerError)
		return
	}

	logger.Info("review job queued", "delivery_id", reviewEvent.DeliveryID)
	_, _ = fmt.Fprint(w, "Review accepted")
}

package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ganderhq/gander/internal/core"
)

// Outcome is the terminal state of one review run.
type Outcome string

const (
	// OutcomePublished means the review comment was posted.
	OutcomePublished Outcome = "published"
	// OutcomeSkipped means the run ended cleanly with nothing to review.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeSuperseded means a newer head SHA arrived before this run
	// published, so its result was discarded.
	OutcomeSuperseded Outcome = "superseded"
	// OutcomeFailed means the run was dropped after exhausting its retry
	// budget.
	OutcomeFailed Outcome = "failed"
)

// Pipeline executes one review run. The gate context is closed when a newer
// head SHA supersedes the run; fetching and generation may still finish, but
// nothing may be published once the gate is closed.
type Pipeline interface {
	Execute(ctx, gate context.Context, event *core.PullRequestEvent) (Outcome, error)
}

// prKey identifies one pull request across deliveries.
type prKey struct {
	repo string
	num  int
}

// run tracks one in-flight review. cancelPublish closes the publish gate when
// the run is superseded.
type run struct {
	headSHA       string
	publishCtx    context.Context
	cancelPublish context.CancelFunc
	startedAt     time.Time
}

// Orchestrator serializes review runs per pull request. A redelivery for the
// head SHA already being processed is dropped, and a delivery for a newer
// head SHA closes the in-flight run's publish gate so only the newest
// revision gets a comment. Every terminal outcome returns the pull request to
// idle, so a later delivery for the same SHA starts a fresh run.
type Orchestrator struct {
	pipeline Pipeline
	logger   *slog.Logger

	mu   sync.Mutex
	runs map[prKey]*run

	accepted   atomic.Int64
	duplicates atomic.Int64
	superseded atomic.Int64
	published  atomic.Int64
	skipped    atomic.Int64
	failed     atomic.Int64
	inFlight   atomic.Int64
}

func NewOrchestrator(pipeline Pipeline, logger *slog.Logger) *Orchestrator {
	if pipeline == nil {
		panic("pipeline must not be nil")
	}
	if logger == nil {
		panic("logger must not be nil")
	}
	return &Orchestrator{
		pipeline: pipeline,
		logger:   logger,
		runs:     make(map[prKey]*run),
	}
}

// Accept decides whether a delivery starts a review run. It returns false
// with a reason when the delivery is a duplicate of the run already in
// flight. When the delivery carries a newer head SHA for a pull request being
// processed, the old run's publish gate is closed before the new run is
// registered.
//
// Accept only manages state; the caller still has to dispatch the event, and
// must call Release if dispatching fails.
func (o *Orchestrator) Accept(event *core.PullRequestEvent) (bool, string) {
	key := prKey{repo: event.RepoFullName, num: event.PRNumber}

	o.mu.Lock()
	defer o.mu.Unlock()

	if existing, ok := o.runs[key]; ok {
		if existing.headSHA == event.HeadSHA {
			o.duplicates.Add(1)
			return false, "a run for this head SHA is already in flight"
		}
		// A newer revision of the same pull request. The old run may keep
		// fetching and generating, but it must not publish.
		existing.cancelPublish()
		o.superseded.Add(1)
		o.logger.Info("superseding in-flight run",
			"repo", event.RepoFullName,
			"pr", event.PRNumber,
			"old_head_sha", existing.headSHA,
			"new_head_sha", event.HeadSHA,
		)
	}

	// The gate is rooted in the background, not the request: processing
	// outlives the webhook delivery that triggered it.
	publishCtx, cancel := context.WithCancel(context.Background())
	o.runs[key] = &run{
		headSHA:       event.HeadSHA,
		publishCtx:    publishCtx,
		cancelPublish: cancel,
		startedAt:     time.Now(),
	}
	o.accepted.Add(1)
	return true, ""
}

// Release forgets a run that was accepted but never dispatched, returning the
// pull request to idle.
func (o *Orchestrator) Release(event *core.PullRequestEvent) {
	key := prKey{repo: event.RepoFullName, num: event.PRNumber}

	o.mu.Lock()
	defer o.mu.Unlock()

	if r, ok := o.runs[key]; ok && r.headSHA == event.HeadSHA {
		r.cancelPublish()
		delete(o.runs, key)
	}
}

// Run executes the review pipeline for one accepted event. It implements
// core.Job so the dispatcher's workers can drive it.
func (o *Orchestrator) Run(ctx context.Context, event *core.PullRequestEvent) error {
	key := prKey{repo: event.RepoFullName, num: event.PRNumber}

	r := o.lookup(key, event.HeadSHA)
	if r == nil {
		// Superseded or released while waiting in the queue.
		o.logger.Info("dropping queued run for a stale head SHA",
			"repo", event.RepoFullName,
			"pr", event.PRNumber,
			"head_sha", event.HeadSHA,
		)
		return nil
	}

	o.inFlight.Add(1)
	defer o.inFlight.Add(-1)

	outcome, err := o.pipeline.Execute(ctx, r.publishCtx, event)
	o.finish(key, r)

	switch outcome {
	case OutcomePublished:
		o.published.Add(1)
	case OutcomeSkipped:
		o.skipped.Add(1)
	case OutcomeSuperseded:
		// Already counted when the newer delivery arrived.
	default:
		o.failed.Add(1)
	}

	if err != nil {
		return fmt.Errorf("review run for %s#%d failed: %w", event.RepoFullName, event.PRNumber, err)
	}
	return nil
}

func (o *Orchestrator) lookup(key prKey, headSHA string) *run {
	o.mu.Lock()
	defer o.mu.Unlock()

	r, ok := o.runs[key]
	if !ok || r.headSHA != headSHA {
		return nil
	}
	return r
}

// finish returns the pull request to idle, unless a newer run has already
// replaced this one.
func (o *Orchestrator) finish(key prKey, r *run) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if cur, ok := o.runs[key]; ok && cur == r {
		r.cancelPublish()
		delete(o.runs, key)
	}
}

// ActiveRun describes one pull request currently being processed.
type ActiveRun struct {
	Repo      string    `json:"repo"`
	PRNumber  int       `json:"pr_number"`
	HeadSHA   string    `json:"head_sha"`
	StartedAt time.Time `json:"started_at"`
}

// StatusSnapshot is a point-in-time view of the orchestrator for the status
// endpoint.
type StatusSnapshot struct {
	Accepted   int64       `json:"accepted"`
	Duplicates int64       `json:"duplicates"`
	Superseded int64       `json:"superseded"`
	Published  int64       `json:"published"`
	Skipped    int64       `json:"skipped"`
	Failed     int64       `json:"failed"`
	InFlight   int64       `json:"in_flight"`
	ActiveRuns []ActiveRun `json:"active_runs"`
}

// Snapshot reports cumulative counters and the runs currently registered,
// sorted for stable display.
func (o *Orchestrator) Snapshot() StatusSnapshot {
	snap := StatusSnapshot{
		Accepted:   o.accepted.Load(),
		Duplicates: o.duplicates.Load(),
		Superseded: o.superseded.Load(),
		Published:  o.published.Load(),
		Skipped:    o.skipped.Load(),
		Failed:     o.failed.Load(),
		InFlight:   o.inFlight.Load(),
	}

	o.mu.Lock()
	for key, r := range o.runs {
		snap.ActiveRuns = append(snap.ActiveRuns, ActiveRun{
			Repo:      key.repo,
			PRNumber:  key.num,
			HeadSHA:   r.headSHA,
			StartedAt: r.startedAt,
		})
	}
	o.mu.Unlock()

	sort.Slice(snap.ActiveRuns, func(i, j int) bool {
		if snap.ActiveRuns[i].Repo != snap.ActiveRuns[j].Repo {
			return snap.ActiveRuns[i].Repo < snap.ActiveRuns[j].Repo
		}
		return snap.ActiveRuns[i].PRNumber < snap.ActiveRuns[j].PRNumber
	})
	return snap
}

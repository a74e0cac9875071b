// Package jobs defines background tasks such as automated code reviews.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ganderhq/gander/internal/core"
)

// ErrQueueFull reports that the dispatch queue cannot take another event.
// The webhook handler turns this into a 503 so the host redelivers later.
var ErrQueueFull = errors.New("job queue is full, cannot accept new review job")

// dispatcher implements core.JobDispatcher and manages a pool of worker
// goroutines that process pull request events as review jobs.
type dispatcher struct {
	job        core.Job                    // Job implementation executed by each worker.
	jobQueue   chan *core.PullRequestEvent // Queue of incoming events.
	maxWorkers int                         // Number of concurrent workers.
	wg         sync.WaitGroup              // Tracks active workers for graceful shutdown.
	logger     *slog.Logger                // Logger instance for the dispatcher.
}

// NewDispatcher initializes a dispatcher with a worker pool. maxWorkers
// defaults to 1 and queueSize to 100 when zero or negative.
func NewDispatcher(job core.Job, maxWorkers, queueSize int, logger *slog.Logger) core.JobDispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	d := &dispatcher{
		job:        job,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan *core.PullRequestEvent, queueSize),
		logger:     logger,
	}
	d.startWorkers()
	return d
}

// startWorkers launches maxWorkers goroutines to process jobs from the queue.
func (d *dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

// startWorker processes events from the queue until it's closed.
func (d *dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Info("starting review worker", "id", workerID)

	for event := range d.jobQueue {
		d.processEvent(workerID, event)
	}

	d.logger.Info("shutting down review worker", "id", workerID)
}

// processEvent runs the review job for one event. Processing is detached
// from the webhook delivery that queued it, so it runs under a background
// context.
func (d *dispatcher) processEvent(workerID int, event *core.PullRequestEvent) {
	d.logger.Info("worker processing job",
		"worker_id", workerID,
		"repo", event.RepoFullName,
		"pr", event.PRNumber,
	)

	err := d.job.Run(context.Background(), event)
	if err != nil {
		d.logger.Error("review job failed",
			"repo", event.RepoFullName,
			"pr", event.PRNumber,
			"error", err,
		)
	}
}

// Dispatch queues a pull request event for processing by a worker.
func (d *dispatcher) Dispatch(_ context.Context, event *core.PullRequestEvent) error {
	d.logger.Info("queuing review job", "repo", event.RepoFullName, "pr", event.PRNumber)

	select {
	case d.jobQueue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop gracefully shuts down the dispatcher, waiting for all workers to finish.
func (d *dispatcher) Stop() {
	d.logger.Info("stopping dispatcher and waiting for jobs to finish")
	close(d.jobQueue)
	d.wg.Wait()
	d.logger.Info("all review jobs have finished")
}

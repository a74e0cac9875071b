package main

import (
	"time"

	"github.com/ganderhq/gander/internal/jobs"
)

// Carries the result of one status poll.
type statusMsg struct {
	snapshot  *jobs.StatusSnapshot
	fetchedAt time.Time
	err       error
}

// Fires when the next poll is due.
type tickMsg time.Time

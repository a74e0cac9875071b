package core

import (
	"time"
)

// ChangedFile is a single file entry from a pull request's files listing.
// PatchOmitted marks entries the host returned without patch text (binary or
// very large files); those are skipped when the diff is serialized.
type ChangedFile struct {
	Path         string
	Patch        string
	Additions    int
	Deletions    int
	PatchOmitted bool
}

// DiffBundle is the full change set for one PR revision. Built fresh per
// review attempt and never mutated after construction; Files keeps the order
// the host returned.
type DiffBundle struct {
	RepoFullName string
	PRNumber     int
	PRTitle      string
	HeadSHA      string
	Files        []ChangedFile
}

// HasPatches reports whether at least one file carries patch text. A bundle
// without any is not reviewable and the run ends without a comment.
func (b *DiffBundle) HasPatches() bool {
	for _, f := range b.Files {
		if !f.PatchOmitted && f.Patch != "" {
			return true
		}
	}
	return false
}

// ReviewResult is one generated review for a (pr_number, head_sha) pair.
// A later head SHA supersedes this result but never removes a comment that
// was already posted for it.
type ReviewResult struct {
	PRNumber    int
	HeadSHA     string
	Body        string
	GeneratedAt time.Time
}

// InstallationToken is a short-lived access token for one app installation.
// Owned exclusively by the token cache, held in memory only, and overwritten
// on refresh.
type InstallationToken struct {
	InstallationID int64
	Token          string
	ExpiresAt      time.Time
}

// Fresh reports whether the token is still safe to hand out: non-empty and
// at least margin away from expiry, so a token never dies mid-request.
func (t InstallationToken) Fresh(now time.Time, margin time.Duration) bool {
	return t.Token != "" && now.Before(t.ExpiresAt.Add(-margin))
}

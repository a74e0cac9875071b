package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ganderhq/gander/internal/jobs"
)

type fakeStatusSource struct {
	snap jobs.StatusSnapshot
}

func (f *fakeStatusSource) Snapshot() jobs.StatusSnapshot {
	return f.snap
}

func TestStatusHandlerServesSnapshot(t *testing.T) {
	source := &fakeStatusSource{
		snap: jobs.StatusSnapshot{
			Accepted:  12,
			Published: 9,
			Skipped:   1,
			Failed:    1,
			InFlight:  1,
			ActiveRuns: []jobs.ActiveRun{
				{Repo: "octo/widgets", PRNumber: 42, HeadSHA: "aaa111", StartedAt: time.Now()},
			},
		},
	}
	h := NewStatusHandler(source, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got jobs.StatusSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(12), got.Accepted)
	assert.Equal(t, int64(9), got.Published)
	require.Len(t, got.ActiveRuns, 1)
	assert.Equal(t, "octo/widgets", got.ActiveRuns[0].Repo)
	assert.Equal(t, 42, got.ActiveRuns[0].PRNumber)
}

func TestStatusHandlerReportsEmptyRunsAsList(t *testing.T) {
	h := NewStatusHandler(&fakeStatusSource{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active_runs":[]`, "active_runs must be a list even when empty")
}

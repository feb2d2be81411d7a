package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "igharvest/pkg/errors"
)

func TestNewReport(t *testing.T) {
	r := New("golang")
	_, err := uuid.Parse(r.RunID)
	assert.NoError(t, err)
	assert.Equal(t, StatusRunning, r.Status)
	assert.NotEqual(t, r.RunID, New("golang").RunID)
	assert.NotNil(t, r.Skipped)
}

func TestAddSkip(t *testing.T) {
	r := New("golang")
	r.AddSkip("detail", "A", &errs.FetchError{Op: "detail", Key: "A", Attempts: 3, Cause: &errs.Error{Type: errs.ErrorTypeServerError, Code: 500}})
	r.AddSkip("profile", "u1", errors.New("plain"))
	r.AddSkip("profile", "u2", nil)

	require.Len(t, r.Skipped, 3)
	assert.Equal(t, "server_error", r.Skipped[0].ErrorType)
	assert.Contains(t, r.Skipped[0].Reason, "failed after 3 attempts")
	assert.Equal(t, "unknown", r.Skipped[1].ErrorType)
	assert.Equal(t, "", r.Skipped[2].Reason)
	assert.Equal(t, 1, r.SkippedIn("detail"))
	assert.Equal(t, 2, r.SkippedIn("profile"))
}

func TestFinish(t *testing.T) {
	r := New("golang")
	r.Finish(StatusFailed, errs.ErrDiscoveryTimeout)
	assert.Equal(t, StatusFailed, r.Status)
	assert.Equal(t, errs.ErrDiscoveryTimeout.Error(), r.Error)
	assert.False(t, r.FinishedAt.Before(r.StartedAt))
	assert.NotEmpty(t, r.Duration)
}

func TestSummary(t *testing.T) {
	r := New("golang")
	r.PostsFetched, r.CommentRows, r.UniqueCommenters, r.ProfilesEnriched = 2, 4, 3, 3
	r.Finish(StatusCompleted, nil)
	assert.Equal(t, "completed: 2 posts, 4 comment rows, 3 commenters, 3 profiles (0 with contact), 0 skipped", r.Summary())
}

func TestLoadRoundTrip(t *testing.T) {
	r := New("golang")
	r.AddOutput("comments", "out/comments.csv")
	r.Finish(StatusInterrupted, nil)

	path := filepath.Join(t.TempDir(), "report.json")
	data, err := json.Marshal(r)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, r.RunID, loaded.RunID)
	assert.Equal(t, StatusInterrupted, loaded.Status)
	assert.Equal(t, "out/comments.csv", loaded.Outputs["comments"])

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

// Package report records what one harvest run did.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	errs "igharvest/pkg/errors"
)

// Status is how a run ended
type Status string

const (
	StatusRunning     Status = "running"
	StatusCompleted   Status = "completed"
	StatusInterrupted Status = "interrupted"
	StatusFailed      Status = "failed"
)

// Skip is one post or profile the run gave up on
type Skip struct {
	Stage     string `json:"stage"`
	Key       string `json:"key"`
	ErrorType string `json:"error_type"`
	Reason    string `json:"reason"`
}

// Report is the JSON summary written next to the output tables
type Report struct {
	RunID  string `json:"run_id"`
	Topic  string `json:"topic,omitempty"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Duration   string    `json:"duration,omitempty"`

	ScrollPasses        int `json:"scroll_passes"`
	PostsDiscovered     int `json:"posts_discovered"`
	PostsFetched        int `json:"posts_fetched"`
	CommentRows         int `json:"comment_rows"`
	UniqueCommenters    int `json:"unique_commenters"`
	ProfilesEnriched    int `json:"profiles_enriched"`
	ProfilesWithContact int `json:"profiles_with_contact"`

	Skipped []Skip            `json:"skipped"`
	Outputs map[string]string `json:"outputs,omitempty"`
}

// New starts a report with a fresh run id
func New(topic string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Topic:     topic,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
		Skipped:   []Skip{},
		Outputs:   map[string]string{},
	}
}

// AddSkip records a per-item failure
func (r *Report) AddSkip(stage, key string, err error) {
	s := Skip{Stage: stage, Key: key, ErrorType: string(errs.TypeOf(err))}
	if err != nil {
		s.Reason = err.Error()
	}
	r.Skipped = append(r.Skipped, s)
}

// SkippedIn counts skips recorded for stage
func (r *Report) SkippedIn(stage string) int {
	n := 0
	for _, s := range r.Skipped {
		if s.Stage == stage {
			n++
		}
	}
	return n
}

// AddOutput remembers where a table was written
func (r *Report) AddOutput(kind, path string) {
	if r.Outputs == nil {
		r.Outputs = map[string]string{}
	}
	r.Outputs[kind] = path
}

// Finish stamps the end time and final status
func (r *Report) Finish(status Status, err error) {
	r.FinishedAt = time.Now().UTC()
	r.Duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
	r.Status = status
	if err != nil {
		r.Error = err.Error()
	}
}

// Summary returns a one-line description for the terminal
func (r *Report) Summary() string {
	return fmt.Sprintf("%s: %d posts, %d comment rows, %d commenters, %d profiles (%d with contact), %d skipped",
		r.Status, r.PostsFetched, r.CommentRows, r.UniqueCommenters, r.ProfilesEnriched, r.ProfilesWithContact, len(r.Skipped))
}

// Load reads a report written by an earlier run
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &r, nil
}

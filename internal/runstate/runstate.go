// Package runstate persists a small summary of the most recent run so
// the status server can report it.
package runstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNoRuns indicates no run has completed yet.
var ErrNoRuns = errors.New("no recorded runs")

// Run is the persisted summary of one job execution.
type Run struct {
	// Job is the job kind: "fetch", "update", or "snapshot".
	Job string `json:"job"`

	// JobID is the correlation ID shared with the JSONL records.
	JobID string `json:"job_id"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Success is false when the run aborted.
	Success bool `json:"success"`

	// Error holds the failure message for unsuccessful runs.
	Error string `json:"error,omitempty"`

	// CommitMessage is set for update runs that created a commit.
	CommitMessage string `json:"commit_message,omitempty"`

	// FilesChanged counts repository files touched by an update run.
	FilesChanged int `json:"files_changed,omitempty"`

	// Bytes counts bytes transferred by fetch and snapshot runs.
	Bytes int64 `json:"bytes,omitempty"`
}

// Save writes the run summary atomically.
func Save(path string, run *Run) error {
	raw, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("runstate: encode: %w", err)
	}
	raw = append(raw, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("runstate: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".runstate-*")
	if err != nil {
		return fmt.Errorf("runstate: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("runstate: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("runstate: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("runstate: %w", err)
	}
	return nil
}

// Load reads the last saved run. Returns ErrNoRuns when the state file
// does not exist.
func Load(path string) (*Run, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoRuns
		}
		return nil, fmt.Errorf("runstate: %w", err)
	}

	var run Run
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, fmt.Errorf("runstate: decode: %w", err)
	}
	return &run, nil
}

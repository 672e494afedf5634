// Package output provides JSONL output for sync runs.
//
// Output is structured as typed record envelopes containing pipeline
// steps, fetched assets, errors, and run summaries. Each line is a
// self-contained JSON object that can be parsed independently.
package output

import (
	"encoding/json"
	"errors"
	"time"
)

// Record type constants define the envelope types for JSONL output.
// These follow the pattern: tarkovsync.<type>.v<version>
const (
	// TypeStep identifies pipeline step records.
	TypeStep = "tarkovsync.step.v1"

	// TypeAsset identifies fetched asset records.
	TypeAsset = "tarkovsync.asset.v1"

	// TypeSnapshot identifies API snapshot records.
	TypeSnapshot = "tarkovsync.snapshot.v1"

	// TypeError identifies error records.
	TypeError = "tarkovsync.error.v1"

	// TypeSummary identifies final summary records.
	TypeSummary = "tarkovsync.summary.v1"
)

// Record is the envelope for all JSONL output.
//
// Each line of JSONL output contains a Record with a type-specific
// payload in the Data field. The type field determines how to
// interpret the Data payload.
type Record struct {
	// Type identifies the record type (e.g., "tarkovsync.step.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created (RFC3339Nano).
	TS time.Time `json:"ts"`

	// JobID is the correlation ID for this run.
	JobID string `json:"job_id"`

	// Job identifies the job kind (e.g., "fetch", "update", "snapshot").
	Job string `json:"job"`

	// Data contains the type-specific payload as raw JSON.
	Data json.RawMessage `json:"data"`
}

// Step status constants.
const (
	StepOK      = "ok"
	StepFailed  = "failed"
	StepSkipped = "skipped"
)

// StepRecord is the data payload for pipeline steps.
//
// One step record is emitted per pipeline stage, whether the stage
// succeeded or not, so a run can be reconstructed from its output.
type StepRecord struct {
	// Name is the step name (e.g., "pull", "extract", "push").
	Name string `json:"name"`

	// Status is one of StepOK, StepFailed, StepSkipped.
	Status string `json:"status"`

	// Duration is how long the step ran.
	Duration time.Duration `json:"duration_ns"`

	// Detail carries step-specific context, such as the synthesized
	// commit message for the commit step.
	Detail string `json:"detail,omitempty"`
}

// AssetRecord is the data payload for a fetched game asset.
type AssetRecord struct {
	// Name is the asset file name (e.g., "GameAssembly.dll").
	Name string `json:"name"`

	// URL is the source URL the asset was downloaded from.
	URL string `json:"url"`

	// Bytes is the downloaded size.
	Bytes int64 `json:"bytes"`

	// Duration is the transfer time.
	Duration time.Duration `json:"duration_ns"`
}

// SnapshotRecord is the data payload for a saved API response.
type SnapshotRecord struct {
	// Endpoint is the API route that was queried (e.g., "/client/items").
	Endpoint string `json:"endpoint"`

	// Path is the file the response body was written to.
	Path string `json:"path"`

	// Bytes is the decoded response size.
	Bytes int64 `json:"bytes"`
}

// ErrorRecord is the data payload for errors.
//
// Errors are emitted as records rather than aborting output, so a
// failed run still leaves a parseable trace of what went wrong.
type ErrorRecord struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Step is the pipeline step that failed, if applicable.
	Step string `json:"step,omitempty"`

	// Details contains additional error context.
	Details any `json:"details,omitempty"`
}

// Error codes for ErrorRecord.
const (
	// ErrCodeLocked indicates another run holds the job lock.
	ErrCodeLocked = "LOCKED"

	// ErrCodeTransfer indicates an asset download failure.
	ErrCodeTransfer = "TRANSFER_FAILED"

	// ErrCodeVCS indicates a git operation failure.
	ErrCodeVCS = "VCS_FAILED"

	// ErrCodeExtractor indicates the extractor container failed.
	ErrCodeExtractor = "EXTRACTOR_FAILED"

	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal = "INTERNAL"
)

// SummaryRecord is the data payload for final summaries.
//
// A summary record is emitted at the end of a run with aggregate
// statistics.
type SummaryRecord struct {
	// StepsRun is the number of pipeline steps that executed.
	StepsRun int `json:"steps_run"`

	// StepsFailed is the number of steps that failed.
	StepsFailed int `json:"steps_failed"`

	// FilesChanged is the number of repository files touched.
	FilesChanged int `json:"files_changed"`

	// CommitMessage is the synthesized commit message, if a commit
	// was created.
	CommitMessage string `json:"commit_message,omitempty"`

	// Bytes is the total bytes transferred.
	Bytes int64 `json:"bytes"`

	// Duration is the total run duration.
	Duration time.Duration `json:"duration_ns"`

	// DurationHuman is a human-readable duration string.
	DurationHuman string `json:"duration"`
}

// Writer errors.
var (
	// ErrWriterClosed is returned when writing to a closed writer.
	ErrWriterClosed = errors.New("writer is closed")
)

// WriteError wraps errors that occur during write operations.
type WriteError struct {
	Op  string // Operation that failed (e.g., "marshal_data", "write")
	Err error  // Underlying error
}

func (e *WriteError) Error() string {
	return "output: " + e.Op + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

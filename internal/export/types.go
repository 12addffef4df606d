package export

import (
	"github.com/cutforge/cutforge-agent/internal/timeline"
)

// Request is one export attempt as submitted by a client.
type Request struct {
	Clips     []timeline.Clip   `json:"clips"`
	OutputDir string            `json:"output_dir"`
	Filename  string            `json:"filename"`
	Settings  timeline.Settings `json:"settings"`
}

// Result is the terminal outcome of an export attempt. Every attempt
// produces one; failures are carried in Error rather than escaping as
// faults.
type Result struct {
	Success    bool   `json:"success"`
	OutputPath string `json:"output_path,omitempty"`
	Error      string `json:"error_message,omitempty"`
	Status     Status `json:"-"` // terminal step: completed, failed or cancelled
}

// Status names one step of the export state machine:
// idle -> preparing -> exporting -> {completed | failed | cancelled}.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPreparing Status = "preparing"
	StatusExporting Status = "exporting"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// ProgressEvent is one update emitted while an export attempt runs.
// Telemetry fields are present only when the encoder reported them.
type ProgressEvent struct {
	JobID     string  `json:"job_id,omitempty"`
	Step      Status  `json:"step"`
	Percent   float64 `json:"percent"`
	Remaining float64 `json:"remaining,omitempty"` // estimated seconds left
	Frame     int     `json:"frame,omitempty"`
	FPS       float64 `json:"fps,omitempty"`
	Bitrate   float64 `json:"bitrate,omitempty"` // kbit/s
	Elapsed   float64 `json:"elapsed,omitempty"` // seconds of output written
	Error     string  `json:"error,omitempty"`
}

// ProgressSink receives progress events. It is called from the exporting
// goroutine, so implementations must not block for long.
type ProgressSink func(ProgressEvent)

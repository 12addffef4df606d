// Package jobs persists export requests as a sqlite-backed queue and runs
// them one at a time through the export pipeline.
package jobs

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/cutforge/cutforge-agent/internal/export"
)

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// ExportJob is one queued export request and its lifecycle record.
type ExportJob struct {
	ID          string         `json:"id"`
	Status      string         `json:"status"`
	Progress    int            `json:"progress"`
	Request     export.Request `json:"request"`
	OutputPath  string         `json:"output_path,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// IsTerminal reports whether a status can no longer change.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// ValidationReport is the outcome of checking a request without running it.
type ValidationReport struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidationError carries every rejection reason for a submitted request.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, "; ")
}

func NewID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}

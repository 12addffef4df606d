package api

import (
	"time"

	"github.com/cutforge/cutforge-agent/internal/export"
	"github.com/cutforge/cutforge-agent/internal/jobs"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State         string          `json:"state"`
	Version       string          `json:"version"`
	LastError     string          `json:"last_error,omitempty"`
	Paused        bool            `json:"paused"`
	ActiveExports int             `json:"active_exports"`
	Queue         map[string]int  `json:"queue"`
	ActiveJob     *JobResponse    `json:"active_job,omitempty"`
	FFmpeg        *FFmpegResponse `json:"ffmpeg,omitempty"`
}

type FFmpegResponse struct {
	Available   bool   `json:"available"`
	Path        string `json:"path,omitempty"`
	Version     string `json:"version,omitempty"`
	LastProbeAt string `json:"last_probe_at,omitempty"`
	Error       string `json:"error,omitempty"`
}

type JobResponse struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	Progress    int             `json:"progress"`
	Filename    string          `json:"filename"`
	ClipCount   int             `json:"clip_count"`
	OutputPath  string          `json:"output_path,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
	StartedAt   string          `json:"started_at,omitempty"`
	CompletedAt string          `json:"completed_at,omitempty"`
	Session     *export.Session `json:"session,omitempty"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ValidateResponse struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code,omitempty"`
	Details []string `json:"details,omitempty"`
}

func JobToResponse(j *jobs.ExportJob) JobResponse {
	resp := JobResponse{
		ID:         j.ID,
		Status:     j.Status,
		Progress:   j.Progress,
		Filename:   j.Request.Filename,
		ClipCount:  len(j.Request.Clips),
		OutputPath: j.OutputPath,
		Error:      j.Error,
		CreatedAt:  j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  j.UpdatedAt.Format(time.RFC3339),
	}
	if j.StartedAt != nil {
		resp.StartedAt = j.StartedAt.Format(time.RFC3339)
	}
	if j.CompletedAt != nil {
		resp.CompletedAt = j.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

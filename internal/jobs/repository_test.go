package jobs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cutforge/cutforge-agent/internal/db"
	"github.com/cutforge/cutforge-agent/internal/export"
	"github.com/cutforge/cutforge-agent/internal/timeline"
)

func setupTestDB(t *testing.T) Repository {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return NewRepository(database.Conn())
}

func testRequest() export.Request {
	return export.Request{
		Clips: []timeline.Clip{
			{FilePath: "/media/a.mp4", StartTime: 0, Duration: 10, TrimStart: 0, TrimEnd: 10, TrackID: "track-1"},
			{FilePath: "/media/b.mp4", StartTime: 10, Duration: 3, TrimStart: 2, TrimEnd: 5, TrackID: "track-1"},
		},
		OutputDir: "/exports",
		Filename:  "final.mp4",
		Settings:  timeline.DefaultSettings(),
	}
}

func newPendingJob() *ExportJob {
	now := time.Now()
	return &ExportJob{
		ID:        NewID(),
		Status:    StatusPending,
		Request:   testRequest(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRepository_CreateAndGetJob(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	job := newPendingJob()
	if err := repo.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob error = %v", err)
	}

	got, err := repo.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob error = %v", err)
	}
	if got == nil {
		t.Fatalf("GetJob returned nil for existing job")
	}
	if got.Status != StatusPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
	if len(got.Request.Clips) != 2 {
		t.Fatalf("request clips = %d, want 2", len(got.Request.Clips))
	}
	if got.Request.Clips[1].TrimStart != 2 || got.Request.Clips[1].TrimEnd != 5 {
		t.Errorf("clip trim window did not round-trip: %+v", got.Request.Clips[1])
	}
	if got.Request.Settings != timeline.DefaultSettings() {
		t.Errorf("settings did not round-trip: %+v", got.Request.Settings)
	}
	if got.StartedAt != nil || got.CompletedAt != nil {
		t.Errorf("fresh job carries started/completed times: %+v", got)
	}
}

func TestRepository_GetJob_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	got, err := repo.GetJob(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetJob error = %v", err)
	}
	if got != nil {
		t.Fatalf("GetJob = %+v, want nil", got)
	}
}

func TestRepository_ListPendingJobs_OldestFirst(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	older := newPendingJob()
	older.CreatedAt = time.Now().Add(-time.Minute)
	newer := newPendingJob()

	if err := repo.CreateJob(ctx, newer); err != nil {
		t.Fatalf("CreateJob error = %v", err)
	}
	if err := repo.CreateJob(ctx, older); err != nil {
		t.Fatalf("CreateJob error = %v", err)
	}

	pending, err := repo.ListPendingJobs(ctx)
	if err != nil {
		t.Fatalf("ListPendingJobs error = %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	if pending[0].ID != older.ID {
		t.Errorf("queue order wrong: first = %s, want %s", pending[0].ID, older.ID)
	}
}

func TestRepository_ListPendingJobs_ExcludesSettled(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	job := newPendingJob()
	repo.CreateJob(ctx, job)
	repo.UpdateJobStatus(ctx, job.ID, StatusCancelled, "export cancelled by user")

	pending, err := repo.ListPendingJobs(ctx)
	if err != nil {
		t.Fatalf("ListPendingJobs error = %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending = %d, want 0", len(pending))
	}
}

func TestRepository_UpdateJobStatus_Timestamps(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	job := newPendingJob()
	repo.CreateJob(ctx, job)

	if err := repo.UpdateJobStatus(ctx, job.ID, StatusRunning, ""); err != nil {
		t.Fatalf("UpdateJobStatus(running) error = %v", err)
	}
	got, _ := repo.GetJob(ctx, job.ID)
	if got.StartedAt == nil {
		t.Errorf("running job has no started_at")
	}
	if got.CompletedAt != nil {
		t.Errorf("running job has completed_at")
	}

	if err := repo.UpdateJobStatus(ctx, job.ID, StatusFailed, "probe failed"); err != nil {
		t.Fatalf("UpdateJobStatus(failed) error = %v", err)
	}
	got, _ = repo.GetJob(ctx, job.ID)
	if got.Status != StatusFailed || got.Error != "probe failed" {
		t.Errorf("job = %s/%q, want failed/probe failed", got.Status, got.Error)
	}
	if got.CompletedAt == nil {
		t.Errorf("failed job has no completed_at")
	}
}

func TestRepository_CompleteJob(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	job := newPendingJob()
	repo.CreateJob(ctx, job)
	repo.UpdateJobStatus(ctx, job.ID, StatusRunning, "")

	if err := repo.CompleteJob(ctx, job.ID, "/exports/final.mp4"); err != nil {
		t.Fatalf("CompleteJob error = %v", err)
	}

	got, _ := repo.GetJob(ctx, job.ID)
	if got.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.Progress != 100 {
		t.Errorf("progress = %d, want 100", got.Progress)
	}
	if got.OutputPath != "/exports/final.mp4" {
		t.Errorf("output path = %q", got.OutputPath)
	}
	if got.CompletedAt == nil {
		t.Errorf("completed job has no completed_at")
	}
}

func TestRepository_UpdateJobProgress(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	job := newPendingJob()
	repo.CreateJob(ctx, job)

	if err := repo.UpdateJobProgress(ctx, job.ID, 42); err != nil {
		t.Fatalf("UpdateJobProgress error = %v", err)
	}
	got, _ := repo.GetJob(ctx, job.ID)
	if got.Progress != 42 {
		t.Errorf("progress = %d, want 42", got.Progress)
	}
}

func TestRepository_CountJobsByStatus(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	a := newPendingJob()
	b := newPendingJob()
	c := newPendingJob()
	repo.CreateJob(ctx, a)
	repo.CreateJob(ctx, b)
	repo.CreateJob(ctx, c)
	repo.UpdateJobStatus(ctx, b.ID, StatusRunning, "")
	repo.CompleteJob(ctx, c.ID, "/exports/final.mp4")

	counts, err := repo.CountJobsByStatus(ctx)
	if err != nil {
		t.Fatalf("CountJobsByStatus error = %v", err)
	}
	if counts[StatusPending] != 1 || counts[StatusRunning] != 1 || counts[StatusCompleted] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestRepository_Config(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	got, err := repo.GetConfig(ctx, "api_token")
	if err != nil {
		t.Fatalf("GetConfig error = %v", err)
	}
	if got != "" {
		t.Errorf("missing key = %q, want empty", got)
	}

	if err := repo.SetConfig(ctx, "api_token", "secret-1"); err != nil {
		t.Fatalf("SetConfig error = %v", err)
	}
	if err := repo.SetConfig(ctx, "api_token", "secret-2"); err != nil {
		t.Fatalf("SetConfig overwrite error = %v", err)
	}

	got, _ = repo.GetConfig(ctx, "api_token")
	if got != "secret-2" {
		t.Errorf("value = %q, want secret-2", got)
	}
}

package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cutforge/cutforge-agent/internal/export"
	"github.com/cutforge/cutforge-agent/internal/timeline"
)

var (
	// ErrJobNotFound is returned when a job ID does not exist.
	ErrJobNotFound = errors.New("job not found")
	// ErrNotCancellable is returned when a job has already settled.
	ErrNotCancellable = errors.New("job is not cancellable")
)

// Service owns the export queue: validation, submission, lookup and
// cancellation. Rendering itself happens in the Runner.
type Service struct {
	repo     Repository
	sessions *export.SessionManager
	logger   *slog.Logger
}

func NewService(repo Repository, sessions *export.SessionManager, logger *slog.Logger) *Service {
	return &Service{repo: repo, sessions: sessions, logger: logger}
}

// Submit validates a request and enqueues it. Every rejection reason is
// reported at once through ValidationError.
func (s *Service) Submit(ctx context.Context, req export.Request) (*ExportJob, error) {
	req.Settings = timeline.WithDefaults(req.Settings)

	if report := s.Validate(req); !report.Valid {
		return nil, &ValidationError{Errors: report.Errors}
	}

	now := time.Now()
	job := &ExportJob{
		ID:        NewID(),
		Status:    StatusPending,
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("export job created",
		"job_id", job.ID,
		"clips", len(req.Clips),
		"filename", req.Filename,
	)
	return job, nil
}

// Validate checks a request without touching media files beyond stat. The
// trim-window-versus-source check runs later, once sources are probed.
func (s *Service) Validate(req export.Request) ValidationReport {
	var errs []string
	settings := timeline.WithDefaults(req.Settings)

	if err := timeline.ValidateSettings(settings); err != nil {
		errs = append(errs, err.Error())
	}

	if len(req.Clips) == 0 {
		errs = append(errs, "no clips to export")
	} else {
		if err := timeline.ValidateClips(req.Clips); err != nil {
			errs = append(errs, err.Error())
		}
		for i, c := range req.Clips {
			if c.FilePath == "" {
				continue // already reported by ValidateClips
			}
			if !timeline.IsSupportedSource(c.FilePath) {
				errs = append(errs, fmt.Sprintf("clip %d has unsupported source type %q", i+1, filepath.Ext(c.FilePath)))
				continue
			}
			if _, err := os.Stat(c.FilePath); err != nil {
				errs = append(errs, fmt.Sprintf("clip %d source file not found: %s", i+1, filepath.Base(c.FilePath)))
			}
		}
	}

	if path, err := export.BuildOutputPath(req.OutputDir, req.Filename); err != nil {
		errs = append(errs, err.Error())
	} else if err := export.CheckOutputPath(path); err != nil {
		errs = append(errs, err.Error())
	}

	return ValidationReport{Valid: len(errs) == 0, Errors: errs}
}

// Estimate predicts export time and output size for a request.
func (s *Service) Estimate(req export.Request) export.Estimate {
	return export.BuildEstimate(req.Clips, timeline.WithDefaults(req.Settings))
}

func (s *Service) Get(ctx context.Context, id string) (*ExportJob, error) {
	job, err := s.repo.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

func (s *Service) List(ctx context.Context, limit int) ([]*ExportJob, error) {
	return s.repo.ListJobs(ctx, limit)
}

// Cancel stops a job. Pending jobs are settled directly; running jobs are
// cancelled through their session and settled by the runner when the
// pipeline winds down.
func (s *Service) Cancel(ctx context.Context, id string) (*ExportJob, error) {
	job, err := s.repo.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}

	switch job.Status {
	case StatusPending:
		if err := s.repo.UpdateJobStatus(ctx, id, StatusCancelled, "export cancelled by user"); err != nil {
			return nil, err
		}
	case StatusRunning:
		if !s.sessions.Cancel(id) {
			// Status says running but no live session exists, which means
			// the agent restarted mid-run. Settle the row directly.
			if err := s.repo.UpdateJobStatus(ctx, id, StatusCancelled, "export cancelled by user"); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: already %s", ErrNotCancellable, job.Status)
	}

	s.logger.Info("export job cancelled", "job_id", id)
	return s.repo.GetJob(ctx, id)
}

// LiveProgress returns the in-memory session snapshot for a running job.
func (s *Service) LiveProgress(jobID string) (export.Session, bool) {
	return s.sessions.Snapshot(jobID)
}

// Stats returns job counts grouped by status.
func (s *Service) Stats(ctx context.Context) (map[string]int, error) {
	return s.repo.CountJobsByStatus(ctx)
}

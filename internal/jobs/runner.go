package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cutforge/cutforge-agent/internal/export"
	"github.com/cutforge/cutforge-agent/internal/logging"
	"github.com/cutforge/cutforge-agent/internal/metrics"
	"github.com/cutforge/cutforge-agent/internal/notify"
)

// Exporter renders one export request. Satisfied by *export.Executor.
type Exporter interface {
	Run(ctx context.Context, req export.Request, sink export.ProgressSink) export.Result
}

// EventSink receives every decorated progress event; the API layer plugs
// its websocket hub in here.
type EventSink func(export.ProgressEvent)

// Runner drains the pending queue one job at a time. Each job gets a
// cancellable session; progress flows to the session snapshot, the
// database and the event sink.
type Runner struct {
	repo         Repository
	exporter     Exporter
	sessions     *export.SessionManager
	notifier     notify.Notifier
	metrics      *metrics.Metrics
	sink         EventSink
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

func NewRunner(repo Repository, exporter Exporter, sessions *export.SessionManager, notifier notify.Notifier, m *metrics.Metrics, sink EventSink, logger *slog.Logger) *Runner {
	return &Runner{
		repo:         repo,
		exporter:     exporter,
		sessions:     sessions,
		notifier:     notifier,
		metrics:      m,
		sink:         sink,
		logger:       logger,
		pollInterval: 2 * time.Second,
	}
}

// SetPollInterval overrides the queue poll interval. Call before Start.
func (r *Runner) SetPollInterval(d time.Duration) {
	if d > 0 {
		r.pollInterval = d
	}
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("export runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("export runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("export runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("export runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) processNextJob(ctx context.Context) {
	pending, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("cannot list pending jobs", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}
	r.runJob(ctx, pending[0])
}

func (r *Runner) runJob(ctx context.Context, job *ExportJob) {
	log := logging.WithJobID(r.logger, job.ID)

	// A cancel may land between listing and starting.
	fresh, err := r.repo.GetJob(ctx, job.ID)
	if err != nil || fresh == nil || fresh.Status != StatusPending {
		return
	}

	runCtx, err := r.sessions.Begin(ctx, job.ID)
	if err != nil {
		log.Warn("session already active for job")
		return
	}
	defer r.sessions.End(job.ID)

	if err := r.repo.UpdateJobStatus(ctx, job.ID, StatusRunning, ""); err != nil {
		log.Error("cannot mark job running", "error", err)
		return
	}

	log.Info("export job started", "clips", len(job.Request.Clips))
	if r.metrics != nil {
		r.metrics.ExportStarted()
	}

	start := time.Now()
	lastPersisted := -1
	result := r.exporter.Run(runCtx, job.Request, func(ev export.ProgressEvent) {
		ev.JobID = job.ID
		r.sessions.Update(job.ID, ev)
		if pct := int(ev.Percent); pct != lastPersisted {
			lastPersisted = pct
			r.repo.UpdateJobProgress(ctx, job.ID, pct)
		}
		if r.sink != nil {
			r.sink(ev)
		}
	})
	elapsed := time.Since(start)

	switch result.Status {
	case export.StatusCompleted:
		if err := r.repo.CompleteJob(ctx, job.ID, result.OutputPath); err != nil {
			log.Error("cannot mark job completed", "error", err)
		}
		log.Info("export job completed", "output", logging.SanitizePath(result.OutputPath), "duration", elapsed)
	case export.StatusCancelled:
		if err := r.repo.UpdateJobStatus(ctx, job.ID, StatusCancelled, result.Error); err != nil {
			log.Error("cannot mark job cancelled", "error", err)
		}
		log.Info("export job cancelled", "duration", elapsed)
	default:
		if err := r.repo.UpdateJobStatus(ctx, job.ID, StatusFailed, result.Error); err != nil {
			log.Error("cannot mark job failed", "error", err)
		}
		log.Warn("export job failed", "error", result.Error, "duration", elapsed)
	}

	if r.metrics != nil {
		r.metrics.ExportFinished(string(result.Status), elapsed.Seconds())
	}

	if err := r.notifier.ExportFinished(ctx, notify.ExportEvent{
		JobID:           job.ID,
		Status:          string(result.Status),
		OutputPath:      result.OutputPath,
		Error:           result.Error,
		DurationSeconds: elapsed.Seconds(),
	}); err != nil {
		log.Warn("export webhook failed", "error", err)
	}
}

package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/cutforge/cutforge-agent/internal/ffmpeg"
	"github.com/cutforge/cutforge-agent/internal/logging"
	"github.com/cutforge/cutforge-agent/internal/timeline"
)

// Executor renders a timeline export end to end: probe the sources, validate
// the timeline, trim clips that need it, write the concat manifest and run
// the final stream-copy concat. One Executor serves all jobs; per-run state
// lives on the stack of Run.
type Executor struct {
	tool       ffmpeg.Tool
	scratchDir string
	logger     *slog.Logger
}

func NewExecutor(tool ffmpeg.Tool, scratchDir string, logger *slog.Logger) *Executor {
	return &Executor{tool: tool, scratchDir: scratchDir, logger: logger}
}

// Run executes one export attempt. Progress events are delivered to sink in
// order, ending with exactly one terminal event (completed, failed or
// cancelled). Intermediate artifacts are removed before Run returns,
// whatever the outcome.
func (e *Executor) Run(ctx context.Context, req Request, sink ProgressSink) Result {
	if sink == nil {
		sink = func(ProgressEvent) {}
	}

	// Static preconditions. Nothing below this block runs a subprocess or
	// touches the filesystem until the request itself is acceptable.
	if len(req.Clips) == 0 {
		return e.fail(sink, "no clips to export")
	}
	if err := timeline.ValidateSettings(req.Settings); err != nil {
		return e.fail(sink, err.Error())
	}
	outputPath, err := BuildOutputPath(req.OutputDir, req.Filename)
	if err != nil {
		return e.fail(sink, err.Error())
	}

	tracker := NewTempTracker(e.logger)
	defer tracker.CleanupAll()

	sink(ProgressEvent{Step: StatusPreparing, Percent: 0})

	clips, err := e.probeSources(ctx, req.Clips)
	if err != nil {
		return e.failErr(ctx, sink, err)
	}
	if err := timeline.ValidateClips(clips); err != nil {
		return e.failErr(ctx, sink, err)
	}

	attemptDir := filepath.Join(e.scratchDir, fmt.Sprintf("export_%d", time.Now().UnixNano()))
	if err := tracker.CreateTrackedDir(attemptDir); err != nil {
		return e.failErr(ctx, sink, err)
	}

	trimmed, err := trimClips(ctx, e.tool, tracker, attemptDir, clips, req.Settings)
	if err != nil {
		return e.failErr(ctx, sink, err)
	}

	manifestPath, err := BuildManifest(tracker, attemptDir, trimmed)
	if err != nil {
		return e.failErr(ctx, sink, err)
	}

	// Cancellation may have landed while only pass-through clips were
	// processed, with no subprocess around to notice it.
	if err := ctx.Err(); err != nil {
		return e.failErr(ctx, sink, err)
	}

	total := timeline.TotalDuration(trimmed)
	_, err = e.tool.ConcatCopy(ctx, manifestPath, outputPath, total, func(p ffmpeg.Progress) {
		sink(ProgressEvent{
			Step:      StatusExporting,
			Percent:   p.Percent,
			Remaining: p.Remaining,
			Frame:     p.Frame,
			FPS:       p.FPS,
			Bitrate:   p.Bitrate,
			Elapsed:   p.Elapsed,
		})
	})
	if err != nil {
		return e.failErr(ctx, sink, err)
	}

	sink(ProgressEvent{Step: StatusCompleted, Percent: 100})
	e.logger.Info("export completed",
		"output", logging.SanitizePath(outputPath),
		"clips", len(req.Clips),
		"duration_seconds", total,
	)

	return Result{Success: true, OutputPath: outputPath, Status: StatusCompleted}
}

// probeSources fills in SourceDuration for every clip from the media files
// themselves. Each distinct path is probed once.
func (e *Executor) probeSources(ctx context.Context, clips []timeline.Clip) ([]timeline.Clip, error) {
	durations := make(map[string]float64)

	out := make([]timeline.Clip, len(clips))
	copy(out, clips)
	for i := range out {
		path := out[i].FilePath
		d, ok := durations[path]
		if !ok {
			info, err := e.tool.Probe(ctx, path)
			if err != nil {
				return nil, fmt.Errorf("probe %s: %w", filepath.Base(path), err)
			}
			d = info.Duration
			durations[path] = d
		}
		out[i].SourceDuration = d
	}
	return out, nil
}

// fail reports a precondition rejection: no work has started yet, so there
// is nothing to clean up.
func (e *Executor) fail(sink ProgressSink, msg string) Result {
	e.logger.Warn("export rejected", "reason", msg)
	sink(ProgressEvent{Step: StatusFailed, Error: msg})
	return Result{Success: false, Error: msg, Status: StatusFailed}
}

// failErr reports a mid-run failure, mapping context cancellation onto the
// cancelled status rather than failed.
func (e *Executor) failErr(ctx context.Context, sink ProgressSink, err error) Result {
	if errors.Is(ctx.Err(), context.Canceled) {
		e.logger.Info("export cancelled")
		sink(ProgressEvent{Step: StatusCancelled, Error: "export cancelled"})
		return Result{Success: false, Error: "export cancelled", Status: StatusCancelled}
	}

	e.logger.Warn("export failed", "error", err)
	sink(ProgressEvent{Step: StatusFailed, Error: err.Error()})
	return Result{Success: false, Error: err.Error(), Status: StatusFailed}
}

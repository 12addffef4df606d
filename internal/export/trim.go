package export

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cutforge/cutforge-agent/internal/ffmpeg"
	"github.com/cutforge/cutforge-agent/internal/timeline"
)

// trimClips extracts the trim window of every clip that needs one into a
// tracked artifact under scratchDir. Clips whose window covers the whole
// source pass through unchanged. Trimmed clips come back referencing their
// artifact with the window reset to [0, duration], so downstream stages
// treat them like ordinary full-length sources.
func trimClips(ctx context.Context, tool ffmpeg.Tool, tracker *TempTracker, scratchDir string, clips []timeline.Clip, settings timeline.Settings) ([]timeline.Clip, error) {
	out := make([]timeline.Clip, 0, len(clips))

	for i, c := range clips {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !timeline.NeedsTrim(c) {
			out = append(out, c)
			continue
		}

		// Register before the subprocess runs so a partial file from a
		// failed trim is still swept up.
		dst := filepath.Join(scratchDir, fmt.Sprintf("trim_%d_%d%s", i, time.Now().UnixNano(), filepath.Ext(c.FilePath)))
		tracker.AddFile(dst)

		copySafe := timeline.IsCopySafe(c.FilePath)
		spec := ffmpeg.TrimSpec{
			InputPath:  c.FilePath,
			OutputPath: dst,
			Start:      c.TrimStart,
			Duration:   timeline.TrimmedDuration(c),
			StreamCopy: copySafe,
			CRF:        timeline.QualityCRF(settings.Quality),
			Scale:      scaleForTrim(copySafe, settings),
		}
		if _, err := tool.TrimClip(ctx, spec); err != nil {
			return nil, fmt.Errorf("trim clip %d: %w", i+1, err)
		}

		trimmed := c
		trimmed.TrimmedFilePath = dst
		trimmed.Duration = timeline.TrimmedDuration(c)
		trimmed.TrimStart = 0
		trimmed.TrimEnd = trimmed.Duration
		trimmed.SourceDuration = trimmed.Duration
		out = append(out, trimmed)
	}

	return out, nil
}

// scaleForTrim returns the scale filter for re-encode trims. Stream copy
// cannot carry filters, so copy-safe trims keep the source resolution.
func scaleForTrim(copySafe bool, settings timeline.Settings) string {
	if copySafe {
		return ""
	}
	return timeline.ScaleFilter(settings.Resolution)
}

package export

import "github.com/cutforge/cutforge-agent/internal/timeline"

// Estimate is the pre-flight prediction for an export request.
type Estimate struct {
	TimeSeconds   float64 `json:"estimated_time_seconds"`
	SizeBytes     int64   `json:"estimated_file_size_bytes"`
	TotalDuration float64 `json:"total_duration_seconds"`
	ClipCount     int     `json:"clip_count"`
}

// EstimateTime predicts wall-clock export seconds. Stream-copy concat
// runs at roughly a tenth of realtime; resolution and quality scale it.
func EstimateTime(clips []timeline.Clip, settings timeline.Settings) float64 {
	return timeline.TotalDuration(clips) * 0.1 *
		resolutionTimeMultiplier(settings.Resolution) *
		qualityMultiplier(settings.Quality)
}

// EstimateSize predicts output bytes from a per-resolution base bitrate
// scaled by the quality multiplier.
func EstimateSize(clips []timeline.Clip, settings timeline.Settings) int64 {
	bitrate := float64(baseBitrate(settings.Resolution)) * qualityMultiplier(settings.Quality)
	return int64(timeline.TotalDuration(clips) * bitrate / 8)
}

// BuildEstimate bundles both predictions with the totals clients display.
func BuildEstimate(clips []timeline.Clip, settings timeline.Settings) Estimate {
	return Estimate{
		TimeSeconds:   EstimateTime(clips, settings),
		SizeBytes:     EstimateSize(clips, settings),
		TotalDuration: timeline.TotalDuration(clips),
		ClipCount:     len(clips),
	}
}

// baseBitrate is the assumed encode bitrate in bits per second.
func baseBitrate(resolution string) int64 {
	switch resolution {
	case "1080p":
		return 8_000_000
	case "720p":
		return 3_000_000
	default:
		return 5_000_000
	}
}

func resolutionTimeMultiplier(resolution string) float64 {
	switch resolution {
	case "1080p":
		return 1.2
	case "720p":
		return 0.8
	default:
		return 1.0
	}
}

func qualityMultiplier(quality string) float64 {
	switch quality {
	case "high":
		return 1.5
	case "low":
		return 0.7
	default:
		return 1.0
	}
}

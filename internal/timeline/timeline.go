// Package timeline defines the clip model for timeline exports and the
// validation rules applied before any rendering work starts.
package timeline

import (
	"path/filepath"
	"sort"
	"strings"
)

// MinTrimmedDuration is the shortest usable trim window in seconds.
const MinTrimmedDuration = 0.1

// TrimTolerance absorbs floating-point noise when deciding whether a
// clip's trim window differs from its full source.
const TrimTolerance = 0.01

// Clip is one placed segment of source media on the export timeline.
// Times are in seconds. StartTime and Duration position the clip on the
// timeline; TrimStart and TrimEnd select the source sub-range.
// SourceDuration is the probed duration of the source file, filled in
// by the export pipeline before validation. TrimmedFilePath is set at
// most once, when the trim stage produces an extracted artifact.
type Clip struct {
	FilePath        string  `json:"file_path"`
	StartTime       float64 `json:"start_time"`
	Duration        float64 `json:"duration"`
	TrimStart       float64 `json:"trim_start"`
	TrimEnd         float64 `json:"trim_end"`
	TrackID         string  `json:"track_id"`
	SourceDuration  float64 `json:"source_duration,omitempty"`
	TrimmedFilePath string  `json:"trimmed_file_path,omitempty"`
}

// Settings selects the output parameters of an export.
type Settings struct {
	Resolution string `json:"resolution"` // "source", "1080p", "720p"
	Quality    string `json:"quality"`    // "high", "medium", "low"
	Format     string `json:"format"`     // "mp4"
	Codec      string `json:"codec"`      // "h264"
}

// DefaultSettings returns the settings used when a request leaves them out.
func DefaultSettings() Settings {
	return Settings{
		Resolution: "source",
		Quality:    "medium",
		Format:     "mp4",
		Codec:      "h264",
	}
}

// WithDefaults fills every empty settings field with its default, leaving
// populated fields alone.
func WithDefaults(s Settings) Settings {
	d := DefaultSettings()
	if s.Resolution == "" {
		s.Resolution = d.Resolution
	}
	if s.Quality == "" {
		s.Quality = d.Quality
	}
	if s.Format == "" {
		s.Format = d.Format
	}
	if s.Codec == "" {
		s.Codec = d.Codec
	}
	return s
}

// SourceExtensions lists the container extensions accepted as export input.
var SourceExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".webm": true,
	".avi":  true,
	".mkv":  true,
}

// CopySafeExtensions lists containers where a trim can be extracted by
// stream copy. Anything else is re-encoded during trimming.
var CopySafeExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".mkv": true,
}

// IsSupportedSource reports whether the file's extension is an accepted
// export input container.
func IsSupportedSource(path string) bool {
	return SourceExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsCopySafe reports whether a trim on this file may use stream copy.
func IsCopySafe(path string) bool {
	return CopySafeExtensions[strings.ToLower(filepath.Ext(path))]
}

// NeedsTrim reports whether the clip's trim window differs from its full
// source within TrimTolerance.
func NeedsTrim(c Clip) bool {
	if abs(c.TrimStart) > TrimTolerance {
		return true
	}
	return abs(c.TrimEnd-c.SourceDuration) > TrimTolerance
}

// TrimmedDuration returns the length of the clip's trim window.
func TrimmedDuration(c Clip) float64 {
	return c.TrimEnd - c.TrimStart
}

// TotalDuration returns the rendered output length: the sum of clip
// durations, since tracks are flattened into one sequential stream.
func TotalDuration(clips []Clip) float64 {
	var total float64
	for _, c := range clips {
		total += c.Duration
	}
	return total
}

// SortForManifest returns a copy of clips in deterministic manifest
// order: track ID ascending, then start time ascending.
func SortForManifest(clips []Clip) []Clip {
	sorted := make([]Clip, len(clips))
	copy(sorted, clips)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TrackID != sorted[j].TrackID {
			return sorted[i].TrackID < sorted[j].TrackID
		}
		return sorted[i].StartTime < sorted[j].StartTime
	})
	return sorted
}

// QualityCRF maps a quality setting to the x264 CRF used on re-encode
// paths. Unknown values fall back to medium.
func QualityCRF(quality string) int {
	switch quality {
	case "high":
		return 18
	case "low":
		return 28
	default:
		return 23
	}
}

// ScaleFilter maps a resolution setting to an ffmpeg scale filter.
// "source" means no scaling and returns the empty string.
func ScaleFilter(resolution string) string {
	switch resolution {
	case "1080p":
		return "scale=1920:1080"
	case "720p":
		return "scale=1280:720"
	default:
		return ""
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

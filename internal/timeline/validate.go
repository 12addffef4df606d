package timeline

import (
	"fmt"
	"sort"
)

// ValidateClips checks clip geometry and per-track chronology. It is run
// after source durations have been probed and before any subprocess or
// scratch resource is created. The returned error names the first
// offending clip (1-based) and the violated rule. Overlap is only
// checked within a track; clips on different tracks may share time.
func ValidateClips(clips []Clip) error {
	if len(clips) == 0 {
		return fmt.Errorf("no clips to export")
	}

	for i, c := range clips {
		n := i + 1
		if c.FilePath == "" {
			return fmt.Errorf("clip %d has empty file path", n)
		}
		if c.StartTime < 0 {
			return fmt.Errorf("clip %d has negative start time: %g", n, c.StartTime)
		}
		if c.Duration <= 0 {
			return fmt.Errorf("clip %d has invalid duration: %g", n, c.Duration)
		}
		if c.TrackID == "" {
			return fmt.Errorf("clip %d has empty track id", n)
		}
		if c.TrimStart < 0 {
			return fmt.Errorf("clip %d has negative trim start: %g", n, c.TrimStart)
		}
		if c.TrimEnd <= c.TrimStart {
			return fmt.Errorf("clip %d has invalid trim range: %g to %g", n, c.TrimStart, c.TrimEnd)
		}
		if TrimmedDuration(c) < MinTrimmedDuration {
			return fmt.Errorf("clip %d trim window is shorter than %gs: %g to %g",
				n, MinTrimmedDuration, c.TrimStart, c.TrimEnd)
		}
		if c.SourceDuration > 0 && c.TrimEnd > c.SourceDuration+TrimTolerance {
			return fmt.Errorf("clip %d trim end %g exceeds source duration %g",
				n, c.TrimEnd, c.SourceDuration)
		}
	}

	return validateTrackOrder(clips)
}

// validateTrackOrder groups clips by track and requires each track's
// clips, sorted by start time, to be strictly sequential.
func validateTrackOrder(clips []Clip) error {
	type placed struct {
		clip Clip
		n    int // 1-based position in the request
	}
	tracks := make(map[string][]placed)
	for i, c := range clips {
		tracks[c.TrackID] = append(tracks[c.TrackID], placed{clip: c, n: i + 1})
	}

	trackIDs := make([]string, 0, len(tracks))
	for id := range tracks {
		trackIDs = append(trackIDs, id)
	}
	sort.Strings(trackIDs)

	for _, id := range trackIDs {
		group := tracks[id]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].clip.StartTime < group[j].clip.StartTime
		})
		for i := 1; i < len(group); i++ {
			prev, next := group[i-1], group[i]
			prevEnd := prev.clip.StartTime + prev.clip.Duration
			if next.clip.StartTime < prevEnd {
				return fmt.Errorf("track %q: clip %d overlaps clip %d (%g starts before %g)",
					id, next.n, prev.n, next.clip.StartTime, prevEnd)
			}
		}
	}
	return nil
}

// ValidateSettings rejects any settings value outside the supported set.
func ValidateSettings(s Settings) error {
	switch s.Resolution {
	case "source", "1080p", "720p":
	default:
		return fmt.Errorf("invalid resolution %q: must be 'source', '1080p', or '720p'", s.Resolution)
	}

	switch s.Quality {
	case "high", "medium", "low":
	default:
		return fmt.Errorf("invalid quality %q: must be 'high', 'medium', or 'low'", s.Quality)
	}

	if s.Format != "mp4" {
		return fmt.Errorf("invalid format %q: only 'mp4' is supported", s.Format)
	}

	if s.Codec != "h264" {
		return fmt.Errorf("invalid codec %q: only 'h264' is supported", s.Codec)
	}

	return nil
}

package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cutforge/cutforge-agent/internal/timeline"
)

// BuildManifest writes a concat-demuxer manifest for the post-trim clips
// into dir and registers it with the tracker. Clips are ordered by
// (track id, start time) so the output stream is deterministic; each
// entry references the trimmed artifact when one exists, else the
// original source.
func BuildManifest(tracker *TempTracker, dir string, clips []timeline.Clip) (string, error) {
	ordered := timeline.SortForManifest(clips)

	lines := make([]string, 0, len(ordered))
	for _, clip := range ordered {
		ref := clip.FilePath
		if clip.TrimmedFilePath != "" {
			ref = clip.TrimmedFilePath
		}
		abs, err := filepath.Abs(ref)
		if err != nil {
			return "", fmt.Errorf("cannot resolve clip path %s: %w", ref, err)
		}
		lines = append(lines, manifestLine(abs))
	}

	path := filepath.Join(dir, fmt.Sprintf("concat_%d.txt", time.Now().UnixNano()))
	content := strings.Join(lines, "\n") + "\n"
	if err := tracker.CreateTrackedFile(path, []byte(content)); err != nil {
		return "", err
	}
	return path, nil
}

// manifestLine renders one concat entry. The demuxer reads single-quoted
// strings and cannot carry a literal quote inside one, hence the
// close-escape-reopen form.
func manifestLine(path string) string {
	return "file '" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}

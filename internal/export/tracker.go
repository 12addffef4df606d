package export

import (
	"fmt"
	"log/slog"
	"os"
)

// TempTracker owns every scratch file and directory created during one
// export attempt. Nothing else may delete a tracked path. An attempt uses
// its tracker from a single goroutine and trackers are never shared, so
// no locking is needed.
type TempTracker struct {
	logger *slog.Logger
	files  []string
	dirs   []string
}

func NewTempTracker(logger *slog.Logger) *TempTracker {
	return &TempTracker{logger: logger}
}

// AddFile registers a file the tracker now owns.
func (t *TempTracker) AddFile(path string) {
	t.files = append(t.files, path)
}

// AddDir registers a directory. Parents must be registered before
// children so reverse-order cleanup removes the innermost first.
func (t *TempTracker) AddDir(path string) {
	t.dirs = append(t.dirs, path)
}

// CreateTrackedDir registers the directory, then creates it. Registration
// comes first so a failed create cannot strand an untracked path.
func (t *TempTracker) CreateTrackedDir(path string) error {
	t.AddDir(path)
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("cannot create scratch dir: %w", err)
	}
	return nil
}

// CreateTrackedFile registers the path, then writes it.
func (t *TempTracker) CreateTrackedFile(path string, contents []byte) error {
	t.AddFile(path)
	if err := os.WriteFile(path, contents, 0644); err != nil {
		return fmt.Errorf("cannot write scratch file: %w", err)
	}
	return nil
}

// CleanupAll deletes every tracked file, then every tracked directory in
// reverse registration order. Individual failures are logged and skipped;
// the call itself never fails. The lists are drained, so a second call
// finds nothing to do.
func (t *TempTracker) CleanupAll() {
	for _, f := range t.files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			t.logger.Warn("cannot remove scratch file", "path", f, "error", err)
		}
	}
	for i := len(t.dirs) - 1; i >= 0; i-- {
		if err := os.Remove(t.dirs[i]); err != nil && !os.IsNotExist(err) {
			t.logger.Warn("cannot remove scratch dir", "path", t.dirs[i], "error", err)
		}
	}
	t.files = nil
	t.dirs = nil
}

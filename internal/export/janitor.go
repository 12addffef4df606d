package export

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

// Janitor periodically sweeps the scratch directory for entries left behind
// by crashed or killed export attempts. Live attempts clean up after
// themselves; the janitor only collects what outlives the TTL.
type Janitor struct {
	dir     string
	ttl     time.Duration
	logger  *slog.Logger
	running atomic.Bool
}

func NewJanitor(dir string, ttl time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{dir: dir, ttl: ttl, logger: logger}
}

// Start blocks until ctx is cancelled, sweeping immediately and then at a
// quarter of the TTL. Callers run it in a goroutine.
func (j *Janitor) Start(ctx context.Context) {
	if j.running.Swap(true) {
		return
	}

	j.logger.Info("scratch janitor started", "dir", j.dir, "ttl", j.ttl)
	j.Sweep()

	interval := j.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("scratch janitor stopping")
			j.running.Store(false)
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}

// Sweep removes scratch entries older than the TTL. Failures are logged
// and skipped; a sweep never fails.
func (j *Janitor) Sweep() {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			j.logger.Warn("cannot read scratch dir", "dir", j.dir, "error", err)
		}
		return
	}

	cutoff := time.Now().Add(-j.ttl)
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(j.dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			j.logger.Warn("cannot remove stale scratch entry", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		j.logger.Info("swept stale scratch entries", "removed", removed)
	}
}

// Package toolcheck probes the installed ffmpeg binary and caches the
// result, so status requests do not spawn a subprocess each time.
package toolcheck

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const defaultCacheTTL = 5 * time.Minute

// Prober is the slice of the ffmpeg tool the checker needs. Satisfied by
// ffmpeg.Tool.
type Prober interface {
	Version(ctx context.Context) (string, error)
	Binary() string
}

// Capabilities describes the probed ffmpeg installation.
type Capabilities struct {
	Available bool      `json:"available"`
	Path      string    `json:"path,omitempty"`
	Version   string    `json:"version,omitempty"`
	ProbedAt  time.Time `json:"-"`
}

// Checker wraps a Prober to cache probe results with a TTL.
type Checker struct {
	prober Prober
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	cached *Capabilities
}

func NewChecker(prober Prober, logger *slog.Logger) *Checker {
	return &Checker{
		prober: prober,
		ttl:    defaultCacheTTL,
		logger: logger,
	}
}

// Get returns cached capabilities if fresh, otherwise re-probes.
func (c *Checker) Get(ctx context.Context) (*Capabilities, error) {
	c.mu.RLock()
	if c.cached != nil && time.Since(c.cached.ProbedAt) < c.ttl {
		caps := c.cached
		c.mu.RUnlock()
		return caps, nil
	}
	c.mu.RUnlock()

	return c.Refresh(ctx)
}

// Peek returns whatever is cached without probing.
func (c *Checker) Peek() *Capabilities {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cached
}

// Refresh forces a new probe regardless of cache freshness.
func (c *Checker) Refresh(ctx context.Context) (*Capabilities, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, err := c.prober.Version(ctx)
	if err != nil {
		c.logger.Warn("ffmpeg probe failed", "error", err)
		// Return stale cache if available
		if c.cached != nil {
			c.logger.Info("returning stale ffmpeg capabilities")
			return c.cached, nil
		}
		return nil, err
	}

	c.cached = &Capabilities{
		Available: true,
		Path:      c.prober.Binary(),
		Version:   shortVersion(line),
		ProbedAt:  time.Now(),
	}
	return c.cached, nil
}

// Invalidate clears the cached capabilities.
func (c *Checker) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}

// shortVersion extracts "6.1.1" from "ffmpeg version 6.1.1 Copyright ...".
func shortVersion(line string) string {
	fields := strings.Fields(line)
	if len(fields) >= 3 && fields[0] == "ffmpeg" && fields[1] == "version" {
		return fields[2]
	}
	return line
}

// Package config provides configuration management for the CutForge Agent.
// Configuration is loaded from environment variables with sensible defaults;
// a .env file in the working directory is applied first when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Default values
	DefaultPort     = 8799
	DefaultLogLevel = "info"
	DefaultDataDir  = ".cutforge"

	// Environment variable names
	EnvPort       = "CUTFORGE_PORT"
	EnvLogLevel   = "CUTFORGE_LOG_LEVEL"
	EnvDataDir    = "CUTFORGE_DATA_DIR"
	EnvHeadless   = "CUTFORGE_HEADLESS"
	EnvWebhookURL = "CUTFORGE_WEBHOOK_URL"

	// EnvAPIToken lets cutctl authenticate without the token file
	EnvAPIToken = "CUTFORGE_API_TOKEN"

	// FFmpeg environment variable names
	EnvFFmpegPath           = "CUTFORGE_FFMPEG_PATH"
	EnvProbeTimeoutSeconds  = "CUTFORGE_PROBE_TIMEOUT_SECONDS"
	EnvTrimTimeoutSeconds   = "CUTFORGE_TRIM_TIMEOUT_SECONDS"
	EnvEncodeTimeoutSeconds = "CUTFORGE_ENCODE_TIMEOUT_SECONDS"

	// Queue and scratch environment variable names
	EnvPollIntervalSeconds = "CUTFORGE_POLL_INTERVAL_SECONDS"
	EnvScratchTTLHours     = "CUTFORGE_SCRATCH_TTL_HOURS"

	// Database filename
	DBFilename = "cutforge.db"

	// Auth token filename, written 0600 into the data dir for cutctl
	TokenFilename = "agent.token"

	// Lock filename guarding one agent per data dir
	LockFilename = "agent.lock"

	// FFmpeg defaults
	DefaultProbeTimeout  = 30   // seconds
	DefaultTrimTimeout   = 900  // 15 minutes per clip
	DefaultEncodeTimeout = 3600 // 1 hour for the final concat

	// Queue defaults
	DefaultPollInterval = 2 // seconds

	// Scratch defaults
	DefaultScratchTTL = 24 // hours
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	ScratchDir() string
	OutputDir() string
	TokenPath() string
	LockPath() string
	Headless() bool
	WebhookURL() string
	FFmpegPath() string
	ProbeTimeout() time.Duration
	TrimTimeout() time.Duration
	EncodeTimeout() time.Duration
	PollInterval() time.Duration
	ScratchTTL() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port       int
	logLevel   string
	dataDir    string
	headless   bool
	webhookURL string

	ffmpegPath    string
	probeTimeout  int
	trimTimeout   int
	encodeTimeout int

	pollInterval int
	scratchTTL   int
}

// LoadEnvFile applies a .env file to the process environment when one
// exists. A missing file is not an error.
func LoadEnvFile(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	_ = godotenv.Load(paths...)
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:          DefaultPort,
		logLevel:      DefaultLogLevel,
		dataDir:       defaultDataDir(),
		probeTimeout:  DefaultProbeTimeout,
		trimTimeout:   DefaultTrimTimeout,
		encodeTimeout: DefaultEncodeTimeout,
		pollInterval:  DefaultPollInterval,
		scratchTTL:    DefaultScratchTTL,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	// Override data directory from environment
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	cfg.webhookURL = os.Getenv(EnvWebhookURL)
	cfg.ffmpegPath = os.Getenv(EnvFFmpegPath)

	for _, v := range []struct {
		env  string
		dest *int
	}{
		{EnvProbeTimeoutSeconds, &cfg.probeTimeout},
		{EnvTrimTimeoutSeconds, &cfg.trimTimeout},
		{EnvEncodeTimeoutSeconds, &cfg.encodeTimeout},
		{EnvPollIntervalSeconds, &cfg.pollInterval},
		{EnvScratchTTLHours, &cfg.scratchTTL},
	} {
		s := os.Getenv(v.env)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", v.env, err)
		}
		if n < 1 {
			return nil, fmt.Errorf("invalid %s: must be positive", v.env)
		}
		*v.dest = n
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ScratchDir returns the root for per-attempt scratch directories
func (c *EnvConfig) ScratchDir() string {
	return filepath.Join(c.dataDir, "scratch")
}

// OutputDir returns the default directory for rendered exports,
// used when a request does not name one.
func (c *EnvConfig) OutputDir() string {
	return filepath.Join(c.dataDir, "exports")
}

// TokenPath returns the path of the auth token file
func (c *EnvConfig) TokenPath() string {
	return filepath.Join(c.dataDir, TokenFilename)
}

// LockPath returns the path of the single-instance lock file
func (c *EnvConfig) LockPath() string {
	return filepath.Join(c.dataDir, LockFilename)
}

// Headless reports whether the agent should run without the tray UI
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// WebhookURL returns the completion webhook endpoint, empty when unset
func (c *EnvConfig) WebhookURL() string {
	return c.webhookURL
}

// FFmpegPath returns an explicit ffmpeg binary path, empty when unset
func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

func (c *EnvConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.probeTimeout) * time.Second
}

func (c *EnvConfig) TrimTimeout() time.Duration {
	return time.Duration(c.trimTimeout) * time.Second
}

func (c *EnvConfig) EncodeTimeout() time.Duration {
	return time.Duration(c.encodeTimeout) * time.Second
}

func (c *EnvConfig) PollInterval() time.Duration {
	return time.Duration(c.pollInterval) * time.Second
}

func (c *EnvConfig) ScratchTTL() time.Duration {
	return time.Duration(c.scratchTTL) * time.Hour
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

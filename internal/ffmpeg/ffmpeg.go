// Package ffmpeg locates and executes the ffmpeg binary for probing,
// trimming and concatenating media files. Every invocation runs under a
// watchdog timeout and keeps a bounded stderr tail for diagnostics.
package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const (
	maxStderrBytes = 8 * 1024  // stderr tail kept for diagnostics
	maxProbeBytes  = 64 * 1024 // metadata header kept from a probe run
)

// Tool is the single ffmpeg execution contract used throughout the agent.
type Tool interface {
	// Probe reads stream metadata for a media file.
	Probe(ctx context.Context, path string) (*SourceInfo, error)

	// TrimClip extracts a sub-range of a source file into a new file.
	TrimClip(ctx context.Context, spec TrimSpec) (RunResult, error)

	// ConcatCopy joins the files listed in a concat manifest into outPath
	// without re-encoding. When onProgress is non-nil it receives parsed
	// progress snapshots as ffmpeg emits them.
	ConcatCopy(ctx context.Context, manifestPath, outPath string, totalDuration float64, onProgress func(Progress)) (RunResult, error)

	// Version returns the first line of `ffmpeg -version`.
	Version(ctx context.Context) (string, error)

	// Binary returns the resolved ffmpeg binary path.
	Binary() string
}

// Config holds the runner's configuration.
type Config struct {
	BinaryPath    string        // path to ffmpeg binary; empty = auto-detect
	ProbeTimeout  time.Duration // timeout for a source probe
	TrimTimeout   time.Duration // timeout for a single clip trim
	EncodeTimeout time.Duration // timeout for the final concat
	Logger        *slog.Logger
	DebugPaths    bool // if true, log full file paths; otherwise sanitise
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig(logger *slog.Logger) Config {
	return Config{
		BinaryPath:    "", // auto-detect
		ProbeTimeout:  30 * time.Second,
		TrimTimeout:   15 * time.Minute,
		EncodeTimeout: 60 * time.Minute,
		Logger:        logger,
		DebugPaths:    false,
	}
}

// Runner is the production implementation of Tool.
type Runner struct {
	cfg    Config
	binary string // resolved ffmpeg path
}

// NewRunner creates a Runner, resolving the ffmpeg binary path.
func NewRunner(cfg Config) (*Runner, error) {
	binary, err := resolveBinary(cfg.BinaryPath)
	if err != nil {
		return nil, fmt.Errorf("cannot locate ffmpeg: %w", err)
	}

	cfg.Logger.Info("ffmpeg runner initialised", "binary", binary)

	return &Runner{cfg: cfg, binary: binary}, nil
}

func (r *Runner) Binary() string {
	return r.binary
}

// TrimClip extracts spec.Duration seconds starting at spec.Start from the
// input file. The seek happens before the input is opened, which is fast but
// snaps to a keyframe when streams are copied rather than re-encoded.
func (r *Runner) TrimClip(ctx context.Context, spec TrimSpec) (RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.TrimTimeout)
	defer cancel()

	args := trimArgs(spec)
	result := r.exec(ctx, "trim", spec.OutputPath, nil, args...)
	if !result.IsSuccess() {
		return result, &ToolError{Op: "trim", Args: args, ExitCode: result.ExitCode, StderrTail: result.StderrTail}
	}
	return result, nil
}

func trimArgs(spec TrimSpec) []string {
	args := []string{
		"-ss", formatSeconds(spec.Start),
		"-i", spec.InputPath,
		"-t", formatSeconds(spec.Duration),
	}
	if spec.StreamCopy {
		args = append(args, "-c", "copy")
	} else {
		args = append(args, "-c:v", "libx264", "-preset", "fast", "-crf", strconv.Itoa(spec.CRF))
		if spec.Scale != "" {
			args = append(args, "-vf", spec.Scale)
		}
		args = append(args, "-c:a", "aac")
	}
	return append(args, "-y", spec.OutputPath)
}

// ConcatCopy joins the manifest entries into outPath with stream copy.
// Stderr is consumed line by line while the process runs so progress
// reaches onProgress before the command completes.
func (r *Runner) ConcatCopy(ctx context.Context, manifestPath, outPath string, totalDuration float64, onProgress func(Progress)) (RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.EncodeTimeout)
	defer cancel()

	var onLine func(string)
	if onProgress != nil {
		onLine = func(line string) {
			if p, ok := ParseProgress(line, totalDuration); ok {
				onProgress(p)
			}
		}
	}

	args := concatArgs(manifestPath, outPath)
	result := r.exec(ctx, "concat", outPath, onLine, args...)
	if !result.IsSuccess() {
		return result, &ToolError{Op: "concat", Args: args, ExitCode: result.ExitCode, StderrTail: result.StderrTail}
	}
	return result, nil
}

func concatArgs(manifestPath, outPath string) []string {
	return []string{
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
		"-y", outPath,
	}
}

// Version returns the first line of `ffmpeg -version`.
func (r *Runner) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ProbeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, r.binary, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("cannot read ffmpeg version: %w", err)
	}
	first := strings.SplitN(string(out), "\n", 2)[0]
	return strings.TrimSpace(first), nil
}

// exec is the core subprocess execution helper. When onLine is non-nil,
// stderr is scanned line by line as the process produces it; either way the
// bounded tail is kept for diagnostics.
func (r *Runner) exec(ctx context.Context, op, outPath string, onLine func(string), args ...string) RunResult {
	start := time.Now()

	// Ensure output directory exists
	if outPath != "" {
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			r.cfg.Logger.Error("cannot create output dir", "error", err)
			return RunResult{ExitCode: -1, StderrTail: err.Error(), Duration: time.Since(start)}
		}
	}

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stdout = io.Discard // ffmpeg reports on stderr

	var stderrBuf bytes.Buffer
	tail := &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}

	r.cfg.Logger.Info("executing ffmpeg", "op", op, "args", args)

	var runErr error
	if onLine == nil {
		cmd.Stderr = tail
		runErr = cmd.Run()
	} else {
		pipe, perr := cmd.StderrPipe()
		if perr != nil {
			return RunResult{ExitCode: -1, StderrTail: perr.Error(), Duration: time.Since(start)}
		}
		runErr = cmd.Start()
		if runErr == nil {
			sc := bufio.NewScanner(pipe)
			sc.Buffer(make([]byte, 0, 4096), 64*1024)
			sc.Split(scanStderrLines)
			for sc.Scan() {
				line := sc.Text()
				tail.Write([]byte(line))
				tail.Write([]byte{'\n'})
				onLine(line)
			}
			runErr = cmd.Wait()
		}
	}
	elapsed := time.Since(start)

	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	stderrTail := stderrBuf.String()

	if exitCode != 0 {
		r.cfg.Logger.Warn("ffmpeg command failed",
			"op", op,
			"exit_code", exitCode,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", truncate(stderrTail, 512),
		)
	} else {
		r.cfg.Logger.Info("ffmpeg command succeeded",
			"op", op,
			"duration_ms", elapsed.Milliseconds(),
			"output", r.safePath(outPath),
		)
	}

	return RunResult{
		ExitCode:   exitCode,
		OutputPath: outPath,
		StderrTail: stderrTail,
		Duration:   elapsed,
	}
}

// scanStderrLines splits on \r as well as \n; ffmpeg rewrites its progress
// line in place with bare carriage returns.
func scanStderrLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func (r *Runner) safePath(path string) string {
	if r.cfg.DebugPaths {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Base(path)
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return filepath.Base(path)
}

// formatSeconds renders a seek offset or duration with millisecond
// resolution.
func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

// resolveBinary finds a usable ffmpeg binary.
func resolveBinary(preferred string) (string, error) {
	if preferred != "" {
		if p, err := exec.LookPath(preferred); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("configured ffmpeg %q not found", preferred)
	}
	if p, err := exec.LookPath("ffmpeg"); err == nil {
		return p, nil
	}
	for _, p := range fallbackPaths() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("no ffmpeg binary found on PATH")
}

func fallbackPaths() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/opt/homebrew/bin/ffmpeg", "/usr/local/bin/ffmpeg"}
	case "windows":
		return []string{`C:\ffmpeg\bin\ffmpeg.exe`}
	default:
		return []string{"/usr/bin/ffmpeg", "/usr/local/bin/ffmpeg"}
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter is an io.Writer that keeps only the last `limit` bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		// Keep only the tail
		b := lw.w.Bytes()
		lw.w.Reset()
		lw.w.Write(b[len(b)-lw.limit:])
	}
	return n, nil
}

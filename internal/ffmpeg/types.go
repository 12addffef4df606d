package ffmpeg

import (
	"fmt"
	"time"
)

// RunResult captures the outcome of a single ffmpeg invocation.
type RunResult struct {
	ExitCode   int           // process exit code; -1 if the process did not start
	OutputPath string        // file the invocation was asked to produce, if any
	StderrTail string        // last portion of stderr, bounded
	Duration   time.Duration // wall-clock execution time
}

// IsSuccess reports whether the invocation exited cleanly.
func (r RunResult) IsSuccess() bool {
	return r.ExitCode == 0
}

// ToolError reports an ffmpeg invocation that exited non-zero.
type ToolError struct {
	Op         string   // operation name: probe, trim, concat
	Args       []string // full argument list passed to ffmpeg
	ExitCode   int
	StderrTail string
}

func (e *ToolError) Error() string {
	if e.StderrTail == "" {
		return fmt.Sprintf("ffmpeg %s exited %d", e.Op, e.ExitCode)
	}
	return fmt.Sprintf("ffmpeg %s exited %d: %s", e.Op, e.ExitCode, truncate(e.StderrTail, 512))
}

// TrimSpec describes a single clip trim invocation.
type TrimSpec struct {
	InputPath  string
	OutputPath string
	Start      float64 // seek offset into the source, seconds
	Duration   float64 // length of output to keep, seconds
	StreamCopy bool    // copy streams instead of re-encoding
	CRF        int     // x264 constant rate factor when re-encoding
	Scale      string  // optional scale filter when re-encoding, e.g. "scale=1920:1080"
}

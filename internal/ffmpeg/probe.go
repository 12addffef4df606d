package ffmpeg

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// SourceInfo describes a probed media file.
type SourceInfo struct {
	Duration   float64 `json:"duration"` // seconds
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FPS        float64 `json:"fps"`
	Codec      string  `json:"codec"`
	Bitrate    int64   `json:"bitrate,omitempty"` // bits per second, 0 if unknown
	HasAudio   bool    `json:"has_audio"`
	AudioCodec string  `json:"audio_codec,omitempty"`
}

// ffmpeg prints stream metadata on stderr in a stable layout. The input
// section always precedes the output section, so first-match wins. The
// 2..5 digit bound on resolution skips hex fourcc tags like 0x31637661.
var (
	durationRe = regexp.MustCompile(`Duration: (\d{2}):(\d{2}):(\d{2})\.(\d{2})`)
	videoRe    = regexp.MustCompile(`Stream #\d+:\d+.*Video: (\w+).*?(\d{2,5})x(\d{2,5}).*?(\d+(?:\.\d+)?) fps`)
	bitrateRe  = regexp.MustCompile(`bitrate: (\d+) kb/s`)
	audioRe    = regexp.MustCompile(`Audio: (\w+)`)
)

// Probe decodes the first second of path to the null muxer and parses the
// stream metadata ffmpeg prints on stderr. A file that cannot be opened or
// decoded fails here with the tool's own diagnostics.
func (r *Runner) Probe(ctx context.Context, path string) (*SourceInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ProbeTimeout)
	defer cancel()

	var header strings.Builder
	capture := func(line string) {
		if header.Len() < maxProbeBytes {
			header.WriteString(line)
			header.WriteByte('\n')
		}
	}

	args := []string{"-i", path, "-t", "1", "-f", "null", "-"}
	result := r.exec(ctx, "probe", "", capture, args...)
	if !result.IsSuccess() {
		return nil, &ToolError{Op: "probe", Args: args, ExitCode: result.ExitCode, StderrTail: result.StderrTail}
	}

	info, err := parseProbeOutput(header.String())
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", r.safePath(path), err)
	}
	return info, nil
}

// parseProbeOutput extracts stream metadata from captured ffmpeg stderr.
func parseProbeOutput(stderr string) (*SourceInfo, error) {
	m := durationRe.FindStringSubmatch(stderr)
	if m == nil {
		return nil, fmt.Errorf("no duration in ffmpeg output")
	}
	hours, _ := strconv.ParseFloat(m[1], 64)
	minutes, _ := strconv.ParseFloat(m[2], 64)
	seconds, _ := strconv.ParseFloat(m[3], 64)
	centis, _ := strconv.ParseFloat(m[4], 64)

	v := videoRe.FindStringSubmatch(stderr)
	if v == nil {
		return nil, fmt.Errorf("no video stream in ffmpeg output")
	}
	width, _ := strconv.Atoi(v[2])
	height, _ := strconv.Atoi(v[3])
	fps, _ := strconv.ParseFloat(v[4], 64)

	info := &SourceInfo{
		Duration: hours*3600 + minutes*60 + seconds + centis/100,
		Width:    width,
		Height:   height,
		FPS:      fps,
		Codec:    v[1],
	}

	if b := bitrateRe.FindStringSubmatch(stderr); b != nil {
		kbps, _ := strconv.ParseInt(b[1], 10, 64)
		info.Bitrate = kbps * 1000
	}

	if a := audioRe.FindStringSubmatch(stderr); a != nil {
		info.HasAudio = true
		info.AudioCodec = a[1]
	}

	return info, nil
}

package ffmpeg

import (
	"regexp"
	"strconv"
)

// Progress is one telemetry snapshot parsed from the encoder's stderr.
type Progress struct {
	Frame     int     `json:"frame,omitempty"`
	FPS       float64 `json:"fps,omitempty"`
	Elapsed   float64 `json:"elapsed"`           // seconds of output written so far
	Bitrate   float64 `json:"bitrate,omitempty"` // kbit/s
	Speed     float64 `json:"speed,omitempty"`   // realtime multiplier
	Percent   float64 `json:"percent"`           // 0..100 against the known total
	Remaining float64 `json:"remaining"`         // estimated seconds left
}

// Progress lines look like:
//
//	frame= 1234 fps=30.0 q=-1.0 size=10240KiB time=00:00:41.13 bitrate=2039.8kbits/s speed=1.01x
//
// Fields degrade to N/A independently, so each is matched on its own.
var (
	frameRe      = regexp.MustCompile(`frame=\s*(\d+)`)
	fpsRe        = regexp.MustCompile(`fps=\s*(\d+(?:\.\d+)?)`)
	timeRe       = regexp.MustCompile(`time=(\d{2}):(\d{2}):(\d{2})\.(\d{2})`)
	encBitrateRe = regexp.MustCompile(`bitrate=\s*(\d+(?:\.\d+)?)\s*kbits/s`)
	speedRe      = regexp.MustCompile(`speed=\s*(\d+(?:\.\d+)?)x`)
)

// ParseProgress extracts telemetry from one stderr line. ok is false when
// the line carries no time= field, which covers banners, stream metadata
// and the final summary. Any other missing field is left zero rather than
// failing the whole line.
func ParseProgress(line string, totalDuration float64) (p Progress, ok bool) {
	t := timeRe.FindStringSubmatch(line)
	if t == nil {
		return Progress{}, false
	}
	hours, _ := strconv.ParseFloat(t[1], 64)
	minutes, _ := strconv.ParseFloat(t[2], 64)
	seconds, _ := strconv.ParseFloat(t[3], 64)
	centis, _ := strconv.ParseFloat(t[4], 64)
	p.Elapsed = hours*3600 + minutes*60 + seconds + centis/100

	if m := frameRe.FindStringSubmatch(line); m != nil {
		p.Frame, _ = strconv.Atoi(m[1])
	}
	if m := fpsRe.FindStringSubmatch(line); m != nil {
		p.FPS, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := encBitrateRe.FindStringSubmatch(line); m != nil {
		p.Bitrate, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := speedRe.FindStringSubmatch(line); m != nil {
		p.Speed, _ = strconv.ParseFloat(m[1], 64)
	}

	if totalDuration > 0 {
		p.Percent = p.Elapsed / totalDuration * 100
		if p.Percent > 100 {
			p.Percent = 100
		}
		if p.Speed > 0 {
			if remaining := (totalDuration - p.Elapsed) / p.Speed; remaining > 0 {
				p.Remaining = remaining
			}
		}
	}
	return p, true
}

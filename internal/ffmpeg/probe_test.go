package ffmpeg

import (
	"math"
	"strings"
	"testing"
)

const probeStderrH264 = `ffmpeg version 6.1.1 Copyright (c) 2000-2023 the FFmpeg developers
  built with Apple clang version 15.0.0 (clang-1500.1.0.2.5)
Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'clip.mp4':
  Metadata:
    major_brand     : isom
    minor_version   : 512
  Duration: 00:02:03.46, start: 0.000000, bitrate: 4308 kb/s
  Stream #0:0[0x1](und): Video: h264 (High) (avc1 / 0x31637661), yuv420p(tv, bt709, progressive), 1920x1080 [SAR 1:1 DAR 16:9], 4276 kb/s, 30 fps, 30 tbr, 15360 tbn (default)
  Stream #0:1[0x2](und): Audio: aac (LC) (mp4a / 0x6134706D), 48000 Hz, stereo, fltp, 128 kb/s (default)
Output #0, null, to 'pipe:':
  Stream #0:0(und): Video: wrapped_avframe, yuv420p(tv, bt709, progressive), 1920x1080 [SAR 1:1 DAR 16:9], q=2-31, 200 kb/s, 30 fps, 30 tbn
`

const probeStderrVP9 = `Input #0, matroska,webm, from 'screen.webm':
  Metadata:
    ENCODER         : Lavf60.16.100
  Duration: 00:00:45.20, start: 0.000000, bitrate: 2517 kb/s
  Stream #0:0(eng): Video: vp9 (Profile 0), yuv420p(tv, bt709), 2560x1440, SAR 1:1 DAR 16:9, 29.97 fps, 29.97 tbr, 1k tbn (default)
`

func TestParseProbeOutput_H264(t *testing.T) {
	info, err := parseProbeOutput(probeStderrH264)
	if err != nil {
		t.Fatalf("parseProbeOutput error: %v", err)
	}
	if math.Abs(info.Duration-123.46) > 1e-9 {
		t.Errorf("Duration = %v, want 123.46", info.Duration)
	}
	if info.Codec != "h264" {
		t.Errorf("Codec = %q, want %q (input stream, not the null output)", info.Codec, "h264")
	}
	if info.Width != 1920 || info.Height != 1080 {
		t.Errorf("resolution = %dx%d, want 1920x1080", info.Width, info.Height)
	}
	if info.FPS != 30 {
		t.Errorf("FPS = %v, want 30", info.FPS)
	}
	if info.Bitrate != 4308000 {
		t.Errorf("Bitrate = %d, want 4308000", info.Bitrate)
	}
	if !info.HasAudio {
		t.Error("HasAudio = false, want true")
	}
	if info.AudioCodec != "aac" {
		t.Errorf("AudioCodec = %q, want %q", info.AudioCodec, "aac")
	}
}

// The fourcc tag (avc1 / 0x31637661) contains a digit-x-digit sequence; the
// resolution match must not land on it.
func TestParseProbeOutput_SkipsFourccTag(t *testing.T) {
	info, err := parseProbeOutput(probeStderrH264)
	if err != nil {
		t.Fatalf("parseProbeOutput error: %v", err)
	}
	if info.Width == 0 {
		t.Error("Width = 0, resolution match landed on the fourcc tag")
	}
}

func TestParseProbeOutput_NoAudio(t *testing.T) {
	info, err := parseProbeOutput(probeStderrVP9)
	if err != nil {
		t.Fatalf("parseProbeOutput error: %v", err)
	}
	if info.HasAudio {
		t.Error("HasAudio = true, want false")
	}
	if info.AudioCodec != "" {
		t.Errorf("AudioCodec = %q, want empty", info.AudioCodec)
	}
	if info.Codec != "vp9" {
		t.Errorf("Codec = %q, want %q", info.Codec, "vp9")
	}
	if info.FPS != 29.97 {
		t.Errorf("FPS = %v, want 29.97", info.FPS)
	}
	if math.Abs(info.Duration-45.2) > 1e-9 {
		t.Errorf("Duration = %v, want 45.2", info.Duration)
	}
}

func TestParseProbeOutput_NoDuration(t *testing.T) {
	_, err := parseProbeOutput("clip.mp4: Invalid data found when processing input\n")
	if err == nil {
		t.Fatal("expected error for output without a duration")
	}
	if !strings.Contains(err.Error(), "duration") {
		t.Errorf("error = %q, want mention of duration", err)
	}
}

func TestParseProbeOutput_NoVideoStream(t *testing.T) {
	stderr := `Input #0, mp3, from 'song.mp3':
  Duration: 00:03:21.10, start: 0.000000, bitrate: 192 kb/s
  Stream #0:0: Audio: mp3, 44100 Hz, stereo, fltp, 192 kb/s
`
	_, err := parseProbeOutput(stderr)
	if err == nil {
		t.Fatal("expected error for audio-only input")
	}
	if !strings.Contains(err.Error(), "video stream") {
		t.Errorf("error = %q, want mention of video stream", err)
	}
}

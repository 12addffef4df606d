package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/cutforge/cutforge-agent/internal/api"
	"github.com/cutforge/cutforge-agent/internal/export"
)

func TestRenderStatusLine_NoColor(t *testing.T) {
	got := renderStatusLine("State", statusError, "error", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "State:", "[ERROR] error")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLine_WithColor(t *testing.T) {
	got := renderStatusLine("State", statusOK, "idle", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestRenderStatusLine_NoMessage(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusOK, "", false)
	if !strings.HasSuffix(got, "[OK]") {
		t.Fatalf("expected line to end at the kind label, got %q", got)
	}
}

func TestShouldColorize_NonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatal("expected non-file writer to disable color")
	}
}

func TestStateKind(t *testing.T) {
	cases := []struct {
		name   string
		status api.StatusResponse
		want   statusKind
	}{
		{"error", api.StatusResponse{State: "error"}, statusError},
		{"paused", api.StatusResponse{State: "paused", Paused: true}, statusWarn},
		{"exporting", api.StatusResponse{State: "exporting"}, statusInfo},
		{"idle", api.StatusResponse{State: "idle"}, statusOK},
	}
	for _, tc := range cases {
		if got := stateKind(&tc.status); got != tc.want {
			t.Errorf("stateKind(%s) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFFmpegLine(t *testing.T) {
	if kind := ffmpegKind(nil); kind != statusWarn {
		t.Fatalf("nil ffmpeg kind = %v, want warn", kind)
	}
	if msg := ffmpegMessage(nil); msg != "not probed" {
		t.Fatalf("nil ffmpeg message = %q", msg)
	}

	available := &api.FFmpegResponse{Available: true, Version: "6.1.1", Path: "/usr/bin/ffmpeg"}
	if kind := ffmpegKind(available); kind != statusOK {
		t.Fatalf("available kind = %v, want ok", kind)
	}
	if msg := ffmpegMessage(available); msg != "6.1.1 (/usr/bin/ffmpeg)" {
		t.Fatalf("available message = %q", msg)
	}

	broken := &api.FFmpegResponse{Available: false, Error: "ffmpeg not found in PATH"}
	if kind := ffmpegKind(broken); kind != statusError {
		t.Fatalf("broken kind = %v, want error", kind)
	}
	if msg := ffmpegMessage(broken); msg != "ffmpeg not found in PATH" {
		t.Fatalf("broken message = %q", msg)
	}
}

func TestQueueMessage(t *testing.T) {
	got := queueMessage(map[string]int{
		"pending":   1,
		"running":   2,
		"completed": 3,
	})
	want := "1 pending, 2 running, 3 completed, 0 failed, 0 cancelled"
	if got != want {
		t.Fatalf("queueMessage = %q, want %q", got, want)
	}
}

func TestActiveJobMessage(t *testing.T) {
	job := &api.JobResponse{
		ID:       "0123456789abcdef",
		Filename: "cut.mp4",
		Progress: 42,
		Session:  &export.Session{Remaining: 90},
	}
	got := activeJobMessage(job)
	requireContains(t, got, "01234567")
	requireContains(t, got, "cut.mp4")
	requireContains(t, got, "42%")
	requireContains(t, got, "ETA 1.5 minutes")
}

package toolcheck

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"
)

type fakeProber struct {
	calls     int
	versionFn func(ctx context.Context) (string, error)
}

func (f *fakeProber) Version(ctx context.Context) (string, error) {
	f.calls++
	if f.versionFn != nil {
		return f.versionFn(ctx)
	}
	return "ffmpeg version 6.1.1 Copyright (c) 2000-2023 the FFmpeg developers", nil
}

func (f *fakeProber) Binary() string { return "/usr/bin/ffmpeg" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestChecker_TTL(t *testing.T) {
	fake := &fakeProber{}
	checker := NewChecker(fake, testLogger())
	checker.ttl = 100 * time.Millisecond
	ctx := context.Background()

	caps1, err := checker.Get(ctx)
	if err != nil {
		t.Fatalf("first Get: %v", err)
	}
	if !caps1.Available {
		t.Error("expected Available=true")
	}
	if caps1.Version != "6.1.1" {
		t.Errorf("version = %q, want 6.1.1", caps1.Version)
	}
	if caps1.Path != "/usr/bin/ffmpeg" {
		t.Errorf("path = %q", caps1.Path)
	}
	if fake.calls != 1 {
		t.Errorf("expected 1 probe, got %d", fake.calls)
	}

	caps2, err := checker.Get(ctx)
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if caps2.ProbedAt != caps1.ProbedAt {
		t.Error("expected cached result on second call")
	}
	if fake.calls != 1 {
		t.Errorf("expected 1 probe (cached), got %d", fake.calls)
	}

	time.Sleep(150 * time.Millisecond)

	_, err = checker.Get(ctx)
	if err != nil {
		t.Fatalf("third Get (after TTL): %v", err)
	}
	if fake.calls != 2 {
		t.Errorf("expected 2 probes after TTL expiry, got %d", fake.calls)
	}
}

func TestChecker_StaleCacheOnFailure(t *testing.T) {
	fake := &fakeProber{}
	checker := NewChecker(fake, testLogger())
	checker.ttl = time.Nanosecond
	ctx := context.Background()

	caps1, err := checker.Get(ctx)
	if err != nil {
		t.Fatalf("first Get: %v", err)
	}

	fake.versionFn = func(ctx context.Context) (string, error) {
		return "", errors.New("binary vanished")
	}

	caps2, err := checker.Get(ctx)
	if err != nil {
		t.Fatalf("Get with failing probe: %v", err)
	}
	if caps2.ProbedAt != caps1.ProbedAt {
		t.Error("expected stale cache after failed probe")
	}
	if fake.calls != 2 {
		t.Errorf("expected 2 probes, got %d", fake.calls)
	}
}

func TestChecker_ErrorWhenNeverProbed(t *testing.T) {
	fake := &fakeProber{
		versionFn: func(ctx context.Context) (string, error) {
			return "", errors.New("ffmpeg not found")
		},
	}
	checker := NewChecker(fake, testLogger())

	caps, err := checker.Get(context.Background())
	if err == nil {
		t.Fatal("expected error when probe fails with empty cache")
	}
	if caps != nil {
		t.Errorf("caps = %+v, want nil", caps)
	}
}

func TestChecker_Invalidate(t *testing.T) {
	fake := &fakeProber{}
	checker := NewChecker(fake, testLogger())
	ctx := context.Background()

	checker.Get(ctx)
	if fake.calls != 1 {
		t.Fatalf("expected 1 probe, got %d", fake.calls)
	}

	checker.Invalidate()
	if checker.Peek() != nil {
		t.Error("Peek returned capabilities after Invalidate")
	}

	checker.Get(ctx)
	if fake.calls != 2 {
		t.Errorf("expected 2 probes after Invalidate, got %d", fake.calls)
	}
}

func TestShortVersion(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"ffmpeg version 6.1.1 Copyright (c) 2000-2023 the FFmpeg developers", "6.1.1"},
		{"ffmpeg version n7.0-29-g1234abcd built with gcc", "n7.0-29-g1234abcd"},
		{"something unexpected", "something unexpected"},
	}
	for _, tt := range tests {
		if got := shortVersion(tt.line); got != tt.want {
			t.Errorf("shortVersion(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

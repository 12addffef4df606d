package main

import (
	"strings"
	"testing"

	"github.com/cutforge/cutforge-agent/internal/export"
	"github.com/cutforge/cutforge-agent/internal/timeline"
)

func TestValidateCommand_Valid(t *testing.T) {
	env := setupCLITestEnv(t)
	path := writeRequestFile(t, validRequest(t))

	out, _, err := runCLI(t, env, "validate", "-f", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	requireContains(t, out, "request is valid")
}

func TestValidateCommand_Invalid(t *testing.T) {
	env := setupCLITestEnv(t)
	path := writeRequestFile(t, export.Request{
		Clips: []timeline.Clip{{
			FilePath: "/nonexistent/clip.mp4",
			TrimEnd:  10,
			TrackID:  "track-1",
		}},
		OutputDir: "/nonexistent/exports",
		Filename:  "final.mp4",
	})

	out, _, err := runCLI(t, env, "validate", "-f", path)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("unexpected error: %v", err)
	}
	requireContains(t, out, "request has problems:")
}

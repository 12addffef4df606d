package main

import (
	"testing"
)

func TestEstimateCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	path := writeRequestFile(t, validRequest(t))

	out, _, err := runCLI(t, env, "estimate", "-f", path)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	requireContains(t, out, "clips:          1")
	requireContains(t, out, "total duration: 00:10")
	requireContains(t, out, "estimated time: 00:01")
	requireContains(t, out, "estimated size: 6.0 MB")
}

func TestEstimateCommand_BadFile(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "estimate", "-f", "/nonexistent/request.json")
	if err == nil {
		t.Fatal("expected an error")
	}
}

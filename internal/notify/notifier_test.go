package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewNotifier_NoopWhenUnconfigured(t *testing.T) {
	n := NewNotifier("", 0, testLogger())
	if err := n.ExportFinished(context.Background(), ExportEvent{JobID: "job-1", Status: "completed"}); err != nil {
		t.Fatalf("noop notifier returned error: %v", err)
	}
}

func TestWebhookNotifier_PostsJSON(t *testing.T) {
	var received ExportEvent
	var contentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		contentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewNotifier(server.URL, 5*time.Second, testLogger())
	ev := ExportEvent{
		JobID:           "job-1",
		Status:          "completed",
		OutputPath:      "/exports/final.mp4",
		DurationSeconds: 12.5,
	}
	if err := n.ExportFinished(context.Background(), ev); err != nil {
		t.Fatalf("ExportFinished error = %v", err)
	}

	if contentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", contentType)
	}
	if received != ev {
		t.Errorf("received payload = %+v, want %+v", received, ev)
	}
}

func TestWebhookNotifier_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	n := NewNotifier(server.URL, 5*time.Second, testLogger())
	err := n.ExportFinished(context.Background(), ExportEvent{JobID: "job-1", Status: "failed"})

	var werr *WebhookError
	if !errors.As(err, &werr) {
		t.Fatalf("error = %v, want *WebhookError", err)
	}
	if werr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", werr.StatusCode)
	}
	if !werr.IsRetryable() {
		t.Errorf("5xx should be retryable")
	}
}

func TestWebhookNotifier_ClientErrorNotRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewNotifier(server.URL, 5*time.Second, testLogger())
	err := n.ExportFinished(context.Background(), ExportEvent{JobID: "job-1", Status: "failed"})

	var werr *WebhookError
	if !errors.As(err, &werr) {
		t.Fatalf("error = %v, want *WebhookError", err)
	}
	if werr.IsRetryable() {
		t.Errorf("4xx should not be retryable")
	}
}

// Package notify delivers terminal export events to an optional webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ExportEvent is the JSON payload posted when a job reaches a terminal
// state.
type ExportEvent struct {
	JobID           string  `json:"job_id"`
	Status          string  `json:"status"`
	OutputPath      string  `json:"output_path,omitempty"`
	Error           string  `json:"error,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

// Notifier is the notification surface exposed to the job runner.
type Notifier interface {
	ExportFinished(ctx context.Context, ev ExportEvent) error
}

// NewNotifier builds a webhook notifier when a URL is configured, and a
// noop implementation otherwise.
func NewNotifier(webhookURL string, timeout time.Duration, logger *slog.Logger) Notifier {
	url := strings.TrimSpace(webhookURL)
	if url == "" {
		return noopNotifier{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type noopNotifier struct{}

func (noopNotifier) ExportFinished(context.Context, ExportEvent) error { return nil }

// WebhookNotifier posts export events as JSON to a single endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func (n *WebhookNotifier) ExportFinished(ctx context.Context, ev ExportEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("cannot encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("cannot build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("cannot deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		werr := &WebhookError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
		n.logger.Warn("webhook rejected export event",
			"job_id", ev.JobID,
			"status_code", resp.StatusCode,
			"retryable", werr.IsRetryable(),
		)
		return werr
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	n.logger.Info("webhook delivered", "job_id", ev.JobID, "status", ev.Status)
	return nil
}

// WebhookError represents a non-2xx response from the webhook endpoint.
type WebhookError struct {
	StatusCode int
	Body       string
}

func (e *WebhookError) Error() string {
	return fmt.Sprintf("webhook delivery failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable reports whether the delivery may be retried.
func (e *WebhookError) IsRetryable() bool {
	return e.StatusCode >= 500
}

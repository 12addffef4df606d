package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cutforge/cutforge-agent/internal/api"
	"github.com/cutforge/cutforge-agent/internal/export"
)

// RequestError is a non-2xx answer from the agent.
type RequestError struct {
	Status  int
	Message string
	Details []string
}

func (e *RequestError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Details, "; "))
	}
	return e.Message
}

// Client talks to the agent's HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach agent at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return &RequestError{Status: resp.StatusCode, Message: apiErr.Error, Details: apiErr.Details}
		}
		return &RequestError{Status: resp.StatusCode, Message: "agent returned " + resp.Status}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("invalid response from agent: %w", err)
		}
	}
	return nil
}

func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	var resp api.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/v1/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SubmitExport(ctx context.Context, req export.Request) (*api.JobResponse, error) {
	var resp api.JobResponse
	if err := c.do(ctx, http.MethodPost, "/v1/exports", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListExports(ctx context.Context, status string, limit int) ([]api.JobResponse, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/v1/exports"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp api.JobsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

func (c *Client) GetExport(ctx context.Context, id string) (*api.JobResponse, error) {
	var resp api.JobResponse
	if err := c.do(ctx, http.MethodGet, "/v1/exports/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CancelExport(ctx context.Context, id string) (*api.JobResponse, error) {
	var resp api.JobResponse
	if err := c.do(ctx, http.MethodPost, "/v1/exports/"+url.PathEscape(id)+"/cancel", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Estimate(ctx context.Context, req export.Request) (*export.Estimate, error) {
	var resp export.Estimate
	if err := c.do(ctx, http.MethodPost, "/v1/estimate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Validate(ctx context.Context, req export.Request) (*api.ValidateResponse, error) {
	var resp api.ValidateResponse
	if err := c.do(ctx, http.MethodPost, "/v1/validate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

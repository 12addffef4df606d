package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cutforge/cutforge-agent/internal/api"
	"github.com/cutforge/cutforge-agent/internal/export"
	"github.com/cutforge/cutforge-agent/internal/timeline"
)

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(api.StatusResponse{State: "idle"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-token")
	if _, err := client.Status(context.Background()); err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("Authorization = %q, want Bearer secret-token", gotAuth)
	}
}

func TestClient_ErrorResponseMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(api.ErrorResponse{
			Error:   "export request failed validation",
			Code:    "VALIDATION_FAILED",
			Details: []string{"clip 0: file not found", "output directory does not exist"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok")
	_, err := client.SubmitExport(context.Background(), export.Request{})
	if err == nil {
		t.Fatal("expected an error")
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error type = %T, want *RequestError", err)
	}
	if reqErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("Status = %d, want 422", reqErr.Status)
	}
	if !strings.Contains(reqErr.Error(), "failed validation") {
		t.Fatalf("Error() = %q, missing message", reqErr.Error())
	}
	if !strings.Contains(reqErr.Error(), "clip 0: file not found") {
		t.Fatalf("Error() = %q, missing details", reqErr.Error())
	}
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok")
	_, err := client.Health(context.Background())

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error type = %T, want *RequestError", err)
	}
	if reqErr.Status != http.StatusBadGateway {
		t.Fatalf("Status = %d, want 502", reqErr.Status)
	}
	if !strings.Contains(reqErr.Message, "502") {
		t.Fatalf("Message = %q, expected status text", reqErr.Message)
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "tok")
	_, err := client.Health(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "cannot reach agent at http://127.0.0.1:1") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_ListExportsQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(api.JobsResponse{Jobs: []api.JobResponse{}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok")
	jobList, err := client.ListExports(context.Background(), "completed", 5)
	if err != nil {
		t.Fatalf("ListExports() error = %v", err)
	}
	if len(jobList) != 0 {
		t.Fatalf("jobs = %d, want 0", len(jobList))
	}
	if !strings.Contains(gotQuery, "status=completed") || !strings.Contains(gotQuery, "limit=5") {
		t.Fatalf("query = %q, want status and limit params", gotQuery)
	}
}

func TestClient_SubmitMarshalsRequest(t *testing.T) {
	var got export.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(api.JobResponse{ID: "abc", Status: "pending"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok")
	job, err := client.SubmitExport(context.Background(), export.Request{
		Clips:     []timeline.Clip{{FilePath: "/media/a.mp4", TrimEnd: 10, TrackID: "track-1"}},
		OutputDir: "/exports",
		Filename:  "cut.mp4",
	})
	if err != nil {
		t.Fatalf("SubmitExport() error = %v", err)
	}
	if job.ID != "abc" {
		t.Fatalf("job.ID = %q, want abc", job.ID)
	}
	if len(got.Clips) != 1 || got.Filename != "cut.mp4" {
		t.Fatalf("server saw request %+v", got)
	}
}

func TestClient_TrimsTrailingSlash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "//") {
			t.Errorf("path %q has doubled slash", r.URL.Path)
		}
		json.NewEncoder(w).Encode(api.HealthResponse{Status: "ok"})
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "tok")
	if _, err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health() error = %v", err)
	}
}

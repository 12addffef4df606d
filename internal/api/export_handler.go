package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cutforge/cutforge-agent/internal/export"
	"github.com/cutforge/cutforge-agent/internal/jobs"
)

func submitExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		job, err := cfg.Service.Submit(r.Context(), req)
		if err != nil {
			var verr *jobs.ValidationError
			if errors.As(err, &verr) {
				WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
					Error:   "export request failed validation",
					Code:    "VALIDATION_FAILED",
					Details: verr.Errors,
				})
				return
			}
			WriteError(w, http.StatusInternalServerError, "failed to create export job", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusCreated, JobToResponse(job))
	}
}

func listExportsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				WriteError(w, http.StatusBadRequest, "invalid limit", "BAD_REQUEST")
				return
			}
			limit = n
		}

		list, err := cfg.Service.List(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list export jobs", "INTERNAL_ERROR")
			return
		}

		status := r.URL.Query().Get("status")
		resp := JobsResponse{Jobs: make([]JobResponse, 0, len(list))}
		for _, j := range list {
			if status != "" && j.Status != status {
				continue
			}
			resp.Jobs = append(resp.Jobs, JobToResponse(j))
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		job, err := cfg.Service.Get(r.Context(), id)
		if errors.Is(err, jobs.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		resp := JobToResponse(job)
		if job.Status == jobs.StatusRunning {
			if snap, ok := cfg.Service.LiveProgress(id); ok {
				resp.Session = &snap
			}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func cancelExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		job, err := cfg.Service.Cancel(r.Context(), id)
		switch {
		case errors.Is(err, jobs.ErrJobNotFound):
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		case errors.Is(err, jobs.ErrNotCancellable):
			WriteError(w, http.StatusConflict, err.Error(), "CONFLICT")
			return
		case err != nil:
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func downloadExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		job, err := cfg.Service.Get(r.Context(), id)
		if errors.Is(err, jobs.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job.Status != jobs.StatusCompleted || job.OutputPath == "" {
			WriteError(w, http.StatusConflict, "export has no output to download", "NO_OUTPUT")
			return
		}

		download := r.URL.Query().Get("inline") == ""
		if err := cfg.Outputs.ServeFile(w, r, job.OutputPath, download); err != nil {
			cfg.Logger.Error("download error", "error", err, "job_id", id)
		}
	}
}

func estimateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if len(req.Clips) == 0 {
			WriteError(w, http.StatusBadRequest, "clips must not be empty", "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Service.Estimate(req))
	}
}

func validateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		report := cfg.Service.Validate(req)
		WriteJSON(w, http.StatusOK, ValidateResponse{IsValid: report.Valid, Errors: report.Errors})
	}
}

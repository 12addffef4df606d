package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cutforge/cutforge-agent/internal/config"
	"github.com/cutforge/cutforge-agent/internal/jobs"
	"github.com/cutforge/cutforge-agent/internal/metrics"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())
	if cfg.Metrics != nil {
		r.Use(metrics.RequestMiddleware(cfg.Metrics))
	}

	r.Get("/health", healthHandler(cfg))
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(LoopbackGuard())
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Post("/exports", submitExportHandler(cfg))
		r.Get("/exports", listExportsHandler(cfg))
		r.Get("/exports/{id}", getExportHandler(cfg))
		r.Post("/exports/{id}/cancel", cancelExportHandler(cfg))
		r.Get("/exports/{id}/download", downloadExportHandler(cfg))
		r.Post("/estimate", estimateHandler(cfg))
		r.Post("/validate", validateHandler(cfg))
		r.Get("/events", eventsHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  config.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		queue, err := cfg.Service.Stats(ctx)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to read queue stats", "INTERNAL_ERROR")
			return
		}
		recent, _ := cfg.Service.List(ctx, 10)

		state := "idle"
		lastError := ""
		var activeJob *JobResponse

		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		for _, j := range recent {
			if j.Status == jobs.StatusRunning && activeJob == nil {
				state = "exporting"
				resp := JobToResponse(j)
				if snap, ok := cfg.Service.LiveProgress(j.ID); ok {
					resp.Session = &snap
				}
				activeJob = &resp
			}
			if j.Status == jobs.StatusFailed && lastError == "" {
				lastError = j.Error
			}
		}

		if lastError != "" && state == "idle" {
			state = "error"
		}

		resp := StatusResponse{
			State:     state,
			Version:   config.Version,
			LastError: lastError,
			Paused:    cfg.Runner != nil && cfg.Runner.IsPaused(),
			Queue:     queue,
			ActiveJob: activeJob,
		}
		if cfg.Sessions != nil {
			resp.ActiveExports = cfg.Sessions.Active()
		}

		if cfg.Checker != nil {
			if caps, err := cfg.Checker.Get(ctx); err != nil {
				resp.FFmpeg = &FFmpegResponse{Available: false, Error: err.Error()}
			} else if caps != nil {
				ff := &FFmpegResponse{
					Available: caps.Available,
					Path:      caps.Path,
					Version:   caps.Version,
				}
				if !caps.ProbedAt.IsZero() {
					ff.LastProbeAt = caps.ProbedAt.Format(time.RFC3339)
				}
				resp.FFmpeg = ff
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func eventsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Hub == nil {
			WriteError(w, http.StatusServiceUnavailable, "event stream unavailable", "UNAVAILABLE")
			return
		}
		cfg.Hub.ServeHTTP(w, r)
	}
}

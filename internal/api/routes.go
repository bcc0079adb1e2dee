package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cutroom/cutroom-agent/internal/library"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Get("/timeline", getTimelineHandler(cfg))
		r.Post("/timeline/clips", addClipHandler(cfg))
		r.Patch("/timeline/clips/{id}", updateClipHandler(cfg))
		r.Delete("/timeline/clips/{id}", removeClipHandler(cfg))
		r.Post("/timeline/clips/{id}/track", moveClipHandler(cfg))
		r.Post("/timeline/clips/{id}/trim", trimClipHandler(cfg))
		r.Post("/timeline/split", splitHandler(cfg))
		r.Post("/timeline/split-all", splitAllHandler(cfg))
		r.Post("/timeline/playhead", playheadHandler(cfg))
		r.Post("/timeline/zoom", zoomHandler(cfg))
		r.Post("/timeline/scroll", scrollHandler(cfg))
		r.Post("/timeline/selection", selectionHandler(cfg))
		r.Post("/timeline/tracks", addTrackHandler(cfg))
		r.Delete("/timeline/tracks/{index}", removeTrackHandler(cfg))
		r.Post("/timeline/compress", compressHandler(cfg))
		r.Post("/timeline/command", commandHandler(cfg))
		r.Post("/timeline/clear", clearHandler(cfg))

		r.Get("/assets", listAssetsHandler(cfg))
		r.Post("/assets/import", importAssetsHandler(cfg))
		r.Delete("/assets/{id}", removeAssetHandler(cfg))
		r.Get("/assets/{id}/thumbnail", thumbnailHandler(cfg))
		r.Post("/assets/{id}/pauses", detectPausesHandler(cfg))
		r.Post("/assets/{id}/subtitles", generateSubtitlesHandler(cfg))

		r.Post("/export", exportRenderHandler(cfg))
		r.Post("/export/edl", exportEDLHandler(cfg))

		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))

		r.Get("/playback/file", playbackHandler(cfg))

		r.Get("/project", listProjectsHandler(cfg))
		r.Post("/project/save", saveProjectHandler(cfg))
		r.Post("/project/open", openProjectHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  cfg.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		assets, _ := cfg.Library.List(ctx)
		jobs, _ := cfg.Repository.ListJobs(ctx, 10)

		state := "idle"
		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""

		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		for _, j := range jobs {
			if j.Status == library.JobStatusRunning {
				state = "working"
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			}
			if j.Status == library.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}

		if lastError != "" && state == "idle" {
			state = "error"
		}

		tools := cfg.Tools
		WriteJSON(w, http.StatusOK, StatusResponse{
			State:       state,
			LastError:   lastError,
			AssetsCount: len(assets),
			JobsRunning: jobsRunning,
			Revision:    cfg.Timeline.Snapshot().Revision,
			ActiveJob:   activeJob,
			Tools:       &tools,
		})
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Repository.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "job id required", "BAD_REQUEST")
			return
		}

		job, err := cfg.Repository.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func playbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assetID := r.URL.Query().Get("asset_id")
		if assetID == "" {
			WriteError(w, http.StatusBadRequest, "asset_id is required", "BAD_REQUEST")
			return
		}

		asset, err := cfg.Library.Get(r.Context(), assetID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if asset == nil {
			WriteError(w, http.StatusNotFound, "asset not found", "NOT_FOUND")
			return
		}
		if !asset.Present {
			WriteError(w, http.StatusNotFound, "media file is not available", "MEDIA_OFFLINE")
			return
		}

		if err := cfg.Preview.ServeFile(w, r, asset.Path); err != nil {
			cfg.Logger.Error("playback error", "error", err, "asset_id", assetID)
		}
	}
}

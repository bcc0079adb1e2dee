package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cutroom/cutroom-agent/internal/library"
)

func listAssetsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assets, err := cfg.Library.List(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list assets", "INTERNAL_ERROR")
			return
		}

		resp := AssetsResponse{Assets: make([]AssetResponse, len(assets))}
		for i, a := range assets {
			resp.Assets[i] = AssetToResponse(a)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func importAssetsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ImportRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		results := cfg.Library.ImportAll(r.Context(), req.Paths)
		WriteJSON(w, http.StatusOK, ImportResponse{Results: results})
	}
}

func removeAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "asset id required", "BAD_REQUEST")
			return
		}

		if err := cfg.Library.Remove(r.Context(), id); err != nil {
			WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func thumbnailHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		asset, err := cfg.Library.Get(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if asset == nil {
			WriteError(w, http.StatusNotFound, "asset not found", "NOT_FOUND")
			return
		}
		if asset.ThumbnailPath == "" {
			WriteError(w, http.StatusNotFound, "thumbnail not generated", "NOT_FOUND")
			return
		}

		if err := cfg.Preview.ServeFile(w, r, asset.ThumbnailPath); err != nil {
			cfg.Logger.Error("thumbnail serve error", "error", err, "asset_id", id)
		}
	}
}

func detectPausesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req PausesRequest
		if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
			return
		}

		job, ok := enqueueAssetJob(w, r, cfg, id, library.JobTypeDetectPauses, req)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusAccepted, JobQueuedResponse{JobID: job.ID})
	}
}

func generateSubtitlesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		job, ok := enqueueAssetJob(w, r, cfg, id, library.JobTypeSubtitles, nil)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusAccepted, JobQueuedResponse{JobID: job.ID})
	}
}

// enqueueAssetJob verifies the asset exists and records a pending job with
// the given payload marshalled to JSON. A nil payload stores an empty one.
func enqueueAssetJob(w http.ResponseWriter, r *http.Request, cfg ServerConfig, assetID, jobType string, payload any) (*library.Job, bool) {
	asset, err := cfg.Library.Get(r.Context(), assetID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		return nil, false
	}
	if asset == nil {
		WriteError(w, http.StatusNotFound, "asset not found", "NOT_FOUND")
		return nil, false
	}

	encoded := ""
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to encode job payload", "INTERNAL_ERROR")
			return nil, false
		}
		encoded = string(raw)
	}

	job, err := cfg.Library.EnqueueJob(r.Context(), jobType, assetID, encoded)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		return nil, false
	}
	return job, true
}

package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cutroom/cutroom-agent/internal/export"
	"github.com/cutroom/cutroom-agent/internal/library"
)

// exportRenderHandler queues a render job for the current timeline. The
// heavy ffmpeg work happens in the job runner; the handler only validates
// the destination and records the job.
func exportRenderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RenderRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if err := export.ValidateOutputDir(filepath.Dir(req.OutputPath)); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		if len(cfg.Timeline.Clips()) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "timeline is empty", "EMPTY_TIMELINE")
			return
		}

		job, ok := enqueueRenderJob(w, r, cfg, req.OutputPath)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusAccepted, JobQueuedResponse{JobID: job.ID})
	}
}

func enqueueRenderJob(w http.ResponseWriter, r *http.Request, cfg ServerConfig, outputPath string) (*library.Job, bool) {
	payload, err := json.Marshal(RenderRequest{OutputPath: outputPath})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to encode job payload", "INTERNAL_ERROR")
		return nil, false
	}
	job, err := cfg.Library.EnqueueJob(r.Context(), library.JobTypeRender, "", string(payload))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		return nil, false
	}
	return job, true
}

// exportEDLHandler writes an EDL for the current timeline synchronously.
// Clips whose source asset is gone are skipped and reported; only a fully
// unresolvable timeline fails the export.
func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.ExportRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if err := export.ValidateOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		projectName := export.ExportBaseName(req.ProjectName)

		frameRate := req.FrameRate
		if frameRate <= 0 {
			frameRate = 30.0
		}

		snapshot := cfg.Timeline.Snapshot()
		if len(snapshot.Clips) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "timeline is empty", "EMPTY_TIMELINE")
			return
		}

		resolved, unresolved := export.Resolve(snapshot.Clips, cfg.Library)
		if len(resolved) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "no clips could be resolved", "UNRESOLVABLE_CLIPS")
			return
		}

		edl := export.GenerateEDL(resolved, projectName, frameRate)
		outputPath := filepath.Join(req.OutputDir, projectName+".edl")
		if err := os.WriteFile(outputPath, []byte(edl), 0o644); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, export.ExportResponse{
			Status:          "ok",
			OutputPath:      outputPath,
			ClipCount:       len(resolved),
			UnresolvedClips: unresolved,
		})
	}
}

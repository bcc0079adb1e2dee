package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cutroom/cutroom-agent/internal/timeline"
)

func getTimelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Timeline.Snapshot())
	}
}

func addClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddClipRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		asset, err := cfg.Library.Get(r.Context(), req.AssetID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if asset == nil {
			WriteError(w, http.StatusNotFound, "asset not found", "NOT_FOUND")
			return
		}

		clip := cfg.Timeline.AddClip(timeline.Source{
			ID:       asset.ID,
			Name:     asset.Name,
			Duration: asset.Duration,
		}, req.StartTime)

		WriteJSON(w, http.StatusCreated, clip)
	}
}

func updateClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req UpdateClipRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		ok := cfg.Timeline.UpdateClip(id, timeline.ClipFields{
			StartTime: req.StartTime,
			Duration:  req.Duration,
			InPoint:   req.InPoint,
			OutPoint:  req.OutPoint,
			Track:     req.Track,
			Layer:     req.Layer,
		})
		if !ok {
			WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, cfg.Timeline.Clip(id))
	}
}

func removeClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !cfg.Timeline.RemoveClip(id) {
			WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func moveClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req MoveClipRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		changed := cfg.Timeline.MoveClipToTrack(id, *req.Track)
		writeChanged(w, cfg, changed)
	}
}

func trimClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req TrimClipRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		var changed bool
		if req.Edge == "left" {
			changed = cfg.Timeline.TrimClipLeft(id, req.DeltaX)
		} else {
			changed = cfg.Timeline.TrimClipRight(id, req.DeltaX)
		}
		writeChanged(w, cfg, changed)
	}
}

func splitHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeChanged(w, cfg, cfg.Timeline.SplitAtPlayhead())
	}
}

func splitAllHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		created := cfg.Timeline.SplitAllAtPlayhead()
		WriteJSON(w, http.StatusOK, SplitAllResponse{
			NewClipIDs: created,
			Revision:   cfg.Timeline.Snapshot().Revision,
		})
	}
}

func playheadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlayheadRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		cfg.Timeline.SetPlayhead(req.Seconds)
		if req.Playing != nil {
			cfg.Timeline.SetPlaying(*req.Playing)
		}
		writeChanged(w, cfg, true)
	}
}

func zoomHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ZoomRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		cfg.Timeline.SetZoom(req.PixelsPerSecond)
		writeChanged(w, cfg, true)
	}
}

func scrollHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScrollRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		cfg.Timeline.SetScrollPosition(req.Seconds)
		writeChanged(w, cfg, true)
	}
}

func selectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectionRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		cfg.Timeline.SetSelectedClips(req.ClipIDs)
		WriteJSON(w, http.StatusOK, cfg.Timeline.Snapshot())
	}
}

func addTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		track := cfg.Timeline.AddTrack()
		WriteJSON(w, http.StatusCreated, track)
	}
}

func removeTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil || index < 0 {
			WriteError(w, http.StatusBadRequest, "invalid track index", "BAD_REQUEST")
			return
		}

		if !cfg.Timeline.RemoveTrack(index) {
			WriteError(w, http.StatusConflict, "track cannot be removed", "TRACK_NOT_REMOVABLE")
			return
		}
		writeChanged(w, cfg, true)
	}
}

func compressHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CompressRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		var subset map[string]bool
		if len(req.ClipIDs) > 0 {
			subset = make(map[string]bool, len(req.ClipIDs))
			for _, id := range req.ClipIDs {
				subset[id] = true
			}
		}

		moved := 0
		if req.Track != nil {
			moved = cfg.Timeline.CompressTrack(*req.Track, subset)
		} else {
			for i := 0; i < cfg.Timeline.NumTracks(); i++ {
				moved += cfg.Timeline.CompressTrack(i, subset)
			}
		}
		writeChanged(w, cfg, moved > 0)
	}
}

func commandHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CommandRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		changed := cfg.Commands.Handle(timeline.Command{Key: req.Key, Ctrl: req.Ctrl})
		writeChanged(w, cfg, changed)
	}
}

func clearHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Timeline.Clear()
		WriteJSON(w, http.StatusOK, cfg.Timeline.Snapshot())
	}
}

func writeChanged(w http.ResponseWriter, cfg ServerConfig, changed bool) {
	WriteJSON(w, http.StatusOK, ChangedResponse{
		Changed:  changed,
		Revision: cfg.Timeline.Snapshot().Revision,
	})
}

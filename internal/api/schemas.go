package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cutroom/cutroom-agent/internal/library"
)

var validate = validator.New()

// decodeJSON decodes the request body into dst and runs struct validation.
// On failure it writes the error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return false
	}
	return true
}

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type ToolsResponse struct {
	FFmpeg        bool `json:"ffmpeg"`
	FFprobe       bool `json:"ffprobe"`
	Transcription bool `json:"transcription"`
}

type StatusResponse struct {
	State       string         `json:"state"`
	LastError   string         `json:"last_error,omitempty"`
	AssetsCount int            `json:"assets_count"`
	JobsRunning int            `json:"jobs_running"`
	Revision    uint64         `json:"revision"`
	ActiveJob   *JobResponse   `json:"active_job,omitempty"`
	Tools       *ToolsResponse `json:"tools,omitempty"`
}

type AddClipRequest struct {
	AssetID   string   `json:"asset_id" validate:"required"`
	StartTime *float64 `json:"start_time" validate:"omitempty,gte=0"`
}

type UpdateClipRequest struct {
	StartTime *float64 `json:"start_time" validate:"omitempty,gte=0"`
	Duration  *float64 `json:"duration" validate:"omitempty,gt=0"`
	InPoint   *float64 `json:"in_point" validate:"omitempty,gte=0"`
	OutPoint  *float64 `json:"out_point" validate:"omitempty,gte=0"`
	Track     *int     `json:"track" validate:"omitempty,gte=0"`
	Layer     *int     `json:"layer" validate:"omitempty,gte=0"`
}

type MoveClipRequest struct {
	Track *int `json:"track" validate:"required,gte=0"`
}

type TrimClipRequest struct {
	Edge   string  `json:"edge" validate:"required,oneof=left right"`
	DeltaX float64 `json:"delta_x"`
}

type PlayheadRequest struct {
	Seconds float64 `json:"seconds" validate:"gte=0"`
	Playing *bool   `json:"playing"`
}

type ZoomRequest struct {
	PixelsPerSecond float64 `json:"pixels_per_second" validate:"required,gt=0"`
}

type ScrollRequest struct {
	Seconds float64 `json:"seconds" validate:"gte=0"`
}

type SelectionRequest struct {
	ClipIDs []string `json:"clip_ids"`
}

type CompressRequest struct {
	Track   *int     `json:"track" validate:"omitempty,gte=0"`
	ClipIDs []string `json:"clip_ids"`
}

type CommandRequest struct {
	Key  string `json:"key" validate:"required"`
	Ctrl bool   `json:"ctrl"`
}

type ChangedResponse struct {
	Changed  bool   `json:"changed"`
	Revision uint64 `json:"revision"`
}

type SplitAllResponse struct {
	NewClipIDs []string `json:"new_clip_ids"`
	Revision   uint64   `json:"revision"`
}

type ImportRequest struct {
	Paths []string `json:"paths" validate:"required,min=1,dive,required"`
}

type ImportResponse struct {
	Results []library.ImportResult `json:"results"`
}

type AssetResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Path         string  `json:"path"`
	Duration     float64 `json:"duration"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
	FrameRate    float64 `json:"frame_rate,omitempty"`
	Codec        string  `json:"codec,omitempty"`
	HasThumbnail bool    `json:"has_thumbnail"`
	Present      bool    `json:"present"`
	CreatedAt    string  `json:"created_at"`
}

type AssetsResponse struct {
	Assets []AssetResponse `json:"assets"`
}

type PausesRequest struct {
	MinDuration float64 `json:"min_duration" validate:"omitempty,gte=0"`
}

type JobQueuedResponse struct {
	JobID string `json:"job_id"`
}

type JobResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	AssetID   string          `json:"asset_id,omitempty"`
	Progress  int             `json:"progress"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type RenderRequest struct {
	OutputPath string `json:"output_path" validate:"required"`
}

type ProjectSaveRequest struct {
	Name string `json:"name" validate:"required"`
}

type ProjectSaveResponse struct {
	Path string `json:"path"`
}

type ProjectOpenRequest struct {
	Path string `json:"path" validate:"required"`
}

type ProjectListResponse struct {
	Projects []string `json:"projects"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func AssetToResponse(a *library.Asset) AssetResponse {
	return AssetResponse{
		ID:           a.ID,
		Name:         a.Name,
		Path:         a.Path,
		Duration:     a.Duration,
		Width:        a.Width,
		Height:       a.Height,
		FrameRate:    a.FrameRate,
		Codec:        a.Codec,
		HasThumbnail: a.ThumbnailPath != "",
		Present:      a.Present,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
	}
}

func JobToResponse(j *library.Job) JobResponse {
	resp := JobResponse{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		AssetID:   j.AssetID,
		Progress:  j.Progress,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
	if j.Result != "" && json.Valid([]byte(j.Result)) {
		resp.Result = json.RawMessage(j.Result)
	}
	return resp
}

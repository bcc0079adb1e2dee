package library

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Asset is a media file imported into the library. Its id is what timeline
// clips reference as their source.
type Asset struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Path          string    `json:"path"`
	Duration      float64   `json:"duration"`
	Width         int       `json:"width,omitempty"`
	Height        int       `json:"height,omitempty"`
	FrameRate     float64   `json:"frame_rate,omitempty"`
	Codec         string    `json:"codec,omitempty"`
	ThumbnailPath string    `json:"thumbnail_path,omitempty"`
	Present       bool      `json:"present"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	JobTypeThumbnail    = "thumbnail"
	JobTypeDetectPauses = "detect_pauses"
	JobTypeSubtitles    = "generate_subtitles"
	JobTypeRender       = "render"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job is a background work item processed by the Runner. Payload carries
// JSON arguments; Result carries the JSON outcome the UI polls for.
type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	AssetID   string    `json:"asset_id,omitempty"`
	Progress  int       `json:"progress"`
	Payload   string    `json:"payload,omitempty"`
	Result    string    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ImportResult reports the outcome of importing one file in a batch.
type ImportResult struct {
	Path  string `json:"path"`
	Asset *Asset `json:"asset,omitempty"`
	Error string `json:"error,omitempty"`
}

var mediaExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
}

func IsMediaFile(filename string) bool {
	return mediaExtensions[strings.ToLower(filepath.Ext(filename))]
}

func NewID() string {
	return uuid.NewString()
}

package export

// ResolvedClip is one program event of an export: a span of a media file
// in seconds, in final sequence order.
type ResolvedClip struct {
	Name      string
	MediaPath string
	SourceIn  float64
	SourceOut float64
}

type ExportRequest struct {
	ProjectName string  `json:"project_name"`
	FrameRate   float64 `json:"frame_rate"`
	OutputDir   string  `json:"output_dir"`
}

type ExportResponse struct {
	Status          string   `json:"status"`
	OutputPath      string   `json:"output_path"`
	ClipCount       int      `json:"clip_count"`
	UnresolvedClips []string `json:"unresolved_clips,omitempty"`
}

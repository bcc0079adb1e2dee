package media

import (
	"context"
	"log/slog"
)

// Toolchain is the media processing contract used throughout the agent.
// The production implementation shells out to ffmpeg/ffprobe; tests use
// StubToolchain.
type Toolchain interface {
	// Probe inspects a media file and returns its container metadata.
	Probe(ctx context.Context, path string) (*ProbeResult, error)

	// GenerateThumbnail extracts a single frame at the given offset
	// (seconds) and writes it as an image to outputPath.
	GenerateThumbnail(ctx context.Context, path, outputPath string, offset float64) error

	// ExtractAudio writes a mono 16 kHz WAV suitable for transcription.
	ExtractAudio(ctx context.Context, path, outputPath string) error

	// DetectSilence returns the silent intervals of the file's audio
	// track. minDuration is the shortest silence reported, in seconds;
	// noiseDb the detection threshold (e.g. -35).
	DetectSilence(ctx context.Context, path string, minDuration, noiseDb float64) ([]Interval, error)

	// RenderTimeline renders a flattened clip sequence into a single
	// output file.
	RenderTimeline(ctx context.Context, plan RenderPlan, outputPath string) error
}

// ProbeResult holds the subset of ffprobe output the agent cares about.
type ProbeResult struct {
	Duration    float64
	Width       int
	Height      int
	Codec       string
	FrameRate   float64
	AudioCodec  string
	AudioSample int
	HasAudio    bool
}

// Interval is a half-open [Start, End) span in seconds.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// RenderClip is one program segment of a render: a span of a source file
// placed on the output in plan order.
type RenderClip struct {
	SourcePath string
	InPoint    float64
	OutPoint   float64
}

// RenderPlan is the flattened, ordered clip sequence for RenderTimeline.
type RenderPlan struct {
	Clips []RenderClip
}

// StubToolchain is a Toolchain that performs no real media work. Probe
// durations and silence intervals can be seeded per test; every call is
// recorded for assertions.
type StubToolchain struct {
	logger *slog.Logger

	Durations map[string]float64
	Silences  []Interval
	Err       error

	Calls []string
}

func NewStubToolchain(logger *slog.Logger) *StubToolchain {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubToolchain{logger: logger, Durations: make(map[string]float64)}
}

func (s *StubToolchain) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	s.Calls = append(s.Calls, "probe")
	if s.Err != nil {
		return nil, s.Err
	}
	s.logger.Debug("toolchain stub: probe", "path", path)
	return &ProbeResult{Duration: s.Durations[path], HasAudio: true}, nil
}

func (s *StubToolchain) GenerateThumbnail(ctx context.Context, path, outputPath string, offset float64) error {
	s.Calls = append(s.Calls, "thumbnail")
	s.logger.Debug("toolchain stub: thumbnail", "path", path, "output", outputPath, "offset", offset)
	return s.Err
}

func (s *StubToolchain) ExtractAudio(ctx context.Context, path, outputPath string) error {
	s.Calls = append(s.Calls, "extract_audio")
	s.logger.Debug("toolchain stub: extract audio", "path", path, "output", outputPath)
	return s.Err
}

func (s *StubToolchain) DetectSilence(ctx context.Context, path string, minDuration, noiseDb float64) ([]Interval, error) {
	s.Calls = append(s.Calls, "detect_silence")
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Silences, nil
}

func (s *StubToolchain) RenderTimeline(ctx context.Context, plan RenderPlan, outputPath string) error {
	s.Calls = append(s.Calls, "render")
	s.logger.Debug("toolchain stub: render", "clips", len(plan.Clips), "output", outputPath)
	return s.Err
}

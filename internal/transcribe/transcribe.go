package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cutroom/cutroom-agent/internal/media"
)

// Results cross the bridge to the UI, so failures are reported in-band
// rather than as Go errors: a missing API key or a network fault becomes
// {Success: false, Error: "..."} and the editing session continues.

// PauseInterval is a silent span of the audio track, in seconds.
type PauseInterval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// PauseResult is the outcome of a pause detection run.
type PauseResult struct {
	Success bool            `json:"success"`
	Pauses  []PauseInterval `json:"pauses,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// SubtitleResult is the outcome of a subtitle generation run.
type SubtitleResult struct {
	Success      bool   `json:"success"`
	SubtitlePath string `json:"subtitlePath,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Config holds the transcription client's configuration.
type Config struct {
	APIKey       string
	APIURL       string  // transcription endpoint; empty = OpenAI's
	Model        string  // empty = "whisper-1"
	NoiseDb      float64 // silence threshold in dB; 0 = -35
	ArtifactsDir string  // where generated VTT files land
	HTTPTimeout  time.Duration
	Logger       *slog.Logger
}

const (
	defaultAPIURL  = "https://api.openai.com/v1/audio/transcriptions"
	defaultModel   = "whisper-1"
	defaultNoiseDb = -35.0
)

// Client detects pauses locally via the media toolchain and generates
// subtitles through a Whisper-style HTTP endpoint.
type Client struct {
	cfg       Config
	toolchain media.Toolchain
	http      *http.Client
}

func NewClient(cfg Config, toolchain media.Toolchain) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.NoiseDb == 0 {
		cfg.NoiseDb = defaultNoiseDb
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		cfg:       cfg,
		toolchain: toolchain,
		http:      &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// DetectPauses finds silences of at least minDuration seconds in the
// audio file.
func (c *Client) DetectPauses(ctx context.Context, audioPath string, minDuration float64) PauseResult {
	if minDuration <= 0 {
		minDuration = 0.5
	}

	intervals, err := c.toolchain.DetectSilence(ctx, audioPath, minDuration, c.cfg.NoiseDb)
	if err != nil {
		c.cfg.Logger.Warn("pause detection failed", "error", err)
		return PauseResult{Error: err.Error()}
	}

	pauses := make([]PauseInterval, 0, len(intervals))
	for _, iv := range intervals {
		pauses = append(pauses, PauseInterval{Start: iv.Start, End: iv.End})
	}

	c.cfg.Logger.Info("pause detection complete", "pauses", len(pauses), "min_duration", minDuration)
	return PauseResult{Success: true, Pauses: pauses}
}

// GenerateSubtitles uploads the audio file for transcription and writes
// the returned VTT under the artifacts directory.
func (c *Client) GenerateSubtitles(ctx context.Context, audioPath string) SubtitleResult {
	if c.cfg.APIKey == "" {
		return SubtitleResult{Error: "transcription API key is not configured"}
	}

	vtt, err := c.transcribe(ctx, audioPath)
	if err != nil {
		c.cfg.Logger.Warn("subtitle generation failed", "error", err)
		return SubtitleResult{Error: err.Error()}
	}

	basename := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	outPath := filepath.Join(c.cfg.ArtifactsDir, basename+".vtt")
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return SubtitleResult{Error: fmt.Sprintf("cannot create artifacts dir: %v", err)}
	}
	if err := os.WriteFile(outPath, []byte(vtt), 0644); err != nil {
		return SubtitleResult{Error: fmt.Sprintf("cannot write subtitle file: %v", err)}
	}

	c.cfg.Logger.Info("subtitles generated", "output", filepath.Base(outPath))
	return SubtitleResult{Success: true, SubtitlePath: outPath}
}

func (c *Client) transcribe(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("cannot open audio file: %w", err)
	}
	defer file.Close()

	var b bytes.Buffer
	writer := multipart.NewWriter(&b)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("cannot build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("cannot read audio file: %w", err)
	}

	writer.WriteField("model", c.cfg.Model)
	writer.WriteField("response_format", "vtt")

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("cannot finalise upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, &b)
	if err != nil {
		return "", fmt.Errorf("cannot create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("cannot read transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription API returned %d: %s", resp.StatusCode, truncate(string(body), 256))
	}

	return string(body), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

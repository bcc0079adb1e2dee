package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const maxStderrBytes = 8 * 1024 // 8 KB tail of stderr kept for diagnostics

// Config holds the CLI toolchain's configuration.
type Config struct {
	FFmpegPath  string        // path to ffmpeg binary; empty = look up on PATH
	FFprobePath string        // path to ffprobe binary; empty = look up on PATH
	Timeout     time.Duration // per-invocation timeout
	Logger      *slog.Logger
	DebugPaths  bool // if true, log full file paths; otherwise sanitise
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig(logger *slog.Logger) Config {
	return Config{
		Timeout: 10 * time.Minute,
		Logger:  logger,
	}
}

// CLIToolchain is the production Toolchain, shelling out to ffmpeg and
// ffprobe.
type CLIToolchain struct {
	cfg     Config
	ffmpeg  string
	ffprobe string
}

// NewCLIToolchain resolves the ffmpeg and ffprobe binaries and returns a
// ready toolchain.
func NewCLIToolchain(cfg Config) (*CLIToolchain, error) {
	ffmpeg, err := resolveBinary(cfg.FFmpegPath, "ffmpeg")
	if err != nil {
		return nil, err
	}
	ffprobe, err := resolveBinary(cfg.FFprobePath, "ffprobe")
	if err != nil {
		return nil, err
	}

	cfg.Logger.Info("media toolchain initialised", "ffmpeg", ffmpeg, "ffprobe", ffprobe)
	return &CLIToolchain{cfg: cfg, ffmpeg: ffmpeg, ffprobe: ffprobe}, nil
}

// ffprobe -print_format json output, trimmed to the fields we read.
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		SampleRate string `json:"sample_rate"`
	} `json:"streams"`
}

func (t *CLIToolchain) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, t.ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w", t.safePath(path), err)
	}

	var raw probeOutput
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("cannot parse ffprobe output: %w", err)
	}
	return parseProbe(raw)
}

func parseProbe(raw probeOutput) (*ProbeResult, error) {
	result := &ProbeResult{}

	if raw.Format.Duration != "" {
		d, err := strconv.ParseFloat(raw.Format.Duration, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse duration %q: %w", raw.Format.Duration, err)
		}
		result.Duration = d
	}

	for _, stream := range raw.Streams {
		switch stream.CodecType {
		case "video":
			if result.Codec != "" {
				continue
			}
			result.Codec = stream.CodecName
			result.Width = stream.Width
			result.Height = stream.Height
			result.FrameRate = parseFrameRate(stream.RFrameRate)
		case "audio":
			if result.HasAudio {
				continue
			}
			result.HasAudio = true
			result.AudioCodec = stream.CodecName
			if stream.SampleRate != "" {
				result.AudioSample, _ = strconv.Atoi(stream.SampleRate)
			}
		}
	}
	return result, nil
}

// parseFrameRate parses ffprobe's fractional rate notation ("30000/1001").
func parseFrameRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	if !found {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

func (t *CLIToolchain) GenerateThumbnail(ctx context.Context, path, outputPath string, offset float64) error {
	_, err := t.runFFmpeg(ctx, outputPath,
		"-ss", formatSeconds(offset),
		"-i", path,
		"-vframes", "1",
		"-vf", "scale=320:-1",
		outputPath)
	if err != nil {
		return fmt.Errorf("thumbnail generation failed for %s: %w", t.safePath(path), err)
	}
	return nil
}

func (t *CLIToolchain) ExtractAudio(ctx context.Context, path, outputPath string) error {
	_, err := t.runFFmpeg(ctx, outputPath,
		"-i", path,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		outputPath)
	if err != nil {
		return fmt.Errorf("audio extraction failed for %s: %w", t.safePath(path), err)
	}
	return nil
}

func (t *CLIToolchain) DetectSilence(ctx context.Context, path string, minDuration, noiseDb float64) ([]Interval, error) {
	probe, err := t.Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	filter := fmt.Sprintf("silencedetect=noise=%gdB:d=%g", noiseDb, minDuration)
	stderr, err := t.runFFmpeg(ctx, "",
		"-hide_banner",
		"-i", path,
		"-af", filter,
		"-f", "null", "-")
	if err != nil {
		return nil, fmt.Errorf("silence detection failed for %s: %w", t.safePath(path), err)
	}

	return parseSilence(stderr, probe.Duration), nil
}

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?[0-9.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*(-?[0-9.]+)`)
)

// parseSilence extracts silence intervals from ffmpeg silencedetect
// stderr. A trailing silence_start with no matching silence_end runs to
// the end of the file.
func parseSilence(output string, totalDuration float64) []Interval {
	var intervals []Interval
	pending := -1.0

	for _, line := range strings.Split(output, "\n") {
		if m := silenceStartRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				pending = maxF(v, 0)
			}
			continue
		}
		if m := silenceEndRe.FindStringSubmatch(line); m != nil && pending >= 0 {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > pending {
				intervals = append(intervals, Interval{Start: pending, End: v})
			}
			pending = -1
		}
	}

	if pending >= 0 && totalDuration > pending {
		intervals = append(intervals, Interval{Start: pending, End: totalDuration})
	}
	return intervals
}

func (t *CLIToolchain) RenderTimeline(ctx context.Context, plan RenderPlan, outputPath string) error {
	if len(plan.Clips) == 0 {
		return fmt.Errorf("render plan has no clips")
	}

	args, err := renderArgs(plan, outputPath)
	if err != nil {
		return err
	}

	if _, err := t.runFFmpeg(ctx, outputPath, args...); err != nil {
		return fmt.Errorf("timeline render failed: %w", err)
	}
	return nil
}

// renderArgs builds the ffmpeg invocation for a render plan: one input
// per distinct source, a trim + concat filter graph in plan order.
func renderArgs(plan RenderPlan, outputPath string) ([]string, error) {
	inputIndex := make(map[string]int)
	var inputs []string
	for _, clip := range plan.Clips {
		if clip.OutPoint <= clip.InPoint {
			return nil, fmt.Errorf("clip of %s has empty span [%g, %g)",
				filepath.Base(clip.SourcePath), clip.InPoint, clip.OutPoint)
		}
		if _, ok := inputIndex[clip.SourcePath]; !ok {
			inputIndex[clip.SourcePath] = len(inputs)
			inputs = append(inputs, clip.SourcePath)
		}
	}

	var graph strings.Builder
	for i, clip := range plan.Clips {
		idx := inputIndex[clip.SourcePath]
		fmt.Fprintf(&graph, "[%d:v]trim=start=%.3f:end=%.3f,setpts=PTS-STARTPTS[v%d];",
			idx, clip.InPoint, clip.OutPoint, i)
		fmt.Fprintf(&graph, "[%d:a]atrim=start=%.3f:end=%.3f,asetpts=PTS-STARTPTS[a%d];",
			idx, clip.InPoint, clip.OutPoint, i)
	}
	for i := range plan.Clips {
		fmt.Fprintf(&graph, "[v%d][a%d]", i, i)
	}
	fmt.Fprintf(&graph, "concat=n=%d:v=1:a=1[outv][outa]", len(plan.Clips))

	args := []string{"-y"}
	for _, in := range inputs {
		args = append(args, "-i", in)
	}
	args = append(args,
		"-filter_complex", graph.String(),
		"-map", "[outv]",
		"-map", "[outa]",
		outputPath)
	return args, nil
}

// runFFmpeg executes ffmpeg with a timeout and bounded stderr capture,
// returning the captured stderr tail.
func (t *CLIToolchain) runFFmpeg(ctx context.Context, outputPath string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout())
	defer cancel()

	start := time.Now()

	if outputPath != "" {
		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			return "", fmt.Errorf("cannot create output dir: %w", err)
		}
	}

	cmd := exec.CommandContext(ctx, t.ffmpeg, args...)

	var stderrBuf bytes.Buffer
	cmd.Stderr = io.Writer(&limitedWriter{w: &stderrBuf, limit: maxStderrBytes})
	cmd.Stdout = io.Discard

	err := cmd.Run()
	elapsed := time.Since(start)
	stderrTail := stderrBuf.String()

	if err != nil {
		t.cfg.Logger.Warn("ffmpeg command failed",
			"error", err,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", truncate(stderrTail, 512),
		)
		return stderrTail, err
	}

	t.cfg.Logger.Debug("ffmpeg command succeeded",
		"duration_ms", elapsed.Milliseconds(),
		"output", t.safePath(outputPath),
	)
	return stderrTail, nil
}

func (t *CLIToolchain) timeout() time.Duration {
	if t.cfg.Timeout > 0 {
		return t.cfg.Timeout
	}
	return 10 * time.Minute
}

func (t *CLIToolchain) safePath(path string) string {
	if t.cfg.DebugPaths || path == "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Base(path)
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return filepath.Base(path)
}

// resolveBinary finds a usable binary, preferring the configured path.
func resolveBinary(preferred, name string) (string, error) {
	if preferred != "" {
		if p, err := exec.LookPath(preferred); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("configured %s %q not found", name, preferred)
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found on PATH", name)
	}
	return p, nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// limitedWriter is an io.Writer that keeps only the last `limit` bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		b := lw.w.Bytes()
		lw.w.Reset()
		lw.w.Write(b[len(b)-lw.limit:])
	}
	return n, nil
}

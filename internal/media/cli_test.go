package media

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

const sampleProbeJSON = `{
  "streams": [
    {"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001"},
    {"codec_type": "audio", "codec_name": "aac", "sample_rate": "48000"}
  ],
  "format": {"duration": "12.480000"}
}`

func TestParseProbe(t *testing.T) {
	var raw probeOutput
	if err := json.Unmarshal([]byte(sampleProbeJSON), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	result, err := parseProbe(raw)
	if err != nil {
		t.Fatalf("parseProbe: %v", err)
	}
	if result.Duration != 12.48 {
		t.Errorf("duration = %v, want 12.48", result.Duration)
	}
	if result.Codec != "h264" || result.Width != 1920 || result.Height != 1080 {
		t.Errorf("video stream = %+v", result)
	}
	if got := result.FrameRate; got < 29.96 || got > 29.98 {
		t.Errorf("frame rate = %v, want ~29.97", got)
	}
	if !result.HasAudio || result.AudioCodec != "aac" || result.AudioSample != 48000 {
		t.Errorf("audio stream = %+v", result)
	}
}

func TestParseProbe_BadDuration(t *testing.T) {
	var raw probeOutput
	raw.Format.Duration = "N/A"
	if _, err := parseProbe(raw); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}

func TestParseProbe_AudioOnly(t *testing.T) {
	var raw probeOutput
	if err := json.Unmarshal([]byte(`{
		"streams": [{"codec_type": "audio", "codec_name": "pcm_s16le", "sample_rate": "16000"}],
		"format": {"duration": "4.5"}
	}`), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	result, err := parseProbe(raw)
	if err != nil {
		t.Fatalf("parseProbe: %v", err)
	}
	if result.Codec != "" || !result.HasAudio || result.AudioSample != 16000 {
		t.Errorf("result = %+v", result)
	}
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"25", 25},
		{"0/0", 0},
		{"garbage", 0},
	}
	for _, tt := range tests {
		if got := parseFrameRate(tt.in); got != tt.want {
			t.Errorf("parseFrameRate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseSilence(t *testing.T) {
	stderr := `
[silencedetect @ 0x7f8] silence_start: 1.52
[silencedetect @ 0x7f8] silence_end: 2.731 | silence_duration: 1.211
frame= 1234 fps=330
[silencedetect @ 0x7f8] silence_start: 8.1
[silencedetect @ 0x7f8] silence_end: 9.05 | silence_duration: 0.95
`
	intervals := parseSilence(stderr, 12)
	if len(intervals) != 2 {
		t.Fatalf("got %d intervals, want 2: %+v", len(intervals), intervals)
	}
	if intervals[0].Start != 1.52 || intervals[0].End != 2.731 {
		t.Errorf("first interval = %+v", intervals[0])
	}
	if intervals[1].Start != 8.1 || intervals[1].End != 9.05 {
		t.Errorf("second interval = %+v", intervals[1])
	}
}

func TestParseSilence_TrailingStart(t *testing.T) {
	stderr := "[silencedetect @ 0x7f8] silence_start: 10.5\n"
	intervals := parseSilence(stderr, 12)
	if len(intervals) != 1 {
		t.Fatalf("got %d intervals, want 1", len(intervals))
	}
	if intervals[0].Start != 10.5 || intervals[0].End != 12 {
		t.Errorf("trailing interval = %+v, want [10.5, 12)", intervals[0])
	}
}

func TestParseSilence_NegativeStartClamped(t *testing.T) {
	stderr := "silence_start: -0.01\nsilence_end: 0.8\n"
	intervals := parseSilence(stderr, 5)
	if len(intervals) != 1 || intervals[0].Start != 0 {
		t.Fatalf("got %+v, want start clamped to 0", intervals)
	}
}

func TestParseSilence_Empty(t *testing.T) {
	if got := parseSilence("frame= 100 fps=30\n", 10); got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
}

func TestRenderArgs(t *testing.T) {
	plan := RenderPlan{Clips: []RenderClip{
		{SourcePath: "/media/a.mp4", InPoint: 0, OutPoint: 2},
		{SourcePath: "/media/b.mp4", InPoint: 1, OutPoint: 3},
		{SourcePath: "/media/a.mp4", InPoint: 5, OutPoint: 6},
	}}

	args, err := renderArgs(plan, "/out/final.mp4")
	if err != nil {
		t.Fatalf("renderArgs: %v", err)
	}

	joined := strings.Join(args, " ")
	// Two distinct inputs, in first-use order.
	if !strings.Contains(joined, "-i /media/a.mp4 -i /media/b.mp4") {
		t.Errorf("inputs wrong: %s", joined)
	}
	if !strings.Contains(joined, "concat=n=3:v=1:a=1[outv][outa]") {
		t.Errorf("concat node wrong: %s", joined)
	}
	// Third clip reuses input 0.
	if !strings.Contains(joined, "[0:v]trim=start=5.000:end=6.000") {
		t.Errorf("input reuse wrong: %s", joined)
	}
	if args[len(args)-1] != "/out/final.mp4" {
		t.Errorf("output path not last: %v", args)
	}
}

func TestRenderArgs_EmptySpan(t *testing.T) {
	plan := RenderPlan{Clips: []RenderClip{
		{SourcePath: "/media/a.mp4", InPoint: 2, OutPoint: 2},
	}}
	if _, err := renderArgs(plan, "/out/final.mp4"); err == nil {
		t.Fatal("expected error for empty clip span")
	}
}

func TestLimitedWriterKeepsTail(t *testing.T) {
	var buf bytes.Buffer
	lw := &limitedWriter{w: &buf, limit: 8}
	lw.Write([]byte("0123456789abcdef"))
	if got := buf.String(); got != "89abcdef" {
		t.Errorf("tail = %q, want %q", got, "89abcdef")
	}
}

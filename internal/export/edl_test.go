package export

import (
	"strings"
	"testing"
)

func TestGenerateEDL_SingleClip(t *testing.T) {
	clips := []ResolvedClip{{
		Name:      "Intro",
		MediaPath: "/media/intro.mp4",
		SourceIn:  0,
		SourceOut: 2,
	}}

	edl := GenerateEDL(clips, "Project One", 30.0)

	if !strings.Contains(edl, "TITLE: Project One") {
		t.Fatalf("missing title in EDL: %q", edl)
	}
	if !strings.Contains(edl, "FCM: NON-DROP FRAME") {
		t.Fatalf("missing non-drop-frame FCM: %q", edl)
	}
	if !strings.Contains(edl, "001  AX       V     C        00:00:00:00 00:00:02:00 00:00:00:00 00:00:02:00") {
		t.Fatalf("missing event line: %q", edl)
	}
	if !strings.Contains(edl, "* FROM CLIP NAME:  Intro") {
		t.Fatalf("missing clip name comment: %q", edl)
	}
	if !strings.Contains(edl, "* MEDIA PATH:  /media/intro.mp4") {
		t.Fatalf("missing media path comment: %q", edl)
	}
}

func TestGenerateEDL_RecordTimesRunBackToBack(t *testing.T) {
	clips := []ResolvedClip{
		{Name: "A", MediaPath: "/m/a.mp4", SourceIn: 10, SourceOut: 12},
		{Name: "B", MediaPath: "/m/b.mp4", SourceIn: 0, SourceOut: 3},
	}

	edl := GenerateEDL(clips, "Seq", 30.0)

	// Second event's record in starts where the first ended.
	if !strings.Contains(edl, "002  AX       V     C        00:00:00:00 00:00:03:00 00:00:02:00 00:00:05:00") {
		t.Fatalf("second event record times wrong: %q", edl)
	}
}

func TestGenerateEDL_DropFrame(t *testing.T) {
	edl := GenerateEDL(nil, "DF", 29.97)
	if !strings.Contains(edl, "FCM: DROP FRAME") {
		t.Fatalf("missing drop-frame FCM: %q", edl)
	}
}

func TestGenerateEDL_BadFrameRateFallsBack(t *testing.T) {
	clips := []ResolvedClip{{Name: "A", MediaPath: "/m/a.mp4", SourceIn: 0, SourceOut: 1}}
	edl := GenerateEDL(clips, "X", 0)
	// 30 fps fallback: one second is exactly 00:00:01:00.
	if !strings.Contains(edl, "00:00:01:00") {
		t.Fatalf("fallback frame rate not applied: %q", edl)
	}
}

func TestSecondsToTimecode(t *testing.T) {
	tests := []struct {
		seconds float64
		fps     int
		want    string
	}{
		{0, 30, "00:00:00:00"},
		{1.5, 30, "00:00:01:15"},
		{61, 25, "00:01:01:00"},
		{3600, 30, "01:00:00:00"},
	}
	for _, tt := range tests {
		if got := secondsToTimecode(tt.seconds, tt.fps); got != tt.want {
			t.Errorf("secondsToTimecode(%v, %d) = %s, want %s", tt.seconds, tt.fps, got, tt.want)
		}
	}
}

package timeline

import "math"

// Pixel layout constants shared between the model's snapping math and the
// rendering process. Vertical space: a ruler strip, then tracks separated by
// a fixed gap. Horizontal space: a left padding before timeline zero.
const (
	TrackHeight  = 60.0
	TrackGap     = 8.0
	RulerHeight  = 32.0
	LeftPadding  = 10.0
	SnapDistance = 10.0 // max pixel distance at which an edge attracts
)

// TimeToPixels converts seconds to horizontal pixels at the given zoom
// (pixels per second).
func TimeToPixels(t, zoom float64) float64 {
	return t * zoom
}

// PixelsToTime converts horizontal pixels to seconds at the given zoom.
func PixelsToTime(px, zoom float64) float64 {
	return px / zoom
}

// ClipX returns the x coordinate of a clip edge at time t.
func ClipX(t, zoom float64) float64 {
	return LeftPadding + t*zoom
}

// TimeForX inverts ClipX, floored at timeline zero.
func TimeForX(x, zoom float64) float64 {
	t := (x - LeftPadding) / zoom
	if t < 0 {
		return 0
	}
	return t
}

// TrackY returns the top pixel coordinate of the track at index.
func TrackY(index int) float64 {
	return RulerHeight + float64(index)*(TrackHeight+TrackGap)
}

// TrackIndexForY maps a vertical pixel coordinate to the nearest track
// index, clamped into [0, numTracks-1].
func TrackIndexForY(y float64, numTracks int) int {
	idx := int(math.Round((y - RulerHeight) / (TrackHeight + TrackGap)))
	if idx < 0 {
		return 0
	}
	if idx > numTracks-1 {
		return numTracks - 1
	}
	return idx
}

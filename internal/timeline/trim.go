package timeline

// The trim engine converts a horizontal pixel drag on a clip edge into a
// consistent adjustment of the clip's source window and timeline placement.
// Both functions are pure and return an intended update for the Controller.

// TrimLeft drags the clip's left edge by deltaX pixels at the given zoom.
// The in point moves by deltaX/zoom seconds, clamped into
// [0, outPoint-EdgeEpsilon]; the start time shifts by exactly the same
// amount, keeping the content-to-timeline mapping fixed, and the duration is
// rederived from the trim window.
func TrimLeft(clip *Clip, deltaX, zoom float64) (ClipUpdate, bool) {
	deltaTime := PixelsToTime(deltaX, zoom)

	newIn := clampFloat(clip.InPoint+deltaTime, 0, clip.OutPoint-EdgeEpsilon)
	newDuration := clip.OutPoint - newIn
	if newDuration <= 0 {
		return ClipUpdate{}, false
	}
	newStart := clip.StartTime + (newIn - clip.InPoint)

	return ClipUpdate{
		ClipID: clip.ID,
		Fields: ClipFields{
			StartTime: Float(newStart),
			Duration:  Float(newDuration),
			InPoint:   Float(newIn),
		},
	}, true
}

// TrimRight drags the clip's right edge by deltaX pixels at the given zoom.
// The out point moves by deltaX/zoom seconds, clamped into
// [inPoint+EdgeEpsilon, sourceDuration]; the start time never changes.
func TrimRight(clip *Clip, deltaX, zoom, sourceDuration float64) (ClipUpdate, bool) {
	deltaTime := PixelsToTime(deltaX, zoom)

	newOut := clampFloat(clip.OutPoint+deltaTime, clip.InPoint+EdgeEpsilon, sourceDuration)
	newDuration := newOut - clip.InPoint
	if newDuration <= 0 {
		return ClipUpdate{}, false
	}

	return ClipUpdate{
		ClipID: clip.ID,
		Fields: ClipFields{
			Duration: Float(newDuration),
			OutPoint: Float(newOut),
		},
	}, true
}

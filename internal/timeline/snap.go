package timeline

import (
	"math"
	"sort"
)

// The snapping engine aligns dragged positions with track lines and with the
// edges of neighboring clips. All functions are pure: they take a clip
// snapshot and return either a corrected coordinate or an intended
// ClipUpdate for the Controller to apply.
//
// Candidate edges are gathered from the clip's own track and the two
// adjacent tracks. Ties between equally distant candidates resolve
// deterministically: lower candidate time first, then lower track index.

// SnapToTrack converts a vertical pixel coordinate to the pixel-aligned top
// of the nearest track, with the track index clamped into [0, numTracks-1].
func SnapToTrack(y float64, numTracks int) float64 {
	return TrackY(TrackIndexForY(y, numTracks))
}

// SnapToClipEdges corrects the horizontal position of a dragged clip. The x
// coordinate is the dragged clip's left edge in pixels and clipWidthPx its
// rendered width. Both of the dragged clip's edges are tested against both
// edges of every candidate on the target track and its neighbors; the
// closest alignment within SnapDistance wins. The result never goes left of
// the timeline's padding.
func SnapToClipEdges(x, y float64, excludeClipID string, clipWidthPx float64, clips []*Clip, zoom float64, numTracks int) float64 {
	track := TrackIndexForY(y, numTracks)

	best := math.MaxFloat64
	bestX := x
	bestTrack := 0
	for _, cand := range neighborClips(clips, track, excludeClipID) {
		startPx := ClipX(cand.StartTime, zoom)
		endPx := ClipX(cand.EndTime(), zoom)

		// Dragged left edge against candidate right edge.
		consider(&best, &bestX, &bestTrack, math.Abs(x-endPx), endPx, cand.Track)
		// Dragged right edge against candidate left edge.
		consider(&best, &bestX, &bestTrack, math.Abs(x+clipWidthPx-startPx), startPx-clipWidthPx, cand.Track)
	}

	if best > SnapDistance {
		bestX = x
	}
	if bestX < LeftPadding {
		bestX = LeftPadding
	}
	return bestX
}

func consider(best, bestX *float64, bestTrack *int, dist, snappedX float64, track int) {
	const tie = 1e-9
	switch {
	case dist < *best-tie:
	case dist < *best+tie && (snappedX < *bestX || (snappedX == *bestX && track < *bestTrack)):
	default:
		return
	}
	*best = dist
	*bestX = snappedX
	*bestTrack = track
}

// SnapClipLeft moves a clip's start to the closest snap candidate strictly
// to its left: timeline zero, or any other clip's start or end on the same
// or an adjacent track. A clip already sitting on a candidate (within
// BoundaryEpsilon) does not move, which makes repeated snaps idempotent.
func SnapClipLeft(clipID string, clips []*Clip) (ClipUpdate, bool) {
	clip := findClip(clips, clipID)
	if clip == nil {
		return ClipUpdate{}, false
	}
	if clip.StartTime <= BoundaryEpsilon {
		return ClipUpdate{}, false
	}

	candidates := edgeCandidates(clips, clip)
	candidates = append(candidates, 0)

	best := math.Inf(-1)
	found := false
	for _, cand := range candidates {
		if math.Abs(cand-clip.StartTime) <= BoundaryEpsilon {
			// Already snapped here.
			return ClipUpdate{}, false
		}
		if cand < clip.StartTime && cand > best {
			best = cand
			found = true
		}
	}
	if !found {
		return ClipUpdate{}, false
	}
	return ClipUpdate{ClipID: clipID, Fields: ClipFields{StartTime: Float(best)}}, true
}

// SnapClipRight moves a clip so its right edge lands on the closest snap
// candidate strictly to its right: the timeline's total duration, or any
// other clip's start or end on the same or an adjacent track. Duration is
// preserved; when the move would push the start negative, the start clamps
// to 0 and the right edge falls short of the candidate.
func SnapClipRight(clipID string, clips []*Clip, timelineDuration float64) (ClipUpdate, bool) {
	clip := findClip(clips, clipID)
	if clip == nil {
		return ClipUpdate{}, false
	}
	right := clip.EndTime()
	if math.Abs(right-timelineDuration) <= BoundaryEpsilon {
		return ClipUpdate{}, false
	}

	candidates := edgeCandidates(clips, clip)
	candidates = append(candidates, timelineDuration)

	best := math.Inf(1)
	found := false
	for _, cand := range candidates {
		if math.Abs(cand-right) <= BoundaryEpsilon {
			return ClipUpdate{}, false
		}
		if cand > right && cand < best {
			best = cand
			found = true
		}
	}
	if !found {
		return ClipUpdate{}, false
	}

	newStart := best - clip.Duration
	if newStart < 0 {
		newStart = 0
	}
	return ClipUpdate{ClipID: clipID, Fields: ClipFields{StartTime: Float(newStart)}}, true
}

// edgeCandidates returns the start and end times of every clip other than
// the subject on the subject's track or the two adjacent tracks, in a
// deterministic order.
func edgeCandidates(clips []*Clip, subject *Clip) []float64 {
	var out []float64
	for _, cand := range neighborClips(clips, subject.Track, subject.ID) {
		out = append(out, cand.StartTime, cand.EndTime())
	}
	sort.Float64s(out)
	return out
}

// neighborClips filters clips to the given track and its two neighbors,
// excluding the id of the dragged/subject clip. Input order (track, start,
// id) is preserved.
func neighborClips(clips []*Clip, track int, excludeID string) []*Clip {
	var out []*Clip
	for _, c := range clips {
		if c.ID == excludeID {
			continue
		}
		if c.Track < track-1 || c.Track > track+1 {
			continue
		}
		out = append(out, c)
	}
	return out
}

func findClip(clips []*Clip, id string) *Clip {
	for _, c := range clips {
		if c.ID == id {
			return c
		}
	}
	return nil
}

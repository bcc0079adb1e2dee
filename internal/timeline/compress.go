package timeline

import (
	"math"
	"sort"
)

// CompressTrack removes the temporal gaps between clips on one track. Clips
// are filtered to trackIndex (and to subset when non-empty), sorted by start
// time, and every clip after the first is moved to exactly abut the end of
// the previous one in that filtered sequence. Only start times change;
// durations, trim windows and track assignments are untouched.
//
// When a subset is given, clips outside it are ignored entirely: gaps close
// only among the selected clips, which may leave them overlapping unselected
// clips. The model permits same-track overlap, so that is accepted.
//
// Fewer than two clips after filtering is a no-op. The returned updates are
// intended deltas for the Controller; already-abutting clips produce none.
func CompressTrack(trackIndex int, clips []*Clip, subset map[string]bool) []ClipUpdate {
	var onTrack []*Clip
	for _, c := range clips {
		if c.Track != trackIndex {
			continue
		}
		if len(subset) > 0 && !subset[c.ID] {
			continue
		}
		onTrack = append(onTrack, c)
	}
	if len(onTrack) < 2 {
		return nil
	}

	sort.Slice(onTrack, func(i, j int) bool {
		if onTrack[i].StartTime != onTrack[j].StartTime {
			return onTrack[i].StartTime < onTrack[j].StartTime
		}
		return onTrack[i].ID < onTrack[j].ID
	})

	var updates []ClipUpdate
	cursor := onTrack[0].EndTime()
	for _, c := range onTrack[1:] {
		if math.Abs(c.StartTime-cursor) > BoundaryEpsilon {
			updates = append(updates, ClipUpdate{
				ClipID: c.ID,
				Fields: ClipFields{StartTime: Float(cursor)},
			})
		}
		cursor += c.Duration
	}
	return updates
}

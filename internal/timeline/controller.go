package timeline

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Controller owns the authoritative timeline state. All mutation goes
// through its methods; engines compute intended updates and the Controller
// applies them. Operations are synchronous and never block internally. The
// mutex exists only to funnel the bridge's concurrent requests into the
// single-logical-writer model, not to support concurrent editing.
type Controller struct {
	mu       sync.Mutex
	clips    map[string]*Clip
	tracks   []Track
	playhead float64
	playing  bool
	zoom     float64
	scroll   float64
	duration float64
	selected []string

	sources  SourceResolver
	logger   *slog.Logger
	revision uint64
	onChange func(revision uint64)
}

// NewController returns a Controller with an empty timeline and the default
// two tracks.
func NewController(sources SourceResolver, logger *slog.Logger) *Controller {
	return &Controller{
		clips:   make(map[string]*Clip),
		tracks:  DefaultTracks(),
		zoom:    DefaultZoom,
		sources: sources,
		logger:  logger,
	}
}

// FromSnapshot reconstructs a Controller from persisted state. A snapshot
// lacking tracks (legacy project files) gets the default two tracks. The
// derived duration is always recomputed, stale selection ids are pruned, and
// playhead/zoom/scroll are re-clamped.
func FromSnapshot(snap Snapshot, sources SourceResolver, logger *slog.Logger) *Controller {
	c := NewController(sources, logger)

	if len(snap.Tracks) > 0 {
		c.tracks = make([]Track, len(snap.Tracks))
		copy(c.tracks, snap.Tracks)
		sort.Slice(c.tracks, func(i, j int) bool { return c.tracks[i].Index < c.tracks[j].Index })
		for i := range c.tracks {
			c.tracks[i].Index = i
		}
	}

	for i := range snap.Clips {
		clip := snap.Clips[i]
		if clip.Track < 0 || clip.Track >= len(c.tracks) {
			clip.Track = 0
		}
		c.clips[clip.ID] = &clip
	}

	c.recomputeDuration()
	c.zoom = clampFloat(snap.Zoom, MinZoom, MaxZoom)
	if snap.Zoom == 0 {
		c.zoom = DefaultZoom
	}
	c.scroll = maxFloat(snap.ScrollPosition, 0)
	c.playhead = clampFloat(snap.Playhead, 0, c.duration)
	c.selected = c.filterSelection(snap.SelectedClips)
	return c
}

// OnChange registers a callback invoked (outside the lock) with the new
// revision after every state change. At most one subscriber; the bridge
// fans out from there.
func (c *Controller) OnChange(fn func(revision uint64)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	clips := make([]Clip, 0, len(c.clips))
	for _, clip := range c.clips {
		clips = append(clips, *clip)
	}
	sort.Slice(clips, func(i, j int) bool {
		if clips[i].Track != clips[j].Track {
			return clips[i].Track < clips[j].Track
		}
		if clips[i].StartTime != clips[j].StartTime {
			return clips[i].StartTime < clips[j].StartTime
		}
		return clips[i].ID < clips[j].ID
	})

	tracks := make([]Track, len(c.tracks))
	copy(tracks, c.tracks)

	selected := make([]string, len(c.selected))
	copy(selected, c.selected)

	return Snapshot{
		Clips:          clips,
		Tracks:         tracks,
		Playhead:       c.playhead,
		IsPlaying:      c.playing,
		Zoom:           c.zoom,
		ScrollPosition: c.scroll,
		Duration:       c.duration,
		SelectedClips:  selected,
		Revision:       c.revision,
	}
}

// Clips returns copies of all clips in deterministic order (track, start,
// id). Engines operate on this snapshot.
func (c *Controller) Clips() []*Clip {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clipsLocked()
}

func (c *Controller) clipsLocked() []*Clip {
	clips := make([]*Clip, 0, len(c.clips))
	for _, clip := range c.clips {
		cp := *clip
		clips = append(clips, &cp)
	}
	sort.Slice(clips, func(i, j int) bool {
		if clips[i].Track != clips[j].Track {
			return clips[i].Track < clips[j].Track
		}
		if clips[i].StartTime != clips[j].StartTime {
			return clips[i].StartTime < clips[j].StartTime
		}
		return clips[i].ID < clips[j].ID
	})
	return clips
}

// Clip returns a copy of one clip, or nil.
func (c *Controller) Clip(id string) *Clip {
	c.mu.Lock()
	defer c.mu.Unlock()
	clip, ok := c.clips[id]
	if !ok {
		return nil
	}
	cp := *clip
	return &cp
}

// Duration returns the derived timeline duration.
func (c *Controller) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// Playhead returns the current playhead position.
func (c *Controller) Playhead() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playhead
}

// NumTracks returns the current track count.
func (c *Controller) NumTracks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tracks)
}

// Selection returns a copy of the selected clip ids in insertion order.
func (c *Controller) Selection() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.selected))
	copy(out, c.selected)
	return out
}

// AddClip places a new clip for the given source. When startTime is nil the
// clip is appended at the current timeline end. The clip lands on track 0
// spanning the source's full duration.
func (c *Controller) AddClip(src Source, startTime *float64) *Clip {
	c.mu.Lock()
	start := c.duration
	if startTime != nil {
		start = maxFloat(*startTime, 0)
	}
	clip := &Clip{
		ID:        NewClipID(),
		SourceID:  src.ID,
		Name:      src.Name,
		StartTime: start,
		Duration:  src.Duration,
		InPoint:   0,
		OutPoint:  src.Duration,
		Track:     0,
		Layer:     0,
	}
	c.clips[clip.ID] = clip
	c.recomputeDuration()
	cp := *clip
	c.notifyLocked()
	return &cp
}

// RemoveClip deletes a clip, prunes it from the selection and recomputes
// the derived duration. Unknown ids are a no-op.
func (c *Controller) RemoveClip(id string) bool {
	c.mu.Lock()
	if _, ok := c.clips[id]; !ok {
		c.mu.Unlock()
		return false
	}
	delete(c.clips, id)
	c.selected = removeString(c.selected, id)
	c.recomputeDuration()
	c.clampPlayheadLocked()
	c.notifyLocked()
	return true
}

// RemoveClipsBySource deletes every clip referencing the given source asset.
// Used when an asset is removed from the library.
func (c *Controller) RemoveClipsBySource(sourceID string) int {
	c.mu.Lock()
	removed := 0
	for id, clip := range c.clips {
		if clip.SourceID == sourceID {
			delete(c.clips, id)
			c.selected = removeString(c.selected, id)
			removed++
		}
	}
	if removed == 0 {
		c.mu.Unlock()
		return 0
	}
	c.recomputeDuration()
	c.clampPlayheadLocked()
	c.notifyLocked()
	return removed
}

// UpdateClip merges the non-nil fields into the clip. Callers are expected
// to pass internally consistent updates; the model revalidates only the
// derived duration. Unknown ids are a no-op.
func (c *Controller) UpdateClip(id string, fields ClipFields) bool {
	c.mu.Lock()
	if !c.applyFieldsLocked(id, fields) {
		c.mu.Unlock()
		return false
	}
	c.recomputeDuration()
	c.notifyLocked()
	return true
}

// ApplyUpdates applies a batch of engine-produced updates, recomputing the
// derived duration once at the end. Updates for unknown ids are skipped.
func (c *Controller) ApplyUpdates(updates []ClipUpdate) int {
	if len(updates) == 0 {
		return 0
	}
	c.mu.Lock()
	applied := 0
	for _, u := range updates {
		if c.applyFieldsLocked(u.ClipID, u.Fields) {
			applied++
		}
	}
	if applied == 0 {
		c.mu.Unlock()
		return 0
	}
	c.recomputeDuration()
	c.notifyLocked()
	return applied
}

func (c *Controller) applyFieldsLocked(id string, fields ClipFields) bool {
	clip, ok := c.clips[id]
	if !ok {
		return false
	}
	if fields.StartTime != nil {
		clip.StartTime = *fields.StartTime
	}
	if fields.Duration != nil {
		clip.Duration = *fields.Duration
	}
	if fields.InPoint != nil {
		clip.InPoint = *fields.InPoint
	}
	if fields.OutPoint != nil {
		clip.OutPoint = *fields.OutPoint
	}
	if fields.Track != nil {
		clip.Track = *fields.Track
	}
	if fields.Layer != nil {
		clip.Layer = *fields.Layer
	}
	return true
}

// SetPlayhead clamps the playhead into [0, duration].
func (c *Controller) SetPlayhead(seconds float64) {
	c.mu.Lock()
	c.playhead = clampFloat(seconds, 0, c.duration)
	c.notifyLocked()
}

// SetPlaying toggles the transport state.
func (c *Controller) SetPlaying(playing bool) {
	c.mu.Lock()
	c.playing = playing
	c.notifyLocked()
}

// SetZoom clamps the zoom into [MinZoom, MaxZoom].
func (c *Controller) SetZoom(pixelsPerSecond float64) {
	c.mu.Lock()
	c.zoom = clampFloat(pixelsPerSecond, MinZoom, MaxZoom)
	c.notifyLocked()
}

// SetScrollPosition clamps the scroll offset to >= 0.
func (c *Controller) SetScrollPosition(seconds float64) {
	c.mu.Lock()
	c.scroll = maxFloat(seconds, 0)
	c.notifyLocked()
}

// SetSelectedClips replaces the selection. Ids that do not reference an
// existing clip are filtered out at write time, and duplicates collapse to
// their first occurrence.
func (c *Controller) SetSelectedClips(ids []string) {
	c.mu.Lock()
	c.selected = c.filterSelection(ids)
	c.notifyLocked()
}

func (c *Controller) filterSelection(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		if _, ok := c.clips[id]; !ok {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ClipAtPlayhead returns the topmost clip under the playhead: among all
// clips whose [start, start+duration) interval contains the playhead, the
// one with the lowest track index (ties broken by earliest start, then id).
// Returns nil if none.
func (c *Controller) ClipAtPlayhead() *Clip {
	c.mu.Lock()
	defer c.mu.Unlock()
	clip := c.clipAtLocked(c.playhead)
	if clip == nil {
		return nil
	}
	cp := *clip
	return &cp
}

func (c *Controller) clipAtLocked(t float64) *Clip {
	var best *Clip
	for _, clip := range c.clips {
		if !clip.Contains(t) {
			continue
		}
		if best == nil || clipAbove(clip, best) {
			best = clip
		}
	}
	return best
}

func clipAbove(a, b *Clip) bool {
	if a.Track != b.Track {
		return a.Track < b.Track
	}
	if a.StartTime != b.StartTime {
		return a.StartTime < b.StartTime
	}
	return a.ID < b.ID
}

// SplitAtPlayhead splits the topmost clip under the playhead into two,
// partitioning both its timeline span and its source window. It fails
// without mutating anything when no clip is under the playhead or when the
// playhead sits within EdgeEpsilon of either clip edge.
func (c *Controller) SplitAtPlayhead() bool {
	c.mu.Lock()
	clip := c.clipAtLocked(c.playhead)
	if clip == nil {
		c.mu.Unlock()
		c.debug("split rejected: no clip at playhead")
		return false
	}
	if _, _, ok := c.splitClipLocked(clip); !ok {
		c.mu.Unlock()
		c.debug("split rejected: playhead at clip edge", "clip_id", clip.ID)
		return false
	}
	c.recomputeDuration()
	c.notifyLocked()
	return true
}

// SplitAllAtPlayhead splits every clip intersecting the playhead across all
// tracks. The newly created left halves become the new selection. Clips
// whose edges are within EdgeEpsilon of the playhead are skipped. Returns
// the ids of the new left halves.
func (c *Controller) SplitAllAtPlayhead() []string {
	c.mu.Lock()
	var targets []*Clip
	for _, clip := range c.clips {
		if clip.Contains(c.playhead) {
			targets = append(targets, clip)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return clipAbove(targets[i], targets[j]) })

	var lefts []string
	for _, clip := range targets {
		left, _, ok := c.splitClipLocked(clip)
		if ok {
			lefts = append(lefts, left.ID)
		}
	}
	if len(lefts) == 0 {
		c.mu.Unlock()
		return nil
	}
	c.selected = c.filterSelection(lefts)
	c.recomputeDuration()
	c.notifyLocked()
	return lefts
}

// splitClipLocked replaces clip with a left and right half at the playhead.
// Both halves receive fresh ids; the original id is pruned from the
// selection along with the clip.
func (c *Controller) splitClipLocked(clip *Clip) (left, right *Clip, ok bool) {
	offset := c.playhead - clip.StartTime
	if offset < EdgeEpsilon || clip.Duration-offset < EdgeEpsilon {
		return nil, nil, false
	}
	sourceSplit := clip.InPoint + offset

	left = &Clip{
		ID:        NewClipID(),
		SourceID:  clip.SourceID,
		Name:      clip.Name,
		StartTime: clip.StartTime,
		Duration:  offset,
		InPoint:   clip.InPoint,
		OutPoint:  sourceSplit,
		Track:     clip.Track,
		Layer:     clip.Layer,
	}
	right = &Clip{
		ID:        NewClipID(),
		SourceID:  clip.SourceID,
		Name:      clip.Name,
		StartTime: clip.StartTime + offset,
		Duration:  clip.Duration - offset,
		InPoint:   sourceSplit,
		OutPoint:  clip.OutPoint,
		Track:     clip.Track,
		Layer:     clip.Layer,
	}

	delete(c.clips, clip.ID)
	c.selected = removeString(c.selected, clip.ID)
	c.clips[left.ID] = left
	c.clips[right.ID] = right
	return left, right, true
}

// AddTrack appends a new track with the next dense index.
func (c *Controller) AddTrack() Track {
	c.mu.Lock()
	track := Track{
		ID:    NewTrackID(),
		Name:  trackName(len(c.tracks)),
		Index: len(c.tracks),
	}
	c.tracks = append(c.tracks, track)
	c.notifyLocked()
	return track
}

// RemoveTrack removes the track at index. Removing the last remaining track
// is rejected. Clips on the removed track are reassigned to track 0, never
// deleted; remaining tracks are reindexed densely and renamed from their new
// index.
func (c *Controller) RemoveTrack(index int) bool {
	c.mu.Lock()
	if len(c.tracks) <= 1 {
		c.mu.Unlock()
		c.warn("track removal rejected: last remaining track")
		return false
	}
	if index < 0 || index >= len(c.tracks) {
		c.mu.Unlock()
		c.warn("track removal rejected: index out of range", "index", index)
		return false
	}

	for _, clip := range c.clips {
		switch {
		case clip.Track == index:
			clip.Track = 0
		case clip.Track > index:
			clip.Track--
		}
	}

	remaining := make([]Track, 0, len(c.tracks)-1)
	for i, t := range c.tracks {
		if i == index {
			continue
		}
		t.Index = len(remaining)
		t.Name = trackName(t.Index)
		remaining = append(remaining, t)
	}
	c.tracks = remaining
	c.notifyLocked()
	return true
}

// MoveClipToTrack reassigns a clip to another track. An out-of-range index
// is rejected with a warning and no mutation.
func (c *Controller) MoveClipToTrack(id string, newIndex int) bool {
	c.mu.Lock()
	clip, ok := c.clips[id]
	if !ok {
		c.mu.Unlock()
		return false
	}
	if newIndex < 0 || newIndex >= len(c.tracks) {
		c.mu.Unlock()
		c.warn("clip track move rejected: index out of range", "clip_id", id, "index", newIndex)
		return false
	}
	clip.Track = newIndex
	c.notifyLocked()
	return true
}

// Restore replaces the live state with a persisted snapshot, applying the
// same reconciliation as FromSnapshot: missing tracks get the defaults,
// out-of-range clip tracks fall back to track 0, duration is recomputed and
// playhead, zoom, scroll and selection are re-clamped.
func (c *Controller) Restore(snap Snapshot) {
	c.mu.Lock()

	c.tracks = DefaultTracks()
	if len(snap.Tracks) > 0 {
		c.tracks = make([]Track, len(snap.Tracks))
		copy(c.tracks, snap.Tracks)
		sort.Slice(c.tracks, func(i, j int) bool { return c.tracks[i].Index < c.tracks[j].Index })
		for i := range c.tracks {
			c.tracks[i].Index = i
		}
	}

	c.clips = make(map[string]*Clip, len(snap.Clips))
	for i := range snap.Clips {
		clip := snap.Clips[i]
		if clip.Track < 0 || clip.Track >= len(c.tracks) {
			clip.Track = 0
		}
		c.clips[clip.ID] = &clip
	}

	c.recomputeDuration()
	c.zoom = clampFloat(snap.Zoom, MinZoom, MaxZoom)
	if snap.Zoom == 0 {
		c.zoom = DefaultZoom
	}
	c.scroll = maxFloat(snap.ScrollPosition, 0)
	c.playhead = clampFloat(snap.Playhead, 0, c.duration)
	c.playing = false
	c.selected = c.filterSelection(snap.SelectedClips)
	c.notifyLocked()
}

// Clear resets the timeline to empty clips, the default two tracks and a
// zeroed playhead, duration, scroll and selection. Zoom is kept.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.clips = make(map[string]*Clip)
	c.tracks = DefaultTracks()
	c.playhead = 0
	c.playing = false
	c.scroll = 0
	c.duration = 0
	c.selected = nil
	c.notifyLocked()
}

// TrimClipLeft drags a clip's left edge by deltaX pixels at the current
// zoom, adjusting in point, start time and duration together so the
// content-to-timeline mapping stays consistent. An unresolvable source
// asset abandons the trim silently.
func (c *Controller) TrimClipLeft(id string, deltaX float64) bool {
	c.mu.Lock()
	clip, ok := c.clips[id]
	if !ok {
		c.mu.Unlock()
		return false
	}
	snapshot := *clip
	zoom := c.zoom
	c.mu.Unlock()

	if _, ok := c.resolveSource(snapshot.SourceID); !ok {
		return false
	}
	update, ok := TrimLeft(&snapshot, deltaX, zoom)
	if !ok {
		return false
	}
	return c.ApplyUpdates([]ClipUpdate{update}) > 0
}

// TrimClipRight drags a clip's right edge by deltaX pixels at the current
// zoom. The out point is clamped to the source asset's duration; an
// unresolvable source abandons the trim silently.
func (c *Controller) TrimClipRight(id string, deltaX float64) bool {
	c.mu.Lock()
	clip, ok := c.clips[id]
	if !ok {
		c.mu.Unlock()
		return false
	}
	snapshot := *clip
	zoom := c.zoom
	c.mu.Unlock()

	sourceDuration, ok := c.resolveSource(snapshot.SourceID)
	if !ok {
		return false
	}
	update, ok := TrimRight(&snapshot, deltaX, zoom, sourceDuration)
	if !ok {
		return false
	}
	return c.ApplyUpdates([]ClipUpdate{update}) > 0
}

func (c *Controller) resolveSource(sourceID string) (float64, bool) {
	if c.sources == nil {
		return 0, false
	}
	d, ok := c.sources.SourceDuration(sourceID)
	if !ok {
		c.debug("trim abandoned: source asset not found", "source_id", sourceID)
	}
	return d, ok
}

// SnapClipLeft snaps a clip's left edge to the nearest edge candidate to
// its left. Returns false when the clip is already at a snap position or no
// candidate exists.
func (c *Controller) SnapClipLeft(id string) bool {
	update, ok := SnapClipLeft(id, c.Clips())
	if !ok {
		return false
	}
	return c.ApplyUpdates([]ClipUpdate{update}) > 0
}

// SnapClipRight snaps a clip's right edge to the nearest candidate to its
// right, preserving duration (the start clamps at 0 when the candidate
// would push it negative).
func (c *Controller) SnapClipRight(id string) bool {
	update, ok := SnapClipRight(id, c.Clips(), c.Duration())
	if !ok {
		return false
	}
	return c.ApplyUpdates([]ClipUpdate{update}) > 0
}

// CompressTrack closes the gaps between clips on a track, optionally
// restricted to a subset of clip ids. Returns the number of clips moved.
func (c *Controller) CompressTrack(trackIndex int, subset map[string]bool) int {
	updates := CompressTrack(trackIndex, c.Clips(), subset)
	return c.ApplyUpdates(updates)
}

// recomputeDuration rederives the timeline duration as the maximum clip end
// time, or 0 when no clips remain. Called under the lock after every
// structural mutation.
func (c *Controller) recomputeDuration() {
	max := 0.0
	for _, clip := range c.clips {
		if end := clip.EndTime(); end > max {
			max = end
		}
	}
	c.duration = max
}

func (c *Controller) clampPlayheadLocked() {
	c.playhead = clampFloat(c.playhead, 0, c.duration)
}

// notifyLocked bumps the revision, releases the lock and fires the change
// callback. Every mutating method ends with it.
func (c *Controller) notifyLocked() {
	c.revision++
	rev := c.revision
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(rev)
	}
}

func (c *Controller) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Controller) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func trackName(index int) string {
	return fmt.Sprintf("Track %d", index+1)
}

func removeString(s []string, v string) []string {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

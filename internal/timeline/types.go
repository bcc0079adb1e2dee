// Package timeline implements the editing model at the heart of the agent:
// clips placed on multiple tracks, the playhead, zoom and scroll state, and
// the engines (snapping, compression, trim) that keep the arrangement
// consistent while the UI drags, splits and batch-edits clips.
package timeline

const (
	// MinZoom and MaxZoom bound the pixels-per-second zoom factor.
	MinZoom     = 10.0
	MaxZoom     = 1000.0
	DefaultZoom = 100.0

	// EdgeEpsilon guards split and trim operations against producing
	// degenerate zero-length clips.
	EdgeEpsilon = 0.01

	// BoundaryEpsilon is the tolerance for "already at this position"
	// checks, where float arithmetic makes exact equality unreliable.
	BoundaryEpsilon = 0.001

	// FrameDuration is the nudge step for arrow-key moves, in seconds.
	FrameDuration = 1.0 / 30.0

	// DefaultTrackCount is the number of tracks in a fresh timeline.
	DefaultTrackCount = 2
)

// Clip is a placed instance of a source asset on the timeline. StartTime and
// Duration position it on the timeline; InPoint and OutPoint select the
// window into the source. OutPoint-InPoint always equals Duration within
// EdgeEpsilon.
type Clip struct {
	ID        string  `json:"id"`
	SourceID  string  `json:"sourceId"`
	Name      string  `json:"name,omitempty"`
	StartTime float64 `json:"startTime"`
	Duration  float64 `json:"duration"`
	InPoint   float64 `json:"inPoint"`
	OutPoint  float64 `json:"outPoint"`
	Track     int     `json:"track"`
	Layer     int     `json:"layer"`
}

// EndTime returns the clip's right edge on the timeline.
func (c *Clip) EndTime() float64 {
	return c.StartTime + c.Duration
}

// Contains reports whether t falls inside the clip's half-open
// [StartTime, StartTime+Duration) interval.
func (c *Clip) Contains(t float64) bool {
	return t >= c.StartTime && t < c.StartTime+c.Duration
}

// Track is one horizontal lane of the timeline. Indices are dense and
// contiguous from 0 and are reassigned whenever a track is removed.
type Track struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// Source describes the asset a clip is created from. Only the fields the
// model needs are carried; the asset library owns the rest.
type Source struct {
	ID       string
	Name     string
	Duration float64
}

// SourceResolver looks up the intrinsic duration of a source asset. Trim
// operations need it to clamp the out point; an unresolvable id turns the
// trim into a no-op.
type SourceResolver interface {
	SourceDuration(id string) (float64, bool)
}

// Snapshot is an immutable copy of the timeline state, suitable for JSON
// transport to the rendering process. Clips are ordered by track, then start
// time, then id.
type Snapshot struct {
	Clips          []Clip   `json:"clips"`
	Tracks         []Track  `json:"tracks"`
	Playhead       float64  `json:"playhead"`
	IsPlaying      bool     `json:"isPlaying"`
	Zoom           float64  `json:"zoom"`
	ScrollPosition float64  `json:"scrollPosition"`
	Duration       float64  `json:"duration"`
	SelectedClips  []string `json:"selectedClips"`
	Revision       uint64   `json:"revision"`
}

// ClipFields is a partial update to a clip. Nil fields are left untouched.
type ClipFields struct {
	StartTime *float64
	Duration  *float64
	InPoint   *float64
	OutPoint  *float64
	Track     *int
	Layer     *int
}

// ClipUpdate pairs a clip id with the fields an engine wants changed. The
// engines never mutate state themselves; they return intended updates and
// the Controller applies them.
type ClipUpdate struct {
	ClipID string
	Fields ClipFields
}

// Float is a convenience for building ClipFields literals.
func Float(v float64) *float64 { return &v }

// Int is a convenience for building ClipFields literals.
func Int(v int) *int { return &v }

// DefaultTracks returns the two tracks a fresh or legacy project starts
// with. Project files that predate multi-track support carry no tracks at
// all; loading them synthesizes exactly these.
func DefaultTracks() []Track {
	tracks := make([]Track, DefaultTrackCount)
	for i := range tracks {
		tracks[i] = Track{ID: NewTrackID(), Name: trackName(i), Index: i}
	}
	return tracks
}

package timeline

import "log/slog"

// Command is a discrete editing intent decoded from a keyboard gesture by
// the UI process. Key is normalized to lower case ("s", "d", "delete",
// "backspace", "left", "right", "up", "down"); Ctrl covers both Ctrl and
// Cmd modifiers.
type Command struct {
	Key  string `json:"key"`
	Ctrl bool   `json:"ctrl"`
}

// Dispatcher maps commands onto Controller operations. It holds the batching
// policy for multi-selection edits: every operation that iterates the
// selection applies independently per clip, with no transaction or rollback.
type Dispatcher struct {
	ctrl   *Controller
	logger *slog.Logger
}

// NewDispatcher returns a Dispatcher bound to the given controller.
func NewDispatcher(ctrl *Controller, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{ctrl: ctrl, logger: logger}
}

// Handle executes a command and reports whether it changed anything. The UI
// only forwards commands when the timeline surface has focus and the focus
// is not inside a text field; the dispatcher does not second-guess that.
func (d *Dispatcher) Handle(cmd Command) bool {
	switch cmd.Key {
	case "s":
		if cmd.Ctrl {
			return len(d.ctrl.SplitAllAtPlayhead()) > 0
		}
		return d.ctrl.SplitAtPlayhead()

	case "d":
		if cmd.Ctrl {
			return d.compressAllTracks()
		}
		return d.compressSelection()

	case "delete", "backspace":
		return d.deleteSelection()

	case "left":
		if cmd.Ctrl {
			return d.snapSelection(true)
		}
		return d.nudgeSelection(-FrameDuration)

	case "right":
		if cmd.Ctrl {
			return d.snapSelection(false)
		}
		return d.nudgeSelection(FrameDuration)

	case "up":
		if cmd.Ctrl {
			return d.moveSelectionTrack(-1)
		}

	case "down":
		if cmd.Ctrl {
			return d.moveSelectionTrack(1)
		}

	default:
		if d.logger != nil {
			d.logger.Debug("unhandled timeline command", "key", cmd.Key, "ctrl", cmd.Ctrl)
		}
	}
	return false
}

// compressSelection groups the selection by track and compresses each
// track's selected subset independently, leaving unselected clips in place.
func (d *Dispatcher) compressSelection() bool {
	selection := d.ctrl.Selection()
	if len(selection) == 0 {
		return false
	}

	selected := make(map[string]bool, len(selection))
	for _, id := range selection {
		selected[id] = true
	}

	byTrack := make(map[int]map[string]bool)
	for _, clip := range d.ctrl.Clips() {
		if !selected[clip.ID] {
			continue
		}
		if byTrack[clip.Track] == nil {
			byTrack[clip.Track] = make(map[string]bool)
		}
		byTrack[clip.Track][clip.ID] = true
	}

	moved := 0
	for track, subset := range byTrack {
		moved += d.ctrl.CompressTrack(track, subset)
	}
	return moved > 0
}

// compressAllTracks compresses every track in full, ignoring the selection.
func (d *Dispatcher) compressAllTracks() bool {
	moved := 0
	for track := 0; track < d.ctrl.NumTracks(); track++ {
		moved += d.ctrl.CompressTrack(track, nil)
	}
	return moved > 0
}

func (d *Dispatcher) deleteSelection() bool {
	selection := d.ctrl.Selection()
	if len(selection) == 0 {
		return false
	}
	removed := 0
	for _, id := range selection {
		if d.ctrl.RemoveClip(id) {
			removed++
		}
	}
	return removed > 0
}

// nudgeSelection shifts each selected clip by one frame duration. The left
// edge clamps at timeline zero.
func (d *Dispatcher) nudgeSelection(delta float64) bool {
	selection := d.ctrl.Selection()
	if len(selection) == 0 {
		return false
	}
	moved := 0
	for _, id := range selection {
		clip := d.ctrl.Clip(id)
		if clip == nil {
			continue
		}
		newStart := maxFloat(clip.StartTime+delta, 0)
		if newStart == clip.StartTime {
			continue
		}
		if d.ctrl.UpdateClip(id, ClipFields{StartTime: Float(newStart)}) {
			moved++
		}
	}
	return moved > 0
}

func (d *Dispatcher) snapSelection(left bool) bool {
	selection := d.ctrl.Selection()
	if len(selection) == 0 {
		return false
	}
	snapped := 0
	for _, id := range selection {
		var ok bool
		if left {
			ok = d.ctrl.SnapClipLeft(id)
		} else {
			ok = d.ctrl.SnapClipRight(id)
		}
		if ok {
			snapped++
		}
	}
	return snapped > 0
}

// moveSelectionTrack moves each selected clip one track up (-1) or down
// (+1), clamped to the valid range.
func (d *Dispatcher) moveSelectionTrack(delta int) bool {
	selection := d.ctrl.Selection()
	if len(selection) == 0 {
		return false
	}
	numTracks := d.ctrl.NumTracks()
	moved := 0
	for _, id := range selection {
		clip := d.ctrl.Clip(id)
		if clip == nil {
			continue
		}
		target := clip.Track + delta
		if target < 0 {
			target = 0
		}
		if target > numTracks-1 {
			target = numTracks - 1
		}
		if target == clip.Track {
			continue
		}
		if d.ctrl.MoveClipToTrack(id, target) {
			moved++
		}
	}
	return moved > 0
}

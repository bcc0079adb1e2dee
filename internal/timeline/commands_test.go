package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *Controller) {
	t.Helper()
	ctrl := newTestController()
	return NewDispatcher(ctrl, nil), ctrl
}

func TestHandle_SplitAtPlayhead(t *testing.T) {
	d, ctrl := newTestDispatcher(t)
	addClipAt(t, ctrl, "src-a", 0, 10, 0)
	ctrl.SetPlayhead(4)

	assert.True(t, d.Handle(Command{Key: "s"}))
	assert.Len(t, ctrl.Clips(), 2)
}

func TestHandle_SplitAll(t *testing.T) {
	d, ctrl := newTestDispatcher(t)
	addClipAt(t, ctrl, "src-a", 0, 10, 0)
	addClipAt(t, ctrl, "src-b", 0, 10, 1)
	ctrl.SetPlayhead(5)

	assert.True(t, d.Handle(Command{Key: "s", Ctrl: true}))
	assert.Len(t, ctrl.Clips(), 4)
	assert.Len(t, ctrl.Selection(), 2, "left halves become the selection")
}

func TestHandle_CompressSelection_GroupsByTrack(t *testing.T) {
	d, ctrl := newTestDispatcher(t)
	a := addClipAt(t, ctrl, "src-a", 0, 2, 0)
	b := addClipAt(t, ctrl, "src-a", 5, 2, 0)
	x := addClipAt(t, ctrl, "src-b", 1, 2, 1)
	y := addClipAt(t, ctrl, "src-b", 9, 2, 1)
	unselected := addClipAt(t, ctrl, "src-b", 14, 1, 0)

	ctrl.SetSelectedClips([]string{a.ID, b.ID, x.ID, y.ID})
	require.True(t, d.Handle(Command{Key: "d"}))

	assert.Equal(t, 2.0, ctrl.Clip(b.ID).StartTime, "track 0 subset compressed")
	assert.Equal(t, 3.0, ctrl.Clip(y.ID).StartTime, "track 1 subset compressed from its own first clip")
	assert.Equal(t, 14.0, ctrl.Clip(unselected.ID).StartTime, "unselected clip untouched")
}

func TestHandle_CompressSelection_EmptySelection(t *testing.T) {
	d, ctrl := newTestDispatcher(t)
	addClipAt(t, ctrl, "src-a", 0, 2, 0)
	addClipAt(t, ctrl, "src-a", 5, 2, 0)

	assert.False(t, d.Handle(Command{Key: "d"}))
	clips := ctrl.Clips()
	assert.Equal(t, 5.0, clips[1].StartTime)
}

func TestHandle_CompressAllTracks_IgnoresSelection(t *testing.T) {
	d, ctrl := newTestDispatcher(t)
	addClipAt(t, ctrl, "src-a", 0, 2, 0)
	b := addClipAt(t, ctrl, "src-a", 5, 2, 0)
	addClipAt(t, ctrl, "src-b", 3, 2, 1)
	y := addClipAt(t, ctrl, "src-b", 9, 2, 1)

	require.True(t, d.Handle(Command{Key: "d", Ctrl: true}))

	assert.Equal(t, 2.0, ctrl.Clip(b.ID).StartTime)
	assert.Equal(t, 5.0, ctrl.Clip(y.ID).StartTime)
}

func TestHandle_DeleteSelection(t *testing.T) {
	for _, key := range []string{"delete", "backspace"} {
		t.Run(key, func(t *testing.T) {
			d, ctrl := newTestDispatcher(t)
			a := addClipAt(t, ctrl, "src-a", 0, 2, 0)
			b := addClipAt(t, ctrl, "src-a", 5, 2, 0)
			ctrl.SetSelectedClips([]string{a.ID})

			assert.True(t, d.Handle(Command{Key: key}))
			assert.Nil(t, ctrl.Clip(a.ID))
			assert.NotNil(t, ctrl.Clip(b.ID))
		})
	}
}

func TestHandle_NudgeRight(t *testing.T) {
	d, ctrl := newTestDispatcher(t)
	a := addClipAt(t, ctrl, "src-a", 1, 2, 0)
	ctrl.SetSelectedClips([]string{a.ID})

	require.True(t, d.Handle(Command{Key: "right"}))
	assert.InDelta(t, 1+FrameDuration, ctrl.Clip(a.ID).StartTime, 1e-9)
}

func TestHandle_NudgeLeft_ClampsAtZero(t *testing.T) {
	d, ctrl := newTestDispatcher(t)
	a := addClipAt(t, ctrl, "src-a", 0.01, 2, 0)
	ctrl.SetSelectedClips([]string{a.ID})

	require.True(t, d.Handle(Command{Key: "left"}))
	assert.Equal(t, 0.0, ctrl.Clip(a.ID).StartTime)

	// Already at zero: nothing left to move.
	assert.False(t, d.Handle(Command{Key: "left"}))
}

func TestHandle_SnapSelectionLeft(t *testing.T) {
	d, ctrl := newTestDispatcher(t)
	addClipAt(t, ctrl, "src-a", 0, 5, 0)
	b := addClipAt(t, ctrl, "src-a", 7, 2, 0)
	ctrl.SetSelectedClips([]string{b.ID})

	require.True(t, d.Handle(Command{Key: "left", Ctrl: true}))
	assert.Equal(t, 5.0, ctrl.Clip(b.ID).StartTime)
}

func TestHandle_SnapSelectionRight(t *testing.T) {
	d, ctrl := newTestDispatcher(t)
	a := addClipAt(t, ctrl, "src-a", 0, 2, 0)
	addClipAt(t, ctrl, "src-a", 6, 3, 0)
	ctrl.SetSelectedClips([]string{a.ID})

	require.True(t, d.Handle(Command{Key: "right", Ctrl: true}))
	assert.Equal(t, 4.0, ctrl.Clip(a.ID).StartTime)
}

func TestHandle_MoveSelectionDown_Clamped(t *testing.T) {
	d, ctrl := newTestDispatcher(t)
	a := addClipAt(t, ctrl, "src-a", 0, 2, 0)
	ctrl.SetSelectedClips([]string{a.ID})

	require.True(t, d.Handle(Command{Key: "down", Ctrl: true}))
	assert.Equal(t, 1, ctrl.Clip(a.ID).Track)

	// Already on the last track.
	assert.False(t, d.Handle(Command{Key: "down", Ctrl: true}))
	assert.Equal(t, 1, ctrl.Clip(a.ID).Track)
}

func TestHandle_MoveSelectionUp_Clamped(t *testing.T) {
	d, ctrl := newTestDispatcher(t)
	a := addClipAt(t, ctrl, "src-a", 0, 2, 1)
	ctrl.SetSelectedClips([]string{a.ID})

	require.True(t, d.Handle(Command{Key: "up", Ctrl: true}))
	assert.Equal(t, 0, ctrl.Clip(a.ID).Track)

	assert.False(t, d.Handle(Command{Key: "up", Ctrl: true}))
}

func TestHandle_ArrowsWithoutCtrlAndSelection(t *testing.T) {
	d, _ := newTestDispatcher(t)
	assert.False(t, d.Handle(Command{Key: "left"}))
	assert.False(t, d.Handle(Command{Key: "up", Ctrl: true}))
	assert.False(t, d.Handle(Command{Key: "q"}))
}

package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapping-editor/internal/dom"
)

func visibleKeys(h *harness) []string {
	var out []string
	for _, f := range h.ed.Fields() {
		if f.Visible {
			out = append(out, f.Key)
		}
	}
	return out
}

func TestEnterRowCentersPanel(t *testing.T) {
	h := newHarness(t, "city", "source")
	pos, err := h.ed.EnterRow("city", RowGeometry{
		Row:    dom.Rect{X: 100, Y: 400, Width: 200, Height: 20},
		Panel:  dom.Size{Width: 300, Height: 100},
		Scroll: dom.Point{X: 0, Y: 50},
	})
	require.NoError(t, err)
	assert.Equal(t, dom.Point{X: 50, Y: 410}, pos)
	assert.Contains(t, mustRender(t, h.ed).DetailsHTML, `style="left: 50px; top: 410px;"`)

	_, err = h.ed.EnterRow("nope", RowGeometry{})
	assert.Error(t, err)
}

func TestHoverShowsOnePanelAtATime(t *testing.T) {
	h := newHarness(t, "city", "source", "zip", "source", "name", "phonetic")

	_, err := h.ed.EnterRow("city", RowGeometry{})
	require.NoError(t, err)
	_, err = h.ed.EnterRow("zip", RowGeometry{})
	require.NoError(t, err)
	assert.Equal(t, []string{"zip"}, visibleKeys(h))

	h.ed.LeaveRow("zip")
	_, err = h.ed.EnterRow("name", RowGeometry{})
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, visibleKeys(h))

	// The hide scheduled when leaving zip was cancelled by entering name.
	h.clock.fireAll()
	assert.Equal(t, []string{"name"}, visibleKeys(h))
}

func TestLeaveRowHidesAfterDelay(t *testing.T) {
	h := newHarness(t, "city", "source")
	_, err := h.ed.EnterRow("city", RowGeometry{})
	require.NoError(t, err)

	h.ed.LeaveRow("city")
	require.Equal(t, 1, h.clock.pending())
	assert.Equal(t, DefaultHideDelay, h.clock.timers[0].delay)
	assert.Equal(t, []string{"city"}, visibleKeys(h))

	h.clock.fire()
	assert.Empty(t, visibleKeys(h))
	_, ok := h.ed.Visible()
	assert.False(t, ok)
}

func TestPointerMovingIntoPanelKeepsItOpen(t *testing.T) {
	h := newHarness(t, "city", "source")
	_, err := h.ed.EnterRow("city", RowGeometry{})
	require.NoError(t, err)

	h.ed.LeaveRow("city")
	h.ed.EnterPanel("city")
	assert.Equal(t, 0, h.clock.pending())
	h.clock.fireAll()
	assert.Equal(t, []string{"city"}, visibleKeys(h))

	h.ed.LeavePanel("city")
	assert.Equal(t, 1, h.clock.pending())
	h.clock.fire()
	assert.Empty(t, visibleKeys(h))
}

func TestLeaveWithoutDisclosureSchedulesNothing(t *testing.T) {
	h := newHarness(t, "city", "source")
	h.ed.LeaveRow("city")
	h.ed.LeavePanel("city")
	h.ed.EnterPanel("city")
	assert.Equal(t, 0, h.clock.pending())
}

func TestCloseCancelsPendingHide(t *testing.T) {
	h := newHarness(t, "city", "source")
	_, err := h.ed.EnterRow("city", RowGeometry{})
	require.NoError(t, err)
	h.ed.LeaveRow("city")
	h.ed.Close()
	assert.Equal(t, 0, h.clock.pending())
}

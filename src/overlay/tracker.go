package overlay

import "circle-search/src/capture"

// Tracker is the platform-independent drag state machine behind the overlay
// surface: pointer-down anchors the rectangle, pointer-drag updates the live
// rectangle, pointer-up either yields a region or cancels when the drag is
// degenerate. Coordinates are overlay-local; the platform layer adds the
// virtual-screen offset.
type Tracker struct {
	dragging bool
	anchorX  int
	anchorY  int
	curX     int
	curY     int
}

// Down anchors a new rectangle at the pointer position.
func (t *Tracker) Down(x, y int) {
	t.dragging = true
	t.anchorX, t.anchorY = x, y
	t.curX, t.curY = x, y
}

// Move updates the live rectangle during a drag. Ignored when no drag is
// active (pointer entered the overlay with the button already down).
func (t *Tracker) Move(x, y int) {
	if !t.dragging {
		return
	}
	t.curX, t.curY = x, y
}

// Up finishes the drag. ok is false for a degenerate rectangle (either
// dimension under MinSelectionSpan), which the pipeline treats as a
// cancellation. The tracker resets either way.
func (t *Tracker) Up(x, y int) (capture.Region, bool) {
	if !t.dragging {
		return capture.Region{}, false
	}
	t.curX, t.curY = x, y
	region := t.Rect()
	t.Reset()
	if region.Width < MinSelectionSpan || region.Height < MinSelectionSpan {
		return capture.Region{}, false
	}
	return region, true
}

// Rect returns the normalized live rectangle.
func (t *Tracker) Rect() capture.Region {
	x0, x1 := t.anchorX, t.curX
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	y0, y1 := t.anchorY, t.curY
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return capture.Region{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Dragging reports whether a drag is in progress.
func (t *Tracker) Dragging() bool { return t.dragging }

// Reset abandons any in-progress drag.
func (t *Tracker) Reset() {
	t.dragging = false
	t.anchorX, t.anchorY, t.curX, t.curY = 0, 0, 0, 0
}

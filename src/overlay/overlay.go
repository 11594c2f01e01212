// Package overlay provides the full-screen interactive region selector.
// The pipeline depends only on the Selector interface so the event loop can
// be exercised with fake implementations.
package overlay

import (
	"context"
	"errors"
	"sync/atomic"

	"circle-search/src/capture"
)

// ErrCancelled is returned indirectly via the cancelled flag, never as an
// error; it exists for callers that want a sentinel to report upstream.
var ErrCancelled = errors.New("selection cancelled")

// Selector is a synchronous region-selection API owned by the event loop.
// Select blocks until the user releases a valid drag (region, false, nil),
// cancels via Escape, focus loss or a degenerate drag (_, true, nil), or the
// overlay surface fails (_, false, err). It MUST be invoked only from the
// single event-loop goroutine.
type Selector interface {
	Select(ctx context.Context) (capture.Region, bool, error)
}

// NewSelector returns the platform implementation.
func NewSelector() Selector {
	return newPlatformSelector()
}

// surfaceActive guards the single-overlay invariant. The Idle gate in the
// event loop makes a second concurrent selection unreachable; reaching it
// anyway is a logic error that must fail loudly instead of double-displaying.
var surfaceActive int32

func acquireSurface() {
	if !atomic.CompareAndSwapInt32(&surfaceActive, 0, 1) {
		panic("overlay: selection surface already active")
	}
}

func releaseSurface() {
	atomic.StoreInt32(&surfaceActive, 0)
}

// MinSelectionSpan is the smallest width and height, in pixels, for a drag
// to count as a selection. Anything smaller is treated as a click and
// cancels the cycle.
const MinSelectionSpan = 4

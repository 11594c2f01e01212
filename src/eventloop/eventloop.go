// Package eventloop is the single-threaded coordinator for the capture
// pipeline. All state transitions happen on the loop goroutine; the hotkey
// listener, the tray menu, and the recognition workers only post events
// into its channels.
package eventloop

import (
	"context"
	"image"
	"log"
	"time"

	"github.com/google/uuid"

	"circle-search/src/capture"
	"circle-search/src/overlay"
	"circle-search/src/pipeline"
	"circle-search/src/recognize"
)

// CaptureRequest marks one physical trigger. The ID ties log lines of a
// cycle together; the request itself is consumed by the overlay.
type CaptureRequest struct {
	TriggerID string
	Timestamp time.Time
}

// NewCaptureRequest stamps a fresh trigger.
func NewCaptureRequest() CaptureRequest {
	return CaptureRequest{TriggerID: uuid.NewString(), Timestamp: time.Now()}
}

type completion struct {
	generation uint64
	res        recognize.Result
}

// Router consumes a classified result and performs its side effects.
// Satisfied by search.Router.
type Router interface {
	Route(ctx context.Context, res recognize.Result)
}

// GrabFunc captures the pixels of a selected region.
type GrabFunc func(capture.Region) (*image.RGBA, error)

// Config assembles a Loop. Grab and Tooltip may be nil; Grab defaults to
// live screen capture and Tooltip to a no-op.
type Config struct {
	Selector       overlay.Selector
	Coordinator    *recognize.Coordinator
	Router         Router
	Grab           GrabFunc
	Tooltip        func(string)
	DefaultTooltip string
	BusyTooltip    string
}

// Loop owns the pipeline state machine.
type Loop struct {
	machine   *pipeline.Machine
	selector  overlay.Selector
	coord     *recognize.Coordinator
	router    Router
	grab      GrabFunc
	tooltip   func(string)
	idleText  string
	busyText  string
	triggerCh chan CaptureRequest
	cancelCh  chan struct{}
	results   chan completion
}

func New(cfg Config) *Loop {
	if cfg.Grab == nil {
		cfg.Grab = capture.Grab
	}
	if cfg.Tooltip == nil {
		cfg.Tooltip = func(string) {}
	}
	if cfg.DefaultTooltip == "" {
		cfg.DefaultTooltip = "Circle Search"
	}
	if cfg.BusyTooltip == "" {
		cfg.BusyTooltip = "Circle Search: working..."
	}
	return &Loop{
		machine:   pipeline.NewMachine(),
		selector:  cfg.Selector,
		coord:     cfg.Coordinator,
		router:    cfg.Router,
		grab:      cfg.Grab,
		tooltip:   cfg.Tooltip,
		idleText:  cfg.DefaultTooltip,
		busyText:  cfg.BusyTooltip,
		triggerCh: make(chan CaptureRequest, 4),
		cancelCh:  make(chan struct{}, 1),
		results:   make(chan completion, 4),
	}
}

// Trigger posts a capture request. Safe from any goroutine; never blocks.
func (l *Loop) Trigger() {
	select {
	case l.triggerCh <- NewCaptureRequest():
	default:
		log.Printf("Loop: trigger queue full, dropping")
	}
}

// CancelCurrent posts a cancel-current request. Never blocks.
func (l *Loop) CancelCurrent() {
	select {
	case l.cancelCh <- struct{}{}:
	default:
	}
}

// State reports the current pipeline state. For tests and diagnostics.
func (l *Loop) State() (pipeline.State, uint64) {
	return l.machine.Snapshot()
}

// Run processes events until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.tooltip(l.idleText)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-l.triggerCh:
			l.handleTrigger(ctx, req)
		case <-l.cancelCh:
			l.handleCancel()
		case comp := <-l.results:
			l.handleCompletion(ctx, comp)
		}
	}
}

// RunOnce drives a single capture cycle to completion and returns. Used by
// the --once flag.
func (l *Loop) RunOnce(ctx context.Context) error {
	l.Trigger()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-l.triggerCh:
			l.handleTrigger(ctx, req)
			if state, _ := l.machine.Snapshot(); state == pipeline.Idle {
				// Selection was cancelled or failed before recognition.
				return nil
			}
		case <-l.cancelCh:
			l.handleCancel()
			return nil
		case comp := <-l.results:
			l.handleCompletion(ctx, comp)
			return nil
		}
	}
}

// handleTrigger opens the overlay and, on a valid selection, submits the
// captured region for recognition. The loop blocks in the overlay while
// the user drags; that is the Selecting state.
func (l *Loop) handleTrigger(ctx context.Context, req CaptureRequest) {
	gen, ok := l.machine.Begin()
	if !ok {
		state, _ := l.machine.Snapshot()
		log.Printf("Loop: trigger %s ignored, pipeline %s", req.TriggerID, state)
		return
	}
	log.Printf("Loop: trigger %s starting cycle (generation %d)", req.TriggerID, gen)

	region, cancelled, err := l.selector.Select(ctx)
	if err != nil {
		log.Printf("Loop: selection failed: %v (trigger %s)", err, req.TriggerID)
		l.machine.Cancel()
		return
	}
	if cancelled {
		log.Printf("Loop: selection cancelled (trigger %s)", req.TriggerID)
		l.machine.Cancel()
		return
	}

	if !l.machine.MarkRecognizing(gen) {
		// A cancel slipped in while the overlay was closing.
		log.Printf("Loop: cycle %d gone before recognition (trigger %s)", gen, req.TriggerID)
		return
	}

	img, err := l.grab(region)
	if err != nil {
		log.Printf("Loop: capture failed for %s: %v (trigger %s)", region, err, req.TriggerID)
		l.machine.Cancel()
		return
	}

	l.tooltip(l.busyText)
	ok = l.coord.Submit(gen, region, img, func(generation uint64, res recognize.Result) {
		select {
		case l.results <- completion{generation: generation, res: res}:
		default:
			log.Printf("Loop: results queue full, dropping completion (generation %d)", generation)
		}
	})
	if !ok {
		log.Printf("Loop: recognition already in flight, aborting cycle %d", gen)
		l.tooltip(l.idleText)
		l.machine.Cancel()
	}
}

// handleCompletion routes a recognition result unless the pipeline has
// moved on. Stale completions are dropped by generation mismatch and have
// no side effects.
func (l *Loop) handleCompletion(ctx context.Context, comp completion) {
	if !l.machine.MarkDispatching(comp.generation) {
		log.Printf("Loop: dropping stale completion (generation %d)", comp.generation)
		return
	}
	l.router.Route(ctx, comp.res)
	l.machine.Finish(comp.generation)
	l.tooltip(l.idleText)
	log.Printf("Loop: cycle %d complete, pipeline idle", comp.generation)
}

// handleCancel aborts whatever phase the pipeline is in and returns it to
// Idle. The generation bump makes any in-flight completion stale.
func (l *Loop) handleCancel() {
	if !l.machine.Cancel() {
		log.Printf("Loop: cancel ignored, pipeline idle")
		return
	}
	l.coord.CancelInflight()
	l.tooltip(l.idleText)
	log.Printf("Loop: cycle cancelled")
}

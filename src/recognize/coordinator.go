// Package recognize owns the lifecycle of one in-flight recognition
// request: it takes a captured region, submits it to the engine through the
// worker pool, and converts the raw output into a classified Result. Stale
// completions are filtered upstream by generation; the coordinator only
// guarantees that engine failures degrade to an Empty result instead of
// propagating.
package recognize

import (
	"context"
	"image"
	"log"
	"sync"
	"time"

	"circle-search/src/capture"
	"circle-search/src/engine"
	"circle-search/src/worker"
)

// DefaultDeadline bounds a single recognition call end to end, retries
// included.
const DefaultDeadline = 20 * time.Second

// Options tune the coordinator. Zero values select the defaults.
type Options struct {
	MinConfidence float64
	Deadline      time.Duration
}

// DeliverFunc receives the classified result for the given generation.
// Called from a worker goroutine, or synchronously from Submit when the
// capture short-circuits; it must not block.
type DeliverFunc func(generation uint64, res Result)

// Coordinator submits captures for recognition, one at a time.
type Coordinator struct {
	pool          *worker.Pool
	minConfidence float64
	deadline      time.Duration

	mu            sync.Mutex
	cancelCurrent context.CancelFunc
}

func New(eng engine.Engine, opts Options) *Coordinator {
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = DefaultMinConfidence
	}
	if opts.Deadline <= 0 {
		opts.Deadline = DefaultDeadline
	}
	return &Coordinator{
		pool:          worker.New(eng, 1),
		minConfidence: opts.MinConfidence,
		deadline:      opts.Deadline,
	}
}

// Submit encodes the captured pixels and hands them to the engine. Uniform
// captures never reach the engine; they classify as Empty right away.
// Returns false when a recognition is already in flight.
func (c *Coordinator) Submit(generation uint64, region capture.Region, img *image.RGBA, deliver DeliverFunc) bool {
	if capture.IsUniform(img) {
		log.Printf("Recognize: uniform capture %s, skipping engine (generation %d)", region, generation)
		deliver(generation, Result{Kind: KindEmpty, Region: region})
		return true
	}

	png, err := capture.EncodePNG(img)
	if err != nil {
		log.Printf("Recognize: PNG encode failed: %v (generation %d)", err, generation)
		deliver(generation, Result{Kind: KindEmpty, Region: region})
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.deadline)
	c.mu.Lock()
	c.cancelCurrent = cancel
	c.mu.Unlock()

	ok := c.pool.Submit(ctx, generation, png, func(comp worker.Completion) {
		cancel()
		deliver(comp.Generation, c.resultFor(comp, region, png))
	})
	if !ok {
		c.mu.Lock()
		c.cancelCurrent = nil
		c.mu.Unlock()
		cancel()
		log.Printf("Recognize: dropped submission, recognition already in flight (generation %d)", generation)
		return false
	}
	return true
}

func (c *Coordinator) resultFor(comp worker.Completion, region capture.Region, png []byte) Result {
	if comp.Err != nil {
		// Engine failures are never pipeline-fatal; the router shows a
		// uniform no-match outcome.
		log.Printf("Recognize: engine failed, treating as empty: %v (generation %d)", comp.Err, comp.Generation)
		return Result{Kind: KindEmpty, Region: region}
	}

	kind, text, lines := classify(comp.Output, c.minConfidence)
	res := Result{Kind: kind, Text: text, Lines: lines, Region: region}
	if kind == KindImage {
		res.PNG = png
	}
	log.Printf("Recognize: classified as %s (%d lines, generation %d)", kind, len(lines), comp.Generation)
	return res
}

// CancelInflight aborts the current engine call, if any. The worker still
// delivers a completion (with a context error) which classifies as Empty;
// the caller is expected to have bumped the generation so it gets dropped.
func (c *Coordinator) CancelInflight() {
	c.mu.Lock()
	cancel := c.cancelCurrent
	c.cancelCurrent = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Close drains the worker pool.
func (c *Coordinator) Close() {
	c.pool.Close()
}

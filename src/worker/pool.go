// Package worker runs recognition engine calls off the event loop.
package worker

import (
	"context"
	"log"
	"sync"

	"circle-search/src/engine"
)

// Completion is delivered to the callback when an engine call finishes.
// Generation identifies the pipeline cycle that submitted the job so the
// event loop can discard stale completions.
type Completion struct {
	Generation uint64
	Output     engine.Output
	Err        error
}

// Callback is invoked from a worker goroutine. The event loop passes a
// closure that posts the completion back into the loop without blocking.
type Callback func(Completion)

// Pool is a fixed-size recognition pool with a 1-slot input queue. The
// single slot gives strict back-pressure: the pipeline never has more than
// one recognition in flight, and Submit reports a drop instead of queueing.
type Pool struct {
	eng  engine.Engine
	jobs chan job
	wg   sync.WaitGroup
}

type job struct {
	ctx        context.Context
	generation uint64
	imageData  []byte
	cb         Callback
}

// New creates a pool of size workers over the given engine. The pipeline
// needs exactly one; more only make sense for tooling.
func New(eng engine.Engine, size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{eng: eng, jobs: make(chan job, 1)}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for j := range p.jobs {
		log.Printf("Worker: recognizing %d bytes (generation %d)", len(j.imageData), j.generation)
		out, err := p.recognize(j.ctx, j.imageData)
		log.Printf("Worker: recognition done (generation %d, lines=%d, err=%v)", j.generation, len(out.Lines), err)
		j.cb(Completion{Generation: j.generation, Output: out, Err: err})
	}
}

// recognize runs the engine call under the job context. When the context
// expires first the engine call is left to finish in the background and its
// result is discarded; cancellation is cooperative.
func (p *Pool) recognize(ctx context.Context, imageData []byte) (engine.Output, error) {
	type res struct {
		out engine.Output
		err error
	}
	resCh := make(chan res, 1)
	go func() {
		out, err := p.eng.Recognize(ctx, imageData)
		resCh <- res{out, err}
	}()
	select {
	case r := <-resCh:
		return r.out, r.err
	case <-ctx.Done():
		return engine.Output{}, ctx.Err()
	}
}

// Submit enqueues a recognition job if the single-slot queue is free.
// Returns false when the pool is saturated.
func (p *Pool) Submit(ctx context.Context, generation uint64, imageData []byte, cb Callback) bool {
	select {
	case p.jobs <- job{ctx: ctx, generation: generation, imageData: imageData, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

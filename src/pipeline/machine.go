// Package pipeline holds the process-wide capture pipeline state machine.
// All transitions are serialized behind a mutex; the listener and engine
// callbacks never touch the machine directly, they post events into the
// event loop which owns the only references that mutate it.
package pipeline

import "sync"

// State is the pipeline phase. Transitions are strictly sequential
// (Idle → Selecting → Recognizing → Dispatching → Idle) except for
// cancellation, which short-circuits any active phase back to Idle.
type State int

const (
	Idle State = iota
	Selecting
	Recognizing
	Dispatching
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Selecting:
		return "Selecting"
	case Recognizing:
		return "Recognizing"
	case Dispatching:
		return "Dispatching"
	}
	return "Unknown"
}

// Machine guards the pipeline state and its generation counter. The
// generation increments every time the machine returns to Idle; an async
// completion tagged with an older generation is stale and must be dropped.
type Machine struct {
	mu         sync.Mutex
	state      State
	generation uint64
}

func NewMachine() *Machine {
	return &Machine{state: Idle}
}

// Snapshot returns the current state and generation.
func (m *Machine) Snapshot() (State, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.generation
}

// Begin starts a new cycle: Idle → Selecting. Returns the generation that
// tags the cycle, or ok=false when the pipeline is busy (the trigger is
// swallowed, not queued).
func (m *Machine) Begin() (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Idle {
		return 0, false
	}
	m.state = Selecting
	return m.generation, true
}

// MarkRecognizing moves Selecting → Recognizing for the given cycle.
func (m *Machine) MarkRecognizing(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Selecting || m.generation != gen {
		return false
	}
	m.state = Recognizing
	return true
}

// MarkDispatching moves Recognizing → Dispatching for the given cycle.
// Returns false when the completion is stale (generation mismatch or the
// pipeline already moved on); the caller must discard the result.
func (m *Machine) MarkDispatching(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Recognizing || m.generation != gen {
		return false
	}
	m.state = Dispatching
	return true
}

// Finish completes a cycle: back to Idle with the generation advanced.
// A stale generation is a no-op.
func (m *Machine) Finish(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen || m.state == Idle {
		return false
	}
	m.state = Idle
	m.generation++
	return true
}

// Cancel forces any active phase back to Idle and advances the generation
// so that in-flight work from the cancelled cycle is discarded on arrival.
// Returns false when the machine was already Idle.
func (m *Machine) Cancel() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Idle {
		return false
	}
	m.state = Idle
	m.generation++
	return true
}

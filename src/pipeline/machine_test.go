package pipeline

import "testing"

func TestFullCycle(t *testing.T) {
	m := NewMachine()

	gen, ok := m.Begin()
	if !ok {
		t.Fatal("Begin should succeed from Idle")
	}
	if state, _ := m.Snapshot(); state != Selecting {
		t.Fatalf("Expected Selecting, got %v", state)
	}

	if !m.MarkRecognizing(gen) {
		t.Fatal("MarkRecognizing should succeed from Selecting")
	}
	if !m.MarkDispatching(gen) {
		t.Fatal("MarkDispatching should succeed from Recognizing")
	}
	if !m.Finish(gen) {
		t.Fatal("Finish should succeed from Dispatching")
	}

	state, newGen := m.Snapshot()
	if state != Idle {
		t.Errorf("Expected Idle after Finish, got %v", state)
	}
	if newGen != gen+1 {
		t.Errorf("Expected generation %d after Finish, got %d", gen+1, newGen)
	}
}

func TestBeginSwallowedWhileBusy(t *testing.T) {
	m := NewMachine()

	if _, ok := m.Begin(); !ok {
		t.Fatal("First Begin should succeed")
	}
	if _, ok := m.Begin(); ok {
		t.Error("Begin while Selecting should be swallowed")
	}
}

func TestCancelAdvancesGeneration(t *testing.T) {
	m := NewMachine()

	gen, _ := m.Begin()
	m.MarkRecognizing(gen)

	if !m.Cancel() {
		t.Fatal("Cancel should succeed while Recognizing")
	}
	state, newGen := m.Snapshot()
	if state != Idle {
		t.Errorf("Expected Idle after Cancel, got %v", state)
	}
	if newGen != gen+1 {
		t.Errorf("Expected generation bump after Cancel, got %d", newGen)
	}

	// A completion from the cancelled cycle must be rejected.
	if m.MarkDispatching(gen) {
		t.Error("Stale completion accepted after Cancel")
	}
}

func TestCancelWhileIdleIsNoop(t *testing.T) {
	m := NewMachine()
	if m.Cancel() {
		t.Error("Cancel from Idle should report false")
	}
	if _, gen := m.Snapshot(); gen != 0 {
		t.Errorf("Generation should not advance on idle cancel, got %d", gen)
	}
}

func TestStaleGenerationRejected(t *testing.T) {
	m := NewMachine()

	gen, _ := m.Begin()
	m.MarkRecognizing(gen)
	m.Cancel()

	// New cycle starts; old completion arrives late.
	gen2, ok := m.Begin()
	if !ok {
		t.Fatal("Begin should succeed after Cancel")
	}
	if gen2 == gen {
		t.Fatal("New cycle must carry a new generation")
	}
	m.MarkRecognizing(gen2)

	if m.MarkDispatching(gen) {
		t.Error("Completion with old generation accepted")
	}
	if !m.MarkDispatching(gen2) {
		t.Error("Completion with current generation rejected")
	}
}

func TestFinishStaleGeneration(t *testing.T) {
	m := NewMachine()
	gen, _ := m.Begin()
	m.Cancel()
	if m.Finish(gen) {
		t.Error("Finish with stale generation should be a no-op")
	}
}

func TestStateString(t *testing.T) {
	names := map[State]string{
		Idle:        "Idle",
		Selecting:   "Selecting",
		Recognizing: "Recognizing",
		Dispatching: "Dispatching",
		State(42):   "Unknown",
	}
	for state, want := range names {
		if state.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", state, state.String(), want)
		}
	}
}

package hotkey

import (
	"testing"
	"time"
)

func TestRawcodesFor(t *testing.T) {
	tests := []struct {
		name     string
		expected []uint16
	}{
		{"ctrl", []uint16{162, 163}},
		{"alt", []uint16{164, 165}},
		{"shift", []uint16{160, 161}},
		{"cmd", []uint16{91, 92}},
		{"q", []uint16{81}},
		{"a", []uint16{65}},
		{"z", []uint16{90}},
		{"0", []uint16{48}},
		{"9", []uint16{57}},
		{"f1", []uint16{112}},
		{"f12", []uint16{123}},
		{"f24", []uint16{135}},
		{"space", []uint16{32}},
		{"esc", []uint16{27}},
		{"escape", []uint16{27}},
		{"enter", []uint16{13}},
		{"f25", nil},
		{"f0", nil},
		{"unknown", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rawcodesFor(tt.name)
			if len(got) != len(tt.expected) {
				t.Fatalf("rawcodesFor(%q) = %v, want %v", tt.name, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("rawcodesFor(%q)[%d] = %d, want %d", tt.name, i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestParseCombo(t *testing.T) {
	tests := []struct {
		combo string
		want  []string
	}{
		{"Ctrl+Shift+Space", []string{"ctrl", "shift", "space"}},
		{"Ctrl + Alt + q", []string{"ctrl", "alt", "q"}},
		{"Win+S", []string{"cmd", "s"}},
		{"super+space", []string{"cmd", "space"}},
	}
	for _, tt := range tests {
		got := parseCombo(tt.combo)
		if len(got) != len(tt.want) {
			t.Fatalf("parseCombo(%q) = %v, want %v", tt.combo, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseCombo(%q)[%d] = %q, want %q", tt.combo, i, got[i], tt.want[i])
			}
		}
	}
}

const (
	vkLCtrl  = 162
	vkLShift = 160
	vkSpace  = 32
)

func TestChordFiresOncePerPress(t *testing.T) {
	c, err := newChord("Ctrl+Shift+Space", nil)
	if err != nil {
		t.Fatalf("newChord failed: %v", err)
	}

	now := time.Now()
	if c.keyDown(vkLCtrl, now) {
		t.Error("Chord fired with only ctrl down")
	}
	if c.keyDown(vkLShift, now) {
		t.Error("Chord fired with only ctrl+shift down")
	}
	if !c.keyDown(vkSpace, now) {
		t.Error("Chord did not fire with full combination down")
	}

	// OS auto-repeat of the terminal key must not refire while latched.
	if c.keyDown(vkSpace, now.Add(time.Second)) {
		t.Error("Chord refired on auto-repeat key-down")
	}
}

func TestChordRequiresFullRelease(t *testing.T) {
	c, _ := newChord("Ctrl+Shift+Space", nil)

	now := time.Now()
	c.keyDown(vkLCtrl, now)
	c.keyDown(vkLShift, now)
	c.keyDown(vkSpace, now)

	// Release only the space key and press again: still latched.
	c.keyUp(vkSpace)
	if c.keyDown(vkSpace, now.Add(time.Second)) {
		t.Error("Chord refired without full release")
	}

	// Full release, then a fresh press outside the debounce window fires.
	c.keyUp(vkLCtrl)
	c.keyUp(vkLShift)
	c.keyUp(vkSpace)
	later := now.Add(time.Second)
	c.keyDown(vkLCtrl, later)
	c.keyDown(vkLShift, later)
	if !c.keyDown(vkSpace, later) {
		t.Error("Chord did not fire after full release")
	}
}

func TestChordDebouncesRapidRetrigger(t *testing.T) {
	c, _ := newChord("Ctrl+Shift+Space", nil)

	now := time.Now()
	c.keyDown(vkLCtrl, now)
	c.keyDown(vkLShift, now)
	if !c.keyDown(vkSpace, now) {
		t.Fatal("First press should fire")
	}

	// Full release and immediate re-press inside the debounce window.
	c.keyUp(vkLCtrl)
	c.keyUp(vkLShift)
	c.keyUp(vkSpace)
	soon := now.Add(retriggerInterval / 2)
	c.keyDown(vkLCtrl, soon)
	c.keyDown(vkLShift, soon)
	if c.keyDown(vkSpace, soon) {
		t.Error("Chord fired inside the debounce window")
	}
}

func TestNewChordRejectsUnknownKeys(t *testing.T) {
	if _, err := newChord("Ctrl+Bogus", nil); err == nil {
		t.Error("Expected error for unknown key name")
	}
	if _, err := newChord("", nil); err == nil {
		t.Error("Expected error for empty combination")
	}
}

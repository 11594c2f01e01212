// Package hotkey registers global key combinations through a low-level
// OS input hook (gohook). Callbacks run on the hook goroutine and must only
// do fast bookkeeping, typically a non-blocking channel send into the
// event loop.
package hotkey

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	gohook "github.com/robotn/gohook"
)

// retriggerInterval is the minimum time between accepted activations of the
// same combination. OS auto-repeat delivers key-down events far faster than
// a human can re-press a chord.
const retriggerInterval = 250 * time.Millisecond

// Binding associates a combination string like "Ctrl+Shift+Space" with a
// callback fired once per physical chord press.
type Binding struct {
	Combo     string
	OnTrigger func()
}

// Listener owns the gohook event stream and the chord state for every
// registered binding.
type Listener struct {
	mu     sync.Mutex
	chords []*chord
	events <-chan gohook.Event
	done   chan struct{}
}

// Listen validates the bindings, starts the global hook and dispatches
// chord activations. A binding that cannot be parsed disables only itself;
// Listen fails only when no binding is usable or the hook cannot start.
// Hook startup failure is fatal to hotkey capability, not to the process.
func Listen(bindings []Binding) (*Listener, error) {
	l := &Listener{done: make(chan struct{})}
	for _, b := range bindings {
		if b.Combo == "" {
			continue
		}
		c, err := newChord(b.Combo, b.OnTrigger)
		if err != nil {
			log.Printf("Hotkey: skipping %q: %v", b.Combo, err)
			continue
		}
		l.chords = append(l.chords, c)
	}
	if len(l.chords) == 0 {
		return nil, fmt.Errorf("no usable hotkey bindings")
	}

	events := gohook.Start()
	if events == nil {
		return nil, fmt.Errorf("global input hook failed to start")
	}
	l.events = events

	for _, c := range l.chords {
		log.Printf("Hotkey: listening for %s", c.combo)
	}

	go l.run()
	return l, nil
}

// Stop tears down the global hook.
func (l *Listener) Stop() {
	select {
	case <-l.done:
		return
	default:
	}
	close(l.done)
	gohook.End()
}

func (l *Listener) run() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in hotkey goroutine: %v", r)
		}
	}()

	for {
		select {
		case <-l.done:
			return
		case ev, ok := <-l.events:
			if !ok {
				log.Printf("Hotkey: event channel closed")
				return
			}
			if ev.Kind != gohook.KeyDown && ev.Kind != gohook.KeyUp {
				continue
			}
			l.handleKey(ev.Kind == gohook.KeyDown, ev.Rawcode)
		}
	}
}

func (l *Listener) handleKey(down bool, rawcode uint16) {
	var fire []func()

	l.mu.Lock()
	now := time.Now()
	for _, c := range l.chords {
		if down {
			if c.keyDown(rawcode, now) {
				log.Printf("Hotkey: %s activated", c.combo)
				fire = append(fire, c.onTrigger)
			}
		} else {
			c.keyUp(rawcode)
		}
	}
	l.mu.Unlock()

	// Callbacks run outside the lock so they cannot deadlock against the
	// next hook event.
	for _, f := range fire {
		if f != nil {
			f()
		}
	}
}

// chord tracks the pressed state of every key in one combination.
// It fires exactly once per physical press: after firing it latches until
// every key has been released, and a repeat within retriggerInterval is
// ignored even after release (debounce).
type chord struct {
	combo     string
	keys      []chordKey
	onTrigger func()
	latched   bool
	lastFire  time.Time
}

type chordKey struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

func newChord(combo string, onTrigger func()) (*chord, error) {
	c := &chord{combo: combo, onTrigger: onTrigger}
	for _, name := range parseCombo(combo) {
		rawcodes := rawcodesFor(name)
		if len(rawcodes) == 0 {
			return nil, fmt.Errorf("unknown key %q", name)
		}
		c.keys = append(c.keys, chordKey{name: name, rawcodes: rawcodes})
	}
	if len(c.keys) == 0 {
		return nil, fmt.Errorf("empty combination")
	}
	return c, nil
}

// keyDown records a key press and reports whether the chord fires.
func (c *chord) keyDown(rawcode uint16, now time.Time) bool {
	matched := false
	for i := range c.keys {
		if c.keys[i].matches(rawcode) {
			c.keys[i].pressed = true
			matched = true
		}
	}
	if !matched || c.latched {
		return false
	}
	for i := range c.keys {
		if !c.keys[i].pressed {
			return false
		}
	}
	c.latched = true
	if !c.lastFire.IsZero() && now.Sub(c.lastFire) < retriggerInterval {
		return false
	}
	c.lastFire = now
	return true
}

func (c *chord) keyUp(rawcode uint16) {
	for i := range c.keys {
		if c.keys[i].matches(rawcode) {
			c.keys[i].pressed = false
		}
	}
	if !c.latched {
		return
	}
	for i := range c.keys {
		if c.keys[i].pressed {
			return
		}
	}
	c.latched = false
}

func (k *chordKey) matches(rawcode uint16) bool {
	for _, rc := range k.rawcodes {
		if rc == rawcode {
			return true
		}
	}
	return false
}

// parseCombo splits "Ctrl+Alt+Q" into normalized lowercase key names.
func parseCombo(combo string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(combo), "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch part {
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}

// specialRawcodes maps non-alphanumeric key names to Windows virtual key
// codes. Modifiers carry both left and right variants.
var specialRawcodes = map[string][]uint16{
	"ctrl":      {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":       {164, 165}, // VK_LMENU, VK_RMENU
	"shift":     {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":       {91, 92},   // VK_LWIN, VK_RWIN
	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"del":       {46},
	"insert":    {45},
	"ins":       {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pgup":      {33},
	"pagedown":  {34},
	"pgdn":      {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

// rawcodesFor maps a normalized key name to its virtual key codes.
// Letters, digits and function keys are computed; everything else comes
// from the special table. Returns nil for unknown names.
func rawcodesFor(name string) []uint16 {
	name = strings.ToLower(strings.TrimSpace(name))
	if codes, ok := specialRawcodes[name]; ok {
		return codes
	}
	if len(name) == 1 {
		ch := name[0]
		switch {
		case ch >= 'a' && ch <= 'z':
			return []uint16{uint16(ch - 'a' + 0x41)} // VK_A..VK_Z
		case ch >= '0' && ch <= '9':
			return []uint16{uint16(ch - '0' + 0x30)} // VK_0..VK_9
		}
	}
	if len(name) >= 2 && name[0] == 'f' {
		var n int
		if _, err := fmt.Sscanf(name, "f%d", &n); err == nil && n >= 1 && n <= 24 {
			return []uint16{uint16(111 + n)} // VK_F1 = 112
		}
	}
	return nil
}

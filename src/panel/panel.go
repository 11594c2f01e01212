// Package panel is the passive results surface. The router drives it; it
// never feeds events back into the pipeline.
package panel

import "log"

// Panel shows recognition outcomes and dispatch status. All calls are
// fire-and-forget; the display manages its own lifetime.
type Panel interface {
	// ShowText displays recognized text after a successful text cycle.
	ShowText(text string)
	// ShowStatus displays a short status line (no match, dispatch failure).
	ShowStatus(status string)
	// Close dismisses the current display, if any.
	Close()
}

// New returns the platform panel implementation.
func New() Panel {
	return newPlatformPanel()
}

// logPanel writes outcomes to the log. Used on platforms without a native
// popup and as a fallback when window creation fails.
type logPanel struct{}

func (logPanel) ShowText(text string) {
	display := text
	if len(display) > 200 {
		display = display[:200] + "..."
	}
	log.Printf("Panel: %s", display)
}

func (logPanel) ShowStatus(status string) {
	log.Printf("Panel: %s", status)
}

func (logPanel) Close() {}

package clipboard

import (
	"sync"

	"golang.design/x/clipboard"
)

var (
	writeMu sync.Mutex
)

// Init must be called once before Write; it fails when no clipboard
// facility is available (e.g. headless session).
func Init() error {
	return clipboard.Init()
}

// Write performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func Write(text string) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// Read returns the current text clipboard content.
func Read() string {
	writeMu.Lock()
	defer writeMu.Unlock()
	return string(clipboard.Read(clipboard.FmtText))
}

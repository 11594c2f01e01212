// Package tray puts the capture tool in the system tray: an icon, a
// tooltip reflecting pipeline activity, and a small menu (capture, about,
// quit).
package tray

import (
	"log"
	"sync"

	"github.com/getlantern/systray"
)

// Config wires the tray to the rest of the application. OnCapture posts a
// capture trigger into the event loop; OnExit requests shutdown.
type Config struct {
	Title     string
	Tooltip   string
	AboutText string
	OnCapture func()
	OnExit    func()
}

type Tray struct {
	cfg     Config
	mu      sync.Mutex
	ready   bool
	pending string
}

func New(cfg Config) (*Tray, error) {
	return &Tray{cfg: cfg}, nil
}

// Run starts the tray loop. Blocks until Destroy or the quit menu item;
// callers run it on its own goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Destroy removes the tray icon and stops the loop.
func (t *Tray) Destroy() {
	systray.Quit()
}

// UpdateTooltip changes the hover text. Safe to call before the tray is
// ready; the latest value is applied once it is.
func (t *Tray) UpdateTooltip(tooltip string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		t.pending = tooltip
		return
	}
	systray.SetTooltip(tooltip)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes())
	systray.SetTitle(t.cfg.Title)
	systray.SetTooltip(t.cfg.Tooltip)

	t.mu.Lock()
	t.ready = true
	if t.pending != "" {
		systray.SetTooltip(t.pending)
		t.pending = ""
	}
	t.mu.Unlock()

	mCapture := systray.AddMenuItem("Capture region", "Select a region to search")
	mAbout := systray.AddMenuItem("About", "About this tool")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit the application")

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				if t.cfg.OnCapture != nil {
					t.cfg.OnCapture()
				}
			case <-mAbout.ClickedCh:
				showAbout(t.cfg.Title, t.cfg.AboutText)
			case <-mQuit.ClickedCh:
				systray.Quit()
			}
		}
	}()
}

func (t *Tray) onExit() {
	log.Printf("Tray: exiting")
	if t.cfg.OnExit != nil {
		t.cfg.OnExit()
	}
}

// Package search is the result router: it inspects a classified
// recognition result and drives the side effects (clipboard write, browser
// dispatch, panel update). Dispatch is fire-and-forget; failures surface on
// the panel and never propagate to the pipeline.
package search

import (
	"context"
	"fmt"
	"log"

	"circle-search/src/panel"
	"circle-search/src/recognize"
)

// ClipboardWriter is satisfied by the clipboard package.
type ClipboardWriter func(text string) error

// Router routes results to their side effects.
type Router struct {
	engine    string
	writeClip ClipboardWriter
	opener    Opener
	uploader  ImageUploader
	display   panel.Panel
}

// Config assembles a Router. Engine selects the text/image search engine
// ("google" or "bing").
type Config struct {
	Engine    string
	WriteClip ClipboardWriter
	Opener    Opener
	Uploader  ImageUploader
	Display   panel.Panel
}

func NewRouter(cfg Config) *Router {
	if cfg.Engine == "" {
		cfg.Engine = EngineGoogle
	}
	return &Router{
		engine:    cfg.Engine,
		writeClip: cfg.WriteClip,
		opener:    cfg.Opener,
		uploader:  cfg.Uploader,
		display:   cfg.Display,
	}
}

// Route performs the side effects for one result. It returns once dispatch
// is issued; the caller moves the pipeline back to Idle regardless of
// dispatch success.
func (r *Router) Route(ctx context.Context, res recognize.Result) {
	switch res.Kind {
	case recognize.KindText:
		r.routeText(res)
	case recognize.KindImage:
		r.routeImage(ctx, res)
	case recognize.KindEmpty:
		r.display.ShowStatus("Nothing recognized")
	default:
		log.Printf("Router: unknown result kind %v", res.Kind)
	}
}

func (r *Router) routeText(res recognize.Result) {
	log.Printf("Router: text result, %d characters", len(res.Text))

	if err := r.writeClip(res.Text); err != nil {
		// Clipboard trouble does not block the search dispatch.
		log.Printf("Router: clipboard write failed: %v", err)
		r.display.ShowStatus(fmt.Sprintf("Clipboard unavailable: %v", err))
	}

	searchURL := TextSearchURL(r.engine, res.Text)
	if err := r.opener.Open(searchURL); err != nil {
		log.Printf("Router: browser launch failed: %v", err)
		r.display.ShowStatus(fmt.Sprintf("Could not open browser: %v", err))
		return
	}
	r.display.ShowText(res.Text)
}

func (r *Router) routeImage(ctx context.Context, res recognize.Result) {
	log.Printf("Router: image result, %d bytes, region %s", len(res.PNG), res.Region)

	target := ImageSearchLanding(r.engine)
	if r.uploader != nil && len(res.PNG) > 0 {
		if resultsURL, err := r.uploader.Upload(ctx, res.PNG); err != nil {
			log.Printf("Router: image upload failed, falling back to landing page: %v", err)
		} else {
			target = resultsURL
		}
	}

	if err := r.opener.Open(target); err != nil {
		log.Printf("Router: browser launch failed: %v", err)
		r.display.ShowStatus(fmt.Sprintf("Could not open browser: %v", err))
		return
	}
	r.display.ShowStatus("Image search opened")
}

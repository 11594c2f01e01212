// Package engine defines the recognition engine contract. The engine is a
// black-box collaborator: it consumes an encoded pixel buffer and returns
// recognized text lines with confidences, or a non-text classification, or
// fails with a transient error. Calls carry non-trivial latency and must be
// invoked off the event loop.
package engine

import "context"

// Box is a line's bounding box inside the submitted image, in pixels.
type Box struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Line is one recognized text line.
type Line struct {
	Text       string
	Confidence float64
	Box        Box
}

// Output is the raw engine result before classification. NonText means the
// engine judged the region predominantly non-textual (a photo, a diagram);
// an empty Lines slice with NonText false means nothing was recognized.
type Output struct {
	Lines   []Line
	NonText bool
}

// Engine performs recognition on a PNG-encoded image.
type Engine interface {
	Recognize(ctx context.Context, imageData []byte) (Output, error)
}

package recognize

import (
	"sort"
	"strings"

	"circle-search/src/capture"
	"circle-search/src/engine"
)

// Kind classifies what a completed recognition produced.
type Kind int

const (
	// KindText means qualifying text lines were recognized.
	KindText Kind = iota
	// KindImage means the region is non-textual and should go to reverse
	// image search.
	KindImage
	// KindEmpty means nothing usable was captured or the engine failed.
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindImage:
		return "Image"
	case KindEmpty:
		return "Empty"
	default:
		return "Unknown"
	}
}

// Result is the immutable outcome of one recognition cycle.
type Result struct {
	Kind   Kind
	Text   string        // joined qualifying lines, KindText only
	Lines  []engine.Line // qualifying lines in reading order, KindText only
	Region capture.Region
	PNG    []byte // encoded source pixels, set for KindImage dispatch
}

// DefaultMinConfidence is the per-line threshold below which recognized
// text is treated as noise.
const DefaultMinConfidence = 0.30

// classify filters the raw engine output down to qualifying lines, orders
// them top-to-bottom then left-to-right, and joins them with newlines.
// No qualifying lines means the region is presumed graphical.
func classify(out engine.Output, minConfidence float64) (Kind, string, []engine.Line) {
	if out.NonText {
		return KindImage, "", nil
	}

	kept := make([]engine.Line, 0, len(out.Lines))
	for _, l := range out.Lines {
		if l.Confidence >= minConfidence {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return KindImage, "", nil
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Box.Y != kept[j].Box.Y {
			return kept[i].Box.Y < kept[j].Box.Y
		}
		return kept[i].Box.X < kept[j].Box.X
	})

	texts := make([]string, len(kept))
	for i, l := range kept {
		texts[i] = l.Text
	}
	return KindText, strings.Join(texts, "\n"), kept
}

package recognize

import (
	"testing"

	"circle-search/src/engine"
)

func TestClassifyOrdersAndJoinsLines(t *testing.T) {
	out := engine.Output{Lines: []engine.Line{
		{Text: "world", Confidence: 0.9, Box: engine.Box{X: 2, Y: 18}},
		{Text: "hello", Confidence: 0.95, Box: engine.Box{X: 2, Y: 3}},
		{Text: "right", Confidence: 0.8, Box: engine.Box{X: 60, Y: 18}},
	}}

	kind, text, lines := classify(out, DefaultMinConfidence)
	if kind != KindText {
		t.Fatalf("kind = %v, want Text", kind)
	}
	if text != "hello\nworld\nright" {
		t.Errorf("text = %q, want lines in reading order", text)
	}
	if len(lines) != 3 || lines[0].Text != "hello" {
		t.Errorf("lines out of order: %+v", lines)
	}
}

func TestClassifyAppliesThreshold(t *testing.T) {
	out := engine.Output{Lines: []engine.Line{
		{Text: "noise", Confidence: 0.1},
		{Text: "kept", Confidence: 0.31},
		{Text: "faint", Confidence: 0.29},
	}}

	kind, text, lines := classify(out, DefaultMinConfidence)
	if kind != KindText {
		t.Fatalf("kind = %v, want Text", kind)
	}
	if text != "kept" {
		t.Errorf("text = %q, want only the qualifying line", text)
	}
	if len(lines) != 1 {
		t.Errorf("got %d lines, want 1", len(lines))
	}
}

func TestClassifyExactThresholdQualifies(t *testing.T) {
	out := engine.Output{Lines: []engine.Line{{Text: "edge", Confidence: 0.30}}}
	kind, text, _ := classify(out, 0.30)
	if kind != KindText || text != "edge" {
		t.Errorf("line at exactly the threshold should qualify, got kind=%v text=%q", kind, text)
	}
}

func TestClassifyNonTextIsImage(t *testing.T) {
	kind, _, _ := classify(engine.Output{NonText: true}, DefaultMinConfidence)
	if kind != KindImage {
		t.Errorf("kind = %v, want Image", kind)
	}
}

func TestClassifyAllBelowThresholdIsImage(t *testing.T) {
	out := engine.Output{Lines: []engine.Line{
		{Text: "a", Confidence: 0.05},
		{Text: "b", Confidence: 0.2},
	}}
	kind, _, _ := classify(out, DefaultMinConfidence)
	if kind != KindImage {
		t.Errorf("kind = %v, want Image when nothing qualifies", kind)
	}
}

func TestClassifyNoLinesIsImage(t *testing.T) {
	kind, _, _ := classify(engine.Output{}, DefaultMinConfidence)
	if kind != KindImage {
		t.Errorf("kind = %v, want Image", kind)
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{KindText: "Text", KindImage: "Image", KindEmpty: "Empty", Kind(42): "Unknown"}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}

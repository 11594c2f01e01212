package tray

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"testing"
)

func TestRenderIconPNGDecodes(t *testing.T) {
	data := renderIconPNG()
	if len(data) == 0 {
		t.Fatal("renderIconPNG returned no data")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Icon is not valid PNG: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != iconSize || b.Dy() != iconSize {
		t.Errorf("Icon is %dx%d, want %dx%d", b.Dx(), b.Dy(), iconSize, iconSize)
	}
}

func TestWrapPNGInICO(t *testing.T) {
	pngData := renderIconPNG()
	ico := wrapPNGInICO(pngData)

	if len(ico) != 22+len(pngData) {
		t.Fatalf("ICO length = %d, want header+entry+png = %d", len(ico), 22+len(pngData))
	}
	if binary.LittleEndian.Uint16(ico[2:4]) != 1 {
		t.Error("ICO type should be 1 (icon)")
	}
	if binary.LittleEndian.Uint16(ico[4:6]) != 1 {
		t.Error("ICO should contain exactly one image")
	}
	offset := binary.LittleEndian.Uint32(ico[18:22])
	if offset != 22 {
		t.Errorf("Image offset = %d, want 22", offset)
	}
	if _, err := png.Decode(bytes.NewReader(ico[offset:])); err != nil {
		t.Errorf("Embedded image is not valid PNG: %v", err)
	}
}

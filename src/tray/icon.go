package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"
)

const iconSize = 16

// iconBytes renders the tray icon at runtime: a circle with a short handle,
// a magnifier over a selection. Windows wants an ICO; since Vista an ICO
// may embed a PNG directly, so the same rendered image serves both formats.
func iconBytes() []byte {
	pngData := renderIconPNG()
	if runtime.GOOS == "windows" {
		return wrapPNGInICO(pngData)
	}
	return pngData
}

func renderIconPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))

	ring := color.RGBA{0x00, 0x78, 0xD4, 0xFF}
	handle := color.RGBA{0x33, 0x33, 0x33, 0xFF}

	// Circle outline centered at (6.5, 6.5), radius 5.
	const cx, cy, r = 6.5, 6.5, 5.0
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			d2 := dx*dx + dy*dy
			if d2 >= (r-1)*(r-1) && d2 <= (r+0.5)*(r+0.5) {
				img.SetRGBA(x, y, ring)
			}
		}
	}
	// Handle from the lower-right of the ring to the corner.
	for i := 0; i < 5; i++ {
		x := 10 + i
		y := 10 + i
		if x < iconSize && y < iconSize {
			img.SetRGBA(x, y, handle)
			if x+1 < iconSize {
				img.SetRGBA(x+1, y, handle)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

// wrapPNGInICO builds a single-image ICO container around PNG data.
func wrapPNGInICO(pngData []byte) []byte {
	var buf bytes.Buffer

	// ICONDIR: reserved, type 1 (icon), count 1.
	binary.Write(&buf, binary.LittleEndian, uint16(0))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))

	// ICONDIRENTRY.
	buf.WriteByte(iconSize) // width
	buf.WriteByte(iconSize) // height
	buf.WriteByte(0)        // palette colors
	buf.WriteByte(0)        // reserved
	binary.Write(&buf, binary.LittleEndian, uint16(1))             // planes
	binary.Write(&buf, binary.LittleEndian, uint16(32))            // bit count
	binary.Write(&buf, binary.LittleEndian, uint32(len(pngData)))  // image size
	binary.Write(&buf, binary.LittleEndian, uint32(6+16))          // image offset

	buf.Write(pngData)
	return buf.Bytes()
}

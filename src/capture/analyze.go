package capture

import "image"

// uniformTolerance is the per-channel delta below which two samples are
// considered the same color. Screen captures of flat fills still carry a
// little compositor noise, so exact equality is too strict.
const uniformTolerance = 3

// IsUniform reports whether the image is effectively a single flat color,
// i.e. carries no content signal. A uniform capture has nothing for either
// text recognition or reverse-image search to work with.
func IsUniform(img *image.RGBA) bool {
	if img == nil {
		return true
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return true
	}
	base := img.RGBAAt(b.Min.X, b.Min.Y)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p := img.RGBAAt(x, y)
			if absDiff(p.R, base.R) > uniformTolerance ||
				absDiff(p.G, base.G) > uniformTolerance ||
				absDiff(p.B, base.B) > uniformTolerance {
				return false
			}
		}
	}
	return true
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

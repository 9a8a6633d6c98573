package cv

import (
	"image"
	"image/draw"
)

// Pixels is a read-only view over an RGBA frame.
// Coordinates are relative to the frame origin.
type Pixels struct {
	pix    []uint8
	stride int
	width  int
	height int
}

// NewPixels wraps a frame. A nil frame yields an empty view.
func NewPixels(img *image.RGBA) Pixels {
	if img == nil {
		return Pixels{}
	}
	b := img.Bounds()
	return Pixels{
		pix:    img.Pix,
		stride: img.Stride,
		width:  b.Dx(),
		height: b.Dy(),
	}
}

// Width returns the frame width
func (p Pixels) Width() int {
	return p.width
}

// Height returns the frame height
func (p Pixels) Height() int {
	return p.height
}

// Bounds returns the frame rectangle anchored at the origin
func (p Pixels) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// RGB returns the color at (x, y), or black when out of range
func (p Pixels) RGB(x, y int) (r, g, b uint8) {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return 0, 0, 0
	}
	idx := y*p.stride + x*4
	if idx+2 >= len(p.pix) {
		return 0, 0, 0
	}
	return p.pix[idx], p.pix[idx+1], p.pix[idx+2]
}

// EnsureRGBA converts any image into an *image.RGBA anchored at the origin
func EnsureRGBA(img image.Image) *image.RGBA {
	if img == nil {
		return nil
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

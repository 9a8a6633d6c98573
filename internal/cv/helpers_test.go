package cv

import (
	"image"
	"image/color"
	"image/draw"
)

func solidFrame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

var (
	black  = color.RGBA{0, 0, 0, 255}
	white  = color.RGBA{255, 255, 255, 255}
	gray   = color.RGBA{128, 128, 128, 255}
	purple = color.RGBA{200, 50, 200, 255}
	red    = color.RGBA{220, 30, 30, 255}
	blue   = color.RGBA{40, 60, 220, 255}
	cyan   = color.RGBA{60, 170, 210, 255}
)

func approxEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

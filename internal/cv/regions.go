package cv

import (
	"image"
	"math"
)

// Roi is a region of interest in normalized frame coordinates
type Roi struct {
	X      float32 `yaml:"x"`
	Y      float32 `yaml:"y"`
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
}

// NewRoi creates a new normalized region
func NewRoi(x, y, width, height float32) Roi {
	return Roi{X: x, Y: y, Width: width, Height: height}
}

// FullFrame covers the whole frame
func FullFrame() Roi {
	return Roi{X: 0, Y: 0, Width: 1, Height: 1}
}

// Rect converts the region to pixels for a frame of the given size.
// The origin is clamped inside the frame and the extent to the frame edge,
// so the result may be empty but never reaches outside the frame.
func (r Roi) Rect(frameWidth, frameHeight int) image.Rectangle {
	if frameWidth <= 0 || frameHeight <= 0 {
		return image.Rectangle{}
	}

	x := clampInt(roundInt(float64(r.X)*float64(frameWidth)), 0, frameWidth-1)
	y := clampInt(roundInt(float64(r.Y)*float64(frameHeight)), 0, frameHeight-1)
	w := roundInt(float64(r.Width) * float64(frameWidth))
	h := roundInt(float64(r.Height) * float64(frameHeight))

	right := clampInt(x+w, 0, frameWidth)
	bottom := clampInt(y+h, 0, frameHeight)
	if right < x {
		right = x
	}
	if bottom < y {
		bottom = y
	}

	return image.Rect(x, y, right, bottom)
}

// Point01 is a normalized frame position
type Point01 struct {
	X float32
	Y float32
}

// roundInt rounds half to even for every pixel coordinate and size
func roundInt(v float64) int {
	return int(math.RoundToEven(v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

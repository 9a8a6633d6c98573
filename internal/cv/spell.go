package cv

import (
	"image"
)

// LogBlobSettings tunes the rolling log detector
type LogBlobSettings struct {
	Roi           Roi
	DiffThreshold int
	MinArea       int
	MaxArea       int
	MinAspect     float64
}

// FireballBlobSettings tunes the fireball flash detector
type FireballBlobSettings struct {
	Roi            Roi
	WhiteThreshold int
	MinArea        int
	MaxArea        int
	MinAspect      float64
	MaxAspect      float64
}

// Thin-bar limits for the log footprint
const (
	logMaxThinSide = 6
	logMinLongSide = 20
)

// DetectLogBlob finds the largest thin horizontal or vertical band of change between two frames.
// Frames of different sizes never match.
func DetectLogBlob(prev, curr *image.RGBA, s LogBlobSettings) (Point01, bool) {
	if prev == nil || curr == nil || prev.Bounds().Size() != curr.Bounds().Size() {
		return Point01{}, false
	}

	p, c := NewPixels(prev), NewPixels(curr)
	rect := s.Roi.Rect(c.Width(), c.Height()).Intersect(c.Bounds())
	if rect.Empty() {
		return Point01{}, false
	}

	mask := newPixelMask(rect)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			pr, pg, pb := p.RGB(x, y)
			cr, cg, cb := c.RGB(x, y)
			diff := (absDiff(pr, cr) + absDiff(pg, cg) + absDiff(pb, cb)) / 3
			if diff >= s.DiffThreshold {
				mask.set(x, y)
			}
		}
	}

	best, ok := largestBlob(mask.blobs(), func(b Blob) bool {
		return acceptLogBlob(b.Width(), b.Height(), b.Area, s)
	})
	if !ok {
		return Point01{}, false
	}
	return best.Center(c.Width(), c.Height()), true
}

func acceptLogBlob(w, h, area int, s LogBlobSettings) bool {
	if area < s.MinArea || area > s.MaxArea {
		return false
	}
	minSide, maxSide := min(w, h), max(w, h)
	if minSide <= 0 || minSide > logMaxThinSide || maxSide < logMinLongSide {
		return false
	}
	return float64(maxSide)/float64(minSide) >= s.MinAspect
}

// DetectFireballBlob finds the largest near-square bright patch in one frame
func DetectFireballBlob(frame *image.RGBA, s FireballBlobSettings) (Point01, bool) {
	if frame == nil {
		return Point01{}, false
	}

	px := NewPixels(frame)
	rect := s.Roi.Rect(px.Width(), px.Height()).Intersect(px.Bounds())
	if rect.Empty() {
		return Point01{}, false
	}

	mask := newPixelMask(rect)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r, g, b := px.RGB(x, y)
			if (int(r)+int(g)+int(b))/3 >= s.WhiteThreshold {
				mask.set(x, y)
			}
		}
	}

	best, ok := largestBlob(mask.blobs(), func(b Blob) bool {
		return acceptFireballBlob(b.Width(), b.Height(), b.Area, s)
	})
	if !ok {
		return Point01{}, false
	}
	return best.Center(px.Width(), px.Height()), true
}

func acceptFireballBlob(w, h, area int, s FireballBlobSettings) bool {
	if area < s.MinArea || area > s.MaxArea || h <= 0 {
		return false
	}
	aspect := float64(w) / float64(h)
	return aspect >= s.MinAspect && aspect <= s.MaxAspect
}

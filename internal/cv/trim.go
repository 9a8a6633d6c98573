package cv

import (
	"image"
	"image/draw"
)

// FrameCrop is the number of pixels removed from each edge
type FrameCrop struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// IsEmpty reports whether nothing is cropped
func (c FrameCrop) IsEmpty() bool {
	return c == FrameCrop{}
}

// TrimSettings configures black bar detection
type TrimSettings struct {
	Enabled         bool
	BlackThreshold  uint8
	SampleStride    int
	MinBlackRatio   float32
	MaxTrimRatio    float32
	MinContentWidth int
}

// DefaultTrimSettings returns disabled trimming with the reference thresholds
func DefaultTrimSettings() TrimSettings {
	return TrimSettings{
		Enabled:         false,
		BlackThreshold:  16,
		SampleStride:    8,
		MinBlackRatio:   0.90,
		MaxTrimRatio:    0.20,
		MinContentWidth: 200,
	}
}

// DetectLeftRightCrop measures black pillar-box bars on both sides
func DetectLeftRightCrop(frame *image.RGBA, s TrimSettings) (FrameCrop, bool) {
	if !s.Enabled || frame == nil {
		return FrameCrop{}, false
	}

	px := NewPixels(frame)
	width := px.Width()
	if width <= 0 || px.Height() <= 0 {
		return FrameCrop{}, false
	}

	maxTrim := int(float64(width) * float64(s.MaxTrimRatio))
	if maxTrim <= 0 {
		return FrameCrop{}, false
	}
	maxTrim = min(maxTrim, width/2)
	stride := max(1, s.SampleStride)

	left := 0
	for x := 0; x < maxTrim && isBlackColumn(px, x, stride, s); x++ {
		left++
	}
	right := 0
	for x := width - 1; x >= width-maxTrim && isBlackColumn(px, x, stride, s); x-- {
		right++
	}

	if left == 0 && right == 0 {
		return FrameCrop{}, false
	}
	content := width - left - right
	if content <= 0 || content < s.MinContentWidth {
		return FrameCrop{}, false
	}

	return FrameCrop{Left: left, Right: right}, true
}

func isBlackColumn(px Pixels, x, stride int, s TrimSettings) bool {
	black, total := 0, 0
	for y := 0; y < px.Height(); y += stride {
		r, g, b := px.RGB(x, y)
		if r <= s.BlackThreshold && g <= s.BlackThreshold && b <= s.BlackThreshold {
			black++
		}
		total++
	}
	if total == 0 {
		return false
	}
	return float32(black)/float32(total) >= s.MinBlackRatio
}

// ApplyCrop copies the frame without the cropped edges
func ApplyCrop(frame *image.RGBA, crop FrameCrop) *image.RGBA {
	if frame == nil {
		return nil
	}
	b := frame.Bounds()
	src := image.Rect(b.Min.X+crop.Left, b.Min.Y+crop.Top, b.Max.X-crop.Right, b.Max.Y-crop.Bottom).Intersect(b)

	out := image.NewRGBA(image.Rect(0, 0, src.Dx(), src.Dy()))
	draw.Draw(out, out.Bounds(), frame, src.Min, draw.Src)
	return out
}

package cv

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// ScreenCapturer grabs a fixed rectangle of one display
type ScreenCapturer struct {
	bounds image.Rectangle
}

// NewScreenCapturer captures region on the given display, or the whole display when region is empty
func NewScreenCapturer(display int, region image.Rectangle) (*ScreenCapturer, error) {
	count := screenshot.NumActiveDisplays()
	if display < 0 || display >= count {
		return nil, fmt.Errorf("display %d not available (%d active)", display, count)
	}

	bounds := screenshot.GetDisplayBounds(display)
	if !region.Empty() {
		bounds = region.Add(bounds.Min).Intersect(bounds)
		if bounds.Empty() {
			return nil, fmt.Errorf("capture region %v is outside display %d", region, display)
		}
	}

	return &ScreenCapturer{bounds: bounds}, nil
}

// CaptureFrame grabs the current screen contents
func (s *ScreenCapturer) CaptureFrame() (*image.RGBA, error) {
	img, err := screenshot.CaptureRect(s.bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screen: %w", err)
	}
	return EnsureRGBA(img), nil
}

// GetDimensions returns the capture size
func (s *ScreenCapturer) GetDimensions() (width, height int) {
	return s.bounds.Dx(), s.bounds.Dy()
}

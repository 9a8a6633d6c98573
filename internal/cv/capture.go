package cv

import (
	"fmt"
	"image"
)

// Capturer interface for different capture methods
type Capturer interface {
	CaptureFrame() (*image.RGBA, error)
	GetDimensions() (width, height int)
}

// CaptureMethod defines how frames are captured
type CaptureMethod int

const (
	// CaptureMethodScreen grabs a rectangle of a display
	CaptureMethodScreen CaptureMethod = iota
	// CaptureMethodReplay plays back saved frames from a directory
	CaptureMethodReplay
)

// ParseCaptureMethod maps a config string to a capture method
func ParseCaptureMethod(s string) (CaptureMethod, error) {
	switch s {
	case "", "screen":
		return CaptureMethodScreen, nil
	case "replay":
		return CaptureMethodReplay, nil
	default:
		return CaptureMethodScreen, fmt.Errorf("unknown capture method %q", s)
	}
}

// CaptureConfig holds configuration for frame capture
type CaptureConfig struct {
	Method    CaptureMethod
	Display   int             // Display index for screen capture
	Region    image.Rectangle // Empty = whole display
	ReplayDir string          // Frames directory for replay
	Loop      bool            // Restart replay at the end
}

// DefaultCaptureConfig returns recommended capture configuration
func DefaultCaptureConfig() *CaptureConfig {
	return &CaptureConfig{
		Method:  CaptureMethodScreen,
		Display: 0,
	}
}

// NewCapturer builds the capturer selected by config
func NewCapturer(config *CaptureConfig) (Capturer, error) {
	if config == nil {
		config = DefaultCaptureConfig()
	}

	switch config.Method {
	case CaptureMethodScreen:
		return NewScreenCapturer(config.Display, config.Region)
	case CaptureMethodReplay:
		return NewReplaySource(config.ReplayDir, config.Loop)
	default:
		return nil, fmt.Errorf("unsupported capture method %d", config.Method)
	}
}

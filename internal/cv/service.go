package cv

import (
	"fmt"
	"image"
	"sync"
)

// FramePair is the previous and current frame of one tick
type FramePair struct {
	Prev *image.RGBA
	Curr *image.RGBA
	Crop FrameCrop
}

// HasPrev reports whether a previous frame exists with matching size
func (p FramePair) HasPrev() bool {
	return p.Prev != nil && p.Curr != nil && p.Prev.Bounds().Size() == p.Curr.Bounds().Size()
}

// Service captures frames and keeps the previous one for diff-based detectors.
// Only the fixed title bar is cut from live frames; black bar trimming
// belongs to the frame saver so the analysed size never changes between ticks.
type Service struct {
	capturer Capturer

	// Title bar exclusion
	titleBarHeight int // Pixels to exclude from top of window

	prev *image.RGBA

	mu sync.Mutex
}

// NewService creates a new CV service
func NewService(capturer Capturer) *Service {
	return &Service{capturer: capturer}
}

// SetTitleBarHeight updates the title bar exclusion height
func (s *Service) SetTitleBarHeight(height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titleBarHeight = max(0, height)
}

// Next captures a frame and pairs it with the previous one.
// On failure the previous frame is left untouched.
func (s *Service) Next() (FramePair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame, err := s.capturer.CaptureFrame()
	if err != nil {
		return FramePair{}, fmt.Errorf("failed to capture frame: %w", err)
	}
	if frame == nil {
		return FramePair{}, fmt.Errorf("failed to capture frame: %w", ErrNilFrame)
	}

	crop := FrameCrop{Top: s.titleBarHeight}
	if !crop.IsEmpty() {
		frame = ApplyCrop(frame, crop)
	} else {
		frame = EnsureRGBA(frame)
	}

	pair := FramePair{Prev: s.prev, Curr: frame, Crop: crop}
	s.prev = frame
	return pair, nil
}

// Reset drops the previous frame
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prev = nil
}

// GetDimensions returns the capture dimensions
func (s *Service) GetDimensions() (width, height int) {
	return s.capturer.GetDimensions()
}

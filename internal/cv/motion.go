package cv

import (
	"errors"
	"fmt"
	"image"

	"jordanella.com/royale-coach/internal/game"
)

var (
	ErrFrameSizeMismatch = errors.New("frame size mismatch")
	ErrNilFrame          = errors.New("nil frame")
)

// MotionSettings configures the motion analyzer
type MotionSettings struct {
	Roi              Roi
	Step             int
	DiffThreshold    int
	TriggerThreshold int64
	SplitX           float32
}

// DefaultMotionSettings returns the reference tuning
func DefaultMotionSettings() MotionSettings {
	return MotionSettings{
		Roi:              NewRoi(0, 0.46, 1, 0.44),
		Step:             6,
		DiffThreshold:    60,
		TriggerThreshold: 90,
		SplitX:           0.5,
	}
}

// MotionAnalyzer counts changed samples between two frames on each side of a split line
type MotionAnalyzer struct {
	settings MotionSettings
}

// NewMotionAnalyzer creates an analyzer
func NewMotionAnalyzer(settings MotionSettings) *MotionAnalyzer {
	if settings.Step < 1 {
		settings.Step = 1
	}
	return &MotionAnalyzer{settings: settings}
}

// Analyze compares prev and curr inside the region of interest.
// Frames must have identical dimensions.
func (a *MotionAnalyzer) Analyze(prev, curr *image.RGBA) (game.MotionResult, error) {
	if prev == nil || curr == nil {
		return game.MotionResult{}, ErrNilFrame
	}

	prevSize := prev.Bounds().Size()
	currSize := curr.Bounds().Size()
	if prevSize != currSize {
		return game.MotionResult{}, fmt.Errorf("%w: %dx%d vs %dx%d",
			ErrFrameSizeMismatch, prevSize.X, prevSize.Y, currSize.X, currSize.Y)
	}

	rect := a.settings.Roi.Rect(currSize.X, currSize.Y)
	if rect.Empty() {
		return game.MotionResult{}, nil
	}

	p := NewPixels(prev)
	c := NewPixels(curr)
	step := a.settings.Step
	splitX := roundInt(float64(rect.Dx()) * float64(a.settings.SplitX))

	var left, right int64
	for y := rect.Min.Y; y < rect.Max.Y; y += step {
		for x := rect.Min.X; x < rect.Max.X; x += step {
			pr, pg, pb := p.RGB(x, y)
			cr, cg, cb := c.RGB(x, y)

			diff := absDiff(pr, cr) + absDiff(pg, cg) + absDiff(pb, cb)
			if diff < a.settings.DiffThreshold {
				continue
			}

			if x-rect.Min.X < splitX {
				left++
			} else {
				right++
			}
		}
	}

	return game.MotionResult{
		Left:    left,
		Right:   right,
		Trigger: left+right >= a.settings.TriggerThreshold,
	}, nil
}

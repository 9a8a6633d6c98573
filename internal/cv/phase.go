package cv

import (
	"image"

	"jordanella.com/royale-coach/internal/game"
)

// PhaseSettings configures the match clock reader
type PhaseSettings struct {
	Roi             Roi
	WhiteThreshold  int
	MinWhiteRatio   float32
	EarlyWhiteRatio float32
}

// DefaultPhaseSettings returns the reference tuning
func DefaultPhaseSettings() PhaseSettings {
	return PhaseSettings{
		Roi:             NewRoi(0.78, 0.02, 0.20, 0.10),
		WhiteThreshold:  210,
		MinWhiteRatio:   0.01,
		EarlyWhiteRatio: 0.05,
	}
}

// PhaseEstimator classifies the match phase from the share of white clock pixels
type PhaseEstimator struct {
	settings PhaseSettings
}

// NewPhaseEstimator creates an estimator
func NewPhaseEstimator(settings PhaseSettings) *PhaseEstimator {
	return &PhaseEstimator{settings: settings}
}

// Estimate returns the phase for one frame.
// Ratios between the min and early thresholds stay Unknown.
func (p *PhaseEstimator) Estimate(frame *image.RGBA) game.MatchClockState {
	unknown := game.MatchClockState{Phase: game.PhaseUnknown}
	if frame == nil {
		return unknown
	}

	px := NewPixels(frame)
	rect := p.settings.Roi.Rect(px.Width(), px.Height())
	if rect.Empty() {
		return unknown
	}

	ratio := p.whiteRatio(px, rect)

	phase := game.PhaseUnknown
	if ratio >= float64(p.settings.EarlyWhiteRatio) && ratio >= float64(p.settings.MinWhiteRatio) {
		phase = game.PhaseEarly
	}

	return game.MatchClockState{Phase: phase, Confidence: float32(p.confidence(ratio))}
}

func (p *PhaseEstimator) whiteRatio(px Pixels, rect image.Rectangle) float64 {
	white, total := 0, 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r, g, b := px.RGB(x, y)
			gray := (int(r) + int(g) + int(b)) / 3
			if gray >= p.settings.WhiteThreshold {
				white++
			}
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(white) / float64(total)
}

func (p *PhaseEstimator) confidence(ratio float64) float64 {
	lo := float64(p.settings.MinWhiteRatio)
	hi := float64(p.settings.EarlyWhiteRatio)
	if ratio < lo || hi <= lo {
		return 0
	}
	return clamp01((ratio - lo) / (hi - lo))
}

package cv

import (
	"image"
	"math"

	"jordanella.com/royale-coach/internal/game"
)

// ElixirSettings configures the elixir bar estimator
type ElixirSettings struct {
	Roi             Roi
	SampleStep      int
	PurpleRMin      uint8
	PurpleGMax      uint8
	PurpleBMin      uint8
	PurpleRBMaxDiff int
	SmoothingWindow int
	EmptyBaseline   float32
	FullBaseline    float32
}

// DefaultElixirSettings returns the reference tuning
func DefaultElixirSettings() ElixirSettings {
	return ElixirSettings{
		Roi:             NewRoi(0.08, 0.975, 0.88, 0.02),
		SampleStep:      6,
		PurpleRMin:      120,
		PurpleGMax:      90,
		PurpleBMin:      120,
		PurpleRBMaxDiff: 60,
		SmoothingWindow: 5,
		EmptyBaseline:   0.08,
		FullBaseline:    0.79,
	}
}

// ElixirEstimator reads the elixir bar fill level.
// It keeps a moving average over the last SmoothingWindow readings and
// must be driven by a single caller.
type ElixirEstimator struct {
	settings ElixirSettings

	history []float64
	head    int
	count   int
	sum     float64
}

// NewElixirEstimator creates an estimator with an empty smoothing window
func NewElixirEstimator(settings ElixirSettings) *ElixirEstimator {
	if settings.SampleStep < 1 {
		settings.SampleStep = 1
	}
	e := &ElixirEstimator{settings: settings}
	if settings.SmoothingWindow > 1 {
		e.history = make([]float64, settings.SmoothingWindow)
	}
	return e
}

// Estimate samples the bar's middle row and returns the smoothed reading
func (e *ElixirEstimator) Estimate(frame *image.RGBA) game.ElixirResult {
	if frame == nil {
		return game.ElixirResult{}
	}

	px := NewPixels(frame)
	rect := e.settings.Roi.Rect(px.Width(), px.Height())
	if rect.Empty() {
		return game.ElixirResult{}
	}

	raw := e.sampleRatio(px, rect)
	smoothed := e.smooth(e.normalize(raw))

	elixir := int(math.Round(smoothed * 10))
	elixir = clampInt(elixir, 0, 10)

	return game.ElixirResult{Filled: float32(smoothed), Elixir: elixir}
}

// Reset clears the smoothing window
func (e *ElixirEstimator) Reset() {
	e.head, e.count, e.sum = 0, 0, 0
}

func (e *ElixirEstimator) sampleRatio(px Pixels, rect image.Rectangle) float64 {
	y := rect.Min.Y + rect.Dy()/2

	hits, samples := 0, 0
	for x := rect.Min.X; x < rect.Max.X; x += e.settings.SampleStep {
		r, g, b := px.RGB(x, y)
		samples++
		if e.isPurple(r, g, b) {
			hits++
		}
	}

	if samples == 0 {
		return 0
	}
	return float64(hits) / float64(samples)
}

func (e *ElixirEstimator) isPurple(r, g, b uint8) bool {
	s := e.settings
	return r >= s.PurpleRMin &&
		b >= s.PurpleBMin &&
		g <= s.PurpleGMax &&
		absDiff(r, b) <= s.PurpleRBMaxDiff
}

func (e *ElixirEstimator) normalize(raw float64) float64 {
	empty := float64(e.settings.EmptyBaseline)
	full := float64(e.settings.FullBaseline)
	if full <= empty+0.001 {
		return clamp01(raw)
	}
	return clamp01((raw - empty) / (full - empty))
}

func (e *ElixirEstimator) smooth(value float64) float64 {
	if len(e.history) == 0 {
		return value
	}

	if e.count == len(e.history) {
		e.sum -= e.history[e.head]
	} else {
		e.count++
	}
	e.history[e.head] = value
	e.sum += value
	e.head = (e.head + 1) % len(e.history)

	return e.sum / float64(e.count)
}

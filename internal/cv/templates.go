package cv

import (
	"fmt"
	"image"
)

// CardTemplate is a card image pre-sampled to a Size×Size luma grid
type CardTemplate struct {
	ID      string
	Cost    int
	Size    int
	Samples []uint8
}

// NewCardTemplate samples the whole image into a template grid.
// sampleSize below 4 is raised to 4.
func NewCardTemplate(id string, cost int, img image.Image, sampleSize int) (CardTemplate, error) {
	if img == nil {
		return CardTemplate{}, fmt.Errorf("failed to build template %q: %w", id, ErrNilFrame)
	}
	n := gridSize(sampleSize)

	rgba := EnsureRGBA(img)
	px := NewPixels(rgba)
	samples := sampleGrid(px, px.Bounds(), n)
	if samples == nil {
		return CardTemplate{}, fmt.Errorf("failed to build template %q: empty image", id)
	}

	return CardTemplate{ID: id, Cost: cost, Size: n, Samples: samples}, nil
}

// WithCost returns a copy with the given cost
func (t CardTemplate) WithCost(cost int) CardTemplate {
	t.Cost = cost
	return t
}

func gridSize(sampleSize int) int {
	if sampleSize < 4 {
		return 4
	}
	return sampleSize
}

package cv

import (
	"image"

	"jordanella.com/royale-coach/internal/game"
)

// CardSettings configures hand recognition
type CardSettings struct {
	HandRoi     Roi
	SlotCount   int
	SlotPadding float32
	SampleSize  int
	MinScore    float32
}

// DefaultCardSettings returns the reference tuning
func DefaultCardSettings() CardSettings {
	return CardSettings{
		HandRoi:     NewRoi(0.05, 0.90, 0.90, 0.09),
		SlotCount:   4,
		SlotPadding: 0.08,
		SampleSize:  24,
		MinScore:    0.70,
	}
}

// CardRecognizer identifies the card in each hand slot by nearest template.
// Templates are fixed at construction and only read afterwards.
type CardRecognizer struct {
	settings  CardSettings
	templates []CardTemplate
}

// NewCardRecognizer creates a recognizer over a fixed template set
func NewCardRecognizer(settings CardSettings, templates []CardTemplate) *CardRecognizer {
	if settings.SlotCount < 1 {
		settings.SlotCount = 1
	}
	settings.SampleSize = gridSize(settings.SampleSize)

	return &CardRecognizer{
		settings:  settings,
		templates: append([]CardTemplate(nil), templates...),
	}
}

// TemplateCount returns the number of loaded templates
func (c *CardRecognizer) TemplateCount() int {
	return len(c.templates)
}

// Recognize reads every hand slot from the frame
func (c *CardRecognizer) Recognize(frame *image.RGBA) game.HandState {
	if frame == nil || len(c.templates) == 0 {
		return game.EmptyHand()
	}

	px := NewPixels(frame)
	hand := c.settings.HandRoi.Rect(px.Width(), px.Height())
	if hand.Empty() {
		return game.EmptyHand()
	}

	slots := c.SlotRects(hand)
	state := game.HandState{
		Slots:       make([]string, len(slots)),
		Costs:       make([]int, len(slots)),
		Confidences: make([]float32, len(slots)),
	}

	n := c.settings.SampleSize
	minScore := float64(c.settings.MinScore)
	for i, rect := range slots {
		grid := sampleGrid(px, rect, n)
		match := BestMatch(grid, n, c.templates, minScore)

		state.Costs[i] = -1
		if match.Score > 0 {
			state.Confidences[i] = float32(match.Score)
		}
		if match.Found {
			state.Slots[i] = match.ID
			state.Costs[i] = match.Cost
		}
	}

	return state
}

// SlotRects splits the hand region into padded slot rectangles
func (c *CardRecognizer) SlotRects(hand image.Rectangle) []image.Rectangle {
	count := c.settings.SlotCount
	slotW := hand.Dx() / count
	slotH := hand.Dy()

	pad := roundInt(float64(min(slotW, slotH)) * float64(c.settings.SlotPadding))
	w := max(1, slotW-2*pad)
	h := max(1, slotH-2*pad)

	rects := make([]image.Rectangle, count)
	for i := 0; i < count; i++ {
		x := hand.Min.X + i*slotW + pad
		y := hand.Min.Y + pad
		rects[i] = image.Rect(x, y, x+w, y+h)
	}
	return rects
}

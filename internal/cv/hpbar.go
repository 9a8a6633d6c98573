package cv

import (
	"image"

	"jordanella.com/royale-coach/internal/game"
)

// HpBarDetection holds the unit markers found on one frame
type HpBarDetection struct {
	Enemy    []game.Unit
	Friendly []game.Unit
}

// Count returns the total number of markers
func (d HpBarDetection) Count() int {
	return len(d.Enemy) + len(d.Friendly)
}

// HpBarDetector finds health bars by team color
type HpBarDetector struct {
	opts   detectorOptions
	filter sizeFilter
}

// NewHpBarDetector creates a detector scanning the whole frame by default
func NewHpBarDetector(opts ...Option) *HpBarDetector {
	return &HpBarDetector{
		opts: applyOptions(detectorOptions{
			roi:           FullFrame(),
			step:          6,
			bucketSize:    12,
			minBucketHits: 1,
		}, opts),
		filter: sizeFilter{
			MinWidth: 12, MaxWidth: 160,
			MinHeight: 1, MaxHeight: 32,
			MinAspect: 1.0, MaxAspect: 20,
		},
	}
}

// Detect returns one unit marker per accepted bar component
func (d *HpBarDetector) Detect(frame *image.RGBA) HpBarDetection {
	var result HpBarDetection
	if frame == nil {
		return result
	}

	px := NewPixels(frame)
	rect := d.opts.roi.Rect(px.Width(), px.Height())
	if rect.Empty() {
		return result
	}

	grid := buildBucketGrid(px, rect, d.opts.step, d.opts.bucketSize, classifyHpBar)
	result.Enemy = d.units(grid, game.TeamEnemy, px)
	result.Friendly = d.units(grid, game.TeamFriendly, px)
	return result
}

func (d *HpBarDetector) units(grid *bucketGrid, team game.Team, px Pixels) []game.Unit {
	var units []game.Unit
	for _, comp := range grid.components(team, d.opts.minBucketHits) {
		w, h := comp.PixelSize(d.opts.bucketSize)
		if !d.filter.accept(w, h) {
			continue
		}

		x, y := grid.center(comp, px.Width(), px.Height())
		units = append(units, game.Unit{
			X:          x,
			Y:          y,
			Lane:       hpBarLane(x),
			Team:       team,
			Confidence: grid.density(comp, d.opts.step),
		})
	}
	return units
}

// HP bars split the arena in two halves only
func hpBarLane(x float32) game.Lane {
	if x < 0.5 {
		return game.LaneLeft
	}
	return game.LaneRight
}

func classifyHpBar(r, g, b uint8) game.Team {
	switch {
	case r >= 170 && g <= 90 && b <= 90:
		return game.TeamEnemy
	case b >= 170 && g >= 120 && r <= 110:
		return game.TeamFriendly
	default:
		return game.TeamUnknown
	}
}

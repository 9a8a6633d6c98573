package cv

import (
	"image"

	"jordanella.com/royale-coach/internal/game"
)

// LevelLabelDetector finds the colored level badges shown over freshly deployed units
type LevelLabelDetector struct {
	opts   detectorOptions
	filter sizeFilter
}

// DefaultLevelLabelRoi is the arena area where labels can appear
func DefaultLevelLabelRoi() Roi {
	return NewRoi(0.05, 0.08, 0.90, 0.75)
}

// NewLevelLabelDetector creates a detector with step 2, bucket 6 and two hits per bucket
func NewLevelLabelDetector(opts ...Option) *LevelLabelDetector {
	return &LevelLabelDetector{
		opts: applyOptions(detectorOptions{
			roi:           DefaultLevelLabelRoi(),
			step:          2,
			bucketSize:    6,
			minBucketHits: 2,
		}, opts),
		filter: sizeFilter{
			MinWidth: 6, MaxWidth: 64,
			MinHeight: 6, MaxHeight: 64,
			MinAspect: 0.5, MaxAspect: 2.5,
		},
	}
}

// Detect returns raw label candidates for one frame
func (d *LevelLabelDetector) Detect(frame *image.RGBA) []game.LevelLabelCandidate {
	if frame == nil {
		return nil
	}

	px := NewPixels(frame)
	rect := d.opts.roi.Rect(px.Width(), px.Height())
	if rect.Empty() {
		return nil
	}

	grid := buildBucketGrid(px, rect, d.opts.step, d.opts.bucketSize, classifyLevelLabel)

	var out []game.LevelLabelCandidate
	for _, team := range []game.Team{game.TeamEnemy, game.TeamFriendly} {
		for _, comp := range grid.components(team, d.opts.minBucketHits) {
			w, h := comp.PixelSize(d.opts.bucketSize)
			if !d.filter.accept(w, h) {
				continue
			}
			x, y := grid.center(comp, px.Width(), px.Height())
			out = append(out, game.LevelLabelCandidate{
				Team:  team,
				X:     x,
				Y:     y,
				Score: grid.density(comp, d.opts.step),
			})
		}
	}
	return out
}

func classifyLevelLabel(r, g, b uint8) game.Team {
	ri, gi, bi := int(r), int(g), int(b)
	switch {
	case ri > gi+40 && ri > bi+40:
		return game.TeamEnemy
	case bi > ri+30 && bi > gi+10:
		return game.TeamFriendly
	default:
		return game.TeamUnknown
	}
}

package tracking

import (
	"math"
	"time"

	"jordanella.com/royale-coach/internal/game"
)

// SpawnSettings configures confirmation and debounce of level labels
type SpawnSettings struct {
	ConfirmDistance float32
	RepeatDistance  float32
	RepeatCooldown  time.Duration
	KeepWindow      time.Duration
}

// DefaultSpawnSettings returns the reference tuning
func DefaultSpawnSettings() SpawnSettings {
	return SpawnSettings{
		ConfirmDistance: 0.03,
		RepeatDistance:  0.03,
		RepeatCooldown:  800 * time.Millisecond,
		KeepWindow:      2000 * time.Millisecond,
	}
}

// SpawnEventDetector turns per-frame level label candidates into spawn events.
// A candidate is confirmed once it shows up in two consecutive passes.
type SpawnEventDetector struct {
	settings SpawnSettings

	previous []game.LevelLabelCandidate
	recent   []game.SpawnEvent
}

// NewSpawnEventDetector creates a detector with empty history
func NewSpawnEventDetector(settings SpawnSettings) *SpawnEventDetector {
	return &SpawnEventDetector{settings: settings}
}

// Update feeds one detection pass and returns every event still inside the keep window
func (d *SpawnEventDetector) Update(candidates []game.LevelLabelCandidate, now time.Time) []game.SpawnEvent {
	if len(d.previous) > 0 && len(candidates) > 0 {
		for _, c := range candidates {
			if !d.confirmed(c) || d.repeated(c, now) {
				continue
			}
			d.recent = append(d.recent, game.SpawnEvent{
				Team:       c.Team,
				Lane:       game.LaneFromX(c.X),
				X:          c.X,
				Y:          c.Y,
				Time:       now,
				Confidence: c.Score,
			})
		}
	}

	d.prune(now)
	d.previous = append(d.previous[:0], candidates...)

	return d.Recent()
}

// Recent returns a copy of the current event list
func (d *SpawnEventDetector) Recent() []game.SpawnEvent {
	out := make([]game.SpawnEvent, len(d.recent))
	copy(out, d.recent)
	return out
}

// Reset clears all history
func (d *SpawnEventDetector) Reset() {
	d.previous = d.previous[:0]
	d.recent = nil
}

func (d *SpawnEventDetector) confirmed(c game.LevelLabelCandidate) bool {
	for _, p := range d.previous {
		if p.Team == c.Team && distance(p.X, p.Y, c.X, c.Y) <= float64(d.settings.ConfirmDistance) {
			return true
		}
	}
	return false
}

func (d *SpawnEventDetector) repeated(c game.LevelLabelCandidate, now time.Time) bool {
	for _, e := range d.recent {
		if e.Team != c.Team || now.Sub(e.Time) > d.settings.RepeatCooldown {
			continue
		}
		if distance(e.X, e.Y, c.X, c.Y) <= float64(d.settings.RepeatDistance) {
			return true
		}
	}
	return false
}

func (d *SpawnEventDetector) prune(now time.Time) {
	kept := d.recent[:0]
	for _, e := range d.recent {
		if now.Sub(e.Time) <= d.settings.KeepWindow {
			kept = append(kept, e)
		}
	}
	d.recent = kept
}

func distance(x1, y1, x2, y2 float32) float64 {
	dx := float64(x1 - x2)
	dy := float64(y1 - y2)
	return math.Sqrt(dx*dx + dy*dy)
}

package actions

import (
	"strings"
	"time"

	"jordanella.com/royale-coach/internal/cv"
	"jordanella.com/royale-coach/internal/game"
)

// Spell placements carry a fixed confidence
const spellConfidence = 0.6

// UnitResolver places troops and buildings on the newest matching friendly spawn
type UnitResolver struct {
	Window time.Duration
}

// NewUnitResolver creates a resolver matching spawns up to window before the commit
func NewUnitResolver(window time.Duration) *UnitResolver {
	return &UnitResolver{Window: window}
}

func (r *UnitResolver) Name() string { return "unit" }

func (r *UnitResolver) SearchFrames() int { return 0 }

func (r *UnitResolver) CanResolve(commit Commit) bool {
	return !game.IsSpell(commit.CardID)
}

func (r *UnitResolver) Resolve(commit Commit, ctx FrameContext) (Placement, bool) {
	for i := len(ctx.Spawns) - 1; i >= 0; i-- {
		spawn := ctx.Spawns[i]
		if spawn.Team != game.TeamFriendly {
			continue
		}
		delta := commit.Time.Sub(spawn.Time)
		if delta < 0 || delta > r.Window {
			continue
		}
		return Placement{
			X:          spawn.X,
			Y:          spawn.Y,
			Lane:       spawn.Lane,
			Confidence: spawn.Confidence,
		}, true
	}
	return Placement{}, false
}

// LogResolver finds the rolling log as a thin band of change between frames
type LogResolver struct {
	Settings cv.LogBlobSettings
	Frames   int
}

func (r *LogResolver) Name() string { return "log" }

func (r *LogResolver) SearchFrames() int { return r.Frames }

func (r *LogResolver) CanResolve(commit Commit) bool {
	return strings.EqualFold(commit.CardID, game.CardLog)
}

func (r *LogResolver) Resolve(commit Commit, ctx FrameContext) (Placement, bool) {
	p, ok := cv.DetectLogBlob(ctx.Prev, ctx.Frame, r.Settings)
	if !ok {
		return Placement{}, false
	}
	return Placement{X: p.X, Y: p.Y, Lane: game.LaneFromX(p.X), Confidence: spellConfidence}, true
}

// FireballResolver finds the bright impact flash of a fireball
type FireballResolver struct {
	Settings cv.FireballBlobSettings
	Frames   int
}

func (r *FireballResolver) Name() string { return "fireball" }

func (r *FireballResolver) SearchFrames() int { return r.Frames }

func (r *FireballResolver) CanResolve(commit Commit) bool {
	return strings.EqualFold(commit.CardID, game.CardFireball)
}

func (r *FireballResolver) Resolve(commit Commit, ctx FrameContext) (Placement, bool) {
	p, ok := cv.DetectFireballBlob(ctx.Frame, r.Settings)
	if !ok {
		return Placement{}, false
	}
	return Placement{X: p.X, Y: p.Y, Lane: game.LaneFromX(p.X), Confidence: spellConfidence}, true
}

// SpellSettings configures the spell resolvers
type SpellSettings struct {
	Enabled      bool
	SearchFrames int
	Log          cv.LogBlobSettings
	Fireball     cv.FireballBlobSettings
}

// DefaultSpellSettings returns the reference tuning
func DefaultSpellSettings() SpellSettings {
	arena := cv.NewRoi(0.05, 0.08, 0.90, 0.75)
	return SpellSettings{
		Enabled:      true,
		SearchFrames: 6,
		Log: cv.LogBlobSettings{
			Roi:           arena,
			DiffThreshold: 25,
			MinArea:       40,
			MaxArea:       3000,
			MinAspect:     4,
		},
		Fireball: cv.FireballBlobSettings{
			Roi:            arena,
			WhiteThreshold: 220,
			MinArea:        60,
			MaxArea:        6000,
			MinAspect:      0.7,
			MaxAspect:      1.4,
		},
	}
}

// DefaultResolvers returns the resolver chain: log, fireball, then units.
// Spell resolvers are left out when spell detection is disabled.
func DefaultResolvers(spells SpellSettings, unitWindow time.Duration) []PlacementResolver {
	var chain []PlacementResolver
	if spells.Enabled {
		chain = append(chain,
			&LogResolver{Settings: spells.Log, Frames: spells.SearchFrames},
			&FireballResolver{Settings: spells.Fireball, Frames: spells.SearchFrames},
		)
	}
	return append(chain, NewUnitResolver(unitWindow))
}

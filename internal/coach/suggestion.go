package coach

import (
	"time"

	"jordanella.com/royale-coach/internal/game"
)

// Suggestion labels
const (
	LabelKite     = "KITE"
	LabelDefLeft  = "DEF-LEFT"
	LabelDefRight = "DEF-RIGHT"
)

// Anchor is a suggestion position in normalized frame coordinates
type Anchor struct {
	X, Y  float32
	Label string
}

var (
	KiteAnchor     = Anchor{X: 0.50, Y: 0.68, Label: LabelKite}
	LeftDefAnchor  = Anchor{X: 0.26, Y: 0.74, Label: LabelDefLeft}
	RightDefAnchor = Anchor{X: 0.74, Y: 0.74, Label: LabelDefRight}
)

// Enemy spawns this recent count as a threat
const enemySpawnThreatWindow = 900 * time.Millisecond

// SuggestionSettings gates suggestion emission
type SuggestionSettings struct {
	NeedElixir     int
	RequiredStreak int
	Cooldown       time.Duration
}

// DefaultSuggestionSettings returns the reference tuning
func DefaultSuggestionSettings() SuggestionSettings {
	return SuggestionSettings{
		NeedElixir:     3,
		RequiredStreak: 2,
		Cooldown:       700 * time.Millisecond,
	}
}

// SuggestionEngine emits a defensive hint once a threat persists for
// RequiredStreak consecutive ticks and the cooldown has passed.
// Not safe for concurrent use.
type SuggestionEngine struct {
	settings SuggestionSettings
	selector *CardSelector

	streak   int
	lastEmit time.Time
	emitted  bool
}

// NewSuggestionEngine creates an engine that picks cards with selector
func NewSuggestionEngine(settings SuggestionSettings, selector *CardSelector) *SuggestionEngine {
	return &SuggestionEngine{settings: settings, selector: selector}
}

// Streak returns the current consecutive trigger count
func (e *SuggestionEngine) Streak() int {
	return e.streak
}

// Reset clears the streak and cooldown
func (e *SuggestionEngine) Reset() {
	e.streak = 0
	e.emitted = false
	e.lastEmit = time.Time{}
}

// Update evaluates one tick
func (e *SuggestionEngine) Update(motion game.MotionResult, elixir game.ElixirResult, hand game.HandState, spawns []game.SpawnEvent, now time.Time) game.Suggestion {
	threat := motion.Trigger || recentEnemySpawn(spawns, now)
	if !threat || elixir.Elixir < e.settings.NeedElixir {
		e.streak = 0
		return game.NoSuggestion()
	}

	e.streak++
	if e.streak < e.settings.RequiredStreak {
		return game.NoSuggestion()
	}
	if e.emitted && now.Sub(e.lastEmit) < e.settings.Cooldown {
		return game.NoSuggestion()
	}

	selection, ok := e.selector.Select(hand, elixir.Elixir, motion)
	if !ok {
		return game.NoSuggestion()
	}

	e.streak = 0
	e.lastEmit = now
	e.emitted = true

	anchor := anchorFor(motion)
	return game.Suggestion{
		Has:       true,
		X:         anchor.X,
		Y:         anchor.Y,
		Label:     anchor.Label,
		Selection: &selection,
	}
}

func anchorFor(motion game.MotionResult) Anchor {
	switch {
	case motion.Left == motion.Right:
		return KiteAnchor
	case motion.Left > motion.Right:
		return LeftDefAnchor
	default:
		return RightDefAnchor
	}
}

func recentEnemySpawn(spawns []game.SpawnEvent, now time.Time) bool {
	for _, s := range spawns {
		if s.Team != game.TeamEnemy {
			continue
		}
		age := now.Sub(s.Time)
		if age >= 0 && age <= enemySpawnThreatWindow {
			return true
		}
	}
	return false
}

package coach

import (
	"testing"
	"time"

	"jordanella.com/royale-coach/internal/game"
)

var t0 = time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func handWithCosts(pairs ...interface{}) game.HandState {
	var h game.HandState
	for i := 0; i < len(pairs); i += 2 {
		h.Slots = append(h.Slots, pairs[i].(string))
		h.Costs = append(h.Costs, pairs[i+1].(int))
		h.Confidences = append(h.Confidences, 1)
	}
	return h
}

func TestSelectorCheapestAffordable(t *testing.T) {
	s := NewCardSelector(DefaultSelectionSettings(), game.DefaultCatalog())
	hand := handWithCosts("skeletons", 1, "hog", 4, "fireball", 4, "log", 2)

	got, ok := s.Select(hand, 2, game.MotionResult{})
	if !ok || got.HandIndex != 0 || got.CardID != "skeletons" {
		t.Fatalf("got %+v, %v; want skeletons at 0", got, ok)
	}
}

func TestSelectorNothingAffordable(t *testing.T) {
	s := NewCardSelector(DefaultSelectionSettings(), game.DefaultCatalog())
	hand := handWithCosts("hog", 4, "musketeer", 4, "fireball", 4, "log", 2)

	if got, ok := s.Select(hand, 3, game.MotionResult{}); ok {
		t.Fatalf("got %+v, want no selection", got)
	}
}

func TestSelectorTiesKeepFirst(t *testing.T) {
	s := NewCardSelector(DefaultSelectionSettings(), game.DefaultCatalog())
	hand := handWithCosts("hog", 4, "ice_spirit", 1, "skeletons", 1, "cannon", 3)

	got, _ := s.Select(hand, 5, game.MotionResult{})
	if got.CardID != "ice_spirit" || got.HandIndex != 1 {
		t.Fatalf("got %+v, want ice_spirit", got)
	}
}

func TestSelectorStrongThreatPriority(t *testing.T) {
	s := NewCardSelector(DefaultSelectionSettings(), game.DefaultCatalog())
	hand := handWithCosts("skeletons", 1, "hog", 4, "musketeer", 4, "ice_golem", 2)
	threat := game.MotionResult{Left: 40, Right: 20, Trigger: true}

	got, ok := s.Select(hand, 5, threat)
	if !ok || got.CardID != "musketeer" || got.HandIndex != 2 {
		t.Fatalf("got %+v, want musketeer", got)
	}

	// musketeer unaffordable: next priority entry
	got, _ = s.Select(hand, 3, threat)
	if got.CardID != "ice_golem" {
		t.Fatalf("got %+v, want ice_golem", got)
	}

	// weak threat falls back to cheapest
	got, _ = s.Select(hand, 5, game.MotionResult{Left: 10, Right: 10})
	if got.CardID != "skeletons" {
		t.Fatalf("got %+v, want skeletons", got)
	}
}

func TestSelectorExclusionsAndUnknownCards(t *testing.T) {
	settings := DefaultSelectionSettings()
	settings.ExcludeBuildings = true
	settings.ExcludedIDs = []string{"Skeletons"}
	s := NewCardSelector(settings, game.DefaultCatalog())

	hand := handWithCosts("skeletons", 1, "cannon", 3, "goblin_barrel", 3, "", 0)
	got, ok := s.Select(hand, 3, game.MotionResult{})
	if !ok || got.CardID != "goblin_barrel" {
		t.Fatalf("got %+v, want goblin_barrel via hand cost", got)
	}

	hand = handWithCosts("goblin_barrel", -1)
	if _, ok := s.Select(hand, 10, game.MotionResult{}); ok {
		t.Fatal("unknown card without cost must not be selected")
	}
}

func TestSelectorDefaultsSkipSpellsAndBuildings(t *testing.T) {
	settings := DefaultSelectionSettings()
	if !settings.ExcludeSpells || !settings.ExcludeBuildings {
		t.Fatalf("defaults = %+v", settings)
	}

	s := NewCardSelector(settings, game.DefaultCatalog())
	hand := handWithCosts("cannon", 3, "log", 2, "hog", 4)
	got, ok := s.Select(hand, 5, game.MotionResult{})
	if !ok || got.CardID != "hog" {
		t.Fatalf("got %+v, %v; want hog", got, ok)
	}
}

func newEngine() *SuggestionEngine {
	return NewSuggestionEngine(DefaultSuggestionSettings(), NewCardSelector(DefaultSelectionSettings(), game.DefaultCatalog()))
}

var (
	defenseHand = handWithCosts("skeletons", 1, "hog", 4, "musketeer", 4, "log", 2)
	fullElixir  = game.ElixirResult{Filled: 0.8, Elixir: 8}
	leftPush    = game.MotionResult{Left: 60, Right: 10, Trigger: true}
)

func TestSuggestionStreakAndCooldown(t *testing.T) {
	e := newEngine()

	steps := []struct {
		ms   int
		emit bool
	}{
		{0, false},
		{200, true},
		{400, false},
		{600, false},
		{900, true},
	}

	for _, step := range steps {
		got := e.Update(leftPush, fullElixir, defenseHand, nil, at(step.ms))
		if got.Has != step.emit {
			t.Fatalf("t=%dms: Has = %v, want %v", step.ms, got.Has, step.emit)
		}
	}
}

func TestSuggestionCooldownNeedsFreshStreak(t *testing.T) {
	e := newEngine()

	e.Update(leftPush, fullElixir, defenseHand, nil, at(0))
	if !e.Update(leftPush, fullElixir, defenseHand, nil, at(200)).Has {
		t.Fatal("expected first emission")
	}
	// cooldown is over but the streak restarted at the emission
	if e.Update(leftPush, fullElixir, defenseHand, nil, at(1000)).Has {
		t.Fatal("one trigger after an emission is not a streak")
	}
	if !e.Update(leftPush, fullElixir, defenseHand, nil, at(1100)).Has {
		t.Fatal("second consecutive trigger should emit")
	}
}

func TestSuggestionNonTriggerResetsStreak(t *testing.T) {
	e := newEngine()

	e.Update(leftPush, fullElixir, defenseHand, nil, at(0))
	e.Update(game.MotionResult{}, fullElixir, defenseHand, nil, at(100))
	if e.Streak() != 0 {
		t.Fatalf("streak = %d, want 0", e.Streak())
	}
	if e.Update(leftPush, fullElixir, defenseHand, nil, at(200)).Has {
		t.Fatal("streak restarted, must not emit yet")
	}

	low := game.ElixirResult{Elixir: 2}
	e.Update(leftPush, low, defenseHand, nil, at(300))
	if e.Streak() != 0 {
		t.Fatal("insufficient elixir must reset the streak")
	}
}

func TestSuggestionLabelsAndSelection(t *testing.T) {
	tests := []struct {
		motion game.MotionResult
		want   Anchor
	}{
		{game.MotionResult{Left: 60, Right: 10, Trigger: true}, LeftDefAnchor},
		{game.MotionResult{Left: 10, Right: 60, Trigger: true}, RightDefAnchor},
		{game.MotionResult{Left: 50, Right: 50, Trigger: true}, KiteAnchor},
	}

	for _, tt := range tests {
		e := newEngine()
		e.Update(tt.motion, fullElixir, defenseHand, nil, at(0))
		got := e.Update(tt.motion, fullElixir, defenseHand, nil, at(100))

		if !got.Has || got.Label != tt.want.Label || got.X != tt.want.X || got.Y != tt.want.Y {
			t.Errorf("motion %+v: got %+v, want %+v", tt.motion, got, tt.want)
		}
		if got.Selection == nil || got.Selection.CardID != "musketeer" {
			t.Errorf("motion %+v: selection = %+v, want musketeer under strong threat", tt.motion, got.Selection)
		}
	}
}

func TestSuggestionEnemySpawnTriggers(t *testing.T) {
	e := newEngine()
	spawns := []game.SpawnEvent{{Team: game.TeamEnemy, Lane: game.LaneRight, X: 0.7, Y: 0.3, Time: at(0)}}

	e.Update(game.MotionResult{}, fullElixir, defenseHand, spawns, at(100))
	got := e.Update(game.MotionResult{}, fullElixir, defenseHand, spawns, at(900))
	if !got.Has || got.Label != LabelKite || got.Selection.CardID != "skeletons" {
		t.Fatalf("got %+v", got)
	}

	if e.Update(game.MotionResult{}, fullElixir, defenseHand, spawns, at(901)).Has || e.Streak() != 0 {
		t.Fatal("spawn older than 900ms is no longer a threat")
	}
}

func TestSuggestionNoAffordableCardKeepsStreak(t *testing.T) {
	e := newEngine()
	expensive := handWithCosts("hog", 4, "musketeer", 4)
	three := game.ElixirResult{Elixir: 3}

	e.Update(leftPush, three, expensive, nil, at(0))
	if e.Update(leftPush, three, expensive, nil, at(100)).Has {
		t.Fatal("no affordable card, no suggestion")
	}
	if e.Streak() != 2 {
		t.Fatalf("streak = %d, want 2", e.Streak())
	}
}

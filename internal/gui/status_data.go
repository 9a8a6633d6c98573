package gui

import (
	"fmt"
	"strings"
	"time"

	"fyne.io/fyne/v2/data/binding"
	"jordanella.com/royale-coach/internal/actions"
	"jordanella.com/royale-coach/internal/game"
	"jordanella.com/royale-coach/internal/monitor"
	"jordanella.com/royale-coach/internal/pipeline"
)

// StatusData holds the bindings shown by the status tab.
// Setting a binding is safe from any goroutine.
type StatusData struct {
	Elixir      binding.String
	ElixirFill  binding.Float
	Phase       binding.String
	Hand        binding.String
	Suggestion  binding.String
	Spawns      binding.String
	Stage       binding.String
	LastAction  binding.String
	Match       binding.String
	MatchActive binding.Bool
	Health      binding.String
}

// NewStatusData creates bindings with placeholder text
func NewStatusData() *StatusData {
	d := &StatusData{
		Elixir:      binding.NewString(),
		ElixirFill:  binding.NewFloat(),
		Phase:       binding.NewString(),
		Hand:        binding.NewString(),
		Suggestion:  binding.NewString(),
		Spawns:      binding.NewString(),
		Stage:       binding.NewString(),
		LastAction:  binding.NewString(),
		Match:       binding.NewString(),
		MatchActive: binding.NewBool(),
		Health:      binding.NewString(),
	}

	d.Elixir.Set("-")
	d.Phase.Set(game.PhaseUnknown.String())
	d.Hand.Set(formatHand(game.EmptyHand()))
	d.Suggestion.Set(formatSuggestion(game.NoSuggestion()))
	d.Spawns.Set("0")
	d.Stage.Set(actions.StageIdle.String())
	d.LastAction.Set("-")
	d.Match.Set(formatMatch(pipeline.MatchStatus{}, time.Time{}))
	d.Health.Set("-")
	return d
}

// ApplyTick copies one tick result into the bindings
func (d *StatusData) ApplyTick(r pipeline.TickResult) {
	d.Elixir.Set(fmt.Sprintf("%d / 10", r.Elixir.Elixir))
	d.ElixirFill.Set(float64(r.Elixir.Filled))
	d.Phase.Set(formatPhase(r.Clock))
	d.Hand.Set(formatHand(r.Hand))
	d.Suggestion.Set(formatSuggestion(r.Suggestion))
	d.Spawns.Set(fmt.Sprintf("%d", len(r.Spawns)))
	d.Stage.Set(r.Stage.String())
	if r.Action != nil {
		d.LastAction.Set(formatAction(*r.Action))
	}
}

// ApplyMatch refreshes the match line
func (d *StatusData) ApplyMatch(status pipeline.MatchStatus, now time.Time) {
	d.Match.Set(formatMatch(status, now))
	d.MatchActive.Set(status.Running)
}

// ApplyStats refreshes the health line
func (d *StatusData) ApplyStats(stats monitor.Stats, healthy bool) {
	d.Health.Set(formatStats(stats, healthy))
}

func formatPhase(clock game.MatchClockState) string {
	if clock.Phase == game.PhaseUnknown {
		return clock.Phase.String()
	}
	return fmt.Sprintf("%s (%.0f%%)", clock.Phase, clock.Confidence*100)
}

func formatHand(hand game.HandState) string {
	if hand.Len() == 0 {
		return "(not read)"
	}

	parts := make([]string, len(hand.Slots))
	for i, id := range hand.Slots {
		switch {
		case id == "":
			parts[i] = "?"
		case i < len(hand.Costs) && hand.Costs[i] >= 0:
			parts[i] = fmt.Sprintf("%s (%d)", id, hand.Costs[i])
		default:
			parts[i] = id
		}
	}
	return strings.Join(parts, ", ")
}

func formatSuggestion(s game.Suggestion) string {
	if !s.Has {
		return "-"
	}

	text := fmt.Sprintf("%s at %.2f, %.2f", s.Label, s.X, s.Y)
	if s.Selection != nil {
		text = fmt.Sprintf("%s: %s", s.Selection.CardID, text)
	}
	return text
}

func formatAction(a actions.ActionSnapshot) string {
	if !a.HasPosition() {
		return fmt.Sprintf("%s (position unknown)", a.CardID)
	}
	return fmt.Sprintf("%s %s lane at %.2f, %.2f", a.CardID, a.Lane, *a.X, *a.Y)
}

func formatMatch(status pipeline.MatchStatus, now time.Time) string {
	if !status.Running {
		if status.ID == "" {
			return "No match"
		}
		return fmt.Sprintf("Ended: %d samples", status.Samples)
	}

	elapsed := time.Duration(0)
	if !now.IsZero() && now.After(status.StartedAt) {
		elapsed = now.Sub(status.StartedAt).Truncate(time.Second)
	}
	return fmt.Sprintf("Running %s, %d samples", elapsed, status.Samples)
}

func formatStats(stats monitor.Stats, healthy bool) string {
	state := "OK"
	if !healthy {
		state = "FAILING"
	}
	text := fmt.Sprintf("%s | ticks %d | capture errors %d | overruns %d | last %dms",
		state, stats.Ticks, stats.CaptureFailures, stats.Overruns, stats.LastTickDuration.Milliseconds())
	if stats.LastError != "" {
		text += " | " + stats.LastError
	}
	return text
}

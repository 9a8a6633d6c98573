package gui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"

	"jordanella.com/royale-coach/internal/actions"
	"jordanella.com/royale-coach/internal/events"
	"jordanella.com/royale-coach/internal/game"
	"jordanella.com/royale-coach/internal/monitor"
	"jordanella.com/royale-coach/internal/pipeline"
)

var t0 = time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

func TestFormatHand(t *testing.T) {
	tests := []struct {
		name string
		hand game.HandState
		want string
	}{
		{"empty", game.EmptyHand(), "(not read)"},
		{"known costs", game.HandState{Slots: []string{"hog", "log"}, Costs: []int{4, 2}}, "hog (4), log (2)"},
		{"unknown slot", game.HandState{Slots: []string{"", "zap"}, Costs: []int{-1, -1}}, "?, zap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatHand(tt.hand); got != tt.want {
				t.Errorf("formatHand = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatSuggestionAndAction(t *testing.T) {
	if got := formatSuggestion(game.NoSuggestion()); got != "-" {
		t.Errorf("no suggestion = %q", got)
	}

	s := game.Suggestion{Has: true, X: 0.25, Y: 0.5, Label: "Defend left", Selection: &game.CardSelection{CardID: "cannon"}}
	if got := formatSuggestion(s); got != "cannon: Defend left at 0.25, 0.50" {
		t.Errorf("suggestion = %q", got)
	}

	if got := formatAction(actions.ActionSnapshot{CardID: "log"}); got != "log (position unknown)" {
		t.Errorf("unresolved action = %q", got)
	}
	x, y := float32(0.75), float32(0.4)
	placed := actions.ActionSnapshot{CardID: "hog", Lane: game.LaneRight, X: &x, Y: &y}
	if got := formatAction(placed); !strings.HasPrefix(got, "hog ") || !strings.HasSuffix(got, "at 0.75, 0.40") {
		t.Errorf("placed action = %q", got)
	}
}

func TestFormatMatch(t *testing.T) {
	if got := formatMatch(pipeline.MatchStatus{}, t0); got != "No match" {
		t.Errorf("idle = %q", got)
	}

	running := pipeline.MatchStatus{Running: true, ID: "abc", StartedAt: t0, Samples: 3}
	if got := formatMatch(running, t0.Add(65500*time.Millisecond)); got != "Running 1m5s, 3 samples" {
		t.Errorf("running = %q", got)
	}

	ended := pipeline.MatchStatus{ID: "abc", Samples: 7}
	if got := formatMatch(ended, t0); got != "Ended: 7 samples" {
		t.Errorf("ended = %q", got)
	}
}

func TestFormatStats(t *testing.T) {
	stats := monitor.Stats{Ticks: 12, CaptureFailures: 3, LastTickDuration: 42 * time.Millisecond, LastError: "window gone"}

	got := formatStats(stats, false)
	if !strings.HasPrefix(got, "FAILING") || !strings.Contains(got, "ticks 12") || !strings.HasSuffix(got, "window gone") {
		t.Errorf("stats = %q", got)
	}
	if !strings.HasPrefix(formatStats(monitor.Stats{}, true), "OK") {
		t.Error("healthy stats should start with OK")
	}
}

func TestStatusDataApplyTick(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	data := NewStatusData()

	x, y := float32(0.2), float32(0.7)
	data.ApplyTick(pipeline.TickResult{
		Elixir: game.ElixirResult{Elixir: 6, Filled: 0.6},
		Clock:  game.MatchClockState{Phase: game.PhaseDoubleElixir, Confidence: 0.9},
		Hand:   game.HandState{Slots: []string{"hog"}, Costs: []int{4}},
		Spawns: make([]game.SpawnEvent, 2),
		Stage:  actions.StagePendingAction,
		Action: &actions.ActionSnapshot{CardID: "hog", Lane: game.LaneLeft, X: &x, Y: &y},
	})

	if got, _ := data.Elixir.Get(); got != "6 / 10" {
		t.Errorf("elixir = %q", got)
	}
	if got, _ := data.Spawns.Get(); got != "2" {
		t.Errorf("spawns = %q", got)
	}
	if got, _ := data.Stage.Get(); got != "PendingAction" {
		t.Errorf("stage = %q", got)
	}
	if got, _ := data.LastAction.Get(); !strings.HasPrefix(got, "hog ") {
		t.Errorf("last action = %q", got)
	}

	// a tick without a play keeps the previous one
	data.ApplyTick(pipeline.TickResult{})
	if got, _ := data.LastAction.Get(); !strings.HasPrefix(got, "hog ") {
		t.Errorf("last action cleared: %q", got)
	}

	data.ApplyMatch(pipeline.MatchStatus{Running: true, StartedAt: t0}, t0)
	if active, _ := data.MatchActive.Get(); !active {
		t.Error("match should be active")
	}
}

func TestLogEntryFor(t *testing.T) {
	tests := []struct {
		name  string
		event events.Event
		level LogLevel
		text  string
	}{
		{"match started", events.NewMatchStartedEvent("m1", "", t0), LogLevelInfo, "Match m1 started"},
		{"match ended", events.NewMatchEndedEvent("m1", 4, 1000, t0), LogLevelInfo, "Match m1 ended with 4 samples"},
		{"action", events.NewActionRecordedEvent("m1", "zap", "Left", "spell", nil, nil, 9, t0), LogLevelInfo, "Played zap (Left lane)"},
		{"skipped", events.NewTickSkippedEvent("capture_failed", errors.New("gone"), t0), LogLevelWarn, "Tick skipped: capture_failed (gone)"},
		{"overrun", events.NewTickOverrunEvent(150*time.Millisecond, 100*time.Millisecond, t0), LogLevelWarn, "Tick took 150ms of 100ms"},
		{"error", events.NewErrorEvent("runner", "Runner", errors.New("stalled"), map[string]interface{}{"reason": "tick_stalled"}), LogLevelError, "tick_stalled: stalled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := logEntryFor(tt.event)
			if !ok {
				t.Fatal("event not rendered")
			}
			if entry.Level != tt.level || entry.Message != tt.text {
				t.Errorf("entry = %+v, want %v %q", entry, tt.level, tt.text)
			}
		})
	}

	if _, ok := logEntryFor(events.Event{Type: "custom"}); ok {
		t.Error("unknown event types are not logged")
	}
}

func TestEventBridgeAndLogTab(t *testing.T) {
	logTab := NewLogTab(2)
	matches := 0
	bridge := NewEventBridge(nil, logTab, func() { matches++ })

	bridge.handle(events.NewMatchStartedEvent("m1", "", t0))
	bridge.handle(events.NewTickSkippedEvent("empty_frame", nil, t0))
	bridge.handle(events.NewMatchEndedEvent("m1", 0, 10, t0))

	if matches != 2 {
		t.Errorf("match callbacks = %d, want 2", matches)
	}

	logs := logTab.GetLogs()
	if len(logs) != 2 || logs[0].Level != LogLevelWarn {
		t.Fatalf("logs = %+v, want the newest two", logs)
	}
	if got := filterLogs(logs, logFilter{minLevel: LogLevelWarn}); len(got) != 1 {
		t.Errorf("WARN filter = %+v", got)
	}
	if got := filterLogs(logs, logFilter{}); len(got) != 2 {
		t.Errorf("empty filter = %+v", got)
	}
	if got := filterLogs(logs, logFilter{text: "M1 ENDED"}); len(got) != 1 || got[0].Level != LogLevelInfo {
		t.Errorf("text filter = %+v", got)
	}
	if got := filterLogs(logs, logFilter{minLevel: LogLevelError, text: "m1"}); len(got) != 0 {
		t.Errorf("combined filter = %+v", got)
	}

	logTab.ClearLogs()
	if len(logTab.GetLogs()) != 0 {
		t.Error("logs not cleared")
	}
}

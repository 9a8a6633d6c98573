package dataset

import (
	"time"

	"jordanella.com/royale-coach/internal/actions"
	"jordanella.com/royale-coach/internal/cv"
	"jordanella.com/royale-coach/internal/game"
)

// HandCardSnapshot is one hand slot in a recorded state
type HandCardSnapshot struct {
	CardID string `json:"cardId"`
	Cost   int    `json:"cost"`
}

// SpawnSnapshot is a recent spawn in a recorded state
type SpawnSnapshot struct {
	Team game.Team `json:"team"`
	Lane game.Lane `json:"lane"`
	X    float32   `json:"x01"`
	Y    float32   `json:"y01"`
}

// StateSnapshot is the game state at the moment a play was committed
type StateSnapshot struct {
	Phase          game.MatchPhase    `json:"phase"`
	Elixir         int                `json:"elixir"`
	EnemySpawns    []SpawnSnapshot    `json:"enemySpawns"`
	FriendlySpawns []SpawnSnapshot    `json:"friendlySpawns"`
	Hand           []HandCardSnapshot `json:"hand"`
}

// TrainingSample is one newline-delimited record of the dataset
type TrainingSample struct {
	Timestamp      time.Time              `json:"timestamp"`
	State          StateSnapshot          `json:"state"`
	Action         actions.ActionSnapshot `json:"action"`
	MatchID        string                 `json:"matchId,omitempty"`
	MatchElapsedMs int64                  `json:"matchElapsedMs"`
	FrameIndex     int64                  `json:"frameIndex"`
	PrevFramePath  string                 `json:"prevFramePath,omitempty"`
	CurrFramePath  string                 `json:"currFramePath,omitempty"`
	FrameCrop      *cv.FrameCrop          `json:"frameCrop,omitempty"`
}

// StateBuilder snapshots the live detector outputs
type StateBuilder struct {
	recentWindow time.Duration
}

// NewStateBuilder keeps spawns from the last recentSpawnSeconds (at least one second)
func NewStateBuilder(recentSpawnSeconds int) *StateBuilder {
	return &StateBuilder{recentWindow: time.Duration(max(1, recentSpawnSeconds)) * time.Second}
}

// Build copies the current readings into a StateSnapshot.
// Nothing in the result aliases the inputs.
func (b *StateBuilder) Build(clock game.MatchClockState, elixir game.ElixirResult, spawns []game.SpawnEvent, hand game.HandState, now time.Time) StateSnapshot {
	state := StateSnapshot{
		Phase:          clock.Phase,
		Elixir:         elixir.Elixir,
		EnemySpawns:    []SpawnSnapshot{},
		FriendlySpawns: []SpawnSnapshot{},
		Hand:           make([]HandCardSnapshot, 0, hand.Len()),
	}

	for _, s := range spawns {
		if now.Sub(s.Time) > b.recentWindow {
			continue
		}
		snap := SpawnSnapshot{Team: s.Team, Lane: s.Lane, X: s.X, Y: s.Y}
		if s.Team == game.TeamEnemy {
			state.EnemySpawns = append(state.EnemySpawns, snap)
		} else {
			state.FriendlySpawns = append(state.FriendlySpawns, snap)
		}
	}

	hasCosts := len(hand.Costs) == len(hand.Slots)
	for i, id := range hand.Slots {
		cost := -1
		if hasCosts {
			cost = hand.Costs[i]
		}
		state.Hand = append(state.Hand, HandCardSnapshot{CardID: id, Cost: cost})
	}

	return state
}

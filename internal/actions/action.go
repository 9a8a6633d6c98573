package actions

import (
	"image"
	"time"

	"jordanella.com/royale-coach/internal/game"
)

// Commit is a card play confirmed by the elixir drop
type Commit struct {
	CardID string
	Cost   int
	Time   time.Time
}

// Placement is where a committed card landed
type Placement struct {
	X          float32
	Y          float32
	Lane       game.Lane
	Confidence float32
}

// FrameContext is what resolvers may look at on one tick
type FrameContext struct {
	Now    time.Time
	Spawns []game.SpawnEvent
	Prev   *image.RGBA
	Frame  *image.RGBA
}

// ActionSnapshot is the recorded card play
type ActionSnapshot struct {
	CardID string    `json:"cardId"`
	Lane   game.Lane `json:"lane"`
	X      *float32  `json:"x01,omitempty"`
	Y      *float32  `json:"y01,omitempty"`
}

// HasPosition reports whether the placement was resolved
func (a ActionSnapshot) HasPosition() bool {
	return a.X != nil && a.Y != nil
}

func resolvedAction(cardID string, p Placement) ActionSnapshot {
	x, y := p.X, p.Y
	return ActionSnapshot{CardID: cardID, Lane: p.Lane, X: &x, Y: &y}
}

func unknownAction(cardID string) ActionSnapshot {
	return ActionSnapshot{CardID: cardID, Lane: game.LaneUnknown}
}

// PlacementResolver locates a committed card on the arena
type PlacementResolver interface {
	// Name identifies the resolver in logs
	Name() string
	// SearchFrames is how many later frames may be inspected when the commit frame fails
	SearchFrames() int
	CanResolve(commit Commit) bool
	Resolve(commit Commit, ctx FrameContext) (Placement, bool)
}

package actions

import (
	"time"

	"jordanella.com/royale-coach/internal/game"
)

// Stage is the detector state
type Stage int

const (
	StageIdle Stage = iota
	StagePendingAction
	StagePendingPlacement
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "Idle"
	case StagePendingAction:
		return "PendingAction"
	case StagePendingPlacement:
		return "PendingPlacement"
	default:
		return "Unknown"
	}
}

// DetectorSettings configures action attribution
type DetectorSettings struct {
	PendingTimeout        time.Duration
	ElixirCommitTolerance int
}

// DefaultDetectorSettings returns the reference tuning
func DefaultDetectorSettings() DetectorSettings {
	return DetectorSettings{
		PendingTimeout:        1500 * time.Millisecond,
		ElixirCommitTolerance: 1,
	}
}

type pendingAction struct {
	cardID          string
	cost            int
	start           time.Time
	elixirAtRemoval int
}

type pendingPlacement struct {
	commit    Commit
	resolver  PlacementResolver
	remaining int
}

// Outcome reports what one Update did.
// Committed is set on the tick the elixir drop confirmed a play; Emitted when
// Action carries a finished snapshot. Both may be set on the same tick.
type Outcome struct {
	Committed bool
	Commit    Commit
	Emitted   bool
	Action    ActionSnapshot
	Resolver  string
}

// Detector attributes hand changes and elixir drops to card plays.
// At most one play is tracked at a time; removals seen while one is
// outstanding are dropped. Not safe for concurrent use.
type Detector struct {
	settings  DetectorSettings
	catalog   game.CardCatalog
	resolvers []PlacementResolver

	previous  game.HandState
	action    *pendingAction
	placement *pendingPlacement
}

// NewDetector creates a detector. Resolvers are consulted in the given order.
func NewDetector(settings DetectorSettings, catalog game.CardCatalog, resolvers ...PlacementResolver) *Detector {
	return &Detector{
		settings:  settings,
		catalog:   catalog,
		resolvers: resolvers,
	}
}

// Stage returns the current state
func (d *Detector) Stage() Stage {
	switch {
	case d.placement != nil:
		return StagePendingPlacement
	case d.action != nil:
		return StagePendingAction
	default:
		return StageIdle
	}
}

// Reset drops all pending state and the previous hand
func (d *Detector) Reset() {
	d.previous = game.HandState{}
	d.action = nil
	d.placement = nil
}

// Update advances the state machine by one frame
func (d *Detector) Update(hand game.HandState, elixir int, ctx FrameContext) Outcome {
	var out Outcome

	switch {
	case d.placement != nil:
		out = d.stepPlacement(ctx)
	case d.action != nil:
		out = d.stepAction(hand, elixir, ctx)
	default:
		d.detectRemoval(hand, elixir, ctx.Now)
	}

	// an empty hand is a failed read, not an empty hand
	if !hand.IsEmpty() {
		d.previous = hand.Clone()
	}
	return out
}

func (d *Detector) stepPlacement(ctx FrameContext) Outcome {
	p := d.placement
	out := Outcome{Commit: p.commit, Resolver: p.resolver.Name()}

	if placement, ok := p.resolver.Resolve(p.commit, ctx); ok {
		d.placement = nil
		out.Emitted = true
		out.Action = resolvedAction(p.commit.CardID, placement)
		return out
	}

	p.remaining--
	if p.remaining <= 0 {
		d.placement = nil
		out.Emitted = true
		out.Action = unknownAction(p.commit.CardID)
	}
	return out
}

func (d *Detector) stepAction(hand game.HandState, elixir int, ctx FrameContext) Outcome {
	a := d.action

	if ctx.Now.Sub(a.start) > d.settings.PendingTimeout {
		d.action = nil
		return Outcome{}
	}
	if hand.Contains(a.cardID) {
		d.action = nil
		return Outcome{}
	}
	if a.elixirAtRemoval-elixir < d.requiredDrop(a.cost) {
		return Outcome{}
	}

	d.action = nil
	commit := Commit{CardID: a.cardID, Cost: a.cost, Time: ctx.Now}
	out := Outcome{Committed: true, Commit: commit}

	resolver := d.resolverFor(commit)
	if resolver == nil {
		out.Emitted = true
		out.Action = unknownAction(commit.CardID)
		return out
	}
	out.Resolver = resolver.Name()

	if placement, ok := resolver.Resolve(commit, ctx); ok {
		out.Emitted = true
		out.Action = resolvedAction(commit.CardID, placement)
		return out
	}

	if frames := resolver.SearchFrames(); frames > 0 {
		d.placement = &pendingPlacement{commit: commit, resolver: resolver, remaining: frames}
		return out
	}

	out.Emitted = true
	out.Action = unknownAction(commit.CardID)
	return out
}

// detectRemoval starts a pending action for the first previous slot
// that has no matching occurrence in the current hand
func (d *Detector) detectRemoval(hand game.HandState, elixir int, now time.Time) {
	if hand.IsEmpty() || d.previous.IsEmpty() {
		return
	}

	remaining := make(map[string]int, hand.Len())
	for _, id := range hand.Slots {
		if id != "" {
			remaining[id]++
		}
	}

	for i, id := range d.previous.Slots {
		if id == "" {
			continue
		}
		if remaining[id] > 0 {
			remaining[id]--
			continue
		}

		d.action = &pendingAction{
			cardID:          id,
			cost:            d.cardCost(id, d.previous.Cost(i)),
			start:           now,
			elixirAtRemoval: elixir,
		}
		return
	}
}

func (d *Detector) cardCost(id string, handCost int) int {
	if handCost > 0 {
		return handCost
	}
	if info, ok := d.catalog.Lookup(id); ok {
		return info.Cost
	}
	return handCost
}

func (d *Detector) requiredDrop(cost int) int {
	return max(1, cost-d.settings.ElixirCommitTolerance)
}

func (d *Detector) resolverFor(commit Commit) PlacementResolver {
	for _, r := range d.resolvers {
		if r.CanResolve(commit) {
			return r
		}
	}
	return nil
}

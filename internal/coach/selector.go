package coach

import (
	"strings"

	"jordanella.com/royale-coach/internal/game"
)

// SelectionSettings configures which card the coach recommends
type SelectionSettings struct {
	ExcludeSpells         bool
	ExcludeBuildings      bool
	ExcludedIDs           []string
	DefensivePriority     []string
	StrongThreatThreshold int64
}

// DefaultSelectionSettings returns the reference tuning
func DefaultSelectionSettings() SelectionSettings {
	return SelectionSettings{
		ExcludeSpells:         true,
		ExcludeBuildings:      true,
		DefensivePriority:     []string{"musketeer", "ice_golem", "skeletons", "ice_spirit", "cannon"},
		StrongThreatThreshold: 50,
	}
}

type candidate struct {
	index int
	info  game.CardInfo
	cost  int
}

// CardSelector picks an affordable card from the hand
type CardSelector struct {
	settings SelectionSettings
	catalog  game.CardCatalog
	excluded map[string]bool
}

// NewCardSelector creates a selector over a card catalog
func NewCardSelector(settings SelectionSettings, catalog game.CardCatalog) *CardSelector {
	excluded := make(map[string]bool, len(settings.ExcludedIDs))
	for _, id := range settings.ExcludedIDs {
		excluded[strings.ToLower(id)] = true
	}
	if catalog == nil {
		catalog = game.CardCatalog{}
	}
	return &CardSelector{settings: settings, catalog: catalog, excluded: excluded}
}

// Select returns the card to play, if any is affordable.
// Under strong threat the first affordable defensive card in priority order wins,
// otherwise the cheapest affordable card (first occurrence on ties).
func (s *CardSelector) Select(hand game.HandState, elixir int, motion game.MotionResult) (game.CardSelection, bool) {
	candidates := s.candidates(hand, elixir)
	if len(candidates) == 0 {
		return game.CardSelection{}, false
	}

	if motion.Total() >= s.settings.StrongThreatThreshold {
		for _, id := range s.settings.DefensivePriority {
			for _, c := range candidates {
				if strings.EqualFold(c.info.ID, id) && c.info.Roles.Has(game.RoleDefensive) {
					return game.CardSelection{HandIndex: c.index, CardID: hand.Slot(c.index)}, true
				}
			}
		}
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.cost < best.cost {
			best = c
		}
	}
	return game.CardSelection{HandIndex: best.index, CardID: hand.Slot(best.index)}, true
}

func (s *CardSelector) candidates(hand game.HandState, elixir int) []candidate {
	var out []candidate
	for i, id := range hand.Slots {
		if id == "" || s.excluded[strings.ToLower(id)] {
			continue
		}

		handCost := hand.Cost(i)
		info, ok := s.catalog.Lookup(id)
		if !ok {
			info = game.CardInfo{ID: id, Cost: handCost, Roles: game.RoleNone}
		}

		if s.settings.ExcludeSpells && info.Roles.Has(game.RoleSpell) {
			continue
		}
		if s.settings.ExcludeBuildings && info.Roles.Has(game.RoleBuilding) {
			continue
		}

		cost := info.Cost
		if handCost > 0 {
			cost = handCost
		}
		if cost <= 0 || cost > elixir {
			continue
		}

		out = append(out, candidate{index: i, info: info, cost: cost})
	}
	return out
}

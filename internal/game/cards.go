package game

import "strings"

// CardRole is a bit set of tactical roles
type CardRole uint8

const (
	RoleNone         CardRole = 0
	RoleSpell        CardRole = 1 << 0
	RoleBuilding     CardRole = 1 << 1
	RoleDefensive    CardRole = 1 << 2
	RoleWinCondition CardRole = 1 << 3
	RoleCycle        CardRole = 1 << 4
)

// Has reports whether all bits of r are set
func (c CardRole) Has(r CardRole) bool {
	return r != RoleNone && c&r == r
}

// CardInfo is the static description of a card
type CardInfo struct {
	ID    string
	Cost  int
	Roles CardRole
}

// CardCatalog maps lowercase card ids to their info
type CardCatalog map[string]CardInfo

// Lookup finds a card ignoring case
func (c CardCatalog) Lookup(id string) (CardInfo, bool) {
	info, ok := c[strings.ToLower(id)]
	return info, ok
}

// DefaultCatalog returns the built-in deck description
func DefaultCatalog() CardCatalog {
	cards := []CardInfo{
		{ID: "hog", Cost: 4, Roles: RoleWinCondition},
		{ID: "musketeer", Cost: 4, Roles: RoleDefensive},
		{ID: "cannon", Cost: 3, Roles: RoleBuilding | RoleDefensive},
		{ID: "fireball", Cost: 4, Roles: RoleSpell},
		{ID: "ice_spirit", Cost: 1, Roles: RoleDefensive | RoleCycle},
		{ID: "skeletons", Cost: 1, Roles: RoleDefensive | RoleCycle},
		{ID: "ice_golem", Cost: 2, Roles: RoleDefensive},
		{ID: "log", Cost: 2, Roles: RoleSpell},
	}

	catalog := make(CardCatalog, len(cards))
	for _, card := range cards {
		catalog[card.ID] = card
	}
	return catalog
}

// Spell card ids with dedicated placement detection
const (
	CardLog      = "log"
	CardFireball = "fireball"
)

// IsSpell reports whether the id names a card placed by a spell resolver
func IsSpell(cardID string) bool {
	id := strings.ToLower(cardID)
	return id == CardLog || id == CardFireball
}

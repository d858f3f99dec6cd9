package engine

import (
	"fmt"
	"sort"
)

// Catalog is the immutable set of physical cards a game is played with.
// Every *Card and *PirateCard reachable from a state belongs to exactly one
// Catalog.
type Catalog struct {
	Hazards  []*Card
	Fighting []*Card
	Aging    []*Card
	Pirates  []*PirateCard

	byID    [MaxCards]*Card
	pirates map[int]*PirateCard
}

// NewCatalog indexes the given cards. Physical ids must be unique and in
// [0, MaxCards); pirate ids must be unique.
func NewCatalog(hazards, fighting, aging []*Card, pirates []*PirateCard) (*Catalog, error) {
	cat := &Catalog{
		Hazards:  hazards,
		Fighting: fighting,
		Aging:    aging,
		Pirates:  pirates,
		pirates:  make(map[int]*PirateCard, len(pirates)),
	}
	groups := []struct {
		name  string
		cards []*Card
		typ   CardType
	}{
		{"hazard", hazards, CardHazard},
		{"fighting", fighting, CardFighting},
		{"aging", aging, CardAging},
	}
	for _, g := range groups {
		for _, c := range g.cards {
			if c == nil {
				return nil, fmt.Errorf("%s cards: %w", g.name, ErrNilCard)
			}
			if c.Type != g.typ {
				return nil, fmt.Errorf("%s cards: %s has type %s", g.name, c, c.Type)
			}
			if c.PhysicalID < 0 || c.PhysicalID >= MaxCards {
				return nil, fmt.Errorf("%s cards: physical id %d out of range [0,%d)", g.name, c.PhysicalID, MaxCards)
			}
			if cat.byID[c.PhysicalID] != nil {
				return nil, fmt.Errorf("physical id %d: %w", c.PhysicalID, ErrDuplicateCard)
			}
			cat.byID[c.PhysicalID] = c
		}
	}
	for _, p := range pirates {
		if p == nil {
			return nil, fmt.Errorf("pirate cards: %w", ErrNilCard)
		}
		if _, dup := cat.pirates[p.ID]; dup {
			return nil, fmt.Errorf("pirate id %d: %w", p.ID, ErrDuplicateCard)
		}
		cat.pirates[p.ID] = p
	}
	return cat, nil
}

// Card returns the card with the given physical id, or nil.
func (cat *Catalog) Card(id int) *Card {
	if id < 0 || id >= MaxCards {
		return nil
	}
	return cat.byID[id]
}

// Pirate returns the pirate with the given id, or nil.
func (cat *Catalog) Pirate(id int) *PirateCard { return cat.pirates[id] }

// Cards returns every card ordered by physical id.
func (cat *Catalog) Cards() []*Card {
	var out []*Card
	for _, c := range cat.byID {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// PiratesByID returns every pirate ordered by id.
func (cat *Catalog) PiratesByID() []*PirateCard {
	out := make([]*PirateCard, len(cat.Pirates))
	copy(out, cat.Pirates)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Env bundles the card catalog and rules shared by every state of a game.
type Env struct {
	Catalog *Catalog
	Rules   Rules
}

// NewEnv returns an Env for the given catalog and rules.
func NewEnv(cat *Catalog, rules Rules) *Env {
	return &Env{Catalog: cat, Rules: rules}
}

package engine

import "fmt"

// ---------------------------------------------------------------------------
// Pile: append-only sequence with structural sharing
// ---------------------------------------------------------------------------

// Pile is an immutable, growable sequence of cards. Add reuses the backing
// array of the receiver when the slot just past its logical end is still
// free (or already holds the same card), so a chain of appends from one
// state shares storage. When a sibling derived from the same parent has
// already claimed that slot, Add copies instead, so siblings never observe
// each other's writes.
//
// The zero Pile is empty and usable.
type Pile struct {
	cards []*Card // len = logical length; cap = backing capacity
}

// NewPile returns an empty pile whose first growth allocates capacity slots.
func NewPile(capacity int) Pile {
	if capacity < 1 {
		capacity = 1
	}
	return Pile{cards: make([]*Card, 0, capacity)}
}

// PileOf returns a pile holding cards, with at least capacity slots.
func PileOf(capacity int, cards ...*Card) Pile {
	if capacity < len(cards) {
		capacity = len(cards)
	}
	if capacity < 1 {
		capacity = 1
	}
	b := make([]*Card, len(cards), capacity)
	copy(b, cards)
	return Pile{cards: b}
}

// Len returns the number of cards in the pile.
func (p Pile) Len() int { return len(p.cards) }

// Cap returns the capacity of the backing array.
func (p Pile) Cap() int { return cap(p.cards) }

// At returns the i-th card, oldest first.
func (p Pile) At(i int) *Card { return p.cards[i] }

// Cards returns a copy of the pile's contents.
func (p Pile) Cards() []*Card {
	out := make([]*Card, len(p.cards))
	copy(out, p.cards)
	return out
}

// Add returns a pile with c appended.
func (p Pile) Add(c *Card) Pile {
	n := len(p.cards)
	if n < cap(p.cards) {
		ext := p.cards[:n+1]
		switch ext[n] {
		case nil:
			ext[n] = c
			return Pile{cards: ext}
		case c:
			return Pile{cards: ext}
		}
	}
	grow := 2 * cap(p.cards)
	if grow < n+1 {
		grow = n + 1
	}
	b := make([]*Card, n+1, grow)
	copy(b, p.cards)
	b[n] = c
	return Pile{cards: b}
}

// AddAll returns a pile with cards appended in order.
func (p Pile) AddAll(cards ...*Card) Pile {
	for _, c := range cards {
		p = p.Add(c)
	}
	return p
}

// AddPile returns a pile with the contents of o appended.
func (p Pile) AddPile(o Pile) Pile {
	return p.AddAll(o.cards...)
}

// Index returns the position of c in the pile, or -1.
func (p Pile) Index(c *Card) int {
	for i, x := range p.cards {
		if x == c {
			return i
		}
	}
	return -1
}

// Contains reports whether c is in the pile.
func (p Pile) Contains(c *Card) bool { return p.Index(c) >= 0 }

// Remove returns a pile without c. The result never shares storage with p.
// ok is false when c is not in the pile.
func (p Pile) Remove(c *Card) (Pile, bool) {
	i := p.Index(c)
	if i < 0 {
		return p, false
	}
	b := make([]*Card, 0, cap(p.cards))
	b = append(b, p.cards[:i]...)
	b = append(b, p.cards[i+1:]...)
	return Pile{cards: b}, true
}

// ContainsAbility returns the first card in the pile with ability a, or nil.
func (p Pile) ContainsAbility(a Ability) *Card {
	for _, c := range p.cards {
		if c.Ability == a {
			return c
		}
	}
	return nil
}

func (p Pile) String() string { return fmt.Sprint(p.cards) }

// ---------------------------------------------------------------------------
// Deck: fixed sequence with O(1) removal from the front
// ---------------------------------------------------------------------------

// Deck is an immutable card sequence read from the front (index 0 is the
// top of the stack). RemoveFromFront re-slices the same array; every other
// derivation allocates, so a Deck's backing array is never written after
// construction.
type Deck struct {
	cards []*Card
}

// DeckOf returns a deck holding a copy of cards, top first.
func DeckOf(cards ...*Card) Deck {
	b := make([]*Card, len(cards))
	copy(b, cards)
	return Deck{cards: b}
}

// Len returns the number of cards left in the deck.
func (d Deck) Len() int { return len(d.cards) }

// At returns the i-th card from the top.
func (d Deck) At(i int) *Card { return d.cards[i] }

// Top returns the top card, or nil when the deck is empty.
func (d Deck) Top() *Card {
	if len(d.cards) == 0 {
		return nil
	}
	return d.cards[0]
}

// Cards returns a copy of the deck's contents, top first.
func (d Deck) Cards() []*Card {
	out := make([]*Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// RemoveFromFront returns the deck without its top k cards.
func (d Deck) RemoveFromFront(k int) (Deck, error) {
	if k < 0 || k > len(d.cards) {
		return d, fmt.Errorf("remove %d from deck of %d: %w", k, len(d.cards), ErrEmptyStack)
	}
	return Deck{cards: d.cards[k:]}, nil
}

// AddToBottom returns a deck with c placed under the last card.
func (d Deck) AddToBottom(c *Card) Deck {
	b := make([]*Card, len(d.cards)+1)
	copy(b, d.cards)
	b[len(d.cards)] = c
	return Deck{cards: b}
}

// Prepend returns a deck with cards placed on top, cards[0] first.
func (d Deck) Prepend(cards ...*Card) Deck {
	b := make([]*Card, 0, len(cards)+len(d.cards))
	b = append(b, cards...)
	b = append(b, d.cards...)
	return Deck{cards: b}
}

// Contains reports whether c is in the deck.
func (d Deck) Contains(c *Card) bool {
	for _, x := range d.cards {
		if x == c {
			return true
		}
	}
	return false
}

func (d Deck) String() string { return fmt.Sprint(d.cards) }

// ---------------------------------------------------------------------------
// CardMask: per-physical-id boolean flags
// ---------------------------------------------------------------------------

// CardMask is a set of physical card ids. It is a value type; With and
// Without return modified copies.
type CardMask uint64

// Has reports whether c is in the set.
func (m CardMask) Has(c *Card) bool { return m&(1<<uint(c.PhysicalID)) != 0 }

// With returns the set plus c.
func (m CardMask) With(c *Card) CardMask { return m | 1<<uint(c.PhysicalID) }

// Without returns the set minus c.
func (m CardMask) Without(c *Card) CardMask { return m &^ (1 << uint(c.PhysicalID)) }

// IDs returns the physical ids in the set in ascending order.
func (m CardMask) IDs() []int {
	var out []int
	for id := 0; id < MaxCards; id++ {
		if m&(1<<uint(id)) != 0 {
			out = append(out, id)
		}
	}
	return out
}

package engine

import (
	"reflect"
	"testing"
)

func testCards(n int) []*Card {
	out := make([]*Card, n)
	for i := range out {
		out[i] = &Card{Type: CardFighting, PhysicalID: i, TraitID: i}
	}
	return out
}

// TestPileSiblingsDoNotShareWrites verifies that two piles appended to from
// the same parent keep their own last card.
func TestPileSiblingsDoNotShareWrites(t *testing.T) {
	cs := testCards(6)
	parent := NewPile(4).Add(cs[0]).Add(cs[1])

	a := parent.Add(cs[2])
	b := parent.Add(cs[3])
	a = a.Add(cs[4])
	b = b.Add(cs[5])

	if got := cardIDs(parent.Cards()); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("parent = %v, want [0 1]", got)
	}
	if got := cardIDs(a.Cards()); !reflect.DeepEqual(got, []int{0, 1, 2, 4}) {
		t.Errorf("a = %v, want [0 1 2 4]", got)
	}
	if got := cardIDs(b.Cards()); !reflect.DeepEqual(got, []int{0, 1, 3, 5}) {
		t.Errorf("b = %v, want [0 1 3 5]", got)
	}
}

// TestPileAddSharesBacking verifies that a chain of appends reuses one
// backing array while capacity lasts, and that re-adding the same card
// after a sibling claimed the slot still shares.
func TestPileAddSharesBacking(t *testing.T) {
	cs := testCards(3)
	p := NewPile(4)
	a := p.Add(cs[0])
	b := a.Add(cs[1])
	if &a.cards[0] != &b.cards[0] {
		t.Errorf("Add copied the backing array with capacity to spare")
	}
	again := a.Add(cs[1])
	if &again.cards[1] != &b.cards[1] {
		t.Errorf("re-adding the claimed card copied the backing array")
	}
	other := a.Add(cs[2])
	if &other.cards[0] == &b.cards[0] {
		t.Errorf("sibling with a different card shares the backing array")
	}
}

// TestPileGrowth verifies that Add beyond capacity keeps the contents.
func TestPileGrowth(t *testing.T) {
	cs := testCards(10)
	var p Pile
	for _, c := range cs {
		p = p.Add(c)
	}
	if p.Len() != 10 {
		t.Fatalf("Len = %d, want 10", p.Len())
	}
	for i, c := range cs {
		if p.At(i) != c {
			t.Errorf("At(%d) = %v, want %v", i, p.At(i), c)
		}
	}
}

func TestPileRemove(t *testing.T) {
	cs := testCards(4)
	p := PileOf(4, cs[0], cs[1], cs[2])
	q, ok := p.Remove(cs[1])
	if !ok {
		t.Fatalf("Remove(%v) not found", cs[1])
	}
	if got := cardIDs(q.Cards()); !reflect.DeepEqual(got, []int{0, 2}) {
		t.Errorf("after Remove = %v, want [0 2]", got)
	}
	if got := cardIDs(p.Cards()); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Errorf("original changed to %v", got)
	}
	// appending to the result must not touch the original
	q = q.Add(cs[3])
	if p.At(2) != cs[2] {
		t.Errorf("original At(2) = %v after appending to a removal", p.At(2))
	}
	if _, ok := p.Remove(cs[3]); ok {
		t.Errorf("Remove of a missing card reported ok")
	}
}

// TestDeckRemoveFromFront verifies that removing k cards matches slicing
// and leaves the source deck readable.
func TestDeckRemoveFromFront(t *testing.T) {
	cs := testCards(6)
	d := DeckOf(cs...)
	for k := 0; k <= len(cs); k++ {
		rest, err := d.RemoveFromFront(k)
		if err != nil {
			t.Fatalf("RemoveFromFront(%d) failed: %v", k, err)
		}
		if got, want := cardIDs(rest.Cards()), cardIDs(cs[k:]); !reflect.DeepEqual(got, want) {
			t.Errorf("RemoveFromFront(%d) = %v, want %v", k, got, want)
		}
	}
	if got := cardIDs(d.Cards()); !reflect.DeepEqual(got, cardIDs(cs)) {
		t.Errorf("source deck changed to %v", got)
	}
	if _, err := d.RemoveFromFront(7); err == nil {
		t.Errorf("RemoveFromFront(7) on 6 cards succeeded")
	}
}

func TestDeckPrependAndBottom(t *testing.T) {
	cs := testCards(5)
	d := DeckOf(cs[2], cs[3])
	top := d.Prepend(cs[0], cs[1])
	bottom := d.AddToBottom(cs[4])
	if got := cardIDs(top.Cards()); !reflect.DeepEqual(got, []int{0, 1, 2, 3}) {
		t.Errorf("Prepend = %v", got)
	}
	if got := cardIDs(bottom.Cards()); !reflect.DeepEqual(got, []int{2, 3, 4}) {
		t.Errorf("AddToBottom = %v", got)
	}
	if d.Len() != 2 || d.Top() != cs[2] {
		t.Errorf("source deck changed: %v", d)
	}
	if (Deck{}).Top() != nil {
		t.Errorf("Top of empty deck is not nil")
	}
}

func TestCardMask(t *testing.T) {
	cs := testCards(64)
	var m CardMask
	m = m.With(cs[0]).With(cs[63]).With(cs[7])
	if !m.Has(cs[63]) || !m.Has(cs[0]) || m.Has(cs[8]) {
		t.Errorf("mask %b has wrong members", m)
	}
	m = m.Without(cs[0])
	if got := m.IDs(); !reflect.DeepEqual(got, []int{7, 63}) {
		t.Errorf("IDs = %v, want [7 63]", got)
	}
}

// internal/replay/replay.go

// Package replay writes game states to JSON and reads them back, so that a
// state that broke an invariant can be loaded and stepped through again.
//
// Cards are stored by physical id together with a description of every
// card in the catalog. On load each stored card is matched to a catalog
// card with the same printed contents, so a file stays readable after the
// card file is reordered. A file whose catalog checksum does not match is
// rejected.
package replay

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jgwest/fridai/engine"
	"golang.org/x/crypto/blake2b"
)

// Version is the file format version written by Encode.
const Version = 1

var (
	// ErrChecksum is returned when a file was written against other cards.
	ErrChecksum = errors.New("catalog checksum mismatch")
	// ErrUnknownCard is returned when a stored card has no catalog match.
	ErrUnknownCard = errors.New("card not in catalog")
)

// Checksum returns the blake2b-256 checksum of a card definition file.
func Checksum(cardText []byte) string {
	sum := blake2b.Sum256(cardText)
	return hex.EncodeToString(sum[:])
}

// File is the on-disk form of a saved state. Exactly one of Game and
// Pirate is set.
type File struct {
	Version  int          `json:"version"`
	Checksum string       `json:"catalogChecksum,omitempty"`
	Seed     uint64       `json:"seed"`
	Count    uint64       `json:"rngCount"`
	Error    string       `json:"error,omitempty"`
	Cards    []cardJSON   `json:"cards"`
	Pirates  []pirateJSON `json:"pirateCards"`
	Game     *gameJSON    `json:"gameState,omitempty"`
	Pirate   *pirateState `json:"pirateGameState,omitempty"`
}

type cardJSON struct {
	ID            int    `json:"physicalCardId"`
	TraitID       int    `json:"traitId"`
	Type          string `json:"type"`
	Title         string `json:"title"`
	HazardTitle   string `json:"hazardTitle,omitempty"`
	FightingValue int    `json:"fightingValue"`
	HazardValues  [3]int `json:"hazardValues"`
	FreeCards     int    `json:"freeCards"`
	Ability       string `json:"ability"`
	Difficulty    string `json:"difficulty"`
}

type pirateJSON struct {
	ID          int    `json:"pirateCardId"`
	FreeCards   int    `json:"freeCards"`
	HazardValue int    `json:"hazardValue"`
	Ability     string `json:"ability"`
}

type abilityJSON struct {
	Card      int   `json:"activeCard"`
	Drawn     int   `json:"numberOfCardsDrawn"`
	Stage     int   `json:"stage"`
	SortCards []int `json:"drawnSortCards,omitempty"`
	Copied    bool  `json:"copied"`
}

type pirateInfoJSON struct {
	HazardPoints int `json:"hazardPoints"`
	FreeCards    int `json:"freeCards"`
}

type slowJSON struct {
	Aging      []int           `json:"agingCards"`
	Level      int             `json:"gameLevel"`
	Pirates    []int           `json:"activePirates"`
	RoundCards []int           `json:"phaseRoundCards,omitempty"`
	Phase      int             `json:"phaseNumber"`
	Wildcard   *pirateInfoJSON `json:"wildcardPirate,omitempty"`
}

type boardJSON struct {
	Step      string       `json:"state"`
	Life      int          `json:"lifePoints"`
	Fighting  []int        `json:"yourFightingCards"`
	Discard   []int        `json:"discardFightCards"`
	LHS       []int        `json:"lhsFightCards"`
	RHS       []int        `json:"rhsFightCards"`
	Used      map[int]bool `json:"lhsOrRhsFightingCardUsed,omitempty"`
	Doubled   map[int]bool `json:"lhsOrRhsFightingCardDoubled,omitempty"`
	Ability   *abilityJSON `json:"abilityObject,omitempty"`
	Slow      slowJSON     `json:"slowGameState"`
	Destroyed []int        `json:"destroyedCards,omitempty"`
}

type gameJSON struct {
	boardJSON
	Hazards       []int `json:"hazardCards"`
	HazardDiscard []int `json:"discardHazards"`
	ActiveHazard  *int  `json:"activeHazardCard,omitempty"`
}

type pirateState struct {
	boardJSON
	ActivePirate *int            `json:"activePirateCard,omitempty"`
	PirateInfo   *pirateInfoJSON `json:"pirateInfo,omitempty"`
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// Snapshot describes a state and where in the game it was reached.
type Snapshot struct {
	State    engine.State
	Seed     uint64
	Count    uint64
	Checksum string // Checksum of the card file, empty to skip the check on load
	Err      error  // the error that stopped the game, if any
}

// Encode returns the JSON form of a snapshot.
func Encode(snap Snapshot) ([]byte, error) {
	if snap.State == nil {
		return nil, fmt.Errorf("encode: %w", engine.ErrNilCard)
	}
	b := snap.State.Common()
	f := File{
		Version:  Version,
		Checksum: snap.Checksum,
		Seed:     snap.Seed,
		Count:    snap.Count,
	}
	if snap.Err != nil {
		f.Error = snap.Err.Error()
	}
	cat := b.Env.Catalog
	for _, c := range cat.Cards() {
		f.Cards = append(f.Cards, cardJSON{
			ID:            c.PhysicalID,
			TraitID:       c.TraitID,
			Type:          c.Type.String(),
			Title:         c.Title,
			HazardTitle:   c.HazardTitle,
			FightingValue: c.FightingValue,
			HazardValues:  c.HazardValues,
			FreeCards:     c.FreeCards,
			Ability:       c.Ability.String(),
			Difficulty:    c.Difficulty.String(),
		})
	}
	for _, p := range cat.PiratesByID() {
		f.Pirates = append(f.Pirates, pirateJSON{
			ID:          p.ID,
			FreeCards:   p.FreeCards,
			HazardValue: p.HazardValue,
			Ability:     p.Ability.String(),
		})
	}

	switch s := snap.State.(type) {
	case *engine.GameState:
		g := &gameJSON{
			boardJSON:     encodeBoard(b),
			Hazards:       ids(s.Hazards.Cards()),
			HazardDiscard: ids(s.HazardDiscard.Cards()),
		}
		if s.ActiveHazard != nil {
			id := s.ActiveHazard.PhysicalID
			g.ActiveHazard = &id
		}
		f.Game = g
	case *engine.PirateGameState:
		p := &pirateState{boardJSON: encodeBoard(b)}
		if s.ActivePirate != nil {
			id := s.ActivePirate.ID
			p.ActivePirate = &id
		}
		if s.PirateInfo != nil {
			p.PirateInfo = &pirateInfoJSON{HazardPoints: s.PirateInfo.HazardPoints, FreeCards: s.PirateInfo.FreeCards}
		}
		f.Pirate = p
	default:
		return nil, fmt.Errorf("encode: unsupported state %T", snap.State)
	}
	return json.MarshalIndent(f, "", "  ")
}

func ids(cards []*engine.Card) []int {
	out := make([]int, len(cards))
	for i, c := range cards {
		out[i] = c.PhysicalID
	}
	return out
}

func maskMap(m engine.CardMask) map[int]bool {
	idList := m.IDs()
	if len(idList) == 0 {
		return nil
	}
	out := make(map[int]bool, len(idList))
	for _, id := range idList {
		out[id] = true
	}
	return out
}

func encodeBoard(b *engine.Board) boardJSON {
	out := boardJSON{
		Step:      b.Step.String(),
		Life:      b.Life,
		Fighting:  ids(b.Fighting.Cards()),
		Discard:   ids(b.Discard.Cards()),
		LHS:       ids(b.LHS.Cards()),
		RHS:       ids(b.RHS.Cards()),
		Used:      maskMap(b.Used),
		Doubled:   maskMap(b.Doubled),
		Destroyed: ids(b.Destroyed.Cards()),
	}
	if ao := b.Ability; ao != nil {
		out.Ability = &abilityJSON{
			Card:   ao.Card.PhysicalID,
			Drawn:  ao.Drawn,
			Stage:  ao.Stage,
			Copied: ao.Copied,
		}
		if ao.SortCards != nil {
			out.Ability.SortCards = ids(ao.SortCards)
		}
	}
	if sl := b.Slow; sl != nil {
		out.Slow = slowJSON{
			Aging:      ids(sl.Aging.Cards()),
			Level:      sl.Level,
			RoundCards: ids(sl.RoundCards.Cards()),
			Phase:      sl.Phase,
		}
		for _, p := range sl.Pirates {
			out.Slow.Pirates = append(out.Slow.Pirates, p.ID)
		}
		if w := sl.Wildcard; w != nil {
			out.Slow.Wildcard = &pirateInfoJSON{HazardPoints: w.HazardPoints, FreeCards: w.FreeCards}
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// translation maps the ids stored in a file to the catalog's cards.
type translation struct {
	cards   map[int]*engine.Card
	pirates map[int]*engine.PirateCard
}

func (t *translation) card(id int) (*engine.Card, error) {
	c, ok := t.cards[id]
	if !ok {
		return nil, fmt.Errorf("physical id %d: %w", id, ErrUnknownCard)
	}
	return c, nil
}

func (t *translation) list(idList []int) ([]*engine.Card, error) {
	out := make([]*engine.Card, len(idList))
	for i, id := range idList {
		c, err := t.card(id)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func (t *translation) mask(m map[int]bool) (engine.CardMask, error) {
	var out engine.CardMask
	for id, set := range m {
		if !set {
			continue
		}
		c, err := t.card(id)
		if err != nil {
			return 0, err
		}
		out = out.With(c)
	}
	return out, nil
}

// newTranslation matches every stored card to a distinct catalog card with
// the same contents, keeping its id when that card is still free. Both
// sides must hold the same multiset of cards.
func newTranslation(f *File, cat *engine.Catalog) (*translation, error) {
	t := &translation{
		cards:   make(map[int]*engine.Card, len(f.Cards)),
		pirates: make(map[int]*engine.PirateCard, len(f.Pirates)),
	}
	pool := cat.Cards()
	for _, jc := range f.Cards {
		want, err := jc.card()
		if err != nil {
			return nil, err
		}
		match := -1
		for i, c := range pool {
			if !c.SameContents(want) {
				continue
			}
			if match < 0 {
				match = i
			}
			if c.PhysicalID == want.PhysicalID {
				match = i
				break
			}
		}
		if match < 0 {
			return nil, fmt.Errorf("%s: %w", want, ErrUnknownCard)
		}
		t.cards[jc.ID] = pool[match]
		pool = append(pool[:match], pool[match+1:]...)
	}
	if len(pool) > 0 {
		return nil, fmt.Errorf("%d catalog cards missing from file: %w", len(pool), ErrUnknownCard)
	}

	pirates := cat.PiratesByID()
	for _, jp := range f.Pirates {
		ab, err := engine.ParsePirateAbility(jp.Ability)
		if err != nil {
			return nil, err
		}
		want := &engine.PirateCard{FreeCards: jp.FreeCards, HazardValue: jp.HazardValue, Ability: ab}
		match := -1
		for i, p := range pirates {
			if !p.SameContents(want) {
				continue
			}
			if match < 0 {
				match = i
			}
			if p.ID == jp.ID {
				match = i
				break
			}
		}
		if match < 0 {
			return nil, fmt.Errorf("pirate %d: %w", jp.ID, ErrUnknownCard)
		}
		t.pirates[jp.ID] = pirates[match]
		pirates = append(pirates[:match], pirates[match+1:]...)
	}
	if len(pirates) > 0 {
		return nil, fmt.Errorf("%d catalog pirates missing from file: %w", len(pirates), ErrUnknownCard)
	}
	return t, nil
}

func (jc cardJSON) card() (*engine.Card, error) {
	typ, err := engine.ParseCardType(jc.Type)
	if err != nil {
		return nil, err
	}
	ab, err := engine.ParseAbility(jc.Ability)
	if err != nil {
		return nil, err
	}
	diff, err := engine.ParseDifficulty(jc.Difficulty)
	if err != nil {
		return nil, err
	}
	return &engine.Card{
		Type:          typ,
		Title:         jc.Title,
		HazardTitle:   jc.HazardTitle,
		FightingValue: jc.FightingValue,
		HazardValues:  jc.HazardValues,
		FreeCards:     jc.FreeCards,
		Ability:       ab,
		Difficulty:    diff,
		PhysicalID:    jc.ID,
		TraitID:       jc.TraitID,
	}, nil
}

// Decode reads a saved state back into env. When checksum is not empty
// it must equal the checksum stored in the file.
func Decode(data []byte, env *engine.Env, checksum string) (Snapshot, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return Snapshot{}, fmt.Errorf("decode: %w", err)
	}
	if f.Version != Version {
		return Snapshot{}, fmt.Errorf("decode: unsupported version %d", f.Version)
	}
	if checksum != "" && f.Checksum != "" && f.Checksum != checksum {
		return Snapshot{}, fmt.Errorf("decode: %w", ErrChecksum)
	}
	if (f.Game == nil) == (f.Pirate == nil) {
		return Snapshot{}, errors.New("decode: file must hold exactly one state")
	}
	t, err := newTranslation(&f, env.Catalog)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode: %w", err)
	}

	snap := Snapshot{Seed: f.Seed, Count: f.Count, Checksum: f.Checksum}
	if f.Error != "" {
		snap.Err = errors.New(f.Error)
	}
	if f.Game != nil {
		snap.State, err = t.game(f.Game, env)
	} else {
		snap.State, err = t.pirateGame(f.Pirate, env)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode: %w", err)
	}
	if env.Rules.Verify {
		if err := snap.State.Verify(); err != nil {
			return Snapshot{}, fmt.Errorf("decode: %w", err)
		}
	}
	return snap, nil
}

func (t *translation) board(j *boardJSON, env *engine.Env) (engine.Board, error) {
	r := &env.Rules
	step, err := engine.ParseStep(j.Step)
	if err != nil {
		return engine.Board{}, err
	}
	b := engine.Board{Env: env, Step: step, Life: j.Life}

	lists := []struct {
		src []int
		set func([]*engine.Card)
	}{
		{j.Fighting, func(cs []*engine.Card) { b.Fighting = engine.DeckOf(cs...) }},
		{j.Discard, func(cs []*engine.Card) { b.Discard = engine.PileOf(r.FightDiscardCap, cs...) }},
		{j.LHS, func(cs []*engine.Card) { b.LHS = engine.PileOf(r.SidePileCap, cs...) }},
		{j.RHS, func(cs []*engine.Card) { b.RHS = engine.PileOf(r.SidePileCap, cs...) }},
		{j.Destroyed, func(cs []*engine.Card) {
			if len(cs) > 0 {
				b.Destroyed = engine.PileOf(len(cs), cs...)
			}
		}},
	}
	for _, l := range lists {
		cs, err := t.list(l.src)
		if err != nil {
			return engine.Board{}, err
		}
		l.set(cs)
	}
	if b.Used, err = t.mask(j.Used); err != nil {
		return engine.Board{}, err
	}
	if b.Doubled, err = t.mask(j.Doubled); err != nil {
		return engine.Board{}, err
	}

	if ja := j.Ability; ja != nil {
		c, err := t.card(ja.Card)
		if err != nil {
			return engine.Board{}, err
		}
		ao := &engine.AbilityObject{Card: c, Drawn: ja.Drawn, Stage: ja.Stage, Copied: ja.Copied}
		if ja.SortCards != nil {
			if ao.SortCards, err = t.list(ja.SortCards); err != nil {
				return engine.Board{}, err
			}
		}
		b.Ability = ao
	}

	slow := &engine.SlowState{Level: j.Slow.Level, Phase: j.Slow.Phase}
	aging, err := t.list(j.Slow.Aging)
	if err != nil {
		return engine.Board{}, err
	}
	slow.Aging = engine.DeckOf(aging...)
	if len(j.Slow.RoundCards) > 0 {
		rc, err := t.list(j.Slow.RoundCards)
		if err != nil {
			return engine.Board{}, err
		}
		slow.RoundCards = engine.PileOf(len(rc), rc...)
	}
	for _, id := range j.Slow.Pirates {
		p, ok := t.pirates[id]
		if !ok {
			return engine.Board{}, fmt.Errorf("pirate %d: %w", id, ErrUnknownCard)
		}
		slow.Pirates = append(slow.Pirates, p)
	}
	if w := j.Slow.Wildcard; w != nil {
		slow.Wildcard = &engine.PirateInfo{HazardPoints: w.HazardPoints, FreeCards: w.FreeCards}
	}
	b.Slow = slow
	return b, nil
}

func (t *translation) game(j *gameJSON, env *engine.Env) (*engine.GameState, error) {
	b, err := t.board(&j.boardJSON, env)
	if err != nil {
		return nil, err
	}
	g := &engine.GameState{Board: b}
	hazards, err := t.list(j.Hazards)
	if err != nil {
		return nil, err
	}
	g.Hazards = engine.DeckOf(hazards...)
	hd, err := t.list(j.HazardDiscard)
	if err != nil {
		return nil, err
	}
	g.HazardDiscard = engine.PileOf(env.Rules.HazardDiscardCap, hd...)
	if j.ActiveHazard != nil {
		if g.ActiveHazard, err = t.card(*j.ActiveHazard); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (t *translation) pirateGame(j *pirateState, env *engine.Env) (*engine.PirateGameState, error) {
	b, err := t.board(&j.boardJSON, env)
	if err != nil {
		return nil, err
	}
	p := &engine.PirateGameState{Board: b}
	if j.ActivePirate != nil {
		pc, ok := t.pirates[*j.ActivePirate]
		if !ok {
			return nil, fmt.Errorf("pirate %d: %w", *j.ActivePirate, ErrUnknownCard)
		}
		p.ActivePirate = pc
	}
	if pi := j.PirateInfo; pi != nil {
		p.PirateInfo = &engine.PirateInfo{HazardPoints: pi.HazardPoints, FreeCards: pi.FreeCards}
	}
	return p, nil
}

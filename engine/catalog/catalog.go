// Package catalog reads card definitions into an engine.Catalog.
//
// The format is line oriented: section headers select the card group,
// "key: value" lines set attributes for the cards that follow and data
// lines ("[quantity)] title, ability") emit cards. See cards.txt for the
// standard set.
package catalog

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/jgwest/fridai/engine"
)

//go:embed cards.txt
var standardCards string

var (
	standardOnce sync.Once
	standard     *engine.Catalog
	standardErr  error
)

// Standard returns the catalog of the standard card set. It is parsed once
// and shared.
func Standard() (*engine.Catalog, error) {
	standardOnce.Do(func() {
		standard, standardErr = Parse(strings.NewReader(standardCards))
	})
	return standard, standardErr
}

// Text returns the card definitions Standard is built from.
func Text() string { return standardCards }

// builder accumulates the attributes set so far in a section. Each data
// line builds new cards from a snapshot of it.
type builder struct {
	typ           engine.CardType
	hazardTitle   string
	fightingValue int
	hazardValues  [3]int
	freeCards     int
	difficulty    engine.Difficulty
}

func (b builder) build(title string, ability engine.Ability, traitID, physicalID int) *engine.Card {
	return &engine.Card{
		Type:          b.typ,
		Title:         title,
		HazardTitle:   b.hazardTitle,
		FightingValue: b.fightingValue,
		HazardValues:  b.hazardValues,
		FreeCards:     b.freeCards,
		Ability:       ability,
		Difficulty:    b.difficulty,
		TraitID:       traitID,
		PhysicalID:    physicalID,
	}
}

type section uint8

const (
	sectionNone section = iota
	sectionHazard
	sectionFighting
	sectionAging
	sectionPirate
)

// Parse reads card definitions and returns the indexed catalog. Physical
// ids are assigned in file order starting at 0; each data line is one trait.
func Parse(r io.Reader) (*engine.Catalog, error) {
	var (
		hazards, fighting, aging []*engine.Card
		pirates                  []*engine.PirateCard
		cur                      section
		b                        builder
		nextTrait, nextPhysical  int
	)

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fail := func(format string, args ...any) error {
			return fmt.Errorf("line %d %q: %s", lineNo, line, fmt.Sprintf(format, args...))
		}

		switch line {
		case "Hazard cards:":
			cur, b = sectionHazard, builder{typ: engine.CardHazard}
			continue
		case "Fighting Cards:":
			cur, b = sectionFighting, builder{typ: engine.CardFighting}
			continue
		case "Aging Cards:":
			cur, b = sectionAging, builder{typ: engine.CardAging}
			continue
		case "Pirate Cards:":
			cur = sectionPirate
			continue
		}

		if cur == sectionPirate {
			pc, err := parsePirate(line, len(pirates))
			if err != nil {
				return nil, fail("%v", err)
			}
			pirates = append(pirates, pc)
			continue
		}
		if cur == sectionNone {
			return nil, fail("outside of a card section")
		}

		if key, value, ok := strings.Cut(line, ":"); ok {
			if err := b.set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
				return nil, fail("%v", err)
			}
			continue
		}

		qty, title, ability, err := parseData(line)
		if err != nil {
			return nil, fail("%v", err)
		}
		for range qty {
			c := b.build(title, ability, nextTrait, nextPhysical)
			nextPhysical++
			switch cur {
			case sectionHazard:
				hazards = append(hazards, c)
			case sectionFighting:
				fighting = append(fighting, c)
			case sectionAging:
				aging = append(aging, c)
			}
		}
		nextTrait++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read cards: %w", err)
	}
	return engine.NewCatalog(hazards, fighting, aging, pirates)
}

func (b *builder) set(key, value string) error {
	switch key {
	case "fighting-value":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("fighting-value: %w", err)
		}
		b.fightingValue = v
	case "hazard-title":
		b.hazardTitle = value
	case "hazard-values":
		fields := strings.Fields(value)
		if len(fields) != len(b.hazardValues) {
			return fmt.Errorf("hazard-values: want %d values, got %d", len(b.hazardValues), len(fields))
		}
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return fmt.Errorf("hazard-values: %w", err)
			}
			b.hazardValues[i] = v
		}
	case "free-cards":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("free-cards: %w", err)
		}
		b.freeCards = v
	case "difficulty":
		d, err := engine.ParseDifficulty(value)
		if err != nil {
			return err
		}
		b.difficulty = d
	default:
		return fmt.Errorf("unknown attribute %q", key)
	}
	return nil
}

// parseData splits "[quantity)] title, ability".
func parseData(line string) (qty int, title string, ability engine.Ability, err error) {
	qty = 1
	comma := strings.Index(line, ",")
	if comma < 0 {
		return 0, "", 0, fmt.Errorf("want \"title, ability\"")
	}
	if brace := strings.Index(line, ")"); brace >= 0 && brace < comma {
		qty, err = strconv.Atoi(strings.TrimSpace(line[:brace]))
		if err != nil {
			return 0, "", 0, fmt.Errorf("quantity: %w", err)
		}
		if qty < 1 {
			return 0, "", 0, fmt.Errorf("quantity %d", qty)
		}
		line = line[brace+1:]
	}
	parts := nonEmptyFields(line)
	if len(parts) != 2 {
		return 0, "", 0, fmt.Errorf("want \"title, ability\", got %d fields", len(parts))
	}
	ability, err = engine.ParseAbility(parts[1])
	if err != nil {
		return 0, "", 0, err
	}
	return qty, parts[0], ability, nil
}

// parsePirate reads "free cards, hazard points, ability".
func parsePirate(line string, id int) (*engine.PirateCard, error) {
	parts := nonEmptyFields(line)
	if len(parts) != 3 {
		return nil, fmt.Errorf("want \"free cards, hazard points, ability\", got %d fields", len(parts))
	}
	free, err := pirateValue(parts[0])
	if err != nil {
		return nil, fmt.Errorf("free cards: %w", err)
	}
	hazard, err := pirateValue(parts[1])
	if err != nil {
		return nil, fmt.Errorf("hazard points: %w", err)
	}
	ability, err := engine.ParsePirateAbility(parts[2])
	if err != nil {
		return nil, err
	}
	return &engine.PirateCard{ID: id, FreeCards: free, HazardValue: hazard, Ability: ability}, nil
}

func pirateValue(s string) (int, error) {
	if s == "*" {
		return engine.PirateComputed, nil
	}
	return strconv.Atoi(s)
}

func nonEmptyFields(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

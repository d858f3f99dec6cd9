package engine

import (
	"fmt"
	"strings"
)

// MaxCards bounds physical card ids. Every id is in [0, MaxCards) so that
// per-card flags fit in a single CardMask word.
const MaxCards = 64

// CardType is the deck a card was printed for.
type CardType uint8

const (
	CardHazard   CardType = iota // 0
	CardFighting                 // 1
	CardAging                    // 2
)

func (t CardType) String() string {
	switch t {
	case CardHazard:
		return "hazard"
	case CardFighting:
		return "fighting"
	case CardAging:
		return "aging"
	}
	return fmt.Sprintf("CardType(%d)", uint8(t))
}

// ParseCardType is the inverse of CardType.String.
func ParseCardType(s string) (CardType, error) {
	for t := CardHazard; t <= CardAging; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown card type %q", s)
}

// ---------------------------------------------------------------------------
// Abilities
// ---------------------------------------------------------------------------

// Ability is the special ability printed on the fighting side of a card.
type Ability uint8

const (
	AbilityNone              Ability = iota // 0
	AbilityCopy                             // 1: "1x copy"
	AbilityDestroy                          // 2: "1x destroy"
	AbilityPhaseMinus1                      // 3: "phase -1"
	AbilityBelowThePile                     // 4: "1x below the pile"
	AbilityDouble                           // 5: "1x double"
	AbilitySort3                            // 6: "sort 3 cards"
	AbilityDraw1                            // 7: "+1 cards"
	AbilityDraw2                            // 8: "+2 cards"
	AbilityExchange1                        // 9: "1x exchange"
	AbilityExchange2                        // 10: "2x exchange"
	AbilityLifeAdd1                         // 11: "+1 life"
	AbilityLifeAdd2                         // 12: "+2 life"
	AbilityDotDotDot                        // 13: "..."
	AbilityStop                             // 14: "stop"
	AbilityLifeMinus1                       // 15: "-1 life"
	AbilityLifeMinus2                       // 16: "-2 life"
	AbilityHighestCardIsZero                // 17: "highest card = 0"
	numAbilities
)

var abilityText = [numAbilities]string{
	AbilityNone:              "",
	AbilityCopy:              "1x copy",
	AbilityDestroy:           "1x destroy",
	AbilityPhaseMinus1:       "phase -1",
	AbilityBelowThePile:      "1x below the pile",
	AbilityDouble:            "1x double",
	AbilitySort3:             "sort 3 cards",
	AbilityDraw1:             "+1 cards",
	AbilityDraw2:             "+2 cards",
	AbilityExchange1:         "1x exchange",
	AbilityExchange2:         "2x exchange",
	AbilityLifeAdd1:          "+1 life",
	AbilityLifeAdd2:          "+2 life",
	AbilityDotDotDot:         "...",
	AbilityStop:              "stop",
	AbilityLifeMinus1:        "-1 life",
	AbilityLifeMinus2:        "-2 life",
	AbilityHighestCardIsZero: "highest card = 0",
}

// skill is the heuristic weight of each ability, used by RatingSimple.
var skill = [numAbilities]int{
	AbilityPhaseMinus1:       3,
	AbilityLifeAdd2:          3,
	AbilityDestroy:           3,
	AbilityDouble:            3,
	AbilityDraw2:             3,
	AbilityExchange2:         3,
	AbilityCopy:              2,
	AbilityDraw1:             2,
	AbilityExchange1:         2,
	AbilityLifeAdd1:          2,
	AbilitySort3:             1,
	AbilityBelowThePile:      1,
	AbilityDotDotDot:         0,
	AbilityLifeMinus1:        -1,
	AbilityLifeMinus2:        -2,
	AbilityStop:              -3,
	AbilityHighestCardIsZero: -3,
}

// ParseAbility maps the printed ability text to an Ability. Matching is
// case-insensitive and ignores surrounding whitespace. "none" is accepted
// for AbilityNone.
func ParseAbility(s string) (Ability, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "none" {
		return AbilityNone, nil
	}
	for a := AbilityCopy; a < numAbilities; a++ {
		if abilityText[a] == s {
			return a, nil
		}
	}
	return AbilityNone, fmt.Errorf("unrecognized ability %q", s)
}

func (a Ability) String() string {
	if a < numAbilities {
		if a == AbilityNone {
			return "none"
		}
		return abilityText[a]
	}
	return fmt.Sprintf("Ability(%d)", uint8(a))
}

// Magnitude returns the count or life delta carried by the ability:
// cards drawn, cards exchanged or life gained (negative for life lost).
func (a Ability) Magnitude() int {
	switch a {
	case AbilityDraw1, AbilityExchange1, AbilityLifeAdd1:
		return 1
	case AbilityDraw2, AbilityExchange2, AbilityLifeAdd2:
		return 2
	case AbilityLifeMinus1:
		return -1
	case AbilityLifeMinus2:
		return -2
	}
	return 0
}

// Skill returns the heuristic weight of the ability.
func (a Ability) Skill() int {
	if a < numAbilities {
		return skill[a]
	}
	return 0
}

// Difficulty separates fighting cards (none) from the two aging decks.
type Difficulty uint8

const (
	DifficultyNone      Difficulty = iota // 0
	DifficultyNormal                      // 1
	DifficultyDifficult                   // 2
)

// ParseDifficulty maps "normal", "difficult" or "none" to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return DifficultyNone, nil
	case "normal":
		return DifficultyNormal, nil
	case "difficult":
		return DifficultyDifficult, nil
	}
	return DifficultyNone, fmt.Errorf("unrecognized difficulty %q", s)
}

func (d Difficulty) String() string {
	switch d {
	case DifficultyNone:
		return "none"
	case DifficultyNormal:
		return "normal"
	case DifficultyDifficult:
		return "difficult"
	}
	return fmt.Sprintf("Difficulty(%d)", uint8(d))
}

// ---------------------------------------------------------------------------
// Card
// ---------------------------------------------------------------------------

// Card is one physical card. Exactly one *Card exists per PhysicalID for the
// lifetime of a Catalog, so pointer equality and PhysicalID equality agree.
// Cards are never mutated after the Catalog is built.
type Card struct {
	Type          CardType
	Title         string
	HazardTitle   string
	FightingValue int
	HazardValues  [3]int // indexed by phase: 0 red, 1 yellow, 2 green
	FreeCards     int
	Ability       Ability
	Difficulty    Difficulty
	TraitID       int // shared by content duplicates
	PhysicalID    int // unique, in [0, MaxCards)
}

// RatingSimple is the heuristic value of a card: its ability weight plus
// its fighting value.
func (c *Card) RatingSimple() int {
	return c.Ability.Skill() + c.FightingValue
}

// SameContents reports whether two cards print the same thing, ignoring
// their identities.
func (c *Card) SameContents(o *Card) bool {
	return c.Type == o.Type &&
		c.Title == o.Title &&
		c.HazardTitle == o.HazardTitle &&
		c.FightingValue == o.FightingValue &&
		c.HazardValues == o.HazardValues &&
		c.FreeCards == o.FreeCards &&
		c.Ability == o.Ability &&
		c.Difficulty == o.Difficulty
}

func (c *Card) String() string {
	if c == nil {
		return "<nil>"
	}
	switch c.Type {
	case CardHazard:
		return fmt.Sprintf("#%d %s %v free:%d / %s (%d) %s",
			c.PhysicalID, c.HazardTitle, c.HazardValues, c.FreeCards, c.Title, c.FightingValue, c.Ability)
	default:
		return fmt.Sprintf("#%d %s (%d) %s", c.PhysicalID, c.Title, c.FightingValue, c.Ability)
	}
}

// ---------------------------------------------------------------------------
// Pirates
// ---------------------------------------------------------------------------

// PirateAbility is the rule modifier printed on a pirate card.
type PirateAbility uint8

const (
	PirateNone                  PirateAbility = iota // 0: "..."
	PirateTwoPointsPerAgingCard                      // 1
	PirateExtraCardCostsTwo                          // 2
	PirateHalfCardsCount                             // 3
	PirateCardsCountPlusOne                          // 4
	PirateFightRemainingHazards                      // 5
	numPirateAbilities
)

var pirateAbilityText = [numPirateAbilities]string{
	PirateNone:                  "...",
	PirateTwoPointsPerAgingCard: "+2 hazard points for each aging card",
	PirateExtraCardCostsTwo:     "Each additional fighting card costs 2 life points",
	PirateHalfCardsCount:        "Only half of the face up fighting cards count (face up aging cards must be part of this)",
	PirateCardsCountPlusOne:     "Each face up fighting card counts +1 fighting point",
	PirateFightRemainingHazards: "Fight against all remaining hazard cards",
}

// ParsePirateAbility maps the printed pirate text to a PirateAbility.
func ParsePirateAbility(s string) (PirateAbility, error) {
	s = strings.TrimSpace(s)
	for a := PirateNone; a < numPirateAbilities; a++ {
		if pirateAbilityText[a] == s {
			return a, nil
		}
	}
	return PirateNone, fmt.Errorf("unrecognized pirate ability %q", s)
}

func (a PirateAbility) String() string {
	if a < numPirateAbilities {
		return pirateAbilityText[a]
	}
	return fmt.Sprintf("PirateAbility(%d)", uint8(a))
}

// PirateComputed marks a pirate value printed as "*": it is derived from the
// game state when the pirate is selected.
const PirateComputed = -2

// PirateCard is one pirate. Like Card, one instance exists per ID.
type PirateCard struct {
	ID          int
	FreeCards   int
	HazardValue int
	Ability     PirateAbility
}

// SameContents reports whether two pirates print the same thing.
func (p *PirateCard) SameContents(o *PirateCard) bool {
	return p.FreeCards == o.FreeCards && p.HazardValue == o.HazardValue && p.Ability == o.Ability
}

func (p *PirateCard) String() string {
	if p == nil {
		return "<nil>"
	}
	return fmt.Sprintf("pirate#%d %d free / %d hazard (%s)", p.ID, p.FreeCards, p.HazardValue, p.Ability)
}

// PirateInfo is the effective hazard value and free-card count of the
// active pirate, resolved when the pirate is selected.
type PirateInfo struct {
	HazardPoints int
	FreeCards    int
}

package engine

import (
	"fmt"
	"strings"
)

// ActionType tags the kind of player decision an Action carries.
type ActionType uint8

const (
	ActSelectFromTwo   ActionType = iota // 0: fight hazards[Index] of the top two
	ActFightOrDiscard                    // 1: last hazard, Fight or discard
	ActDrawFree                          // 2
	ActEndDrawFree                       // 3
	ActSacrificeDraw                     // 4
	ActEndSacrifice                      // 5
	ActDestroyWithLife                   // 6: Destroy
	ActUseAbility                        // 7: Card
	ActUseAbilityTarget                  // 8: Card on Target
	ActSortCards                         // 9: Order, Discard
	ActEndMultistage                     // 10
	ActUseCopy                           // 11: Card copies Inner
	ActSelectPirate                      // 12: Pirate
	ActEndPirateRound                    // 13
	numActionTypes
)

var actionTypeNames = [numActionTypes]string{
	ActSelectFromTwo:    "SELECT_FROM_TWO_HAZARD_CARDS",
	ActFightOrDiscard:   "FIGHT_OR_DISCARD_HAZARD_CARD",
	ActDrawFree:         "DRAW_A_FREE_CARD",
	ActEndDrawFree:      "END_DRAW_FREE_CARDS_PHASE",
	ActSacrificeDraw:    "SACRIFICE_LIFE_TO_DRAW",
	ActEndSacrifice:     "END_SACRIFICE_LIFE_PHASE",
	ActDestroyWithLife:  "DESTROY_CARDS_WITH_PAID_LIFE",
	ActUseAbility:       "USE_CARD_ABILITY",
	ActUseAbilityTarget: "USE_CARD_ABILITY_WITH_TARGET",
	ActSortCards:        "USE_CARD_ABILITY_SORT",
	ActEndMultistage:    "END_MULTISTAGE_ABILITY_ACTION",
	ActUseCopy:          "USE_COPY_ABILITY",
	ActSelectPirate:     "SELECT_A_PIRATE",
	ActEndPirateRound:   "END_PIRATE_ROUND",
}

func (t ActionType) String() string {
	if t < numActionTypes {
		return actionTypeNames[t]
	}
	return fmt.Sprintf("ActionType(%d)", uint8(t))
}

// ParseActionType is the inverse of ActionType.String.
func ParseActionType(name string) (ActionType, error) {
	for i, n := range actionTypeNames {
		if n == name {
			return ActionType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action type %q", name)
}

// Action is one player decision. Type selects which of the other fields
// are meaningful; the rest are zero.
type Action struct {
	Type    ActionType
	Index   int         // ActSelectFromTwo
	Fight   bool        // ActFightOrDiscard
	Card    *Card       // ability card; the copy card for ActUseCopy
	Target  *Card       // ActUseAbilityTarget
	Order   []*Card     // ActSortCards: new top of the draw stack first
	Discard *Card       // ActSortCards: optional
	Destroy []*Card     // ActDestroyWithLife: possibly empty
	Pirate  *PirateCard // ActSelectPirate
	Inner   *Action     // ActUseCopy: the copied action
}

// Fixed actions without parameters.
var (
	DrawFreeAction       = Action{Type: ActDrawFree}
	EndDrawFreeAction    = Action{Type: ActEndDrawFree}
	SacrificeDrawAction  = Action{Type: ActSacrificeDraw}
	EndSacrificeAction   = Action{Type: ActEndSacrifice}
	EndMultistageAction  = Action{Type: ActEndMultistage}
	EndPirateRoundAction = Action{Type: ActEndPirateRound}
)

// CopyOf wraps inner as the ability copied by copy card c.
func CopyOf(c *Card, inner Action) Action {
	return Action{Type: ActUseCopy, Card: c, Inner: &inner}
}

// Equal reports whether two actions describe the same decision.
func (a Action) Equal(o Action) bool {
	if a.Type != o.Type || a.Index != o.Index || a.Fight != o.Fight ||
		a.Card != o.Card || a.Target != o.Target || a.Discard != o.Discard || a.Pirate != o.Pirate {
		return false
	}
	if !sameCards(a.Order, o.Order) || !sameCards(a.Destroy, o.Destroy) {
		return false
	}
	if a.Inner == nil || o.Inner == nil {
		return a.Inner == o.Inner
	}
	return a.Inner.Equal(*o.Inner)
}

func (a Action) String() string {
	switch a.Type {
	case ActSelectFromTwo:
		return fmt.Sprintf("select hazard %d of 2", a.Index)
	case ActFightOrDiscard:
		if a.Fight {
			return "fight last hazard"
		}
		return "discard last hazard"
	case ActDrawFree:
		return "draw a free card"
	case ActEndDrawFree:
		return "end free draws"
	case ActSacrificeDraw:
		return "sacrifice life to draw"
	case ActEndSacrifice:
		return "end sacrifice phase"
	case ActDestroyWithLife:
		if len(a.Destroy) == 0 {
			return "destroy no cards"
		}
		parts := make([]string, len(a.Destroy))
		for i, c := range a.Destroy {
			parts[i] = c.String()
		}
		return "destroy [" + strings.Join(parts, ", ") + "]"
	case ActUseAbility:
		return fmt.Sprintf("use %s", a.Card)
	case ActUseAbilityTarget:
		return fmt.Sprintf("use %s on %s", a.Card, a.Target)
	case ActSortCards:
		return fmt.Sprintf("sort %v discard %s", a.Order, a.Discard)
	case ActEndMultistage:
		return "end multistage ability"
	case ActUseCopy:
		if a.Inner == nil {
			return fmt.Sprintf("copy with %s: <nil>", a.Card)
		}
		return fmt.Sprintf("copy with %s: %s", a.Card, a.Inner)
	case ActSelectPirate:
		return fmt.Sprintf("select %s", a.Pirate)
	case ActEndPirateRound:
		return "end pirate round"
	}
	return a.Type.String()
}

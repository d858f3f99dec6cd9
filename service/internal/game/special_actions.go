// internal/game/special_actions.go
package game

import (
	"fmt"

	"github.com/jgwest/fridai/engine"
)

// AbilityView describes a multi-step ability in progress (+1/+2 cards,
// 1x/2x exchange, sort 3 cards) and what the player is expected to do next.
type AbilityView struct {
	Card      CardView   `json:"card"`
	Drawn     int        `json:"drawn"`
	Stage     int        `json:"stage"`
	SortCards []CardView `json:"sortCards,omitempty"`
	Copied    bool       `json:"copied,omitempty"`
	Prompt    string     `json:"prompt"`
}

func abilityView(ao *engine.AbilityObject) *AbilityView {
	if ao == nil {
		return nil
	}
	v := &AbilityView{
		Card:      cardView(ao.Card, nil),
		Drawn:     ao.Drawn,
		Stage:     ao.Stage,
		SortCards: cardList(ao.SortCards),
		Copied:    ao.Copied,
		Prompt:    abilityPrompt(ao),
	}
	return v
}

// abilityPrompt explains the pending step of a multi-step ability.
func abilityPrompt(ao *engine.AbilityObject) string {
	switch ao.Card.Ability {
	case engine.AbilityDraw1, engine.AbilityDraw2:
		return fmt.Sprintf("Draw up to %d more card(s) or end the ability.", ao.Card.Ability.Magnitude()-ao.Drawn)
	case engine.AbilityExchange1, engine.AbilityExchange2:
		return fmt.Sprintf("Exchange up to %d more card(s) or end the ability.", ao.Card.Ability.Magnitude()-ao.Drawn)
	case engine.AbilitySort3:
		if ao.Stage == 0 {
			return "Cards are being drawn for sorting."
		}
		return "Put the drawn cards back in any order; one may be discarded."
	}
	return "Finish the ability or end it."
}

// abilityHelp is the rules text of every fighting card ability.
var abilityHelp = map[engine.Ability]string{
	engine.AbilityCopy:              "Copy the ability of another face-up card.",
	engine.AbilityDestroy:           "Remove one face-up card from the game.",
	engine.AbilityPhaseMinus1:       "Read the hazard one phase lower (yellow instead of red, green instead of yellow).",
	engine.AbilityBelowThePile:      "Put one face-up card under the fighting stack.",
	engine.AbilityDouble:            "Double the fighting value of another face-up card.",
	engine.AbilitySort3:             "Look at the top 3 cards of the fighting stack, discard up to one and put the rest back in any order.",
	engine.AbilityDraw1:             "Draw 1 extra card for free.",
	engine.AbilityDraw2:             "Draw up to 2 extra cards for free.",
	engine.AbilityExchange1:         "Discard a face-up card and draw a replacement.",
	engine.AbilityExchange2:         "Discard and replace up to 2 face-up cards.",
	engine.AbilityLifeAdd1:          "Gain 1 life point.",
	engine.AbilityLifeAdd2:          "Gain 2 life points.",
	engine.AbilityDotDotDot:         "No effect.",
	engine.AbilityStop:              "No more free cards can be drawn after this one.",
	engine.AbilityLifeMinus1:        "Lose 1 life point.",
	engine.AbilityLifeMinus2:        "Lose 2 life points.",
	engine.AbilityHighestCardIsZero: "The highest face-up fighting card counts as 0.",
}

// AbilityHelp returns the rules text of an ability, or "" for none.
func AbilityHelp(a engine.Ability) string { return abilityHelp[a] }

// internal/game/engine_adapter.go
package game

import (
	"github.com/jgwest/fridai/engine"
)

// ActionView is a legal action as shown to a client. Index is its position
// in the legal-action list and is what ApplyAction takes.
type ActionView struct {
	Index   int         `json:"index"`
	Type    string      `json:"type"`
	Text    string      `json:"text"`
	Card    *CardView   `json:"card,omitempty"`
	Target  *CardView   `json:"target,omitempty"`
	Order   []CardView  `json:"order,omitempty"`
	Discard *CardView   `json:"discard,omitempty"`
	Destroy []CardView  `json:"destroy,omitempty"`
	Pirate  *PirateView `json:"pirate,omitempty"`
	Inner   *ActionView `json:"copies,omitempty"`
	Fight   *bool       `json:"fight,omitempty"`
	Hazard  *int        `json:"hazard,omitempty"` // offered hazard picked, 0 or 1
}

func cardRef(c *engine.Card) *CardView {
	if c == nil {
		return nil
	}
	v := cardView(c, nil)
	return &v
}

func cardList(cs []*engine.Card) []CardView {
	if len(cs) == 0 {
		return nil
	}
	out := make([]CardView, len(cs))
	for i, c := range cs {
		out[i] = cardView(c, nil)
	}
	return out
}

// actionView converts an engine action. Card details are given without
// board flags; the state view carries those.
func actionView(index int, a engine.Action) ActionView {
	v := ActionView{
		Index:   index,
		Type:    a.Type.String(),
		Text:    a.String(),
		Card:    cardRef(a.Card),
		Target:  cardRef(a.Target),
		Order:   cardList(a.Order),
		Discard: cardRef(a.Discard),
		Destroy: cardList(a.Destroy),
	}
	switch a.Type {
	case engine.ActSelectFromTwo:
		i := a.Index
		v.Hazard = &i
	case engine.ActFightOrDiscard:
		f := a.Fight
		v.Fight = &f
	case engine.ActSelectPirate:
		if a.Pirate != nil {
			pv := pirateView(a.Pirate)
			v.Pirate = &pv
		}
	case engine.ActUseCopy:
		if a.Inner != nil {
			inner := actionView(index, *a.Inner)
			v.Inner = &inner
		}
	}
	return v
}

func actionViews(acts []engine.Action) []ActionView {
	out := make([]ActionView, len(acts))
	for i, a := range acts {
		out[i] = actionView(i, a)
	}
	return out
}

package catalog

import (
	"strings"
	"testing"

	"github.com/jgwest/fridai/engine"
)

func TestStandardCounts(t *testing.T) {
	cat, err := Standard()
	if err != nil {
		t.Fatalf("Standard: %v", err)
	}
	if got := len(cat.Hazards); got != 30 {
		t.Errorf("hazards = %d, want 30", got)
	}
	if got := len(cat.Fighting); got != 18 {
		t.Errorf("fighting = %d, want 18", got)
	}
	if got := len(cat.Aging); got != 11 {
		t.Errorf("aging = %d, want 11", got)
	}
	if got := len(cat.Pirates); got != 10 {
		t.Errorf("pirates = %d, want 10", got)
	}

	normal, difficult := 0, 0
	for _, c := range cat.Aging {
		switch {
		case c.Difficulty == engine.DifficultyDifficult:
			difficult++
		case c.Difficulty == engine.DifficultyNormal && c.FightingValue != -3:
			normal++
		}
	}
	if normal != 7 || difficult != 3 {
		t.Errorf("aging normal/difficult = %d/%d, want 7/3", normal, difficult)
	}
}

func TestStandardIDs(t *testing.T) {
	cat, err := Standard()
	if err != nil {
		t.Fatalf("Standard: %v", err)
	}
	cards := cat.Cards()
	for i, c := range cards {
		if c.PhysicalID != i {
			t.Fatalf("card %d has physical id %d", i, c.PhysicalID)
		}
		if cat.Card(i) != c {
			t.Fatalf("Card(%d) = %v, want %v", i, cat.Card(i), c)
		}
	}
	// copies of one data line share a trait and contents
	weak := 0
	var trait int
	for _, c := range cat.Fighting {
		if c.Title != "weak" {
			continue
		}
		if weak == 0 {
			trait = c.TraitID
		} else if c.TraitID != trait {
			t.Errorf("weak card %d trait %d, want %d", c.PhysicalID, c.TraitID, trait)
		}
		weak++
	}
	if weak != 8 {
		t.Errorf("weak cards = %d, want 8", weak)
	}
}

func TestParseHazardAttributes(t *testing.T) {
	src := `
# comment
Hazard cards:
hazard-title: Cannibals
free-cards: 5
hazard-values: 14 9 5
fighting-value: 4
2) weapon, ...
fighting-value: 3
realization, 1x destroy
`
	cat, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cat.Hazards) != 3 {
		t.Fatalf("hazards = %d, want 3", len(cat.Hazards))
	}
	r := cat.Hazards[2]
	if r.Title != "realization" || r.Ability != engine.AbilityDestroy || r.FightingValue != 3 {
		t.Errorf("third hazard = %v", r)
	}
	if r.HazardValues != [3]int{14, 9, 5} || r.FreeCards != 5 || r.HazardTitle != "Cannibals" {
		t.Errorf("hazard side = %v free %d title %q", r.HazardValues, r.FreeCards, r.HazardTitle)
	}
	if cat.Hazards[0].TraitID != cat.Hazards[1].TraitID || cat.Hazards[0].TraitID == r.TraitID {
		t.Errorf("trait ids = %d %d %d", cat.Hazards[0].TraitID, cat.Hazards[1].TraitID, r.TraitID)
	}
	if cat.Hazards[0].Difficulty != engine.DifficultyNone {
		t.Errorf("hazard difficulty = %s, want none", cat.Hazards[0].Difficulty)
	}
}

func TestParsePirates(t *testing.T) {
	src := `Pirate Cards:
7, 16, Each additional fighting card costs 2 life points
*, *, Fight against all remaining hazard cards
`
	cat, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cat.Pirates) != 2 {
		t.Fatalf("pirates = %d, want 2", len(cat.Pirates))
	}
	p0, p1 := cat.Pirate(0), cat.Pirate(1)
	if p0.FreeCards != 7 || p0.HazardValue != 16 || p0.Ability != engine.PirateExtraCardCostsTwo {
		t.Errorf("pirate 0 = %v", p0)
	}
	if p1.FreeCards != engine.PirateComputed || p1.HazardValue != engine.PirateComputed ||
		p1.Ability != engine.PirateFightRemainingHazards {
		t.Errorf("pirate 1 = %v", p1)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"unknown attribute", "Fighting Cards:\ncolour: red\n"},
		{"bad ability", "Fighting Cards:\nweak, fly\n"},
		{"no comma", "Fighting Cards:\nweak\n"},
		{"bad quantity", "Fighting Cards:\nx) weak, ...\n"},
		{"short hazard values", "Hazard cards:\nhazard-values: 1 2\n"},
		{"outside section", "weak, ...\n"},
		{"bad difficulty", "Aging Cards:\ndifficulty: hard\n"},
		{"bad pirate", "Pirate Cards:\n7, x, ...\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tc.src)); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", tc.src)
			}
		})
	}
}

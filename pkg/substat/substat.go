// Package substat holds the process-lifetime static data describing Cookie
// Run: Kingdom topping substats: the flavor/resonance enumerations and, per
// flavor, the main-stat ceiling, sub-stat range, and set-bonus schedule.
//
// Every percentage in this package and the packages built on it is a
// shopspring/decimal.Decimal, never a float64 — all comparisons here are
// against the in-game display value, and binary floating point cannot be
// trusted to match it exactly.
package substat

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Flavor is the primary stat kind of a topping. It determines the topping's
// main-stat ceiling and the set-bonus schedule applied when counting
// flavor-matched members of a ToppingSet.
type Flavor int

const (
	FlavorDMGRes Flavor = iota
	FlavorATK
	FlavorCD
	FlavorATKSpd
	FlavorCrit
	FlavorHP
	FlavorBuff
	FlavorDef
	FlavorBuffRes
	FlavorCritRes

	flavorCount
)

// Resonance is an orthogonal tag restricting which toppings are admissible
// for a given requirement's resonance whitelist.
type Resonance int

const (
	ResonanceNormal Resonance = iota
	ResonanceMoonkissed
	ResonanceTrio
	ResonanceDraconic
	ResonanceTropicalRock
	ResonanceSeaSalt
	ResonanceRadiantCheese
	ResonanceFrostedCrystal

	resonanceCount
)

// flavorNames holds the exact in-game labels used in requirement files and
// CSV inventory dumps.
var flavorNames = [flavorCount]string{
	FlavorDMGRes:  "DMG Resist",
	FlavorATK:     "ATK",
	FlavorCD:      "Cooldown",
	FlavorATKSpd:  "ATK SPD",
	FlavorCrit:    "CRIT%",
	FlavorHP:      "HP",
	FlavorBuff:    "Amplify Buff",
	FlavorDef:     "DEF",
	FlavorBuffRes: "Debuff Resist",
	FlavorCritRes: "CRIT Resist",
}

var resonanceNames = [resonanceCount]string{
	ResonanceNormal:         "Normal",
	ResonanceMoonkissed:     "Moonkissed",
	ResonanceTrio:           "Trio",
	ResonanceDraconic:       "Draconic",
	ResonanceTropicalRock:   "Tropical Rock",
	ResonanceSeaSalt:        "Sea Salt",
	ResonanceRadiantCheese:  "Radiant Cheese",
	ResonanceFrostedCrystal: "Frosted Crystal",
}

func (f Flavor) String() string {
	if f < 0 || int(f) >= len(flavorNames) {
		return fmt.Sprintf("Flavor(%d)", int(f))
	}
	return flavorNames[f]
}

func (r Resonance) String() string {
	if r < 0 || int(r) >= len(resonanceNames) {
		return fmt.Sprintf("Resonance(%d)", int(r))
	}
	return resonanceNames[r]
}

// ParseFlavor resolves the exact in-game display name to a Flavor.
func ParseFlavor(name string) (Flavor, error) {
	for f, n := range flavorNames {
		if n == name {
			return Flavor(f), nil
		}
	}
	return 0, fmt.Errorf("substat: unknown flavor %q", name)
}

// ParseResonance resolves the exact in-game display name to a Resonance.
func ParseResonance(name string) (Resonance, error) {
	for r, n := range resonanceNames {
		if n == name {
			return Resonance(r), nil
		}
	}
	return 0, fmt.Errorf("substat: unknown resonance %q", name)
}

// AllFlavors returns the flavors in their canonical dense-index order.
func AllFlavors() []Flavor {
	out := make([]Flavor, flavorCount)
	for i := range out {
		out[i] = Flavor(i)
	}
	return out
}

// Count is the number of distinct flavors; used to size flat arrays indexed
// by Flavor (the Cutter's floor/ceiling planes, per spec §9's redesign
// note).
const Count = int(flavorCount)

// Combo is one step of a set-bonus schedule: having at least Count
// flavor-matched toppings in a ToppingSet grants Bonus.
type Combo struct {
	Count int
	Bonus decimal.Decimal
}

// Info is the static per-flavor table: main-stat ceiling, sub-stat value
// range, and the ascending set-bonus schedule.
type Info struct {
	Ceiling    decimal.Decimal
	SubMin     decimal.Decimal
	SubMax     decimal.Decimal
	Combos     []Combo // ascending by Count
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Table is the process-lifetime, read-only per-flavor static data. It is
// never mutated after package init.
var Table = [flavorCount]Info{
	FlavorDMGRes: {
		Ceiling: d("4.1"), SubMin: d("1"), SubMax: d("6"),
		Combos: []Combo{{5, d("5")}},
	},
	FlavorATK: {
		Ceiling: d("9"), SubMin: d("1"), SubMax: d("3"),
		Combos: []Combo{{3, d("3")}, {5, d("8")}},
	},
	FlavorCD: {
		Ceiling: d("3"), SubMin: d("1"), SubMax: d("2"),
		Combos: []Combo{{5, d("5")}},
	},
	FlavorATKSpd: {
		Ceiling: d("4.1"), SubMin: d("1"), SubMax: d("3"),
		Combos: []Combo{{2, d("1")}, {5, d("3")}},
	},
	FlavorCrit: {
		Ceiling: d("9"), SubMin: d("1"), SubMax: d("3"),
		Combos: []Combo{{5, d("5")}},
	},
	FlavorHP: {
		Ceiling: d("9"), SubMin: d("1"), SubMax: d("3"),
		Combos: []Combo{{2, d("3")}, {5, d("8")}},
	},
	FlavorBuff: {
		Ceiling: d("3"), SubMin: d("1"), SubMax: d("2"),
		Combos: []Combo{{2, d("1")}, {5, d("3")}},
	},
	FlavorDef: {
		Ceiling: d("9"), SubMin: d("1"), SubMax: d("3"),
		Combos: []Combo{{3, d("3")}, {5, d("8")}},
	},
	FlavorBuffRes: {
		Ceiling: d("3"), SubMin: d("1"), SubMax: d("2"),
		Combos: []Combo{{2, d("3")}, {5, d("8")}},
	},
	FlavorCritRes: {
		Ceiling: d("4.5"), SubMin: d("3"), SubMax: d("4"),
		Combos: []Combo{{2, d("10")}, {5, d("30")}},
	},
}

// SetEffect returns the largest (requiredCount, bonus) pair in the flavor's
// schedule whose requiredCount is satisfied by count, or (0, 0) if none is.
func (i Info) SetEffect(count int) (int, decimal.Decimal) {
	best, bonus := 0, decimal.Zero
	for _, c := range i.Combos {
		if c.Count <= count && c.Count >= best {
			best, bonus = c.Count, c.Bonus
		}
	}
	return best, bonus
}

// DisplayULP is the minimum distinguishable in-game display increment for a
// substat's percentage value. The validity canonicalizer widens strict
// inequalities by this amount. Every substat here displays at 0.1
// precision; a substat that one day displays at 0.01 must override this
// rather than hard-code 0.1 at every call site (spec.md §9 Open Question).
func DisplayULP(Flavor) decimal.Decimal {
	return d("0.1")
}

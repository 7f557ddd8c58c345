// Package topping models a single inventory item ("topping") and the
// fixed-size five-item collection ("topping set") the optimizer searches
// over.
package topping

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/crk-toppings/optimizer/pkg/substat"
)

// Stat is one (flavor, value) pair on a Topping. The first entry of a
// Topping's Stats is always its main stat, whose Flavor equals the
// Topping's Flavor.
type Stat struct {
	Flavor substat.Flavor
	Value  decimal.Decimal
}

// Topping is one inventory item: a primary flavor, an ordered list of
// (substat, value) pairs with the main stat first, and a resonance tag.
type Topping struct {
	Flavor    substat.Flavor
	Stats     []Stat // Stats[0] is the main stat; Stats[1:] are sub-stats (0..3 of them)
	Resonance substat.Resonance
}

// New builds a Topping from its main stat and sub-stats. The main stat's
// flavor becomes the Topping's Flavor.
func New(main Stat, subs []Stat, resonance substat.Resonance) Topping {
	stats := make([]Stat, 0, 1+len(subs))
	stats = append(stats, main)
	stats = append(stats, subs...)
	return Topping{Flavor: main.Flavor, Stats: stats, Resonance: resonance}
}

// Value sums this topping's stat values across the given flavors.
func (t Topping) Value(flavors ...substat.Flavor) decimal.Decimal {
	total := decimal.Zero
	for _, s := range t.Stats {
		for _, f := range flavors {
			if s.Flavor == f {
				total = total.Add(s.Value)
				break
			}
		}
	}
	return total
}

// Validate reports whether the topping is well-formed: the main stat is
// within [0, ceiling], sub-stats are mutually distinct flavors, and each
// sub-stat value is within its flavor's [min, max] range.
func (t Topping) Validate() bool {
	if len(t.Stats) == 0 || len(t.Stats) > 4 {
		return false
	}
	main := t.Stats[0]
	info := substat.Table[main.Flavor]
	if main.Value.IsNegative() || main.Value.GreaterThan(info.Ceiling) {
		return false
	}

	seen := make(map[substat.Flavor]bool, len(t.Stats)-1)
	for _, s := range t.Stats[1:] {
		if seen[s.Flavor] {
			return false
		}
		seen[s.Flavor] = true

		subInfo := substat.Table[s.Flavor]
		if s.Value.LessThan(subInfo.SubMin) || s.Value.GreaterThan(subInfo.SubMax) {
			return false
		}
	}
	return true
}

func (t Topping) String() string {
	out := t.Flavor.String()
	for _, s := range t.Stats[1:] {
		out += fmt.Sprintf(" : %s %s", s.Flavor, s.Value)
	}
	return out
}

// Set is a fixed collection of exactly five Toppings.
type Set struct {
	Toppings [5]Topping
}

// NewSet builds a Set from exactly five toppings.
func NewSet(toppings []Topping) (Set, error) {
	if len(toppings) != 5 {
		return Set{}, fmt.Errorf("topping: a set must contain exactly 5 toppings, got %d", len(toppings))
	}
	var s Set
	copy(s.Toppings[:], toppings)
	return s, nil
}

// Raw is the sum over members of each topping's value for the given
// flavors, without any set-bonus contribution.
func (s Set) Raw(flavors ...substat.Flavor) decimal.Decimal {
	total := decimal.Zero
	for _, t := range s.Toppings {
		total = total.Add(t.Value(flavors...))
	}
	return total
}

// SetEffect returns the largest (requiredCount, bonus) tier the set
// qualifies for, given how many members have the given flavor.
func (s Set) SetEffect(flavor substat.Flavor) (int, decimal.Decimal) {
	count := 0
	for _, t := range s.Toppings {
		if t.Flavor == flavor {
			count++
		}
	}
	return substat.Table[flavor].SetEffect(count)
}

// Value is Raw(flavors) extended with each flavor's set-bonus contribution.
func (s Set) Value(flavors ...substat.Flavor) decimal.Decimal {
	total := decimal.Zero
	for _, f := range flavors {
		_, bonus := s.SetEffect(f)
		total = total.Add(s.Raw(f)).Add(bonus)
	}
	return total
}

// Contains reports whether t is a member of the set (by value equality).
func (s Set) Contains(t Topping) bool {
	for _, member := range s.Toppings {
		if toppingsEqual(member, t) {
			return true
		}
	}
	return false
}

func toppingsEqual(a, b Topping) bool {
	if a.Flavor != b.Flavor || a.Resonance != b.Resonance || len(a.Stats) != len(b.Stats) {
		return false
	}
	for i := range a.Stats {
		if a.Stats[i].Flavor != b.Stats[i].Flavor || !a.Stats[i].Value.Equal(b.Stats[i].Value) {
			return false
		}
	}
	return true
}

// SortedFlavors returns the set's five flavors sorted ascending, useful for
// display and for testable set-membership comparisons.
func (s Set) SortedFlavors() []substat.Flavor {
	out := make([]substat.Flavor, 5)
	for i, t := range s.Toppings {
		out[i] = t.Flavor
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

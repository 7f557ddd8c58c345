package optimizer

import (
	"github.com/shopspring/decimal"

	"github.com/crk-toppings/optimizer/pkg/substat"
	"github.com/crk-toppings/optimizer/pkg/topping"
)

// FailureKind is a bitmask of the reasons a recursion frame was abandoned,
// grounded in original_source/topping_bot/optimize/cutter.py's Prune flag
// enum and generalized to spec.md §4.4/§4.5's five-plane design.
type FailureKind uint16

const (
	FailureNone FailureKind = 0

	FailureFloor FailureKind = 1 << iota
	FailureCeiling
	FailureConflictingRequirements
	FailureValidCombined
	FailureObjCombined
	FailureAllCombined
	FailureSpecialCombined
)

func (f FailureKind) Has(bit FailureKind) bool { return f&bit != 0 }

// vectorWitness is one failed sibling's per-substat value tuple, used by
// the combined-pool planes for coordinate-wise dominance.
type vectorWitness []decimal.Decimal

// frame is one recursion level's dominance witnesses. Planes are
// frame-local: pushed on entry to dfs, discarded on return.
type frame struct {
	floor        [substat.Count]decimal.Decimal
	floorSet     [substat.Count]bool
	ceiling      [substat.Count]decimal.Decimal
	ceilingSet   [substat.Count]bool
	validVectors []vectorWitness
	objVectors   []vectorWitness
	allVectors   []vectorWitness
}

// Cutter accumulates per-recursion-frame dominance witnesses (spec.md
// §4.4) so that a sibling dominated by an already-failed topping can be
// skipped without recursing.
type Cutter struct {
	validSubstats []substat.Flavor
	objSubstats   []substat.Flavor
	allSubstats   []substat.Flavor
	stack         []*frame
}

// NewCutter builds a Cutter scoped to one cookie's validity/objective
// substat tuples.
func NewCutter(validSubstats, objSubstats, allSubstats []substat.Flavor) *Cutter {
	return &Cutter{validSubstats: validSubstats, objSubstats: objSubstats, allSubstats: allSubstats}
}

// Push opens a new frame for the recursion level being entered.
func (c *Cutter) Push() { c.stack = append(c.stack, &frame{}) }

// Pop discards the current frame as the recursion unwinds to the parent.
func (c *Cutter) Pop() { c.stack = c.stack[:len(c.stack)-1] }

func (c *Cutter) top() *frame { return c.stack[len(c.stack)-1] }

// CutTopping reports whether t is dominated by any witness accumulated in
// the current frame, and can therefore be skipped without recursing.
func (c *Cutter) CutTopping(t topping.Topping) bool {
	fr := c.top()

	for s := 0; s < substat.Count; s++ {
		if fr.floorSet[s] && t.Value(substat.Flavor(s)).LessThanOrEqual(fr.floor[s]) {
			return true
		}
		if fr.ceilingSet[s] && t.Value(substat.Flavor(s)).GreaterThanOrEqual(fr.ceiling[s]) {
			return true
		}
	}

	if vectorDominated(t, c.validSubstats, fr.validVectors) {
		return true
	}
	if vectorDominated(t, c.objSubstats, fr.objVectors) {
		return true
	}
	if vectorDominated(t, c.allSubstats, fr.allVectors) {
		return true
	}
	return false
}

// vectorDominated reports whether t is dominated coordinate-wise by any
// witness: t is no better than the witness on every substat in the tuple.
func vectorDominated(t topping.Topping, substats []substat.Flavor, vectors []vectorWitness) bool {
	for _, v := range vectors {
		dominated := true
		for i, s := range substats {
			if i >= len(v) || t.Value(s).GreaterThan(v[i]) {
				dominated = false
				break
			}
		}
		if dominated {
			return true
		}
	}
	return false
}

// UpdatePlanes folds a failed topping's values into the current frame's
// planes for the failure reasons it triggered, so future siblings
// dominated by it are skipped.
func (c *Cutter) UpdatePlanes(t topping.Topping, failures FailureKind, floorSubstats, ceilSubstats []substat.Flavor) {
	fr := c.top()

	if failures.Has(FailureFloor) {
		for _, s := range floorSubstats {
			v := t.Value(s)
			if !fr.floorSet[s] || v.GreaterThan(fr.floor[s]) {
				fr.floor[s] = v
				fr.floorSet[s] = true
			}
		}
	}
	if failures.Has(FailureCeiling) {
		for _, s := range ceilSubstats {
			v := t.Value(s)
			if !fr.ceilingSet[s] || v.LessThan(fr.ceiling[s]) {
				fr.ceiling[s] = v
				fr.ceilingSet[s] = true
			}
		}
	}
	if failures.Has(FailureValidCombined) {
		fr.validVectors = append(fr.validVectors, vectorOf(t, c.validSubstats))
	}
	if failures.Has(FailureObjCombined) {
		fr.objVectors = append(fr.objVectors, vectorOf(t, c.objSubstats))
	}
	if failures.Has(FailureAllCombined) || failures.Has(FailureSpecialCombined) {
		fr.allVectors = append(fr.allVectors, vectorOf(t, c.allSubstats))
	}
}

func vectorOf(t topping.Topping, substats []substat.Flavor) vectorWitness {
	v := make(vectorWitness, len(substats))
	for i, s := range substats {
		v[i] = t.Value(s)
	}
	return v
}

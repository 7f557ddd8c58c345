package optimizer

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/crk-toppings/optimizer/pkg/requirements"
	"github.com/crk-toppings/optimizer/pkg/substat"
	"github.com/crk-toppings/optimizer/pkg/topping"
)

// pruneResult is the outcome of one prune call: FailureNone means the
// branch may proceed, otherwise Failures names every reason it was
// abandoned and FloorSubstats/CeilSubstats name which substats drove the
// floor/ceiling portion, for the caller's Cutter to fold into its planes
// (spec.md §4.4, §4.5).
type pruneResult struct {
	Failures      FailureKind
	FloorSubstats []substat.Flavor
	CeilSubstats  []substat.Flavor
}

// prune implements spec.md §4.5's pruning checks against prefix (the
// toppings already committed on this branch) and tail (every topping
// still eligible to extend it, in the shared pool's priority order).
func (o *Optimizer) prune(st *searchState, prefix, tail []topping.Topping) pruneResult {
	remaining := 5 - len(prefix)
	var result pruneResult
	requiredCounts := make(map[substat.Flavor]int)

	for _, req := range o.reqs.FloorReqs() {
		k, ok := floorCase(prefix, tail, req.Substat, req.Target, remaining)
		if !ok {
			result.Failures |= FailureFloor
			result.FloorSubstats = append(result.FloorSubstats, req.Substat)
			continue
		}
		requiredCounts[req.Substat] = k
	}

	for _, req := range o.reqs.CeilingReqs() {
		if !ceilingCase(prefix, tail, req.Substat, req.Target) {
			result.Failures |= FailureCeiling
			result.CeilSubstats = append(result.CeilSubstats, req.Substat)
		}
	}

	if result.Failures != FailureNone {
		return result
	}

	objTypes := o.reqs.Objective.Types()
	haveObjFloorTarget := st.haveIncumbent
	var objFloorTarget decimal.Decimal

	if haveObjFloorTarget {
		ulp := substat.DisplayULP(objTypes[0])
		objFloorTarget = o.reqs.Objective.Floor(st.incumbent).Add(ulp)
		if o.bestCombinedPool(prefix, tail, objTypes, remaining).LessThan(objFloorTarget) {
			result.Failures |= FailureFloor
			result.FloorSubstats = append(result.FloorSubstats, objTypes...)
		}
	}
	if result.Failures != FailureNone {
		return result
	}

	totalRequired := 0
	for _, k := range requiredCounts {
		totalRequired += k
	}
	if totalRequired > remaining {
		result.Failures = FailureConflictingRequirements
		return result
	}

	if !st.haveIncumbent || remaining == 0 {
		return result
	}

	validSubs := o.reqs.ValidSubstats()
	validFloorSum := decimal.Zero
	for _, s := range validSubs {
		validFloorSum = validFloorSum.Add(o.reqs.Floor(s))
	}
	if len(validSubs) > 0 && o.bestCombinedPool(prefix, tail, validSubs, remaining).LessThan(validFloorSum) {
		result.Failures |= FailureValidCombined
	}
	if haveObjFloorTarget && o.bestCombinedPool(prefix, tail, objTypes, remaining).LessThan(objFloorTarget) {
		result.Failures |= FailureObjCombined
	}

	allSubs := o.reqs.AllSubstats()
	allFloorSum := validFloorSum
	if haveObjFloorTarget {
		allFloorSum = allFloorSum.Add(objFloorTarget)
	}
	if o.bestCombinedPool(prefix, tail, allSubs, remaining).LessThan(allFloorSum) {
		result.Failures |= FailureAllCombined
	}
	if result.Failures != FailureNone {
		return result
	}

	// Special objectives (EDMG, Vitality) get one more check: the
	// closed-form Upper bound already optimizes how a pool splits across
	// the objective's own substat pair, so a single call stands in for
	// the source's explicit partition enumeration.
	if o.reqs.Objective.IsSpecial() {
		pool := o.bestCombinedPool(prefix, tail, objTypes, remaining)
		fullSet := o.hypotheticalFullSet(prefix, tail, objTypes, remaining)
		upper := o.reqs.Objective.Upper(pool, fullSet, prefix)
		if !upper.GreaterThan(st.incumbentVal) {
			result.Failures |= FailureSpecialCombined
		}
	}

	return result
}

// floorCase finds the smallest count k of flavor-matched toppings from
// tail that, combined with the best wildcard filler for the remaining
// slots and the flavor's set bonus, can still reach target. Returns
// (0, false) if no split of the remaining slots can.
func floorCase(prefix, tail []topping.Topping, s substat.Flavor, target decimal.Decimal, remaining int) (int, bool) {
	var matched, wild []topping.Topping
	for _, t := range tail {
		if t.Flavor == s {
			matched = append(matched, t)
		} else {
			wild = append(wild, t)
		}
	}
	sortDescByValue(matched, s)
	sortDescByValue(wild, s)

	prefixRaw := sumValue(prefix, s)
	currentMatches := countFlavor(prefix, s)

	for k := 0; k <= remaining; k++ {
		wildCount := remaining - k
		if k > len(matched) || wildCount > len(wild) {
			continue
		}
		sum := prefixRaw.Add(topSum(matched, k, s)).Add(topSum(wild, wildCount, s))
		_, bonus := substat.Table[s].SetEffect(currentMatches + k)
		if sum.Add(bonus).GreaterThanOrEqual(target) {
			return k, true
		}
	}
	return 0, false
}

// ceilingCase reports whether the smallest possible completion (the
// remaining slots filled with tail's lowest-value toppings for s) still
// respects target.
func ceilingCase(prefix, tail []topping.Topping, s substat.Flavor, target decimal.Decimal) bool {
	remaining := 5 - len(prefix)
	if remaining == 0 {
		return true
	}
	ascending := make([]topping.Topping, len(tail))
	copy(ascending, tail)
	sortAscByValue(ascending, s)
	if remaining > len(ascending) {
		return true
	}
	addition := topSum(ascending, remaining, s)
	currentMatches := countFlavor(prefix, s)
	_, bonus := substat.Table[s].SetEffect(currentMatches)
	lowerBound := sumValue(prefix, s).Add(addition).Add(bonus)
	return !lowerBound.GreaterThan(target)
}

// bestCombinedPool is a sound (possibly loose) upper bound on the
// combined value a full set could reach across types: prefix's own
// contribution, plus the best remaining toppings by combined value,
// plus the most optimistic attainable set bonus across types.
func (o *Optimizer) bestCombinedPool(prefix, tail []topping.Topping, types []substat.Flavor, remaining int) decimal.Decimal {
	sorted := make([]topping.Topping, len(tail))
	copy(sorted, tail)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value(types...).GreaterThan(sorted[j].Value(types...))
	})

	k := remaining
	if k > len(sorted) {
		k = len(sorted)
	}
	addition := decimal.Zero
	for i := 0; i < k; i++ {
		addition = addition.Add(sorted[i].Value(types...))
	}

	prefixVal := sumValue(prefix, types...)
	bonus := requirements.BestPossibleSetEffect(prefix, types, 0)
	return prefixVal.Add(addition).Add(bonus)
}

// hypotheticalFullSet builds the same best-by-combined-value completion
// bestCombinedPool reasons about, as an actual Set, for Special
// objectives whose Upper needs a concrete hypothetical completion to
// measure remaining flavor-matched slots against.
func (o *Optimizer) hypotheticalFullSet(prefix, tail []topping.Topping, types []substat.Flavor, remaining int) topping.Set {
	sorted := make([]topping.Topping, len(tail))
	copy(sorted, tail)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value(types...).GreaterThan(sorted[j].Value(types...))
	})

	members := make([]topping.Topping, 0, 5)
	members = append(members, prefix...)
	k := remaining
	if k > len(sorted) {
		k = len(sorted)
	}
	members = append(members, sorted[:k]...)
	for _, t := range tail {
		if len(members) == 5 {
			break
		}
		members = append(members, t)
	}
	for len(members) < 5 {
		members = append(members, topping.Topping{})
	}

	set, err := topping.NewSet(members[:5])
	if err != nil {
		return topping.Set{}
	}
	return set
}

func sumValue(items []topping.Topping, flavors ...substat.Flavor) decimal.Decimal {
	total := decimal.Zero
	for _, t := range items {
		total = total.Add(t.Value(flavors...))
	}
	return total
}

func countFlavor(items []topping.Topping, f substat.Flavor) int {
	count := 0
	for _, t := range items {
		if t.Flavor == f {
			count++
		}
	}
	return count
}

func sortDescByValue(items []topping.Topping, s substat.Flavor) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Value(s).GreaterThan(items[j].Value(s))
	})
}

func sortAscByValue(items []topping.Topping, s substat.Flavor) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Value(s).LessThan(items[j].Value(s))
	})
}

func topSum(sorted []topping.Topping, k int, s substat.Flavor) decimal.Decimal {
	total := decimal.Zero
	for i := 0; i < k && i < len(sorted); i++ {
		total = total.Add(sorted[i].Value(s))
	}
	return total
}

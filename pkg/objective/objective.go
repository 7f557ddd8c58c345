// Package objective implements the topping-optimizer's polymorphic
// valuation function as a tagged variant closed over four cases (Single,
// Combo, EDMG, Vitality), per spec.md §4.3 and §9: no virtual dispatch is
// needed since the case set never grows at runtime.
package objective

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/crk-toppings/optimizer/pkg/substat"
	"github.com/crk-toppings/optimizer/pkg/topping"
)

// Kind tags which of the four closed variants an Objective carries.
type Kind int

const (
	KindSingle Kind = iota
	KindCombo
	KindEDMG
	KindVitality
)

// Bound is a per-substat [min, max] clamp expressed as a fraction (e.g. a
// CRIT% ceiling of 60 is represented as Max = 0.60), tightened by
// Requirements.Realize from the cookie's floor/ceiling validity list.
type Bound struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

var (
	unboundedMin = decimal.New(-1_000_000, 0)
	unboundedMax = decimal.New(1_000_000, 0)
)

// DefaultBound is unconstrained in both directions.
func DefaultBound() Bound { return Bound{Min: unboundedMin, Max: unboundedMax} }

// Objective is the value/floor/upper triple for one cookie's optimization
// target. Exactly one of the per-Kind field groups below is meaningful for
// a given Kind.
type Objective struct {
	Kind Kind

	// KindSingle
	Single substat.Flavor

	// KindCombo
	ComboSubstats []substat.Flavor
	Bounds        map[substat.Flavor]Bound // Combo, EDMG, Vitality

	// KindEDMG
	BaseATK, BaseCrit, CritDmg, ATKMult decimal.Decimal

	// KindVitality
	BaseHP, BaseDMGRes decimal.Decimal
}

// NewSingle builds a single-substat maximization objective.
func NewSingle(s substat.Flavor) Objective {
	return Objective{Kind: KindSingle, Single: s}
}

// NewCombo builds a weighted-combination objective over the given
// substats, with per-substat bounds defaulted to unconstrained.
func NewCombo(substats []substat.Flavor) Objective {
	return Objective{Kind: KindCombo, ComboSubstats: substats, Bounds: defaultBounds(substats)}
}

// NewEDMG builds the expected-damage objective from the cookie's modifier
// bundle (percentages, as whole numbers e.g. 100 for "100%").
func NewEDMG(baseATKPct, baseCritPct, critDmgPct, atkMult decimal.Decimal) Objective {
	hundred := decimal.New(100, 0)
	return Objective{
		Kind:    KindEDMG,
		BaseATK: baseATKPct.Div(hundred),
		BaseCrit: baseCritPct.Div(hundred),
		CritDmg:  critDmgPct.Div(hundred),
		ATKMult:  atkMult,
		Bounds:   defaultBounds([]substat.Flavor{substat.FlavorATK, substat.FlavorCrit}),
	}
}

// NewVitality builds the effective-vitality objective from the cookie's
// modifier bundle.
func NewVitality(baseHPPct, baseDMGResPct decimal.Decimal) Objective {
	hundred := decimal.New(100, 0)
	return Objective{
		Kind:       KindVitality,
		BaseHP:     baseHPPct.Div(hundred),
		BaseDMGRes: baseDMGResPct.Div(hundred),
		Bounds:     defaultBounds([]substat.Flavor{substat.FlavorDMGRes, substat.FlavorHP}),
	}
}

func defaultBounds(substats []substat.Flavor) map[substat.Flavor]Bound {
	b := make(map[substat.Flavor]Bound, len(substats))
	for _, s := range substats {
		b[s] = DefaultBound()
	}
	return b
}

// IsSpecial reports whether this objective needs the partitioned
// special-combined pruning pass (§4.5 step 6) rather than the generic
// combined-pool checks.
func (o Objective) IsSpecial() bool { return o.Kind == KindEDMG || o.Kind == KindVitality }

// Types returns the objective's substat tuple, in a fixed order.
func (o Objective) Types() []substat.Flavor {
	switch o.Kind {
	case KindSingle:
		return []substat.Flavor{o.Single}
	case KindCombo:
		return o.ComboSubstats
	case KindEDMG:
		return []substat.Flavor{substat.FlavorATK, substat.FlavorCrit}
	case KindVitality:
		return []substat.Flavor{substat.FlavorDMGRes, substat.FlavorHP}
	}
	return nil
}

// Value computes the objective's value for a complete 5-topping set.
func (o Objective) Value(set topping.Set) decimal.Decimal {
	switch o.Kind {
	case KindSingle:
		return set.Value(o.Single)
	case KindCombo:
		return set.Value(o.ComboSubstats...)
	case KindEDMG:
		a := set.Value(substat.FlavorATK).Div(decimal.New(100, 0)).Add(o.BaseATK)
		c := set.Value(substat.FlavorCrit).Div(decimal.New(100, 0)).Add(o.BaseCrit)
		if c.GreaterThan(decimal.NewFromInt(1)) {
			c = decimal.NewFromInt(1)
		}
		return o.eDmg(a, c)
	case KindVitality:
		hp := set.Value(substat.FlavorHP).Div(decimal.New(100, 0)).Add(o.BaseHP)
		dmgres := set.Value(substat.FlavorDMGRes).Div(decimal.New(100, 0)).Add(o.BaseDMGRes)
		return vitality(hp, dmgres)
	}
	return decimal.Zero
}

func (o Objective) eDmg(atk, crit decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	return o.CritDmg.Sub(one).Mul(atk).Mul(crit).Add(one.Add(o.ATKMult).Mul(atk))
}

func vitality(hp, dmgres decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	return hp.Mul(one.Div(one.Sub(dmgres)))
}

// Floor is the minimum combined-pool value needed to match set's objective
// value, used by the Optimizer to decide whether an incumbent can still be
// beaten.
func (o Objective) Floor(set topping.Set) decimal.Decimal {
	switch o.Kind {
	case KindSingle, KindCombo:
		return o.Value(set)
	case KindEDMG:
		return o.edmgFloor(o.Value(set))
	case KindVitality:
		return o.vitalityFloor(o.Value(set))
	}
	return decimal.Zero
}

func (o Objective) edmgFloor(obj decimal.Decimal) decimal.Decimal {
	denom := o.CritDmg.Sub(decimal.NewFromInt(1))
	ratio := obj.Div(denom)
	minATK := decimal.NewFromFloat(math.Sqrt(ratio.InexactFloat64()))
	one := decimal.NewFromInt(1)
	minCrit := obj.Sub(one.Add(o.ATKMult).Mul(minATK)).Div(denom.Mul(minATK))
	result := minATK.Add(minCrit).Sub(o.BaseATK).Sub(o.BaseCrit).Mul(decimal.New(100, 0))
	return quantizeUpTenth(result)
}

func (o Objective) vitalityFloor(obj decimal.Decimal) decimal.Decimal {
	hp := o.BaseHP
	one := decimal.NewFromInt(1)
	minDmgRes := one.Sub(one.Div(obj.Div(hp)))
	result := minDmgRes.Sub(o.BaseDMGRes).Mul(decimal.New(100, 0))
	return quantizeUpTenth(result)
}

// Upper returns the best objective value attainable by distributing pool
// (the combined value still available across uncommitted slots) on top of
// fixedPrefix, with fullSet supplying the hypothetical completion used by
// variants (Vitality) whose bound depends on how many remaining slots can
// physically carry the relevant flavor.
func (o Objective) Upper(pool decimal.Decimal, fullSet topping.Set, fixedPrefix []topping.Topping) decimal.Decimal {
	switch o.Kind {
	case KindSingle:
		return pool
	case KindCombo:
		return o.comboUpper(pool, fixedPrefix)
	case KindEDMG:
		return o.edmgUpper(pool, fixedPrefix)
	case KindVitality:
		return o.vitalityUpper(pool, fullSet, fixedPrefix)
	}
	return pool
}

func rawValue(prefix []topping.Topping, flavors ...substat.Flavor) decimal.Decimal {
	total := decimal.Zero
	for _, t := range prefix {
		total = total.Add(t.Value(flavors...))
	}
	return total
}

func (o Objective) comboUpper(pool decimal.Decimal, prefix []topping.Topping) decimal.Decimal {
	hundred := decimal.New(100, 0)
	headroom := decimal.Zero
	for _, s := range o.ComboSubstats {
		fixed := rawValue(prefix, s)
		ceiling := o.Bounds[s].Max.Mul(hundred).Sub(fixed)
		if ceiling.IsPositive() {
			headroom = headroom.Add(ceiling)
		}
	}
	return decMin(pool, headroom)
}

func (o Objective) edmgUpper(pool decimal.Decimal, prefix []topping.Topping) decimal.Decimal {
	hundred := decimal.New(100, 0)
	atk := rawValue(prefix, substat.FlavorATK).Div(hundred).Add(o.BaseATK)
	crit := rawValue(prefix, substat.FlavorCrit).Div(hundred).Add(o.BaseCrit)

	combined := pool.Div(hundred).Add(o.BaseATK).Add(o.BaseCrit)
	denom := decimal.NewFromInt(2).Mul(o.CritDmg.Sub(decimal.NewFromInt(1)))
	one := decimal.NewFromInt(1)
	optimalATK := combined.Mul(o.CritDmg.Sub(one)).Add(one.Add(o.ATKMult)).Div(denom)

	atkBound := o.Bounds[substat.FlavorATK]
	idealATK := decClamp(decMax(atk, optimalATK).Sub(o.BaseATK), atkBound.Min, atkBound.Max).Add(o.BaseATK)

	critBound := o.Bounds[substat.FlavorCrit]
	idealCrit := decClamp(decMax(crit, combined.Sub(idealATK)).Sub(o.BaseCrit), critBound.Min, critBound.Max).Add(o.BaseCrit)
	idealATK = combined.Sub(idealCrit)

	return o.eDmg(idealATK, idealCrit)
}

func (o Objective) vitalityUpper(pool decimal.Decimal, fullSet topping.Set, prefix []topping.Topping) decimal.Decimal {
	hundred := decimal.New(100, 0)
	dmgresFixed := rawValue(prefix, substat.FlavorDMGRes).Div(hundred)
	hpFixed := rawValue(prefix, substat.FlavorHP).Div(hundred)
	combined := pool.Div(hundred)

	_, bonus := fullSet.SetEffect(substat.FlavorDMGRes)
	objCount := 0
	for _, t := range fullSet.Toppings[len(prefix):] {
		if t.Flavor == substat.FlavorDMGRes {
			objCount++
		}
	}
	dmgresInfo := substat.Table[substat.FlavorDMGRes]
	perToppingCeiling := dmgresInfo.Ceiling.Add(dmgresInfo.SubMax) // main-stat + max sub-stat roll
	wildcards := 5 - objCount - len(prefix)
	maxAdditionalDmgres := decimal.New(int64(objCount), 0).Mul(perToppingCeiling).
		Add(decimal.New(int64(wildcards), 0).Mul(dmgresInfo.SubMax)).
		Add(bonus).Div(hundred)

	dmgresBound := o.Bounds[substat.FlavorDMGRes]
	idealDmgres := decMin(decMin(combined, dmgresFixed.Add(maxAdditionalDmgres)), dmgresBound.Max)

	hpBound := o.Bounds[substat.FlavorHP]
	idealHP := decClamp(decMax(hpFixed, combined.Sub(idealDmgres)), hpBound.Min, hpBound.Max)
	idealDmgres = combined.Sub(idealHP)

	idealHP = idealHP.Add(o.BaseHP)
	idealDmgres = idealDmgres.Add(o.BaseDMGRes)

	return vitality(idealHP, idealDmgres)
}

// FancyValue returns a human-facing projection of the objective, including
// the display-only entropy term for EDMG. Never compared against during
// search.
func (o Objective) FancyValue(set topping.Set) map[string]decimal.Decimal {
	switch o.Kind {
	case KindSingle:
		return map[string]decimal.Decimal{o.Single.String(): o.Value(set)}
	case KindCombo:
		out := map[string]decimal.Decimal{"Combo": o.Value(set)}
		for _, s := range o.ComboSubstats {
			out[s.String()] = set.Value(s)
		}
		return out
	case KindEDMG:
		crit := decMin(decimal.NewFromInt(1), set.Value(substat.FlavorCrit).Div(decimal.New(100, 0)).Add(o.BaseCrit))
		c := crit.InexactFloat64()
		var entropy float64
		if c > 0 && c < 1 {
			entropy = -c*math.Log2(c) - (1-c)*math.Log2(1-c)
		}
		return map[string]decimal.Decimal{
			"E[DMG]": o.Value(set).Mul(decimal.New(100, 0)),
			"RNG":    decimal.NewFromFloat(entropy).Round(3).Mul(decimal.New(100, 0)),
		}
	case KindVitality:
		return map[string]decimal.Decimal{"Vitality": o.Value(set).Mul(decimal.New(100, 0))}
	}
	return nil
}

func (o Objective) String() string {
	switch o.Kind {
	case KindSingle:
		return fmt.Sprintf("max %s", o.Single)
	case KindCombo:
		return fmt.Sprintf("max Combo%v", o.ComboSubstats)
	case KindEDMG:
		return "max E[DMG]"
	case KindVitality:
		return "max Vitality"
	}
	return "max ?"
}

func decMax(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

func decMin(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

func decClamp(v, min, max decimal.Decimal) decimal.Decimal {
	return decMax(min, decMin(max, v))
}

// quantizeUpTenth rounds v up (toward positive infinity) to the nearest
// 0.1 — the one other floating-point-adjacent rounding site spec.md §3
// carves out, done here entirely in fixed point via Ceil on a shifted
// decimal.
func quantizeUpTenth(v decimal.Decimal) decimal.Decimal {
	return v.Shift(1).Ceil().Shift(-1)
}

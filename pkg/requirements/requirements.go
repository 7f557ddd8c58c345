// Package requirements loads and realizes per-cookie requirement records:
// a validity list, one objective, a resonance whitelist, an optional
// leaderboard weight, and the numeric modifier bundle objectives are built
// from. Grounded directly in original_source/topping_bot/optimize/
// requirements.py, restructured per spec.md §4, §6.
package requirements

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/crk-toppings/optimizer/pkg/objective"
	"github.com/crk-toppings/optimizer/pkg/substat"
	"github.com/crk-toppings/optimizer/pkg/topping"
	"github.com/crk-toppings/optimizer/pkg/validity"
)

// These are the YAML spellings of the modifier bundle slots, matching
// the in-game display names used elsewhere in this module.
const (
	modATK     = "ATK"
	modCrit    = "CRIT%"
	modCritDmg = "CRIT DMG"
	modATKMult = "ATK Mult"
	modHP      = "HP"
	modDMGRes  = "DMG Resist"
)

// DefaultModifiers is the process-wide modifier baseline (spec.md §6): a
// named-source breakdown per bundle slot, summed to seed every cookie's
// bundle before a requirement file's own `modifiers:` section adds to it.
func DefaultModifiers() map[string]map[string]decimal.Decimal {
	return map[string]map[string]decimal.Decimal{
		modATK: {
			"Base": decimal.New(100, 0),
		},
		modCrit: {
			"Base":                         decimal.New(5, 0),
			"Eerie Haunted House Landmark": decimal.New(8, 0),
		},
		modCritDmg: {
			"Base":                                  decimal.New(150, 0),
			"CRIT DMG Bonus Lab":                     decimal.New(20, 0),
			"Chocolate Alter of the Fallen Landmark":  decimal.New(20, 0),
		},
		modHP: {
			"Base": decimal.New(100, 0),
		},
	}
}

// Modifiers is the additive modifier bundle from which EDMG and Vitality
// objectives are constructed.
type Modifiers map[string]decimal.Decimal

func baselineModifiers() Modifiers {
	m := make(Modifiers)
	for slot, sources := range DefaultModifiers() {
		total := decimal.Zero
		for _, v := range sources {
			total = total.Add(v)
		}
		m[slot] = total
	}
	return m
}

func (m Modifiers) clone() Modifiers {
	out := make(Modifiers, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Requirements is one cookie's fully parsed (but not yet realized)
// requirement record.
type Requirements struct {
	Name       string
	raw        []validity.Requirement
	Valid      []validity.Predicate // canonical, populated by Realize
	Objective  objective.Objective
	Resonances []substat.Resonance
	Weight     *int
	Modifiers  Modifiers
}

// Set is a named collection of Requirements loaded from one file, in
// declaration order.
type Set []*Requirements

// Load parses a requirements YAML document (spec.md §6) into an ordered
// Set, or returns a load-time error with no partial state retained.
func Load(data []byte) (Set, error) {
	var doc rawDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("requirements: %w", err)
	}
	if len(doc.Cookies) > 10 {
		return nil, fmt.Errorf("requirements: at most 10 cookies per file, got %d", len(doc.Cookies))
	}

	baseline := baselineModifiers()
	for slot, sources := range doc.Modifiers {
		for _, src := range sources {
			baseline[slot] = baseline[slot].Add(src.Value)
		}
	}

	seen := make(map[string]bool, len(doc.Cookies))
	out := make(Set, 0, len(doc.Cookies))

	for _, rc := range doc.Cookies {
		cookieMods := baseline.clone()

		var rawReqs []validity.Requirement
		var obj *objective.Objective

		for _, node := range rc.Requirements {
			switch node.Kind {
			case yaml.ScalarNode:
				var text string
				if err := node.Decode(&text); err != nil {
					return nil, fmt.Errorf("requirements: %s: %w", rc.Name, err)
				}
				req, err := validity.Parse(text)
				if err != nil {
					return nil, fmt.Errorf("requirements: %s: %w", rc.Name, err)
				}
				if rel, ok := req.(validity.Relative); ok && !seen[rel.Cookie] {
					return nil, fmt.Errorf("requirements: %s: relative target %q must be a previously seen cookie", rc.Name, rel.Cookie)
				}
				rawReqs = append(rawReqs, req)

			case yaml.MappingNode:
				if obj != nil {
					return nil, fmt.Errorf("requirements: %s: only one objective may be specified", rc.Name)
				}
				var raw map[string]string
				if err := node.Decode(&raw); err != nil {
					return nil, fmt.Errorf("requirements: %s: %w", rc.Name, err)
				}
				parsed, err := parseObjective(rc.Name, raw, cookieMods)
				if err != nil {
					return nil, err
				}
				obj = parsed

			default:
				return nil, fmt.Errorf("requirements: %s: unrecognized requirement entry", rc.Name)
			}
		}

		if obj == nil {
			return nil, fmt.Errorf("requirements: %s: one objective must be specified", rc.Name)
		}

		resonances := make([]substat.Resonance, 0, len(rc.Resonant)+1)
		for _, name := range rc.Resonant {
			r, err := substat.ParseResonance(name)
			if err != nil {
				return nil, fmt.Errorf("requirements: %s: %w", rc.Name, err)
			}
			resonances = append(resonances, r)
		}
		resonances = append(resonances, substat.ResonanceNormal)

		var weight *int
		if w, ok := doc.Leaderboard[rc.Name]; ok {
			v := w
			weight = &v
		}

		seen[rc.Name] = true
		out = append(out, &Requirements{
			Name:       rc.Name,
			raw:        rawReqs,
			Objective:  *obj,
			Resonances: resonances,
			Weight:     weight,
			Modifiers:  cookieMods,
		})
	}

	return out, nil
}

func parseObjective(cookieName string, raw map[string]string, mods Modifiers) (*objective.Objective, error) {
	kind, ok := raw["max"]
	if !ok {
		return nil, fmt.Errorf("requirements: %s: objective must have a 'max' key", cookieName)
	}

	switch kind {
	case "Combo":
		substatsCSV, ok := raw["substats"]
		if !ok || substatsCSV == "" {
			return nil, fmt.Errorf("requirements: %s: Combo objective must specify substats", cookieName)
		}
		flavors, err := parseFlavorList(substatsCSV)
		if err != nil {
			return nil, fmt.Errorf("requirements: %s: %w", cookieName, err)
		}
		obj := objective.NewCombo(flavors)
		return &obj, nil

	case "E[DMG]":
		obj := objective.NewEDMG(
			mods[modATK].Add(overrideOf(raw, modATK)),
			mods[modCrit].Add(overrideOf(raw, modCrit)),
			mods[modCritDmg].Add(overrideOf(raw, modCritDmg)),
			mods[modATKMult].Add(overrideOf(raw, modATKMult)),
		)
		return &obj, nil

	case "Vitality", "E[Vit]":
		obj := objective.NewVitality(
			mods[modHP].Add(overrideOf(raw, modHP)),
			mods[modDMGRes].Add(overrideOf(raw, modDMGRes)),
		)
		return &obj, nil

	default:
		f, err := substat.ParseFlavor(kind)
		if err != nil {
			return nil, fmt.Errorf("requirements: %s: unknown objective %q", cookieName, kind)
		}
		obj := objective.NewSingle(f)
		return &obj, nil
	}
}

func overrideOf(raw map[string]string, key string) decimal.Decimal {
	v, ok := raw[key]
	if !ok || v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseFlavorList(csv string) ([]substat.Flavor, error) {
	var flavors []substat.Flavor
	start := 0
	for i := 0; i <= len(csv); i++ {
		if i == len(csv) || csv[i] == ',' {
			name := trimSpace(csv[start:i])
			if name != "" {
				f, err := substat.ParseFlavor(name)
				if err != nil {
					return nil, err
				}
				flavors = append(flavors, f)
			}
			start = i + 1
		}
	}
	return flavors, nil
}

func trimSpace(s string) string {
	for len(s) > 0 && s[0] == ' ' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	return s
}

type rawDocument struct {
	Cookies     []rawCookie                    `yaml:"cookies"`
	Modifiers   map[string][]rawModifierSource `yaml:"modifiers"`
	Leaderboard map[string]int                 `yaml:"leaderboard"`
}

type rawCookie struct {
	Name         string      `yaml:"name"`
	Requirements []yaml.Node `yaml:"requirements"`
	Resonant     []string    `yaml:"resonant"`
}

type rawModifierSource struct {
	Source string          `yaml:"source"`
	Value  decimal.Decimal `yaml:"value"`
}

// Realize runs once per cookie just before search (spec.md §4.2): it binds
// Relative predicates against solved lets it canonicalizes every predicate
// to {≥,≤}, widens strict inequalities by the substat's display ulp,
// clamps negatives to zero, and collapses duplicates to their tightest
// target. It also tightens the objective's Special bounds from the
// resulting floor/ceiling predicates.
func (r *Requirements) Realize(solved func(cookie string, s substat.Flavor) (decimal.Decimal, bool)) error {
	var converted []validity.Predicate
	for _, req := range r.raw {
		preds, err := req.Convert(solved)
		if err != nil {
			return fmt.Errorf("requirements: %s: %w", r.Name, err)
		}
		converted = append(converted, preds...)
	}

	fuzzed := make([]validity.Predicate, len(converted))
	for i, p := range converted {
		fuzzed[i] = p.Fuzz()
	}
	r.Valid = validity.Collapse(fuzzed)

	if r.Objective.IsSpecial() {
		hundred := decimal.New(100, 0)
		// A floor requirement (substat >= target) raises the bound's
		// minimum; a ceiling requirement (substat <= target) lowers its
		// maximum. The source takes min() on both sides, which leaves the
		// floor side permanently at -inf — fixed here so a Special
		// objective's lower bound actually reflects its validity floors.
		for _, req := range r.FloorReqs() {
			if b, ok := r.Objective.Bounds[req.Substat]; ok {
				target := req.Target.Div(hundred)
				if target.GreaterThan(b.Min) {
					b.Min = target
				}
				r.Objective.Bounds[req.Substat] = b
			}
		}
		for _, req := range r.CeilingReqs() {
			if b, ok := r.Objective.Bounds[req.Substat]; ok {
				target := req.Target.Div(hundred)
				if target.LessThan(b.Max) {
					b.Max = target
				}
				r.Objective.Bounds[req.Substat] = b
			}
		}
	}
	return nil
}

// FloorReqs returns every canonical ≥ predicate.
func (r *Requirements) FloorReqs() []validity.Predicate {
	var out []validity.Predicate
	for _, p := range r.Valid {
		if p.Op == validity.OpGE {
			out = append(out, p)
		}
	}
	return out
}

// CeilingReqs returns every canonical ≤ predicate with a nonzero target.
func (r *Requirements) CeilingReqs() []validity.Predicate {
	var out []validity.Predicate
	for _, p := range r.Valid {
		if p.Op == validity.OpLE && !p.Target.IsZero() {
			out = append(out, p)
		}
	}
	return out
}

// ZeroReqs returns every canonical ≤0 predicate (substats the cookie must
// not carry at all).
func (r *Requirements) ZeroReqs() []validity.Predicate {
	var out []validity.Predicate
	for _, p := range r.Valid {
		if p.Op == validity.OpLE && p.Target.IsZero() {
			out = append(out, p)
		}
	}
	return out
}

// Floor returns the ≥ target recorded for substat s, or zero if none.
func (r *Requirements) Floor(s substat.Flavor) decimal.Decimal {
	for _, p := range r.Valid {
		if p.Substat == s && p.Op == validity.OpGE {
			return p.Target
		}
	}
	return decimal.Zero
}

// ValidSubstats is every floor-constrained substat not already covered by
// the objective's own tuple.
func (r *Requirements) ValidSubstats() []substat.Flavor {
	objTypes := r.Objective.Types()
	var out []substat.Flavor
	for _, p := range r.Valid {
		if p.Op != validity.OpGE {
			continue
		}
		if containsFlavor(objTypes, p.Substat) || containsFlavor(out, p.Substat) {
			continue
		}
		out = append(out, p.Substat)
	}
	return out
}

// AllSubstats is the union of ValidSubstats and the objective's substats,
// sorted for determinism.
func (r *Requirements) AllSubstats() []substat.Flavor {
	set := map[substat.Flavor]bool{}
	for _, s := range r.ValidSubstats() {
		set[s] = true
	}
	for _, s := range r.Objective.Types() {
		set[s] = true
	}
	out := make([]substat.Flavor, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func containsFlavor(list []substat.Flavor, f substat.Flavor) bool {
	for _, x := range list {
		if x == f {
			return true
		}
	}
	return false
}

// BestPossibleSetEffect returns the largest set-bonus attainable across
// substats given the toppings already committed in prefix and a budget of
// nonMatchCount additional non-matching toppings. It pools the best
// 2-required and 3-required tiers across substats, but — unlike the
// source, which sums the best tier of each bucket regardless of which
// substat produced it — only stacks them when they come from two distinct
// substats, since one topping can only ever count toward one flavor
// (spec.md §9 flags this precondition as implicit; this makes it explicit).
func BestPossibleSetEffect(prefix []topping.Topping, substats []substat.Flavor, nonMatchCount int) decimal.Decimal {
	alreadyNonMatching := 0
	for _, t := range prefix {
		if !containsFlavor(substats, t.Flavor) {
			alreadyNonMatching++
		}
	}

	type tierWinner struct {
		bonus  decimal.Decimal
		flavor substat.Flavor
		found  bool
	}
	winners := map[int]tierWinner{}

	for _, s := range substats {
		for _, c := range substat.Table[s].Combos {
			slack := 5 - c.Count - alreadyNonMatching
			if nonMatchCount > slack {
				continue
			}
			if cur := winners[c.Count]; !cur.found || c.Bonus.GreaterThan(cur.bonus) {
				winners[c.Count] = tierWinner{bonus: c.Bonus, flavor: s, found: true}
			}
		}
	}

	stacked := decimal.Zero
	two, three := winners[2], winners[3]
	switch {
	case two.found && three.found && two.flavor != three.flavor:
		stacked = two.bonus.Add(three.bonus)
	case two.found:
		stacked = two.bonus
	case three.found:
		stacked = three.bonus
	}

	five := winners[5].bonus
	if five.GreaterThan(stacked) {
		return five
	}
	return stacked
}

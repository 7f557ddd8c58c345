// Package validity parses the four textual requirement forms described in
// the topping-optimizer specification (simple inequality, closed range,
// equality, relative-to-another-cookie) and lowers them to canonical
// predicates over a substat.
//
// No parser-combinator library appears anywhere in the retrieval pack this
// module was grounded against (the pack's own grammars — see
// gitrdm-gokando's lex-demo example — are hand-rolled lexers), so this
// grammar is hand-rolled with the standard library's regexp, matched in
// DESIGN.md as a stdlib choice with no suitable replacement in the pack.
package validity

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/crk-toppings/optimizer/pkg/substat"
)

// Op is a comparison operator as it appears in a raw requirement string,
// before canonicalization.
type Op int

const (
	OpGT Op = iota
	OpLT
	OpGE
	OpLE
)

func (o Op) String() string {
	switch o {
	case OpGT:
		return ">"
	case OpLT:
		return "<"
	case OpGE:
		return ">="
	case OpLE:
		return "<="
	}
	return "?"
}

func invert(o Op) Op {
	switch o {
	case OpGT:
		return OpLT
	case OpLT:
		return OpGT
	case OpGE:
		return OpLE
	case OpLE:
		return OpGE
	}
	return o
}

var opStrings = map[string]Op{">=": OpGE, "<=": OpLE, ">": OpGT, "<": OpLT}

// Predicate is a canonical (substat, direction, target) triple: after
// Realize, Op is always OpGE or OpLE.
type Predicate struct {
	Substat substat.Flavor
	Op      Op
	Target  decimal.Decimal
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s %s %s", p.Substat, p.Op, p.Target)
}

// Fuzz widens a strict inequality by the substat's display ulp and clamps
// the resulting target to zero if it would go negative, per spec.md §4.2.
// After Fuzz, Op is always OpGE or OpLE.
func (p Predicate) Fuzz() Predicate {
	ulp := substat.DisplayULP(p.Substat)
	switch p.Op {
	case OpGT:
		p.Op = OpGE
		p.Target = p.Target.Add(ulp)
	case OpLT:
		p.Op = OpLE
		p.Target = p.Target.Sub(ulp)
	}
	if p.Target.IsNegative() {
		p.Target = decimal.Zero
	}
	return p
}

// Requirement is a single parsed, not-yet-realized validity requirement. It
// converts to one or two canonical Predicates once any Relative reference
// can be resolved against already-solved cookies.
type Requirement interface {
	fmt.Stringer
	// Convert lowers the requirement to canonical (pre-fuzz) predicates.
	// solved supplies the value of a substat for a previously solved
	// cookie, used only by Relative.
	Convert(solved func(cookie string, s substat.Flavor) (decimal.Decimal, bool)) ([]Predicate, error)
}

// flavorsByDescendingName orders flavor display names longest-first so the
// regex alternation prefers "CRIT Resist" over the "CRIT%"/"CRIT" prefix
// ambiguity, and "ATK SPD" over "ATK".
func flavorsByDescendingName() []substat.Flavor {
	flavors := substat.AllFlavors()
	sort.Slice(flavors, func(i, j int) bool {
		return len(flavors[i].String()) > len(flavors[j].String())
	})
	return flavors
}

func substatPattern() string {
	flavors := flavorsByDescendingName()
	parts := make([]string, len(flavors))
	for i, f := range flavors {
		parts[i] = regexp.QuoteMeta(f.String())
	}
	return strings.Join(parts, "|")
}

const numberPattern = `\d+(?:\.\d+)?`
const opPattern = `>=|<=|>|<`

var (
	substatGroup = `(?P<substat>` + substatPattern() + `)`
	numberGroup  = `(?P<number>` + numberPattern + `)`

	simpleForward = regexp.MustCompile(`^\s*` + substatGroup + `\s*(?P<op>` + opPattern + `)\s*` + numberGroup + `\s*$`)
	simpleReverse = regexp.MustCompile(`^\s*` + numberGroup + `\s*(?P<op>` + opPattern + `)\s*` + substatGroup + `\s*$`)

	rangeLess = regexp.MustCompile(`^\s*(?P<low>` + numberPattern + `)\s*(?P<lop><=|<)\s*` + substatGroup +
		`\s*(?P<hop><=|<)\s*(?P<high>` + numberPattern + `)\s*$`)
	rangeMore = regexp.MustCompile(`^\s*(?P<high>` + numberPattern + `)\s*(?P<hop>>=|>)\s*` + substatGroup +
		`\s*(?P<lop>>=|>)\s*(?P<low>` + numberPattern + `)\s*$`)

	equalityForward = regexp.MustCompile(`^\s*` + substatGroup + `\s*(?:==|=)\s*` + numberGroup + `\s*$`)
	equalityReverse = regexp.MustCompile(`^\s*` + numberGroup + `\s*(?:==|=)\s*` + substatGroup + `\s*$`)

	relative = regexp.MustCompile(`^\s*` + substatGroup + `\s+(?P<direction>(?i:above|below))\s+(?P<cookie>.+?)\s*$`)
)

func namedGroup(re *regexp.Regexp, m []string, name string) string {
	for i, n := range re.SubexpNames() {
		if n == name {
			return m[i]
		}
	}
	return ""
}

func parseFlavor(name string) substat.Flavor {
	f, err := substat.ParseFlavor(name)
	if err != nil {
		panic(err) // unreachable: name matched the substat regex group
	}
	return f
}

func parseDecimal(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err) // unreachable: s matched the number regex group
	}
	return v
}

// Simple is "<substat> <op> <number>" (or reversed operand order).
type Simple struct {
	Substat substat.Flavor
	Op      Op
	Target  decimal.Decimal
}

func (s Simple) String() string { return fmt.Sprintf("%s %s %s", s.Substat, s.Op, s.Target) }

func (s Simple) Convert(func(string, substat.Flavor) (decimal.Decimal, bool)) ([]Predicate, error) {
	return []Predicate{{Substat: s.Substat, Op: s.Op, Target: s.Target}}, nil
}

// Range is "<low> <lt> <substat> <lt> <high>" (or the all-"gt" mirror).
type Range struct {
	Substat        substat.Flavor
	Low, High      decimal.Decimal
	LowOp, HighOp  Op // LowOp/HighOp in "low <op> substat <op> high" orientation; the mirrored form is stored inverted
}

func (r Range) String() string {
	return fmt.Sprintf("%s %s %s %s %s", r.Low, r.LowOp, r.Substat, r.HighOp, r.High)
}

func (r Range) Convert(func(string, substat.Flavor) (decimal.Decimal, bool)) ([]Predicate, error) {
	return []Predicate{
		{Substat: r.Substat, Op: invert(r.LowOp), Target: r.Low},
		{Substat: r.Substat, Op: r.HighOp, Target: r.High},
	}, nil
}

// Equality is "<substat> (==|=) <number>".
type Equality struct {
	Substat substat.Flavor
	Target  decimal.Decimal
}

func (e Equality) String() string { return fmt.Sprintf("%s == %s", e.Substat, e.Target) }

func (e Equality) Convert(func(string, substat.Flavor) (decimal.Decimal, bool)) ([]Predicate, error) {
	if e.Target.IsZero() {
		return []Predicate{{Substat: e.Substat, Op: OpLE, Target: e.Target}}, nil
	}
	return []Predicate{
		{Substat: e.Substat, Op: OpGE, Target: e.Target},
		{Substat: e.Substat, Op: OpLE, Target: e.Target},
	}, nil
}

// Relative is "<substat> (above|below) <cookie-name>". The cookie must be a
// previously solved cookie in the current team; Convert resolves it against
// the supplied solved lookup.
type Relative struct {
	Substat   substat.Flavor
	Direction string // "above" or "below"
	Cookie    string
}

func (r Relative) String() string { return fmt.Sprintf("%s %s %s", r.Substat, r.Direction, r.Cookie) }

func (r Relative) Convert(solved func(string, substat.Flavor) (decimal.Decimal, bool)) ([]Predicate, error) {
	target, ok := solved(r.Cookie, r.Substat)
	if !ok {
		return nil, fmt.Errorf("validity: relative target %q must be a previously solved cookie", r.Cookie)
	}
	switch strings.ToLower(r.Direction) {
	case "above":
		return []Predicate{{Substat: r.Substat, Op: OpGT, Target: target}}, nil
	case "below":
		return []Predicate{{Substat: r.Substat, Op: OpLT, Target: target}}, nil
	}
	return nil, fmt.Errorf("validity: unknown relative direction %q", r.Direction)
}

// Parse accepts a single textual requirement and returns the parsed
// Requirement in one of its four forms. It tries Equality, Range,
// Relative, then Simple, in that order — Range and Equality both contain
// two decision points the looser Simple pattern would otherwise swallow.
func Parse(text string) (Requirement, error) {
	if m := equalityForward.FindStringSubmatch(text); m != nil {
		return Equality{
			Substat: parseFlavor(namedGroup(equalityForward, m, "substat")),
			Target:  parseDecimal(namedGroup(equalityForward, m, "number")),
		}, nil
	}
	if m := equalityReverse.FindStringSubmatch(text); m != nil {
		return Equality{
			Substat: parseFlavor(namedGroup(equalityReverse, m, "substat")),
			Target:  parseDecimal(namedGroup(equalityReverse, m, "number")),
		}, nil
	}
	if m := rangeLess.FindStringSubmatch(text); m != nil {
		return Range{
			Substat: parseFlavor(namedGroup(rangeLess, m, "substat")),
			Low:     parseDecimal(namedGroup(rangeLess, m, "low")),
			LowOp:   opStrings[namedGroup(rangeLess, m, "lop")],
			High:    parseDecimal(namedGroup(rangeLess, m, "high")),
			HighOp:  opStrings[namedGroup(rangeLess, m, "hop")],
		}, nil
	}
	if m := rangeMore.FindStringSubmatch(text); m != nil {
		// "high > substat > low": rewrite to the low/high canonical shape.
		return Range{
			Substat: parseFlavor(namedGroup(rangeMore, m, "substat")),
			Low:     parseDecimal(namedGroup(rangeMore, m, "low")),
			LowOp:   invert(opStrings[namedGroup(rangeMore, m, "lop")]),
			High:    parseDecimal(namedGroup(rangeMore, m, "high")),
			HighOp:  invert(opStrings[namedGroup(rangeMore, m, "hop")]),
		}, nil
	}
	if m := relative.FindStringSubmatch(text); m != nil {
		return Relative{
			Substat:   parseFlavor(namedGroup(relative, m, "substat")),
			Direction: namedGroup(relative, m, "direction"),
			Cookie:    namedGroup(relative, m, "cookie"),
		}, nil
	}
	if m := simpleForward.FindStringSubmatch(text); m != nil {
		return Simple{
			Substat: parseFlavor(namedGroup(simpleForward, m, "substat")),
			Op:      opStrings[namedGroup(simpleForward, m, "op")],
			Target:  parseDecimal(namedGroup(simpleForward, m, "number")),
		}, nil
	}
	if m := simpleReverse.FindStringSubmatch(text); m != nil {
		return Simple{
			Substat: parseFlavor(namedGroup(simpleReverse, m, "substat")),
			Op:      invert(opStrings[namedGroup(simpleReverse, m, "op")]),
			Target:  parseDecimal(namedGroup(simpleReverse, m, "number")),
		}, nil
	}
	return nil, fmt.Errorf("validity: could not parse requirement %q", text)
}

// Collapse deduplicates a predicate list, keeping for each (substat,
// direction) pair only the tightest target: the maximum target for OpGE,
// the minimum for OpLE.
func Collapse(preds []Predicate) []Predicate {
	tightest := make(map[[2]any]Predicate, len(preds))
	order := make([][2]any, 0, len(preds))
	for _, p := range preds {
		k := [2]any{p.Substat, p.Op}
		existing, ok := tightest[k]
		if !ok {
			tightest[k] = p
			order = append(order, k)
			continue
		}
		if p.Op == OpGE && p.Target.GreaterThan(existing.Target) {
			tightest[k] = p
		} else if p.Op == OpLE && p.Target.LessThan(existing.Target) {
			tightest[k] = p
		}
	}
	out := make([]Predicate, 0, len(order))
	for _, k := range order {
		out = append(out, tightest[k])
	}
	return out
}

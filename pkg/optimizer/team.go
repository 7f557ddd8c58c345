package optimizer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crk-toppings/optimizer/internal/obslog"
	"github.com/crk-toppings/optimizer/internal/progress"
	"github.com/crk-toppings/optimizer/pkg/requirements"
	"github.com/crk-toppings/optimizer/pkg/substat"
	"github.com/crk-toppings/optimizer/pkg/topping"
)

// CookieOutcome is one cookie's result within a team run.
type CookieOutcome struct {
	Name   string
	Result Result
}

// TeamResult is the ordered outcome of running every cookie in a
// requirements.Set against a shared, shrinking inventory.
type TeamResult struct {
	Cookies []CookieOutcome
	// Stopped names the first cookie that did not reach OutcomeSolved, or
	// "" if every cookie solved.
	Stopped string
}

// Team runs a requirements.Set cookie by cookie over a shared inventory,
// per spec.md §4.6: each cookie's validity is realized against the
// cookies already solved, searched, and — on success — its five chosen
// toppings are removed from the inventory before the next cookie runs.
type Team struct {
	opts   []Option
	logger *obslog.Logger
}

// NewTeam builds a Team. opts are applied to every cookie's Optimizer.
func NewTeam(opts ...Option) *Team {
	return &Team{opts: opts, logger: obslog.Nop()}
}

// WithTeamLogger attaches the logger used for per-cookie progress lines.
func (t *Team) WithTeamLogger(l *obslog.Logger) *Team {
	t.logger = l
	return t
}

// Solve runs reqs in order against inventory. inventory is mutated: each
// solved cookie's chosen toppings are removed before the next cookie's
// search begins. Solve stops at the first cookie that does not solve
// (NoFeasibleSolution or Cancelled) and reports it in TeamResult.Stopped;
// it never attempts a later cookie against an inventory a failed cookie
// might have rendered inconsistent.
func (t *Team) Solve(ctx context.Context, inventory *[]topping.Topping, reqs requirements.Set) (TeamResult, error) {
	var result TeamResult
	solvedValues := make(map[string]map[substat.Flavor]decimal.Decimal)
	runLogger := t.logger.ForRun(uuid.NewString())

	lookup := func(cookie string, s substat.Flavor) (decimal.Decimal, bool) {
		values, ok := solvedValues[cookie]
		if !ok {
			return decimal.Zero, false
		}
		v, ok := values[s]
		return v, ok
	}

	for _, r := range reqs {
		if err := r.Realize(lookup); err != nil {
			return result, fmt.Errorf("team: %w", err)
		}

		channel := progress.New()
		opts := append([]Option{WithProgressChannel(channel), WithLogger(runLogger.ForCookie(r.Name))}, t.opts...)
		opt := New(r, opts...)

		res, err := opt.Solve(ctx, *inventory)
		if err != nil {
			return result, fmt.Errorf("team: %s: %w", r.Name, err)
		}

		result.Cookies = append(result.Cookies, CookieOutcome{Name: r.Name, Result: res})

		if res.Outcome != OutcomeSolved {
			result.Stopped = r.Name
			return result, nil
		}

		values := make(map[substat.Flavor]decimal.Decimal)
		for _, s := range r.AllSubstats() {
			values[s] = res.Set.Value(s)
		}
		solvedValues[r.Name] = values

		*inventory = removeSet(*inventory, res.Set)
	}

	return result, nil
}

// removeSet returns inventory with exactly the five toppings of set
// removed (by value equality, first match each), leaving duplicates of
// the same loadout otherwise untouched.
func removeSet(inventory []topping.Topping, set topping.Set) []topping.Topping {
	remaining := make([]topping.Topping, len(inventory))
	copy(remaining, inventory)

	for _, member := range set.Toppings {
		for i, t := range remaining {
			if toppingEqual(t, member) {
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
	}
	return remaining
}

func toppingEqual(a, b topping.Topping) bool {
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

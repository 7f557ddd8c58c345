// Package optimizer implements the depth-first branch-and-bound search
// that selects, for one cookie, the five-topping set maximizing its
// objective subject to its validity predicates (spec.md §4.5), and the
// team driver that runs it cookie-by-cookie over a shrinking inventory
// (spec.md §4.6). Grounded algorithmically in original_source/topping_bot/
// optimize/optimize.py, and in Go idiom on gitrdm-gokando's
// SolveOptimalWithOptions: functional options, a context-scoped deadline,
// and an explicit incumbent-or-not state rather than a nullable solution.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crk-toppings/optimizer/internal/obslog"
	"github.com/crk-toppings/optimizer/internal/progress"
	"github.com/crk-toppings/optimizer/pkg/objective"
	"github.com/crk-toppings/optimizer/pkg/requirements"
	"github.com/crk-toppings/optimizer/pkg/substat"
	"github.com/crk-toppings/optimizer/pkg/topping"
	"github.com/crk-toppings/optimizer/pkg/validity"
)

// ErrInternalInconsistency is returned when a topping fails its own
// well-formedness invariant mid-run — a programmer/data bug, never a
// search outcome (spec.md §4.5, §7).
var ErrInternalInconsistency = errors.New("optimizer: internal inconsistency")

// Outcome distinguishes a found solution from the two failure modes
// spec.md §4.5 requires never be confused with each other or with a
// nullable solution: exhausting the search honestly, and being told to
// stop early.
type Outcome int

const (
	OutcomeSolved Outcome = iota
	OutcomeNoFeasibleSolution
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSolved:
		return "solved"
	case OutcomeNoFeasibleSolution:
		return "no feasible solution"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Result is what a single-cookie search produces. Set/Value/Fancy are
// only meaningful when an incumbent was found (OutcomeSolved, or
// OutcomeCancelled with a partial incumbent).
type Result struct {
	Outcome     Outcome
	HasSet      bool
	Set         topping.Set
	Value       decimal.Decimal
	Fancy       map[string]decimal.Decimal
	NodesVisited int
}

// Option configures an Optimizer.
type Option func(*config)

type config struct {
	softDeadline time.Duration
	hardDeadline time.Duration
	progressEvery int
	channel       *progress.Channel
	logger        *obslog.Logger
}

// WithSoftDeadline requests cancellation once d has elapsed: the worker
// finishes its current pruning frame, keeps its incumbent if any, and
// returns OutcomeCancelled. Requires WithProgressChannel.
func WithSoftDeadline(d time.Duration) Option {
	return func(c *config) { c.softDeadline = d }
}

// WithHardDeadline terminates the search via context after d, regardless
// of cooperative cancellation.
func WithHardDeadline(d time.Duration) Option {
	return func(c *config) { c.hardDeadline = d }
}

// WithProgressChannel attaches the shared progress/cancellation state
// (spec.md §5) the search publishes to and polls.
func WithProgressChannel(ch *progress.Channel) Option {
	return func(c *config) { c.channel = ch }
}

// WithLogger attaches a structured logger; defaults to a no-op logger.
func WithLogger(l *obslog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithProgressInterval sets how many recursion frames elapse between
// progress-buffer publishes. Defaults to 512.
func WithProgressInterval(frames int) Option {
	return func(c *config) { c.progressEvery = frames }
}

// Optimizer runs the branch-and-bound search for one cookie's
// Requirements.
type Optimizer struct {
	reqs *requirements.Requirements
	cfg  config
}

// New builds an Optimizer for reqs, which must already have Realize
// called on it.
func New(reqs *requirements.Requirements, opts ...Option) *Optimizer {
	cfg := config{progressEvery: 512, logger: obslog.Nop()}
	for _, o := range opts {
		o(&cfg)
	}
	return &Optimizer{reqs: reqs, cfg: cfg}
}

type searchState struct {
	pool          []topping.Topping
	cutter        *Cutter
	channel       *progress.Channel
	nodes         int
	haveIncumbent bool
	incumbent     topping.Set
	incumbentVal  decimal.Decimal
	cancelled     bool
}

// Solve runs the search over inventory and returns the chosen set, or a
// structured no-solution/cancelled outcome. inventory is read-only: the
// caller (the team driver) owns removing the chosen items.
func (o *Optimizer) Solve(ctx context.Context, inventory []topping.Topping) (Result, error) {
	if o.cfg.hardDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.hardDeadline)
		defer cancel()
	}
	if o.cfg.softDeadline > 0 && o.cfg.channel != nil {
		timer := time.AfterFunc(o.cfg.softDeadline, o.cfg.channel.RequestCancel)
		defer timer.Stop()
	}

	pool, err := o.preamble(inventory)
	if err != nil {
		return Result{}, err
	}

	st := &searchState{
		pool:    pool,
		cutter:  NewCutter(o.reqs.ValidSubstats(), o.reqs.Objective.Types(), o.reqs.AllSubstats()),
		channel: o.cfg.channel,
	}

	if len(pool) >= 5 {
		o.dfs(ctx, st, nil, 0)
	}

	result := Result{NodesVisited: st.nodes}
	if st.haveIncumbent {
		result.HasSet = true
		result.Set = st.incumbent
		result.Value = st.incumbentVal
		result.Fancy = o.reqs.Objective.FancyValue(st.incumbent)
	}

	switch {
	case st.cancelled:
		result.Outcome = OutcomeCancelled
	case st.haveIncumbent:
		result.Outcome = OutcomeSolved
	default:
		result.Outcome = OutcomeNoFeasibleSolution
	}

	o.cfg.logger.Info("search finished",
		zap.String("cookie", o.reqs.Name),
		zap.String("outcome", result.Outcome.String()),
		zap.Int("nodes", st.nodes),
	)
	return result, nil
}

// preamble filters inventory to the requirement's resonance whitelist,
// drops any topping that would violate a zero-equality predicate, and
// sorts the survivors by the composite priority key spec.md §4.5
// describes (objective relevance first, then validity breadth, then
// summed relevant value, with DMGRES floated to the front for Vitality).
func (o *Optimizer) preamble(inventory []topping.Topping) ([]topping.Topping, error) {
	zeroSubs := make([]substat.Flavor, 0)
	for _, p := range o.reqs.ZeroReqs() {
		zeroSubs = append(zeroSubs, p.Substat)
	}

	filtered := make([]topping.Topping, 0, len(inventory))
	for _, t := range inventory {
		if !t.Validate() {
			return nil, fmt.Errorf("%w: malformed topping %s", ErrInternalInconsistency, t)
		}
		if !resonanceAllowed(t.Resonance, o.reqs.Resonances) {
			continue
		}
		if len(zeroSubs) > 0 && t.Value(zeroSubs...).IsPositive() {
			continue
		}
		filtered = append(filtered, t)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return o.lessPriority(filtered[i], filtered[j])
	})
	return filtered, nil
}

func resonanceAllowed(r substat.Resonance, whitelist []substat.Resonance) bool {
	for _, w := range whitelist {
		if w == r {
			return true
		}
	}
	return false
}

func (o *Optimizer) lessPriority(a, b topping.Topping) bool {
	objTypes := o.reqs.Objective.Types()
	validSubs := o.reqs.ValidSubstats()
	allSubs := o.reqs.AllSubstats()

	if o.reqs.Objective.Kind == objective.KindVitality {
		aDMG := a.Flavor == substat.FlavorDMGRes
		bDMG := b.Flavor == substat.FlavorDMGRes
		if aDMG != bDMG {
			return aDMG
		}
	}

	aObj := containsFlavor(objTypes, a.Flavor)
	bObj := containsFlavor(objTypes, b.Flavor)
	if aObj != bObj {
		return aObj
	}

	aCount := countMatchingStats(a, validSubs)
	bCount := countMatchingStats(b, validSubs)
	if aCount != bCount {
		return aCount > bCount
	}

	aVal := a.Value(allSubs...)
	bVal := b.Value(allSubs...)
	if !aVal.Equal(bVal) {
		return aVal.GreaterThan(bVal)
	}
	return false
}

func countMatchingStats(t topping.Topping, flavors []substat.Flavor) int {
	count := 0
	for _, s := range t.Stats {
		if containsFlavor(flavors, s.Flavor) {
			count++
		}
	}
	return count
}

func containsFlavor(list []substat.Flavor, f substat.Flavor) bool {
	for _, x := range list {
		if x == f {
			return true
		}
	}
	return false
}

// dfs is the recursion described in spec.md §4.5: prune once per frame,
// accept a complete prefix as a candidate incumbent, or branch over the
// remaining pool through the Cutter's dominance planes.
func (o *Optimizer) dfs(ctx context.Context, st *searchState, prefix []topping.Topping, startIdx int) pruneResult {
	st.nodes++
	if st.nodes%o.cfg.progressEvery == 0 {
		o.publishProgress(st)
	}

	if st.channel != nil && st.channel.Cancelled() {
		st.cancelled = true
		return pruneResult{}
	}
	select {
	case <-ctx.Done():
		st.cancelled = true
		return pruneResult{}
	default:
	}

	tail := st.pool[startIdx:]
	pr := o.prune(st, prefix, tail)
	if pr.Failures != FailureNone {
		return pr
	}

	if len(prefix) == 5 {
		o.considerIncumbent(st, prefix)
		return pruneResult{}
	}

	st.cutter.Push()
	for i := startIdx; i < len(st.pool); i++ {
		if st.cancelled {
			break
		}
		t := st.pool[i]
		if st.cutter.CutTopping(t) {
			continue
		}
		child := o.dfs(ctx, st, appendTopping(prefix, t), i+1)
		st.cutter.UpdatePlanes(t, child.Failures, child.FloorSubstats, child.CeilSubstats)
	}
	st.cutter.Pop()
	return pruneResult{}
}

func appendTopping(prefix []topping.Topping, t topping.Topping) []topping.Topping {
	next := make([]topping.Topping, len(prefix)+1)
	copy(next, prefix)
	next[len(prefix)] = t
	return next
}

func (o *Optimizer) publishProgress(st *searchState) {
	if st.channel == nil {
		return
	}
	status := "searching"
	if st.haveIncumbent {
		status = fmt.Sprintf("best %s", st.incumbentVal.StringFixed(1))
	}
	st.channel.Publish(fmt.Sprintf("%s: %s (%d nodes)", o.reqs.Name, status, st.nodes))
}

// considerIncumbent validates a complete prefix against every canonical
// predicate exactly (the floor/ceiling pruning above only ever proves
// bounds, never a final leaf's exact feasibility) and, if it strictly
// improves on the current incumbent, replaces it. Ties keep the first
// incumbent found, matching the deterministic tie-break spec.md §5
// requires.
func (o *Optimizer) considerIncumbent(st *searchState, prefix []topping.Topping) {
	set, err := topping.NewSet(prefix)
	if err != nil {
		return
	}
	for _, p := range o.reqs.Valid {
		if !predicateHolds(set.Value(p.Substat), p) {
			return
		}
	}

	val := o.reqs.Objective.Value(set)
	if !st.haveIncumbent || val.GreaterThan(st.incumbentVal) {
		st.haveIncumbent = true
		st.incumbent = set
		st.incumbentVal = val
	}
}

// predicateHolds checks a realized (post-Fuzz) predicate, whose Op is
// always OpGE or OpLE, against an observed value.
func predicateHolds(v decimal.Decimal, p validity.Predicate) bool {
	switch p.Op {
	case validity.OpGE:
		return v.GreaterThanOrEqual(p.Target)
	case validity.OpLE:
		return v.LessThanOrEqual(p.Target)
	}
	return false
}

package validity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crk-toppings/optimizer/pkg/substat"
)

func noSolved(string, substat.Flavor) (decimal.Decimal, bool) { return decimal.Zero, false }

func TestParseSimpleBothOrders(t *testing.T) {
	forward, err := Parse("Cooldown >= 10")
	require.NoError(t, err)
	reverse, err := Parse("10 <= Cooldown")
	require.NoError(t, err)

	fp, err := forward.Convert(noSolved)
	require.NoError(t, err)
	rp, err := reverse.Convert(noSolved)
	require.NoError(t, err)

	require.Len(t, fp, 1)
	require.Len(t, rp, 1)
	assert.Equal(t, fp[0], rp[0])
	assert.Equal(t, substat.FlavorCD, fp[0].Substat)
	assert.Equal(t, OpGE, fp[0].Op)
	assert.True(t, fp[0].Target.Equal(decimal.NewFromInt(10)))
}

func TestParseRangeBothDirections(t *testing.T) {
	less, err := Parse("10 <= CRIT% <= 60")
	require.NoError(t, err)
	more, err := Parse("60 >= CRIT% >= 10")
	require.NoError(t, err)

	lp, err := less.Convert(noSolved)
	require.NoError(t, err)
	mp, err := more.Convert(noSolved)
	require.NoError(t, err)

	require.Len(t, lp, 2)
	require.Len(t, mp, 2)
	assert.ElementsMatch(t, lp, mp)
}

func TestParseEqualityNonZero(t *testing.T) {
	req, err := Parse("ATK == 9")
	require.NoError(t, err)
	preds, err := req.Convert(noSolved)
	require.NoError(t, err)
	require.Len(t, preds, 2)
	assert.ElementsMatch(t, preds, []Predicate{
		{Substat: substat.FlavorATK, Op: OpGE, Target: decimal.NewFromInt(9)},
		{Substat: substat.FlavorATK, Op: OpLE, Target: decimal.NewFromInt(9)},
	})
}

func TestParseEqualityZeroCollapses(t *testing.T) {
	req, err := Parse("ATK = 0")
	require.NoError(t, err)
	preds, err := req.Convert(noSolved)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, OpLE, preds[0].Op)
	assert.True(t, preds[0].Target.IsZero())
}

func TestParseRelativeResolvesAgainstSolved(t *testing.T) {
	req, err := Parse("Cooldown below Rye")
	require.NoError(t, err)

	solved := func(cookie string, s substat.Flavor) (decimal.Decimal, bool) {
		if cookie == "Rye" && s == substat.FlavorCD {
			return decimal.NewFromInt(14), true
		}
		return decimal.Zero, false
	}
	preds, err := req.Convert(solved)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, OpLT, preds[0].Op)
	assert.True(t, preds[0].Target.Equal(decimal.NewFromInt(14)))
}

func TestParseRelativeUnsolvedCookieErrors(t *testing.T) {
	req, err := Parse("Cooldown below Rye")
	require.NoError(t, err)
	_, err = req.Convert(noSolved)
	assert.Error(t, err)
}

func TestParseUnparseable(t *testing.T) {
	_, err := Parse("this is not a requirement")
	assert.Error(t, err)
}

func TestFuzzWidensStrictInequalities(t *testing.T) {
	gt := Predicate{Substat: substat.FlavorCD, Op: OpGT, Target: decimal.NewFromInt(10)}
	fuzzed := gt.Fuzz()
	assert.Equal(t, OpGE, fuzzed.Op)
	assert.True(t, fuzzed.Target.Equal(decimal.NewFromFloat(10.1)))

	lt := Predicate{Substat: substat.FlavorCD, Op: OpLT, Target: decimal.NewFromInt(14)}
	fuzzedLT := lt.Fuzz()
	assert.Equal(t, OpLE, fuzzedLT.Op)
	assert.True(t, fuzzedLT.Target.Equal(decimal.NewFromFloat(13.9)))
}

func TestFuzzClampsNegativeToZero(t *testing.T) {
	lt := Predicate{Substat: substat.FlavorCD, Op: OpLT, Target: decimal.NewFromFloat(0.05)}
	fuzzed := lt.Fuzz()
	assert.True(t, fuzzed.Target.IsZero())
}

func TestFuzzIdempotentOnAlreadyCanonical(t *testing.T) {
	ge := Predicate{Substat: substat.FlavorCD, Op: OpGE, Target: decimal.NewFromInt(10)}
	assert.Equal(t, ge, ge.Fuzz())
}

func TestCollapseKeepsTightest(t *testing.T) {
	preds := []Predicate{
		{Substat: substat.FlavorATK, Op: OpGE, Target: decimal.NewFromInt(5)},
		{Substat: substat.FlavorATK, Op: OpGE, Target: decimal.NewFromInt(9)},
		{Substat: substat.FlavorCrit, Op: OpLE, Target: decimal.NewFromInt(60)},
		{Substat: substat.FlavorCrit, Op: OpLE, Target: decimal.NewFromInt(40)},
	}
	collapsed := Collapse(preds)
	require.Len(t, collapsed, 2)

	for _, p := range collapsed {
		switch p.Substat {
		case substat.FlavorATK:
			assert.True(t, p.Target.Equal(decimal.NewFromInt(9)))
		case substat.FlavorCrit:
			assert.True(t, p.Target.Equal(decimal.NewFromInt(40)))
		}
	}
}

func TestCollapseIdempotent(t *testing.T) {
	preds := []Predicate{
		{Substat: substat.FlavorATK, Op: OpGE, Target: decimal.NewFromInt(9)},
		{Substat: substat.FlavorCrit, Op: OpLE, Target: decimal.NewFromInt(40)},
	}
	once := Collapse(preds)
	twice := Collapse(once)
	assert.Equal(t, once, twice)
}

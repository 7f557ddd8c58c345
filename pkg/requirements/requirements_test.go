package requirements

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crk-toppings/optimizer/pkg/objective"
	"github.com/crk-toppings/optimizer/pkg/substat"
	"github.com/crk-toppings/optimizer/pkg/validity"
)

func noSolved(string, substat.Flavor) (decimal.Decimal, bool) { return decimal.Zero, false }

func TestLoadSingleObjective(t *testing.T) {
	doc := []byte(`
cookies:
  - name: Rye
    requirements:
      - "Cooldown >= 10"
      - max: Cooldown
`)
	set, err := Load(doc)
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, "Rye", set[0].Name)
	assert.Equal(t, objective.KindSingle, set[0].Objective.Kind)
}

func TestLoadRejectsMultipleObjectives(t *testing.T) {
	doc := []byte(`
cookies:
  - name: Rye
    requirements:
      - max: Cooldown
      - max: ATK
`)
	_, err := Load(doc)
	assert.Error(t, err)
}

func TestLoadRejectsMissingObjective(t *testing.T) {
	doc := []byte(`
cookies:
  - name: Rye
    requirements:
      - "Cooldown >= 10"
`)
	_, err := Load(doc)
	assert.Error(t, err)
}

func TestLoadRejectsMoreThanTenCookies(t *testing.T) {
	doc := "cookies:\n"
	for i := 0; i < 11; i++ {
		doc += "  - name: C\n    requirements:\n      - max: ATK\n"
	}
	_, err := Load([]byte(doc))
	assert.Error(t, err)
}

func TestLoadRejectsRelativeToUnseenCookie(t *testing.T) {
	doc := []byte(`
cookies:
  - name: Rye
    requirements:
      - "Cooldown below Financier"
      - max: Cooldown
`)
	_, err := Load(doc)
	assert.Error(t, err)
}

func TestLoadAcceptsRelativeToEarlierCookie(t *testing.T) {
	doc := []byte(`
cookies:
  - name: Financier
    requirements:
      - max: Cooldown
  - name: Rye
    requirements:
      - "Cooldown below Financier"
      - max: ATK
`)
	set, err := Load(doc)
	require.NoError(t, err)
	require.Len(t, set, 2)
}

func TestLoadComboObjectiveRequiresSubstats(t *testing.T) {
	doc := []byte(`
cookies:
  - name: Rye
    requirements:
      - max: Combo
`)
	_, err := Load(doc)
	assert.Error(t, err)
}

func TestLoadComboObjective(t *testing.T) {
	doc := []byte(`
cookies:
  - name: Rye
    requirements:
      - max: Combo
        substats: "ATK, CRIT%"
`)
	set, err := Load(doc)
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, objective.KindCombo, set[0].Objective.Kind)
	assert.Equal(t, []substat.Flavor{substat.FlavorATK, substat.FlavorCrit}, set[0].Objective.ComboSubstats)
}

func TestLoadEDMGObjectiveUsesDefaultModifiers(t *testing.T) {
	doc := []byte(`
cookies:
  - name: Rye
    requirements:
      - max: E[DMG]
`)
	set, err := Load(doc)
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, objective.KindEDMG, set[0].Objective.Kind)
	// Base ATK 100 from DefaultModifiers, expressed as a fraction.
	assert.True(t, set[0].Objective.BaseATK.Equal(decimal.NewFromInt(1)))
}

func TestLoadModifiersSectionAddsToBaseline(t *testing.T) {
	doc := []byte(`
modifiers:
  ATK:
    - source: Soul Stone
      value: 20
cookies:
  - name: Rye
    requirements:
      - max: E[DMG]
`)
	set, err := Load(doc)
	require.NoError(t, err)
	// Base 100 + override 20 = 120 -> 1.20 as a fraction.
	assert.True(t, set[0].Objective.BaseATK.Equal(decimal.NewFromFloat(1.20)))
}

func TestLoadLeaderboardWeight(t *testing.T) {
	doc := []byte(`
leaderboard:
  Rye: 5
cookies:
  - name: Rye
    requirements:
      - max: ATK
`)
	set, err := Load(doc)
	require.NoError(t, err)
	require.NotNil(t, set[0].Weight)
	assert.Equal(t, 5, *set[0].Weight)
}

func TestLoadResonanceWhitelistAlwaysIncludesNormal(t *testing.T) {
	doc := []byte(`
cookies:
  - name: Rye
    resonant:
      - Moonkissed
    requirements:
      - max: ATK
`)
	set, err := Load(doc)
	require.NoError(t, err)
	assert.Contains(t, set[0].Resonances, substat.ResonanceNormal)
	assert.Contains(t, set[0].Resonances, substat.ResonanceMoonkissed)
}

func TestRealizeCanonicalizesAndIsIdempotent(t *testing.T) {
	doc := []byte(`
cookies:
  - name: Rye
    requirements:
      - "Cooldown > 10"
      - max: ATK
`)
	set, err := Load(doc)
	require.NoError(t, err)

	require.NoError(t, set[0].Realize(noSolved))
	first := append([]validity.Predicate(nil), set[0].Valid...)

	require.NoError(t, set[0].Realize(noSolved))
	assert.Equal(t, first, set[0].Valid)

	for _, p := range set[0].Valid {
		assert.True(t, p.Op == validity.OpGE || p.Op == validity.OpLE)
	}
	// "> 10" fuzzes to ">= 10.1" on one pass and must not drift further on
	// a second.
	assert.True(t, first[0].Target.Equal(decimal.NewFromFloat(10.1)))
}

func TestBestPossibleSetEffectRequiresDistinctFlavorsForStacking(t *testing.T) {
	// ATK has a 3-required tier (bonus 3) and HP has a 2-required tier
	// (bonus 3); since they are distinct flavors, stacking the 2-of and
	// 3-of tiers is legitimate (spec.md §9's implicit-precondition flag).
	// nonMatchCount=1 disqualifies each flavor's 5-of tier (it needs all 5
	// slots to itself), isolating the stacked 2-and-3 path.
	bonus := BestPossibleSetEffect(nil, []substat.Flavor{substat.FlavorATK, substat.FlavorHP}, 1)
	assert.True(t, bonus.Equal(decimal.NewFromInt(6)))
}

func TestBestPossibleSetEffectSameFlavorDoesNotDoubleStack(t *testing.T) {
	// A single flavor's own 2-of and 5-of tiers must not be summed as if
	// they came from two different flavors; the max of the single
	// flavor's own tiers applies instead.
	bonus := BestPossibleSetEffect(nil, []substat.Flavor{substat.FlavorHP}, 0)
	_, five := substat.Table[substat.FlavorHP].SetEffect(5)
	assert.True(t, bonus.Equal(five))
}

func TestFloorReqsCeilingReqsZeroReqsPartition(t *testing.T) {
	doc := []byte(`
cookies:
  - name: Rye
    requirements:
      - "Cooldown >= 10"
      - "CRIT% <= 60"
      - "HP == 0"
      - max: ATK
`)
	set, err := Load(doc)
	require.NoError(t, err)
	require.NoError(t, set[0].Realize(noSolved))

	require.Len(t, set[0].FloorReqs(), 1)
	assert.Equal(t, substat.FlavorCD, set[0].FloorReqs()[0].Substat)

	require.Len(t, set[0].CeilingReqs(), 1)
	assert.Equal(t, substat.FlavorCrit, set[0].CeilingReqs()[0].Substat)

	require.Len(t, set[0].ZeroReqs(), 1)
	assert.Equal(t, substat.FlavorHP, set[0].ZeroReqs()[0].Substat)
}

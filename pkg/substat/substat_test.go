package substat

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlavorRoundTrip(t *testing.T) {
	for _, f := range AllFlavors() {
		t.Run(f.String(), func(t *testing.T) {
			got, err := ParseFlavor(f.String())
			require.NoError(t, err)
			assert.Equal(t, f, got)
		})
	}
}

func TestParseFlavorUnknown(t *testing.T) {
	_, err := ParseFlavor("not a flavor")
	assert.Error(t, err)
}

func TestParseResonanceRoundTrip(t *testing.T) {
	for r := Resonance(0); int(r) < resonanceCount; r++ {
		got, err := ParseResonance(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
}

func TestSetEffectMonotoneInCount(t *testing.T) {
	for _, f := range AllFlavors() {
		info := Table[f]
		prevBonus := decimal.Zero
		prevCount := 0
		for count := 0; count <= 5; count++ {
			tier, bonus := info.SetEffect(count)
			assert.GreaterOrEqualf(t, tier, prevCount, "%s: tier should not decrease with count", f)
			assert.Truef(t, bonus.GreaterThanOrEqual(prevBonus), "%s: bonus should not decrease with count", f)
			prevBonus, prevCount = bonus, tier
		}
	}
}

func TestSetEffectDefaultsToZero(t *testing.T) {
	for _, f := range AllFlavors() {
		tier, bonus := Table[f].SetEffect(0)
		assert.Equal(t, 0, tier)
		assert.True(t, bonus.IsZero())
	}
}

func TestDisplayULPIsOneTenth(t *testing.T) {
	for _, f := range AllFlavors() {
		assert.True(t, DisplayULP(f).Equal(decimal.NewFromFloat(0.1)))
	}
}

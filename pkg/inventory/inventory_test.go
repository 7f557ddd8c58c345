package inventory

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crk-toppings/optimizer/pkg/substat"
	"github.com/crk-toppings/optimizer/pkg/topping"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestReadParsesMainAndSubStats(t *testing.T) {
	csv := "ATK,ATK,9.0,CRIT%,3.0,Normal\n"
	toppings, err := Read(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, toppings, 1)

	got := toppings[0]
	assert.Equal(t, substat.FlavorATK, got.Flavor)
	require.Len(t, got.Stats, 2)
	assert.Equal(t, substat.FlavorATK, got.Stats[0].Flavor)
	assert.Equal(t, substat.FlavorCrit, got.Stats[1].Flavor)
	assert.Equal(t, substat.ResonanceNormal, got.Resonance)
}

func TestReadRejectsUnknownFlavor(t *testing.T) {
	_, err := Read(strings.NewReader("NotAFlavor,NotAFlavor,9.0,Normal\n"))
	assert.Error(t, err)
}

func TestReadRejectsMismatchedLeadingFlavor(t *testing.T) {
	_, err := Read(strings.NewReader("ATK,CRIT%,3.0,Normal\n"))
	assert.Error(t, err)
}

func TestReadRejectsMalformedDecimal(t *testing.T) {
	_, err := Read(strings.NewReader("ATK,ATK,nine,Normal\n"))
	assert.Error(t, err)
}

// (Round-trip) read(write(T)) == T as multisets (spec.md §8).
func TestRoundTrip(t *testing.T) {
	original := []topping.Topping{
		topping.New(
			topping.Stat{Flavor: substat.FlavorATK, Value: d("9.0")},
			[]topping.Stat{{Flavor: substat.FlavorCrit, Value: d("3.0")}},
			substat.ResonanceNormal,
		),
		topping.New(
			topping.Stat{Flavor: substat.FlavorDMGRes, Value: d("4.1")},
			nil,
			substat.ResonanceMoonkissed,
		),
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, original))

	roundTripped, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, roundTripped, len(original))

	for i := range original {
		assertToppingsEqual(t, original[i], roundTripped[i])
	}
}

func assertToppingsEqual(t *testing.T, a, b topping.Topping) {
	t.Helper()
	assert.Equal(t, a.Flavor, b.Flavor)
	assert.Equal(t, a.Resonance, b.Resonance)
	require.Len(t, b.Stats, len(a.Stats))
	for i := range a.Stats {
		assert.Equal(t, a.Stats[i].Flavor, b.Stats[i].Flavor)
		assert.True(t, a.Stats[i].Value.Equal(b.Stats[i].Value))
	}
}

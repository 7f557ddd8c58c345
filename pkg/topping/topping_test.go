package topping

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crk-toppings/optimizer/pkg/substat"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func atkTopping(main string, subs ...Stat) Topping {
	return New(Stat{Flavor: substat.FlavorATK, Value: d(main)}, subs, substat.ResonanceNormal)
}

func TestValidateWellFormed(t *testing.T) {
	cases := []struct {
		name string
		t    Topping
		want bool
	}{
		{
			name: "main stat at ceiling, no subs",
			t:    atkTopping("9"),
			want: true,
		},
		{
			name: "main stat over ceiling",
			t:    atkTopping("9.1"),
			want: false,
		},
		{
			name: "negative main stat",
			t:    atkTopping("-1"),
			want: false,
		},
		{
			name: "sub-stat out of range",
			t:    atkTopping("6", Stat{Flavor: substat.FlavorCrit, Value: d("5")}),
			want: false,
		},
		{
			name: "sub-stat in range",
			t:    atkTopping("6", Stat{Flavor: substat.FlavorCrit, Value: d("3")}),
			want: true,
		},
		{
			name: "duplicate sub-stat flavors",
			t: atkTopping("6",
				Stat{Flavor: substat.FlavorCrit, Value: d("2")},
				Stat{Flavor: substat.FlavorCrit, Value: d("3")},
			),
			want: false,
		},
		{
			name: "three distinct sub-stats",
			t: atkTopping("6",
				Stat{Flavor: substat.FlavorCrit, Value: d("2")},
				Stat{Flavor: substat.FlavorHP, Value: d("2")},
				Stat{Flavor: substat.FlavorDef, Value: d("2")},
			),
			want: true,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.t.Validate())
		})
	}
}

func TestSetEffectTierSchedule(t *testing.T) {
	five := make([]Topping, 5)
	for i := range five {
		five[i] = atkTopping("9")
	}
	set, err := NewSet(five)
	require.NoError(t, err)

	count, bonus := set.SetEffect(substat.FlavorATK)
	assert.Equal(t, 5, count)
	assert.True(t, bonus.Equal(d("8")))
}

func TestValueIsRawPlusSetBonus(t *testing.T) {
	five := make([]Topping, 5)
	for i := range five {
		five[i] = atkTopping("9")
	}
	set, err := NewSet(five)
	require.NoError(t, err)

	assert.True(t, set.Raw(substat.FlavorATK).Equal(d("45")))
	assert.True(t, set.Value(substat.FlavorATK).Equal(d("53")))
}

func TestNewSetRequiresExactlyFive(t *testing.T) {
	_, err := NewSet([]Topping{atkTopping("9")})
	assert.Error(t, err)
}

func TestContains(t *testing.T) {
	a := atkTopping("9")
	b := atkTopping("8")
	set, err := NewSet([]Topping{a, a, a, a, b})
	require.NoError(t, err)

	assert.True(t, set.Contains(a))
	assert.True(t, set.Contains(b))
	assert.False(t, set.Contains(atkTopping("7")))
}

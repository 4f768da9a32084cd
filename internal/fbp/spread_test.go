package fbp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-6

func TestParseFuelType(t *testing.T) {
	for _, ft := range FuelTypes() {
		got, err := ParseFuelType(ft.String())
		require.NoError(t, err)
		assert.Equal(t, ft, got)
	}

	t.Run("unknown code", func(t *testing.T) {
		_, err := ParseFuelType("X9")
		require.ErrorIs(t, err, ErrUnknownFuelType)
		assert.Contains(t, err.Error(), "X9")
	})

	t.Run("case sensitive", func(t *testing.T) {
		_, err := ParseFuelType("c2")
		require.ErrorIs(t, err, ErrUnknownFuelType)
		_, err = ParseFuelType("O1a")
		require.ErrorIs(t, err, ErrUnknownFuelType)
	})
}

func TestLookup(t *testing.T) {
	c, err := Lookup("C2")
	require.NoError(t, err)
	assert.Equal(t, 110.0, c.A)
	assert.Equal(t, 0.0282, c.B)
	assert.Equal(t, 1.5, c.C0)
	assert.Equal(t, 64.0, c.BUIo)

	_, err = Lookup("X9")
	require.ErrorIs(t, err, ErrUnknownFuelType)
}

func TestFuelTypes_Enumeration(t *testing.T) {
	fts := FuelTypes()
	require.Len(t, fts, 17)
	assert.Equal(t, "C1", fts[0].String())
	assert.Equal(t, "O1B", fts[16].String())
	assert.False(t, FuelType(17).Valid())
	assert.Equal(t, "FuelType(17)", FuelType(17).String())
}

func TestInvalidFuelTypePanics(t *testing.T) {
	bad := FuelType(17)
	require.False(t, bad.Valid())

	assert.Panics(t, func() { bad.Spread(SpreadInput{ISI: 10, BUI: 50}) })
	assert.Panics(t, func() { InitialRateOfSpread(bad, 10, 0, 0, 0) })
	assert.Panics(t, func() { BuildupEffect(bad, 50) })
	assert.Panics(t, func() { Acceleration(bad, 0.5) })
	assert.Panics(t, func() { CrownFuelConsumption(bad, 0.8, 0.5, 0, 0) })
}

func TestInitialRateOfSpread_PowerLaw(t *testing.T) {
	// Reference values at ISI=10 from a·(1−e^(−b·ISI))^c0 with the
	// published table 6 coefficients.
	want := map[FuelType]float64{
		C1: 3.2310525881,
		C2: 13.3989321582,
		C3: 5.0697416539,
		C4: 14.0794753787,
		C5: 1.9040073338,
		C7: 3.1096854131,
		D1: 2.4146525100,
		S1: 12.8196930934,
		S2: 6.8670521146,
		S3: 8.7752371629,
	}
	for ft, rsi := range want {
		t.Run(ft.String(), func(t *testing.T) {
			assert.InDelta(t, rsi, InitialRateOfSpread(ft, 10, 0, 0, 0), tolerance)
		})
	}
}

func TestInitialRateOfSpread_ZeroISI(t *testing.T) {
	for _, ft := range FuelTypes() {
		assert.Zero(t, InitialRateOfSpread(ft, 0, 50, 50, 80), ft.String())
	}
}

func TestInitialRateOfSpread_Mixedwood(t *testing.T) {
	const isi = 10.0
	c2 := InitialRateOfSpread(C2, isi, 0, 0, 0)
	d1 := InitialRateOfSpread(D1, isi, 0, 0, 0)

	t.Run("M1 and M2 at 100 percent conifer equal C2", func(t *testing.T) {
		assert.InDelta(t, c2, InitialRateOfSpread(M1, isi, 100, 0, 0), tolerance)
		assert.InDelta(t, c2, InitialRateOfSpread(M2, isi, 100, 0, 0), tolerance)
	})

	t.Run("M1 at 0 percent conifer equals D1", func(t *testing.T) {
		assert.InDelta(t, d1, InitialRateOfSpread(M1, isi, 0, 0, 0), tolerance)
	})

	t.Run("M2 at 0 percent conifer damps D1 to 20 percent", func(t *testing.T) {
		assert.InDelta(t, 0.2*d1, InitialRateOfSpread(M2, isi, 0, 0, 0), tolerance)
	})

	t.Run("M1 and M2 blend", func(t *testing.T) {
		assert.InDelta(t, 7.906792334073039, InitialRateOfSpread(M1, isi, 50, 0, 0), tolerance)
		assert.InDelta(t, 6.940931330085534, InitialRateOfSpread(M2, isi, 50, 0, 0), tolerance)
	})

	t.Run("M3 and M4 at 100 percent dead fir equal own power law", func(t *testing.T) {
		m3 := M3.Coefficients()
		m4 := M4.Coefficients()
		assert.InDelta(t, m3.A*math.Pow(1-math.Exp(-m3.B*isi), m3.C0), InitialRateOfSpread(M3, isi, 0, 100, 0), tolerance)
		assert.InDelta(t, m4.A*math.Pow(1-math.Exp(-m4.B*isi), m4.C0), InitialRateOfSpread(M4, isi, 0, 100, 0), tolerance)
	})

	t.Run("M3 and M4 at 0 percent dead fir", func(t *testing.T) {
		assert.InDelta(t, d1, InitialRateOfSpread(M3, isi, 0, 0, 0), tolerance)
		assert.InDelta(t, 0.2*d1, InitialRateOfSpread(M4, isi, 0, 0, 0), tolerance)
	})

	t.Run("M3 and M4 blend", func(t *testing.T) {
		assert.InDelta(t, 19.79698635680483, InitialRateOfSpread(M3, isi, 50, 50, 0), tolerance)
		assert.InDelta(t, 10.03507928624857, InitialRateOfSpread(M4, isi, 50, 50, 0), tolerance)
	})

	t.Run("percent conifer does not affect M3", func(t *testing.T) {
		assert.Equal(t, InitialRateOfSpread(M3, isi, 0, 50, 0), InitialRateOfSpread(M3, isi, 100, 50, 0))
	})
}

func TestInitialRateOfSpread_Grass(t *testing.T) {
	got := InitialRateOfSpread(O1A, 10, 0, 0, 80)
	assert.InDelta(t, 17.90613918225403, got, tolerance)
	assert.Zero(t, InitialRateOfSpread(O1B, 10, 0, 0, 0), "uncured grass does not spread")
}

func TestInitialRateOfSpread_C6(t *testing.T) {
	assert.InDelta(t, 5.009541250286669, InitialRateOfSpread(C6, 10, 0, 0, 0), tolerance)
	assert.Equal(t, IntermediateSurfaceRateOfSpreadC6(10), InitialRateOfSpread(C6, 10, 0, 0, 0))
}

func TestCuringFactor(t *testing.T) {
	assert.Zero(t, CuringFactor(0))
	assert.InDelta(t, 0.6, CuringFactor(80), tolerance)
	assert.InDelta(t, 0.176, CuringFactor(58.8), tolerance)

	t.Run("continuity at the knot", func(t *testing.T) {
		below := CuringFactor(math.Nextafter(58.8, 0))
		above := CuringFactor(58.8)
		// The exponential and linear forms agree to about 4.4e-4 at 58.8.
		assert.InDelta(t, above, below, 5e-4)
	})

	t.Run("monotonic", func(t *testing.T) {
		prev := CuringFactor(0)
		for cc := 1.0; cc <= 100; cc++ {
			cf := CuringFactor(cc)
			assert.GreaterOrEqual(t, cf, prev, "cc=%v", cc)
			prev = cf
		}
	})
}

func TestBuildupEffect(t *testing.T) {
	t.Run("one at reference BUI", func(t *testing.T) {
		for _, ft := range FuelTypes() {
			assert.InDelta(t, 1.0, BuildupEffect(ft, ft.Coefficients().BUIo), tolerance, ft.String())
		}
	})

	t.Run("grass has no buildup sensitivity", func(t *testing.T) {
		for _, bui := range []float64{1, 10, 50, 200} {
			assert.Equal(t, 1.0, BuildupEffect(O1A, bui))
			assert.Equal(t, 1.0, BuildupEffect(O1B, bui))
		}
	})

	t.Run("not applicable sentinel", func(t *testing.T) {
		assert.Equal(t, 1.0, BuildupEffect(C2, -1))
		assert.Equal(t, 1.0, BuildupEffect(C2, 0))
	})

	t.Run("NaN propagates", func(t *testing.T) {
		assert.True(t, math.IsNaN(BuildupEffect(C2, math.NaN())))
	})

	t.Run("reference values", func(t *testing.T) {
		assert.InDelta(t, 0.9249434818985973, BuildupEffect(C2, 50), tolerance)
		assert.InDelta(t, 1.0206980611884693, BuildupEffect(C1, 100), tolerance)
	})

	t.Run("increases with BUI", func(t *testing.T) {
		assert.Less(t, BuildupEffect(C3, 20), BuildupEffect(C3, 60))
		assert.Less(t, BuildupEffect(C3, 60), BuildupEffect(C3, 120))
	})
}

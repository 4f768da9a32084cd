package fbp

import "math"

// curingKnot is the degree of curing (%) where the grass curing function
// switches from its exponential to its linear form.
const curingKnot = 58.8

// spreadIndex maps a negative ISI to NaN so that every spread form
// propagates it regardless of the exponent.
func spreadIndex(isi float64) float64 {
	if isi < 0 {
		return math.NaN()
	}
	return isi
}

func (c Coefficients) powerLaw(isi float64) float64 {
	return c.A * math.Pow(1-math.Exp(-c.B*spreadIndex(isi)), c.C0)
}

// InitialRateOfSpread returns RSI (m/min) for a fuel type from the Initial
// Spread Index, before the buildup effect is applied (FCFDG 1992 eqs. 26–31).
//
// pc is the percent conifer (M1, M2), pdf the percent dead balsam fir
// (M3, M4) and cc the degree of grass curing (O1A, O1B); each is ignored by
// the other fuel types. For C6 it returns the intermediate surface rate of
// spread of the two-stage C6 model. A negative isi yields NaN.
//
// It panics if ft is not Valid.
func InitialRateOfSpread(ft FuelType, isi, pc, pdf, cc float64) float64 {
	f := &fuels[ft]
	switch f.model {
	case c6Model:
		return IntermediateSurfaceRateOfSpreadC6(isi)
	case mixedByConifer:
		// Sub-results are not floored; Spread floors the blended rate.
		conifer := fuels[C2].coef.powerLaw(isi)
		deciduous := fuels[D1].coef.powerLaw(isi)
		return pc/100*conifer + f.deadFactor*(100-pc)/100*deciduous
	case mixedByDeadFir:
		fir := f.coef.powerLaw(isi)
		deciduous := fuels[D1].coef.powerLaw(isi)
		return pdf/100*fir + f.deadFactor*(1-pdf/100)*deciduous
	case grassModel:
		return f.coef.powerLaw(isi) * CuringFactor(cc)
	default:
		return f.coef.powerLaw(isi)
	}
}

// CuringFactor returns the grass curing coefficient CF for a degree of
// curing cc in percent (eqs. 35a/35b).
func CuringFactor(cc float64) float64 {
	if cc < curingKnot {
		return 0.005 * (math.Exp(0.061*cc) - 1)
	}
	return 0.176 + 0.02*(cc-curingKnot)
}

// BuildupEffect returns the multiplier applied to RSI to account for fuel
// availability (eq. 54). It is 1 at the fuel type's reference BUI, for a
// non-positive BUI (the "not applicable" sentinel), and for the grass
// types, which have no buildup sensitivity. A NaN BUI yields NaN.
//
// It panics if ft is not Valid.
func BuildupEffect(ft FuelType, bui float64) float64 {
	c := fuels[ft].coef
	if math.IsNaN(bui) {
		return bui
	}
	if bui > 0 && c.BUIo > 0 {
		return math.Exp(50 * math.Log(c.Q) * (1/bui - 1/c.BUIo))
	}
	return 1
}

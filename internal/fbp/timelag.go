package fbp

import "math"

// steadyAlpha is the acceleration coefficient for point-source fires in
// open or non-crowning fuels (eq. 70).
const steadyAlpha = 0.115

// Acceleration returns the acceleration coefficient alpha (1/min) for a
// fuel type. It falls as crown involvement grows for fuels that can crown
// (eq. 71).
//
// It panics if ft is not Valid.
func Acceleration(ft FuelType, cfb float64) float64 {
	if fuels[ft].steadyAccel {
		return steadyAlpha
	}
	return steadyAlpha - 18.8*math.Pow(cfb, 2.5)*math.Exp(-8*cfb)
}

func growth(ft FuelType, minutes, cfb float64) float64 {
	return 1 - math.Exp(-Acceleration(ft, cfb)*minutes)
}

// ROSAtTime scales an equilibrium rate of spread to its value a given number
// of minutes after ignition (eq. 70).
func ROSAtTime(ft FuelType, roseq, minutes, cfb float64) float64 {
	return roseq * growth(ft, minutes, cfb)
}

// LBAtTime scales a length-to-breadth ratio to its value a given number of
// minutes after ignition (eq. 81).
func LBAtTime(ft FuelType, lb, minutes, cfb float64) float64 {
	return (lb-1)*growth(ft, minutes, cfb) + 1
}

// RateOfSpreadAtTime is the vector form of ROSAtTime.
func RateOfSpreadAtTime(codes []string, roseq, minutes, cfb []float64) ([]float64, error) {
	return atTime(codes, roseq, minutes, cfb, ROSAtTime)
}

// LengthToBreadthAtTime is the vector form of LBAtTime.
func LengthToBreadthAtTime(codes []string, lb, minutes, cfb []float64) ([]float64, error) {
	return atTime(codes, lb, minutes, cfb, LBAtTime)
}

func atTime(codes []string, v, minutes, cfb []float64, f func(FuelType, float64, float64, float64) float64) ([]float64, error) {
	n, err := sameLength(len(codes), len(v), len(minutes), len(cfb))
	if err != nil {
		return nil, err
	}
	fts, ok, ftErr := parseAll(codes)
	out := make([]float64, n)
	for i := range out {
		if !ok[i] {
			out[i] = math.NaN()
			continue
		}
		out[i] = f(fts[i], v[i], minutes[i], cfb[i])
	}
	return out, ftErr
}

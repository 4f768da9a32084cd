package fbp

import "math"

const (
	// cfbRate is the crown fraction burned growth constant (eq. 58).
	cfbRate = 0.23

	// fmeAvg is the average foliar moisture effect used to normalise the
	// C6 crown fire spread rate (eq. 61).
	fmeAvg = 0.778

	// unreachableRSO stands in for the critical surface spread rate when
	// there is no surface fuel to carry a fire into the crown.
	unreachableRSO = math.MaxFloat64
)

// CriticalSurfaceIntensity returns CSI (kW/m), the surface fire intensity
// needed to ignite the crown (eq. 56). A crown base height of zero means no
// crown separation and gives 0.
func CriticalSurfaceIntensity(fmc, cbh float64) float64 {
	return 0.001 * math.Pow(cbh, 1.5) * math.Pow(460+25.9*fmc, 1.5)
}

// SurfaceFireRateOfSpread returns RSO (m/min), the surface spread rate at
// which the critical surface intensity is reached (eq. 57). Without surface
// fuel (sfc <= 0) crowning is unreachable and the result is math.MaxFloat64.
func SurfaceFireRateOfSpread(csi, sfc float64) float64 {
	if sfc <= 0 {
		return unreachableRSO
	}
	return csi / (300 * sfc)
}

// CrownFractionBurned returns CFB in [0,1] from the surface spread rate rss
// and the critical rate rso (eq. 58).
func CrownFractionBurned(rss, rso float64) float64 {
	if math.IsNaN(rss) || math.IsNaN(rso) {
		return math.NaN()
	}
	if rss <= rso {
		return 0
	}
	return math.Min(1, 1-math.Exp(-cfbRate*(rss-rso)))
}

// IntermediateSurfaceRateOfSpreadC6 returns the C6 surface spread rate before
// the buildup effect (eq. 62). A negative isi yields NaN.
func IntermediateSurfaceRateOfSpreadC6(isi float64) float64 {
	return 30 * math.Pow(1-math.Exp(-0.08*spreadIndex(isi)), 3.0)
}

// foliarMoistureEffect is eq. 61.
func foliarMoistureEffect(fmc float64) float64 {
	return math.Pow(1.5-0.00275*fmc, 4.0) / (460 + 25.9*fmc) * 1000
}

// CrownRateOfSpreadC6 returns RSC, the C6 crown fire spread rate (eq. 64).
// A negative isi yields NaN.
func CrownRateOfSpreadC6(isi, fmc float64) float64 {
	return 60 * (1 - math.Exp(-0.0497*spreadIndex(isi))) * foliarMoistureEffect(fmc) / fmeAvg
}

// SurfaceRateOfSpreadC6 applies the C6 buildup effect to rsi (eq. 63).
func SurfaceRateOfSpreadC6(rsi, bui float64) float64 {
	return rsi * BuildupEffect(C6, bui)
}

// CrownFractionBurnedC6 returns CFB for C6. The crown only burns when the
// crown fire would outrun the surface fire.
func CrownFractionBurnedC6(rsc, rss, rso float64) float64 {
	if math.IsNaN(rsc) {
		return rsc
	}
	if rsc <= rss {
		return 0
	}
	return CrownFractionBurned(rss, rso)
}

// RateOfSpreadC6 combines the C6 surface and crown spread rates (eq. 65).
func RateOfSpreadC6(rsc, rss, cfb float64) float64 {
	if math.IsNaN(rsc) {
		return rsc
	}
	if rsc > rss {
		return rss + cfb*(rsc-rss)
	}
	return rss
}

package fbp

import "math"

// MinRateOfSpread is the floor applied to every equilibrium rate of spread.
const MinRateOfSpread = 1e-6

// SpreadInput is one element of a rate of spread calculation.
type SpreadInput struct {
	ISI float64 // Initial Spread Index
	BUI float64 // Buildup Index; negative means not applicable
	FMC float64 // foliar moisture content (%)
	SFC float64 // surface fuel consumption (kg/m²)
	PC  float64 // percent conifer (M1, M2)
	PDF float64 // percent dead balsam fir (M3, M4)
	CC  float64 // degree of grass curing (%)
	CBH float64 // crown base height (m)
}

// Spread holds the equilibrium outputs for one element and the
// intermediates they were derived from. RSC is NaN except for C6.
type Spread struct {
	ROS float64
	CFB float64
	CSI float64
	RSO float64

	RSI float64
	RSS float64
	RSC float64
}

// Spread computes the equilibrium rate of spread and crown involvement for
// a single element. A NaN or negative ISI gives NaN ROS and CFB.
//
// It panics if ft is not Valid.
func (ft FuelType) Spread(in SpreadInput) Spread {
	var s Spread
	if fuels[ft].model == c6Model {
		s = c6Spread(in)
	} else {
		s = genericSpread(ft, in)
	}
	if s.ROS < MinRateOfSpread {
		s.ROS = MinRateOfSpread
	}
	return s
}

func genericSpread(ft FuelType, in SpreadInput) Spread {
	s := Spread{RSC: math.NaN()}
	s.RSI = InitialRateOfSpread(ft, in.ISI, in.PC, in.PDF, in.CC)
	s.CSI = CriticalSurfaceIntensity(in.FMC, in.CBH)
	s.RSO = SurfaceFireRateOfSpread(s.CSI, in.SFC)
	s.RSS = BuildupEffect(ft, in.BUI) * s.RSI
	s.CFB = CrownFractionBurned(s.RSS, s.RSO)
	s.ROS = s.RSS
	return s
}

func c6Spread(in SpreadInput) Spread {
	var s Spread
	s.CSI = CriticalSurfaceIntensity(in.FMC, in.CBH)
	s.RSO = SurfaceFireRateOfSpread(s.CSI, in.SFC)
	s.RSI = IntermediateSurfaceRateOfSpreadC6(in.ISI)
	s.RSC = CrownRateOfSpreadC6(in.ISI, in.FMC)
	s.RSS = SurfaceRateOfSpreadC6(s.RSI, in.BUI)
	s.CFB = CrownFractionBurnedC6(s.RSC, s.RSS, s.RSO)
	s.ROS = RateOfSpreadC6(s.RSC, s.RSS, s.CFB)
	return s
}

// SpreadInputs holds parallel input vectors, one entry per observation.
type SpreadInputs struct {
	FuelType []string
	ISI      []float64
	BUI      []float64
	FMC      []float64
	SFC      []float64
	PC       []float64
	PDF      []float64
	CC       []float64
	CBH      []float64
}

// Len returns the shared vector length, or ErrShapeMismatch.
func (in SpreadInputs) Len() (int, error) {
	return sameLength(len(in.FuelType), len(in.ISI), len(in.BUI), len(in.FMC),
		len(in.SFC), len(in.PC), len(in.PDF), len(in.CC), len(in.CBH))
}

func (in SpreadInputs) at(i int) SpreadInput {
	return SpreadInput{
		ISI: in.ISI[i], BUI: in.BUI[i], FMC: in.FMC[i], SFC: in.SFC[i],
		PC: in.PC[i], PDF: in.PDF[i], CC: in.CC[i], CBH: in.CBH[i],
	}
}

// SpreadResult holds the orchestrator's output vectors.
type SpreadResult struct {
	ROS []float64
	CFB []float64
	CSI []float64
	RSO []float64
}

func newSpreadResult(n int) SpreadResult {
	return SpreadResult{
		ROS: make([]float64, n),
		CFB: make([]float64, n),
		CSI: make([]float64, n),
		RSO: make([]float64, n),
	}
}

// RateOfSpreadExtended computes ROS, CFB, CSI and RSO element-wise.
//
// Fuel type codes are all resolved before any arithmetic. An unknown code
// leaves NaN in that element's outputs and is reported as a *FuelTypeError
// in the returned error; the other elements are still computed.
func RateOfSpreadExtended(in SpreadInputs) (SpreadResult, error) {
	n, err := in.Len()
	if err != nil {
		return SpreadResult{}, err
	}
	fts, ok, ftErr := parseAll(in.FuelType)

	out := newSpreadResult(n)
	for i := 0; i < n; i++ {
		if !ok[i] {
			out.ROS[i], out.CFB[i], out.CSI[i], out.RSO[i] = math.NaN(), math.NaN(), math.NaN(), math.NaN()
			continue
		}
		s := fts[i].Spread(in.at(i))
		out.ROS[i], out.CFB[i], out.CSI[i], out.RSO[i] = s.ROS, s.CFB, s.CSI, s.RSO
	}
	return out, ftErr
}

// RateOfSpread is RateOfSpreadExtended returning only ROS.
func RateOfSpread(in SpreadInputs) ([]float64, error) {
	out, err := RateOfSpreadExtended(in)
	return out.ROS, err
}

func sameLength(lengths ...int) (int, error) {
	if len(lengths) == 0 {
		return 0, nil
	}
	for _, l := range lengths[1:] {
		if l != lengths[0] {
			return 0, ErrShapeMismatch
		}
	}
	return lengths[0], nil
}

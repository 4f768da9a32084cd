package fbp

import "math"

const minSurfaceConsumption = 1e-6

// ConsumptionOption selects what TotalFuelConsumption returns.
type ConsumptionOption uint8

const (
	// TotalConsumption returns TFC = SFC + CFC.
	TotalConsumption ConsumptionOption = iota
	// CrownConsumption returns CFC only.
	CrownConsumption
)

// CrownFuelConsumption returns CFC (kg/m²), the crown fuel load consumed
// (eq. 66). Mixedwood types only consume the conifer share of the crown:
// percent conifer for M1/M2 and percent dead fir for M3/M4.
//
// It panics if ft is not Valid.
func CrownFuelConsumption(ft FuelType, cfl, cfb, pc, pdf float64) float64 {
	cfc := cfl * cfb
	switch fuels[ft].model {
	case mixedByConifer:
		return pc / 100 * cfc
	case mixedByDeadFir:
		return pdf / 100 * cfc
	}
	return cfc
}

// ConsumptionInputs holds parallel vectors for TotalFuelConsumption.
type ConsumptionInputs struct {
	FuelType []string
	CFL      []float64
	CFB      []float64
	SFC      []float64
	PC       []float64
	PDF      []float64
}

// TotalFuelConsumption returns TFC (or CFC when opt is CrownConsumption)
// element-wise. Unknown fuel types yield NaN and a *FuelTypeError.
func TotalFuelConsumption(in ConsumptionInputs, opt ConsumptionOption) ([]float64, error) {
	n, err := sameLength(len(in.FuelType), len(in.CFL), len(in.CFB), len(in.SFC), len(in.PC), len(in.PDF))
	if err != nil {
		return nil, err
	}
	fts, ok, ftErr := parseAll(in.FuelType)
	out := make([]float64, n)
	for i := range out {
		if !ok[i] {
			out[i] = math.NaN()
			continue
		}
		cfc := CrownFuelConsumption(fts[i], in.CFL[i], in.CFB[i], in.PC[i], in.PDF[i])
		if opt == CrownConsumption {
			out[i] = cfc
			continue
		}
		out[i] = in.SFC[i] + cfc
	}
	return out, ftErr
}

// SurfaceFuelConsumption returns SFC (kg/m²) from the fire weather indices
// (eqs. 9–25). gfl is the grass fuel load used by O1A/O1B. The result is
// floored just above zero so RSO stays finite.
func SurfaceFuelConsumption(ft FuelType, ffmc, bui, pc, gfl float64) float64 {
	var sfc float64
	switch ft {
	case C1:
		if ffmc > 84 {
			sfc = 0.75 + 0.75*math.Sqrt(1-math.Exp(-0.23*(ffmc-84)))
		} else {
			sfc = 0.75 - 0.75*math.Sqrt(1-math.Exp(-0.23*(84-ffmc)))
		}
	case C2, M3, M4:
		sfc = 5.0 * (1 - math.Exp(-0.0115*bui))
	case C3, C4:
		sfc = 5.0 * math.Pow(1-math.Exp(-0.0164*bui), 2.24)
	case C5, C6:
		sfc = 5.0 * math.Pow(1-math.Exp(-0.0149*bui), 2.48)
	case C7:
		if ffmc > 70 {
			sfc = 2 * (1 - math.Exp(-0.104*(ffmc-70)))
		}
		sfc += 1.5 * (1 - math.Exp(-0.0201*bui))
	case D1:
		sfc = 1.5 * (1 - math.Exp(-0.0183*bui))
	case M1, M2:
		sfc = pc/100*5.0*(1-math.Exp(-0.0115*bui)) + (100-pc)/100*1.5*(1-math.Exp(-0.0183*bui))
	case O1A, O1B:
		sfc = gfl
	case S1:
		sfc = 4.0*(1-math.Exp(-0.025*bui)) + 4.0*(1-math.Exp(-0.034*bui))
	case S2:
		sfc = 10.0*(1-math.Exp(-0.013*bui)) + 6.0*(1-math.Exp(-0.060*bui))
	case S3:
		sfc = 12.0*(1-math.Exp(-0.0166*bui)) + 20.0*(1-math.Exp(-0.0210*bui))
	}
	if sfc <= 0 {
		return minSurfaceConsumption
	}
	return sfc
}

// FireIntensity returns Byram's fire intensity (kW/m) for a fuel
// consumption fc (kg/m²) and spread rate ros (m/min) (eq. 69).
func FireIntensity(fc, ros float64) float64 {
	return 300 * fc * ros
}

// FireType classifies a fire by its crown fraction burned.
type FireType string

const (
	SurfaceFire           FireType = "surface"
	IntermittentCrownFire FireType = "intermittent_crown"
	CrownFire             FireType = "crown"
)

// ClassifyFireType maps CFB to a fire type: below 0.1 is a surface fire,
// below 0.9 an intermittent crown fire, otherwise a continuous crown fire.
// A NaN CFB has no fire type and yields the empty FireType.
func ClassifyFireType(cfb float64) FireType {
	switch {
	case math.IsNaN(cfb):
		return ""
	case cfb < 0.1:
		return SurfaceFire
	case cfb < 0.9:
		return IntermittentCrownFire
	default:
		return CrownFire
	}
}

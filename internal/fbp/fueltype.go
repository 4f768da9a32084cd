package fbp

import (
	"errors"
	"fmt"
)

// FuelType is one of the 17 FBP System fuel types.
type FuelType uint8

const (
	C1 FuelType = iota
	C2
	C3
	C4
	C5
	C6
	C7
	D1
	M1
	M2
	M3
	M4
	S1
	S2
	S3
	O1A
	O1B

	numFuelTypes
)

var (
	// ErrUnknownFuelType is returned for codes outside the FBP enumeration.
	ErrUnknownFuelType = errors.New("unknown fuel type")

	// ErrShapeMismatch is returned when the input vectors of one call differ in length.
	ErrShapeMismatch = errors.New("input vectors differ in length")
)

// FuelTypeError reports an unknown fuel type code at a vector position.
type FuelTypeError struct {
	Index int
	Code  string
}

func (e *FuelTypeError) Error() string {
	return fmt.Sprintf("element %d: %s %q", e.Index, ErrUnknownFuelType, e.Code)
}

func (e *FuelTypeError) Unwrap() error { return ErrUnknownFuelType }

// Coefficients holds the per-fuel-type constants of the FBP equations.
//
// A, B and C0 are the rate of spread coefficients (FCFDG 1992 table 6),
// BUIo and Q the buildup reference index and proportion (table 7), and
// CBH and CFL the default crown base height (m) and crown fuel load (kg/m²).
type Coefficients struct {
	A, B, C0 float64
	BUIo, Q  float64
	CBH, CFL float64
}

// spreadModel selects the equation form used for the initial rate of spread.
type spreadModel uint8

const (
	powerLaw spreadModel = iota
	c6Model
	mixedByConifer // M1, M2: blended on percent conifer
	mixedByDeadFir // M3, M4: blended on percent dead balsam fir
	grassModel
)

type fuel struct {
	code  string
	coef  Coefficients
	model spreadModel
	// deadFactor damps the D1 term of a mixedwood blend (0.2 for the
	// green-phase M2 and M4 types).
	deadFactor float64
	// steadyAccel marks fuels whose acceleration does not depend on CFB.
	steadyAccel bool
}

var fuels = [numFuelTypes]fuel{
	C1:  {code: "C1", coef: Coefficients{A: 90, B: 0.0649, C0: 4.5, BUIo: 72, Q: 0.9, CBH: 2, CFL: 0.75}, steadyAccel: true},
	C2:  {code: "C2", coef: Coefficients{A: 110, B: 0.0282, C0: 1.5, BUIo: 64, Q: 0.7, CBH: 3, CFL: 0.8}},
	C3:  {code: "C3", coef: Coefficients{A: 110, B: 0.0444, C0: 3.0, BUIo: 62, Q: 0.75, CBH: 8, CFL: 1.15}},
	C4:  {code: "C4", coef: Coefficients{A: 110, B: 0.0293, C0: 1.5, BUIo: 66, Q: 0.8, CBH: 4, CFL: 1.2}},
	C5:  {code: "C5", coef: Coefficients{A: 30, B: 0.0697, C0: 4.0, BUIo: 56, Q: 0.8, CBH: 18, CFL: 1.2}},
	C6:  {code: "C6", coef: Coefficients{A: 30, B: 0.0800, C0: 3.0, BUIo: 62, Q: 0.8, CBH: 7, CFL: 1.8}, model: c6Model},
	C7:  {code: "C7", coef: Coefficients{A: 45, B: 0.0305, C0: 2.0, BUIo: 106, Q: 0.85, CBH: 10, CFL: 0.5}},
	D1:  {code: "D1", coef: Coefficients{A: 30, B: 0.0232, C0: 1.6, BUIo: 32, Q: 0.9}, steadyAccel: true},
	M1:  {code: "M1", coef: Coefficients{BUIo: 50, Q: 0.8, CBH: 6, CFL: 0.8}, model: mixedByConifer, deadFactor: 1},
	M2:  {code: "M2", coef: Coefficients{BUIo: 50, Q: 0.8, CBH: 6, CFL: 0.8}, model: mixedByConifer, deadFactor: 0.2},
	M3:  {code: "M3", coef: Coefficients{A: 120, B: 0.0572, C0: 1.41, BUIo: 50, Q: 0.8, CBH: 6, CFL: 0.8}, model: mixedByDeadFir, deadFactor: 1},
	M4:  {code: "M4", coef: Coefficients{A: 100, B: 0.0404, C0: 1.48, BUIo: 50, Q: 0.8, CBH: 6, CFL: 0.8}, model: mixedByDeadFir, deadFactor: 0.2},
	S1:  {code: "S1", coef: Coefficients{A: 75, B: 0.0297, C0: 1.3, BUIo: 38, Q: 0.75}, steadyAccel: true},
	S2:  {code: "S2", coef: Coefficients{A: 40, B: 0.0438, C0: 1.7, BUIo: 63, Q: 0.75}, steadyAccel: true},
	S3:  {code: "S3", coef: Coefficients{A: 55, B: 0.0829, C0: 3.2, BUIo: 31, Q: 0.75}, steadyAccel: true},
	O1A: {code: "O1A", coef: Coefficients{A: 190, B: 0.0310, C0: 1.4, BUIo: 1, Q: 1.0}, model: grassModel, steadyAccel: true},
	O1B: {code: "O1B", coef: Coefficients{A: 250, B: 0.0350, C0: 1.7, BUIo: 1, Q: 1.0}, model: grassModel, steadyAccel: true},
}

var byCode = func() map[string]FuelType {
	m := make(map[string]FuelType, numFuelTypes)
	for i := range fuels {
		m[fuels[i].code] = FuelType(i)
	}
	return m
}()

// ParseFuelType maps a case-sensitive code such as "C2" or "O1A" to its FuelType.
func ParseFuelType(code string) (FuelType, error) {
	ft, ok := byCode[code]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownFuelType, code)
	}
	return ft, nil
}

// Lookup returns the coefficient record for a fuel type code.
func Lookup(code string) (Coefficients, error) {
	ft, err := ParseFuelType(code)
	if err != nil {
		return Coefficients{}, err
	}
	return ft.Coefficients(), nil
}

// FuelTypes returns every fuel type in table order.
func FuelTypes() []FuelType {
	out := make([]FuelType, numFuelTypes)
	for i := range out {
		out[i] = FuelType(i)
	}
	return out
}

// Valid reports whether ft is a member of the enumeration.
func (ft FuelType) Valid() bool { return ft < numFuelTypes }

func (ft FuelType) String() string {
	if !ft.Valid() {
		return fmt.Sprintf("FuelType(%d)", uint8(ft))
	}
	return fuels[ft].code
}

// Coefficients returns the constant record for ft. It panics if ft is not Valid.
func (ft FuelType) Coefficients() Coefficients { return fuels[ft].coef }

// IsMixedwood reports whether ft is one of M1–M4.
func (ft FuelType) IsMixedwood() bool {
	m := fuels[ft].model
	return m == mixedByConifer || m == mixedByDeadFir
}

// IsGrass reports whether ft is O1A or O1B.
func (ft FuelType) IsGrass() bool { return fuels[ft].model == grassModel }

// parseAll resolves every code up front so no arithmetic runs before the
// whole vector is classified. Unknown codes are reported per index.
func parseAll(codes []string) ([]FuelType, []bool, error) {
	fts := make([]FuelType, len(codes))
	ok := make([]bool, len(codes))
	var errs []error
	for i, code := range codes {
		ft, found := byCode[code]
		if !found {
			errs = append(errs, &FuelTypeError{Index: i, Code: code})
			continue
		}
		fts[i] = ft
		ok[i] = true
	}
	return fts, ok, errors.Join(errs...)
}

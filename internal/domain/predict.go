package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/fire-behavior-service/internal/fbp"
)

// ErrUndefinedSpread is returned for an observation whose inputs give no
// finite rate of spread or crown fraction burned.
var ErrUndefinedSpread = errors.New("undefined rate of spread")

// PredictionError reports an observation in a batch that could not be
// predicted. Index is its position in the batch passed to PredictBatch.
type PredictionError struct {
	Index int
	ID    string
	ROS   float64
	CFB   float64
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("observation %s: %s (ros %g, cfb %g)", e.ID, ErrUndefinedSpread, e.ROS, e.CFB)
}

func (e *PredictionError) Unwrap() error { return ErrUndefinedSpread }

// PredictionErrors returns the per-observation errors carried by an error
// from PredictBatch, or nil if err is a batch-level failure.
func PredictionErrors(err error) []*PredictionError {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else if err != nil {
		errs = []error{err}
	}
	var out []*PredictionError
	for _, e := range errs {
		var pe *PredictionError
		if errors.As(e, &pe) {
			out = append(out, pe)
		}
	}
	return out
}

// Defaults fill inputs an observation leaves out. Values follow the FBP
// System's standard assumptions.
type Defaults struct {
	FMC   float64 // foliar moisture content (%)
	Hours float64 // elapsed time since ignition
	FFMC  float64
	PC    float64
	PDF   float64
	CC    float64
	GFL   float64 // grass fuel load (kg/m²)
}

// StandardDefaults returns the FBP System's default inputs for the given
// foliar moisture content and elapsed hours.
func StandardDefaults(fmc, hours float64) Defaults {
	return Defaults{FMC: fmc, Hours: hours, FFMC: 90, PC: 50, PDF: 35, CC: 80, GFL: 0.35}
}

// SpreadBatch is a batch of observations broadcast into the engine's
// parallel vector form, together with the per-element values the engine
// does not take (crown fuel load, elapsed minutes).
type SpreadBatch struct {
	Spread  fbp.SpreadInputs
	CFL     []float64
	Minutes []float64
	Hours   []float64
}

// BuildSpreadBatch broadcasts a batch of observations into equal-length
// vectors. Missing crown base height and crown fuel load come from the fuel
// type table, missing surface fuel consumption is derived from FFMC and BUI.
func BuildSpreadBatch(obs []Observation, d Defaults) (SpreadBatch, error) {
	n := len(obs)
	b := SpreadBatch{
		Spread: fbp.SpreadInputs{
			FuelType: make([]string, n),
			ISI:      make([]float64, n),
			BUI:      make([]float64, n),
			FMC:      make([]float64, n),
			SFC:      make([]float64, n),
			PC:       make([]float64, n),
			PDF:      make([]float64, n),
			CC:       make([]float64, n),
			CBH:      make([]float64, n),
		},
		CFL:     make([]float64, n),
		Minutes: make([]float64, n),
		Hours:   make([]float64, n),
	}

	for i, o := range obs {
		ft, err := fbp.ParseFuelType(o.FuelType)
		if err != nil {
			return SpreadBatch{}, fmt.Errorf("observation %s: %w", o.ID, err)
		}
		coef := ft.Coefficients()
		pc := orDefault(o.PC, d.PC)

		s := &b.Spread
		s.FuelType[i] = o.FuelType
		s.ISI[i] = o.ISI
		s.BUI[i] = o.BUI
		s.FMC[i] = orDefault(o.FMC, d.FMC)
		s.PC[i] = pc
		s.PDF[i] = orDefault(o.PDF, d.PDF)
		s.CC[i] = orDefault(o.CC, d.CC)
		s.CBH[i] = orDefault(o.CBH, coef.CBH)
		if o.SFC != nil {
			s.SFC[i] = *o.SFC
		} else {
			s.SFC[i] = fbp.SurfaceFuelConsumption(ft, orDefault(o.FFMC, d.FFMC), o.BUI, pc, orDefault(o.GFL, d.GFL))
		}

		b.CFL[i] = orDefault(o.CFL, coef.CFL)
		b.Hours[i] = orDefault(o.Hours, d.Hours)
		b.Minutes[i] = b.Hours[i] * 60
	}
	return b, nil
}

// PredictBatch runs the FBP engine once over a whole batch of observations.
//
// The result has one prediction per observation. An observation whose rate
// of spread or crown fraction burned is not finite gets a zero prediction
// and a *PredictionError; the errors are joined and wrap ErrUndefinedSpread.
// Any other error fails the whole batch and returns nil predictions.
func PredictBatch(obs []Observation, d Defaults) ([]FirePrediction, error) {
	b, err := BuildSpreadBatch(obs, d)
	if err != nil {
		return nil, err
	}

	spread, err := fbp.RateOfSpreadExtended(b.Spread)
	if err != nil {
		return nil, fmt.Errorf("rate of spread: %w", err)
	}

	// Fuels without a crown fuel load cannot crown.
	cfb := make([]float64, len(obs))
	for i := range cfb {
		if b.CFL[i] > 0 {
			cfb[i] = spread.CFB[i]
		}
	}

	consumption := fbp.ConsumptionInputs{
		FuelType: b.Spread.FuelType,
		CFL:      b.CFL,
		CFB:      cfb,
		SFC:      b.Spread.SFC,
		PC:       b.Spread.PC,
		PDF:      b.Spread.PDF,
	}
	cfc, err := fbp.TotalFuelConsumption(consumption, fbp.CrownConsumption)
	if err != nil {
		return nil, fmt.Errorf("crown fuel consumption: %w", err)
	}
	tfc, err := fbp.TotalFuelConsumption(consumption, fbp.TotalConsumption)
	if err != nil {
		return nil, fmt.Errorf("total fuel consumption: %w", err)
	}
	rost, err := fbp.RateOfSpreadAtTime(b.Spread.FuelType, spread.ROS, b.Minutes, cfb)
	if err != nil {
		return nil, fmt.Errorf("rate of spread at time: %w", err)
	}

	now := clock.Now()
	out := make([]FirePrediction, len(obs))
	var rejected []error
	for i, o := range obs {
		ros := spread.ROS[i]
		if !isFinite(ros) || !isFinite(cfb[i]) {
			rejected = append(rejected, &PredictionError{Index: i, ID: o.ID, ROS: ros, CFB: cfb[i]})
			continue
		}
		out[i] = FirePrediction{
			ID:          o.ID,
			StationID:   o.StationID,
			ObservedAt:  o.ObservedAt,
			FuelType:    o.FuelType,
			Geo:         o.Geo,
			ROS:         finite(ros),
			ROSt:        finite(rost[i]),
			CFB:         finite(cfb[i]),
			CSI:         finite(spread.CSI[i]),
			RSO:         finite(spread.RSO[i]),
			SFC:         finite(b.Spread.SFC[i]),
			CFC:         finite(cfc[i]),
			TFC:         finite(tfc[i]),
			HFI:         finite(fbp.FireIntensity(tfc[i], ros)),
			SFI:         finite(fbp.FireIntensity(b.Spread.SFC[i], ros)),
			FireType:    string(fbp.ClassifyFireType(cfb[i])),
			Hours:       b.Hours[i],
			RawPayload:  o.RawPayload,
			ProcessedAt: now,
		}
	}
	return out, errors.Join(rejected...)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

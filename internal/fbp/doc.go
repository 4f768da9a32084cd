// Package fbp implements the rate of spread engine of the Canadian Forest
// Fire Behaviour Prediction (FBP) System.
//
// # Model
//
// Equations follow Forestry Canada Fire Danger Group (1992), "Development
// and Structure of the Canadian Forest Fire Behavior Prediction System",
// Information Report ST-X-3, with the Wotton et al. (2009) updates. Equation
// numbers in doc comments refer to that report.
//
// Spread is computed in a fixed order per element:
//
//	ISI ──► RSI (initial spread, per fuel type)
//	FMC, CBH ──► CSI ──► RSO (with SFC)
//	RSI × BE(BUI) ──► RSS ──► CFB (against RSO)
//	ROS = RSS, floored at 1e-6
//
// C6 (conifer plantation) replaces the last two steps with a two-stage
// model: a surface rate RSS and a crown rate RSC are computed separately
// and the final ROS blends them by CFB.
//
// # Fuel types
//
// The 17 fuel types are a closed enumeration. Each table row carries its
// coefficients and its spread model, so dispatch happens once per element:
//
//	C1–C5, C7, D1, S1–S3   power law a·(1−e^(−b·ISI))^c0
//	C6                     two-stage surface/crown model
//	M1, M2                 C2 and D1 blended on percent conifer
//	M3, M4                 own power law and D1 blended on percent dead fir
//	O1A, O1B               power law scaled by the curing factor
//
// M2 and M4 (green phase) damp the deciduous contribution to 20%.
//
// # Vectors
//
// Vector entry points take parallel slices of equal length and return one
// value per element. Unknown fuel type codes fail per element: the element
// is NaN and the returned error wraps ErrUnknownFuelType. NaN inputs
// propagate as NaN. Scalar broadcasting is the caller's job.
package fbp

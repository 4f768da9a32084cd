// Package domain models fire weather observations and the fire behaviour
// predicted from them.
//
// # Data Source
//
// Observations come from an upstream fire weather collector that computes
// the Canadian Forest Fire Weather Index (FWI) System codes for each station
// and publishes one JSON record per station per observation time to the
// Kafka source topic. Each record names the station's FBP fuel type and
// carries at least ISI and BUI:
//
//	{"station_id":"WHT","observed_at":"2024-07-14T18:00:00Z",
//	 "fuel_type":"C2","isi":10,"bui":50,"ffmc":90,"lat":60.7,"lon":-135.1}
//
// # Defaults
//
// Inputs an observation omits are broadcast from [Defaults] before the
// batch reaches the engine:
//
//	FMC    configured (DEFAULT_FMC, 100%)
//	Hours  configured (DEFAULT_ELAPSED_HOURS, 1h)
//	FFMC   90          PC   50%      PDF  35%
//	CC     80%         GFL  0.35 kg/m²
//	CBH    per fuel type (C1 2 m, C6 7 m, ...)
//	CFL    per fuel type
//	SFC    derived from FFMC, BUI, PC and GFL
//
// Fuel types with no crown fuel load (D1, S1–S3, O1A/O1B) never report crown
// involvement: CFB is forced to zero for them.
//
// # Batching
//
// [PredictBatch] runs the engine once per batch rather than once per
// observation. The engine resolves all fuel type codes up front and works
// element-wise over equal-length vectors, so a batch of any size costs a
// single call per output family (spread, consumption, time lag).
//
// # Fire Type
//
// Derived from crown fraction burned:
//
//	CFB < 0.1   surface
//	CFB < 0.9   intermittent_crown
//	CFB ≥ 0.9   crown
//
// # ID Generation
//
// Prediction IDs are deterministic SHA-256 hashes of station|fuel|time,
// prefixed with the lowercase fuel type. Replaying an observation yields the
// same ID, so downstream consumers can upsert idempotently. See [generateID].
package domain

package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/couchcryptid/fire-behavior-service/internal/fbp"
)

var (
	// ErrMissingIndex is returned when an observation lacks ISI or BUI.
	ErrMissingIndex = errors.New("missing fire weather index")
	// ErrInvalidIndex is returned for a negative ISI.
	ErrInvalidIndex = errors.New("invalid fire weather index")
)

// ParseObservation deserializes a RawEvent's value into an Observation.
// The fuel type must be one of the FBP codes; ISI and BUI are required and
// ISI must not be negative. A negative BUI is accepted as "not applicable".
func ParseObservation(raw RawEvent) (Observation, error) {
	var rec ObservationRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return Observation{}, fmt.Errorf("parse observation: %w", err)
	}

	stationID := strings.TrimSpace(rec.StationID)
	fuelType := strings.TrimSpace(rec.FuelType)
	if _, err := fbp.ParseFuelType(fuelType); err != nil {
		return Observation{}, fmt.Errorf("parse observation %s: %w", stationID, err)
	}
	if rec.ISI == nil {
		return Observation{}, fmt.Errorf("parse observation %s: %w: isi", stationID, ErrMissingIndex)
	}
	if rec.BUI == nil {
		return Observation{}, fmt.Errorf("parse observation %s: %w: bui", stationID, ErrMissingIndex)
	}
	if *rec.ISI < 0 {
		return Observation{}, fmt.Errorf("parse observation %s: %w: isi %g", stationID, ErrInvalidIndex, *rec.ISI)
	}

	observedAt := parseObservedAt(rec.ObservedAt, raw.Timestamp)

	return Observation{
		ID:         generateID(stationID, fuelType, observedAt),
		StationID:  stationID,
		ObservedAt: observedAt,
		FuelType:   fuelType,
		Geo:        Geo{Lat: rec.Lat, Lon: rec.Lon},
		ISI:        *rec.ISI,
		BUI:        *rec.BUI,
		FFMC:       rec.FFMC,
		FMC:        rec.FMC,
		SFC:        rec.SFC,
		PC:         rec.PC,
		PDF:        rec.PDF,
		CC:         rec.CC,
		GFL:        rec.GFL,
		CBH:        rec.CBH,
		CFL:        rec.CFL,
		Hours:      rec.Hours,
		RawPayload: raw.Value,
	}, nil
}

// parseObservedAt reads an RFC 3339 timestamp, falling back to the message
// timestamp when the field is empty or malformed.
func parseObservedAt(value string, fallback time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback.UTC()
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return fallback.UTC()
	}
	return t.UTC()
}

// generateID produces a deterministic ID from the observation's key fields,
// so replaying the same observation yields the same prediction ID.
func generateID(stationID, fuelType string, observedAt time.Time) string {
	input := fmt.Sprintf("%s|%s|%s", stationID, fuelType, observedAt.UTC().Format(time.RFC3339))
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if fuelType == "" {
		return short
	}
	return strings.ToLower(fuelType) + "-" + short
}

// finite replaces non-finite values with zero so predictions stay JSON-encodable.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

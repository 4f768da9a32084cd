package domain

import (
	"context"
	"time"
)

// ObservationRecord is the JSON structure published by the fire weather
// collector: one station's indices for one hour or day. Optional fields are
// pointers so an absent value can be told apart from zero.
type ObservationRecord struct {
	StationID  string   `json:"station_id"`
	ObservedAt string   `json:"observed_at,omitempty"` // RFC 3339; falls back to the message timestamp
	FuelType   string   `json:"fuel_type"`
	ISI        *float64 `json:"isi"`
	BUI        *float64 `json:"bui"`
	FFMC       *float64 `json:"ffmc,omitempty"`
	FMC        *float64 `json:"fmc,omitempty"`
	SFC        *float64 `json:"sfc,omitempty"`
	PC         *float64 `json:"pc,omitempty"`
	PDF        *float64 `json:"pdf,omitempty"`
	CC         *float64 `json:"cc,omitempty"`
	GFL        *float64 `json:"gfl,omitempty"`
	CBH        *float64 `json:"cbh,omitempty"`
	CFL        *float64 `json:"cfl,omitempty"`
	Hours      *float64 `json:"hours,omitempty"` // elapsed time since ignition
	Lat        float64  `json:"lat,omitempty"`
	Lon        float64  `json:"lon,omitempty"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat,omitempty"`
	Lon float64 `json:"lon,omitempty"`
}

// Observation is a parsed, validated observation. Optional inputs stay nil
// until BuildSpreadBatch fills them with defaults.
type Observation struct {
	ID         string
	StationID  string
	ObservedAt time.Time
	FuelType   string
	Geo        Geo

	ISI  float64
	BUI  float64
	FFMC *float64
	FMC  *float64
	SFC  *float64
	PC   *float64
	PDF  *float64
	CC   *float64
	GFL  *float64
	CBH  *float64
	CFL  *float64

	Hours *float64

	RawPayload []byte
}

// FirePrediction is the fire behaviour predicted for one observation.
type FirePrediction struct {
	ID         string    `json:"id"`
	StationID  string    `json:"station_id"`
	ObservedAt time.Time `json:"observed_at"`
	FuelType   string    `json:"fuel_type"`
	Geo        Geo       `json:"geo,omitempty"`

	ROS      float64 `json:"ros"`       // equilibrium head fire rate of spread (m/min)
	ROSt     float64 `json:"ros_t"`     // rate of spread at Hours since ignition (m/min)
	CFB      float64 `json:"cfb"`       // crown fraction burned
	CSI      float64 `json:"csi"`       // critical surface intensity (kW/m)
	RSO      float64 `json:"rso"`       // critical surface rate of spread (m/min)
	SFC      float64 `json:"sfc"`       // surface fuel consumption (kg/m²)
	CFC      float64 `json:"cfc"`       // crown fuel consumption (kg/m²)
	TFC      float64 `json:"tfc"`       // total fuel consumption (kg/m²)
	HFI      float64 `json:"hfi"`       // head fire intensity (kW/m)
	SFI      float64 `json:"sfi"`       // surface fire intensity (kW/m)
	FireType string  `json:"fire_type"` // surface, intermittent_crown, crown
	Hours    float64 `json:"hours"`

	RawPayload  []byte    `json:"-"`
	ProcessedAt time.Time `json:"processed_at"`
}

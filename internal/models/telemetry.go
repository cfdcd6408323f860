package models

import (
	"encoding/json"
	"time"
)

// EngineStatus is the reported state of the engine at sampling time
type EngineStatus string

const (
	EngineRunning EngineStatus = "running"
	EngineStopped EngineStatus = "stopped"
	EngineIdle    EngineStatus = "idle"
)

// TelemetryReading represents a single telemetry reading from a vehicle
type TelemetryReading struct {
	ID              string       `json:"id,omitempty"`
	VIN             string       `json:"vin" validate:"required"`
	Timestamp       time.Time    `json:"timestamp"`
	Latitude        float64      `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude       float64      `json:"longitude" validate:"gte=-180,lte=180"`
	Speed           float64      `json:"speed" validate:"gte=0"` // km/h
	EngineStatus    EngineStatus `json:"engine_status" validate:"required,oneof=running stopped idle"`
	FuelLevel       float64      `json:"fuel_level"` // percentage
	Odometer        float64      `json:"odometer"`   // km
	DiagnosticCodes []string     `json:"diagnostic_codes"`
}

// UnmarshalJSON accepts every timestamp form ParseTime understands.
func (t *TelemetryReading) UnmarshalJSON(b []byte) error {
	type reading TelemetryReading
	aux := struct {
		*reading
		Timestamp json.RawMessage `json:"timestamp"`
	}{reading: (*reading)(t)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	return decodeTime("timestamp", aux.Timestamp, &t.Timestamp)
}

// TelemetryQuery represents query parameters for telemetry searches
type TelemetryQuery struct {
	VINs      []string
	StartTime time.Time
	EndTime   time.Time
	MinSpeed  float64
	MaxSpeed  float64
	Limit     int
	Offset    int
}

// Match reports whether r satisfies every set criterion of q.
func (q TelemetryQuery) Match(r TelemetryReading) bool {
	if len(q.VINs) > 0 && !contains(q.VINs, r.VIN) {
		return false
	}
	if !q.StartTime.IsZero() && r.Timestamp.Before(q.StartTime) {
		return false
	}
	if !q.EndTime.IsZero() && r.Timestamp.After(q.EndTime) {
		return false
	}
	if q.MinSpeed > 0 && r.Speed < q.MinSpeed {
		return false
	}
	if q.MaxSpeed > 0 && r.Speed > q.MaxSpeed {
		return false
	}
	return true
}

// TelemetrySummary provides aggregated statistics
type TelemetrySummary struct {
	VIN             string  `json:"vin"`
	TotalRecords    int     `json:"total_records"`
	AvgSpeed        float64 `json:"avg_speed"`
	MaxSpeed        float64 `json:"max_speed"`
	TotalDistanceKM float64 `json:"total_distance_km"`
	AvgFuelLevel    float64 `json:"avg_fuel_level"`
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

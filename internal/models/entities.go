package models

import (
	"encoding/json"
	"time"
)

type Driver struct {
	DriverID        string `json:"driver_id" validate:"required"`
	Name            string `json:"name" validate:"required"`
	LicenseNumber   string `json:"license_number"`
	Phone           string `json:"phone"`
	Email           string `json:"email" validate:"omitempty,email"`
	AssignedVehicle string `json:"assigned_vehicle,omitempty"`
}

type Trip struct {
	TripID        string         `json:"trip_id" validate:"required"`
	VIN           string         `json:"vin" validate:"required"`
	DriverID      string         `json:"driver_id" validate:"required"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       time.Time      `json:"end_time" validate:"omitempty,gtefield=StartTime"`
	StartLocation string         `json:"start_location"`
	EndLocation   string         `json:"end_location"`
	Distance      float64        `json:"distance" validate:"gte=0"` // km
	Metadata      map[string]any `json:"metadata,omitempty"`
}

func (t *Trip) UnmarshalJSON(b []byte) error {
	type trip Trip
	aux := struct {
		*trip
		StartTime json.RawMessage `json:"start_time"`
		EndTime   json.RawMessage `json:"end_time"`
	}{trip: (*trip)(t)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if err := decodeTime("start_time", aux.StartTime, &t.StartTime); err != nil {
		return err
	}
	return decodeTime("end_time", aux.EndTime, &t.EndTime)
}

// Fleet groups vehicles under an owner. Vehicles lists VINs as entered by
// the client; analytics membership comes from Vehicle.FleetID.
type Fleet struct {
	FleetID  string         `json:"fleet_id" validate:"required"`
	Name     string         `json:"name" validate:"required"`
	OwnerID  string         `json:"owner_id"`
	Vehicles []string       `json:"vehicles"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Owner struct {
	OwnerID string `json:"owner_id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
}

type MaintenanceRecord struct {
	RecordID      string         `json:"record_id" validate:"required"`
	VIN           string         `json:"vin" validate:"required"`
	ServiceDate   time.Time      `json:"service_date"`
	ServiceType   string         `json:"service_type" validate:"required"`
	Description   string         `json:"description"`
	Cost          float64        `json:"cost" validate:"gte=0"`
	ServiceCenter string         `json:"service_center,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

func (m *MaintenanceRecord) UnmarshalJSON(b []byte) error {
	type record MaintenanceRecord
	aux := struct {
		*record
		ServiceDate json.RawMessage `json:"service_date"`
	}{record: (*record)(m)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	return decodeTime("service_date", aux.ServiceDate, &m.ServiceDate)
}

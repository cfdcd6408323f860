package models

// RegistrationStatus is the administrative state of a vehicle
type RegistrationStatus string

const (
	StatusActive      RegistrationStatus = "Active"
	StatusInactive    RegistrationStatus = "Inactive"
	StatusMaintenance RegistrationStatus = "Maintenance"
	StatusSuspended   RegistrationStatus = "Suspended"
)

// Vehicle represents a fleet vehicle, keyed by VIN
type Vehicle struct {
	VIN                string             `json:"vin" validate:"required"`
	Manufacturer       string             `json:"manufacturer" validate:"required"`
	Model              string             `json:"model" validate:"required"`
	FleetID            string             `json:"fleet_id,omitempty"`
	Owner              string             `json:"owner,omitempty"`
	RegistrationStatus RegistrationStatus `json:"registration_status" validate:"required,oneof=Active Inactive Maintenance Suspended"`
}

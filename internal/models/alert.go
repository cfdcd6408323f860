package models

import (
	"fmt"
	"strings"
	"time"
)

type AlertType string

const (
	AlertSpeedViolation AlertType = "SpeedViolation"
	AlertLowFuel        AlertType = "LowFuel"
	AlertMaintenance    AlertType = "Maintenance"
	AlertEngine         AlertType = "Engine"
	AlertGeofence       AlertType = "Geofence"
)

// Severity is a label; no ordering logic depends on it.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ParseSeverity maps a case-insensitive name onto a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(strings.ToUpper(strings.TrimSpace(s))); sev {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return sev, nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// Alert is derived from a telemetry reading, never created by clients
type Alert struct {
	ID        string    `json:"id"`
	VIN       string    `json:"vin"`
	Timestamp time.Time `json:"timestamp"`
	AlertType AlertType `json:"alert_type"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
}

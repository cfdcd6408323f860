// Package alerts derives alerts from telemetry readings using static thresholds.
package alerts

import (
	"fmt"

	"github.com/google/uuid"

	"fleet-manager/internal/config"
	"fleet-manager/internal/models"
)

// Thresholds are deployment configuration, not constants.
type Thresholds struct {
	SpeedLimit       float64
	LowFuelThreshold float64
	LowFuelSeverity  models.Severity
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		SpeedLimit:       100,
		LowFuelThreshold: 20,
		LowFuelSeverity:  models.SeverityMedium,
	}
}

// ThresholdsFromConfig validates the configured low fuel severity.
func ThresholdsFromConfig(cfg *config.Config) (Thresholds, error) {
	sev, err := models.ParseSeverity(cfg.LowFuelSeverity)
	if err != nil {
		return Thresholds{}, fmt.Errorf("ALERT_LOW_FUEL_SEVERITY: %w", err)
	}
	return Thresholds{
		SpeedLimit:       cfg.SpeedLimit,
		LowFuelThreshold: cfg.LowFuelThreshold,
		LowFuelSeverity:  sev,
	}, nil
}

// Rule fires when Evaluator returns true; Message formats the alert text.
type Rule struct {
	Type      models.AlertType
	Severity  models.Severity
	Evaluator func(r *models.TelemetryReading) bool
	Message   func(r *models.TelemetryReading) string
}

func Rules(th Thresholds) []Rule {
	return []Rule{
		{
			Type:     models.AlertSpeedViolation,
			Severity: models.SeverityHigh,
			Evaluator: func(r *models.TelemetryReading) bool {
				return r.Speed > th.SpeedLimit
			},
			Message: func(r *models.TelemetryReading) string {
				return fmt.Sprintf("Speed violation: %g km/h > %g", r.Speed, th.SpeedLimit)
			},
		},
		{
			Type:     models.AlertLowFuel,
			Severity: th.LowFuelSeverity,
			Evaluator: func(r *models.TelemetryReading) bool {
				return r.FuelLevel < th.LowFuelThreshold
			},
			Message: func(r *models.TelemetryReading) string {
				return fmt.Sprintf("Low fuel level: %g%%", r.FuelLevel)
			},
		},
	}
}

type Engine struct {
	rules []Rule
	newID func() string
}

func NewEngine(th Thresholds) *Engine {
	return &Engine{rules: Rules(th), newID: uuid.NewString}
}

// Evaluate returns one alert per rule the reading violates. Repeated
// violating readings produce repeated alerts.
func (e *Engine) Evaluate(r models.TelemetryReading) []models.Alert {
	var out []models.Alert
	for _, rule := range e.rules {
		if !rule.Evaluator(&r) {
			continue
		}
		out = append(out, models.Alert{
			ID:        e.newID(),
			VIN:       r.VIN,
			Timestamp: r.Timestamp,
			AlertType: rule.Type,
			Message:   rule.Message(&r),
			Severity:  rule.Severity,
		})
	}
	return out
}

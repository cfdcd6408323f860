package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-manager/internal/config"
	"fleet-manager/internal/models"
)

func TestEngine_Evaluate(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	engine := NewEngine(DefaultThresholds())

	tests := []struct {
		name     string
		speed    float64
		fuel     float64
		expected []models.AlertType
	}{
		{name: "speeding only", speed: 150, fuel: 50, expected: []models.AlertType{models.AlertSpeedViolation}},
		{name: "low fuel only", speed: 50, fuel: 10, expected: []models.AlertType{models.AlertLowFuel}},
		{name: "both", speed: 120, fuel: 5, expected: []models.AlertType{models.AlertSpeedViolation, models.AlertLowFuel}},
		{name: "none", speed: 80, fuel: 60},
		{name: "limits are exclusive", speed: 100, fuel: 20},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := engine.Evaluate(models.TelemetryReading{VIN: "VIN1", Timestamp: ts, Speed: test.speed, FuelLevel: test.fuel})

			var types []models.AlertType
			for _, a := range got {
				types = append(types, a.AlertType)
				assert.Equal(t, "VIN1", a.VIN)
				assert.Equal(t, ts, a.Timestamp)
				assert.NotEmpty(t, a.ID)
			}
			assert.Equal(t, test.expected, types)
		})
	}
}

func TestEngine_AlertContent(t *testing.T) {
	engine := NewEngine(DefaultThresholds())

	got := engine.Evaluate(models.TelemetryReading{VIN: "VIN1", Speed: 150, FuelLevel: 10.5})
	require.Len(t, got, 2)

	assert.Equal(t, models.SeverityHigh, got[0].Severity)
	assert.Equal(t, "Speed violation: 150 km/h > 100", got[0].Message)
	assert.Equal(t, models.SeverityMedium, got[1].Severity)
	assert.Equal(t, "Low fuel level: 10.5%", got[1].Message)
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestEngine_NoDeduplication(t *testing.T) {
	engine := NewEngine(DefaultThresholds())
	r := models.TelemetryReading{VIN: "VIN1", Speed: 130, FuelLevel: 50}

	first := engine.Evaluate(r)
	second := engine.Evaluate(r)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.NotEqual(t, first[0].ID, second[0].ID)
}

func TestThresholdsFromConfig(t *testing.T) {
	th, err := ThresholdsFromConfig(&config.Config{SpeedLimit: 90, LowFuelThreshold: 15, LowFuelSeverity: "critical"})
	require.NoError(t, err)
	assert.Equal(t, Thresholds{SpeedLimit: 90, LowFuelThreshold: 15, LowFuelSeverity: models.SeverityCritical}, th)

	engine := NewEngine(th)
	got := engine.Evaluate(models.TelemetryReading{Speed: 95, FuelLevel: 16})
	require.Len(t, got, 1)
	assert.Equal(t, models.AlertSpeedViolation, got[0].AlertType)

	_, err = ThresholdsFromConfig(&config.Config{LowFuelSeverity: "URGENT"})
	assert.Error(t, err)
}

package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-manager/internal/alerts"
	"fleet-manager/internal/db"
	"fleet-manager/internal/models"
	"fleet-manager/internal/telemetry"
)

func memoryApp(t *testing.T, vins ...string) *app {
	t.Helper()
	tables := db.NewTables(db.NewMemory())
	for _, vin := range vins {
		v := models.Vehicle{VIN: vin, Manufacturer: "Volvo", Model: "FH16", RegistrationStatus: models.StatusActive}
		require.NoError(t, tables.Vehicles.Insert(context.Background(), vin, v))
	}
	return &app{tables: tables, telemetry: telemetry.NewService(tables, alerts.NewEngine(alerts.DefaultThresholds()))}
}

func TestIngestInBatches(t *testing.T) {
	a := memoryApp(t, "VIN1")

	var records []models.TelemetryReading
	for i := 0; i < 7; i++ {
		vin := "VIN1"
		if i%3 == 2 {
			vin = "GHOST"
		}
		records = append(records, models.TelemetryReading{VIN: vin, Odometer: float64(i), EngineStatus: models.EngineRunning})
	}

	var progress []int
	n, err := ingestInBatches(context.Background(), a, records, 3, func(done int) { progress = append(progress, done) })
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []int{3, 6, 7}, progress)

	stored, err := a.tables.Telemetry.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, stored)
}

func TestIngestInBatches_StopsOnInvalidBatch(t *testing.T) {
	a := memoryApp(t, "VIN1")
	records := []models.TelemetryReading{
		{VIN: "VIN1", EngineStatus: models.EngineIdle},
		{VIN: "VIN1", EngineStatus: "warp"},
	}

	n, err := ingestInBatches(context.Background(), a, records, 1, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, n)
}

func TestCommandsRegistered(t *testing.T) {
	for _, cmd := range []interface{ Name() string }{
		serverCmd(), ingestCmd(), queryCmd(), statsCmd(), generateCmd(), vehicleCmd(), fleetCmd(), exportCmd(),
	} {
		assert.NotEmpty(t, cmd.Name(), fmt.Sprintf("%T", cmd))
	}
	assert.Len(t, vehicleCmd().Commands(), 2)
	assert.NotNil(t, exportCmd().Flags().Lookup("upload"))
}

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-manager/internal/db"
	"fleet-manager/internal/models"
)

func newTestRegistries(t *testing.T) (*Registries, *db.Tables) {
	t.Helper()
	tables := db.NewTables(db.NewMemory())
	return NewRegistries(tables), tables
}

func testVehicle(vin string) models.Vehicle {
	return models.Vehicle{
		VIN:                vin,
		Manufacturer:       "Volvo",
		Model:              "FH16",
		FleetID:            "FLT1",
		RegistrationStatus: models.StatusActive,
	}
}

func TestVehicles_CreateConflictAndRecreate(t *testing.T) {
	ctx := context.Background()
	regs, _ := newTestRegistries(t)

	_, err := regs.Vehicles.Create(ctx, testVehicle("VIN1"))
	require.NoError(t, err)

	_, err = regs.Vehicles.Create(ctx, testVehicle("VIN1"))
	assert.ErrorIs(t, err, db.ErrAlreadyExists)

	require.NoError(t, regs.Vehicles.Delete(ctx, "VIN1"))
	_, err = regs.Vehicles.Get(ctx, "VIN1")
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = regs.Vehicles.Create(ctx, testVehicle("VIN1"))
	assert.NoError(t, err)
}

func TestVehicles_CreateRejectsUnknownStatus(t *testing.T) {
	regs, _ := newTestRegistries(t)

	v := testVehicle("VIN1")
	v.RegistrationStatus = "Scrapped"
	_, err := regs.Vehicles.Create(context.Background(), v)

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "registration_status", verr.Field)
}

func TestVehicles_DeleteCascadesTelemetry(t *testing.T) {
	ctx := context.Background()
	regs, tables := newTestRegistries(t)

	_, err := regs.Vehicles.Create(ctx, testVehicle("VIN1"))
	require.NoError(t, err)
	_, err = regs.Vehicles.Create(ctx, testVehicle("VIN2"))
	require.NoError(t, err)

	for i, vin := range []string{"VIN1", "VIN2", "VIN1"} {
		r := models.TelemetryReading{ID: string(rune('a' + i)), VIN: vin, Timestamp: time.Now().UTC()}
		require.NoError(t, tables.Telemetry.Insert(ctx, r.ID, r))
	}

	require.NoError(t, regs.Vehicles.Delete(ctx, "VIN1"))

	left, err := tables.Telemetry.Scan(ctx, db.Query[models.TelemetryReading]{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "VIN2", left[0].VIN)

	assert.ErrorIs(t, regs.Vehicles.Delete(ctx, "VIN1"), db.ErrNotFound)
}

func TestRegistry_UpdateForcesKeyAndMerges(t *testing.T) {
	ctx := context.Background()
	regs, _ := newTestRegistries(t)

	_, err := regs.Vehicles.Create(ctx, testVehicle("VIN1"))
	require.NoError(t, err)

	body := []byte(`{"vin":"OTHER","registration_status":"Maintenance"}`)
	updated, err := regs.Vehicles.Update(ctx, "VIN1", func(v *models.Vehicle) error {
		return json.Unmarshal(body, v)
	})
	require.NoError(t, err)
	assert.Equal(t, "VIN1", updated.VIN)
	assert.Equal(t, models.StatusMaintenance, updated.RegistrationStatus)
	assert.Equal(t, "Volvo", updated.Manufacturer)

	stored, err := regs.Vehicles.Get(ctx, "VIN1")
	require.NoError(t, err)
	assert.Equal(t, updated, stored)

	_, err = regs.Vehicles.Get(ctx, "OTHER")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestRegistry_UpdateMissing(t *testing.T) {
	regs, _ := newTestRegistries(t)

	_, err := regs.Owners.Update(context.Background(), "OWN1", func(*models.Owner) error { return nil })
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestRegistry_UpdateValidates(t *testing.T) {
	ctx := context.Background()
	regs, _ := newTestRegistries(t)

	_, err := regs.Owners.Create(ctx, models.Owner{OwnerID: "OWN1", Name: "Acme", Email: "ops@acme.io"})
	require.NoError(t, err)

	_, err = regs.Owners.Update(ctx, "OWN1", func(o *models.Owner) error {
		o.Email = "not-an-email"
		return nil
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)

	stored, err := regs.Owners.Get(ctx, "OWN1")
	require.NoError(t, err)
	assert.Equal(t, "ops@acme.io", stored.Email)
}

func TestRegistry_ListCapped(t *testing.T) {
	ctx := context.Background()
	regs, _ := newTestRegistries(t)

	for i := 0; i < ListLimit+5; i++ {
		_, err := regs.Drivers.Create(ctx, models.Driver{DriverID: fmt.Sprintf("DRV%03d", i), Name: "d"})
		require.NoError(t, err)
	}

	drivers, err := regs.Drivers.List(ctx)
	require.NoError(t, err)
	assert.Len(t, drivers, ListLimit)
	assert.Equal(t, "DRV000", drivers[0].DriverID)
}

func TestRegistries_EntityKeys(t *testing.T) {
	ctx := context.Background()
	regs, _ := newTestRegistries(t)

	_, err := regs.Trips.Create(ctx, models.Trip{TripID: "TRP1", VIN: "VIN1", DriverID: "DRV1"})
	require.NoError(t, err)
	_, err = regs.Fleets.Create(ctx, models.Fleet{FleetID: "FLT1", Name: "North"})
	require.NoError(t, err)
	_, err = regs.Maintenance.Create(ctx, models.MaintenanceRecord{RecordID: "MNT1", VIN: "VIN1", ServiceType: "oil_change"})
	require.NoError(t, err)

	_, err = regs.Trips.Create(ctx, models.Trip{TripID: "TRP1", VIN: "VIN2", DriverID: "DRV2"})
	assert.ErrorIs(t, err, db.ErrAlreadyExists)

	require.NoError(t, regs.Fleets.Delete(ctx, "FLT1"))
	assert.ErrorIs(t, regs.Fleets.Delete(ctx, "FLT1"), db.ErrNotFound)

	m, err := regs.Maintenance.Get(ctx, "MNT1")
	require.NoError(t, err)
	assert.Equal(t, "oil_change", m.ServiceType)
}

func TestAlerts_RecentAndDelete(t *testing.T) {
	ctx := context.Background()
	regs, tables := newTestRegistries(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a1", "a2", "a3"} {
		a := models.Alert{ID: id, VIN: "VIN1", Timestamp: base.Add(time.Duration(i) * time.Minute), AlertType: models.AlertLowFuel, Severity: models.SeverityMedium}
		require.NoError(t, tables.Alerts.Insert(ctx, a.ID, a))
	}

	recent, err := regs.Alerts.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "a3", recent[0].ID)
	assert.Equal(t, "a2", recent[1].ID)

	_, err = regs.Alerts.Recent(ctx, 0)
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)

	require.NoError(t, regs.Alerts.Delete(ctx, "a2"))
	_, err = regs.Alerts.Get(ctx, "a2")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

package registry

import (
	"context"
	"errors"
	"fmt"

	"fleet-manager/internal/db"
	"fleet-manager/internal/models"
)

// Vehicles is the vehicle registry. Deleting a vehicle also removes its
// telemetry history.
type Vehicles struct {
	*Registry[models.Vehicle]
	telemetry *db.Table[models.TelemetryReading]
}

func NewVehicles(t *db.Tables) *Vehicles {
	return &Vehicles{
		Registry:  New("vehicle", t.Vehicles, func(v *models.Vehicle) *string { return &v.VIN }),
		telemetry: t.Telemetry,
	}
}

func (v *Vehicles) Delete(ctx context.Context, vin string) error {
	if err := v.Registry.Delete(ctx, vin); err != nil {
		return err
	}

	readings, err := v.telemetry.Scan(ctx, db.Query[models.TelemetryReading]{
		Filter: func(r models.TelemetryReading) bool { return r.VIN == vin },
	})
	if err != nil {
		return fmt.Errorf("telemetry cascade for %s: %w", vin, err)
	}
	for _, r := range readings {
		// a concurrent cascade may already have removed it
		if err := v.telemetry.Delete(ctx, r.ID); err != nil && !isNotFound(err) {
			return fmt.Errorf("telemetry cascade for %s: %w", vin, err)
		}
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, db.ErrNotFound)
}

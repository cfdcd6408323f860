package telemetry

import (
	"context"
	"fmt"
	"time"

	"fleet-manager/internal/db"
	"fleet-manager/internal/models"
)

// ListForVehicle returns up to limit readings for vin, newest first.
func (s *Service) ListForVehicle(ctx context.Context, vin string, limit int) ([]models.TelemetryReading, error) {
	return s.Query(ctx, models.TelemetryQuery{VINs: []string{vin}, Limit: limit})
}

// Latest returns the most recent reading of vin.
func (s *Service) Latest(ctx context.Context, vin string) (models.TelemetryReading, error) {
	readings, err := s.tables.Telemetry.Scan(ctx, db.Query[models.TelemetryReading]{
		Filter: func(r models.TelemetryReading) bool { return r.VIN == vin },
		Less:   db.NewestFirst,
		Limit:  1,
	})
	if err != nil {
		return models.TelemetryReading{}, err
	}
	if len(readings) == 0 {
		return models.TelemetryReading{}, fmt.Errorf("telemetry for vehicle %s: %w", vin, db.ErrNotFound)
	}
	return readings[0], nil
}

// History returns vin's readings between start and end (zero bounds are
// open), oldest first.
func (s *Service) History(ctx context.Context, vin string, start, end time.Time) ([]models.TelemetryReading, error) {
	q := models.TelemetryQuery{VINs: []string{vin}, StartTime: start.UTC(), EndTime: end.UTC()}
	return s.tables.Telemetry.Scan(ctx, db.Query[models.TelemetryReading]{
		Filter: q.Match,
		Less:   db.OldestFirst,
	})
}

// Query runs a global telemetry search, newest first.
func (s *Service) Query(ctx context.Context, q models.TelemetryQuery) ([]models.TelemetryReading, error) {
	if err := models.CheckLimit(q.Limit); err != nil {
		return nil, err
	}
	if !q.StartTime.IsZero() && !q.EndTime.IsZero() && q.EndTime.Before(q.StartTime) {
		return nil, &models.ValidationError{Field: "end_time", Message: "must not be before start_time"}
	}

	q.StartTime = q.StartTime.UTC()
	q.EndTime = q.EndTime.UTC()
	return s.tables.Telemetry.Scan(ctx, db.Query[models.TelemetryReading]{
		Filter: q.Match,
		Less:   db.NewestFirst,
		Offset: q.Offset,
		Limit:  q.Limit,
	})
}

// Summary aggregates every reading of vin.
func (s *Service) Summary(ctx context.Context, vin string) (models.TelemetrySummary, error) {
	readings, err := s.tables.Telemetry.Scan(ctx, db.Query[models.TelemetryReading]{
		Filter: func(r models.TelemetryReading) bool { return r.VIN == vin },
	})
	if err != nil {
		return models.TelemetrySummary{}, err
	}
	if len(readings) == 0 {
		return models.TelemetrySummary{}, fmt.Errorf("telemetry for vehicle %s: %w", vin, db.ErrNotFound)
	}

	sum := models.TelemetrySummary{VIN: vin, TotalRecords: len(readings)}
	var speed, fuel float64
	minOdo, maxOdo := readings[0].Odometer, readings[0].Odometer
	for _, r := range readings {
		speed += r.Speed
		fuel += r.FuelLevel
		if r.Speed > sum.MaxSpeed {
			sum.MaxSpeed = r.Speed
		}
		if r.Odometer < minOdo {
			minOdo = r.Odometer
		}
		if r.Odometer > maxOdo {
			maxOdo = r.Odometer
		}
	}
	n := float64(len(readings))
	sum.AvgSpeed = speed / n
	sum.AvgFuelLevel = fuel / n
	sum.TotalDistanceKM = maxOdo - minOdo
	return sum, nil
}

// Diagnostics returns readings that carry diagnostic codes, newest first.
// An empty vin searches every vehicle.
func (s *Service) Diagnostics(ctx context.Context, vin string, limit int) ([]models.TelemetryReading, error) {
	if err := models.CheckLimit(limit); err != nil {
		return nil, err
	}
	return s.tables.Telemetry.Scan(ctx, db.Query[models.TelemetryReading]{
		Filter: func(r models.TelemetryReading) bool {
			return len(r.DiagnosticCodes) > 0 && (vin == "" || r.VIN == vin)
		},
		Less:  db.NewestFirst,
		Limit: limit,
	})
}

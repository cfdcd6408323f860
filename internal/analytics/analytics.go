// Package analytics computes fleet and dashboard snapshots on demand from
// the record store. Nothing here mutates state or caches results.
package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"fleet-manager/internal/db"
	"fleet-manager/internal/models"
)

const DefaultWindow = 24 * time.Hour

type Analyzer struct {
	tables *db.Tables
	now    func() time.Time
}

func NewAnalyzer(tables *db.Tables) *Analyzer {
	return &Analyzer{tables: tables, now: time.Now}
}

// WithClock replaces the wall clock, mostly for tests.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Fleet summarizes the vehicles whose fleet_id is fleetID over the trailing
// window. A non-positive window falls back to DefaultWindow.
func (a *Analyzer) Fleet(ctx context.Context, fleetID string, window time.Duration) (models.FleetStats, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	cutoff := a.now().UTC().Add(-window)
	inWindow := func(t time.Time) bool { return !t.Before(cutoff) }

	vehicles, err := a.tables.Vehicles.Scan(ctx, db.Query[models.Vehicle]{
		Filter: func(v models.Vehicle) bool { return v.FleetID == fleetID },
	})
	if err != nil {
		return models.FleetStats{}, fmt.Errorf("load fleet %s vehicles: %w", fleetID, err)
	}
	if len(vehicles) == 0 {
		return models.FleetStats{}, fmt.Errorf("no vehicles in fleet %s: %w", fleetID, db.ErrNotFound)
	}

	members := make(map[string]bool, len(vehicles))
	for _, v := range vehicles {
		members[v.VIN] = true
	}

	readings, err := a.tables.Telemetry.Scan(ctx, db.Query[models.TelemetryReading]{
		Filter: func(r models.TelemetryReading) bool { return members[r.VIN] },
	})
	if err != nil {
		return models.FleetStats{}, fmt.Errorf("load fleet %s telemetry: %w", fleetID, err)
	}
	byVIN := make(map[string][]models.TelemetryReading, len(vehicles))
	for _, r := range readings {
		byVIN[r.VIN] = append(byVIN[r.VIN], r)
	}

	stats := models.FleetStats{
		FleetID:      fleetID,
		AlertSummary: models.AlertSummary{},
		WindowHours:  window.Hours(),
	}

	var fuelSamples []float64
	var distance float64
	for _, v := range vehicles {
		history := byVIN[v.VIN]
		if len(history) == 0 {
			stats.InactiveVehicles++
			continue
		}

		latest := history[0]
		for _, r := range history[1:] {
			if r.Timestamp.After(latest.Timestamp) {
				latest = r
			}
		}
		if inWindow(latest.Timestamp) {
			stats.ActiveVehicles++
		} else {
			stats.InactiveVehicles++
		}
		fuelSamples = append(fuelSamples, latest.FuelLevel)

		distance += odometerDelta(history, inWindow)
	}

	alerts, err := a.tables.Alerts.Scan(ctx, db.Query[models.Alert]{
		Filter: func(al models.Alert) bool { return members[al.VIN] && inWindow(al.Timestamp) },
	})
	if err != nil {
		return models.FleetStats{}, fmt.Errorf("load fleet %s alerts: %w", fleetID, err)
	}
	for _, al := range alerts {
		stats.AlertSummary.Add(al.AlertType, al.Severity)
	}

	stats.AverageFuelLevel = round(mean(fuelSamples), 2)
	stats.DistanceLast24h = round(distance, 2)
	return stats, nil
}

// odometerDelta is max-min odometer over in-window readings, or 0 when
// fewer than two readings fall in the window.
func odometerDelta(history []models.TelemetryReading, inWindow func(time.Time) bool) float64 {
	count := 0
	var lo, hi float64
	for _, r := range history {
		if !inWindow(r.Timestamp) {
			continue
		}
		if count == 0 || r.Odometer < lo {
			lo = r.Odometer
		}
		if count == 0 || r.Odometer > hi {
			hi = r.Odometer
		}
		count++
	}
	if count < 2 {
		return 0
	}
	return hi - lo
}

// Dashboard computes system-wide counters over the trailing 24 hours.
func (a *Analyzer) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	cutoff := a.now().UTC().Add(-DefaultWindow)

	counts := []struct {
		dst   *int
		count func(context.Context) (int, error)
	}{
		{&stats.TotalVehicles, a.tables.Vehicles.Count},
		{&stats.TotalDrivers, a.tables.Drivers.Count},
		{&stats.TotalFleets, a.tables.Fleets.Count},
		{&stats.TotalOwners, a.tables.Owners.Count},
		{&stats.TotalTrips, a.tables.Trips.Count},
		{&stats.TotalMaintenance, a.tables.Maintenance.Count},
		{&stats.TotalAlerts, a.tables.Alerts.Count},
	}
	for _, c := range counts {
		n, err := c.count(ctx)
		if err != nil {
			return stats, fmt.Errorf("dashboard counts: %w", err)
		}
		*c.dst = n
	}

	var err error
	stats.ActiveVehicles, err = a.tables.Vehicles.CountWhere(ctx, func(v models.Vehicle) bool {
		return v.RegistrationStatus == models.StatusActive
	})
	if err != nil {
		return stats, fmt.Errorf("dashboard active vehicles: %w", err)
	}

	stats.RecentAlerts, err = a.tables.Alerts.CountWhere(ctx, func(al models.Alert) bool {
		return !al.Timestamp.Before(cutoff)
	})
	if err != nil {
		return stats, fmt.Errorf("dashboard recent alerts: %w", err)
	}

	recent, err := a.tables.Telemetry.Scan(ctx, db.Query[models.TelemetryReading]{
		Filter: func(r models.TelemetryReading) bool { return !r.Timestamp.Before(cutoff) },
	})
	if err != nil {
		return stats, fmt.Errorf("dashboard fuel: %w", err)
	}
	fuel := make([]float64, 0, len(recent))
	for _, r := range recent {
		fuel = append(fuel, r.FuelLevel)
	}
	stats.AvgFuel = round(mean(fuel), 1)

	return stats, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

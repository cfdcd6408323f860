// Package registry provides keyed CRUD over the fleet's entities.
package registry

import (
	"context"
	"fmt"

	"fleet-manager/internal/db"
	"fleet-manager/internal/models"
)

// ListLimit caps every unfiltered entity listing.
const ListLimit = 100

// Registry is keyed CRUD over one table. KeyOf points at the primary key
// field so the path key can be forced onto updated records.
type Registry[T any] struct {
	name  string
	table *db.Table[T]
	keyOf func(*T) *string
}

func New[T any](name string, table *db.Table[T], keyOf func(*T) *string) *Registry[T] {
	return &Registry[T]{name: name, table: table, keyOf: keyOf}
}

// Create validates rec and stores it; fails with db.ErrAlreadyExists if
// the key is taken.
func (r *Registry[T]) Create(ctx context.Context, rec T) (T, error) {
	if err := models.Validate(rec); err != nil {
		return rec, err
	}
	key := *r.keyOf(&rec)
	if err := r.table.Insert(ctx, key, rec); err != nil {
		return rec, fmt.Errorf("%s %s: %w", r.name, key, err)
	}
	return rec, nil
}

func (r *Registry[T]) Get(ctx context.Context, key string) (T, error) {
	rec, err := r.table.Get(ctx, key)
	if err != nil {
		return rec, fmt.Errorf("%s %s: %w", r.name, key, err)
	}
	return rec, nil
}

// List returns up to ListLimit records in insertion order.
func (r *Registry[T]) List(ctx context.Context) ([]T, error) {
	return r.table.Scan(ctx, db.Query[T]{Limit: ListLimit})
}

// Update loads the stored record, applies mutate, forces the key back and
// re-validates before writing.
func (r *Registry[T]) Update(ctx context.Context, key string, mutate func(*T) error) (T, error) {
	rec, err := r.Get(ctx, key)
	if err != nil {
		return rec, err
	}
	if err := mutate(&rec); err != nil {
		return rec, err
	}
	*r.keyOf(&rec) = key

	if err := models.Validate(rec); err != nil {
		return rec, err
	}
	if err := r.table.Update(ctx, key, rec); err != nil {
		return rec, fmt.Errorf("%s %s: %w", r.name, key, err)
	}
	return rec, nil
}

func (r *Registry[T]) Delete(ctx context.Context, key string) error {
	if err := r.table.Delete(ctx, key); err != nil {
		return fmt.Errorf("%s %s: %w", r.name, key, err)
	}
	return nil
}

// Registries bundles one registry per client-managed entity
type Registries struct {
	Vehicles    *Vehicles
	Alerts      *Alerts
	Drivers     *Registry[models.Driver]
	Trips       *Registry[models.Trip]
	Fleets      *Registry[models.Fleet]
	Owners      *Registry[models.Owner]
	Maintenance *Registry[models.MaintenanceRecord]
}

func NewRegistries(t *db.Tables) *Registries {
	return &Registries{
		Vehicles:    NewVehicles(t),
		Alerts:      NewAlerts(t),
		Drivers:     New("driver", t.Drivers, func(d *models.Driver) *string { return &d.DriverID }),
		Trips:       New("trip", t.Trips, func(tr *models.Trip) *string { return &tr.TripID }),
		Fleets:      New("fleet", t.Fleets, func(f *models.Fleet) *string { return &f.FleetID }),
		Owners:      New("owner", t.Owners, func(o *models.Owner) *string { return &o.OwnerID }),
		Maintenance: New("maintenance record", t.Maintenance, func(m *models.MaintenanceRecord) *string { return &m.RecordID }),
	}
}

package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"fleet-manager/internal/models"
)

// Query filters, orders and caps a Scan. Zero values disable each step.
type Query[T any] struct {
	Filter func(T) bool
	Less   func(a, b T) bool
	Offset int
	Limit  int
}

// Table is a typed view over one collection of a Store
type Table[T any] struct {
	store Store
	coll  Collection
}

func NewTable[T any](s Store, c Collection) *Table[T] {
	return &Table[T]{store: s, coll: c}
}

func (t *Table[T]) Insert(ctx context.Context, key string, rec T) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", t.coll, key, err)
	}
	return t.store.Insert(ctx, t.coll, key, doc)
}

func (t *Table[T]) Get(ctx context.Context, key string) (T, error) {
	var rec T
	doc, err := t.store.Get(ctx, t.coll, key)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(doc, &rec); err != nil {
		return rec, fmt.Errorf("decode %s/%s: %w", t.coll, key, err)
	}
	return rec, nil
}

func (t *Table[T]) Update(ctx context.Context, key string, rec T) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", t.coll, key, err)
	}
	return t.store.Update(ctx, t.coll, key, doc)
}

func (t *Table[T]) Delete(ctx context.Context, key string) error {
	return t.store.Delete(ctx, t.coll, key)
}

func (t *Table[T]) Count(ctx context.Context) (int, error) {
	return t.store.Count(ctx, t.coll)
}

// Scan decodes the whole collection and applies q in order: filter,
// stable sort, offset, limit.
func (t *Table[T]) Scan(ctx context.Context, q Query[T]) ([]T, error) {
	docs, err := t.store.List(ctx, t.coll)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var rec T
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", t.coll, err)
		}
		if q.Filter == nil || q.Filter(rec) {
			out = append(out, rec)
		}
	}

	if q.Less != nil {
		sort.SliceStable(out, func(i, j int) bool { return q.Less(out[i], out[j]) })
	}

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return out[:0], nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// CountWhere counts the records accepted by filter.
func (t *Table[T]) CountWhere(ctx context.Context, filter func(T) bool) (int, error) {
	recs, err := t.Scan(ctx, Query[T]{Filter: filter})
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

// Tables holds one typed table per collection over a shared Store
type Tables struct {
	Store       Store
	Vehicles    *Table[models.Vehicle]
	Telemetry   *Table[models.TelemetryReading]
	Alerts      *Table[models.Alert]
	Drivers     *Table[models.Driver]
	Trips       *Table[models.Trip]
	Fleets      *Table[models.Fleet]
	Owners      *Table[models.Owner]
	Maintenance *Table[models.MaintenanceRecord]
}

func NewTables(s Store) *Tables {
	return &Tables{
		Store:       s,
		Vehicles:    NewTable[models.Vehicle](s, Vehicles),
		Telemetry:   NewTable[models.TelemetryReading](s, Telemetry),
		Alerts:      NewTable[models.Alert](s, Alerts),
		Drivers:     NewTable[models.Driver](s, Drivers),
		Trips:       NewTable[models.Trip](s, Trips),
		Fleets:      NewTable[models.Fleet](s, Fleets),
		Owners:      NewTable[models.Owner](s, Owners),
		Maintenance: NewTable[models.MaintenanceRecord](s, Maintenance),
	}
}

// NewestFirst orders telemetry readings by descending timestamp
func NewestFirst(a, b models.TelemetryReading) bool {
	return a.Timestamp.After(b.Timestamp)
}

// OldestFirst orders telemetry readings by ascending timestamp
func OldestFirst(a, b models.TelemetryReading) bool {
	return a.Timestamp.Before(b.Timestamp)
}

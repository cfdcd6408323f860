package db

import (
	"context"
	"errors"
	"fmt"

	"fleet-manager/internal/config"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// Collection names one keyed set of records
type Collection string

const (
	Vehicles    Collection = "vehicles"
	Telemetry   Collection = "telemetry"
	Alerts      Collection = "alerts"
	Drivers     Collection = "drivers"
	Trips       Collection = "trips"
	Fleets      Collection = "fleets"
	Owners      Collection = "owners"
	Maintenance Collection = "maintenance"
)

// Store is the byte-level record store every backend implements.
// Each call is atomic for a single record; there are no transactions.
type Store interface {
	// Insert fails with ErrAlreadyExists if key is present.
	Insert(ctx context.Context, c Collection, key string, doc []byte) error
	// Get fails with ErrNotFound if key is absent.
	Get(ctx context.Context, c Collection, key string) ([]byte, error)
	// Update replaces the stored document; ErrNotFound if key is absent.
	Update(ctx context.Context, c Collection, key string, doc []byte) error
	// Delete fails with ErrNotFound if key is absent.
	Delete(ctx context.Context, c Collection, key string) error
	// List returns every document of c in insertion order.
	List(ctx context.Context, c Collection) ([][]byte, error)
	Count(ctx context.Context, c Collection) (int, error)
	Close() error
}

// Open connects the backend named by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		return NewSQLite(cfg.SQLitePath)
	case "postgres":
		return NewPostgres(ctx, cfg.PostgresDSN())
	case "redis":
		return NewRedis(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.StoreDriver)
	}
}

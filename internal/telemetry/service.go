// Package telemetry ingests vehicle readings and answers queries over them.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"fleet-manager/internal/alerts"
	"fleet-manager/internal/config"
	"fleet-manager/internal/db"
	"fleet-manager/internal/models"
)

// Sink receives a copy of every stored reading. Write errors are logged
// and never fail an ingestion.
type Sink interface {
	WriteReading(ctx context.Context, r models.TelemetryReading) error
}

type Service struct {
	tables *db.Tables
	engine *alerts.Engine
	sink   Sink
	now    func() time.Time
	newID  func() string
	log    *log.Logger
}

type Option func(*Service)

func WithSink(s Sink) Option {
	return func(svc *Service) { svc.sink = s }
}

func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

func NewService(tables *db.Tables, engine *alerts.Engine, opts ...Option) *Service {
	s := &Service{
		tables: tables,
		engine: engine,
		now:    time.Now,
		newID:  uuid.NewString,
		log:    config.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest stores one reading for vin. The path VIN always wins over the VIN
// carried in the reading.
func (s *Service) Ingest(ctx context.Context, vin string, r models.TelemetryReading) (models.TelemetryReading, error) {
	r.VIN = vin
	if err := models.Validate(r); err != nil {
		return r, err
	}

	if _, err := s.tables.Vehicles.Get(ctx, vin); err != nil {
		return r, fmt.Errorf("vehicle %s: %w", vin, err)
	}

	return s.store(ctx, r)
}

// IngestBatch stores every reading whose vehicle is registered and silently
// drops the rest, including readings without a VIN. The kept readings are
// all validated before any is written. The stored readings come back in
// input order.
func (s *Service) IngestBatch(ctx context.Context, readings []models.TelemetryReading) ([]models.TelemetryReading, error) {
	known := make(map[string]bool)
	kept := make([]models.TelemetryReading, 0, len(readings))
	for i, r := range readings {
		ok, err := s.registered(ctx, known, r.VIN)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := models.Validate(r); err != nil {
			var verr *models.ValidationError
			if errors.As(err, &verr) {
				verr.Field = fmt.Sprintf("readings[%d].%s", i, verr.Field)
			}
			return nil, err
		}
		kept = append(kept, r)
	}

	stored := make([]models.TelemetryReading, 0, len(kept))
	for _, r := range kept {
		saved, err := s.store(ctx, r)
		if err != nil {
			return stored, err
		}
		stored = append(stored, saved)
	}
	return stored, nil
}

// registered looks vin up once per batch; an empty VIN is never registered.
func (s *Service) registered(ctx context.Context, known map[string]bool, vin string) (bool, error) {
	if vin == "" {
		return false, nil
	}
	if ok, seen := known[vin]; seen {
		return ok, nil
	}
	_, err := s.tables.Vehicles.Get(ctx, vin)
	switch {
	case err == nil:
		known[vin] = true
	case errors.Is(err, db.ErrNotFound):
		known[vin] = false
	default:
		return false, fmt.Errorf("vehicle %s: %w", vin, err)
	}
	return known[vin], nil
}

func (s *Service) store(ctx context.Context, r models.TelemetryReading) (models.TelemetryReading, error) {
	r.ID = s.newID()
	r.Timestamp = s.normalize(r.Timestamp)
	if r.DiagnosticCodes == nil {
		r.DiagnosticCodes = []string{}
	}

	if err := s.tables.Telemetry.Insert(ctx, r.ID, r); err != nil {
		return r, fmt.Errorf("store telemetry for %s: %w", r.VIN, err)
	}

	for _, a := range s.engine.Evaluate(r) {
		if err := s.tables.Alerts.Insert(ctx, a.ID, a); err != nil {
			return r, fmt.Errorf("store %s alert for %s: %w", a.AlertType, r.VIN, err)
		}
	}

	if s.sink != nil {
		if err := s.sink.WriteReading(ctx, r); err != nil {
			s.log.Printf("telemetry mirror write failed for %s: %v", r.VIN, err)
		}
	}
	return r, nil
}

// normalize moves t into UTC; a missing timestamp means "now".
func (s *Service) normalize(t time.Time) time.Time {
	if t.IsZero() {
		return s.now().UTC()
	}
	return t.UTC()
}

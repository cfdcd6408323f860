package main

import (
	"context"
	"fmt"

	"fleet-manager/internal/alerts"
	"fleet-manager/internal/analytics"
	"fleet-manager/internal/config"
	"fleet-manager/internal/db"
	"fleet-manager/internal/registry"
	"fleet-manager/internal/telemetry"
	"fleet-manager/internal/timeseries"
)

// app holds everything a command needs, wired from config.
type app struct {
	cfg        *config.Config
	store      db.Store
	tables     *db.Tables
	registries *registry.Registries
	telemetry  *telemetry.Service
	analyzer   *analytics.Analyzer
	influx     *timeseries.Influx
}

func openApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	if storeDriver != "" {
		cfg.StoreDriver = storeDriver
	}
	if dbPath != "" {
		cfg.SQLitePath = dbPath
	}

	th, err := alerts.ThresholdsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	store, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	a := &app{cfg: cfg, store: store, tables: db.NewTables(store)}
	a.registries = registry.NewRegistries(a.tables)
	a.analyzer = analytics.NewAnalyzer(a.tables)

	var opts []telemetry.Option
	if cfg.InfluxURL != "" {
		a.influx = timeseries.NewInflux(cfg)
		opts = append(opts, telemetry.WithSink(a.influx))
		config.Logger().Printf("mirroring telemetry to InfluxDB at %s (bucket %s)", cfg.InfluxURL, cfg.InfluxBucket)
	}
	a.telemetry = telemetry.NewService(a.tables, alerts.NewEngine(th), opts...)
	return a, nil
}

func (a *app) Close() {
	a.influx.Close()
	if err := a.store.Close(); err != nil {
		config.Logger().Printf("close store: %v", err)
	}
}

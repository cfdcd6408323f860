// Package timeseries mirrors stored telemetry readings into InfluxDB.
package timeseries

import (
	"context"
	"fmt"
	"strings"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"fleet-manager/internal/config"
	"fleet-manager/internal/models"
)

const Measurement = "telemetry"

// Influx writes one point per reading, blocking until the server accepts it.
type Influx struct {
	Client   influxdb2.Client
	WriteAPI api.WriteAPIBlocking
}

func NewInflux(cfg *config.Config) *Influx {
	client := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
	return &Influx{
		Client:   client,
		WriteAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
	}
}

func (db *Influx) Close() {
	if db != nil && db.Client != nil {
		db.Client.Close()
	}
}

// WriteReading implements telemetry.Sink.
func (db *Influx) WriteReading(ctx context.Context, r models.TelemetryReading) error {
	if err := db.WriteAPI.WritePoint(ctx, BuildPoint(r)); err != nil {
		return fmt.Errorf("influx write %s: %w", r.VIN, err)
	}
	return nil
}

func BuildPoint(r models.TelemetryReading) *write.Point {
	tags := map[string]string{
		"vin":           r.VIN,
		"engine_status": string(r.EngineStatus),
	}
	fields := map[string]interface{}{
		"latitude":   r.Latitude,
		"longitude":  r.Longitude,
		"speed":      r.Speed,
		"fuel_level": r.FuelLevel,
		"odometer":   r.Odometer,
	}
	if len(r.DiagnosticCodes) > 0 {
		fields["diagnostic_codes"] = strings.Join(r.DiagnosticCodes, ",")
	}
	return write.NewPoint(Measurement, tags, fields, r.Timestamp)
}

// Package archive exports stored telemetry to Parquet files and ships them
// to object storage.
package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"fleet-manager/internal/db"
	"fleet-manager/internal/models"
)

// Row is the Parquet schema of one archived reading.
type Row struct {
	ID              string  `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	VIN             string  `parquet:"name=vin, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Timestamp       int64   `parquet:"name=timestamp, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Latitude        float64 `parquet:"name=latitude, type=DOUBLE"`
	Longitude       float64 `parquet:"name=longitude, type=DOUBLE"`
	Speed           float64 `parquet:"name=speed, type=DOUBLE"`
	EngineStatus    string  `parquet:"name=engine_status, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	FuelLevel       float64 `parquet:"name=fuel_level, type=DOUBLE"`
	Odometer        float64 `parquet:"name=odometer, type=DOUBLE"`
	DiagnosticCodes string  `parquet:"name=diagnostic_codes, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// ToRow flattens r; diagnostic codes are joined with ';'.
func ToRow(r models.TelemetryReading) Row {
	return Row{
		ID:              r.ID,
		VIN:             r.VIN,
		Timestamp:       r.Timestamp.UTC().UnixMilli(),
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		Speed:           r.Speed,
		EngineStatus:    string(r.EngineStatus),
		FuelLevel:       r.FuelLevel,
		Odometer:        r.Odometer,
		DiagnosticCodes: strings.Join(r.DiagnosticCodes, ";"),
	}
}

// codec maps a --compression flag value onto a Parquet codec; unknown
// names get Snappy.
func codec(name string) parquet.CompressionCodec {
	switch strings.ToUpper(name) {
	case "ZSTD":
		return parquet.CompressionCodec_ZSTD
	case "GZIP":
		return parquet.CompressionCodec_GZIP
	case "NONE", "UNCOMPRESSED":
		return parquet.CompressionCodec_UNCOMPRESSED
	default:
		return parquet.CompressionCodec_SNAPPY
	}
}

// WriteFile writes readings to a Parquet file at path and returns the row count.
func WriteFile(path string, readings []models.TelemetryReading, compression string) (int, error) {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(Row), 4)
	if err != nil {
		return 0, fmt.Errorf("open parquet %s: %w", path, err)
	}
	pw.CompressionType = codec(compression)

	for i := range readings {
		if err := pw.Write(ToRow(readings[i])); err != nil {
			return 0, fmt.Errorf("write parquet row %d: %w", i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return 0, fmt.Errorf("flush parquet %s: %w", path, err)
	}
	if err := fw.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", path, err)
	}
	return len(readings), nil
}

// Export writes every stored reading of vin (all vehicles when vin is
// empty) to path, oldest first.
func Export(ctx context.Context, table *db.Table[models.TelemetryReading], vin, path, compression string) (int, error) {
	readings, err := table.Scan(ctx, db.Query[models.TelemetryReading]{
		Filter: func(r models.TelemetryReading) bool { return vin == "" || r.VIN == vin },
		Less:   db.OldestFirst,
	})
	if err != nil {
		return 0, fmt.Errorf("load telemetry: %w", err)
	}
	return WriteFile(path, readings, compression)
}

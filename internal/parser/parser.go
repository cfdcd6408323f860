// Package parser reads telemetry readings from CSV, JSON and pipe-delimited
// log files.
package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"fleet-manager/internal/config"
	"fleet-manager/internal/models"
)

// Parser handles parsing of telemetry data files
type Parser struct {
	format string
	log    *log.Logger
}

// NewParser creates a new parser with the specified format
func NewParser(format string) *Parser {
	return &Parser{format: strings.ToLower(format), log: config.Logger()}
}

// ParseFile parses a telemetry data file
func (p *Parser) ParseFile(filename string) ([]models.TelemetryReading, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.Parse(file)
}

// Parse reads every record from r. Malformed lines are logged and skipped.
func (p *Parser) Parse(r io.Reader) ([]models.TelemetryReading, error) {
	switch p.format {
	case "csv":
		return p.parseCSV(r)
	case "json":
		return p.parseJSON(r)
	case "log":
		return p.parseLog(r)
	default:
		return nil, fmt.Errorf("unsupported format: %s", p.format)
	}
}

// header aliases accepted for older exports
var columnAliases = map[string]string{
	"vehicle_id":      "vin",
	"odometer_km":     "odometer",
	"diagnostic_code": "diagnostic_codes",
	"lat":             "latitude",
	"lon":             "longitude",
	"fuel":            "fuel_level",
}

func (p *Parser) parseCSV(r io.Reader) ([]models.TelemetryReading, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	indices := make(map[string]int)
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		indices[name] = i
	}

	var results []models.TelemetryReading
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			return results, fmt.Errorf("error at line %d: %w", lineNum, err)
		}

		reading, err := recordToReading(record, indices)
		if err != nil {
			p.log.Printf("parser: line %d: %v", lineNum, err)
			continue
		}
		results = append(results, reading)
	}

	return results, nil
}

func recordToReading(record []string, indices map[string]int) (models.TelemetryReading, error) {
	var t models.TelemetryReading

	get := func(key string) string {
		if idx, ok := indices[key]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	t.VIN = get("vin")
	if t.VIN == "" {
		return t, fmt.Errorf("missing vin")
	}

	if ts := get("timestamp"); ts != "" {
		parsed, err := models.ParseTime(ts)
		if err != nil {
			return t, fmt.Errorf("invalid timestamp: %w", err)
		}
		t.Timestamp = parsed
	}

	fields := []struct {
		name string
		dst  *float64
	}{
		{"latitude", &t.Latitude},
		{"longitude", &t.Longitude},
		{"speed", &t.Speed},
		{"fuel_level", &t.FuelLevel},
		{"odometer", &t.Odometer},
	}
	for _, f := range fields {
		v, err := parseFloat(get(f.name))
		if err != nil {
			return t, fmt.Errorf("invalid %s: %w", f.name, err)
		}
		*f.dst = v
	}

	t.EngineStatus = engineStatus(get("engine_status"), t.Speed)
	t.DiagnosticCodes = splitCodes(get("diagnostic_codes"))
	return t, nil
}

// parseJSON accepts either a JSON array or newline-delimited objects.
func (p *Parser) parseJSON(r io.Reader) ([]models.TelemetryReading, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	var results []models.TelemetryReading
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &results); err == nil {
			return fillDefaults(results), nil
		}
	}
	return p.parseJSONLines(bytes.NewReader(data))
}

func (p *Parser) parseJSONLines(r io.Reader) ([]models.TelemetryReading, error) {
	var results []models.TelemetryReading
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "[" || line == "]" {
			continue
		}
		line = strings.TrimSuffix(line, ",")

		var t models.TelemetryReading
		if err := json.Unmarshal([]byte(line), &t); err != nil {
			p.log.Printf("parser: line %d: %v", lineNum, err)
			continue
		}
		results = append(results, t)
	}

	return fillDefaults(results), scanner.Err()
}

// parseLog parses timestamp|vin|lat,lon|speed|engine_status|fuel|odometer|codes
// where codes is an optional ';' separated list.
func (p *Parser) parseLog(r io.Reader) ([]models.TelemetryReading, error) {
	var results []models.TelemetryReading
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		t, err := logLineToReading(line)
		if err != nil {
			p.log.Printf("parser: line %d: %v", lineNum, err)
			continue
		}
		results = append(results, t)
	}

	return results, scanner.Err()
}

func logLineToReading(line string) (models.TelemetryReading, error) {
	var t models.TelemetryReading
	parts := strings.Split(line, "|")
	if len(parts) < 7 {
		return t, fmt.Errorf("insufficient fields: got %d, want at least 7", len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	ts, err := models.ParseTime(parts[0])
	if err != nil {
		return t, fmt.Errorf("invalid timestamp: %w", err)
	}
	t.Timestamp = ts

	t.VIN = parts[1]
	if t.VIN == "" {
		return t, fmt.Errorf("missing vin")
	}

	if coords := strings.Split(parts[2], ","); len(coords) == 2 {
		if t.Latitude, err = parseFloat(coords[0]); err != nil {
			return t, fmt.Errorf("invalid latitude: %w", err)
		}
		if t.Longitude, err = parseFloat(coords[1]); err != nil {
			return t, fmt.Errorf("invalid longitude: %w", err)
		}
	}

	if t.Speed, err = parseFloat(parts[3]); err != nil {
		return t, fmt.Errorf("invalid speed: %w", err)
	}
	t.EngineStatus = engineStatus(parts[4], t.Speed)
	if t.FuelLevel, err = parseFloat(parts[5]); err != nil {
		return t, fmt.Errorf("invalid fuel level: %w", err)
	}
	if t.Odometer, err = parseFloat(parts[6]); err != nil {
		return t, fmt.Errorf("invalid odometer: %w", err)
	}

	if len(parts) > 7 {
		t.DiagnosticCodes = splitCodes(parts[7])
	}
	return t, nil
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// engineStatus keeps an explicit status and otherwise infers one from speed.
func engineStatus(s string, speed float64) models.EngineStatus {
	if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
		return models.EngineStatus(s)
	}
	if speed > 0 {
		return models.EngineRunning
	}
	return models.EngineIdle
}

func splitCodes(s string) []string {
	var codes []string
	for _, c := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' || r == ' ' }) {
		codes = append(codes, strings.ToUpper(c))
	}
	return codes
}

func fillDefaults(readings []models.TelemetryReading) []models.TelemetryReading {
	for i := range readings {
		readings[i].EngineStatus = engineStatus(string(readings[i].EngineStatus), readings[i].Speed)
	}
	return readings
}

// Validate splits readings into those that pass model validation and the
// errors of those that do not.
func Validate(readings []models.TelemetryReading) ([]models.TelemetryReading, []error) {
	valid := make([]models.TelemetryReading, 0, len(readings))
	var errs []error
	for i, r := range readings {
		if err := models.Validate(r); err != nil {
			errs = append(errs, fmt.Errorf("record %d (%s): %w", i+1, r.VIN, err))
			continue
		}
		valid = append(valid, r)
	}
	return valid, errs
}

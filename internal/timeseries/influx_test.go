package timeseries

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-manager/internal/config"
	"fleet-manager/internal/models"
)

var ts = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sample() models.TelemetryReading {
	return models.TelemetryReading{
		ID:              "r1",
		VIN:             "VIN1",
		Timestamp:       ts,
		Latitude:        28.5,
		Longitude:       -81.25,
		Speed:           80,
		EngineStatus:    models.EngineRunning,
		FuelLevel:       50,
		Odometer:        1200,
		DiagnosticCodes: []string{"P0420", "P0171"},
	}
}

func TestBuildPoint(t *testing.T) {
	p := BuildPoint(sample())
	assert.Equal(t, Measurement, p.Name())
	assert.Equal(t, ts, p.Time())

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, map[string]string{"vin": "VIN1", "engine_status": "running"}, tags)

	fields := map[string]interface{}{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, 80.0, fields["speed"])
	assert.Equal(t, 1200.0, fields["odometer"])
	assert.Equal(t, "P0420,P0171", fields["diagnostic_codes"])
}

func TestBuildPoint_NoCodes(t *testing.T) {
	r := sample()
	r.DiagnosticCodes = nil
	for _, f := range BuildPoint(r).FieldList() {
		assert.NotEqual(t, "diagnostic_codes", f.Key)
	}
}

func TestWriteReading(t *testing.T) {
	var bucket, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bucket = r.URL.Query().Get("bucket")
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInflux(&config.Config{InfluxURL: srv.URL, InfluxToken: "tok", InfluxOrg: "fleet", InfluxBucket: "telemetry"})
	defer sink.Close()

	require.NoError(t, sink.WriteReading(context.Background(), sample()))
	assert.Equal(t, "telemetry", bucket)
	assert.Contains(t, body, "telemetry,engine_status=running,vin=VIN1 ")
	assert.Contains(t, body, strconv.FormatInt(ts.UnixNano(), 10))
	assert.Contains(t, body, `diagnostic_codes="P0420,P0171"`)
}

func TestWriteReading_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"internal error","message":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewInflux(&config.Config{InfluxURL: srv.URL, InfluxOrg: "fleet", InfluxBucket: "telemetry"})
	defer sink.Close()

	err := sink.WriteReading(context.Background(), sample())
	assert.ErrorContains(t, err, "influx write VIN1")
}

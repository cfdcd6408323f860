package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-manager/internal/models"
)

func TestParseCSV(t *testing.T) {
	input := `vin,timestamp,latitude,longitude,speed,engine_status,fuel_level,odometer,diagnostic_codes
VIN1,2024-06-01T10:00:00Z,28.5,-81.3,55.5,running,70,1200.5,P0420;p0171
VIN2,2024-06-01 10:05:00,28.6,-81.4,0,,40,900,
,2024-06-01T10:00:00Z,0,0,0,idle,0,0,
VIN3,not-a-time,0,0,0,idle,0,0,
VIN4,2024-06-01T10:00:00Z,abc,0,0,idle,0,0,
`
	got, err := NewParser("CSV").Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "VIN1", got[0].VIN)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), got[0].Timestamp)
	assert.Equal(t, 55.5, got[0].Speed)
	assert.Equal(t, 1200.5, got[0].Odometer)
	assert.Equal(t, models.EngineRunning, got[0].EngineStatus)
	assert.Equal(t, []string{"P0420", "P0171"}, got[0].DiagnosticCodes)

	assert.Equal(t, time.Date(2024, 6, 1, 10, 5, 0, 0, time.UTC), got[1].Timestamp)
	assert.Equal(t, models.EngineIdle, got[1].EngineStatus)
	assert.Empty(t, got[1].DiagnosticCodes)
}

func TestParseCSV_LegacyHeader(t *testing.T) {
	input := "vehicle_id,timestamp,speed,odometer_km,diagnostic_code\nVEH-001,1717236000,80,5000,P0300\n"

	got, err := NewParser("csv").Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "VEH-001", got[0].VIN)
	assert.Equal(t, time.Unix(1717236000, 0).UTC(), got[0].Timestamp)
	assert.Equal(t, 5000.0, got[0].Odometer)
	assert.Equal(t, models.EngineRunning, got[0].EngineStatus)
	assert.Equal(t, []string{"P0300"}, got[0].DiagnosticCodes)
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "array",
			input: `[{"vin":"A","speed":10,"timestamp":"2024-06-01T10:00:00Z"},{"vin":"B","engine_status":"stopped"}]`,
			want:  []string{"A", "B"},
		},
		{
			name: "lines",
			input: `{"vin":"A","speed":10}
{"vin":"B"}
not json
{"vin":"C"},`,
			want: []string{"A", "B", "C"},
		},
		{
			name:  "array with a bad element falls back to lines",
			input: "[\n{\"vin\":\"A\"},\n{\"vin\":\"B\",\"timestamp\":\"never\"},\n{\"vin\":\"C\"}\n]",
			want:  []string{"A", "C"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewParser("json").Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			var vins []string
			for _, r := range got {
				vins = append(vins, r.VIN)
				assert.NotEmpty(t, r.EngineStatus)
			}
			assert.Equal(t, tt.want, vins)
		})
	}
}

func TestParseLog(t *testing.T) {
	input := `# timestamp|vin|lat,lon|speed|engine_status|fuel|odometer|codes
2024-06-01T10:00:00Z|VIN1|28.5,-81.3|120|running|15|300|P0420;P0442
2024-06-01T10:01:00Z|VIN1|28.5,-81.3|0||14|301

2024-06-01T10:02:00Z|VIN1|28.5
2024-06-01T10:03:00Z|VIN1|28.5,-81.3|fast|running|14|302
`
	got, err := NewParser("log").Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 120.0, got[0].Speed)
	assert.Equal(t, 15.0, got[0].FuelLevel)
	assert.Equal(t, -81.3, got[0].Longitude)
	assert.Equal(t, []string{"P0420", "P0442"}, got[0].DiagnosticCodes)
	assert.Equal(t, models.EngineIdle, got[1].EngineStatus)
	assert.Nil(t, got[1].DiagnosticCodes)
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := NewParser("xml").Parse(strings.NewReader(""))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	readings := []models.TelemetryReading{
		{VIN: "A", EngineStatus: models.EngineRunning},
		{VIN: "B", EngineStatus: "flying"},
		{VIN: "C", EngineStatus: models.EngineIdle, Latitude: 91},
		{VIN: "D", EngineStatus: models.EngineStopped},
	}

	valid, errs := Validate(readings)
	require.Len(t, valid, 2)
	assert.Equal(t, "A", valid[0].VIN)
	assert.Equal(t, "D", valid[1].VIN)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "engine_status")
	assert.Contains(t, errs[1].Error(), "latitude")
}

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		given    string
		expected time.Time
	}{
		{
			given:    "2024-06-01T12:30:00Z",
			expected: time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			given:    "2024-06-01T14:30:00+02:00",
			expected: time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			given:    "2024-06-01T12:30:00.250",
			expected: time.Date(2024, 6, 1, 12, 30, 0, 250_000_000, time.UTC),
		},
		{
			given:    "2024-06-01T12:30",
			expected: time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			given:    "2024-06-01 12:30:00",
			expected: time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			given:    "2024/06/01 12:30:00",
			expected: time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			given:    "06/01/2024 12:30:00",
			expected: time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			given:    "2024-06-01",
			expected: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			given:    "1717243200",
			expected: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			given:    "1717243200.5",
			expected: time.Date(2024, 6, 1, 12, 0, 0, 500_000_000, time.UTC),
		},
		{
			given:    "1717243200000",
			expected: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			given:    " 2024-06-01 ",
			expected: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, test := range tests {
		got, err := ParseTime(test.given)
		require.NoError(t, err, test.given)
		assert.True(t, test.expected.Equal(got), "%q: got %v", test.given, got)
		assert.Equal(t, time.UTC, got.Location(), test.given)
	}
}

func TestParseTime_Rejects(t *testing.T) {
	for _, given := range []string{
		"",
		"yesterday",
		"2024-13-01",
		"NaN",
		"Inf",
		"1e300",
		"-1e300",
		"999999999999999999",
	} {
		_, err := ParseTime(given)
		assert.Error(t, err, given)
	}
}

func TestTelemetryReading_UnmarshalTimestamp(t *testing.T) {
	tests := []struct {
		given    string
		expected time.Time
	}{
		{
			given:    `{"vin":"A","timestamp":1717243200}`,
			expected: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			given:    `{"vin":"A","timestamp":1717243200000}`,
			expected: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			given:    `{"vin":"A","timestamp":"1717243200"}`,
			expected: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			given:    `{"vin":"A","timestamp":"2024-06-01 12:00:00"}`,
			expected: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			given: `{"vin":"A","timestamp":null}`,
		},
		{
			given: `{"vin":"A","timestamp":""}`,
		},
		{
			given: `{"vin":"A"}`,
		},
	}

	for _, test := range tests {
		var r TelemetryReading
		require.NoError(t, json.Unmarshal([]byte(test.given), &r), test.given)
		assert.Equal(t, "A", r.VIN)
		assert.True(t, test.expected.Equal(r.Timestamp), "%s: got %v", test.given, r.Timestamp)
	}
}

func TestTelemetryReading_UnmarshalRejectsBadTimestamp(t *testing.T) {
	for _, given := range []string{
		`{"vin":"A","timestamp":"not a time"}`,
		`{"vin":"A","timestamp":1e300}`,
		`{"vin":"A","timestamp":999999999999999999}`,
	} {
		var r TelemetryReading
		err := json.Unmarshal([]byte(given), &r)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr, given)
		assert.Equal(t, "timestamp", verr.Field)
	}
}

func TestTrip_UnmarshalKeepsAbsentTimes(t *testing.T) {
	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	trip := Trip{TripID: "T1", VIN: "A", DriverID: "D1", StartTime: start, Distance: 3}

	require.NoError(t, json.Unmarshal([]byte(`{"end_time":"2024-06-01 09:15:00","distance":12.5}`), &trip))
	assert.Equal(t, start, trip.StartTime)
	assert.Equal(t, time.Date(2024, 6, 1, 9, 15, 0, 0, time.UTC), trip.EndTime)
	assert.Equal(t, 12.5, trip.Distance)
	assert.Equal(t, "T1", trip.TripID)

	err := json.Unmarshal([]byte(`{"start_time":"soon"}`), &trip)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "start_time", verr.Field)
	assert.Equal(t, start, trip.StartTime)
}

func TestMaintenanceRecord_UnmarshalServiceDate(t *testing.T) {
	date := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	rec := MaintenanceRecord{RecordID: "M1", VIN: "A", ServiceType: "oil_change", ServiceDate: date}

	require.NoError(t, json.Unmarshal([]byte(`{"service_date":null,"cost":80}`), &rec))
	assert.Equal(t, date, rec.ServiceDate)
	assert.Equal(t, 80.0, rec.Cost)

	require.NoError(t, json.Unmarshal([]byte(`{"service_date":"2024/06/02 10:00:00"}`), &rec))
	assert.Equal(t, time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC), rec.ServiceDate)
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		given    string
		expected Severity
	}{
		{given: "LOW", expected: SeverityLow},
		{given: "medium", expected: SeverityMedium},
		{given: " High ", expected: SeverityHigh},
		{given: "critical", expected: SeverityCritical},
	}
	for _, test := range tests {
		got, err := ParseSeverity(test.given)
		require.NoError(t, err, test.given)
		assert.Equal(t, test.expected, got)
	}

	_, err := ParseSeverity("urgent")
	assert.Error(t, err)
	_, err = ParseSeverity("")
	assert.Error(t, err)
}

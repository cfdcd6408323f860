package models

// AlertSummary counts alerts by type, then by severity
type AlertSummary map[AlertType]map[Severity]int

// Add records one occurrence.
func (s AlertSummary) Add(t AlertType, sev Severity) {
	bySeverity, ok := s[t]
	if !ok {
		bySeverity = make(map[Severity]int)
		s[t] = bySeverity
	}
	bySeverity[sev]++
}

// FleetStats is the trailing-window snapshot of one fleet
type FleetStats struct {
	FleetID          string       `json:"fleet_id"`
	ActiveVehicles   int          `json:"active_vehicles"`
	InactiveVehicles int          `json:"inactive_vehicles"`
	AverageFuelLevel float64      `json:"average_fuel_level"`
	DistanceLast24h  float64      `json:"distance_last_24h"`
	AlertSummary     AlertSummary `json:"alert_summary"`
	WindowHours      float64      `json:"window_hours"`
}

// DashboardStats keeps the field names the dashboard frontend reads
type DashboardStats struct {
	TotalVehicles    int     `json:"totalVehicles"`
	TotalDrivers     int     `json:"totalDrivers"`
	TotalFleets      int     `json:"totalFleets"`
	TotalOwners      int     `json:"totalOwners"`
	TotalTrips       int     `json:"totalTrips"`
	TotalMaintenance int     `json:"totalMaintenance"`
	TotalAlerts      int     `json:"totalAlerts"`
	RecentAlerts     int     `json:"recentAlerts"`
	ActiveVehicles   int     `json:"activeVehicles"`
	AvgFuel          float64 `json:"avgFuel"`
}

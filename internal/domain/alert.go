package domain

import "time"

type AlertType string

const (
	AlertSpeedThreshold      AlertType = "speed_threshold"
	AlertEfficiencyThreshold AlertType = "efficiency_threshold"
	AlertSpeedZScore         AlertType = "speed_zscore"
	AlertCarbonZScore        AlertType = "carbon_zscore"
	AlertRouteDeviation      AlertType = "route_deviation"
)

type AlertSeverity string

const (
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// AnomalyAlert is a write-once record of a detector firing. Alerts are
// appended to the alert log and never revised.
type AnomalyAlert struct {
	VehicleID string        `json:"vehicle_id"`
	Type      AlertType     `json:"anomaly_type"`
	Severity  AlertSeverity `json:"severity"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`

	// Numeric evidence for the matched rule; meaning depends on Type.
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

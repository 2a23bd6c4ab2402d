package domain

import "time"

// FleetHealth classifies a fleet window by its total alert volume.
type FleetHealth string

const (
	FleetHealthy  FleetHealth = "healthy"
	FleetDegraded FleetHealth = "degraded"
	FleetCritical FleetHealth = "critical"
)

// FleetReport is one fleet-wide 5-minute tumbling window rollup. Immutable
// once emitted; appended to the report history, never revised.
type FleetReport struct {
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`

	TotalCarbonKg       float64     `json:"total_carbon_kg"`
	ActiveVehicles      int         `json:"active_vehicles"`
	TotalAlerts         int         `json:"total_alerts"`
	AvgRisk             float64     `json:"avg_fleet_risk"`
	AvgSustainability   float64     `json:"avg_sustainability_score"`
	FleetHealth         FleetHealth `json:"fleet_health"`
	EmissionTrend       string      `json:"emission_trend"`
	SustainabilityGrade string      `json:"sustainability_grade"`

	HighestCarbonVehicle string `json:"highest_carbon_vehicle"`
	ExecutiveSummary     string `json:"executive_summary"`

	GeneratedAt time.Time `json:"generated_at"`
}

// SustainabilityScore is a per-vehicle 0-100 score, higher is better.
type SustainabilityScore struct {
	VehicleID      string  `json:"vehicle_id"`
	Score          float64 `json:"sustainability_score"`
	Grade          string  `json:"grade"`
	CarbonPerKm    float64 `json:"carbon_per_km"`
	AvgEfficiency  float64 `json:"avg_efficiency"`
	AvgSpeed       float64 `json:"avg_speed"`
}

// VehicleRanking holds cumulative per-vehicle totals for the leaderboard.
type VehicleRanking struct {
	VehicleID     string  `json:"vehicle_id"`
	TotalCarbonKg float64 `json:"total_carbon_kg"`
	TotalDistance float64 `json:"total_distance_km"`
	TotalFuel     float64 `json:"total_fuel_liters"`
	AvgEfficiency float64 `json:"avg_efficiency"`
	CarbonPerKm   float64 `json:"carbon_per_km"`
	WindowCount   int     `json:"windows_counted"`
}

package domain

import "time"

// VehicleStateName is one of the six operational states.
type VehicleStateName string

const (
	StateNormal         VehicleStateName = "NORMAL"
	StateEfficient      VehicleStateName = "EFFICIENT"
	StateHighEmission   VehicleStateName = "HIGH_EMISSION"
	StateRouteDeviation VehicleStateName = "ROUTE_DEVIATION"
	StateIdle           VehicleStateName = "IDLE"
	StateCriticalRisk   VehicleStateName = "CRITICAL_RISK"
)

// RiskLevel is the deterministic mapping from state to operator urgency.
type RiskLevel string

const (
	RiskMinimal  RiskLevel = "minimal"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskScore is the composite 0-100 score with its explainable breakdown.
// Impact fields are each clamped to [0,100] before weighting; the Pct fields
// report each weighted term's share of the total.
type RiskScore struct {
	VehicleID string  `json:"vehicle_id"`
	Score     float64 `json:"risk_score"`

	AlertImpact      float64 `json:"alert_impact"`
	EfficiencyImpact float64 `json:"efficiency_impact"`
	CarbonImpact     float64 `json:"carbon_impact"`
	StatusImpact     float64 `json:"status_impact"`

	AlertImpactPct      float64 `json:"alert_impact_pct"`
	EfficiencyImpactPct float64 `json:"efficiency_impact_pct"`
	CarbonImpactPct     float64 `json:"carbon_impact_pct"`
	StatusImpactPct     float64 `json:"status_impact_pct"`

	TotalAlerts int `json:"total_alerts"`
}

// VehicleState is the current classification row for one vehicle,
// overwritten on each recomputation. PreviousState always holds the
// CurrentState value from the run immediately before.
type VehicleState struct {
	VehicleID     string           `json:"vehicle_id"`
	CurrentState  VehicleStateName `json:"current_state"`
	PreviousState VehicleStateName `json:"previous_state"`
	RiskLevel     RiskLevel        `json:"risk_level"`
	RiskScore     float64          `json:"risk_score"`
	Reason        string           `json:"reason"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// StateTransitionRecord is appended to the transition log whenever a
// vehicle's computed state differs from its prior state. Write-once.
type StateTransitionRecord struct {
	VehicleID string           `json:"vehicle_id"`
	FromState VehicleStateName `json:"from_state"`
	ToState   VehicleStateName `json:"to_state"`
	RiskLevel RiskLevel        `json:"risk_level"`
	Reason    string           `json:"reason"`
	Timestamp time.Time        `json:"timestamp"`
}

// Prediction is the short-horizon forecast for one vehicle. Ephemeral:
// recomputed whenever its input window snapshot or risk score changes.
type Prediction struct {
	VehicleID                 string    `json:"vehicle_id"`
	PredictedCarbon10Min      float64   `json:"predicted_carbon_10min"`
	PredictedRiskScore        float64   `json:"predicted_risk_score"`
	RiskEscalationProbability float64   `json:"risk_escalation_probability"`
	FuelExhaustionMinutes     float64   `json:"fuel_exhaustion_minutes"`
	GeneratedAt               time.Time `json:"generated_at"`
}

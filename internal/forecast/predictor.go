// Package forecast produces short-horizon per-vehicle predictions from the
// latest window snapshot and risk score. All functions are pure; predictions
// are ephemeral and recomputed whenever their inputs change.
package forecast

import (
	"math"
	"time"

	"greenpulse/internal/domain"
)

const (
	horizonMinutes   = 10.0
	windowMinutes    = 5.0
	maxCarbonKg      = 200.0
	tankCapacityL    = 40.0
	reserveL         = 10.0
	minBurnRateLPM   = 0.01
	escalationSlope  = 0.08
	riskCarryOver    = 0.55
	speedPenaltyKmh  = 90.0
	speedPenaltyRate = 0.25
)

// Predict assembles the full forecast row for one vehicle.
func Predict(snap *domain.WindowSnapshot, score domain.RiskScore, now time.Time) domain.Prediction {
	predictedRisk := PredictedRisk(score.Score, score.TotalAlerts, snap.CarbonKg, snap.AvgSpeed)
	return domain.Prediction{
		VehicleID:                 snap.VehicleID,
		PredictedCarbon10Min:      PredictedCarbon(snap),
		PredictedRiskScore:        predictedRisk,
		RiskEscalationProbability: EscalationProbability(score.Score, predictedRisk, score.TotalAlerts),
		FuelExhaustionMinutes:     FuelExhaustionMinutes(snap.TotalFuel),
		GeneratedAt:               now,
	}
}

// PredictedCarbon extrapolates window carbon ten minutes ahead. The burn
// rate is scaled up for sustained high speed and poor fuel efficiency.
func PredictedCarbon(snap *domain.WindowSnapshot) float64 {
	speedFactor := 1 + math.Max(snap.AvgSpeed-60, 0)/100
	efficiencyPenalty := math.Max(0, (5-snap.FuelEfficiency)/5)

	rate := snap.CarbonKg / windowMinutes * speedFactor * (1 + 0.3*efficiencyPenalty)
	return clamp(snap.CarbonKg+rate*horizonMinutes, 0, maxCarbonKg)
}

// PredictedRisk projects the composite risk score forward from its current
// value, active alert pressure, emissions and speed.
func PredictedRisk(current float64, alerts int, carbonKg, avgSpeed float64) float64 {
	projected := riskCarryOver*current +
		math.Min(float64(alerts)*8, 30) +
		math.Min(carbonKg*0.5, 20) +
		math.Max(0, (avgSpeed-speedPenaltyKmh)*speedPenaltyRate)
	return clamp(projected, 0, 100)
}

// EscalationProbability maps the predicted risk delta and alert pressure
// through a sigmoid to a probability in (0,1).
func EscalationProbability(current, predicted float64, alerts int) float64 {
	x := (predicted - current) + math.Min(float64(alerts)*5, 25)
	return 1 / (1 + math.Exp(-escalationSlope*x))
}

// FuelExhaustionMinutes estimates minutes until the tank hits reserve at the
// current burn rate. Returns -1 when the vehicle is burning effectively no
// fuel, meaning no exhaustion is foreseeable.
func FuelExhaustionMinutes(windowFuelL float64) float64 {
	rate := windowFuelL / windowMinutes
	if rate < minBurnRateLPM {
		return -1
	}
	return math.Max(0, (tankCapacityL-reserveL)/rate)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

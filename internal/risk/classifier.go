package risk

import (
	"fmt"
	"time"

	"greenpulse/internal/config"
	"greenpulse/internal/domain"
)

// Classifier maps a vehicle's latest snapshot, risk score and active alerts
// to one of the six operational states. Rules are evaluated strictly in
// priority order; the first match wins. Stateless.
type Classifier struct {
	cfg *config.Config
}

func NewClassifier(cfg *config.Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify returns the state row for the vehicle, with PreviousState left
// for the caller's Tracker to fill in.
func (c *Classifier) Classify(snap *domain.WindowSnapshot, score domain.RiskScore, alerts []domain.AnomalyAlert, now time.Time) domain.VehicleState {
	st := domain.VehicleState{
		VehicleID: snap.VehicleID,
		RiskScore: score.Score,
		UpdatedAt: now,
	}

	routeDeviation := false
	for _, a := range alerts {
		if a.Type == domain.AlertRouteDeviation {
			routeDeviation = true
			break
		}
	}

	switch {
	case score.Score > c.cfg.CriticalRiskScore || len(alerts) >= c.cfg.CriticalAlertCount:
		st.CurrentState = domain.StateCriticalRisk
		st.RiskLevel = domain.RiskCritical
		st.Reason = fmt.Sprintf("risk score %.1f with %d active alerts", score.Score, len(alerts))
	case routeDeviation:
		st.CurrentState = domain.StateRouteDeviation
		st.RiskLevel = domain.RiskHigh
		st.Reason = "active route deviation alert"
	case snap.CarbonKg > c.cfg.EmissionThresholdKg:
		st.CurrentState = domain.StateHighEmission
		st.RiskLevel = domain.RiskHigh
		st.Reason = fmt.Sprintf("window carbon %.1f kg above %.1f kg",
			snap.CarbonKg, c.cfg.EmissionThresholdKg)
	case snap.AvgSpeed < c.cfg.IdleSpeedKmh:
		st.CurrentState = domain.StateIdle
		st.RiskLevel = domain.RiskMedium
		st.Reason = fmt.Sprintf("average speed %.1f km/h below idle threshold", snap.AvgSpeed)
	case snap.FuelEfficiency > c.cfg.EfficientThreshold && len(alerts) == 0:
		st.CurrentState = domain.StateEfficient
		st.RiskLevel = domain.RiskMinimal
		st.Reason = fmt.Sprintf("efficiency %.1f km/L with no active alerts", snap.FuelEfficiency)
	default:
		st.CurrentState = domain.StateNormal
		st.RiskLevel = domain.RiskLow
		st.Reason = "within normal operating bounds"
	}
	return st
}

// Tracker remembers one vehicle's prior state and detects transitions.
// Owned by a single per-vehicle worker, so it needs no lock.
type Tracker struct {
	prev    domain.VehicleStateName
	hasPrev bool
}

// Apply sets PreviousState on the new row and, when the state changed,
// returns the transition record to append to the log. The first
// classification for a vehicle transitions from NORMAL.
func (t *Tracker) Apply(st *domain.VehicleState) *domain.StateTransitionRecord {
	prev := domain.StateNormal
	if t.hasPrev {
		prev = t.prev
	}
	st.PreviousState = prev

	t.prev = st.CurrentState
	t.hasPrev = true

	if prev == st.CurrentState {
		return nil
	}
	return &domain.StateTransitionRecord{
		VehicleID: st.VehicleID,
		FromState: prev,
		ToState:   st.CurrentState,
		RiskLevel: st.RiskLevel,
		Reason:    st.Reason,
		Timestamp: st.UpdatedAt,
	}
}

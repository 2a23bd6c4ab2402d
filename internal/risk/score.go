// Package risk computes the composite vehicle risk score and classifies
// vehicles into operational states.
package risk

import (
	"greenpulse/internal/config"
	"greenpulse/internal/domain"
)

// Scorer computes the weighted four-factor risk score. Stateless.
type Scorer struct {
	cfg *config.Config
}

func NewScorer(cfg *config.Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Compute builds the composite score from the latest window snapshot and
// the vehicle's active alerts. Each factor impact is bounded to [0,100]
// before weighting, so the score itself is bounded without clamping.
func (s *Scorer) Compute(snap *domain.WindowSnapshot, alerts []domain.AnomalyAlert) domain.RiskScore {
	routeAlerts := 0
	for _, a := range alerts {
		if a.Type == domain.AlertRouteDeviation {
			routeAlerts++
		}
	}

	alertImpact := min100(float64(len(alerts)) * 20)
	efficiencyImpact := efficiencyImpact(snap.FuelEfficiency)
	carbonImpact := min100(snap.CarbonKg * 5)

	statusBase := 10.0
	if snap.SpeedVariance > 30 {
		statusBase = 35.0
	}
	statusImpact := min100(float64(routeAlerts)*35 + statusBase)

	wAlert := s.cfg.AlertWeight * alertImpact
	wEff := s.cfg.EfficiencyWeight * efficiencyImpact
	wCarbon := s.cfg.CarbonWeight * carbonImpact
	wStatus := s.cfg.StatusWeight * statusImpact
	total := wAlert + wEff + wCarbon + wStatus

	rs := domain.RiskScore{
		VehicleID: snap.VehicleID,
		Score:     total,

		AlertImpact:      alertImpact,
		EfficiencyImpact: efficiencyImpact,
		CarbonImpact:     carbonImpact,
		StatusImpact:     statusImpact,

		TotalAlerts: len(alerts),
	}
	if total > 0 {
		rs.AlertImpactPct = wAlert / total * 100
		rs.EfficiencyImpactPct = wEff / total * 100
		rs.CarbonImpactPct = wCarbon / total * 100
		rs.StatusImpactPct = wStatus / total * 100
	}
	return rs
}

// efficiencyImpact maps fuel efficiency bands to penalty points; poorer
// efficiency costs more.
func efficiencyImpact(eff float64) float64 {
	switch {
	case eff >= 8:
		return 10
	case eff >= 6:
		return 25
	case eff >= 4:
		return 55
	default:
		return 85
	}
}

func min100(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}

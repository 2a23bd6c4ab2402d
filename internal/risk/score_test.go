package risk

import (
	"math"
	"testing"
	"time"

	"greenpulse/internal/config"
	"greenpulse/internal/domain"
)

var testTime = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func alertsOf(types ...domain.AlertType) []domain.AnomalyAlert {
	out := make([]domain.AnomalyAlert, len(types))
	for i, typ := range types {
		out[i] = domain.AnomalyAlert{VehicleID: "V-101", Type: typ, Timestamp: testTime}
	}
	return out
}

func TestComputeRiskScore(t *testing.T) {
	s := NewScorer(config.Load())

	snap := &domain.WindowSnapshot{
		VehicleID:      "V-101",
		FuelEfficiency: 2.0,  // impact 85
		CarbonKg:       16.0, // impact 80
		SpeedVariance:  40.0, // status base 35
	}
	alerts := alertsOf(
		domain.AlertSpeedThreshold,
		domain.AlertSpeedThreshold,
		domain.AlertCarbonZScore,
		domain.AlertRouteDeviation, // one route alert: status 35+35
	)

	got := s.Compute(snap, alerts)

	if got.AlertImpact != 80 {
		t.Errorf("AlertImpact = %v, want 80", got.AlertImpact)
	}
	if got.EfficiencyImpact != 85 {
		t.Errorf("EfficiencyImpact = %v, want 85", got.EfficiencyImpact)
	}
	if got.CarbonImpact != 80 {
		t.Errorf("CarbonImpact = %v, want 80", got.CarbonImpact)
	}
	if got.StatusImpact != 70 {
		t.Errorf("StatusImpact = %v, want 70", got.StatusImpact)
	}

	want := 0.35*80 + 0.25*85 + 0.25*80 + 0.15*70
	if math.Abs(got.Score-want) > 1e-9 {
		t.Errorf("Score = %v, want %v", got.Score, want)
	}
	if got.TotalAlerts != 4 {
		t.Errorf("TotalAlerts = %d, want 4", got.TotalAlerts)
	}

	pctSum := got.AlertImpactPct + got.EfficiencyImpactPct + got.CarbonImpactPct + got.StatusImpactPct
	if math.Abs(pctSum-100) > 1e-9 {
		t.Errorf("impact percentages sum to %v, want 100", pctSum)
	}
}

func TestComputeRiskImpactsClamped(t *testing.T) {
	s := NewScorer(config.Load())

	snap := &domain.WindowSnapshot{VehicleID: "V-101", CarbonKg: 1000, SpeedVariance: 100}
	alerts := alertsOf(
		domain.AlertRouteDeviation, domain.AlertRouteDeviation,
		domain.AlertRouteDeviation, domain.AlertRouteDeviation,
		domain.AlertSpeedThreshold, domain.AlertSpeedThreshold,
	)

	got := s.Compute(snap, alerts)
	if got.AlertImpact != 100 || got.CarbonImpact != 100 || got.StatusImpact != 100 {
		t.Errorf("impacts = (%v, %v, %v), want all clamped to 100",
			got.AlertImpact, got.CarbonImpact, got.StatusImpact)
	}
	if got.Score > 100 {
		t.Errorf("Score = %v, must not exceed 100", got.Score)
	}
}

func TestEfficiencyImpactBands(t *testing.T) {
	tests := []struct {
		eff  float64
		want float64
	}{
		{9, 10}, {8, 10}, {7, 25}, {6, 25}, {5, 55}, {4, 55}, {3, 85}, {0, 85},
	}
	for _, tt := range tests {
		if got := efficiencyImpact(tt.eff); got != tt.want {
			t.Errorf("efficiencyImpact(%v) = %v, want %v", tt.eff, got, tt.want)
		}
	}
}

func TestQuietVehicleScoresLow(t *testing.T) {
	s := NewScorer(config.Load())

	snap := &domain.WindowSnapshot{
		VehicleID:      "V-101",
		FuelEfficiency: 8.5,
		CarbonKg:       2.0,
		SpeedVariance:  10,
	}
	got := s.Compute(snap, nil)

	// 0.35*0 + 0.25*10 + 0.25*10 + 0.15*10 = 6.5
	if math.Abs(got.Score-6.5) > 1e-9 {
		t.Errorf("Score = %v, want 6.5", got.Score)
	}
}

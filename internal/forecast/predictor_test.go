package forecast

import (
	"math"
	"testing"
	"time"

	"greenpulse/internal/domain"
)

func TestPredictedCarbon(t *testing.T) {
	// Moderate speed and healthy efficiency: no multipliers apply.
	// Rate = 5/5 = 1 kg/min, so +10 kg over ten minutes.
	snap := &domain.WindowSnapshot{CarbonKg: 5, AvgSpeed: 60, FuelEfficiency: 5}
	if got := PredictedCarbon(snap); math.Abs(got-15) > 1e-9 {
		t.Errorf("PredictedCarbon = %v, want 15", got)
	}

	// High speed and zero efficiency inflate the rate.
	snap = &domain.WindowSnapshot{CarbonKg: 5, AvgSpeed: 160, FuelEfficiency: 0}
	want := 5 + 5.0/5*2*1.3*10
	if got := PredictedCarbon(snap); math.Abs(got-want) > 1e-9 {
		t.Errorf("PredictedCarbon = %v, want %v", got, want)
	}

	// Clamped to the 200 kg ceiling.
	snap = &domain.WindowSnapshot{CarbonKg: 150, AvgSpeed: 160, FuelEfficiency: 0}
	if got := PredictedCarbon(snap); got != 200 {
		t.Errorf("PredictedCarbon = %v, want clamp at 200", got)
	}
}

func TestPredictedRisk(t *testing.T) {
	// 0.55*40 + min(2*8,30) + min(10*0.5,20) + 0 = 43
	if got := PredictedRisk(40, 2, 10, 60); math.Abs(got-43) > 1e-9 {
		t.Errorf("PredictedRisk = %v, want 43", got)
	}

	// Every term saturated: clamped to 100.
	if got := PredictedRisk(100, 10, 100, 200); got != 100 {
		t.Errorf("PredictedRisk = %v, want clamp at 100", got)
	}

	if got := PredictedRisk(0, 0, 0, 0); got != 0 {
		t.Errorf("PredictedRisk = %v, want 0", got)
	}
}

func TestEscalationProbability(t *testing.T) {
	// No delta, no alerts: exactly the sigmoid midpoint.
	if got := EscalationProbability(50, 50, 0); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("EscalationProbability = %v, want 0.5", got)
	}

	rising := EscalationProbability(40, 70, 2)
	falling := EscalationProbability(70, 40, 0)
	if rising <= 0.5 {
		t.Errorf("rising risk probability = %v, want > 0.5", rising)
	}
	if falling >= 0.5 {
		t.Errorf("falling risk probability = %v, want < 0.5", falling)
	}
	if rising <= 0 || rising >= 1 || falling <= 0 || falling >= 1 {
		t.Errorf("probabilities out of (0,1): %v, %v", rising, falling)
	}
}

func TestFuelExhaustionMinutes(t *testing.T) {
	// 10 L over the window is 2 L/min: 30 L usable / 2 = 15 minutes.
	if got := FuelExhaustionMinutes(10); math.Abs(got-15) > 1e-9 {
		t.Errorf("FuelExhaustionMinutes(10) = %v, want 15", got)
	}

	// Effectively no burn: the sentinel, not +Inf.
	if got := FuelExhaustionMinutes(0.04); got != -1 {
		t.Errorf("FuelExhaustionMinutes(0.04) = %v, want -1", got)
	}
	if got := FuelExhaustionMinutes(0); got != -1 {
		t.Errorf("FuelExhaustionMinutes(0) = %v, want -1", got)
	}
}

func TestPredictAssemblesRow(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 5, 0, 0, time.UTC)
	snap := &domain.WindowSnapshot{
		VehicleID: "V-101", CarbonKg: 5, AvgSpeed: 60,
		FuelEfficiency: 5, TotalFuel: 10,
	}
	score := domain.RiskScore{VehicleID: "V-101", Score: 40, TotalAlerts: 2}

	p := Predict(snap, score, now)
	if p.VehicleID != "V-101" || !p.GeneratedAt.Equal(now) {
		t.Errorf("row identity = (%q, %v)", p.VehicleID, p.GeneratedAt)
	}
	if p.PredictedCarbon10Min != PredictedCarbon(snap) {
		t.Error("PredictedCarbon10Min not derived from the snapshot")
	}
	if p.FuelExhaustionMinutes != 15 {
		t.Errorf("FuelExhaustionMinutes = %v, want 15", p.FuelExhaustionMinutes)
	}
}

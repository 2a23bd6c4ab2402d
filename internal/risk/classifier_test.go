package risk

import (
	"testing"

	"greenpulse/internal/config"
	"greenpulse/internal/domain"
)

func TestClassifyPriorityOrder(t *testing.T) {
	c := NewClassifier(config.Load())

	tests := []struct {
		name      string
		snap      domain.WindowSnapshot
		score     float64
		alerts    []domain.AnomalyAlert
		wantState domain.VehicleStateName
		wantLevel domain.RiskLevel
	}{
		{
			name:      "critical risk by score",
			snap:      domain.WindowSnapshot{AvgSpeed: 60, FuelEfficiency: 5},
			score:     85,
			wantState: domain.StateCriticalRisk,
			wantLevel: domain.RiskCritical,
		},
		{
			name:      "critical risk by alert count",
			snap:      domain.WindowSnapshot{AvgSpeed: 60, FuelEfficiency: 5},
			score:     40,
			alerts:    alertsOf(domain.AlertSpeedThreshold, domain.AlertSpeedZScore, domain.AlertCarbonZScore),
			wantState: domain.StateCriticalRisk,
			wantLevel: domain.RiskCritical,
		},
		{
			name:      "critical outranks route deviation",
			snap:      domain.WindowSnapshot{AvgSpeed: 60, FuelEfficiency: 5},
			score:     85,
			alerts:    alertsOf(domain.AlertRouteDeviation),
			wantState: domain.StateCriticalRisk,
			wantLevel: domain.RiskCritical,
		},
		{
			name:      "route deviation",
			snap:      domain.WindowSnapshot{AvgSpeed: 60, FuelEfficiency: 5},
			score:     40,
			alerts:    alertsOf(domain.AlertRouteDeviation),
			wantState: domain.StateRouteDeviation,
			wantLevel: domain.RiskHigh,
		},
		{
			name:      "high emission",
			snap:      domain.WindowSnapshot{AvgSpeed: 60, FuelEfficiency: 5, CarbonKg: 16},
			score:     40,
			wantState: domain.StateHighEmission,
			wantLevel: domain.RiskHigh,
		},
		{
			name:      "idle",
			snap:      domain.WindowSnapshot{AvgSpeed: 3, FuelEfficiency: 5},
			score:     20,
			wantState: domain.StateIdle,
			wantLevel: domain.RiskMedium,
		},
		{
			name:      "efficient",
			snap:      domain.WindowSnapshot{AvgSpeed: 60, FuelEfficiency: 8},
			score:     10,
			wantState: domain.StateEfficient,
			wantLevel: domain.RiskMinimal,
		},
		{
			name:      "efficient blocked by alert",
			snap:      domain.WindowSnapshot{AvgSpeed: 60, FuelEfficiency: 8},
			score:     10,
			alerts:    alertsOf(domain.AlertSpeedThreshold),
			wantState: domain.StateNormal,
			wantLevel: domain.RiskLow,
		},
		{
			name:      "normal",
			snap:      domain.WindowSnapshot{AvgSpeed: 60, FuelEfficiency: 5},
			score:     30,
			wantState: domain.StateNormal,
			wantLevel: domain.RiskLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.snap.VehicleID = "V-101"
			st := c.Classify(&tt.snap, domain.RiskScore{VehicleID: "V-101", Score: tt.score}, tt.alerts, testTime)
			if st.CurrentState != tt.wantState {
				t.Errorf("CurrentState = %q, want %q (%s)", st.CurrentState, tt.wantState, st.Reason)
			}
			if st.RiskLevel != tt.wantLevel {
				t.Errorf("RiskLevel = %q, want %q", st.RiskLevel, tt.wantLevel)
			}
			if st.Reason == "" {
				t.Error("Reason is empty")
			}
		})
	}
}

func TestTrackerRecordsTransitionsOnlyOnChange(t *testing.T) {
	var tr Tracker

	normal := domain.VehicleState{
		VehicleID: "V-101", CurrentState: domain.StateNormal,
		RiskLevel: domain.RiskLow, UpdatedAt: testTime,
	}
	if got := tr.Apply(&normal); got != nil {
		t.Errorf("first NORMAL classification produced transition %+v, want nil", got)
	}
	if normal.PreviousState != domain.StateNormal {
		t.Errorf("PreviousState = %q, want NORMAL", normal.PreviousState)
	}

	critical := domain.VehicleState{
		VehicleID: "V-101", CurrentState: domain.StateCriticalRisk,
		RiskLevel: domain.RiskCritical, Reason: "risk score 85.0 with 4 active alerts",
		UpdatedAt: testTime,
	}
	got := tr.Apply(&critical)
	if got == nil {
		t.Fatal("state change produced no transition")
	}
	if got.FromState != domain.StateNormal || got.ToState != domain.StateCriticalRisk {
		t.Errorf("transition = %q -> %q", got.FromState, got.ToState)
	}
	if critical.PreviousState != domain.StateNormal {
		t.Errorf("PreviousState = %q, want NORMAL", critical.PreviousState)
	}

	// Same state again: no new transition, previous state updates.
	again := critical
	if got := tr.Apply(&again); got != nil {
		t.Errorf("unchanged state produced transition %+v, want nil", got)
	}
	if again.PreviousState != domain.StateCriticalRisk {
		t.Errorf("PreviousState = %q, want CRITICAL_RISK", again.PreviousState)
	}
}

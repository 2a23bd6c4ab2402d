package anomaly

import (
	"testing"
	"time"

	"greenpulse/internal/config"
	"greenpulse/internal/domain"
)

var testTime = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func TestCheckRecordSpeedThresholds(t *testing.T) {
	d := NewDetector(config.Load())

	tests := []struct {
		name     string
		speed    float64
		want     int
		severity domain.AlertSeverity
	}{
		{"at limit", 120, 0, ""},
		{"over limit", 125, 1, domain.SeverityHigh},
		{"at critical", 140, 1, domain.SeverityHigh},
		{"over critical", 150, 1, domain.SeverityCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &domain.TelemetryRecord{
				VehicleID: "V-101", Timestamp: testTime,
				SpeedKmh: tt.speed, FuelEfficiency: 5.0,
			}
			alerts := d.CheckRecord(rec)
			if len(alerts) != tt.want {
				t.Fatalf("got %d alerts, want %d", len(alerts), tt.want)
			}
			if tt.want == 0 {
				return
			}
			a := alerts[0]
			if a.Type != domain.AlertSpeedThreshold {
				t.Errorf("Type = %q", a.Type)
			}
			if a.Severity != tt.severity {
				t.Errorf("Severity = %q, want %q", a.Severity, tt.severity)
			}
			if a.Value != tt.speed {
				t.Errorf("Value = %v, want %v", a.Value, tt.speed)
			}
		})
	}
}

func TestCheckRecordEfficiencyFloor(t *testing.T) {
	d := NewDetector(config.Load())

	rec := &domain.TelemetryRecord{
		VehicleID: "V-101", Timestamp: testTime,
		SpeedKmh: 60, FuelEfficiency: 2.5,
	}
	alerts := d.CheckRecord(rec)
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	if alerts[0].Type != domain.AlertEfficiencyThreshold || alerts[0].Severity != domain.SeverityMedium {
		t.Errorf("alert = %q/%q, want efficiency_threshold/medium", alerts[0].Type, alerts[0].Severity)
	}

	// Zero efficiency means no fuel burned, not a violation.
	rec.FuelEfficiency = 0
	if got := d.CheckRecord(rec); len(got) != 0 {
		t.Errorf("zero efficiency raised %d alerts, want 0", len(got))
	}
}

// Package anomaly holds the three detector families. Detectors are pure:
// they inspect a record or snapshot and return zero or more alerts, leaving
// persistence and fan-out to the pipeline.
package anomaly

import (
	"fmt"
	"time"

	"greenpulse/internal/config"
	"greenpulse/internal/domain"
)

// Detector evaluates threshold, z-score and route-deviation rules using the
// configured limits. Stateless; safe to share across workers.
type Detector struct {
	cfg *config.Config
}

func NewDetector(cfg *config.Config) *Detector {
	return &Detector{cfg: cfg}
}

// CheckRecord applies the fixed-threshold rules to one telemetry record:
// speed limits and the minimum fuel efficiency floor. Efficiency is only
// judged when it is positive; a zero reading means no fuel was burned.
func (d *Detector) CheckRecord(rec *domain.TelemetryRecord) []domain.AnomalyAlert {
	var alerts []domain.AnomalyAlert

	if rec.SpeedKmh > d.cfg.MaxSpeedKmh {
		sev := domain.SeverityHigh
		threshold := d.cfg.MaxSpeedKmh
		if rec.SpeedKmh > d.cfg.CriticalSpeedKmh {
			sev = domain.SeverityCritical
			threshold = d.cfg.CriticalSpeedKmh
		}
		alerts = append(alerts, domain.AnomalyAlert{
			VehicleID: rec.VehicleID,
			Type:      domain.AlertSpeedThreshold,
			Severity:  sev,
			Message: fmt.Sprintf("speed %.1f km/h exceeds limit %.1f km/h",
				rec.SpeedKmh, threshold),
			Timestamp: rec.Timestamp,
			Value:     rec.SpeedKmh,
			Threshold: threshold,
		})
	}

	if rec.FuelEfficiency > 0 && rec.FuelEfficiency < d.cfg.MinFuelEfficiency {
		alerts = append(alerts, domain.AnomalyAlert{
			VehicleID: rec.VehicleID,
			Type:      domain.AlertEfficiencyThreshold,
			Severity:  domain.SeverityMedium,
			Message: fmt.Sprintf("fuel efficiency %.2f km/L below minimum %.2f km/L",
				rec.FuelEfficiency, d.cfg.MinFuelEfficiency),
			Timestamp: rec.Timestamp,
			Value:     rec.FuelEfficiency,
			Threshold: d.cfg.MinFuelEfficiency,
		})
	}

	return alerts
}

// alertAt stamps detector output that has no natural event time.
func alertAt(ts time.Time) time.Time {
	if ts.IsZero() {
		return time.Now().UTC()
	}
	return ts
}

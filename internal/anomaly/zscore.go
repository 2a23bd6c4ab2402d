package anomaly

import (
	"fmt"
	"math"

	"greenpulse/internal/domain"
)

// criticalZFactor scales the base z-score threshold up to the critical band.
const criticalZFactor = 1.5

// CheckSnapshot runs the z-score detector over a sliding window snapshot,
// comparing the latest in-window speed and carbon readings against the
// window's running mean and standard deviation. Windows with fewer than
// three points carry too little signal and are skipped.
func (d *Detector) CheckSnapshot(snap *domain.WindowSnapshot) []domain.AnomalyAlert {
	if snap.DataPoints < 3 {
		return nil
	}

	var alerts []domain.AnomalyAlert

	if a := d.zScoreAlert(snap, domain.AlertSpeedZScore, "speed",
		snap.LatestSpeed, snap.AvgSpeed, snap.StdSpeed); a != nil {
		alerts = append(alerts, *a)
	}
	if a := d.zScoreAlert(snap, domain.AlertCarbonZScore, "carbon",
		snap.LatestCarbon, snap.MeanCarbon, snap.StdCarbon); a != nil {
		alerts = append(alerts, *a)
	}
	return alerts
}

func (d *Detector) zScoreAlert(snap *domain.WindowSnapshot, typ domain.AlertType, metric string, latest, mean, std float64) *domain.AnomalyAlert {
	z := math.Abs(latest-mean) / std
	if z <= d.cfg.ZScoreThreshold {
		return nil
	}

	sev := domain.SeverityHigh
	if z > d.cfg.ZScoreThreshold*criticalZFactor {
		sev = domain.SeverityCritical
	}
	return &domain.AnomalyAlert{
		VehicleID: snap.VehicleID,
		Type:      typ,
		Severity:  sev,
		Message: fmt.Sprintf("%s %.2f deviates from window mean %.2f (z=%.2f)",
			metric, latest, mean, z),
		Timestamp: alertAt(snap.WindowEnd),
		Value:     z,
		Threshold: d.cfg.ZScoreThreshold,
	}
}

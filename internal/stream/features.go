package stream

import (
	"greenpulse/internal/config"
	"greenpulse/internal/domain"
)

// Deriver fills in the per-record feature columns on a freshly joined
// telemetry record. Stateless; safe to share across workers.
type Deriver struct {
	cfg *config.Config
}

func NewDeriver(cfg *config.Config) *Deriver {
	return &Deriver{cfg: cfg}
}

// Enrich computes carbon, fuel efficiency and the fuel-drop flag in place.
// Zero fuel yields zero efficiency rather than a division error.
func (d *Deriver) Enrich(rec *domain.TelemetryRecord) {
	rec.CarbonKg = rec.FuelLiters * d.cfg.EmissionFactor(string(rec.FuelType))
	if rec.FuelLiters > 0 {
		rec.FuelEfficiency = rec.DistanceKm / rec.FuelLiters
	} else {
		rec.FuelEfficiency = 0
	}
	rec.IsFuelDrop = rec.FuelLiters > d.cfg.FuelDropThresholdL
}

// Package stream implements the incremental computation core: the temporal
// join of the raw event streams and the per-vehicle window engine. All state
// in this package is owned by exactly one per-vehicle worker, so none of it
// is guarded by locks.
package stream

import (
	"time"

	"greenpulse/internal/config"
	"greenpulse/internal/domain"
	"greenpulse/internal/metrics"
)

// Joiner holds the temporal-join state for a single vehicle. GPS events are
// matched against fuel events within ±tolerance, choosing the fuel event
// with minimum |Δt| (ties broken by earliest fuel timestamp). A GPS event is
// committed only once the vehicle's watermark has passed gps.ts+tolerance,
// so a closer fuel event arriving later can still win the match. GPS events
// with no candidate by then are dropped, not retried. Fuel events that never
// match any GPS event are silently discarded.
type Joiner struct {
	cfg *config.Config

	pendingGPS []*domain.GPSEvent
	fuels      []*domain.FuelEvent
	shipments  []*domain.ShipmentEvent

	watermark time.Time
}

func NewJoiner(cfg *config.Config) *Joiner {
	return &Joiner{cfg: cfg}
}

// Watermark is the max observed event timestamp across all three input
// streams for this vehicle.
func (j *Joiner) Watermark() time.Time {
	return j.watermark
}

// Observe ingests one normalized event and returns the telemetry records
// whose join decisions became final with this watermark advance. Returned
// records carry only the joined raw fields; derived features are filled in
// by the caller.
func (j *Joiner) Observe(ev *domain.Event) []domain.TelemetryRecord {
	switch ev.Kind {
	case domain.KindGPS:
		j.pendingGPS = append(j.pendingGPS, ev.GPS)
	case domain.KindFuel:
		j.fuels = append(j.fuels, ev.Fuel)
	case domain.KindShipment:
		j.shipments = append(j.shipments, ev.Shipment)
	}

	if ev.Timestamp.After(j.watermark) {
		j.watermark = ev.Timestamp
	}

	return j.advance()
}

// advance commits every pending GPS event whose tolerance window has fully
// expired, then prunes retained fuel and shipment events.
func (j *Joiner) advance() []domain.TelemetryRecord {
	tol := j.cfg.JoinTolerance()

	var out []domain.TelemetryRecord
	remaining := j.pendingGPS[:0]
	for _, gps := range j.pendingGPS {
		if gps.Timestamp.Add(tol).After(j.watermark) {
			remaining = append(remaining, gps)
			continue
		}
		if rec, ok := j.commit(gps, tol); ok {
			out = append(out, rec)
			metrics.RecordsJoined.Inc()
		} else {
			metrics.JoinsTimedOut.Inc()
		}
	}
	j.pendingGPS = remaining

	j.prune(tol)
	return out
}

// commit resolves the final fuel match for one GPS event.
func (j *Joiner) commit(gps *domain.GPSEvent, tol time.Duration) (domain.TelemetryRecord, bool) {
	var best *domain.FuelEvent
	var bestDelta time.Duration
	for _, f := range j.fuels {
		delta := f.Timestamp.Sub(gps.Timestamp)
		if delta < 0 {
			delta = -delta
		}
		if delta > tol {
			continue
		}
		if best == nil || delta < bestDelta ||
			(delta == bestDelta && f.Timestamp.Before(best.Timestamp)) {
			best = f
			bestDelta = delta
		}
	}
	if best == nil {
		return domain.TelemetryRecord{}, false
	}

	rec := domain.TelemetryRecord{
		VehicleID:  gps.VehicleID,
		Timestamp:  gps.Timestamp,
		Latitude:   gps.Latitude,
		Longitude:  gps.Longitude,
		SpeedKmh:   gps.SpeedKmh,
		FuelLiters: best.FuelLiters,
		DistanceKm: best.DistanceKm,
		FuelType:   best.FuelType,
	}
	j.enrichShipment(&rec)
	return rec, true
}

// enrichShipment attaches the most recent shipment at or before the GPS
// timestamp, last-value-wins. Absent shipment context leaves the fields nil.
func (j *Joiner) enrichShipment(rec *domain.TelemetryRecord) {
	var latest *domain.ShipmentEvent
	for _, s := range j.shipments {
		if s.Timestamp.After(rec.Timestamp) {
			continue
		}
		if latest == nil || s.Timestamp.After(latest.Timestamp) {
			latest = s
		}
	}
	if latest == nil {
		return
	}
	id := latest.ShipmentID
	status := latest.Status
	rec.ShipmentID = &id
	rec.ShipmentStatus = &status
	rec.IsDelayed = latest.Status == domain.ShipmentDelayed
}

// prune drops retained events no pending GPS event can still reference.
// Fuel must stay visible for two tolerance spans: a GPS event resolves at
// watermark = gps.ts+tol and may match fuel back to gps.ts-tol.
func (j *Joiner) prune(tol time.Duration) {
	fuelHorizon := j.watermark.Add(-2 * tol)
	fuels := j.fuels[:0]
	for _, f := range j.fuels {
		if !f.Timestamp.Before(fuelHorizon) {
			fuels = append(fuels, f)
		}
	}
	j.fuels = fuels

	// Shipments: keep everything recent plus the single newest older entry,
	// which remains the last-value-wins answer for upcoming GPS events.
	shipHorizon := j.watermark.Add(-j.cfg.WindowDuration())
	var newestOld *domain.ShipmentEvent
	ships := j.shipments[:0]
	for _, s := range j.shipments {
		if s.Timestamp.Before(shipHorizon) {
			if newestOld == nil || s.Timestamp.After(newestOld.Timestamp) {
				newestOld = s
			}
			continue
		}
		ships = append(ships, s)
	}
	if newestOld != nil {
		ships = append(ships, newestOld)
	}
	j.shipments = ships
}

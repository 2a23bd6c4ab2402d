package anomaly

import (
	"fmt"
	"math"

	"greenpulse/internal/domain"
)

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between two
// points given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// CheckRoute compares a position against the vehicle's expected route
// reference point. Unknown vehicles fall back to the default reference.
// Severity escalates at one, two and three times the configured bound.
func (d *Detector) CheckRoute(rec *domain.TelemetryRecord) *domain.AnomalyAlert {
	ref := d.cfg.RouteFor(rec.VehicleID)
	dist := Haversine(rec.Latitude, rec.Longitude, ref.Lat, ref.Lon)

	bound := d.cfg.RouteBoundsKm
	if dist <= bound {
		return nil
	}

	sev := domain.SeverityMedium
	switch {
	case dist > 3*bound:
		sev = domain.SeverityCritical
	case dist > 2*bound:
		sev = domain.SeverityHigh
	}

	return &domain.AnomalyAlert{
		VehicleID: rec.VehicleID,
		Type:      domain.AlertRouteDeviation,
		Severity:  sev,
		Message: fmt.Sprintf("vehicle %.2f km from expected route center (bound %.1f km)",
			dist, bound),
		Timestamp: rec.Timestamp,
		Value:     dist,
		Threshold: bound,
	}
}

// Package report builds fleet-wide rollups, per-vehicle sustainability
// scores and the emissions leaderboard.
package report

import "greenpulse/internal/domain"

// Sustainability scoring weights. Carbon intensity and fuel efficiency
// dominate; speed discipline contributes the remainder.
const (
	carbonScoreWeight = 0.35
	fuelScoreWeight   = 0.35
	speedScoreWeight  = 0.30
)

// Sustainability computes the 0-100 score for one vehicle window, higher is
// better. Zero-distance windows score carbon intensity as zero emissions.
func Sustainability(snap *domain.WindowSnapshot) domain.SustainabilityScore {
	carbonPerKm := 0.0
	if snap.TotalDistance > 0 {
		carbonPerKm = snap.CarbonKg / snap.TotalDistance
	}

	carbonScore := clamp100((5 - carbonPerKm) / 4.5 * 100)
	fuelScore := clamp100((snap.FuelEfficiency - 2) / 8 * 100)
	speedScore := clamp100((40 - abs(snap.AvgSpeed-80)) / 40 * 100)

	score := carbonScoreWeight*carbonScore +
		fuelScoreWeight*fuelScore +
		speedScoreWeight*speedScore

	return domain.SustainabilityScore{
		VehicleID:     snap.VehicleID,
		Score:         score,
		Grade:         sustainabilityGrade(score),
		CarbonPerKm:   carbonPerKm,
		AvgEfficiency: snap.FuelEfficiency,
		AvgSpeed:      snap.AvgSpeed,
	}
}

func sustainabilityGrade(score float64) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

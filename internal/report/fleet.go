package report

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"greenpulse/internal/domain"
	"greenpulse/internal/metrics"
)

// Fleet health and trend cut-offs per 5-minute fleet window.
const (
	criticalAlertCount = 10
	degradedAlertCount = 5
	elevatedCarbonKg   = 50.0
)

// Builder accumulates per-vehicle contributions for one fleet reporting
// window, then emits the immutable report. Owned by the single fleet worker.
type Builder struct {
	windowStart time.Time
	windowEnd   time.Time

	carbonByVehicle map[string]float64
	totalAlerts     int
	riskScores      []float64
	sustainability  []float64
}

func NewBuilder(windowStart, windowEnd time.Time) *Builder {
	return &Builder{
		windowStart:     windowStart,
		windowEnd:       windowEnd,
		carbonByVehicle: make(map[string]float64),
	}
}

func (b *Builder) WindowEnd() time.Time {
	return b.windowEnd
}

// Add folds one vehicle's window contribution into the rollup. A vehicle may
// contribute multiple times within one fleet window; carbon accumulates and
// the latest risk and sustainability observations are all retained for the
// averages.
func (b *Builder) Add(vehicleID string, carbonKg float64, alerts int, risk, sustainability float64) {
	b.carbonByVehicle[vehicleID] += carbonKg
	b.totalAlerts += alerts
	b.riskScores = append(b.riskScores, risk)
	b.sustainability = append(b.sustainability, sustainability)
}

// Build finalizes the report for the window.
func (b *Builder) Build(now time.Time) domain.FleetReport {
	var totalCarbon float64
	highestVehicle := ""
	highestCarbon := -1.0
	for id, kg := range b.carbonByVehicle {
		totalCarbon += kg
		if kg > highestCarbon {
			highestCarbon = kg
			highestVehicle = id
		}
	}

	avgRisk := 0.0
	if len(b.riskScores) > 0 {
		avgRisk = stat.Mean(b.riskScores, nil)
	}
	avgSustainability := 0.0
	if len(b.sustainability) > 0 {
		avgSustainability = stat.Mean(b.sustainability, nil)
	}

	health := domain.FleetHealthy
	switch {
	case b.totalAlerts > criticalAlertCount:
		health = domain.FleetCritical
	case b.totalAlerts > degradedAlertCount:
		health = domain.FleetDegraded
	}

	trend := "stable"
	if totalCarbon > elevatedCarbonKg {
		trend = "elevated"
	}

	rep := domain.FleetReport{
		WindowStart: b.windowStart,
		WindowEnd:   b.windowEnd,

		TotalCarbonKg:       totalCarbon,
		ActiveVehicles:      len(b.carbonByVehicle),
		TotalAlerts:         b.totalAlerts,
		AvgRisk:             avgRisk,
		AvgSustainability:   avgSustainability,
		FleetHealth:         health,
		EmissionTrend:       trend,
		SustainabilityGrade: fleetGrade(avgSustainability),

		HighestCarbonVehicle: highestVehicle,
		GeneratedAt:          now,
	}
	rep.ExecutiveSummary = executiveSummary(&rep)

	metrics.ReportsGenerated.Inc()
	return rep
}

// fleetGrade is coarser than the per-vehicle grade scale.
func fleetGrade(avgSustainability float64) string {
	switch {
	case avgSustainability > 80:
		return "A"
	case avgSustainability > 60:
		return "B"
	case avgSustainability > 40:
		return "C"
	default:
		return "D"
	}
}

func executiveSummary(r *domain.FleetReport) string {
	s := fmt.Sprintf(
		"%d active vehicles emitted %.1f kg CO2 between %s and %s. "+
			"%d alerts raised; fleet health %s, emissions %s. "+
			"Average risk %.1f, sustainability grade %s.",
		r.ActiveVehicles, r.TotalCarbonKg,
		r.WindowStart.Format("15:04"), r.WindowEnd.Format("15:04"),
		r.TotalAlerts, r.FleetHealth, r.EmissionTrend,
		r.AvgRisk, r.SustainabilityGrade)
	if r.HighestCarbonVehicle != "" {
		s += fmt.Sprintf(" Highest emitter: %s.", r.HighestCarbonVehicle)
	}
	return s
}

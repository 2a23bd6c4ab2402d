package report

import (
	"sort"
	"sync"

	"greenpulse/internal/domain"
)

// Leaderboard keeps cumulative per-vehicle emission totals since startup.
// Updated by per-vehicle workers on every closed window and read by the API,
// so it carries its own lock.
type Leaderboard struct {
	mu     sync.RWMutex
	totals map[string]*domain.VehicleRanking
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{totals: make(map[string]*domain.VehicleRanking)}
}

// Fold accumulates one closed window into the vehicle's running totals.
func (l *Leaderboard) Fold(snap *domain.WindowSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.totals[snap.VehicleID]
	if !ok {
		r = &domain.VehicleRanking{VehicleID: snap.VehicleID}
		l.totals[snap.VehicleID] = r
	}
	r.TotalCarbonKg += snap.CarbonKg
	r.TotalDistance += snap.TotalDistance
	r.TotalFuel += snap.TotalFuel
	r.WindowCount++

	if r.TotalFuel > 0 {
		r.AvgEfficiency = r.TotalDistance / r.TotalFuel
	}
	if r.TotalDistance > 0 {
		r.CarbonPerKm = r.TotalCarbonKg / r.TotalDistance
	}
}

// Rankings returns the leaderboard ordered greenest first: ascending carbon
// per km, with vehicle ID as a deterministic tie-break.
func (l *Leaderboard) Rankings() []domain.VehicleRanking {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.VehicleRanking, 0, len(l.totals))
	for _, r := range l.totals {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CarbonPerKm != out[j].CarbonPerKm {
			return out[i].CarbonPerKm < out[j].CarbonPerKm
		}
		return out[i].VehicleID < out[j].VehicleID
	})
	return out
}

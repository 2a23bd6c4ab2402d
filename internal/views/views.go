// Package views is the in-memory queryable state the HTTP API and websocket
// stream read from. Workers publish here regardless of whether the external
// stores are configured; Redis and TimescaleDB mirror this state, they do
// not replace it.
package views

import (
	"sync"

	"greenpulse/internal/domain"
)

// Bounded log sizes. Append-only logs are trimmed from the front once they
// exceed these; the database keeps the full history. With the archive sink
// disabled, transition and alert queries see only this retained tail.
const (
	maxTransitions = 1000
	maxAlerts      = 1000
	maxReports     = 288
)

// UpdateKind labels a live update pushed to subscribers.
type UpdateKind string

const (
	UpdateState      UpdateKind = "vehicle_state"
	UpdateAlert      UpdateKind = "alert"
	UpdatePrediction UpdateKind = "prediction"
	UpdateReport     UpdateKind = "fleet_report"
)

// Update is one fan-out message for websocket clients.
type Update struct {
	Kind    UpdateKind  `json:"kind"`
	Payload interface{} `json:"payload"`
}

// Registry is the concurrent view store. All methods are safe for use by
// many workers and readers.
type Registry struct {
	mu sync.RWMutex

	states         map[string]domain.VehicleState
	snapshots      map[string]domain.WindowSnapshot
	spikes         map[string]domain.WindowSnapshot
	predictions    map[string]domain.Prediction
	sustainability map[string]domain.SustainabilityScore

	transitions []domain.StateTransitionRecord
	alerts      []domain.AnomalyAlert

	fleetLatest  *domain.FleetReport
	fleetHistory []domain.FleetReport

	subMu  sync.Mutex
	subs   map[int]chan Update
	nextID int
}

func NewRegistry() *Registry {
	return &Registry{
		states:         make(map[string]domain.VehicleState),
		snapshots:      make(map[string]domain.WindowSnapshot),
		spikes:         make(map[string]domain.WindowSnapshot),
		predictions:    make(map[string]domain.Prediction),
		sustainability: make(map[string]domain.SustainabilityScore),
		subs:           make(map[int]chan Update),
	}
}

// Subscribe registers a live-update channel. The returned cancel func must
// be called when the client disconnects. Slow subscribers lose updates
// rather than stalling the workers.
func (r *Registry) Subscribe() (<-chan Update, func()) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	id := r.nextID
	r.nextID++
	ch := make(chan Update, 64)
	r.subs[id] = ch

	return ch, func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		if _, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(ch)
		}
	}
}

func (r *Registry) publish(u Update) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- u:
		default:
		}
	}
}

func (r *Registry) SetState(st domain.VehicleState) {
	r.mu.Lock()
	r.states[st.VehicleID] = st
	r.mu.Unlock()
	r.publish(Update{Kind: UpdateState, Payload: st})
}

func (r *Registry) AppendTransition(tr domain.StateTransitionRecord) {
	r.mu.Lock()
	r.transitions = append(r.transitions, tr)
	if len(r.transitions) > maxTransitions {
		r.transitions = r.transitions[len(r.transitions)-maxTransitions:]
	}
	r.mu.Unlock()
}

func (r *Registry) AppendAlert(a domain.AnomalyAlert) {
	r.mu.Lock()
	r.alerts = append(r.alerts, a)
	if len(r.alerts) > maxAlerts {
		r.alerts = r.alerts[len(r.alerts)-maxAlerts:]
	}
	r.mu.Unlock()
	r.publish(Update{Kind: UpdateAlert, Payload: a})
}

func (r *Registry) SetSnapshot(snap domain.WindowSnapshot) {
	r.mu.Lock()
	r.snapshots[snap.VehicleID] = snap
	r.mu.Unlock()
}

// SetSpike records the most recent micro window in which a vehicle's speed
// spread crossed the acceleration-spike limit.
func (r *Registry) SetSpike(snap domain.WindowSnapshot) {
	r.mu.Lock()
	r.spikes[snap.VehicleID] = snap
	r.mu.Unlock()
}

func (r *Registry) SetPrediction(p domain.Prediction) {
	r.mu.Lock()
	r.predictions[p.VehicleID] = p
	r.mu.Unlock()
	r.publish(Update{Kind: UpdatePrediction, Payload: p})
}

func (r *Registry) SetSustainability(s domain.SustainabilityScore) {
	r.mu.Lock()
	r.sustainability[s.VehicleID] = s
	r.mu.Unlock()
}

func (r *Registry) SetFleetReport(rep domain.FleetReport) {
	r.mu.Lock()
	r.fleetLatest = &rep
	r.fleetHistory = append(r.fleetHistory, rep)
	if len(r.fleetHistory) > maxReports {
		r.fleetHistory = r.fleetHistory[len(r.fleetHistory)-maxReports:]
	}
	r.mu.Unlock()
	r.publish(Update{Kind: UpdateReport, Payload: rep})
}

func (r *Registry) State(vehicleID string) (domain.VehicleState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.states[vehicleID]
	return st, ok
}

func (r *Registry) States() []domain.VehicleState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.VehicleState, 0, len(r.states))
	for _, st := range r.states {
		out = append(out, st)
	}
	return out
}

func (r *Registry) Transitions(limit int) []domain.StateTransitionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return tail(r.transitions, limit)
}

func (r *Registry) Alerts(limit int) []domain.AnomalyAlert {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return tail(r.alerts, limit)
}

func (r *Registry) Snapshot(vehicleID string) (domain.WindowSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.snapshots[vehicleID]
	return s, ok
}

func (r *Registry) Spike(vehicleID string) (domain.WindowSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.spikes[vehicleID]
	return s, ok
}

func (r *Registry) Prediction(vehicleID string) (domain.Prediction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.predictions[vehicleID]
	return p, ok
}

func (r *Registry) SustainabilityScores() []domain.SustainabilityScore {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.SustainabilityScore, 0, len(r.sustainability))
	for _, s := range r.sustainability {
		out = append(out, s)
	}
	return out
}

func (r *Registry) FleetLatest() (domain.FleetReport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.fleetLatest == nil {
		return domain.FleetReport{}, false
	}
	return *r.fleetLatest, true
}

func (r *Registry) FleetHistory(limit int) []domain.FleetReport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return tail(r.fleetHistory, limit)
}

func tail[T any](s []T, limit int) []T {
	if limit <= 0 || limit > len(s) {
		limit = len(s)
	}
	out := make([]T, limit)
	copy(out, s[len(s)-limit:])
	return out
}

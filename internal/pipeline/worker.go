package pipeline

import (
	"context"
	"errors"
	"log"

	"greenpulse/internal/domain"
	"greenpulse/internal/forecast"
	"greenpulse/internal/metrics"
	"greenpulse/internal/report"
	"greenpulse/internal/risk"
	"greenpulse/internal/stream"
)

// worker owns all computation state for one vehicle. Only its own goroutine
// touches that state, so the hot path takes no locks; the views registry and
// sinks do their own synchronization.
type worker struct {
	p         *Pipeline
	vehicleID string
	in        chan *domain.Event

	joiner  *stream.Joiner
	windows *stream.Windows
	tracker risk.Tracker

	// Active alerts, pruned to the window duration on every classification.
	alerts []domain.AnomalyAlert

	// Alerts raised since the last closed tumbling window, for the fleet
	// rollup.
	windowAlerts int

	latestRisk    float64
	latestSustain float64

	lastLat float64
	lastLon float64

	// Set on an ordering invariant violation; the worker then drains its
	// channel without processing. Other vehicles are unaffected.
	halted bool
}

func newWorker(p *Pipeline, vehicleID string) *worker {
	return &worker{
		p:         p,
		vehicleID: vehicleID,
		in:        make(chan *domain.Event, p.cfg.RecordChannelSize),
		joiner:    stream.NewJoiner(p.cfg),
		windows:   stream.NewWindows(p.cfg, vehicleID),
	}
}

func (w *worker) run(ctx context.Context) {
	for ev := range w.in {
		if w.halted {
			continue
		}
		w.process(ctx, ev)
	}
}

func (w *worker) process(ctx context.Context, ev *domain.Event) {
	for _, rec := range w.joiner.Observe(ev) {
		w.p.deriver.Enrich(&rec)
		w.lastLat, w.lastLon = rec.Latitude, rec.Longitude

		for _, a := range w.p.detector.CheckRecord(&rec) {
			w.raise(ctx, a)
		}
		if a := w.p.detector.CheckRoute(&rec); a != nil {
			w.raise(ctx, *a)
		}

		if w.p.sinks.Archive != nil {
			w.p.sinks.Archive.EnqueueRecord(rec)
		}

		snaps, err := w.windows.Observe(&rec)
		if err != nil {
			if errors.Is(err, stream.ErrWindowOrder) {
				log.Printf("pipeline: halting %s: %v", w.vehicleID, err)
				metrics.KeyedWorkerHalts.Inc()
				w.halted = true
				return
			}
			log.Printf("pipeline: %s window error: %v", w.vehicleID, err)
			continue
		}
		for i := range snaps {
			w.onSnapshot(ctx, &snaps[i])
		}
	}
}

func (w *worker) raise(ctx context.Context, a domain.AnomalyAlert) {
	metrics.AlertsRaised.WithLabelValues(string(a.Type)).Inc()
	w.alerts = append(w.alerts, a)
	w.windowAlerts++

	w.p.views.AppendAlert(a)
	if w.p.sinks.Archive != nil {
		w.p.sinks.Archive.EnqueueAlert(a)
	}
	if w.p.sinks.Live != nil {
		w.p.sinks.Live.PublishAlert(ctx, &a)
	}
}

func (w *worker) onSnapshot(ctx context.Context, snap *domain.WindowSnapshot) {
	switch {
	case snap.Kind == domain.WindowSliding:
		w.classify(ctx, snap)
	case snap.Kind == domain.WindowMicro && snap.IsAccelerationSpike:
		w.p.views.SetSpike(*snap)
	case snap.Kind == domain.WindowTumbling && snap.Closed:
		w.p.views.SetSnapshot(*snap)
		w.p.leaderboard.Fold(snap)
		w.contribute(snap)
	}
}

// classify reruns detection, scoring, state classification and forecasting
// against a fresh sliding snapshot.
func (w *worker) classify(ctx context.Context, snap *domain.WindowSnapshot) {
	for _, a := range w.p.detector.CheckSnapshot(snap) {
		w.raise(ctx, a)
	}
	w.pruneAlerts(snap)

	score := w.p.scorer.Compute(snap, w.alerts)
	st := w.p.classifier.Classify(snap, score, w.alerts, snap.WindowEnd)

	if tr := w.tracker.Apply(&st); tr != nil {
		metrics.StateTransitions.Inc()
		w.p.views.AppendTransition(*tr)
		if w.p.sinks.Archive != nil {
			w.p.sinks.Archive.EnqueueTransition(*tr)
		}
	}
	w.p.views.SetState(st)

	pred := forecast.Predict(snap, score, snap.WindowEnd)
	w.p.views.SetPrediction(pred)

	sus := report.Sustainability(snap)
	w.p.views.SetSustainability(sus)

	if w.p.sinks.Live != nil {
		w.p.sinks.Live.UpdateVehicle(ctx, &st, &pred, w.lastLat, w.lastLon)
	}

	w.latestRisk = score.Score
	w.latestSustain = sus.Score
}

// pruneAlerts drops alerts that have aged out of the active window.
func (w *worker) pruneAlerts(snap *domain.WindowSnapshot) {
	horizon := snap.WindowEnd.Add(-w.p.cfg.WindowDuration())
	kept := w.alerts[:0]
	for _, a := range w.alerts {
		if a.Timestamp.After(horizon) {
			kept = append(kept, a)
		}
	}
	w.alerts = kept
}

// contribute forwards a closed tumbling window to the fleet worker.
func (w *worker) contribute(snap *domain.WindowSnapshot) {
	c := fleetContribution{
		vehicleID:      w.vehicleID,
		windowStart:    snap.WindowStart,
		windowEnd:      snap.WindowEnd,
		carbonKg:       snap.CarbonKg,
		alerts:         w.windowAlerts,
		risk:           w.latestRisk,
		sustainability: w.latestSustain,
		watermark:      w.windows.Watermark(),
	}
	w.windowAlerts = 0

	select {
	case w.p.fleet <- c:
	default:
		metrics.ChannelDrops.WithLabelValues("fleet").Inc()
	}
}

// Package pipeline wires ingestion to the per-vehicle computation workers
// and the single fleet rollup worker. Events for one vehicle are processed
// strictly in arrival order by one goroutine; vehicles never block each
// other.
package pipeline

import (
	"context"
	"sync"

	"greenpulse/internal/anomaly"
	"greenpulse/internal/config"
	"greenpulse/internal/domain"
	"greenpulse/internal/metrics"
	"greenpulse/internal/report"
	"greenpulse/internal/risk"
	"greenpulse/internal/store"
	"greenpulse/internal/stream"
	"greenpulse/internal/views"
)

// Sinks are the optional external stores. Nil fields disable that sink; the
// in-memory views always receive everything.
type Sinks struct {
	Archive *store.ArchiveWriter
	Live    *store.Live
}

type Pipeline struct {
	cfg         *config.Config
	views       *views.Registry
	leaderboard *report.Leaderboard
	sinks       Sinks

	deriver    *stream.Deriver
	detector   *anomaly.Detector
	scorer     *risk.Scorer
	classifier *risk.Classifier

	events chan *domain.Event
	fleet  chan fleetContribution
}

func New(cfg *config.Config, reg *views.Registry, lb *report.Leaderboard, sinks Sinks) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		views:       reg,
		leaderboard: lb,
		sinks:       sinks,

		deriver:    stream.NewDeriver(cfg),
		detector:   anomaly.NewDetector(cfg),
		scorer:     risk.NewScorer(cfg),
		classifier: risk.NewClassifier(cfg),

		events: make(chan *domain.Event, cfg.EventChannelSize),
		fleet:  make(chan fleetContribution, 256),
	}
}

// Events is the ingestion entry channel for blocking producers (CSV replay).
func (p *Pipeline) Events() chan<- *domain.Event {
	return p.events
}

// Submit offers one event without blocking; full-queue events are counted
// and dropped. Used by the live transports.
func (p *Pipeline) Submit(ev *domain.Event) bool {
	select {
	case p.events <- ev:
		return true
	default:
		metrics.ChannelDrops.WithLabelValues("pipeline").Inc()
		return false
	}
}

// Run dispatches events until ctx is cancelled, then drains the per-vehicle
// workers before returning.
func (p *Pipeline) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.runFleet(ctx)
	}()

	workers := make(map[string]*worker)
	var workerWG sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			for _, w := range workers {
				close(w.in)
			}
			workerWG.Wait()
			close(p.fleet)
			wg.Wait()
			return
		case ev := <-p.events:
			w, ok := workers[ev.VehicleID]
			if !ok {
				w = newWorker(p, ev.VehicleID)
				workers[ev.VehicleID] = w
				workerWG.Add(1)
				go func() {
					defer workerWG.Done()
					w.run(ctx)
				}()
			}
			select {
			case w.in <- ev:
			default:
				metrics.ChannelDrops.WithLabelValues("worker").Inc()
			}
		}
	}
}

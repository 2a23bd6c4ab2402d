package pipeline

import (
	"context"
	"time"

	"greenpulse/internal/report"
)

// fleetContribution is one vehicle's closed tumbling window folded into the
// fleet rollup.
type fleetContribution struct {
	vehicleID      string
	windowStart    time.Time
	windowEnd      time.Time
	carbonKg       float64
	alerts         int
	risk           float64
	sustainability float64
	watermark      time.Time
}

// runFleet is the single fleet worker. Contributions are grouped by window
// start; a window's report is emitted once the fleet watermark has passed
// its end by one hop of grace, so vehicles whose contributions arrive a
// little later in processing order still land in the right report.
func (p *Pipeline) runFleet(ctx context.Context) {
	builders := make(map[int64]*report.Builder)
	var watermark time.Time
	grace := p.cfg.SlideHop()

	// The channel is closed after the per-vehicle workers drain, so every
	// contribution from a clean shutdown is still folded in before the
	// final flush.
	for c := range p.fleet {
		key := c.windowStart.Unix()
		b, ok := builders[key]
		if !ok {
			b = report.NewBuilder(c.windowStart, c.windowEnd)
			builders[key] = b
		}
		b.Add(c.vehicleID, c.carbonKg, c.alerts, c.risk, c.sustainability)

		if c.watermark.After(watermark) {
			watermark = c.watermark
		}
		for key, b := range builders {
			if !watermark.Before(b.WindowEnd().Add(grace)) {
				p.emitFleet(ctx, b)
				delete(builders, key)
			}
		}
	}

	// Emit whatever is pending so a shutdown does not lose a window.
	for key, b := range builders {
		p.emitFleet(ctx, b)
		delete(builders, key)
	}
}

func (p *Pipeline) emitFleet(ctx context.Context, b *report.Builder) {
	rep := b.Build(time.Now().UTC())
	p.views.SetFleetReport(rep)
	if p.sinks.Archive != nil {
		p.sinks.Archive.EnqueueReport(rep)
	}
	if p.sinks.Live != nil {
		p.sinks.Live.PublishReport(ctx, &rep)
	}
}

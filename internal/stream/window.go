package stream

import (
	"errors"
	"fmt"
	"math"
	"time"

	"greenpulse/internal/config"
	"greenpulse/internal/domain"
	"greenpulse/internal/metrics"
)

// ErrWindowOrder reports a window emitted out of order for a vehicle. The
// owning worker halts the key on this; other vehicles keep processing.
var ErrWindowOrder = errors.New("window emitted out of order")

// stdFloor keeps z-score denominators away from zero.
const stdFloor = 0.001

// bucketAgg is the incremental reducer state for one tumbling or micro
// window. Sums and sums of squares only; averages, variance and the other
// derived columns are computed once at emission.
type bucketAgg struct {
	start time.Time
	end   time.Time

	count       int64
	sumSpeed    float64
	sumSpeedSq  float64
	minSpeed    float64
	maxSpeed    float64
	sumFuel     float64
	sumDist     float64
	sumCarbon   float64
	sumCarbonSq float64

	latestTs     time.Time
	latestSpeed  float64
	latestCarbon float64
}

func newBucketAgg(start time.Time, width time.Duration) *bucketAgg {
	return &bucketAgg{start: start, end: start.Add(width)}
}

func (b *bucketAgg) add(rec *domain.TelemetryRecord) {
	if b.count == 0 || rec.SpeedKmh < b.minSpeed {
		b.minSpeed = rec.SpeedKmh
	}
	if b.count == 0 || rec.SpeedKmh > b.maxSpeed {
		b.maxSpeed = rec.SpeedKmh
	}
	b.count++
	b.sumSpeed += rec.SpeedKmh
	b.sumSpeedSq += rec.SpeedKmh * rec.SpeedKmh
	b.sumFuel += rec.FuelLiters
	b.sumDist += rec.DistanceKm
	b.sumCarbon += rec.CarbonKg
	b.sumCarbonSq += rec.CarbonKg * rec.CarbonKg
	if b.latestTs.IsZero() || !rec.Timestamp.Before(b.latestTs) {
		b.latestTs = rec.Timestamp
		b.latestSpeed = rec.SpeedKmh
		b.latestCarbon = rec.CarbonKg
	}
}

// slideEvent is one retained observation for the sliding window.
type slideEvent struct {
	ts     time.Time
	speed  float64
	fuel   float64
	dist   float64
	carbon float64
}

// Windows is the per-vehicle window engine. It maintains one open tumbling
// bucket, one open micro bucket, and the retained event set for the sliding
// window. Buckets close only when the vehicle's watermark passes their end;
// a vehicle that stops reporting leaves its bucket open indefinitely.
type Windows struct {
	cfg       *config.Config
	vehicleID string

	watermark time.Time

	tumbling *bucketAgg
	micro    *bucketAgg

	slide   []slideEvent
	nextHop time.Time

	lastEmitted map[domain.WindowKind]time.Time
}

func NewWindows(cfg *config.Config, vehicleID string) *Windows {
	return &Windows{
		cfg:         cfg,
		vehicleID:   vehicleID,
		lastEmitted: make(map[domain.WindowKind]time.Time),
	}
}

// Observe feeds one joined telemetry record through all three window
// families and returns every snapshot emitted as a result: closed tumbling
// and micro windows plus any sliding hop snapshots the watermark advance
// produced.
func (w *Windows) Observe(rec *domain.TelemetryRecord) ([]domain.WindowSnapshot, error) {
	if rec.Timestamp.After(w.watermark) {
		w.watermark = rec.Timestamp
	}

	var out []domain.WindowSnapshot

	snap, err := w.observeBucketed(&w.tumbling, rec, domain.WindowTumbling, w.cfg.WindowDuration())
	if err != nil {
		return nil, err
	}
	if snap != nil {
		out = append(out, *snap)
	}

	snap, err = w.observeBucketed(&w.micro, rec, domain.WindowMicro, w.cfg.MicroWindow())
	if err != nil {
		return nil, err
	}
	if snap != nil {
		out = append(out, *snap)
	}

	hops, err := w.observeSliding(rec)
	if err != nil {
		return nil, err
	}
	out = append(out, hops...)

	return out, nil
}

// observeBucketed runs the tumbling/micro protocol: accumulate into the open
// bucket, close and emit it when a record lands past its end, and drop
// records for buckets that already closed. Allowed lateness is zero.
func (w *Windows) observeBucketed(slot **bucketAgg, rec *domain.TelemetryRecord, kind domain.WindowKind, width time.Duration) (*domain.WindowSnapshot, error) {
	start := rec.Timestamp.Truncate(width)

	cur := *slot
	if cur == nil {
		cur = newBucketAgg(start, width)
		*slot = cur
	}

	switch {
	case start.Before(cur.start):
		metrics.EventsDroppedLate.Inc()
		return nil, nil
	case start.Equal(cur.start):
		cur.add(rec)
		return nil, nil
	}

	// Watermark passed the open bucket's end: close it, then start the new
	// bucket with this record.
	snap, err := w.emitBucket(cur, kind, true)
	if err != nil {
		return nil, err
	}
	next := newBucketAgg(start, width)
	next.add(rec)
	*slot = next
	return snap, nil
}

func (w *Windows) emitBucket(b *bucketAgg, kind domain.WindowKind, closed bool) (*domain.WindowSnapshot, error) {
	if last, ok := w.lastEmitted[kind]; ok && b.start.Before(last) {
		return nil, fmt.Errorf("%w: %s %s window %s after %s",
			ErrWindowOrder, w.vehicleID, kind,
			b.start.Format(time.RFC3339), last.Format(time.RFC3339))
	}
	if closed {
		w.lastEmitted[kind] = b.start
		metrics.WindowsClosed.WithLabelValues(string(kind)).Inc()
	}

	snap := w.buildSnapshot(b, kind, closed)
	return &snap, nil
}

// buildSnapshot derives the emission-time columns from the reducer sums.
func (w *Windows) buildSnapshot(b *bucketAgg, kind domain.WindowKind, closed bool) domain.WindowSnapshot {
	snap := domain.WindowSnapshot{
		VehicleID:   w.vehicleID,
		Kind:        kind,
		WindowStart: b.start,
		WindowEnd:   b.end,
		Closed:      closed,

		DataPoints:    b.count,
		MaxSpeed:      b.maxSpeed,
		MinSpeed:      b.minSpeed,
		TotalFuel:     b.sumFuel,
		TotalDistance: b.sumDist,

		LatestSpeed:  b.latestSpeed,
		LatestCarbon: b.latestCarbon,
	}

	if b.count > 0 {
		n := float64(b.count)
		snap.AvgSpeed = b.sumSpeed / n
		snap.MeanCarbon = b.sumCarbon / n
		snap.StdSpeed = stddev(b.sumSpeed, b.sumSpeedSq, n)
		snap.StdCarbon = stddev(b.sumCarbon, b.sumCarbonSq, n)
	}

	snap.CarbonKg = b.sumFuel * w.cfg.DefaultEmissionFactor
	if b.sumFuel > 0 {
		snap.FuelEfficiency = b.sumDist / b.sumFuel
	}
	snap.SpeedVariance = b.maxSpeed - b.minSpeed

	switch kind {
	case domain.WindowMicro:
		snap.IsAccelerationSpike = snap.SpeedVariance > w.cfg.MaxAccelerationSpike
	case domain.WindowTumbling:
		snap.IsIdle = snap.AvgSpeed < w.cfg.IdleSpeedKmh && b.count >= w.cfg.IdleMinDataPoints
	}
	return snap
}

// observeSliding retains the record and emits one non-terminal snapshot per
// hop boundary the watermark crossed. Statistics are recomputed from the
// retained set each hop; retained events older than the window are evicted.
func (w *Windows) observeSliding(rec *domain.TelemetryRecord) ([]domain.WindowSnapshot, error) {
	hop := w.cfg.SlideHop()
	width := w.cfg.WindowDuration()

	if w.nextHop.IsZero() {
		w.nextHop = rec.Timestamp.Truncate(hop).Add(hop)
	}

	if rec.Timestamp.Before(w.watermark.Add(-width)) {
		metrics.EventsDroppedLate.Inc()
		return nil, nil
	}
	w.slide = append(w.slide, slideEvent{
		ts:     rec.Timestamp,
		speed:  rec.SpeedKmh,
		fuel:   rec.FuelLiters,
		dist:   rec.DistanceKm,
		carbon: rec.CarbonKg,
	})

	var out []domain.WindowSnapshot
	for !w.watermark.Before(w.nextHop) {
		snap, err := w.emitSlide(w.nextHop, width)
		if err != nil {
			return nil, err
		}
		if snap != nil {
			out = append(out, *snap)
		}
		w.nextHop = w.nextHop.Add(hop)
	}

	w.evictSlide(width)
	return out, nil
}

// emitSlide aggregates retained events in (boundary-width, boundary].
func (w *Windows) emitSlide(boundary time.Time, width time.Duration) (*domain.WindowSnapshot, error) {
	start := boundary.Add(-width)
	agg := newBucketAgg(start, width)
	for i := range w.slide {
		ev := &w.slide[i]
		if ev.ts.After(boundary) || !ev.ts.After(start) {
			continue
		}
		agg.add(&domain.TelemetryRecord{
			Timestamp:  ev.ts,
			SpeedKmh:   ev.speed,
			FuelLiters: ev.fuel,
			DistanceKm: ev.dist,
			CarbonKg:   ev.carbon,
		})
	}
	if agg.count == 0 {
		return nil, nil
	}
	return w.emitBucket(agg, domain.WindowSliding, false)
}

func (w *Windows) evictSlide(width time.Duration) {
	horizon := w.watermark.Add(-width)
	kept := w.slide[:0]
	for _, ev := range w.slide {
		if ev.ts.After(horizon) {
			kept = append(kept, ev)
		}
	}
	w.slide = kept
}

// CurrentTumbling returns a non-terminal snapshot of the open tumbling
// bucket, or nil when no record has arrived yet. Never recorded as a
// closed window.
func (w *Windows) CurrentTumbling() *domain.WindowSnapshot {
	if w.tumbling == nil || w.tumbling.count == 0 {
		return nil
	}
	snap := w.buildSnapshot(w.tumbling, domain.WindowTumbling, false)
	return &snap
}

// Watermark is the max record timestamp observed for this vehicle.
func (w *Windows) Watermark() time.Time {
	return w.watermark
}

// stddev computes a population standard deviation from running sums,
// clamping negative variance from float error and flooring the result.
func stddev(sum, sumSq, n float64) float64 {
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	sd := math.Sqrt(variance)
	if sd < stdFloor {
		return stdFloor
	}
	return sd
}

// Package store holds the TimescaleDB archive and the Redis live views.
// Both are optional; the engine runs fully in-memory without them.
package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"greenpulse/internal/config"
	"greenpulse/internal/domain"
	"greenpulse/internal/metrics"
)

// Timescale wraps the pgx pool for the archive tables.
type Timescale struct {
	pool *pgxpool.Pool
}

func NewTimescale(ctx context.Context, cfg *config.Config) (*Timescale, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	pc.MaxConns = cfg.DBMaxConns

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &Timescale{pool: pool}, nil
}

func (t *Timescale) Close() {
	t.pool.Close()
}

// CopyRecords bulk-inserts telemetry rows via the COPY protocol.
func (t *Timescale) CopyRecords(ctx context.Context, recs []domain.TelemetryRecord) error {
	if len(recs) == 0 {
		return nil
	}
	rows := make([][]interface{}, 0, len(recs))
	for i := range recs {
		r := &recs[i]
		rows = append(rows, []interface{}{
			r.Timestamp, r.VehicleID, r.Latitude, r.Longitude, r.SpeedKmh,
			r.FuelLiters, r.DistanceKm, string(r.FuelType),
			r.CarbonKg, r.FuelEfficiency, r.IsFuelDrop,
			r.ShipmentID, shipmentStatusText(r.ShipmentStatus), r.IsDelayed,
		})
	}
	_, err := t.pool.CopyFrom(ctx,
		pgx.Identifier{"telemetry_records"},
		[]string{"time", "vehicle_id", "latitude", "longitude", "speed_kmh",
			"fuel_liters", "distance_km", "fuel_type",
			"carbon_kg", "fuel_efficiency", "is_fuel_drop",
			"shipment_id", "shipment_status", "is_delayed"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy telemetry_records: %w", err)
	}
	return nil
}

func shipmentStatusText(s *domain.ShipmentStatus) *string {
	if s == nil {
		return nil
	}
	str := string(*s)
	return &str
}

func (t *Timescale) InsertAlerts(ctx context.Context, alerts []domain.AnomalyAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i := range alerts {
		a := &alerts[i]
		batch.Queue(
			`INSERT INTO anomaly_alerts
			   (time, vehicle_id, anomaly_type, severity, message, value, threshold)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			a.Timestamp, a.VehicleID, string(a.Type), string(a.Severity),
			a.Message, a.Value, a.Threshold)
	}
	if err := t.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert anomaly_alerts: %w", err)
	}
	return nil
}

func (t *Timescale) InsertTransitions(ctx context.Context, trs []domain.StateTransitionRecord) error {
	if len(trs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i := range trs {
		tr := &trs[i]
		batch.Queue(
			`INSERT INTO state_transitions
			   (time, vehicle_id, from_state, to_state, risk_level, reason)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			tr.Timestamp, tr.VehicleID, string(tr.FromState), string(tr.ToState),
			string(tr.RiskLevel), tr.Reason)
	}
	if err := t.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert state_transitions: %w", err)
	}
	return nil
}

func (t *Timescale) InsertReport(ctx context.Context, r *domain.FleetReport) error {
	_, err := t.pool.Exec(ctx,
		`INSERT INTO fleet_reports
		   (window_start, window_end, total_carbon_kg, active_vehicles,
		    total_alerts, avg_risk, avg_sustainability, fleet_health,
		    emission_trend, sustainability_grade, highest_carbon_vehicle,
		    executive_summary, generated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		r.WindowStart, r.WindowEnd, r.TotalCarbonKg, r.ActiveVehicles,
		r.TotalAlerts, r.AvgRisk, r.AvgSustainability, string(r.FleetHealth),
		r.EmissionTrend, r.SustainabilityGrade, r.HighestCarbonVehicle,
		r.ExecutiveSummary, r.GeneratedAt)
	if err != nil {
		return fmt.Errorf("insert fleet_reports: %w", err)
	}
	return nil
}

// ArchiveWriter drains the pipeline's archive traffic into TimescaleDB in
// batches: records flush on size or on the ticker, everything else flushes
// immediately. A failed flush is retried once before the rows are dropped.
type ArchiveWriter struct {
	db  *Timescale
	cfg *config.Config

	records     chan domain.TelemetryRecord
	alerts      chan domain.AnomalyAlert
	transitions chan domain.StateTransitionRecord
	reports     chan domain.FleetReport
}

func NewArchiveWriter(db *Timescale, cfg *config.Config) *ArchiveWriter {
	return &ArchiveWriter{
		db:          db,
		cfg:         cfg,
		records:     make(chan domain.TelemetryRecord, cfg.OutputChannelSize),
		alerts:      make(chan domain.AnomalyAlert, cfg.OutputChannelSize),
		transitions: make(chan domain.StateTransitionRecord, cfg.OutputChannelSize),
		reports:     make(chan domain.FleetReport, 16),
	}
}

// Enqueue methods never block the pipeline; overflow is counted and dropped.

func (w *ArchiveWriter) EnqueueRecord(r domain.TelemetryRecord) {
	select {
	case w.records <- r:
	default:
		metrics.ChannelDrops.WithLabelValues("db_records").Inc()
	}
}

func (w *ArchiveWriter) EnqueueAlert(a domain.AnomalyAlert) {
	select {
	case w.alerts <- a:
	default:
		metrics.ChannelDrops.WithLabelValues("db_alerts").Inc()
	}
}

func (w *ArchiveWriter) EnqueueTransition(t domain.StateTransitionRecord) {
	select {
	case w.transitions <- t:
	default:
		metrics.ChannelDrops.WithLabelValues("db_transitions").Inc()
	}
}

func (w *ArchiveWriter) EnqueueReport(r domain.FleetReport) {
	select {
	case w.reports <- r:
	default:
		metrics.ChannelDrops.WithLabelValues("db_reports").Inc()
	}
}

func (w *ArchiveWriter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(w.cfg.DBFlushIntervalMS) * time.Millisecond)
	defer ticker.Stop()

	batch := make([]domain.TelemetryRecord, 0, w.cfg.DBBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		w.write(ctx, len(batch), func() error { return w.db.CopyRecords(ctx, batch) })
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if len(batch) > 0 {
				if err := w.db.CopyRecords(flushCtx, batch); err != nil {
					log.Printf("db writer: final flush: %v", err)
				}
			}
			cancel()
			return
		case r := <-w.records:
			batch = append(batch, r)
			if len(batch) >= w.cfg.DBBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case a := <-w.alerts:
			w.write(ctx, 1, func() error {
				return w.db.InsertAlerts(ctx, []domain.AnomalyAlert{a})
			})
		case t := <-w.transitions:
			w.write(ctx, 1, func() error {
				return w.db.InsertTransitions(ctx, []domain.StateTransitionRecord{t})
			})
		case r := <-w.reports:
			w.write(ctx, 1, func() error { return w.db.InsertReport(ctx, &r) })
		}
	}
}

// write runs one flush with a single retry.
func (w *ArchiveWriter) write(_ context.Context, rows int, fn func() error) {
	err := fn()
	if err != nil {
		log.Printf("db writer: %v (retrying)", err)
		err = fn()
	}
	if err != nil {
		log.Printf("db writer: %v (dropping %d rows)", err, rows)
		metrics.DBWriteFailures.Add(float64(rows))
		return
	}
	metrics.DBWriteSuccess.Add(float64(rows))
}

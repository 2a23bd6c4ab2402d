// Command init_db creates the TimescaleDB schema: hypertables for telemetry
// records, anomaly alerts, state transitions and fleet reports.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"greenpulse/internal/config"
)

func main() {
	godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	divider("extensions")
	execOrFatal(ctx, pool, `CREATE EXTENSION IF NOT EXISTS timescaledb`)

	divider("telemetry_records")
	execOrFatal(ctx, pool, `
		CREATE TABLE IF NOT EXISTS telemetry_records (
			time            TIMESTAMPTZ      NOT NULL,
			vehicle_id      TEXT             NOT NULL,
			latitude        DOUBLE PRECISION NOT NULL,
			longitude       DOUBLE PRECISION NOT NULL,
			speed_kmh       DOUBLE PRECISION NOT NULL,
			fuel_liters     DOUBLE PRECISION NOT NULL,
			distance_km     DOUBLE PRECISION NOT NULL,
			fuel_type       TEXT             NOT NULL,
			carbon_kg       DOUBLE PRECISION NOT NULL,
			fuel_efficiency DOUBLE PRECISION NOT NULL,
			is_fuel_drop    BOOLEAN          NOT NULL DEFAULT FALSE,
			shipment_id     TEXT,
			shipment_status TEXT,
			is_delayed      BOOLEAN          NOT NULL DEFAULT FALSE
		)`)
	execOrFatal(ctx, pool,
		`SELECT create_hypertable('telemetry_records', 'time', if_not_exists => TRUE)`)
	execOrFatal(ctx, pool, `
		CREATE INDEX IF NOT EXISTS idx_telemetry_vehicle_time
		ON telemetry_records (vehicle_id, time DESC)`)

	divider("anomaly_alerts")
	execOrFatal(ctx, pool, `
		CREATE TABLE IF NOT EXISTS anomaly_alerts (
			time         TIMESTAMPTZ      NOT NULL,
			vehicle_id   TEXT             NOT NULL,
			anomaly_type TEXT             NOT NULL,
			severity     TEXT             NOT NULL,
			message      TEXT             NOT NULL,
			value        DOUBLE PRECISION NOT NULL,
			threshold    DOUBLE PRECISION NOT NULL
		)`)
	execOrFatal(ctx, pool,
		`SELECT create_hypertable('anomaly_alerts', 'time', if_not_exists => TRUE)`)
	execOrFatal(ctx, pool, `
		CREATE INDEX IF NOT EXISTS idx_alerts_vehicle_time
		ON anomaly_alerts (vehicle_id, time DESC)`)

	divider("state_transitions")
	execOrFatal(ctx, pool, `
		CREATE TABLE IF NOT EXISTS state_transitions (
			time       TIMESTAMPTZ NOT NULL,
			vehicle_id TEXT        NOT NULL,
			from_state TEXT        NOT NULL,
			to_state   TEXT        NOT NULL,
			risk_level TEXT        NOT NULL,
			reason     TEXT        NOT NULL
		)`)
	execOrFatal(ctx, pool,
		`SELECT create_hypertable('state_transitions', 'time', if_not_exists => TRUE)`)

	divider("fleet_reports")
	execOrFatal(ctx, pool, `
		CREATE TABLE IF NOT EXISTS fleet_reports (
			window_start           TIMESTAMPTZ      NOT NULL,
			window_end             TIMESTAMPTZ      NOT NULL,
			total_carbon_kg        DOUBLE PRECISION NOT NULL,
			active_vehicles        INTEGER          NOT NULL,
			total_alerts           INTEGER          NOT NULL,
			avg_risk               DOUBLE PRECISION NOT NULL,
			avg_sustainability     DOUBLE PRECISION NOT NULL,
			fleet_health           TEXT             NOT NULL,
			emission_trend         TEXT             NOT NULL,
			sustainability_grade   TEXT             NOT NULL,
			highest_carbon_vehicle TEXT             NOT NULL,
			executive_summary      TEXT             NOT NULL,
			generated_at           TIMESTAMPTZ      NOT NULL
		)`)
	execOrFatal(ctx, pool, `
		CREATE INDEX IF NOT EXISTS idx_reports_window
		ON fleet_reports (window_start DESC)`)

	divider("done")
	log.Println("schema ready")
}

func execOrFatal(ctx context.Context, pool *pgxpool.Pool, sql string) {
	if _, err := pool.Exec(ctx, sql); err != nil {
		log.Fatalf("exec failed: %v\n%s", err, sql)
	}
}

func divider(step string) {
	fmt.Printf("──────────────── %s ────────────────\n", step)
}

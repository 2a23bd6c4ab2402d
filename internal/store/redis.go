package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"greenpulse/internal/config"
	"greenpulse/internal/domain"
	"greenpulse/internal/metrics"
)

// Redis key layout.
//
//	vehicle:state:<id>       hash, current state + risk + prediction
//	vehicle:positions        geo set of last known positions
//	apikey:<key>             string, client name for a valid API key
//	route:<id>               hash, expected route reference point
//	channel alerts:live      published anomaly alerts
//	channel reports:live     published fleet reports
const (
	stateKeyPrefix = "vehicle:state:"
	positionsKey   = "vehicle:positions"
	apiKeyPrefix   = "apikey:"
	routeKeyPrefix = "route:"
	alertsChannel  = "alerts:live"
	reportsChannel = "reports:live"
	stateTTL       = 30 * time.Minute
)

// Live mirrors the hot per-vehicle state into Redis for dashboards and
// other services. Failures are logged and counted, never propagated back
// into the pipeline.
type Live struct {
	rdb *redis.Client
}

func NewLive(ctx context.Context, cfg *config.Config) (*Live, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	return &Live{rdb: rdb}, nil
}

func (l *Live) Close() error {
	return l.rdb.Close()
}

// UpdateVehicle writes the state hash, refreshes its TTL and updates the
// fleet geo set in one round trip.
func (l *Live) UpdateVehicle(ctx context.Context, st *domain.VehicleState, pred *domain.Prediction, lat, lon float64) {
	key := stateKeyPrefix + st.VehicleID

	fields := map[string]interface{}{
		"current_state":  string(st.CurrentState),
		"previous_state": string(st.PreviousState),
		"risk_level":     string(st.RiskLevel),
		"risk_score":     strconv.FormatFloat(st.RiskScore, 'f', 2, 64),
		"reason":         st.Reason,
		"updated_at":     st.UpdatedAt.Format(time.RFC3339),
	}
	if pred != nil {
		fields["predicted_carbon_10min"] = strconv.FormatFloat(pred.PredictedCarbon10Min, 'f', 2, 64)
		fields["predicted_risk_score"] = strconv.FormatFloat(pred.PredictedRiskScore, 'f', 2, 64)
		fields["risk_escalation_probability"] = strconv.FormatFloat(pred.RiskEscalationProbability, 'f', 4, 64)
		fields["fuel_exhaustion_minutes"] = strconv.FormatFloat(pred.FuelExhaustionMinutes, 'f', 1, 64)
	}

	pipe := l.rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, stateTTL)
	pipe.GeoAdd(ctx, positionsKey, &redis.GeoLocation{
		Name:      st.VehicleID,
		Latitude:  lat,
		Longitude: lon,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("redis: update vehicle %s: %v", st.VehicleID, err)
		metrics.RedisWriteFailures.Inc()
	}
}

// PublishAlert pushes an alert onto the live channel.
func (l *Live) PublishAlert(ctx context.Context, a *domain.AnomalyAlert) {
	payload, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := l.rdb.Publish(ctx, alertsChannel, payload).Err(); err != nil {
		log.Printf("redis: publish alert: %v", err)
		metrics.RedisWriteFailures.Inc()
	}
}

// PublishReport pushes a fleet report onto the live channel.
func (l *Live) PublishReport(ctx context.Context, r *domain.FleetReport) {
	payload, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := l.rdb.Publish(ctx, reportsChannel, payload).Err(); err != nil {
		log.Printf("redis: publish report: %v", err)
		metrics.RedisWriteFailures.Inc()
	}
}

// GetAPIKey resolves an API key to its client name. Unknown keys return
// found=false with no error.
func (l *Live) GetAPIKey(ctx context.Context, key string) (name string, found bool, err error) {
	name, err = l.rdb.Get(ctx, apiKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

// LoadRoutes reads seeded route reference points, overriding the built-in
// demo plan for any vehicle present in Redis.
func (l *Live) LoadRoutes(ctx context.Context, into map[string]config.RoutePoint) error {
	iter := l.rdb.Scan(ctx, 0, routeKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		fields, err := l.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("load route %s: %w", key, err)
		}
		lat, err1 := strconv.ParseFloat(fields["lat"], 64)
		lon, err2 := strconv.ParseFloat(fields["lon"], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		into[key[len(routeKeyPrefix):]] = config.RoutePoint{Lat: lat, Lon: lon}
	}
	return iter.Err()
}

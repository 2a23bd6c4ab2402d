package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RoutePoint is the expected-route reference center for a vehicle.
type RoutePoint struct {
	Lat float64
	Lon float64
}

// Config carries every tunable the engine needs. It is immutable after
// Load() and passed by pointer to each component at construction.
type Config struct {
	// HTTP
	HTTPPort    string
	MetricsPort string

	// TimescaleDB
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int32

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MQTT / NATS ingestion
	MQTTBrokerURL string
	MQTTTopic     string
	NATSServerURL string
	NATSSubject   string

	// CSV replay ingestion
	GPSCSVPath      string
	FuelCSVPath     string
	ShipmentCSVPath string

	// Pipeline channels
	EventChannelSize  int
	RecordChannelSize int
	OutputChannelSize int

	// Batch writer tuning
	DBBatchSize       int
	DBFlushIntervalMS int

	// Join engine
	JoinToleranceSec int

	// Windows
	WindowDurationSec int
	SlideHopSec       int
	MicroWindowSec    int

	// Emission factors (kg CO2 per liter)
	DieselEmissionFactor   float64
	GasolineEmissionFactor float64
	DefaultEmissionFactor  float64

	// Anomaly thresholds
	MaxSpeedKmh          float64
	CriticalSpeedKmh     float64
	MinFuelEfficiency    float64
	ZScoreThreshold      float64
	RouteBoundsKm        float64
	MaxAccelerationSpike float64
	FuelDropThresholdL   float64
	IdleSpeedKmh         float64
	IdleMinDataPoints    int64

	// Risk scoring weights
	AlertWeight      float64
	EfficiencyWeight float64
	CarbonWeight     float64
	StatusWeight     float64

	// State classifier thresholds
	CriticalRiskScore   float64
	CriticalAlertCount  int
	EmissionThresholdKg float64
	EfficientThreshold  float64

	// Expected route reference points, keyed by vehicle ID. Vehicles not
	// listed fall back to DefaultRoute (never an error).
	ExpectedRoutes map[string]RoutePoint
	DefaultRoute   RoutePoint

	// Auth
	AuthCacheTTLSeconds int
	ValidAPIKeys        []string
}

func Load() *Config {
	return &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8000"),
		MetricsPort: getEnv("METRICS_PORT", "9100"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "greenpulse"),
		DBPassword: getEnv("DB_PASSWORD", "greenpulse"),
		DBName:     getEnv("DB_NAME", "greenpulse"),
		DBMaxConns: int32(getEnvInt("DB_MAX_CONNS", 15)),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MQTTBrokerURL: getEnv("MQTT_BROKER_URL", ""),
		MQTTTopic:     getEnv("MQTT_TOPIC", "greenpulse/telemetry/+"),
		NATSServerURL: getEnv("NATS_SERVER_URL", ""),
		NATSSubject:   getEnv("NATS_SUBJECT", "greenpulse.telemetry.>"),

		GPSCSVPath:      getEnv("GPS_CSV_PATH", ""),
		FuelCSVPath:     getEnv("FUEL_CSV_PATH", ""),
		ShipmentCSVPath: getEnv("SHIPMENT_CSV_PATH", ""),

		EventChannelSize:  getEnvInt("EVENT_CHANNEL_SIZE", 10000),
		RecordChannelSize: getEnvInt("RECORD_CHANNEL_SIZE", 10000),
		OutputChannelSize: getEnvInt("OUTPUT_CHANNEL_SIZE", 10000),

		DBBatchSize:       getEnvInt("DB_BATCH_SIZE", 500),
		DBFlushIntervalMS: getEnvInt("DB_FLUSH_INTERVAL_MS", 100),

		JoinToleranceSec: getEnvInt("JOIN_TOLERANCE_SEC", 30),

		WindowDurationSec: getEnvInt("WINDOW_DURATION_SEC", 300),
		SlideHopSec:       getEnvInt("SLIDE_HOP_SEC", 60),
		MicroWindowSec:    getEnvInt("MICRO_WINDOW_SEC", 10),

		DieselEmissionFactor:   getEnvFloat("DIESEL_EMISSION_FACTOR", 2.68),
		GasolineEmissionFactor: getEnvFloat("GASOLINE_EMISSION_FACTOR", 2.31),
		DefaultEmissionFactor:  getEnvFloat("DEFAULT_EMISSION_FACTOR", 2.68),

		MaxSpeedKmh:          getEnvFloat("MAX_SPEED_KMH", 120.0),
		CriticalSpeedKmh:     getEnvFloat("CRITICAL_SPEED_KMH", 140.0),
		MinFuelEfficiency:    getEnvFloat("MIN_FUEL_EFFICIENCY", 3.0),
		ZScoreThreshold:      getEnvFloat("ZSCORE_THRESHOLD", 2.5),
		RouteBoundsKm:        getEnvFloat("ROUTE_BOUNDS_KM", 5.0),
		MaxAccelerationSpike: getEnvFloat("MAX_ACCELERATION_SPIKE", 15.0),
		FuelDropThresholdL:   getEnvFloat("FUEL_DROP_THRESHOLD_L", 5.0),
		IdleSpeedKmh:         getEnvFloat("IDLE_SPEED_KMH", 5.0),
		IdleMinDataPoints:    int64(getEnvInt("IDLE_MIN_DATA_POINTS", 3)),

		AlertWeight:      getEnvFloat("RISK_ALERT_WEIGHT", 0.35),
		EfficiencyWeight: getEnvFloat("RISK_EFFICIENCY_WEIGHT", 0.25),
		CarbonWeight:     getEnvFloat("RISK_CARBON_WEIGHT", 0.25),
		StatusWeight:     getEnvFloat("RISK_STATUS_WEIGHT", 0.15),

		CriticalRiskScore:   getEnvFloat("CRITICAL_RISK_SCORE", 80.0),
		CriticalAlertCount:  getEnvInt("CRITICAL_ALERT_COUNT", 3),
		EmissionThresholdKg: getEnvFloat("EMISSION_THRESHOLD_KG", 15.0),
		EfficientThreshold:  getEnvFloat("EFFICIENT_THRESHOLD", 7.0),

		ExpectedRoutes: defaultRoutes(),
		DefaultRoute:   RoutePoint{Lat: 40.7128, Lon: -74.0060},

		AuthCacheTTLSeconds: getEnvInt("AUTH_CACHE_TTL_SECONDS", 300),
		ValidAPIKeys:        strings.Split(getEnv("VALID_API_KEYS", ""), ","),
	}
}

// defaultRoutes is the demo route plan; production deployments seed Redis
// instead (scripts/seed_redis) and override these at startup.
func defaultRoutes() map[string]RoutePoint {
	return map[string]RoutePoint{
		"V-101": {Lat: 40.7128, Lon: -74.0060}, // New York
		"V-102": {Lat: 42.3601, Lon: -71.0589}, // Boston
		"V-103": {Lat: 39.9526, Lon: -75.1652}, // Philadelphia
		"V-104": {Lat: 40.7357, Lon: -74.1724}, // Newark
		"V-105": {Lat: 41.7658, Lon: -72.6734}, // Hartford
		"V-106": {Lat: 39.2904, Lon: -76.6122}, // Baltimore
	}
}

// RouteFor returns the expected route center for a vehicle, falling back to
// the default reference when the vehicle is unknown.
func (c *Config) RouteFor(vehicleID string) RoutePoint {
	if p, ok := c.ExpectedRoutes[vehicleID]; ok {
		return p
	}
	return c.DefaultRoute
}

func (c *Config) JoinTolerance() time.Duration {
	return time.Duration(c.JoinToleranceSec) * time.Second
}

func (c *Config) WindowDuration() time.Duration {
	return time.Duration(c.WindowDurationSec) * time.Second
}

func (c *Config) SlideHop() time.Duration {
	return time.Duration(c.SlideHopSec) * time.Second
}

func (c *Config) MicroWindow() time.Duration {
	return time.Duration(c.MicroWindowSec) * time.Second
}

// EmissionFactor returns kg CO2 per liter for the given fuel type.
func (c *Config) EmissionFactor(ft string) float64 {
	switch ft {
	case "diesel":
		return c.DieselEmissionFactor
	case "gasoline":
		return c.GasolineEmissionFactor
	default:
		return c.DefaultEmissionFactor
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

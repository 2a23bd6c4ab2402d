package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greenpulse_events_received_total",
		Help: "Raw events received per source kind.",
	}, []string{"kind"})

	EventsMalformed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greenpulse_events_malformed_total",
		Help: "Events dropped by the normalizer per source kind.",
	}, []string{"kind"})

	EventsDroppedLate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenpulse_events_dropped_late_total",
		Help: "Events discarded because their window already closed.",
	})

	RecordsJoined = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenpulse_records_joined_total",
		Help: "Telemetry records produced by the temporal join engine.",
	})

	JoinsTimedOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenpulse_joins_timed_out_total",
		Help: "GPS events dropped with no fuel match within tolerance.",
	})

	WindowsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greenpulse_windows_closed_total",
		Help: "Windows closed and emitted, per window kind.",
	}, []string{"kind"})

	AlertsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greenpulse_alerts_raised_total",
		Help: "Anomaly alerts raised per detector type.",
	}, []string{"type"})

	StateTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenpulse_state_transitions_total",
		Help: "Vehicle state transitions appended to the log.",
	})

	ReportsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenpulse_fleet_reports_total",
		Help: "Fleet reports emitted.",
	})

	KeyedWorkerHalts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenpulse_keyed_worker_halts_total",
		Help: "Per-vehicle workers halted on an invariant violation.",
	})

	ChannelDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greenpulse_channel_drops_total",
		Help: "Events dropped on full bounded channels, per stage.",
	}, []string{"stage"})

	DBWriteSuccess = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenpulse_db_write_success_total",
		Help: "Rows written to TimescaleDB.",
	})

	DBWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenpulse_db_write_failures_total",
		Help: "Rows that permanently failed to write to TimescaleDB.",
	})

	RedisWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenpulse_redis_write_failures_total",
		Help: "Failed Redis live-view updates.",
	})
)

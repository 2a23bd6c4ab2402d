package domain

import "time"

// TelemetryRecord is the result of temporally joining a GPS event with its
// closest fuel event (±30s) and the latest shipment status for the vehicle.
// One record per qualifying GPS event; GPS events with no fuel match within
// tolerance produce nothing.
type TelemetryRecord struct {
	VehicleID string    `json:"vehicle_id"`
	Timestamp time.Time `json:"timestamp"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	SpeedKmh  float64 `json:"speed"`

	FuelLiters float64  `json:"fuel_liters"`
	DistanceKm float64  `json:"distance_km"`
	FuelType   FuelType `json:"fuel_type"`

	// Derived per-record features.
	CarbonKg       float64 `json:"carbon_kg"`
	FuelEfficiency float64 `json:"fuel_efficiency"`
	IsFuelDrop     bool    `json:"is_fuel_drop"`

	// Shipment enrichment; nil when no shipment is known for the vehicle at
	// or before the GPS timestamp (left join, never an error).
	ShipmentID     *string         `json:"shipment_id,omitempty"`
	ShipmentStatus *ShipmentStatus `json:"shipment_status,omitempty"`
	IsDelayed      bool            `json:"is_delayed"`
}

// WindowKind distinguishes the aggregation window families.
type WindowKind string

const (
	WindowTumbling WindowKind = "tumbling"
	WindowSliding  WindowKind = "sliding"
	WindowMicro    WindowKind = "micro"
)

// WindowSnapshot is an emitted per-vehicle window aggregate. Terminal
// snapshots (Closed=true) are immutable; sliding windows additionally emit
// non-terminal snapshots at every hop boundary.
type WindowSnapshot struct {
	VehicleID   string     `json:"vehicle_id"`
	Kind        WindowKind `json:"window_kind"`
	WindowStart time.Time  `json:"window_start"`
	WindowEnd   time.Time  `json:"window_end"`
	Closed      bool       `json:"closed"`

	DataPoints    int64   `json:"data_points"`
	AvgSpeed      float64 `json:"avg_speed"`
	MaxSpeed      float64 `json:"max_speed"`
	MinSpeed      float64 `json:"min_speed"`
	TotalFuel     float64 `json:"total_fuel"`
	TotalDistance float64 `json:"total_distance"`

	// Derived once per emission, never incrementally.
	CarbonKg       float64 `json:"carbon_kg"`
	FuelEfficiency float64 `json:"fuel_efficiency"`
	SpeedVariance  float64 `json:"speed_variance"`

	// Running statistics for the z-score detector. Std values are floored
	// at 0.001 so downstream division never sees zero.
	StdSpeed   float64 `json:"std_speed"`
	StdCarbon  float64 `json:"std_carbon"`
	MeanCarbon float64 `json:"mean_carbon"`

	// Most recent in-window observation, the z-score "latest value".
	LatestSpeed  float64 `json:"latest_speed"`
	LatestCarbon float64 `json:"latest_carbon"`

	// Micro-window / tumbling-window derived flags.
	IsAccelerationSpike bool `json:"is_acceleration_spike,omitempty"`
	IsIdle              bool `json:"is_idle,omitempty"`
}

package domain

import "time"

// EventKind discriminates the three raw telemetry streams.
type EventKind string

const (
	KindGPS      EventKind = "gps"
	KindFuel     EventKind = "fuel"
	KindShipment EventKind = "shipment"
)

// FuelType drives the carbon emission factor lookup.
type FuelType string

const (
	FuelDiesel   FuelType = "diesel"
	FuelGasoline FuelType = "gasoline"
	FuelUnknown  FuelType = "unknown"
)

// ShipmentStatus values mirror what the shipment feed publishes.
type ShipmentStatus string

const (
	ShipmentLoading   ShipmentStatus = "loading"
	ShipmentInTransit ShipmentStatus = "in_transit"
	ShipmentDelayed   ShipmentStatus = "delayed"
	ShipmentDelivered ShipmentStatus = "delivered"
)

// GPSEvent is one position reading from a vehicle. Immutable once created.
type GPSEvent struct {
	VehicleID string    `json:"vehicle_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	SpeedKmh  float64   `json:"speed"`
	Timestamp time.Time `json:"timestamp"`
}

// FuelEvent is one fuel consumption reading. Immutable once created.
type FuelEvent struct {
	VehicleID  string    `json:"vehicle_id"`
	FuelLiters float64   `json:"fuel_liters"`
	DistanceKm float64   `json:"distance_km"`
	FuelType   FuelType  `json:"fuel_type"`
	Timestamp  time.Time `json:"timestamp"`
}

// ShipmentEvent is one shipment status update. Immutable once created.
type ShipmentEvent struct {
	ShipmentID  string         `json:"shipment_id"`
	VehicleID   string         `json:"vehicle_id"`
	Status      ShipmentStatus `json:"status"`
	Origin      string         `json:"origin"`
	Destination string         `json:"destination"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Event is the normalized envelope the dispatcher routes by vehicle ID.
// Exactly one of GPS, Fuel, Shipment is non-nil, matching Kind.
type Event struct {
	Kind       EventKind
	VehicleID  string
	Timestamp  time.Time
	ReceivedAt time.Time

	GPS      *GPSEvent
	Fuel     *FuelEvent
	Shipment *ShipmentEvent
}
